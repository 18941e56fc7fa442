package midiassign

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// WSRequest is one command sent over /ws
type WSRequest struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// WSResponse answers a WSRequest with the same id and command
type WSResponse struct {
	ID      string       `json:"id"`
	Command string       `json:"command"`
	OK      bool         `json:"ok"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// Commands understood by the WebSocket channel
const (
	CmdAnalyzeChannels     = "analyze_channels"
	CmdAnalyzeChannel      = "analyze_channel"
	CmdGenerateSuggestions = "generate_suggestions"
	CmdApplyAssignments    = "apply_assignments"
	CmdDrumMapping         = "drum_mapping"
	CmdListInstruments     = "list_instruments"
	CmdValidateInstruments = "validate_instruments"
)

type documentCommand struct {
	DocumentID string `json:"documentId"`
	Channel    int    `json:"channel"`
}

type suggestCommand struct {
	DocumentID string `json:"documentId"`
	SuggestRequest
}

type applyCommand struct {
	DocumentID string `json:"documentId"`
	ApplyRequest
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler answers commands in the order they arrive
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxUploadBytes)

	for {
		var req WSRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("Websocket closed", slog.Any("Error", err))
			}
			return
		}

		resp := v.Dispatch(r.Context(), req)
		if err := conn.WriteJSON(resp); err != nil {
			return // Connection closed
		}
	}
}

// Dispatch runs one command against the Service
func (v *View) Dispatch(ctx context.Context, req WSRequest) WSResponse {
	resp := WSResponse{ID: req.ID, Command: req.Command}

	data, err := v.run(ctx, req)
	if err != nil {
		_, code := StatusOf(err)
		resp.Error = &ErrorDetail{Code: code, Message: err.Error()}
		return resp
	}

	resp.OK = true
	resp.Data = data
	return resp
}

func (v *View) run(ctx context.Context, req WSRequest) (any, error) {
	s := v.Service

	switch req.Command {
	case CmdAnalyzeChannels:
		var cmd documentCommand
		if err := unmarshalData(req.Data, &cmd); err != nil {
			return nil, err
		}
		return s.Analyses(ctx, cmd.DocumentID)

	case CmdAnalyzeChannel:
		var cmd documentCommand
		if err := unmarshalData(req.Data, &cmd); err != nil {
			return nil, err
		}
		return s.Analysis(ctx, cmd.DocumentID, cmd.Channel)

	case CmdGenerateSuggestions:
		var cmd suggestCommand
		if err := unmarshalData(req.Data, &cmd); err != nil {
			return nil, err
		}
		return s.Suggest(ctx, cmd.DocumentID, cmd.SuggestRequest)

	case CmdApplyAssignments:
		var cmd applyCommand
		if err := unmarshalData(req.Data, &cmd); err != nil {
			return nil, err
		}
		return s.Apply(ctx, cmd.DocumentID, cmd.ApplyRequest)

	case CmdDrumMapping:
		var cmd DrumMappingRequest
		if err := unmarshalData(req.Data, &cmd); err != nil {
			return nil, err
		}
		return s.DrumMapping(ctx, cmd)

	case CmdListInstruments:
		return s.Instruments(ctx)

	case CmdValidateInstruments:
		return s.ValidateInstruments(ctx)
	}

	return nil, fmt.Errorf("%w: unknown command %q", ErrBadRequest, req.Command)
}

func unmarshalData(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return badRequest("missing data")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return badRequest("invalid data: %v", err)
	}
	return nil
}
