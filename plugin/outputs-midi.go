//go:build !nomidi

package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type MIDIOutput struct {
	Port     drivers.Out
	Send     func(msg midi.Message) error
	WG       sync.WaitGroup
	Velocity uint8
	Length   time.Duration
}

func NewMIDIOutput(port int, velocity uint8, length time.Duration) (*MIDIOutput, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %w", err)
	}

	if velocity == 0 {
		velocity = DefaultVelocity
	}
	if length <= 0 {
		length = DefaultNoteLength
	}

	slog.Info("MIDI audition output opened",
		slog.Int("port", port),
		slog.String("name", out.String()))

	return &MIDIOutput{
		Port:     out,
		Send:     send,
		Velocity: velocity,
		Length:   length,
	}, nil
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// Audition plays each note in turn without blocking the caller.
// Close waits for playback to finish.
func (mo *MIDIOutput) Audition(channel uint8, notes []uint8) error {
	if channel > 15 {
		return fmt.Errorf("invalid MIDI channel: %d", channel)
	}

	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		for _, note := range notes {
			if err := mo.SendNoteOnMIDI(channel, note, mo.Velocity); err != nil {
				slog.Error("NoteOn event failed", slog.Any("error", err))
				return
			}
			time.Sleep(mo.Length)
			if err := mo.SendNoteOffMIDI(channel, note); err != nil {
				slog.Error("NoteOff event failed, attempting Flush", slog.Any("error", err))
				mo.Flush()
				return
			}
		}
	}()

	return nil
}

func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(0, midi.AllNotesOff, midi.Off))
}

func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }
