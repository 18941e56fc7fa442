package plugin

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	Mt "github.com/maroda/midiassign/types"
)

var ErrNotFound = errors.New("not found")

// Key prefixes, one keyspace per record kind
const (
	prefixInstrument = "inst/"
	prefixDocument   = "doc/"
	prefixAdaptation = "adapt/"
)

func init() {
	// Document events are held behind the Event interface
	gob.Register(Mt.NoteEvent{})
	gob.Register(Mt.ControllerEvent{})
	gob.Register(Mt.ProgramEvent{})
	gob.Register(Mt.PitchBendEvent{})
	gob.Register(Mt.ChannelPressureEvent{})
	gob.Register(Mt.MetaEvent{})
}

type BadgerStore struct {
	DB  *badger.DB
	Now func() time.Time
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)

	return openBadgerStore(opts, path)
}

// NewMemoryStore keeps everything in memory, for tests and throwaway runs
func NewMemoryStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return openBadgerStore(opts, "memory")
}

func openBadgerStore(opts badger.Options, path string) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		slog.Error("BadgerStore failed to open database", slog.Any("error", err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	slog.Info("BadgerStore opened", slog.String("path", path))
	return &BadgerStore{DB: db, Now: time.Now}, nil
}

// InstrumentKey is device and id, NUL separated so one device's
// instruments sort together
func InstrumentKey(deviceID, id string) []byte {
	key := make([]byte, 0, len(prefixInstrument)+len(deviceID)+1+len(id))
	key = append(key, prefixInstrument...)
	key = append(key, deviceID...)
	key = append(key, 0)
	key = append(key, id...)
	return key
}

func DocumentKey(id string) []byte {
	return []byte(prefixDocument + id)
}

// AdaptationKey creates a composite key
// document id + creation time + record id
func AdaptationKey(documentID string, created time.Time, id string) []byte {
	prefix := adaptationPrefix(documentID)
	key := make([]byte, len(prefix)+8, len(prefix)+8+len(id))
	copy(key, prefix)

	// Using positive BigEndian integer to convert timestamp
	// so keys can be sorted chronologically by BadgerDB
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(created.UnixNano()))
	return append(key, id...)
}

func adaptationPrefix(documentID string) []byte {
	return []byte(prefixAdaptation + documentID + "/")
}

// Encode serializes a record for data storage
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes record data into v
func Decode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(v); err != nil {
		return fmt.Errorf("decode error: %w", err)
	}
	return nil
}

// Instruments are kept as JSON so a gm_program or note_range_min of 0 stays set
func encodeInstrument(c Mt.InstrumentCapability) ([]byte, error) {
	val, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}
	return val, nil
}

func decodeInstrument(data []byte) (Mt.InstrumentCapability, error) {
	var c Mt.InstrumentCapability
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode error: %w", err)
	}
	return c, nil
}

func (bs *BadgerStore) put(key []byte, v any) error {
	val, err := Encode(v)
	if err != nil {
		return err
	}
	return bs.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) get(key []byte, v any) error {
	return bs.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		return item.Value(func(val []byte) error {
			return Decode(val, v)
		})
	})
}

// scan decodes every value under prefix, in key order
func (bs *BadgerStore) scan(prefix []byte, each func(val []byte) error) error {
	return bs.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(each); err != nil {
				slog.Error("BadgerStore callback failure", slog.Any("error", err))
				return fmt.Errorf("item data error: %w", err)
			}
		}
		return nil
	})
}

func (bs *BadgerStore) PutInstrument(c Mt.InstrumentCapability) error {
	if c.DeviceID == "" || c.ID == "" {
		return fmt.Errorf("instrument needs a device and an id")
	}
	val, err := encodeInstrument(c)
	if err != nil {
		return err
	}
	return bs.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(InstrumentKey(c.DeviceID, c.ID), val)
	})
}

// PutInstruments performs the key/value creation to be stored
// and writes the whole catalog in one batch
func (bs *BadgerStore) PutInstruments(caps []Mt.InstrumentCapability) error {
	wb := bs.DB.NewWriteBatch()
	defer wb.Cancel()

	for _, c := range caps {
		if c.DeviceID == "" || c.ID == "" {
			return fmt.Errorf("instrument %q needs a device and an id", c.Name)
		}
		v, err := encodeInstrument(c)
		if err != nil {
			return err
		}
		if err := wb.Set(InstrumentKey(c.DeviceID, c.ID), v); err != nil {
			slog.Error("BadgerStore failed to set key in batch",
				slog.Any("error", err),
				slog.String("device", c.DeviceID),
				slog.String("instrument", c.ID))
			return fmt.Errorf("write batch error: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		slog.Error("BadgerStore failed to flush batch", slog.Any("error", err))
		return fmt.Errorf("batch flush error: %w", err)
	}

	slog.Info("BadgerStore imported instruments", slog.Int("count", len(caps)))
	return nil
}

func (bs *BadgerStore) GetInstrument(deviceID, id string) (Mt.InstrumentCapability, error) {
	var c Mt.InstrumentCapability
	err := bs.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(InstrumentKey(deviceID, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		return item.Value(func(val []byte) error {
			c, err = decodeInstrument(val)
			return err
		})
	})
	return c, err
}

func (bs *BadgerStore) DeleteInstrument(deviceID, id string) error {
	key := InstrumentKey(deviceID, id)
	return bs.DB.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		return txn.Delete(key)
	})
}

func (bs *BadgerStore) ListInstruments() ([]Mt.InstrumentCapability, error) {
	caps := []Mt.InstrumentCapability{}
	err := bs.scan([]byte(prefixInstrument), func(val []byte) error {
		c, err := decodeInstrument(val)
		if err != nil {
			return err
		}
		caps = append(caps, c)
		return nil
	})
	return caps, err
}

func (bs *BadgerStore) PutDocument(doc StoredDocument) (string, error) {
	if doc.Document == nil {
		return "", fmt.Errorf("cannot store an empty document")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = bs.Now().UTC()
	}

	if err := bs.put(DocumentKey(doc.ID), doc); err != nil {
		slog.Error("BadgerStore failed to write document",
			slog.String("id", doc.ID),
			slog.Any("error", err))
		return "", err
	}
	return doc.ID, nil
}

func (bs *BadgerStore) GetDocument(id string) (StoredDocument, error) {
	var doc StoredDocument
	err := bs.get(DocumentKey(id), &doc)
	return doc, err
}

func (bs *BadgerStore) PutAdaptation(meta Mt.AdaptationMetadata) (string, error) {
	if meta.DocumentID == "" {
		return "", fmt.Errorf("adaptation record needs a document id")
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = bs.Now().UTC()
	}

	err := bs.put(AdaptationKey(meta.DocumentID, meta.CreatedAt, meta.ID), meta)
	return meta.ID, err
}

// ListAdaptations returns a document's adaptation records, oldest first
func (bs *BadgerStore) ListAdaptations(documentID string) ([]Mt.AdaptationMetadata, error) {
	records := []Mt.AdaptationMetadata{}
	err := bs.scan(adaptationPrefix(documentID), func(val []byte) error {
		var m Mt.AdaptationMetadata
		if err := Decode(val, &m); err != nil {
			return err
		}
		records = append(records, m)
		return nil
	})

	slog.Debug("BadgerStore ListAdaptations", slog.String("document", documentID), slog.Int("count", len(records)))
	return records, err
}

func (bs *BadgerStore) Close() error {
	if err := bs.DB.Close(); err != nil {
		slog.Error("BadgerStore failed to close database", slog.Any("error", err))
		return fmt.Errorf("close failed: %w", err)
	}

	slog.Info("BadgerStore closed successfully")
	return nil
}

func (bs *BadgerStore) Type() string { return "BadgerDB" }
