package midiassign

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	Mt "github.com/maroda/midiassign/types"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Cache   CacheConfig
	Assign  AssignConfig
	MIDI    MIDIConfig
	Catalog CatalogConfig
	Log     LogConfig
	OTel    OTelConfig
}

type ServerConfig struct {
	Addr string
}

type StorageConfig struct {
	Path     string
	InMemory bool
}

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

type AssignConfig struct {
	TopN      int
	MinScore  int
	DrumRemap bool
}

type MIDIConfig struct {
	Port       int // below zero disables audition
	Velocity   int
	NoteLength time.Duration
}

type CatalogConfig struct {
	File   string
	Reload time.Duration // zero reads the file once
}

type LogConfig struct {
	Level  string
	Format string
}

type OTelConfig struct {
	Enabled  bool
	Provider string
}

// LoadConfig reads midiassign.yaml from . or ./config when present,
// then MIDIASSIGN_ environment variables, e.g. MIDIASSIGN_SERVER_ADDR
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("midiassign")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.SetEnvPrefix("MIDIASSIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("storage.path", "./data/badger")
	v.SetDefault("storage.inmemory", false)
	v.SetDefault("cache.maxentries", 100)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("assign.topn", 5)
	v.SetDefault("assign.minscore", 30)
	v.SetDefault("assign.drumremap", false)
	v.SetDefault("midi.port", -1)
	v.SetDefault("midi.velocity", 100)
	v.SetDefault("midi.notelength", 300*time.Millisecond)
	v.SetDefault("catalog.file", "")
	v.SetDefault("catalog.reload", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.provider", "otlp")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("Could not read config file", slog.Any("error", err))
			return nil, fmt.Errorf("config file error: %w", err)
		}
	} else {
		slog.Info("Config file loaded", slog.String("file", v.ConfigFileUsed()))
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Storage: StorageConfig{
			Path:     v.GetString("storage.path"),
			InMemory: v.GetBool("storage.inmemory"),
		},
		Cache: CacheConfig{
			MaxEntries: v.GetInt("cache.maxentries"),
			TTL:        v.GetDuration("cache.ttl"),
		},
		Assign: AssignConfig{
			TopN:      v.GetInt("assign.topn"),
			MinScore:  v.GetInt("assign.minscore"),
			DrumRemap: v.GetBool("assign.drumremap"),
		},
		MIDI: MIDIConfig{
			Port:       v.GetInt("midi.port"),
			Velocity:   v.GetInt("midi.velocity"),
			NoteLength: v.GetDuration("midi.notelength"),
		},
		Catalog: CatalogConfig{
			File:   v.GetString("catalog.file"),
			Reload: v.GetDuration("catalog.reload"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		OTel: OTelConfig{
			Enabled:  v.GetBool("otel.enabled"),
			Provider: v.GetString("otel.provider"),
		},
	}

	if cfg.Assign.TopN < 1 {
		return nil, fmt.Errorf("assign.topn must be at least 1, got %d", cfg.Assign.TopN)
	}
	if cfg.Assign.MinScore < 0 || cfg.Assign.MinScore > 100 {
		return nil, fmt.Errorf("assign.minscore must be within 0-100, got %d", cfg.Assign.MinScore)
	}

	return cfg, nil
}

// NewLogger builds the process logger from the log settings
func NewLogger(c LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// LoadCatalogFileName pulls a given filename instrument catalog off local disk
// Validation is performed on the file before opening
func LoadCatalogFileName(filename string) ([]Mt.InstrumentCapability, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("error", err))
		return nil, err
	}

	return LoadCatalog(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

func LoadCatalog(file *os.File) ([]Mt.InstrumentCapability, error) {
	// decode json
	var catalog []Mt.InstrumentCapability
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&catalog); err != nil {
		slog.Error("could not decode file", slog.String("file", file.Name()))
		return nil, err
	}

	return catalog, nil
}
