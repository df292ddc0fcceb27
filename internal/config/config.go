// Package config loads archdsl settings from a YAML file.
//
// Files overlay Default(), so every key is optional. Unknown keys are
// rejected, and the merged result is checked against an embedded CUE
// schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/archdsl/internal/querymongo"
	"github.com/roach88/archdsl/internal/validate"
)

//go:embed config.cue
var schemaCUE string

// Config holds every setting the commands read.
type Config struct {
	Limits  validate.Config `json:"limits" yaml:"limits"`
	IDField string          `json:"id_field" yaml:"id_field"`
	Mongo   Mongo           `json:"mongo" yaml:"mongo"`
	Journal Journal         `json:"journal" yaml:"journal"`
	Log     Log             `json:"log" yaml:"log"`
}

// Mongo locates the collection commands run against.
type Mongo struct {
	URI        string `json:"uri" yaml:"uri"`
	Database   string `json:"database" yaml:"database"`
	Collection string `json:"collection" yaml:"collection"`
	// Timeout bounds each command, e.g. "10s".
	Timeout string `json:"timeout" yaml:"timeout"`
}

// Journal locates the update journal database. An empty path disables it.
type Journal struct {
	Path string `json:"path" yaml:"path"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Limits:  validate.DefaultConfig(),
		IDField: querymongo.DefaultIDField,
		Mongo: Mongo{
			URI:        "mongodb://localhost:27017",
			Database:   "archive",
			Collection: "units",
			Timeout:    "10s",
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path over Default() and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cfg against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("config.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(ctx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// Timeout returns the parsed Mongo command timeout.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Mongo.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// Logger builds a slog.Logger writing to w. verbose forces debug level.
func (c Config) Logger(w io.Writer, verbose bool) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
