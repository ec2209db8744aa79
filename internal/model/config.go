package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	"github.com/creasty/defaults"

	_ "embed"
)

const (
	ReadErrorsTruncate = "truncate"
	ReadErrorsAbort    = "abort"

	DecompressNone = "none"
	DecompressAuto = "auto"

	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"
)

// Config is the wc configuration file
type Config struct {
	Version int     `json:"version" yaml:"version"` // fixed 0 for now
	Count   Count   `json:"count" yaml:"count"`
	Input   Input   `json:"input" yaml:"input"`
	Service Service `json:"service" yaml:"service"`
}

// Count controls the classification pass and the default output.
type Count struct {
	ReadErrors string   `json:"read_errors" yaml:"read_errors" default:"truncate"` // "truncate" | "abort"
	Counters   []string `json:"counters,omitempty" yaml:"counters,omitempty"`     // nil/empty => bytes, lines, words
}

// Input controls how the byte source is opened.
type Input struct {
	Decompress string `json:"decompress" yaml:"decompress" default:"none"` // "none" | "auto"
}

type Service struct {
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose"`
	Log     string `json:"log,omitempty" yaml:"log" default:"stderr"` // "stderr"|"stdout"|"discard"|path
}

// AbortOnReadError reports if a read error in the middle of the input
// discards the partial counters.
func (c Count) AbortOnReadError() bool {
	return c.ReadErrors == ReadErrorsAbort
}

//go:embed config.cue
var cueSource []byte

var (
	cueMu     sync.Mutex // guards cueCtx, cue.Context is not goroutine safe
	cueCtx    *cue.Context
	cueConfig cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	cueConfig = compiled.LookupPath(cue.ParsePath("#Config"))
	if cueConfig.Err() != nil {
		panic(cueConfig.Err())
	}
	if err := cueConfig.Validate(); err != nil {
		panic(err)
	}
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
// Return CueError in a case validation phase fails
func LoadConfig(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	cueMu.Lock()
	defer cueMu.Unlock()

	yamlFile, err := yaml.Extract("config.yaml", bytes.NewReader(b))
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := cueConfig.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, CueError{cuerr: err}
	}

	var ret Config
	if err := unified.Decode(&ret); err != nil {
		return Config{}, err
	}
	if err := defaults.Set(&ret); err != nil {
		return Config{}, fmt.Errorf("applying defaults: %w", err)
	}
	ret.Service.Log = os.ExpandEnv(ret.Service.Log)
	return ret, nil
}

// LoadConfigFromPath loads the configuration file, path "-" means stdin.
func LoadConfigFromPath(path string) (Config, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("error opening config file: %w", err)
		}
		r = f
		defer func() {
			err := f.Close()
			if err != nil {
				slog.Error("can't close config file", "path", path, "error", err)
			}
		}()
	}

	cfg, err := LoadConfig(r)
	if err != nil {
		var cuerr CueError
		if errors.As(err, &cuerr) {
			for _, d := range cuerr.Details() {
				slog.Error("validation error", d.Attr("detail"))
			}
		}
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
