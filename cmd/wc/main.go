package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/CZERTAINLY/wc/internal/count"
	"github.com/CZERTAINLY/wc/internal/input"
	"github.com/CZERTAINLY/wc/internal/log"
	"github.com/CZERTAINLY/wc/internal/model"
	"github.com/CZERTAINLY/wc/internal/report"
	"github.com/CZERTAINLY/wc/internal/stats"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configEnv = "WCCONFIG"

// expvar names are global, so the counters are published once per process
var runStats = sync.OnceValue(func() *stats.Stats {
	return stats.New("wc")
})

type flags struct {
	bytes bool // value of --cbytes flag
	lines bool // value of --lines flag
	chars bool // value of --mchars flag
	words bool // value of --words flag

	decompress  bool   // value of --decompress flag
	configPath  string // value of --config flag
	printConfig bool   // value of --print-config flag
	verbose     bool   // value of --verbose flag
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "wc [flags] [file]",
		Short: "print byte, line, word and character counts of a file or stdin",
		Long: `wc prints the newline, word and byte counts of a file, or of the standard
input when no file is given. Without any counter flag it prints bytes, lines
and words, in that order.`,
		Args:    cobra.MaximumNArgs(1),
		Version: version(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doCount(cmd, args, f)
		},
		// never print messages and usage
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	fs := cmd.Flags()
	fs.BoolVarP(&f.bytes, "cbytes", "c", false, "print the byte count")
	fs.BoolVarP(&f.lines, "lines", "l", false, "print the newline count")
	fs.BoolVarP(&f.chars, "mchars", "m", false, "print the character count")
	fs.BoolVarP(&f.words, "words", "w", false, "print the word count")
	fs.BoolVarP(&f.decompress, "decompress", "z", false, "count the decompressed content of gzip or zstd input")
	fs.StringVar(&f.configPath, "config", "", "config file to load, - for stdin (or "+configEnv+")")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective configuration and exit")
	fs.BoolVar(&f.verbose, "verbose", false, "verbose logging")
	return cmd
}

func main() {
	slog.SetDefault(log.New(false))

	rootCmd := newRootCmd()
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		slog.Error("wc failed", "err", err)
		if strings.Contains(err.Error(), "arg(s)") || strings.Contains(err.Error(), "flag") {
			_ = cmd.Usage()
		}
		os.Exit(1)
	}
}

func doCount(cmd *cobra.Command, args []string, f flags) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}

	config, err := loadConfig(cmd, f, path)
	if err != nil {
		return err
	}

	logOut, err := log.Writer(config.Service.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logOut.Close()
	}()
	logger := log.NewTo(logOut, config.Service.Verbose)

	ctx := log.ContextAttrs(cmd.Context(), slog.Group("wc",
		slog.String("path", path),
		slog.Int("pid", os.Getpid()),
	))
	logger.DebugContext(ctx, "", "config", config)

	if f.printConfig {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("encoding configuration: %w", err)
		}
		return enc.Close()
	}

	sel, err := selection(f, config)
	if err != nil {
		return err
	}

	st := runStats()
	src, err := input.Open(ctx, path,
		input.WithStdin(cmd.InOrStdin()),
		input.WithStats(st),
		input.WithDecompression(f.decompress || config.Input.Decompress == model.DecompressAuto),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.WarnContext(ctx, "can't close input", "error", err)
		}
	}()

	counters, err := count.Classify(src)
	st.AddBytes(counters.Bytes)
	if err != nil {
		if config.Count.AbortOnReadError() {
			return fmt.Errorf("reading %s: %w", displayName(path), err)
		}
		logger.WarnContext(ctx, "read failed: counts cover the bytes read so far",
			"error", err,
			"bytes", counters.Bytes,
		)
	}
	logger.DebugContext(ctx, "counted",
		"compression", src.Compression.String(),
		"counters", counters,
	)
	logger.DebugContext(ctx, "stats", st.Attrs()...)

	_, err = fmt.Fprintln(cmd.OutOrStdout(), report.Format(counters, sel, src.Name))
	return err
}

// selection returns the counters requested by flags, or the configured
// default set when no counter flag was given
func selection(f flags, config model.Config) (report.Selection, error) {
	defaults := report.DefaultSelection
	if len(config.Count.Counters) > 0 {
		var err error
		defaults, err = report.ParseSelection(config.Count.Counters)
		if err != nil {
			return report.Selection{}, fmt.Errorf("count.counters: %w", err)
		}
	}
	sel := report.Selection{
		Bytes: f.bytes,
		Lines: f.lines,
		Words: f.words,
		Chars: f.chars,
	}
	return sel.Resolve(defaults), nil
}

func loadConfig(cmd *cobra.Command, f flags, path string) (model.Config, error) {
	configPath := f.configPath
	if configPath == "" {
		configPath = os.Getenv(configEnv)
	}

	var config model.Config
	switch configPath {
	case "":
		config = model.DefaultConfig()
	case "-":
		if path == "" || path == "-" {
			return config, fmt.Errorf("config and input can't be both read from stdin")
		}
		var err error
		config, err = model.LoadConfig(cmd.InOrStdin())
		if err != nil {
			return config, fmt.Errorf("parsing config: %w", err)
		}
	default:
		var err error
		config, err = model.LoadConfigFromPath(configPath)
		if err != nil {
			return config, err
		}
	}

	// --verbose has a precedence over config file
	if f.verbose {
		config.Service.Verbose = true
	}
	return config, nil
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "wc: version info not available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "wc:     %s\n", info.Main.Version)
	fmt.Fprintf(&b, "go:     %s", info.GoVersion)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			fmt.Fprintf(&b, "\ncommit: %s", s.Value)
		case "vcs.time":
			fmt.Fprintf(&b, "\ndate:   %s", s.Value)
		case "vcs.modified":
			fmt.Fprintf(&b, "\ndirty:  %s", s.Value)
		}
	}
	return b.String()
}
