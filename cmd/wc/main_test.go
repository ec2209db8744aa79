package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/CZERTAINLY/wc/internal/input"
	"github.com/CZERTAINLY/wc/internal/model"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// execute runs the wc command with args, stdin is fed from stdin
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	// cobra reads os.Args on nil
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeFile(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestCountStdin(t *testing.T) {
	t.Parallel()
	const given = "hello world\n"

	var testCases = []struct {
		scenario string
		args     []string
		then     string
	}{
		{"default", nil, " 12 1 2\n"},
		{"dash is stdin", []string{"-"}, " 12 1 2\n"},
		{"bytes", []string{"-c"}, " 12\n"},
		{"lines", []string{"--lines"}, " 1\n"},
		{"words", []string{"-w"}, " 2\n"},
		{"chars", []string{"--mchars"}, " 12\n"},
		{"all short flags combined", []string{"-clmw"}, " 12 1 2 12\n"},
		{"order does not follow flags", []string{"-m", "-w", "-c"}, " 12 2 12\n"},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, strings.NewReader(given), tt.args...)
			require.NoError(t, err)
			require.Equal(t, tt.then, out)
		})
	}
}

func TestCountFile(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "input.txt", []byte("žluťoučký kůň\nhello"))

	out, err := execute(t, strings.NewReader(""), path)
	require.NoError(t, err)
	require.Equal(t, " 25 1 2 "+path+"\n", out)

	out, err = execute(t, strings.NewReader(""), "-m", path)
	require.NoError(t, err)
	require.Equal(t, " 19 "+path+"\n", out)
}

func TestCountEmpty(t *testing.T) {
	t.Parallel()
	out, err := execute(t, strings.NewReader(""), "-clwm")
	require.NoError(t, err)
	require.Equal(t, " 0 0 0 0\n", out)
}

func TestCountFileOpenError(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "missing.txt")

	out, err := execute(t, strings.NewReader(""), missing)
	require.Error(t, err)
	require.Empty(t, out)

	var openErr *input.FileOpenError
	require.ErrorAs(t, err, &openErr)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, strings.NewReader(""), t.TempDir())
	require.ErrorIs(t, err, input.ErrIsDirectory)
}

func TestCountTooManyArgs(t *testing.T) {
	t.Parallel()
	out, err := execute(t, strings.NewReader(""), "a", "b")
	require.Error(t, err)
	require.Empty(t, out)
}

func TestCountUnknownFlag(t *testing.T) {
	t.Parallel()
	_, err := execute(t, strings.NewReader(""), "-L")
	require.Error(t, err)
}

func TestCountReadError(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	stdin := func() io.Reader {
		return io.MultiReader(strings.NewReader("ab cd\nef"), iotest.ErrReader(errBoom))
	}
	quiet := writeFile(t, "quiet.yaml", []byte("version: 0\nservice:\n  log: discard\n"))
	abort := writeFile(t, "abort.yaml", []byte("version: 0\ncount:\n  read_errors: abort\nservice:\n  log: discard\n"))

	// truncate: partial counts are printed
	out, err := execute(t, stdin(), "--config", quiet)
	require.NoError(t, err)
	require.Equal(t, " 8 1 2\n", out)

	// abort: no output, the error is returned
	out, err = execute(t, stdin(), "--config", abort)
	require.ErrorIs(t, err, errBoom)
	require.Empty(t, out)
}

func TestCountDecompress(t *testing.T) {
	t.Parallel()
	payload := []byte("hello world\n")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	require.NoError(t, err)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	gzPath := writeFile(t, "input.gz", gz.Bytes())
	zsPath := writeFile(t, "input.zst", zs.Bytes())
	auto := writeFile(t, "auto.yaml", []byte("version: 0\ninput:\n  decompress: auto\n"))

	out, err := execute(t, strings.NewReader(""), "-z", gzPath)
	require.NoError(t, err)
	require.Equal(t, " 12 1 2 "+gzPath+"\n", out)

	out, err = execute(t, strings.NewReader(""), "--decompress", zsPath)
	require.NoError(t, err)
	require.Equal(t, " 12 1 2 "+zsPath+"\n", out)

	out, err = execute(t, strings.NewReader(""), "--config", auto, "-c", gzPath)
	require.NoError(t, err)
	require.Equal(t, " 12 "+gzPath+"\n", out)

	// without decompression the compressed bytes are counted
	out, err = execute(t, strings.NewReader(""), "-c", gzPath)
	require.NoError(t, err)
	require.Equal(t, " "+strconv.Itoa(gz.Len())+" "+gzPath+"\n", out)
}

func TestCountConfiguredCounters(t *testing.T) {
	t.Parallel()
	cfg := writeFile(t, "wc.yaml", []byte("version: 0\ncount:\n  counters: [chars, lines]\n"))

	out, err := execute(t, strings.NewReader("é\n"), "--config", cfg)
	require.NoError(t, err)
	require.Equal(t, " 1 2\n", out)

	// flags win over the configured set
	out, err = execute(t, strings.NewReader("é\n"), "--config", cfg, "-c")
	require.NoError(t, err)
	require.Equal(t, " 3\n", out)
}

func TestConfig(t *testing.T) {
	t.Parallel()
	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := writeFile(t, "wc.yaml", []byte("version: 0\nunknown: 1\n"))
		out, err := execute(t, strings.NewReader("x\n"), "--config", cfg)
		require.Error(t, err)
		require.Empty(t, out)
		var cuerr model.CueError
		require.ErrorAs(t, err, &cuerr)
	})

	t.Run("config from stdin with a file input", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "input.txt", []byte("a b\n"))
		out, err := execute(t, strings.NewReader("version: 0\ncount:\n  counters: [words]\n"), "--config", "-", path)
		require.NoError(t, err)
		require.Equal(t, " 2 "+path+"\n", out)
	})

	t.Run("config and input both on stdin", func(t *testing.T) {
		t.Parallel()
		_, err := execute(t, strings.NewReader("version: 0\n"), "--config", "-")
		require.Error(t, err)
	})

	t.Run("print config", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, strings.NewReader(""), "--print-config", "--verbose")
		require.NoError(t, err)

		var got model.Config
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		want := model.DefaultConfig()
		want.Service.Verbose = true
		require.Equal(t, want, got)
	})
}

func TestVersion(t *testing.T) {
	t.Parallel()
	out, err := execute(t, strings.NewReader(""), "--version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "wc"), out)
}

func TestSelection(t *testing.T) {
	t.Parallel()
	cfg := model.DefaultConfig()
	sel, err := selection(flags{}, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"bytes", "lines", "words"}, sel.Names())

	sel, err = selection(flags{chars: true}, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"chars"}, sel.Names())

	cfg.Count.Counters = []string{"nope"}
	_, err = selection(flags{}, cfg)
	require.Error(t, err)
}
