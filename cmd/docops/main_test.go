// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docops/internal/dispatch"
	"github.com/pdiddy/docops/pkg/types"
)

// execute runs the CLI with args and returns stdout. Flags left over from a
// previous run are reset first.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	require.NoError(t, rootCmd.PersistentFlags().Set("config", ""))
	require.NoError(t, listCmd.Flags().Set("format", "text"))

	var out bytes.Buffer
	run(context.Background(), args, &out)
	return out.String()
}

// decodeResult parses a single JSON result line.
func decodeResult(t *testing.T, out string) map[string]any {
	t.Helper()
	assert.Equal(t, 1, strings.Count(out, "\n"), "expected exactly one line: %q", out)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), out)
	return m
}

func payload(t *testing.T, v map[string]any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestDispatch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCode  string
		wantMsg   string
		wantDebug string
	}{
		{"no arguments", nil, "arguments", "insufficient arguments", ""},
		{"two arguments", []string{"pdf_ops", "encrypt_pdf"}, "arguments", "insufficient arguments", ""},
		{"malformed payload", []string{"pdf_ops", "encrypt_pdf", "{not json"}, "decode", "invalid payload:", ""},
		{"payload not an object", []string{"pdf_ops", "encrypt_pdf", "[1,2]"}, "decode", "invalid payload:", ""},
		{"unknown target", []string{"nope_ops", "x", "{}"}, "resolution", `"nope_ops"`, "archive_ops image_ops pdf_ops word_ops"},
		{"unknown operation", []string{"pdf_ops", "shred_pdf", "{}"}, "resolution", "shred_pdf", "pdf_ops"},
		{"missing key", []string{"pdf_ops", "encrypt_pdf", "{}"}, "validation", `"input"`, ""},
		{"unknown flag", []string{"--bogus", "pdf_ops", "x", "{}"}, "arguments", "bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := decodeResult(t, execute(t, tt.args...))
			assert.Equal(t, "error", res["status"])
			assert.Equal(t, tt.wantCode, res["code"])
			assert.Contains(t, res["msg"], tt.wantMsg)
			if tt.wantDebug != "" {
				assert.Contains(t, res["debug_info"], tt.wantDebug)
			} else {
				assert.NotContains(t, res, "debug_info")
			}
			assert.NotContains(t, res, "data")
		})
	}
}

func TestDispatch_SubcommandNamesAsTargets(t *testing.T) {
	for _, target := range []string{"help", "list", "version", "completion"} {
		t.Run(target, func(t *testing.T) {
			res := decodeResult(t, execute(t, target, "x", "{}"))
			assert.Equal(t, "error", res["status"])
			assert.Equal(t, "resolution", res["code"])
			assert.Contains(t, res["msg"], `"`+target+`"`)
			assert.Contains(t, res["debug_info"], "archive_ops image_ops pdf_ops word_ops")
		})
	}
}

func TestSubcommands_ExtraArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"version", []string{"--config", "", "version", "x", "{}"}, `unknown command "x"`},
		{"list", []string{"--config", "", "list", "x", "{}"}, `unknown command "x"`},
		{"help", []string{"--config", "", "help", "x", "{}"}, "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := decodeResult(t, execute(t, tt.args...))
			assert.Equal(t, "error", res["status"])
			assert.Equal(t, "arguments", res["code"])
			assert.Contains(t, res["msg"], tt.wantMsg)
		})
	}
}

func TestHelp(t *testing.T) {
	out := execute(t, "help", "version")
	assert.Contains(t, out, "Print the version of docops")

	out = execute(t, "help")
	assert.Contains(t, out, "docops <target> <operation> <json-payload>")
}

func TestDispatchArgs(t *testing.T) {
	assert.Equal(t, []string{"--", "help", "x", "{}"}, dispatchArgs([]string{"help", "x", "{}"}))
	assert.Equal(t, []string{"version"}, dispatchArgs([]string{"version"}))
	assert.Equal(t, []string{"list", "--format", "json"}, dispatchArgs([]string{"list", "--format", "json"}))
	assert.Equal(t, []string{"--config", "c.yaml", "pdf_ops", "pdf_info", "{}"},
		dispatchArgs([]string{"--config", "c.yaml", "pdf_ops", "pdf_info", "{}"}))
}

func TestDispatch_ArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "résumé.txt")
	require.NoError(t, os.WriteFile(src, []byte("contenu"), 0o644))
	pkg := filepath.Join(dir, "备份.krate")

	out := execute(t, "archive_ops", "create_archive",
		payload(t, map[string]any{"inputs": []string{src}, "output": pkg, "password": "pw"}))
	assert.Contains(t, out, "备份.krate", "non-ASCII text must not be escaped")
	res := decodeResult(t, out)
	require.Equal(t, "success", res["status"], out)
	assert.Equal(t, pkg, res["data"].(map[string]any)["output_path"])

	outDir := filepath.Join(dir, "restored")
	res = decodeResult(t, execute(t, "archive_ops", "extract_archive",
		payload(t, map[string]any{"input": pkg, "output_dir": outDir, "password": "pw"})))
	require.Equal(t, "success", res["status"])

	got, err := os.ReadFile(filepath.Join(outDir, "résumé.txt"))
	require.NoError(t, err)
	assert.Equal(t, "contenu", string(got))
}

func TestDispatch_ExtraArgumentsIgnored(t *testing.T) {
	res := decodeResult(t, execute(t, "pdf_ops", "pdf_info", `{"input":"/no/such/file.pdf"}`, "extra", "args"))
	assert.Equal(t, "not_found", res["code"])
	assert.Contains(t, res["msg"], "/no/such/file.pdf")
}

func TestList(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out := execute(t, "list")
		for _, want := range []string{"pdf_ops", "encrypt_pdf", "word_ops", "convert_word_to_pdf",
			"image_ops", "archive_ops", "required: input, output, password", "optional: password, level"} {
			assert.Contains(t, out, want)
		}
	})

	t.Run("json", func(t *testing.T) {
		var groups []dispatch.Group
		require.NoError(t, json.Unmarshal([]byte(execute(t, "list", "--format", "json")), &groups))
		targets := make([]string, len(groups))
		for i, g := range groups {
			targets[i] = g.Target
		}
		assert.Equal(t, []string{"archive_ops", "image_ops", "pdf_ops", "word_ops"}, targets)
	})

	t.Run("yaml", func(t *testing.T) {
		out := execute(t, "list", "--format", "yaml")
		assert.Contains(t, out, "- target: archive_ops")
		assert.Contains(t, out, "name: resize_image")
		assert.NotContains(t, out, "run:")
	})

	t.Run("unknown format", func(t *testing.T) {
		res := decodeResult(t, execute(t, "list", "--format", "xml"))
		assert.Equal(t, "validation", res["code"])
		assert.Contains(t, res["msg"], "xml")
	})
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "docops dev\n", execute(t, "version"))
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		execute(t, "version")
		assert.Equal(t, types.DefaultConfig(), appConfig)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`log_level: error
convert:
  backend: libreoffice
  container_image: docops/libreoffice:latest
  timeout: 45s
archive:
  level: 3
`), 0o644))

		assert.Equal(t, "docops dev\n", execute(t, "--config", path, "version"))
		assert.Equal(t, "error", appConfig.LogLevel)
		assert.Equal(t, types.BackendLibreOffice, appConfig.Convert.Backend)
		assert.Equal(t, "docops/libreoffice:latest", appConfig.Convert.ContainerImage)
		assert.Equal(t, 45*time.Second, appConfig.Convert.Timeout)
		assert.Equal(t, 3, appConfig.Archive.Level)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("DOCOPS_ARCHIVE_LEVEL", "4")
		t.Setenv("DOCOPS_CONVERT_BACKEND", "word")
		execute(t, "version")
		assert.Equal(t, 4, appConfig.Archive.Level)
		assert.Equal(t, types.BackendWord, appConfig.Convert.Backend)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		res := decodeResult(t, execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version"))
		assert.Equal(t, "validation", res["code"])
		assert.Contains(t, res["msg"], "reading config")
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("DOCOPS_LOG_LEVEL", "loud")
		res := decodeResult(t, execute(t, "version"))
		assert.Equal(t, "validation", res["code"])
		assert.Contains(t, res["msg"], "loud")
	})
}
