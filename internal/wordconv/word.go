// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wordconv

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docops/internal/opserr"
	"github.com/pdiddy/docops/pkg/types"
)

const (
	binPowerShell = "powershell"
	binOsascript  = "osascript"

	// wdFormatPDF is Word's WdSaveFormat value for PDF.
	wdFormatPDF = 17
)

// Word converts documents by automating an installed Microsoft Word:
// PowerShell COM on windows, AppleScript on darwin.
type Word struct {
	goos string
	exec executor
}

func newWord(goos string, exec executor) *Word {
	return &Word{goos: goos, exec: exec}
}

// Name returns "word".
func (w *Word) Name() string { return string(types.BackendWord) }

// Convert opens input in Word and saves it as PDF at output.
func (w *Word) Convert(ctx context.Context, input, output string) error {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return opserr.Backend(w.Name(), err.Error(), err)
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return opserr.Backend(w.Name(), err.Error(), err)
	}

	bin, args, ok := w.command(absIn, absOut)
	if !ok {
		return opserr.Backend(w.Name(), fmt.Sprintf(ErrMsgWordUnsupported, w.goos), nil)
	}
	path, err := w.exec.LookPath(bin)
	if err != nil {
		return opserr.Backend(w.Name(), fmt.Sprintf(ErrMsgToolNotFound, bin), err)
	}

	var out bytes.Buffer
	if err := w.exec.Run(ctx, path, args, &out); err != nil {
		return runFailure(ctx, w.Name(), err, out.String())
	}
	if !fileExists(absOut) {
		return opserr.Backend(w.Name(), fmt.Sprintf(ErrMsgNoArtifact, absOut), nil)
	}
	return nil
}

// command returns the automation command for w.goos.
func (w *Word) command(input, output string) (bin string, args []string, ok bool) {
	switch w.goos {
	case "windows":
		return binPowerShell, []string{"-NoProfile", "-NonInteractive", "-Command", powerShellScript(input, output)}, true
	case "darwin":
		return binOsascript, []string{"-e", appleScript(input, output)}, true
	default:
		return "", nil, false
	}
}

func powerShellScript(input, output string) string {
	return fmt.Sprintf(`$ErrorActionPreference = 'Stop'
$word = New-Object -ComObject Word.Application
$word.Visible = $false
try {
  $doc = $word.Documents.Open(%s, $false, $true)
  try { $doc.SaveAs([ref] %s, [ref] %d) } finally { $doc.Close($false) }
} finally { $word.Quit() }`, psQuote(input), psQuote(output), wdFormatPDF)
}

func appleScript(input, output string) string {
	return fmt.Sprintf(`tell application "Microsoft Word"
	open (POSIX file %s)
	set theDoc to active document
	save as theDoc file name (POSIX file %s as string) file format format PDF
	close theDoc saving no
end tell`, asQuote(input), asQuote(output))
}

// psQuote returns s as a single-quoted PowerShell literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// asQuote returns s as a double-quoted AppleScript string.
func asQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
