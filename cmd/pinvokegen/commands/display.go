package commands

import (
	"io"
	"os"

	"github.com/pterm/pterm"

	"github.com/teranos/pinvokegen/internal/diag"
	"github.com/teranos/pinvokegen/logger"
)

// showDiagnostics prints every diagnostic followed by a per-level summary.
// With --json-log the diagnostics go to the structured log instead.
func showDiagnostics(diagnostics []diag.Diagnostic) {
	if logger.JSONOutput {
		diag.LogTo(logger.ComponentLogger("diag"), diagnostics)
		return
	}
	writeDiagnostics(os.Stderr, diagnostics)
}

func writeDiagnostics(w io.Writer, diagnostics []diag.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}

	counts := map[diag.Level]int{}
	for _, d := range diagnostics {
		counts[d.Level()]++
		text := d.Message()
		if loc := d.Location(); loc != "" {
			text = loc + ": " + text
		}
		prefixFor(d.Level()).WithWriter(w).Println(text)
	}

	summary := pterm.Sprintf("%d errors, %d warnings, %d info",
		counts[diag.Error], counts[diag.Warning], counts[diag.Info])
	switch {
	case counts[diag.Error] > 0:
		pterm.Fprintln(w, pterm.Red(summary))
	case counts[diag.Warning] > 0:
		pterm.Fprintln(w, pterm.Yellow(summary))
	default:
		pterm.Fprintln(w, pterm.Gray(summary))
	}
}

func prefixFor(level diag.Level) pterm.PrefixPrinter {
	switch level {
	case diag.Error:
		return pterm.Error
	case diag.Warning:
		return pterm.Warning
	}
	return pterm.Info
}
