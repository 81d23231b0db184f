package publish

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderReport writes the per-item run summary as an aligned table
// followed by the itemized notices, warnings, and failures. Column
// widths use display width so titles with wide runes stay aligned.
func RenderReport(w io.Writer, results []*ItemResult) {
	headers := []string{"SLUG", "MODE", "STATE", "STATUS", "ID", "RESULT"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		id := "-"
		if r.EntityID != 0 {
			id = fmt.Sprintf("%d", r.EntityID)
		}
		verdict := "ok"
		switch {
		case r.Err != nil:
			verdict = "error"
		case len(r.Failures) > 0:
			verdict = fmt.Sprintf("%d failure(s)", len(r.Failures))
		case r.State == StateVerifyFailed:
			verdict = "verify failed"
		}
		rows = append(rows, []string{r.Slug, string(r.Mode), string(r.State), string(r.StatusWritten), id, verdict})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}

	for _, r := range results {
		if r.Err == nil && len(r.Failures) == 0 && len(r.Warnings) == 0 && len(r.Notices) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", r.Slug)
		if r.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", r.Err)
		}
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  fail: %s\n", f)
		}
		for _, n := range r.Notices {
			fmt.Fprintf(w, "  note: %s\n", n)
		}
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  warn: %s\n", warning)
		}
	}
}
