package progress

import (
	"fmt"
	"io"
	"strings"

	"omdl/internal/model"
	"omdl/internal/output"
)

const summaryPathWidth = 72

// RenderSummary prints the per-item table and counters for a finished batch.
func RenderSummary(w io.Writer, res model.BatchResult) {
	if res.NothingToDo {
		fmt.Fprintln(w, "nothing to do")
		return
	}
	fmt.Fprintln(w, "batch summary")
	fmt.Fprintf(w, "batch: %s\n", res.BatchID)
	for _, it := range res.Items {
		fmt.Fprintln(w, ItemLine(it, res.Total))
	}
	fmt.Fprintf(w, "items: %d  succeeded: %d  failed: %d  skipped: %d\n", res.Total, res.Succeeded, res.Failed, res.Skipped)
	if res.LogDir != "" {
		fmt.Fprintf(w, "logs: %s\n", res.LogDir)
	}
}

// ItemLine formats one outcome the same way for live output and summaries.
func ItemLine(it model.ItemOutcome, total int) string {
	prov := it.Provider
	if prov == "" {
		prov = "-"
	}
	head := fmt.Sprintf("[%d/%d] %-4s  %-9s", it.Index, total, statusWord(it.Status), prov)
	switch it.Status {
	case model.StatusSucceeded:
		if it.PathSource == model.PathUnresolved || it.FinalPath == "" {
			return okStyle.Render(head) + "  " + warnStyle.Render("(final path unresolved)")
		}
		return okStyle.Render(head) + "  " + output.Shorten(it.FinalPath, summaryPathWidth)
	case model.StatusFailed:
		return errStyle.Render(head) + "  " + firstLine(it.Error)
	default:
		return mutedStyle.Render(head) + "  " + firstLine(it.Error)
	}
}

func statusWord(status string) string {
	switch status {
	case model.StatusSucceeded:
		return "done"
	case model.StatusFailed:
		return "fail"
	default:
		return "skip"
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
