package progress

import (
	"bytes"
	"strings"
	"testing"

	"omdl/internal/format"
	"omdl/internal/lifecycle"
	"omdl/internal/model"
)

func TestRenderSummary(t *testing.T) {
	res := model.BatchResult{BatchID: "b-1", LogDir: "/tmp/logs/b-1"}
	res.Append(model.ItemOutcome{Index: 1, URL: "u1", Provider: "youtube", Status: model.StatusSucceeded, FinalPath: "/out/a.mp4", PathSource: model.PathFromPostProcess})
	res.Append(model.ItemOutcome{Index: 2, URL: "u2", Provider: "tiktok", Status: model.StatusFailed, Error: "HTTP Error 429\nmore"})
	res.Append(model.ItemOutcome{Index: 3, URL: "u3", Status: model.StatusSkipped, Error: "provider not recognized: u3"})
	res.Append(model.ItemOutcome{Index: 4, URL: "u4", Provider: "x", Status: model.StatusSucceeded, PathSource: model.PathUnresolved})

	var buf bytes.Buffer
	RenderSummary(&buf, res)
	out := buf.String()
	for _, want := range []string{
		"batch summary",
		"batch: b-1",
		"/out/a.mp4",
		"HTTP Error 429",
		"provider not recognized",
		"(final path unresolved)",
		"items: 4  succeeded: 2  failed: 1  skipped: 1",
		"logs: /tmp/logs/b-1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more") {
		t.Fatalf("only the first error line should be shown:\n%s", out)
	}
}

func TestRenderSummaryNothingToDo(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, model.BatchResult{NothingToDo: true})
	if strings.TrimSpace(buf.String()) != "nothing to do" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestLiveRenderShowsProgress(t *testing.T) {
	tr := lifecycle.NewTracker(lifecycle.TrackerOptions{URL: "u", Mode: format.ModeOriginal})
	tr.Handle(model.DownloadProgress(512*1024, 1024*1024, "1.00MiB/s", "00:01"))
	l := NewLive(&bytes.Buffer{}, false, Item{Index: 2, Total: 5, Label: "YOUTUBE"}, tr)
	line := l.Render()
	for _, want := range []string{"[2/5] YOUTUBE", "downloading", "50%", "512 KiB / 1.0 MiB", "1.00MiB/s", "ETA 00:01"} {
		if !strings.Contains(line, want) {
			t.Fatalf("live line missing %q: %q", want, line)
		}
	}
}

func TestLivePlainModePrintsLines(t *testing.T) {
	tr := lifecycle.NewTracker(lifecycle.TrackerOptions{URL: "u"})
	var buf bytes.Buffer
	l := NewLive(&buf, false, Item{Index: 1, Total: 1, Label: "X"}, tr)
	l.Start()
	l.Line("Merger started")
	l.Line("   ")
	l.Stop("[1/1] done  /out/a.mp4")
	out := buf.String()
	if strings.Contains(out, "\033[2K") {
		t.Fatalf("plain mode must not emit redraw sequences: %q", out)
	}
	if !strings.Contains(out, "[1/1] X Merger started\n") || !strings.HasSuffix(out, "[1/1] done  /out/a.mp4\n") {
		t.Fatalf("unexpected output %q", out)
	}
}
