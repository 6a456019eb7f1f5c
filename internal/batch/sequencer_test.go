package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"omdl/internal/config"
	"omdl/internal/lifecycle"
	"omdl/internal/model"
	"omdl/internal/provider"
	"omdl/internal/runstore"
	"omdl/internal/ytdlp"
)

type scriptedEngine struct {
	calls []ytdlp.Request
	run   func(ctx context.Context, req ytdlp.Request, sink model.EventSink) error
}

func (e *scriptedEngine) Fetch(ctx context.Context, req ytdlp.Request, sink model.EventSink) error {
	e.calls = append(e.calls, req)
	return e.run(ctx, req, sink)
}

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	return config.New(dir, map[string]any{
		"output_dir":  filepath.Join(dir, "out"),
		"log_dir":     filepath.Join(dir, "logs"),
		"cookies_dir": filepath.Join(dir, "cookies"),
	}), dir
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	cfg, _ := testConfig(t)
	eng := &scriptedEngine{run: func(_ context.Context, req ytdlp.Request, sink model.EventSink) error {
		switch {
		case strings.Contains(req.URL, "bad"):
			sink(model.DownloadError("Video unavailable"))
			return errors.New("exit status 1")
		case strings.Contains(req.URL, "boom"):
			panic("engine exploded")
		default:
			sink(model.DownloadProgress(10, 10, "", ""))
			sink(model.DownloadFinished("/out/clip.mp4"))
			return nil
		}
	}}
	seq := New(cfg, eng, nil)
	var done []int
	seq.OnItemDone = func(idx, total int, _ model.ItemOutcome) {
		if total != 4 {
			t.Fatalf("expected total 4, got %d", total)
		}
		done = append(done, idx)
	}

	res := seq.RunBatch(context.Background(), []Input{
		{URL: "https://youtu.be/bad"},
		{URL: "https://www.tiktok.com/@u/video/boom"},
		{URL: "https://www.instagram.com/reel/good/"},
		{URL: "https://x.com/u/status/1"},
	})

	if res.Total != 4 || res.Succeeded != 2 || res.Failed != 2 || res.Skipped != 0 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if res.Items[0].Error != "Video unavailable" {
		t.Fatalf("unexpected first error: %q", res.Items[0].Error)
	}
	if !strings.Contains(res.Items[1].Error, "engine exploded") || res.Items[1].Provider != "tiktok" {
		t.Fatalf("panic should be recorded on the item: %+v", res.Items[1])
	}
	if res.Items[2].FinalPath != "/out/clip.mp4" || res.Items[2].PathSource != model.PathFromDownload {
		t.Fatalf("unexpected success outcome: %+v", res.Items[2])
	}
	if len(done) != 4 || done[0] != 1 || done[3] != 4 {
		t.Fatalf("items must complete in order, got %v", done)
	}
	if res.BatchID == "" || res.NothingToDo {
		t.Fatalf("unexpected batch metadata: %+v", res)
	}
}

func TestRunBatchEmptyIsNothingToDo(t *testing.T) {
	cfg, _ := testConfig(t)
	eng := &scriptedEngine{run: func(context.Context, ytdlp.Request, model.EventSink) error {
		t.Fatalf("engine must not run")
		return nil
	}}
	res := New(cfg, eng, nil).RunBatch(context.Background(), nil)
	if !res.NothingToDo || res.Total != 0 || len(res.Items) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunBatchSkipsUnknownProvider(t *testing.T) {
	cfg, _ := testConfig(t)
	eng := &scriptedEngine{run: func(context.Context, ytdlp.Request, model.EventSink) error { return nil }}
	res := New(cfg, eng, nil).RunBatch(context.Background(), []Input{
		{URL: "https://vimeo.com/123"},
		{URL: "https://youtu.be/abc"},
	})
	if res.Skipped != 1 || res.Succeeded != 1 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if res.Items[0].Status != model.StatusSkipped || res.Items[0].Provider != "" {
		t.Fatalf("unexpected skipped item: %+v", res.Items[0])
	}
	if len(eng.calls) != 1 {
		t.Fatalf("engine should run once, ran %d times", len(eng.calls))
	}
}

func TestRunBatchStopsBetweenItemsOnCancel(t *testing.T) {
	cfg, _ := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := &scriptedEngine{run: func(context.Context, ytdlp.Request, model.EventSink) error {
		cancel()
		return nil
	}}
	res := New(cfg, eng, nil).RunBatch(ctx, []Input{
		{URL: "https://youtu.be/a"},
		{URL: "https://youtu.be/b"},
		{URL: "https://youtu.be/c"},
	})
	if len(eng.calls) != 1 {
		t.Fatalf("expected one engine call, got %d", len(eng.calls))
	}
	if res.Succeeded != 1 || res.Skipped != 2 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	for _, it := range res.Items[1:] {
		if !IsCanceled(it) {
			t.Fatalf("expected canceled skip, got %+v", it)
		}
	}
}

func TestRunBatchBuildsRequestAndWritesLogs(t *testing.T) {
	cfg, dir := testConfig(t)
	cookies := filepath.Join(dir, "cookies", "instagram.txt")
	if err := runstore.WriteBytes(cookies, []byte("# Netscape HTTP Cookie File\n")); err != nil {
		t.Fatalf("write cookies: %v", err)
	}
	eng := &scriptedEngine{run: func(_ context.Context, req ytdlp.Request, sink model.EventSink) error {
		if req.LogWriter != nil {
			_, _ = req.LogWriter.Write([]byte("[download] Destination: a.webm\n"))
		}
		sink(model.DownloadFinished(filepath.Join(dir, "out", "a.webm")))
		return nil
	}}
	var trackers int
	seq := New(cfg, eng, nil)
	seq.OnTracker = func(_ int, _ int, id provider.Identity, _ *lifecycle.Tracker) {
		if id == provider.Instagram {
			trackers++
		}
	}

	res := seq.RunBatch(context.Background(), []Input{
		{URL: "https://www.instagram.com/p/abc/", Overrides: Overrides{Mode: "audio", AudioCodec: "mp3"}},
	})
	if res.Succeeded != 1 || trackers != 1 {
		t.Fatalf("unexpected result: %+v (trackers=%d)", res, trackers)
	}
	req := eng.calls[0]
	if req.CookiesPath != cookies {
		t.Fatalf("expected provider cookies %q, got %q", cookies, req.CookiesPath)
	}
	wantTmpl := filepath.Join(dir, "out", "instagram", "%(uploader|channel|creator|uploader_id)s", "%(title)s.%(ext)s")
	if req.OutputTemplate != wantTmpl {
		t.Fatalf("unexpected output template %q", req.OutputTemplate)
	}
	if len(req.Steps) == 0 || req.Format != "bestaudio/best" {
		t.Fatalf("expected audio plan, got format=%q steps=%v", req.Format, req.Steps)
	}
	item := res.Items[0]
	if item.FinalPath != filepath.Join(dir, "out", "a.mp3") || item.PathSource != model.PathRewritten {
		t.Fatalf("unexpected final path: %+v", item)
	}

	logData, err := os.ReadFile(item.LogPath)
	if err != nil {
		t.Fatalf("read item log: %v", err)
	}
	if filepath.Base(item.LogPath) != "01_instagram.log" || !strings.Contains(string(logData), `"line":"[download] Destination: a.webm"`) {
		t.Fatalf("unexpected item log %s:\n%s", item.LogPath, logData)
	}
	var report model.BatchResult
	if err := runstore.ReadJSON(filepath.Join(res.LogDir, "report.json"), &report); err != nil {
		t.Fatalf("read report: %v", err)
	}
	if report.BatchID != res.BatchID || report.Succeeded != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunBatchProviderOverride(t *testing.T) {
	cfg, _ := testConfig(t)
	eng := &scriptedEngine{run: func(context.Context, ytdlp.Request, model.EventSink) error { return nil }}
	res := New(cfg, eng, nil).RunBatch(context.Background(), []Input{
		{URL: "https://cdn.example.com/video", Provider: "fb"},
	})
	if res.Items[0].Provider != "facebook" || res.Items[0].Status != model.StatusSucceeded {
		t.Fatalf("unexpected outcome: %+v", res.Items[0])
	}
	if res.Items[0].PathSource != model.PathUnresolved {
		t.Fatalf("expected unresolved path, got %s", res.Items[0].PathSource)
	}
}
