package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"omdl/internal/config"
	"omdl/internal/format"
	"omdl/internal/lifecycle"
	"omdl/internal/model"
	"omdl/internal/output"
	"omdl/internal/provider"
	"omdl/internal/runstore"
	"omdl/internal/ytdlp"
)

// Input is one URL plus the choices that apply to it.
type Input struct {
	URL string
	// Provider skips URL detection when set.
	Provider  string
	Overrides Overrides

	Cookies          string
	NameStyle        string
	FilenameTemplate string
	OutputDir        string
}

// Sequencer runs items one after another. A failing item never stops the
// batch; cancellation is honored between items.
type Sequencer struct {
	Config *config.Config
	Engine lifecycle.Engine
	Logger *slog.Logger

	OnTracker  func(index, total int, id provider.Identity, tr *lifecycle.Tracker)
	OnItemDone func(index, total int, out model.ItemOutcome)
	OnLine     func(index int, line string)
}

func New(cfg *config.Config, engine lifecycle.Engine, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sequencer{Config: cfg, Engine: engine, Logger: logger.With("component", "batch")}
}

// RunBatch processes items in input order and returns the ordered result.
func (s *Sequencer) RunBatch(ctx context.Context, items []Input) model.BatchResult {
	res := model.BatchResult{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Items:     []model.ItemOutcome{},
	}
	if len(items) == 0 {
		res.NothingToDo = true
		res.FinishedAt = res.StartedAt
		return res
	}

	batchDir := s.batchDir(res.BatchID)
	if batchDir != "" {
		res.LogDir = batchDir
	}
	s.logger().Info("batch start", "batch_id", res.BatchID, "items", len(items))

	total := len(items)
	for i, in := range items {
		idx := i + 1
		if err := ctx.Err(); err != nil {
			out := model.ItemOutcome{Index: idx, URL: in.URL, Status: model.StatusSkipped, Error: "canceled"}
			res.Append(out)
			s.itemDone(idx, total, out)
			continue
		}
		out := s.runItem(ctx, idx, total, in, batchDir)
		res.Append(out)
		s.itemDone(idx, total, out)
	}

	res.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	s.logger().Info("batch done", "batch_id", res.BatchID, "succeeded", res.Succeeded, "failed", res.Failed, "skipped", res.Skipped)
	if batchDir != "" {
		if err := runstore.WriteJSON(filepath.Join(batchDir, reportFile), res); err != nil {
			s.logger().Warn("write batch report", "error", err)
		}
	}
	return res
}

// Prepared is an item resolved up to the point of running the engine.
type Prepared struct {
	Provider provider.Identity
	Plan     format.SelectionPlan
	Request  ytdlp.Request
}

// Prepare resolves the provider, plan and engine request for in without
// running anything. An unrecognized URL returns provider.ErrUnresolved.
func (s *Sequencer) Prepare(in Input) (Prepared, error) {
	id, err := resolveProvider(in)
	if err != nil {
		return Prepared{}, err
	}
	p := Prepared{Provider: id}
	policy, err := provider.Load(s.Config, id)
	if err != nil {
		return p, err
	}
	intent, err := IntentFromConfig(s.Config, in.Overrides)
	if err != nil {
		return p, err
	}
	p.Plan = policy.Plan(intent)

	tmpl := strings.TrimSpace(in.FilenameTemplate)
	if tmpl == "" {
		tmpl = output.FilenameTemplate(s.Config, p.Plan.Mode, output.Style(s.Config, p.Plan.Mode, in.NameStyle))
	}
	outDir := firstNonEmpty(in.OutputDir, s.Config.String("output_dir", config.DefaultOutputDir))
	p.Request = ytdlp.Request{
		URL:            in.URL,
		Format:         p.Plan.Expression,
		Container:      p.Plan.Container,
		OutputTemplate: output.Template(outDir, string(id), tmpl),
		Steps:          p.Plan.Steps,
		CookiesPath:    firstNonEmpty(in.Cookies, s.cookiesFor(id)),
		Options:        policy.BaseEngineOptions(),
	}
	return p, nil
}

func (s *Sequencer) runItem(ctx context.Context, idx, total int, in Input, batchDir string) (out model.ItemOutcome) {
	started := time.Now().UTC()
	out = model.ItemOutcome{Index: idx, URL: in.URL, StartedAt: started.Format(time.RFC3339)}
	finish := func(status, msg string) model.ItemOutcome {
		out.Status = status
		out.Error = msg
		out.FinishedAt = time.Now().UTC().Format(time.RFC3339)
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger().Error("item panicked", "index", idx, "url", in.URL, "panic", r)
			out = finish(model.StatusFailed, fmt.Sprintf("internal error: %v", r))
		}
	}()

	p, err := s.Prepare(in)
	out.Provider = string(p.Provider)
	if errors.Is(err, provider.ErrUnresolved) {
		return finish(model.StatusSkipped, err.Error())
	}
	if err != nil {
		return finish(model.StatusFailed, err.Error())
	}

	itemLogger, logW, logPath, closeLog := s.openItemLog(batchDir, idx, p.Provider)
	defer closeLog()
	out.LogPath = logPath
	req := p.Request
	req.LogWriter = logW
	itemLogger.Info("item start", "url", in.URL, "format", req.Format, "container", string(req.Container), "output", req.OutputTemplate)

	opts := lifecycle.Options{Plan: p.Plan, Logger: itemLogger}
	if s.OnLine != nil {
		opts.OnLine = func(line string) { s.OnLine(idx, line) }
	}
	if s.OnTracker != nil {
		opts.OnTracker = func(tr *lifecycle.Tracker) { s.OnTracker(idx, total, p.Provider, tr) }
	}
	result := lifecycle.Run(ctx, s.Engine, req, opts)
	result.Index = idx
	result.Provider = out.Provider
	result.LogPath = logPath
	result.StartedAt = out.StartedAt
	itemLogger.Info("item done", "status", result.Status, "final_path", result.FinalPath, "path_source", string(result.PathSource), "error", result.Error)
	return result
}

func resolveProvider(in Input) (provider.Identity, error) {
	if strings.TrimSpace(in.Provider) != "" {
		return provider.ParseIdentity(in.Provider)
	}
	return provider.Detect(in.URL)
}

// cookiesFor returns <cookies_dir>/<provider>.txt when that file exists.
func (s *Sequencer) cookiesFor(id provider.Identity) string {
	dir := output.ExpandHome(s.Config.String("cookies_dir", config.DefaultCookiesDir))
	path := filepath.Join(dir, string(id)+".txt")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

func (s *Sequencer) batchDir(batchID string) string {
	root := strings.TrimSpace(s.Config.String("log_dir", config.DefaultLogDir))
	if root == "" {
		return ""
	}
	dir := filepath.Join(output.ExpandHome(root), batchID)
	if err := runstore.Mkdir(dir); err != nil {
		s.logger().Warn("batch logs disabled", "error", err)
		return ""
	}
	return dir
}

// openItemLog creates the per-item JSON log. Raw engine output is recorded
// in the same file as "engine" records.
func (s *Sequencer) openItemLog(batchDir string, idx int, id provider.Identity) (*slog.Logger, io.Writer, string, func()) {
	if batchDir == "" {
		return s.logger(), nil, "", func() {}
	}
	path := filepath.Join(batchDir, fmt.Sprintf("%02d_%s.log", idx, id))
	f, err := os.Create(path)
	if err != nil {
		s.logger().Warn("item log unavailable", "path", path, "error", err)
		return s.logger(), nil, "", func() {}
	}
	logger := slog.New(slog.NewJSONHandler(f, nil)).With("index", idx, "provider", string(id))
	return logger, &engineLogWriter{logger: logger}, path, func() { _ = f.Close() }
}

func (s *Sequencer) itemDone(idx, total int, out model.ItemOutcome) {
	if s.OnItemDone != nil {
		s.OnItemDone(idx, total, out)
	}
}

func (s *Sequencer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// engineLogWriter turns each written line of engine output into a log record.
type engineLogWriter struct {
	logger *slog.Logger
}

func (w *engineLogWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		w.logger.Info("engine", "line", line)
	}
	return len(p), nil
}

// IsCanceled reports whether an outcome was skipped because the batch stopped.
func IsCanceled(out model.ItemOutcome) bool {
	return out.Status == model.StatusSkipped && out.Error == "canceled"
}
