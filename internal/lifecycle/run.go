package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"omdl/internal/format"
	"omdl/internal/model"
	"omdl/internal/ytdlp"
)

// Engine performs one fetch and reports events to sink in order.
type Engine interface {
	Fetch(ctx context.Context, req ytdlp.Request, sink model.EventSink) error
}

type Options struct {
	Plan   format.SelectionPlan
	Logger *slog.Logger
	OnLine func(string)
	// OnTracker is called before the engine starts, e.g. to attach a renderer.
	OnTracker func(*Tracker)
}

// Run drives one item through the lifecycle and returns its outcome. It never
// returns an error; failures are reported on the outcome.
func Run(ctx context.Context, engine Engine, req ytdlp.Request, opts Options) model.ItemOutcome {
	started := time.Now().UTC()
	tracker := NewTracker(TrackerOptions{
		URL:    req.URL,
		Mode:   opts.Plan.Mode,
		Logger: opts.Logger,
		OnLine: opts.OnLine,
	})
	if opts.OnTracker != nil {
		opts.OnTracker(tracker)
	}

	if engine == nil {
		tracker.Fail(errors.New("no engine configured"))
	} else if err := engine.Fetch(ctx, req, tracker.Handle); err != nil {
		tracker.Fail(err)
	} else {
		codec, ok := opts.Plan.AudioCodec()
		tracker.Finalize(codec, ok)
	}

	return Outcome(req, tracker.Snapshot(), started, time.Now().UTC())
}

// Outcome converts a terminal state into an item record.
func Outcome(req ytdlp.Request, st State, started, finished time.Time) model.ItemOutcome {
	out := model.ItemOutcome{
		URL:        req.URL,
		Format:     req.Format,
		StartedAt:  started.Format(time.RFC3339),
		FinishedAt: finished.Format(time.RFC3339),
	}
	if st.Stage == model.StageSucceeded {
		out.Status = model.StatusSucceeded
		out.FinalPath = st.FinalPath
		out.PathSource = st.PathSource
		return out
	}
	out.Status = model.StatusFailed
	out.Error = st.ErrorDetail
	if out.Error == "" {
		out.Error = "item did not finish (stage " + string(st.Stage) + ")"
	}
	return out
}
