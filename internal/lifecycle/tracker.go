package lifecycle

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"omdl/internal/format"
	"omdl/internal/model"
)

const maxLogLines = 200

// State is the per-item view of one fetch. Snapshot hands out copies.
type State struct {
	Stage model.Stage

	BytesTotal int64
	BytesDone  int64
	TotalKnown bool
	Speed      string
	ETA        string

	// CurrentStep is the most recently started post-processor.
	CurrentStep string

	LastKnownFilename string
	FinalPath         string
	PathSource        model.PathSource

	Started  map[string]bool
	Finished map[string]bool

	ErrorDetail string
}

type TrackerOptions struct {
	URL    string
	Mode   format.Mode
	Logger *slog.Logger
	// OnLine receives every status line the tracker publishes.
	OnLine func(string)
}

// Tracker folds engine events into a State. Handle is called from the engine
// goroutine while Snapshot may be called from a renderer.
type Tracker struct {
	url    string
	mode   format.Mode
	logger *slog.Logger
	onLine func(string)

	mu    sync.Mutex
	state State
	lines []string
}

func NewTracker(opts TrackerOptions) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tracker{
		url:    opts.URL,
		mode:   opts.Mode,
		logger: logger.With("component", "lifecycle"),
		onLine: opts.OnLine,
		state: State{
			Stage:    model.StageQueued,
			Started:  map[string]bool{},
			Finished: map[string]bool{},
		},
	}
}

// Handle applies one engine event. Events after a terminal stage are ignored.
func (t *Tracker) Handle(ev model.Event) {
	t.mu.Lock()
	var out []string
	if !t.state.Stage.IsTerminal() {
		out = t.apply(ev)
	}
	t.mu.Unlock()
	t.publish(out)
}

func (t *Tracker) apply(ev model.Event) []string {
	s := &t.state
	var out []string
	switch ev.Kind {
	case model.EventDownloadProgress:
		if s.Stage == model.StageQueued {
			out = append(out, t.advance(model.StageDownloading)...)
		}
		if ev.BytesTotal > 0 {
			s.BytesTotal = ev.BytesTotal
			s.TotalKnown = true
		}
		if ev.BytesDone > 0 {
			s.BytesDone = ev.BytesDone
		}
		if ev.Speed != "" {
			s.Speed = ev.Speed
		}
		if ev.ETA != "" {
			s.ETA = ev.ETA
		}
	case model.EventDownloadFinished:
		if ev.Filename != "" {
			s.LastKnownFilename = ev.Filename
			if s.TotalKnown {
				s.BytesDone = s.BytesTotal
			}
		}
	case model.EventDownloadError:
		s.ErrorDetail = strings.TrimSpace(ev.Detail)
		out = append(out, t.advance(model.StageFailed)...)
		out = append(out, "error: "+s.ErrorDetail)
	case model.EventPostProcess:
		key := strings.TrimSpace(ev.StageKey)
		if key == "" {
			key = "postprocess"
		}
		if s.Stage.Rank() < model.StagePostProcessing.Rank() {
			out = append(out, t.advance(model.StagePostProcessing)...)
		}
		switch ev.Phase {
		case model.PhaseStarted:
			if !s.Started[key] {
				s.Started[key] = true
				s.CurrentStep = key
				out = append(out, key+" started")
			}
		case model.PhaseFinished:
			if s.Finished[key] {
				break
			}
			s.Finished[key] = true
			out = append(out, key+" finished")
			if p := strings.TrimSpace(ev.CandidatePath); p != "" {
				s.FinalPath = p
				s.PathSource = model.PathFromPostProcess
			}
		}
	}
	return out
}

// advance moves to stage if the transition table allows it.
func (t *Tracker) advance(to model.Stage) []string {
	from := t.state.Stage
	if from == to {
		return nil
	}
	if err := model.TransitionStage(&t.state.Stage, to, t.url); err != nil {
		t.logger.Debug("transition rejected", "url", t.url, "from", from, "to", to)
		return nil
	}
	t.logger.Info("stage", "url", t.url, "from", from, "to", to)
	return []string{string(to)}
}

// Finalize resolves the final path after the engine reported success and
// moves the item to succeeded. audioCodec is only consulted in audio mode.
func (t *Tracker) Finalize(audioCodec format.AudioFormat, hasCodec bool) {
	t.mu.Lock()
	if t.state.Stage.IsTerminal() {
		t.mu.Unlock()
		return
	}
	out := t.advance(model.StageFinalizing)
	s := &t.state
	switch {
	case s.FinalPath != "":
		s.PathSource = model.PathFromPostProcess
	case s.LastKnownFilename != "":
		s.FinalPath = s.LastKnownFilename
		s.PathSource = model.PathFromDownload
		if t.mode == format.ModeAudioOnly && hasCodec {
			if rewritten, ok := rewriteExtension(s.LastKnownFilename, audioCodec); ok {
				s.FinalPath = rewritten
				s.PathSource = model.PathRewritten
			}
		}
	default:
		s.PathSource = model.PathUnresolved
	}
	out = append(out, t.advance(model.StageSucceeded)...)
	if s.PathSource == model.PathUnresolved {
		out = append(out, "done (final path unresolved)")
	} else {
		out = append(out, "done  "+s.FinalPath)
	}
	t.mu.Unlock()
	t.publish(out)
}

// Fail moves a non-terminal item to failed. The first recorded detail wins.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	if t.state.Stage.IsTerminal() {
		t.mu.Unlock()
		return
	}
	if t.state.ErrorDetail == "" && err != nil {
		t.state.ErrorDetail = err.Error()
	}
	out := t.advance(model.StageFailed)
	out = append(out, "error: "+t.state.ErrorDetail)
	t.mu.Unlock()
	t.publish(out)
}

func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.Started = copySet(t.state.Started)
	s.Finished = copySet(t.state.Finished)
	return s
}

// Lines returns the most recent published status lines, oldest first.
func (t *Tracker) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

func (t *Tracker) publish(lines []string) {
	if len(lines) == 0 {
		return
	}
	t.mu.Lock()
	t.lines = append(t.lines, lines...)
	if over := len(t.lines) - maxLogLines; over > 0 {
		t.lines = append([]string(nil), t.lines[over:]...)
	}
	t.mu.Unlock()
	if t.onLine == nil {
		return
	}
	for _, l := range lines {
		t.onLine(l)
	}
}

func rewriteExtension(name string, codec format.AudioFormat) (string, bool) {
	if codec == "" || codec == format.AudioBest {
		return "", false
	}
	ext := filepath.Ext(name)
	want := "." + codec.Extension()
	if strings.EqualFold(ext, want) {
		return "", false
	}
	return strings.TrimSuffix(name, ext) + want, true
}

func copySet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
