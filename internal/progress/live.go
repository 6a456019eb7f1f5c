package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"omdl/internal/lifecycle"
	"omdl/internal/model"
)

const redrawInterval = 700 * time.Millisecond

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// IsInteractive reports whether f is a terminal that can take in-place redraws.
func IsInteractive(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Item identifies the batch slot a Live view renders.
type Item struct {
	Index int
	Total int
	Label string
	Color string
}

// Live redraws one status line for a running item. In plain mode it only
// prints the tracker's status lines.
type Live struct {
	w           io.Writer
	interactive bool
	item        Item
	tracker     *lifecycle.Tracker
	bar         bprogress.Model

	mu      sync.Mutex
	drawn   bool
	running bool
	stop    chan struct{}
	stopped chan struct{}
}

func NewLive(w io.Writer, interactive bool, item Item, tr *lifecycle.Tracker) *Live {
	return &Live{
		w:           w,
		interactive: interactive,
		item:        item,
		tracker:     tr,
		bar:         bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(24), bprogress.WithoutPercentage()),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

func (l *Live) Start() {
	if !l.interactive || l.tracker == nil || l.running {
		return
	}
	l.running = true
	go func() {
		defer close(l.stopped)
		t := time.NewTicker(redrawInterval)
		defer t.Stop()
		for {
			select {
			case <-l.stop:
				return
			case <-t.C:
				l.redraw()
			}
		}
	}()
}

// Line prints a status line above the live view.
func (l *Live) Line(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.drawn {
		fmt.Fprint(l.w, "\r\033[2K")
		l.drawn = false
	}
	fmt.Fprintf(l.w, "%s %s\n", l.prefix(), styleLine(text))
}

// Stop ends redrawing and replaces the live line with final. It must be
// called from the goroutine that called Start.
func (l *Live) Stop(final string) {
	if l.running {
		close(l.stop)
		<-l.stopped
		l.running = false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.drawn {
		fmt.Fprint(l.w, "\r\033[2K")
		l.drawn = false
	}
	if strings.TrimSpace(final) != "" {
		fmt.Fprintln(l.w, final)
	}
}

func (l *Live) redraw() {
	line := l.Render()
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "\r\033[2K%s", line)
	l.drawn = true
}

// Render formats the current tracker state as a single line.
func (l *Live) Render() string {
	st := l.tracker.Snapshot()
	parts := []string{l.prefix(), mutedStyle.Render(stageLabel(st))}
	if st.TotalKnown && st.BytesTotal > 0 {
		ratio := float64(st.BytesDone) / float64(st.BytesTotal)
		if ratio > 1 {
			ratio = 1
		}
		parts = append(parts,
			l.bar.ViewAs(ratio),
			fmt.Sprintf("%3.0f%%", ratio*100),
			humanize.IBytes(uint64(st.BytesDone))+" / "+humanize.IBytes(uint64(st.BytesTotal)),
		)
	} else if st.BytesDone > 0 {
		parts = append(parts, humanize.IBytes(uint64(st.BytesDone)))
	}
	if st.Speed != "" && st.Stage == model.StageDownloading {
		parts = append(parts, st.Speed)
	}
	if st.ETA != "" && st.Stage == model.StageDownloading {
		parts = append(parts, "ETA "+st.ETA)
	}
	return strings.Join(parts, "  ")
}

func (l *Live) prefix() string {
	label := l.item.Label
	if l.item.Color != "" {
		label = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(l.item.Color)).Render(label)
	}
	return fmt.Sprintf("[%d/%d] %s", l.item.Index, l.item.Total, label)
}

func stageLabel(st lifecycle.State) string {
	if st.Stage == model.StagePostProcessing && st.CurrentStep != "" {
		return "postprocessing (" + st.CurrentStep + ")"
	}
	return string(st.Stage)
}

func styleLine(text string) string {
	switch {
	case strings.HasPrefix(text, "error:"):
		return errStyle.Render(text)
	case strings.HasSuffix(text, "unresolved)"):
		return warnStyle.Render(text)
	case strings.HasPrefix(text, "done"):
		return okStyle.Render(text)
	default:
		return mutedStyle.Render(text)
	}
}
