package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/alessio/shellescape"

	"omdl/internal/format"
	"omdl/internal/model"
)

const DefaultBinary = "yt-dlp"

type OutputStream string

const (
	StreamStdout OutputStream = "stdout"
	StreamStderr OutputStream = "stderr"
)

// Request is one fetch+transcode invocation.
type Request struct {
	URL            string
	Format         string
	Container      format.ContainerPolicy
	OutputTemplate string
	Steps          []format.PostProcessStep
	CookiesPath    string
	Options        Options
	// LogWriter receives every raw output line.
	LogWriter io.Writer
}

type Client struct {
	Binary string
	Logger *slog.Logger
}

func New(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{Binary: DefaultBinary, Logger: logger.With("component", "ytdlp")}
}

type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath(DefaultBinary); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

func CheckDependencies() error {
	report := DependencyStatus()
	if !report.YTDLPFound {
		return fmt.Errorf("%w: yt-dlp is not installed or not on PATH", ErrDependencyMissing)
	}
	if !report.FFmpegFound {
		return fmt.Errorf("%w: ffmpeg is required to merge streams and extract audio and was not found on PATH", ErrDependencyMissing)
	}
	return nil
}

// BuildArgs renders the yt-dlp argv (without the binary) for req.
func BuildArgs(req Request) ([]string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("url is required")
	}
	if strings.TrimSpace(req.OutputTemplate) == "" {
		return nil, fmt.Errorf("output template is required")
	}

	args := []string{
		"--newline",
		"--no-playlist",
		"--progress-template", downloadTemplate,
		"--progress-template", postprocessTemplate,
		"-o", req.OutputTemplate,
	}
	if expr := strings.TrimSpace(req.Format); expr != "" {
		args = append(args, "-f", expr)
	}
	if req.Container == format.ContainerMP4 || req.Container == format.ContainerWebM {
		args = append(args, "--merge-output-format", string(req.Container))
	}
	for _, step := range req.Steps {
		switch step.Kind {
		case format.StepExtractAudio:
			args = append(args,
				"-x",
				"--audio-format", step.Codec.EngineCodec(),
				"--audio-quality", strconv.Itoa(step.BitrateKbps)+"K",
			)
		case format.StepWriteMetadata:
			args = append(args, "--embed-metadata")
		case format.StepEmbedThumbnail:
			args = append(args, "--embed-thumbnail")
		}
	}
	if strings.TrimSpace(req.CookiesPath) != "" {
		cookiesPath, err := resolveCookiesPath(req.CookiesPath)
		if err != nil {
			return nil, err
		}
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, req.Options.args()...)
	args = append(args, "--", req.URL)
	return args, nil
}

// Command renders the full command line, shell-quoted, for logs.
func (c *Client) Command(req Request) (string, error) {
	args, err := BuildArgs(req)
	if err != nil {
		return "", err
	}
	return shellescape.QuoteCommand(append([]string{c.binary()}, args...)), nil
}

// Fetch runs yt-dlp for req and calls sink for every lifecycle event, in the
// order the lines were read. It blocks until the process exits.
func (c *Client) Fetch(ctx context.Context, req Request, sink model.EventSink) error {
	args, err := BuildArgs(req)
	if err != nil {
		return err
	}
	bin := c.binary()
	quoted := shellescape.QuoteCommand(append([]string{bin}, args...))
	c.logger().Info("engine start", "url", req.URL, "command", quoted)
	if req.LogWriter != nil {
		_, _ = io.WriteString(req.LogWriter, "$ "+quoted+"\n")
	}

	runErr := runCommand(ctx, bin, args, req.LogWriter, func(_ OutputStream, line string) {
		if ev, ok := ParseLine(line); ok && sink != nil {
			sink(ev)
		}
	})
	if runErr == nil {
		c.logger().Info("engine done", "url", req.URL)
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("yt-dlp interrupted: %w", ctxErr)
	}

	var cmdErr *commandError
	if errors.As(runErr, &cmdErr) {
		engErr := newEngineError(req.URL, cmdErr.err, cmdErr.output)
		c.logger().Warn("engine failed", "url", req.URL, "category", engErr.Category, "error", cmdErr.err)
		return engErr
	}
	if errors.Is(runErr, exec.ErrNotFound) {
		return &EngineError{URL: req.URL, Category: CategoryDependency, Err: fmt.Errorf("%w: %v", ErrDependencyMissing, runErr)}
	}
	return &EngineError{URL: req.URL, Category: CategoryPermanent, Err: fmt.Errorf("%w: %v", ErrEngineFailed, runErr)}
}

func (c *Client) binary() string {
	if c == nil || strings.TrimSpace(c.Binary) == "" {
		return DefaultBinary
	}
	return c.Binary
}

func (c *Client) logger() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

type commandError struct {
	err    error
	output string
}

func (e *commandError) Error() string {
	return e.err.Error()
}

type streamLine struct {
	stream OutputStream
	text   string
}

func runCommand(ctx context.Context, bin string, args []string, logW io.Writer, handle func(OutputStream, string)) error {
	cmd := exec.CommandContext(ctx, bin, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", bin, err)
	}

	lines := make(chan streamLine, 64)
	var wg sync.WaitGroup
	read := func(stream OutputStream, r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		scanner.Split(splitByNewlineOrCR)
		for scanner.Scan() {
			lines <- streamLine{stream: stream, text: scanner.Text()}
		}
		// Keep the pipe drained after an oversized line so the child never
		// blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
	wg.Add(2)
	go read(StreamStdout, stdoutPipe)
	go read(StreamStderr, stderrPipe)
	go func() {
		wg.Wait()
		close(lines)
	}()

	var outBuf, errBuf strings.Builder
	for l := range lines {
		appendLimited(&outBuf, &errBuf, l.stream, l.text)
		if logW != nil {
			_, _ = io.WriteString(logW, l.text+"\n")
		}
		handle(l.stream, l.text)
	}

	if err := cmd.Wait(); err != nil {
		output := strings.TrimSpace(errBuf.String())
		if out := strings.TrimSpace(outBuf.String()); out != "" {
			output = strings.TrimSpace(output + "\n" + lastLines(out, 5))
		}
		return &commandError{err: err, output: output}
	}
	return nil
}

func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func appendLimited(outBuf, errBuf *strings.Builder, stream OutputStream, line string) {
	const maxKeep = 8192
	b := outBuf
	if stream == StreamStderr {
		b = errBuf
	}
	if b.Len() >= maxKeep {
		return
	}
	toWrite := line + "\n"
	remain := maxKeep - b.Len()
	if len(toWrite) > remain {
		toWrite = toWrite[:remain]
	}
	b.WriteString(toWrite)
}

func lastLines(s string, n int) string {
	parts := strings.Split(s, "\n")
	if len(parts) <= n {
		return s
	}
	return strings.Join(parts[len(parts)-n:], "\n")
}

func resolveCookiesPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve cookies path %s: %w", p, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("cookies file %s: %w", abs, err)
	}
	return abs, nil
}
