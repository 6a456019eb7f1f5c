package ytdlp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEngineFailed      = errors.New("yt-dlp failed")
	ErrDependencyMissing = errors.New("missing dependency")
)

const maxErrorDetail = 1200

type Category string

const (
	CategoryRetryable  Category = "retryable"
	CategoryPermanent  Category = "permanent"
	CategoryDependency Category = "dependency"
)

// EngineError wraps a failed yt-dlp invocation with the tail of its output.
type EngineError struct {
	URL      string
	Detail   string
	Category Category
	Err      error
}

func (e *EngineError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (url=%s)", e.Err, e.URL)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func newEngineError(url string, cause error, output string) *EngineError {
	detail := strings.TrimSpace(output)
	if detail == "" && cause != nil {
		detail = cause.Error()
	}
	category := classify(detail)
	sentinel := ErrEngineFailed
	if category == CategoryDependency {
		sentinel = ErrDependencyMissing
	}
	return &EngineError{
		URL:      url,
		Detail:   truncate(detail, maxErrorDetail),
		Category: category,
		Err:      fmt.Errorf("%w: %v", sentinel, cause),
	}
}

func classify(s string) Category {
	switch {
	case isDependencyError(s):
		return CategoryDependency
	case isRetryableError(s):
		return CategoryRetryable
	default:
		return CategoryPermanent
	}
}

func isRetryableError(s string) bool {
	text := strings.ToLower(s)
	hints := []string{
		"429",
		"too many requests",
		"rate limit",
		"timed out",
		"timeout",
		"temporarily unavailable",
		"connection reset",
		"service unavailable",
		"network is unreachable",
		"http error 5",
	}
	for _, h := range hints {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

func isDependencyError(s string) bool {
	text := strings.ToLower(s)
	hints := []string{
		"ffmpeg could not be found",
		"ffprobe could not be found",
		"ffmpeg not found",
		"executable file not found",
	}
	for _, h := range hints {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
