package model

import "fmt"

// Stage is the lifecycle position of one download item.
type Stage string

const (
	StageQueued         Stage = "queued"
	StageDownloading    Stage = "downloading"
	StagePostProcessing Stage = "postprocessing"
	StageFinalizing     Stage = "finalizing"
	StageSucceeded      Stage = "succeeded"
	StageFailed         Stage = "failed"
)

var allowedTransitions = map[Stage]map[Stage]bool{
	StageQueued: {
		StageDownloading:    true,
		StagePostProcessing: true, // file already on disk, engine goes straight to post-processors
		StageFinalizing:     true,
		StageFailed:         true,
	},
	StageDownloading: {
		StageDownloading:    true,
		StagePostProcessing: true,
		StageFinalizing:     true,
		StageFailed:         true,
	},
	StagePostProcessing: {
		StagePostProcessing: true,
		StageFinalizing:     true,
		StageFailed:         true,
	},
	StageFinalizing: {
		StageSucceeded: true,
		StageFailed:    true,
	},
	StageSucceeded: {},
	StageFailed:    {},
}

func (s Stage) IsTerminal() bool {
	return s == StageSucceeded || s == StageFailed
}

// Rank orders the non-failed stages; Failed ranks after everything.
func (s Stage) Rank() int {
	switch s {
	case StageQueued:
		return 0
	case StageDownloading:
		return 1
	case StagePostProcessing:
		return 2
	case StageFinalizing:
		return 3
	case StageSucceeded:
		return 4
	case StageFailed:
		return 5
	default:
		return -1
	}
}

func CanTransition(from, to Stage) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func TransitionStage(current *Stage, to Stage, url string) error {
	from := *current
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid stage transition: %q -> %q (url=%s)", from, to, url)
	}
	*current = to
	return nil
}
