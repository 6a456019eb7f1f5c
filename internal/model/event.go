package model

// EventKind identifies which fields of an Event are meaningful.
type EventKind int

const (
	EventDownloadProgress EventKind = iota + 1
	EventDownloadFinished
	EventDownloadError
	EventPostProcess
)

func (k EventKind) String() string {
	switch k {
	case EventDownloadProgress:
		return "download_progress"
	case EventDownloadFinished:
		return "download_finished"
	case EventDownloadError:
		return "download_error"
	case EventPostProcess:
		return "postprocess"
	default:
		return "unknown"
	}
}

type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

// Event is one notification emitted by the fetch engine while an item runs.
// BytesTotal of zero means the total is not known yet.
type Event struct {
	Kind EventKind

	BytesTotal int64
	BytesDone  int64
	Speed      string
	ETA        string

	Filename string
	Detail   string

	StageKey      string
	Phase         Phase
	CandidatePath string
}

func DownloadProgress(done, total int64, speed, eta string) Event {
	return Event{Kind: EventDownloadProgress, BytesDone: done, BytesTotal: total, Speed: speed, ETA: eta}
}

func DownloadFinished(filename string) Event {
	return Event{Kind: EventDownloadFinished, Filename: filename}
}

func DownloadError(detail string) Event {
	return Event{Kind: EventDownloadError, Detail: detail}
}

func PostProcess(stageKey string, phase Phase, candidatePath string) Event {
	return Event{Kind: EventPostProcess, StageKey: stageKey, Phase: phase, CandidatePath: candidatePath}
}

// EventSink receives engine events in the order the engine produced them.
type EventSink func(Event)
