package model

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// PathSource records how an item's final path was determined.
type PathSource string

const (
	PathFromPostProcess PathSource = "postprocess"
	PathFromDownload    PathSource = "download"
	PathRewritten       PathSource = "download_rewritten"
	PathUnresolved      PathSource = "unresolved"
)

// ItemOutcome is the terminal record of one batch item.
type ItemOutcome struct {
	Index      int        `json:"index"`
	URL        string     `json:"url"`
	Provider   string     `json:"provider,omitempty"`
	Status     string     `json:"status"`
	FinalPath  string     `json:"final_path,omitempty"`
	PathSource PathSource `json:"path_source,omitempty"`
	Error      string     `json:"error,omitempty"`
	Format     string     `json:"format,omitempty"`
	LogPath    string     `json:"log_path,omitempty"`
	StartedAt  string     `json:"started_at,omitempty"`
	FinishedAt string     `json:"finished_at,omitempty"`
}

// BatchResult is the ordered, append-only record of a batch run.
type BatchResult struct {
	BatchID     string        `json:"batch_id"`
	StartedAt   string        `json:"started_at"`
	FinishedAt  string        `json:"finished_at,omitempty"`
	NothingToDo bool          `json:"nothing_to_do,omitempty"`
	LogDir      string        `json:"log_dir,omitempty"`
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Items       []ItemOutcome `json:"items"`
}

func (r *BatchResult) Append(o ItemOutcome) {
	r.Items = append(r.Items, o)
	r.Total = len(r.Items)
	switch o.Status {
	case StatusSucceeded:
		r.Succeeded++
	case StatusFailed:
		r.Failed++
	case StatusSkipped:
		r.Skipped++
	}
}
