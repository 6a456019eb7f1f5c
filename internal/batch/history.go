package batch

import (
	"path/filepath"
	"sort"

	"omdl/internal/model"
	"omdl/internal/output"
	"omdl/internal/runstore"
)

const reportFile = "report.json"

// History reads the report of every batch recorded under logDir, newest
// first. Batch directories without a readable report are skipped. A limit of
// zero or less returns everything.
func History(logDir string, limit int) ([]model.BatchResult, error) {
	dirs, err := runstore.ListDirs(output.ExpandHome(logDir))
	if err != nil {
		return nil, err
	}
	out := make([]model.BatchResult, 0, len(dirs))
	for _, dir := range dirs {
		var res model.BatchResult
		if err := runstore.ReadJSON(filepath.Join(dir, reportFile), &res); err != nil {
			continue
		}
		if res.LogDir == "" {
			res.LogDir = dir
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
