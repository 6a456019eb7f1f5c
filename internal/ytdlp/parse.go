package ytdlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"omdl/internal/model"
)

const (
	downloadMarker    = "omdl:dl|"
	postprocessMarker = "omdl:pp|"

	downloadTemplate = "download:" + downloadMarker +
		"%(progress.status)s|%(progress.downloaded_bytes)s|%(progress.total_bytes)s|" +
		"%(progress.total_bytes_estimate)s|%(progress._speed_str)s|%(progress._eta_str)s|%(progress.filename)s"
	postprocessTemplate = "postprocess:" + postprocessMarker +
		"%(progress.status)s|%(progress.postprocessor)s|%(info.filepath)s"
)

var (
	reANSI          = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	reAlready       = regexp.MustCompile(`^\[download\]\s+(.+?) has already been downloaded`)
	reClassicPct    = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)
	reClassicOf     = regexp.MustCompile(`\bof\s+~?\s*([0-9.]+\s*[KMGT]?i?B)`)
	reClassicSpeed  = regexp.MustCompile(`\bat\s+([^\s]+)`)
	reClassicETA    = regexp.MustCompile(`\bETA\s+([0-9:]+|Unknown)`)
	reMergerInto    = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
	rePPDestination = regexp.MustCompile(`^\[(ExtractAudio|VideoConvertor|VideoRemuxer)\] Destination: (.+)$`)
)

// ParseLine maps one line of yt-dlp output to an engine event. Lines that do
// not carry lifecycle information return ok=false.
func ParseLine(raw string) (model.Event, bool) {
	line := strings.TrimSpace(reANSI.ReplaceAllString(raw, ""))
	if line == "" {
		return model.Event{}, false
	}

	if rest, ok := strings.CutPrefix(line, downloadMarker); ok {
		return parseDownloadTemplate(rest)
	}
	if rest, ok := strings.CutPrefix(line, postprocessMarker); ok {
		return parsePostprocessTemplate(rest)
	}
	if detail, ok := strings.CutPrefix(line, "ERROR:"); ok {
		return model.DownloadError(strings.TrimSpace(detail)), true
	}
	if m := reAlready.FindStringSubmatch(line); len(m) == 2 {
		return model.DownloadFinished(m[1]), true
	}
	if m := reMergerInto.FindStringSubmatch(line); len(m) == 2 {
		return model.PostProcess("Merger", model.PhaseStarted, ""), true
	}
	if m := rePPDestination.FindStringSubmatch(line); len(m) == 3 {
		return model.PostProcess(m[1], model.PhaseStarted, ""), true
	}
	if m := reClassicPct.FindStringSubmatch(line); len(m) == 2 {
		return parseClassicProgress(line, m[1]), true
	}
	return model.Event{}, false
}

func parseDownloadTemplate(rest string) (model.Event, bool) {
	parts := strings.SplitN(rest, "|", 7)
	if len(parts) != 7 {
		return model.Event{}, false
	}
	status := strings.TrimSpace(parts[0])
	filename := templateValue(parts[6])
	switch status {
	case "finished":
		if filename == "" {
			return model.Event{}, false
		}
		return model.DownloadFinished(filename), true
	case "downloading":
		done, _ := parseTemplateInt(parts[1])
		total, ok := parseTemplateInt(parts[2])
		if !ok {
			total, _ = parseTemplateInt(parts[3])
		}
		return model.DownloadProgress(done, total, templateValue(parts[4]), templateValue(parts[5])), true
	case "error":
		return model.DownloadError("download of " + filename + " failed"), true
	default:
		return model.Event{}, false
	}
}

func parsePostprocessTemplate(rest string) (model.Event, bool) {
	parts := strings.SplitN(rest, "|", 3)
	if len(parts) != 3 {
		return model.Event{}, false
	}
	stage := StageKey(parts[1])
	if stage == "" {
		return model.Event{}, false
	}
	switch strings.TrimSpace(parts[0]) {
	case "started":
		return model.PostProcess(stage, model.PhaseStarted, ""), true
	case "finished":
		return model.PostProcess(stage, model.PhaseFinished, templateValue(parts[2])), true
	default:
		return model.Event{}, false
	}
}

func parseClassicProgress(line, pctRaw string) model.Event {
	pct, _ := strconv.ParseFloat(pctRaw, 64)
	var total, done int64
	if m := reClassicOf.FindStringSubmatch(line); len(m) == 2 {
		if n, err := humanize.ParseBytes(strings.ReplaceAll(m[1], " ", "")); err == nil {
			total = int64(n)
			done = int64(float64(total) * pct / 100)
		}
	}
	speed := ""
	if m := reClassicSpeed.FindStringSubmatch(line); len(m) == 2 {
		speed = m[1]
	}
	eta := ""
	if m := reClassicETA.FindStringSubmatch(line); len(m) == 2 {
		eta = m[1]
	}
	return model.DownloadProgress(done, total, speed, eta)
}

// StageKey normalizes post-processor names so the progress hook name
// ("FFmpegExtractAudio") and the log prefix ("ExtractAudio") agree.
func StageKey(raw string) string {
	v := templateValue(raw)
	v = strings.TrimPrefix(v, "FFmpeg")
	return strings.TrimSuffix(v, "PP")
}

func templateValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "NA" || v == "None" {
		return ""
	}
	return v
}

func parseTemplateInt(raw string) (int64, bool) {
	v := templateValue(raw)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int64(f), true
}
