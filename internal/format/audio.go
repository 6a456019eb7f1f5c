package format

import (
	"strconv"
	"strings"
)

type AudioFormat string

const (
	AudioBest AudioFormat = "best"
	AudioMP3  AudioFormat = "mp3"
	AudioOGG  AudioFormat = "ogg"
	AudioWAV  AudioFormat = "wav"
	AudioOpus AudioFormat = "opus"
)

func AudioFormats() []AudioFormat {
	return []AudioFormat{AudioBest, AudioMP3, AudioOGG, AudioWAV, AudioOpus}
}

// ParseAudioFormat falls back to mp3 for unknown values.
func ParseAudioFormat(raw string) AudioFormat {
	v := AudioFormat(strings.ToLower(strings.TrimSpace(raw)))
	for _, f := range AudioFormats() {
		if f == v {
			return v
		}
	}
	return AudioMP3
}

// EngineCodec is the name yt-dlp's --audio-format expects.
func (f AudioFormat) EngineCodec() string {
	if f == AudioOGG {
		return "vorbis"
	}
	return string(f)
}

// Extension is the file extension produced by extracting to f.
func (f AudioFormat) Extension() string {
	return string(f)
}

const (
	MinBitrateKbps      = 64
	MaxBitrateKbps      = 320
	fallbackBitrateKbps = 192
)

// Bitrate is either Best or a kbps value. Out-of-range values are kept as
// given and clamped on resolution. The zero value is unset and behaves as
// Best; Kbps(0) is a set value that clamps to the minimum.
type Bitrate struct {
	set  bool
	best bool
	kbps int
}

func BestBitrate() Bitrate     { return Bitrate{set: true, best: true} }
func Kbps(n int) Bitrate       { return Bitrate{set: true, kbps: n} }
func (b Bitrate) IsSet() bool  { return b.set }
func (b Bitrate) IsBest() bool { return b.best || !b.set }

// ParseBitrate reads "best", "192", "192k" or "192kbps". Non-numeric input
// resolves to 192.
func ParseBitrate(raw string) Bitrate {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "best" {
		return BestBitrate()
	}
	s = strings.TrimSuffix(s, "kbps")
	s = strings.TrimSuffix(s, "k")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Kbps(fallbackBitrateKbps)
	}
	return Kbps(n)
}

// Resolve returns the kbps value handed to the transcoder.
func (b Bitrate) Resolve() int {
	if b.IsBest() {
		return MaxBitrateKbps
	}
	if b.kbps < MinBitrateKbps {
		return MinBitrateKbps
	}
	if b.kbps > MaxBitrateKbps {
		return MaxBitrateKbps
	}
	return b.kbps
}

func (b Bitrate) String() string {
	if b.IsBest() {
		return "best"
	}
	return strconv.Itoa(b.kbps)
}

// BuildAudioPlan resolves an audio request into the selection expression and
// the transcode steps that follow the download.
func BuildAudioPlan(intent Intent) (string, []PostProcessStep) {
	if intent.AudioFormat() == AudioBest {
		return ExprBestAudio, nil
	}
	steps := []PostProcessStep{
		{Kind: StepExtractAudio, Codec: intent.AudioFormat(), BitrateKbps: intent.AudioBitrate().Resolve()},
		{Kind: StepWriteMetadata},
	}
	if intent.EmbedThumbnail() {
		steps = append(steps, PostProcessStep{Kind: StepEmbedThumbnail})
	}
	return ExprBestAudio, steps
}

var audioPresets = []int{320, 192, 128}

// ParseAudioPreset reads the audio --preset values ("320", "192k", "128kbps").
func ParseAudioPreset(raw string) (Bitrate, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "kbps"), "k")
	n, err := strconv.Atoi(s)
	if err != nil {
		return Bitrate{}, false
	}
	for _, p := range audioPresets {
		if p == n {
			return Kbps(n), true
		}
	}
	return Bitrate{}, false
}
