package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidIntent marks a request that cannot be resolved as configured.
var ErrInvalidIntent = errors.New("invalid resolution intent")

type Mode int

const (
	ModeOriginal Mode = iota
	ModeAudioOnly
)

func (m Mode) String() string {
	if m == ModeAudioOnly {
		return "audio"
	}
	return "auto"
}

// ParseMode accepts the CLI spellings; anything unrecognized is Original.
func ParseMode(raw string) Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "audio", "audio_only", "audioonly":
		return ModeAudioOnly
	default:
		return ModeOriginal
	}
}

type QualityMode int

const (
	QualityModeAuto QualityMode = iota
	QualityModeBest
	QualityModePreset
	QualityModeManual
)

func (q QualityMode) String() string {
	switch q {
	case QualityModeBest:
		return "best"
	case QualityModePreset:
		return "preset"
	case QualityModeManual:
		return "manual"
	default:
		return "auto"
	}
}

func ParseQualityMode(raw string) QualityMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "best":
		return QualityModeBest
	case "preset":
		return QualityModePreset
	case "manual":
		return QualityModeManual
	default:
		return QualityModeAuto
	}
}

type ContainerPolicy string

const (
	ContainerAuto ContainerPolicy = "auto"
	ContainerMP4  ContainerPolicy = "mp4"
	ContainerWebM ContainerPolicy = "webm"
)

func ParseContainerPolicy(raw string) ContainerPolicy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mp4":
		return ContainerMP4
	case "webm":
		return ContainerWebM
	default:
		return ContainerAuto
	}
}

var presetResolutions = []int{144, 240, 360, 480, 720, 1080}

const DefaultPresetResolution = 720

func IsPresetResolution(h int) bool {
	for _, v := range presetResolutions {
		if v == h {
			return true
		}
	}
	return false
}

// ParsePresetResolution reads "720p", "720" or "1080P". ok is false when the
// value is not one of the supported heights.
func ParsePresetResolution(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "p")
	h, err := strconv.Atoi(s)
	if err != nil || !IsPresetResolution(h) {
		return 0, false
	}
	return h, true
}

// IntentOptions is the loose, user-facing shape of a request. NewIntent
// validates it into an immutable Intent.
type IntentOptions struct {
	Mode             Mode
	QualityMode      QualityMode
	PresetResolution int
	CodecPreference  string
	AllowHEVC        bool
	Container        ContainerPolicy
	ManualExpression string
	AudioFormat      AudioFormat
	AudioBitrate     Bitrate
	EmbedThumbnail   bool
}

// Intent describes what the user wants, independent of provider.
type Intent struct {
	mode             Mode
	qualityMode      QualityMode
	presetResolution int
	codecPreference  string
	allowHEVC        bool
	container        ContainerPolicy
	manualExpression string
	audioFormat      AudioFormat
	audioBitrate     Bitrate
	embedThumbnail   bool
}

func NewIntent(opts IntentOptions) (Intent, error) {
	manual := strings.TrimSpace(opts.ManualExpression)
	if opts.QualityMode == QualityModeManual && manual == "" {
		return Intent{}, fmt.Errorf("%w: manual quality requires a format expression", ErrInvalidIntent)
	}
	if opts.PresetResolution != 0 && !IsPresetResolution(opts.PresetResolution) {
		return Intent{}, fmt.Errorf("%w: preset resolution %d is not one of %v", ErrInvalidIntent, opts.PresetResolution, presetResolutions)
	}
	container := opts.Container
	if container == "" {
		container = ContainerAuto
	}
	audioFormat := opts.AudioFormat
	if audioFormat == "" {
		audioFormat = AudioMP3
	}
	bitrate := opts.AudioBitrate
	if !bitrate.IsSet() {
		bitrate = BestBitrate()
	}
	return Intent{
		mode:             opts.Mode,
		qualityMode:      opts.QualityMode,
		presetResolution: opts.PresetResolution,
		codecPreference:  strings.ToLower(strings.TrimSpace(opts.CodecPreference)),
		allowHEVC:        opts.AllowHEVC,
		container:        container,
		manualExpression: manual,
		audioFormat:      audioFormat,
		audioBitrate:     bitrate,
		embedThumbnail:   opts.EmbedThumbnail,
	}, nil
}

func (i Intent) Mode() Mode                 { return i.mode }
func (i Intent) QualityMode() QualityMode   { return i.qualityMode }
func (i Intent) CodecPreference() string    { return i.codecPreference }
func (i Intent) AllowHEVC() bool            { return i.allowHEVC }
func (i Intent) Container() ContainerPolicy { return i.container }
func (i Intent) ManualExpression() string   { return i.manualExpression }
func (i Intent) AudioFormat() AudioFormat   { return i.audioFormat }
func (i Intent) AudioBitrate() Bitrate      { return i.audioBitrate }
func (i Intent) EmbedThumbnail() bool       { return i.embedThumbnail }

// PresetResolution is the height cap for Preset requests, 720 when unset.
func (i Intent) PresetResolution() int {
	if i.presetResolution == 0 {
		return DefaultPresetResolution
	}
	return i.presetResolution
}

// Quality maps the intent onto the provider-level quality sum type.
func (i Intent) Quality() Quality {
	switch {
	case i.qualityMode == QualityModeManual:
		return Explicit(i.manualExpression)
	case i.qualityMode == QualityModeBest:
		return Best()
	default:
		return Auto()
	}
}
