package format

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func mustIntent(t *testing.T, opts IntentOptions) Intent {
	t.Helper()
	intent, err := NewIntent(opts)
	if err != nil {
		t.Fatalf("new intent: %v", err)
	}
	return intent
}

func TestNewIntentRejectsManualWithoutExpression(t *testing.T) {
	_, err := NewIntent(IntentOptions{QualityMode: QualityModeManual, ManualExpression: "   "})
	if !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
}

func TestNewIntentRejectsUnsupportedPresetResolution(t *testing.T) {
	_, err := NewIntent(IntentOptions{QualityMode: QualityModePreset, PresetResolution: 900})
	if !errors.Is(err, ErrInvalidIntent) {
		t.Fatalf("expected ErrInvalidIntent, got %v", err)
	}
}

func TestBuildVideoFormatBestIgnoresCodecAndHEVC(t *testing.T) {
	for _, pref := range append(CodecPreferences(), "bogus") {
		for _, hevc := range []bool{false, true} {
			intent := mustIntent(t, IntentOptions{QualityMode: QualityModeBest, CodecPreference: pref, AllowHEVC: hevc})
			expr, _ := BuildVideoFormat(intent, "best[ext=mp4]")
			if expr != "bv*+ba/best" {
				t.Fatalf("pref=%s hevc=%v: got %q", pref, hevc, expr)
			}
		}
	}
}

func TestBuildVideoFormatPresetDefaultsTo720(t *testing.T) {
	intent := mustIntent(t, IntentOptions{QualityMode: QualityModePreset, CodecPreference: "h264+aac"})
	expr, container := BuildVideoFormat(intent, "")
	want := "bv*[vcodec~='(avc1|h264)'][height<=720]+ba[acodec~='(aac|mp4a)']/b[height<=720]"
	if expr != want {
		t.Fatalf("unexpected preset expression:\n got %s\nwant %s", expr, want)
	}
	if container != ContainerMP4 {
		t.Fatalf("expected mp4 container, got %q", container)
	}
}

func TestBuildVideoFormatPresetVariants(t *testing.T) {
	cases := []struct {
		name string
		opts IntentOptions
		want string
		cont ContainerPolicy
	}{
		{
			name: "av1 1080",
			opts: IntentOptions{QualityMode: QualityModePreset, PresetResolution: 1080, CodecPreference: "av1+opus"},
			want: "bv*[vcodec~='(av01|av1)'][height<=1080]+ba[acodec~='opus']/b[height<=1080]",
			cont: ContainerWebM,
		},
		{
			name: "h264 with hevc widening",
			opts: IntentOptions{QualityMode: QualityModePreset, PresetResolution: 480, CodecPreference: "h264+aac", AllowHEVC: true},
			want: "bv*[vcodec~='((avc1|h264)|(hvc1|hev1|hevc|h265))'][height<=480]+ba[acodec~='(aac|mp4a)']/b[height<=480]",
			cont: ContainerMP4,
		},
		{
			name: "unknown preference falls back to h264",
			opts: IntentOptions{QualityMode: QualityModePreset, PresetResolution: 360, CodecPreference: "mpeg2+mp2"},
			want: "bv*[vcodec~='(avc1|h264)'][height<=360]+ba[acodec~='(aac|mp4a)']/b[height<=360]",
			cont: ContainerMP4,
		},
	}

	for _, tc := range cases {
		expr, container := BuildVideoFormat(mustIntent(t, tc.opts), "")
		if expr != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, expr, tc.want)
		}
		if container != tc.cont {
			t.Fatalf("%s: got container %q want %q", tc.name, container, tc.cont)
		}
	}
}

func TestBuildVideoFormatManualAndAuto(t *testing.T) {
	manual := mustIntent(t, IntentOptions{QualityMode: QualityModeManual, ManualExpression: "137+140", Container: ContainerWebM})
	expr, container := BuildVideoFormat(manual, "best")
	if expr != "137+140" || container != ContainerWebM {
		t.Fatalf("manual: got %q %q", expr, container)
	}

	auto := mustIntent(t, IntentOptions{CodecPreference: "vp9+opus"})
	expr, container = BuildVideoFormat(auto, "")
	if expr != "bv*+ba/best" || container != ContainerWebM {
		t.Fatalf("auto: got %q %q", expr, container)
	}
	expr, _ = BuildVideoFormat(auto, "best")
	if expr != "bv*+ba/best" {
		t.Fatalf("auto should match best regardless of provider default, got %q", expr)
	}
}

func TestContainerForExplicitPolicyWins(t *testing.T) {
	if got := ContainerFor("h264+aac", ContainerWebM); got != ContainerWebM {
		t.Fatalf("expected webm to win over h264 table entry, got %q", got)
	}
	if got := ContainerFor("vp9+opus", ContainerMP4); got != ContainerMP4 {
		t.Fatalf("expected mp4 to win over vp9 table entry, got %q", got)
	}
	if got := ContainerFor("av1+opus", ContainerAuto); got != ContainerWebM {
		t.Fatalf("expected table entry webm, got %q", got)
	}
	if got := ContainerFor("", ContainerAuto); got != ContainerMP4 {
		t.Fatalf("expected default mp4, got %q", got)
	}
}

func TestParseBitrateClampsIntoRange(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"-10", 64},
		{"9999", 320},
		{"best", 320},
		{"", 320},
		{"128", 128},
		{"192k", 192},
		{"256kbps", 256},
		{"loud", 192},
	}
	for _, tc := range cases {
		if got := ParseBitrate(tc.raw).Resolve(); got != tc.want {
			t.Fatalf("ParseBitrate(%q).Resolve() = %d, want %d", tc.raw, got, tc.want)
		}
	}
	if got := Kbps(-10).Resolve(); got != 64 {
		t.Fatalf("Kbps(-10) = %d", got)
	}
}

func TestBuildAudioPlan(t *testing.T) {
	best := mustIntent(t, IntentOptions{Mode: ModeAudioOnly, AudioFormat: AudioBest, EmbedThumbnail: true})
	expr, steps := BuildAudioPlan(best)
	if expr != "bestaudio/best" || len(steps) != 0 {
		t.Fatalf("best audio: got %q %v", expr, steps)
	}

	mp3 := mustIntent(t, IntentOptions{Mode: ModeAudioOnly, AudioFormat: AudioMP3, AudioBitrate: Kbps(9999), EmbedThumbnail: true})
	expr, steps = BuildAudioPlan(mp3)
	want := []PostProcessStep{
		{Kind: StepExtractAudio, Codec: AudioMP3, BitrateKbps: 320},
		{Kind: StepWriteMetadata},
		{Kind: StepEmbedThumbnail},
	}
	if expr != "bestaudio/best" || !reflect.DeepEqual(steps, want) {
		t.Fatalf("mp3 audio: got %q %v", expr, steps)
	}

	noThumb := mustIntent(t, IntentOptions{Mode: ModeAudioOnly, AudioFormat: AudioOpus, AudioBitrate: Kbps(96)})
	_, steps = BuildAudioPlan(noThumb)
	if len(steps) != 2 || steps[0].Codec != AudioOpus || steps[0].BitrateKbps != 96 {
		t.Fatalf("opus audio: got %v", steps)
	}
	for _, s := range steps {
		if s.Kind == StepEmbedThumbnail {
			t.Fatalf("thumbnail step present while disabled: %v", steps)
		}
	}
}

func TestUnsetBitrateResolvesToBest(t *testing.T) {
	intent := mustIntent(t, IntentOptions{Mode: ModeAudioOnly})
	if !intent.AudioBitrate().IsBest() {
		t.Fatalf("expected unset bitrate to be best, got %v", intent.AudioBitrate())
	}
	if intent.AudioFormat() != AudioMP3 {
		t.Fatalf("expected default audio format mp3, got %q", intent.AudioFormat())
	}
}

func TestZeroBitrateClampsToMinimum(t *testing.T) {
	intent := mustIntent(t, IntentOptions{Mode: ModeAudioOnly, AudioFormat: AudioMP3, AudioBitrate: ParseBitrate("0")})
	if intent.AudioBitrate().IsBest() {
		t.Fatal("explicit 0 kbps must not become best")
	}
	_, steps := BuildAudioPlan(intent)
	if len(steps) == 0 || steps[0].Kind != StepExtractAudio {
		t.Fatalf("expected extract step first, got %v", steps)
	}
	if steps[0].BitrateKbps != 64 {
		t.Fatalf("expected 0 kbps to clamp to 64, got %d", steps[0].BitrateKbps)
	}
}

func TestParseQuality(t *testing.T) {
	if !ParseQuality("").IsAuto() || !ParseQuality(" AUTO ").IsAuto() {
		t.Fatalf("expected auto")
	}
	if !ParseQuality("best").IsBest() {
		t.Fatalf("expected best")
	}
	expr, ok := ParseQuality("bv*[height<=480]+ba").Expression()
	if !ok || expr != "bv*[height<=480]+ba" {
		t.Fatalf("expected explicit expression, got %q %v", expr, ok)
	}
	if _, ok := ParseQuality("best").Expression(); ok {
		t.Fatalf("best must not be an explicit expression")
	}
}

func TestParseHelpersFailSoft(t *testing.T) {
	if ParseContainerPolicy("mkv") != ContainerAuto {
		t.Fatalf("unknown container should be auto")
	}
	if ParseAudioFormat("flac") != AudioMP3 {
		t.Fatalf("unknown audio format should be mp3")
	}
	if ParseQualityMode("ultra") != QualityModeAuto {
		t.Fatalf("unknown quality mode should be auto")
	}
	if ParseMode("video") != ModeOriginal || ParseMode("audio") != ModeAudioOnly {
		t.Fatalf("unexpected mode parsing")
	}
	if h, ok := ParsePresetResolution("1080P"); !ok || h != 1080 {
		t.Fatalf("expected 1080, got %d %v", h, ok)
	}
	if _, ok := ParsePresetResolution("999p"); ok {
		t.Fatalf("999p must not parse")
	}
}

func TestAudioFormatEngineNames(t *testing.T) {
	if AudioOGG.EngineCodec() != "vorbis" || AudioOGG.Extension() != "ogg" {
		t.Fatalf("unexpected ogg mapping")
	}
	if AudioMP3.EngineCodec() != "mp3" {
		t.Fatalf("unexpected mp3 mapping")
	}
	step := PostProcessStep{Kind: StepExtractAudio, Codec: AudioWAV, BitrateKbps: 128}
	if !strings.Contains(step.String(), "wav@128k") {
		t.Fatalf("unexpected step string %q", step.String())
	}
}

func TestParseAudioPreset(t *testing.T) {
	for raw, want := range map[string]int{"320": 320, "192k": 192, "128Kbps": 128} {
		b, ok := ParseAudioPreset(raw)
		if !ok || b.Resolve() != want {
			t.Fatalf("ParseAudioPreset(%q) = %v %v", raw, b, ok)
		}
	}
	if _, ok := ParseAudioPreset("256"); ok {
		t.Fatalf("256 is not an audio preset")
	}
}
