package provider

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"omdl/internal/config"
	"omdl/internal/format"
)

func TestDetect(t *testing.T) {
	cases := map[string]Identity{
		"https://youtu.be/dQw4w9WgXcQ":                YouTube,
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ": YouTube,
		"https://m.youtube.com/watch?v=abc":           YouTube,
		"youtube.com/shorts/abc":                      YouTube,
		"https://www.instagram.com/reel/Cabc/":        Instagram,
		"https://www.tiktok.com/@user/video/123":      TikTok,
		"https://vm.tiktok.com/ZMabc/":                TikTok,
		"https://www.facebook.com/watch/?v=1":         Facebook,
		"https://fb.watch/abc/":                       Facebook,
		"https://twitter.com/user/status/1":           X,
		"https://x.com/user/status/1":                 X,
		"HTTPS://WWW.YOUTUBE.COM/watch?v=abc":         YouTube,
	}
	for url, want := range cases {
		got, err := Detect(url)
		if err != nil {
			t.Fatalf("Detect(%q) error: %v", url, err)
		}
		if got != want {
			t.Fatalf("Detect(%q) = %q, want %q", url, got, want)
		}
	}
}

func TestDetectUnknownHost(t *testing.T) {
	for _, url := range []string{
		"https://vimeo.com/1",
		"https://notyoutube.com/watch?v=1",
		"https://example.com/x.com/status/1",
		"",
	} {
		if _, err := Detect(url); !errors.Is(err, ErrUnresolved) {
			t.Fatalf("Detect(%q): expected ErrUnresolved, got %v", url, err)
		}
	}
}

func TestParseIdentityAliases(t *testing.T) {
	for raw, want := range map[string]Identity{"ig": Instagram, "YouTube": YouTube, "twitter": X, "fb": Facebook} {
		got, err := ParseIdentity(raw)
		if err != nil || got != want {
			t.Fatalf("ParseIdentity(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseIdentity("vimeo"); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved for vimeo, got %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestResolveFormatExplicitAlwaysWins(t *testing.T) {
	cfg := testConfig(t)
	for _, id := range All() {
		policies := []Policy{
			NewPolicy(cfg, id, config.ProviderFile{}),
			NewPolicy(cfg, id, config.ProviderFile{FormatVideo: "best[ext=mp4]", FormatAudio: "140"}),
		}
		for _, p := range policies {
			for _, mode := range []format.Mode{format.ModeOriginal, format.ModeAudioOnly} {
				for _, expr := range []string{"137+140", "bv*[height<=480]+ba", "worst"} {
					if got := p.ResolveFormat(mode, format.ParseQuality(expr)); got != expr {
						t.Fatalf("%s mode=%s: expected %q verbatim, got %q", id, mode, expr, got)
					}
				}
			}
		}
	}
}

func TestResolveFormatAudioAutoAndBestMatch(t *testing.T) {
	cfg := testConfig(t)
	for _, id := range All() {
		plain := NewPolicy(cfg, id, config.ProviderFile{})
		if a, b := plain.ResolveFormat(format.ModeAudioOnly, format.Auto()), plain.ResolveFormat(format.ModeAudioOnly, format.Best()); a != b || a != "bestaudio/best" {
			t.Fatalf("%s: expected bestaudio/best for both, got %q and %q", id, a, b)
		}
		custom := NewPolicy(cfg, id, config.ProviderFile{FormatAudio: "ba[ext=m4a]"})
		if a, b := custom.ResolveFormat(format.ModeAudioOnly, format.Auto()), custom.ResolveFormat(format.ModeAudioOnly, format.Best()); a != b || a != "ba[ext=m4a]" {
			t.Fatalf("%s: expected provider audio default for both, got %q and %q", id, a, b)
		}
	}
}

func TestResolveFormatOriginal(t *testing.T) {
	cfg := testConfig(t)
	yt := NewPolicy(cfg, YouTube, config.ProviderFile{FormatVideo: "best[height<=1080]"})
	if got := yt.ResolveFormat(format.ModeOriginal, format.Best()); got != "bestvideo*+bestaudio/best" {
		t.Fatalf("best must ignore provider default, got %q", got)
	}
	if got := yt.ResolveFormat(format.ModeOriginal, format.Auto()); got != "best[height<=1080]" {
		t.Fatalf("auto must use provider default, got %q", got)
	}

	globalDefaults := map[Identity]string{
		YouTube:   "bestvideo*+bestaudio/best",
		Instagram: "best",
		TikTok:    "best",
		Facebook:  "best",
		X:         "best",
	}
	for id, want := range globalDefaults {
		p := NewPolicy(cfg, id, config.ProviderFile{})
		if got := p.ResolveFormat(format.ModeOriginal, format.Auto()); got != want {
			t.Fatalf("%s: expected global default %q, got %q", id, want, got)
		}
	}

	unlisted := NewPolicy(cfg, Identity("vimeo"), config.ProviderFile{})
	if got := unlisted.ResolveFormat(format.ModeOriginal, format.Auto()); got != "best" {
		t.Fatalf("unlisted provider should fall back to best, got %q", got)
	}
}

func TestBaseEngineOptionsMergesExtra(t *testing.T) {
	dir := t.TempDir()
	path := config.ProviderPath(dir, "instagram")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("extra:\n  socket_timeout: 90\n  geo_bypass: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	p, err := Load(cfg, Instagram)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	opts := p.BaseEngineOptions()
	if opts.SocketTimeout != 90 {
		t.Fatalf("expected provider extra to override socket timeout, got %d", opts.SocketTimeout)
	}
	if opts.ConcurrentFragments != config.DefaultConcurrentFragments || opts.RestrictFilenames {
		t.Fatalf("unexpected base options: %+v", opts)
	}
	if opts.Extra["geo-bypass"] != true {
		t.Fatalf("expected geo-bypass extra, got %#v", opts.Extra)
	}

	yt, err := Load(cfg, YouTube)
	if err != nil {
		t.Fatal(err)
	}
	if got := yt.BaseEngineOptions().SocketTimeout; got != config.DefaultSocketTimeout {
		t.Fatalf("youtube must not see instagram extras, got timeout %d", got)
	}
}

func TestPlanComposesProviderAndIntent(t *testing.T) {
	cfg := testConfig(t)
	tiktok := NewPolicy(cfg, TikTok, config.ProviderFile{})

	auto, err := format.NewIntent(format.IntentOptions{CodecPreference: "h264+aac"})
	if err != nil {
		t.Fatal(err)
	}
	plan := tiktok.Plan(auto)
	if plan.Expression != "best" || plan.Container != format.ContainerMP4 || len(plan.Steps) != 0 {
		t.Fatalf("unexpected auto video plan: %+v", plan)
	}

	audio, err := format.NewIntent(format.IntentOptions{
		Mode:         format.ModeAudioOnly,
		AudioFormat:  format.AudioOpus,
		AudioBitrate: format.Kbps(128),
	})
	if err != nil {
		t.Fatal(err)
	}
	plan = tiktok.Plan(audio)
	if plan.Expression != "bestaudio/best" || plan.Container != "" {
		t.Fatalf("unexpected audio plan: %+v", plan)
	}
	codec, ok := plan.AudioCodec()
	if !ok || codec != format.AudioOpus {
		t.Fatalf("expected opus extraction, got %q %v", codec, ok)
	}

	manualAudio, err := format.NewIntent(format.IntentOptions{
		Mode:             format.ModeAudioOnly,
		QualityMode:      format.QualityModeManual,
		ManualExpression: "140",
		AudioFormat:      format.AudioBest,
	})
	if err != nil {
		t.Fatal(err)
	}
	plan = tiktok.Plan(manualAudio)
	if plan.Expression != "140" || len(plan.Steps) != 0 {
		t.Fatalf("unexpected manual audio plan: %+v", plan)
	}
	if _, ok := plan.AudioCodec(); ok {
		t.Fatalf("best audio format must not select a codec")
	}
}

func TestPlanAutoUsesProviderDefaultAndBestStaysUnconstrained(t *testing.T) {
	cfg := testConfig(t)
	youtube := NewPolicy(cfg, YouTube, config.ProviderFile{})

	auto, err := format.NewIntent(format.IntentOptions{CodecPreference: "vp9+opus"})
	if err != nil {
		t.Fatal(err)
	}
	plan := youtube.Plan(auto)
	if plan.Expression != "bestvideo*+bestaudio/best" || plan.Container != format.ContainerWebM {
		t.Fatalf("unexpected auto plan: %+v", plan)
	}

	best, err := format.NewIntent(format.IntentOptions{QualityMode: format.QualityModeBest})
	if err != nil {
		t.Fatal(err)
	}
	plan = youtube.Plan(best)
	if plan.Expression != format.ExprBestVideoAudio || plan.Container != format.ContainerMP4 {
		t.Fatalf("unexpected best plan: %+v", plan)
	}

	custom := NewPolicy(cfg, YouTube, config.ProviderFile{FormatVideo: "bv*[height<=480]+ba/b"})
	plan = custom.Plan(auto)
	if plan.Expression != "bv*[height<=480]+ba/b" {
		t.Fatalf("provider file default should drive auto, got %q", plan.Expression)
	}
}
