package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"omdl/internal/config"
	"omdl/internal/format"
	"omdl/internal/output"
)

type editorFieldKind int

const (
	editorFieldString editorFieldKind = iota
	editorFieldInt
	editorFieldBool
	editorFieldSelect
)

type editorField struct {
	Key     string
	Label   string
	Help    string
	Kind    editorFieldKind
	Value   string
	Options []string
}

type editorForm struct {
	Title  string
	Fields []editorField
	Index  int
	Input  textinput.Model
	Error  string
	Saving bool
}

type settingsModel struct {
	baseDir string
	form    *editorForm
	width   int
	height  int

	saved     bool
	cancelled bool
}

type settingsSavedMsg struct {
	err error
}

var (
	editorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	editorMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	editorErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	editorPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func runSettingsEdit(args []string) error {
	fs := flag.NewFlagSet("settings edit", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("settings edit requires an interactive terminal (TTY); use settings set key=value instead")
	}

	base := baseDir()
	cfg, err := config.Load(base)
	if err != nil {
		return err
	}
	m := settingsModel{baseDir: base, form: newSettingsForm(cfg, 80)}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("settings edit requires an interactive terminal (TTY)")
		}
		return err
	}
	if fm, ok := finalModel.(settingsModel); ok {
		switch {
		case fm.saved:
			fmt.Printf("updated settings in %s\n", config.LocalPath(base))
		case fm.cancelled:
			fmt.Println("settings unchanged")
		}
	}
	return nil
}

func newSettingsForm(cfg *config.Config, width int) *editorForm {
	styles := []string{output.StyleSimple, output.StyleNerd}
	audioFormats := make([]string, 0, len(format.AudioFormats()))
	for _, f := range format.AudioFormats() {
		audioFormats = append(audioFormats, string(f))
	}
	f := &editorForm{
		Title: "Settings (" + config.LocalPath(cfg.BaseDir) + ")",
		Fields: []editorField{
			{Key: "output_dir", Label: "Output Dir", Help: "Root folder; files land in <output>/<provider>/<uploader>/", Kind: editorFieldString, Value: cfg.String("output_dir", config.DefaultOutputDir)},
			{Key: "log_dir", Label: "Log Dir", Help: "Per-batch JSON logs and report.json", Kind: editorFieldString, Value: cfg.String("log_dir", config.DefaultLogDir)},
			{Key: "cookies_dir", Label: "Cookies Dir", Help: "<provider>.txt files here are passed to yt-dlp", Kind: editorFieldString, Value: cfg.String("cookies_dir", config.DefaultCookiesDir)},
			{Key: "filename_style_video", Label: "Video Filenames", Help: "simple: title only; nerd: adds id and resolution", Kind: editorFieldSelect, Value: cfg.String("filename_style_video", config.DefaultFilenameStyle), Options: styles},
			{Key: "filename_style_audio", Label: "Audio Filenames", Help: "simple: title only; nerd: adds id, codec and bitrate", Kind: editorFieldSelect, Value: cfg.String("filename_style_audio", config.DefaultFilenameStyle), Options: styles},
			{Key: "restrict_filenames", Label: "Restrict Filenames", Help: "ASCII-only names without spaces", Kind: editorFieldBool, Value: yn(cfg.Bool("restrict_filenames", false))},
			{Key: "concurrent_fragment_downloads", Label: "Fragments", Help: "Parallel fragment downloads per item", Kind: editorFieldInt, Value: strconv.Itoa(cfg.Int("concurrent_fragment_downloads", config.DefaultConcurrentFragments))},
			{Key: "socket_timeout", Label: "Socket Timeout", Help: "Seconds", Kind: editorFieldInt, Value: strconv.Itoa(cfg.Int("socket_timeout", config.DefaultSocketTimeout))},
			{Key: "video.quality", Label: "Video Quality", Help: "auto follows the provider default; preset caps the height", Kind: editorFieldSelect, Value: cfg.String("video.quality", config.DefaultVideoQuality), Options: []string{"auto", "best", "preset"}},
			{Key: "video.preset_resolution", Label: "Preset Resolution", Help: "Used when quality is preset", Kind: editorFieldSelect, Value: cfg.String("video.preset_resolution", config.DefaultPresetResolution), Options: []string{"144p", "240p", "360p", "480p", "720p", "1080p"}},
			{Key: "video.prefer_codec", Label: "Codec Preference", Help: "Video+audio codec pair for presets", Kind: editorFieldSelect, Value: cfg.String("video.prefer_codec", config.DefaultPreferCodec), Options: format.CodecPreferences()},
			{Key: "video.allow_h265", Label: "Allow H.265", Help: "Accept HEVC streams in presets", Kind: editorFieldBool, Value: yn(cfg.Bool("video.allow_h265", false))},
			{Key: "video.container", Label: "Container", Help: "auto picks from the codec pair", Kind: editorFieldSelect, Value: cfg.String("video.container", config.DefaultContainer), Options: []string{"auto", "mp4", "webm"}},
			{Key: "audio.format", Label: "Audio Format", Help: "best keeps the source audio untouched", Kind: editorFieldSelect, Value: cfg.String("audio.format", config.DefaultAudioFormat), Options: audioFormats},
			{Key: "audio.bitrate", Label: "Audio Bitrate", Help: "best, or kbps between 64 and 320", Kind: editorFieldString, Value: cfg.String("audio.bitrate", config.DefaultAudioBitrate)},
			{Key: "audio.embed_thumbnail", Label: "Embed Thumbnail", Help: "Embed cover art into extracted audio", Kind: editorFieldBool, Value: yn(cfg.Bool("audio.embed_thumbnail", true))},
		},
	}

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1024
	input.Width = min(max(width-8, 20), 120)
	f.Input = input
	f.loadFieldIntoInput()
	f.Input.Focus()
	return f
}

func (m settingsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.form != nil {
			m.form.Input.Width = min(max(m.width-8, 20), 120)
		}
		return m, nil
	case settingsSavedMsg:
		if msg.err != nil {
			m.form.Error = msg.err.Error()
			m.form.Saving = false
			return m, nil
		}
		m.saved = true
		return m, tea.Quit
	case tea.KeyMsg:
		return m.updateForm(msg)
	}
	return m, nil
}

func (m settingsModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil || m.form.Saving {
		return m, nil
	}

	key := strings.ToLower(msg.String())
	switch key {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "shift+tab":
		m.form.commitInput()
		if m.form.Index > 0 {
			m.form.Index--
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case "down", "tab":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 {
			m.form.Index++
		}
		m.form.loadFieldIntoInput()
		return m, nil
	case " ", "space", "right", "l":
		switch m.form.currentField().Kind {
		case editorFieldBool:
			m.form.toggleBoolField()
			return m, nil
		case editorFieldSelect:
			m.form.stepSelectOption(1)
			return m, nil
		}
	case "left", "h":
		switch m.form.currentField().Kind {
		case editorFieldBool:
			m.form.toggleBoolField()
			return m, nil
		case editorFieldSelect:
			m.form.stepSelectOption(-1)
			return m, nil
		}
	case "y", "n":
		if m.form.currentField().Kind == editorFieldBool {
			m.form.setBoolField(key == "y")
			return m, nil
		}
	case "enter", "ctrl+s":
		m.form.commitInput()
		if m.form.Index < len(m.form.Fields)-1 && key != "ctrl+s" {
			m.form.Index++
			m.form.loadFieldIntoInput()
			return m, nil
		}
		patch, err := m.form.toPatch()
		if err != nil {
			m.form.Error = err.Error()
			return m, nil
		}
		m.form.Error = ""
		m.form.Saving = true
		return m, saveSettingsCmd(m.baseDir, patch)
	}

	kind := m.form.currentField().Kind
	if kind == editorFieldBool || kind == editorFieldSelect {
		return m, nil
	}
	var cmd tea.Cmd
	m.form.Input, cmd = m.form.Input.Update(msg)
	m.form.Fields[m.form.Index].Value = m.form.Input.Value()
	return m, cmd
}

func (m settingsModel) View() string {
	if m.form == nil {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = 100
	}
	header := editorTitleStyle.Render(m.form.Title)
	hints := editorMutedStyle.Render("tab/shift+tab or up/down: move | left/right/space: change | y/n: set yes/no | enter: next/save | ctrl+s: save | esc: cancel")

	lines := make([]string, 0, len(m.form.Fields))
	for i, f := range m.form.Fields {
		prefix := "  "
		if i == m.form.Index {
			prefix = "> "
		}
		display := strings.TrimSpace(f.Value)
		if f.Kind == editorFieldBool {
			if v, _ := config.ParseBool(display); v {
				display = "yes"
			} else {
				display = "no"
			}
		}
		if display == "" {
			display = editorMutedStyle.Render("(empty)")
		}
		if f.Kind == editorFieldSelect {
			display = "[" + display + "]"
		}
		lines = append(lines, ansi.Truncate(fmt.Sprintf("%s%s: %s", prefix, f.Label, display), max(width-6, 20), "…"))
	}

	curr := m.form.currentField()
	body := strings.Join(lines, "\n") + fmt.Sprintf("\n\n%s\n", curr.Label)
	if strings.TrimSpace(curr.Help) != "" {
		body += editorMutedStyle.Render(curr.Help) + "\n"
	}
	body += m.form.Input.View()
	if m.form.Saving {
		body += editorMutedStyle.Render("\nSaving...")
	}
	if strings.TrimSpace(m.form.Error) != "" {
		body += "\n" + editorErrorStyle.Render(m.form.Error)
	}
	panel := editorPanelStyle.Width(max(width-2, 40)).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}

func saveSettingsCmd(baseDir string, patch map[string]any) tea.Cmd {
	return func() tea.Msg {
		return settingsSavedMsg{err: config.SaveLocal(baseDir, patch)}
	}
}

func (f *editorForm) currentField() editorField {
	if len(f.Fields) == 0 {
		return editorField{}
	}
	f.Index = min(max(f.Index, 0), len(f.Fields)-1)
	return f.Fields[f.Index]
}

func (f *editorForm) commitInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
}

func (f *editorForm) loadFieldIntoInput() {
	if f == nil || len(f.Fields) == 0 {
		return
	}
	f.Input.SetValue(f.Fields[f.Index].Value)
	f.Input.CursorEnd()
}

func (f *editorForm) toggleBoolField() {
	curr := f.currentField()
	if curr.Kind != editorFieldBool {
		return
	}
	v, _ := config.ParseBool(curr.Value)
	f.setBoolField(!v)
}

func (f *editorForm) setBoolField(v bool) {
	if f == nil || len(f.Fields) == 0 || f.Fields[f.Index].Kind != editorFieldBool {
		return
	}
	f.Fields[f.Index].Value = yn(v)
	f.loadFieldIntoInput()
}

func (f *editorForm) stepSelectOption(delta int) {
	curr := f.currentField()
	if curr.Kind != editorFieldSelect || len(curr.Options) == 0 {
		return
	}
	pos := 0
	for i, opt := range curr.Options {
		if strings.EqualFold(opt, strings.TrimSpace(curr.Value)) {
			pos = i
			break
		}
	}
	n := len(curr.Options)
	pos = ((pos+delta)%n + n) % n
	f.Fields[f.Index].Value = curr.Options[pos]
	f.loadFieldIntoInput()
}

// toPatch validates every field and returns the nested local.yaml patch.
// Empty text fields are left out so they keep their current value.
func (f *editorForm) toPatch() (map[string]any, error) {
	if f == nil {
		return nil, errors.New("internal form error")
	}
	patch := map[string]any{}
	for _, field := range f.Fields {
		v := strings.TrimSpace(field.Value)
		label := strings.ToLower(field.Label)
		var value any
		switch field.Kind {
		case editorFieldString:
			if v == "" {
				continue
			}
			value = v
		case editorFieldInt:
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%s must be an integer >= 1", label)
			}
			value = n
		case editorFieldBool:
			b, ok := config.ParseBool(v)
			if !ok {
				return nil, fmt.Errorf("%s must be y or n", label)
			}
			value = b
		case editorFieldSelect:
			matched := ""
			for _, opt := range field.Options {
				if strings.EqualFold(opt, v) {
					matched = opt
					break
				}
			}
			if matched == "" {
				return nil, fmt.Errorf("%s has invalid value", label)
			}
			value = matched
		}
		patch = config.DeepMerge(patch, nestedPatch(field.Key, value))
	}
	return patch, nil
}

func nestedPatch(key string, value any) map[string]any {
	parts := strings.Split(key, ".")
	leaf := value
	for i := len(parts) - 1; i >= 0; i-- {
		leaf = map[string]any{parts[i]: leaf}
	}
	return leaf.(map[string]any)
}

func yn(v bool) string {
	if v {
		return "y"
	}
	return "n"
}
