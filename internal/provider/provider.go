// Package provider holds the per-source defaults for the five supported
// content providers. Providers differ only in data; there is one Policy type.
package provider

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrUnresolved = errors.New("provider not recognized")

type Identity string

const (
	YouTube   Identity = "youtube"
	Instagram Identity = "instagram"
	TikTok    Identity = "tiktok"
	Facebook  Identity = "facebook"
	X         Identity = "x"
)

const ExprBestVideoAudio = "bestvideo*+bestaudio/best"

// All lists the supported providers in display order.
func All() []Identity {
	return []Identity{YouTube, Instagram, TikTok, Facebook, X}
}

type descriptor struct {
	id       Identity
	label    string
	color    string
	aliases  []string
	patterns []*regexp.Regexp
}

var descriptors = []descriptor{
	{
		id: YouTube, label: "YOUTUBE", color: "196",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:^|//)youtu\.be/`),
			regexp.MustCompile(`(?i)(?:^|//)(?:www\.|m\.|music\.)?youtube\.com/`),
		},
	},
	{
		id: Instagram, label: "INSTAGRAM", color: "201", aliases: []string{"ig"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:^|//)(?:www\.)?instagram\.com/`),
		},
	},
	{
		id: TikTok, label: "TIKTOK", color: "255",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:^|//)(?:www\.|vm\.|vt\.)?tiktok\.com/`),
		},
	},
	{
		id: Facebook, label: "FACEBOOK", color: "33", aliases: []string{"fb"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:^|//)(?:www\.|m\.)?facebook\.com/`),
			regexp.MustCompile(`(?i)(?:^|//)fb\.watch/`),
		},
	},
	{
		id: X, label: "X / TWITTER", color: "255", aliases: []string{"twitter"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:^|//)(?:www\.)?twitter\.com/`),
			regexp.MustCompile(`(?i)(?:^|//)(?:www\.)?x\.com/`),
		},
	},
}

func describe(id Identity) (descriptor, bool) {
	for _, d := range descriptors {
		if d.id == id {
			return d, true
		}
	}
	return descriptor{}, false
}

// Detect maps a URL to its provider by host pattern.
func Detect(url string) (Identity, error) {
	u := strings.TrimSpace(url)
	for _, d := range descriptors {
		for _, re := range d.patterns {
			if re.MatchString(u) {
				return d.id, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnresolved, u)
}

// ParseIdentity accepts provider names and their short aliases.
func ParseIdentity(raw string) (Identity, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, d := range descriptors {
		if string(d.id) == v {
			return d.id, nil
		}
		for _, a := range d.aliases {
			if a == v {
				return d.id, nil
			}
		}
	}
	return "", fmt.Errorf("%w: unknown provider %q", ErrUnresolved, raw)
}

// Label is the display name; Color is a lipgloss ANSI-256 color code.
func (id Identity) Label() string {
	if d, ok := describe(id); ok {
		return d.label
	}
	return strings.ToUpper(string(id))
}

func (id Identity) Color() string {
	if d, ok := describe(id); ok {
		return d.color
	}
	return "45"
}

// Aliases lists the short command names accepted for id.
func (id Identity) Aliases() []string {
	if d, ok := describe(id); ok {
		return append([]string(nil), d.aliases...)
	}
	return nil
}
