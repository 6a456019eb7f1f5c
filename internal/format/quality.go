package format

import "strings"

type qualityKind int

const (
	qualityAuto qualityKind = iota
	qualityBest
	qualityExplicit
)

// Quality is either Auto, Best or an explicit selection expression that is
// passed to the engine untouched.
type Quality struct {
	kind qualityKind
	expr string
}

func Auto() Quality { return Quality{kind: qualityAuto} }
func Best() Quality { return Quality{kind: qualityBest} }

// Explicit wraps expr; an empty expression is treated as Auto.
func Explicit(expr string) Quality {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Auto()
	}
	return Quality{kind: qualityExplicit, expr: expr}
}

// ParseQuality reads user input: "" and "auto" are Auto, "best" is Best,
// anything else is an explicit expression.
func ParseQuality(raw string) Quality {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "auto":
		return Auto()
	case "best":
		return Best()
	default:
		return Explicit(s)
	}
}

func (q Quality) IsAuto() bool { return q.kind == qualityAuto }
func (q Quality) IsBest() bool { return q.kind == qualityBest }

// Expression returns the explicit expression and whether there is one.
func (q Quality) Expression() (string, bool) {
	return q.expr, q.kind == qualityExplicit
}

func (q Quality) String() string {
	switch q.kind {
	case qualityBest:
		return "best"
	case qualityExplicit:
		return q.expr
	default:
		return "auto"
	}
}
