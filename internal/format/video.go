package format

import "fmt"

const (
	ExprBestVideoAudio = "bv*+ba/best"
	ExprBestAudio      = "bestaudio/best"
)

// BuildVideoFormat resolves an Original-mode intent into a selection
// expression and a merge container. Auto gets the same unconstrained
// selection as Best; the provider's Auto expression is applied by
// provider.Policy.Plan, not here.
func BuildVideoFormat(intent Intent, providerDefault string) (string, ContainerPolicy) {
	container := ContainerFor(intent.CodecPreference(), intent.Container())

	switch intent.QualityMode() {
	case QualityModeManual:
		return intent.ManualExpression(), container
	case QualityModePreset:
		return presetExpression(intent), container
	default:
		return ExprBestVideoAudio, container
	}
}

func presetExpression(intent Intent) string {
	tuple := preferenceFor(intent.CodecPreference())
	vregex := codecRegex[tuple.video]
	aregex := codecRegex[tuple.audio]
	if intent.AllowHEVC() {
		vregex = fmt.Sprintf("(%s|%s)", vregex, codecRegex["hevc"])
	}
	h := intent.PresetResolution()
	return fmt.Sprintf(
		"bv*[vcodec~='%s'][height<=%d]+ba[acodec~='%s']/b[height<=%d]",
		vregex, h, aregex, h,
	)
}
