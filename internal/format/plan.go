package format

import "fmt"

type StepKind string

const (
	StepExtractAudio   StepKind = "extract_audio"
	StepEmbedThumbnail StepKind = "embed_thumbnail"
	StepWriteMetadata  StepKind = "write_metadata"
)

// PostProcessStep is one transformation applied after the raw fetch. Codec and
// BitrateKbps are only set for StepExtractAudio.
type PostProcessStep struct {
	Kind        StepKind
	Codec       AudioFormat
	BitrateKbps int
}

func (s PostProcessStep) String() string {
	if s.Kind == StepExtractAudio {
		return fmt.Sprintf("%s(%s@%dk)", s.Kind, s.Codec, s.BitrateKbps)
	}
	return string(s.Kind)
}

// SelectionPlan is everything the engine needs to know about what to fetch
// and how to transform it.
type SelectionPlan struct {
	Mode       Mode
	Expression string
	// Container is empty for audio plans.
	Container ContainerPolicy
	Steps     []PostProcessStep
}

// AudioCodec returns the extraction codec, if the plan transcodes audio.
func (p SelectionPlan) AudioCodec() (AudioFormat, bool) {
	for _, s := range p.Steps {
		if s.Kind == StepExtractAudio {
			return s.Codec, true
		}
	}
	return "", false
}
