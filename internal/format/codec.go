package format

// Regex fragments matched against yt-dlp's vcodec/acodec fields with ~=.
var codecRegex = map[string]string{
	"h264": "(avc1|h264)",
	"hevc": "(hvc1|hev1|hevc|h265)",
	"av1":  "(av01|av1)",
	"vp9":  "(vp09|vp9)",
	"aac":  "(aac|mp4a)",
	"opus": "opus",
}

type codecTuple struct {
	video     string
	audio     string
	container ContainerPolicy
}

var codecPreference = map[string]codecTuple{
	"h264+aac": {video: "h264", audio: "aac", container: ContainerMP4},
	"av1+opus": {video: "av1", audio: "opus", container: ContainerWebM},
	"vp9+opus": {video: "vp9", audio: "opus", container: ContainerWebM},
}

var defaultCodecTuple = codecPreference["h264+aac"]

// CodecPreferences lists the recognized preference keys in display order.
func CodecPreferences() []string {
	return []string{"h264+aac", "av1+opus", "vp9+opus"}
}

func preferenceFor(pref string) codecTuple {
	if t, ok := codecPreference[pref]; ok {
		return t
	}
	return defaultCodecTuple
}

// ContainerFor picks the merge container: explicit mp4/webm wins, otherwise
// the codec preference table decides.
func ContainerFor(pref string, policy ContainerPolicy) ContainerPolicy {
	if policy == ContainerMP4 || policy == ContainerWebM {
		return policy
	}
	return preferenceFor(pref).container
}
