package audio

import (
	"strconv"
	"strings"

	"captionsync/internal/language"
	"captionsync/internal/media/ffprobe"
)

// Selection identifies the audio stream to transcribe.
type Selection struct {
	Stream ffprobe.Stream
	// Ordinal is the stream's position among audio streams, as used by
	// ffmpeg's "0:a:N" specifier. -1 when the container has no audio.
	Ordinal int
}

// MapSpec returns the ffmpeg -map argument for the selection.
func (s Selection) MapSpec() string {
	if s.Ordinal < 0 {
		return "0:a:0"
	}
	return "0:a:" + strconv.Itoa(s.Ordinal)
}

// Label summarizes the selected stream for logs.
func (s Selection) Label() string {
	if s.Ordinal < 0 {
		return "none"
	}
	parts := make([]string, 0, 4)
	if lang := tag(s.Stream.Tags, "language"); lang != "" {
		parts = append(parts, lang)
	}
	if s.Stream.CodecName != "" {
		parts = append(parts, s.Stream.CodecName)
	}
	if ch := channelCount(s.Stream); ch > 0 {
		parts = append(parts, strconv.Itoa(ch)+"ch")
	}
	if title := tag(s.Stream.Tags, "title"); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio " + strconv.Itoa(s.Ordinal)
	}
	return strings.Join(parts, " | ")
}

// Select picks the main dialogue track. Tracks in the wanted language win,
// commentary and described-video tracks lose, and the default flag breaks
// remaining ties ahead of container order. An empty want skips the
// language preference.
func Select(streams []ffprobe.Stream, want string) Selection {
	want = language.ToISO2(want)
	best := Selection{Ordinal: -1}
	bestScore := 0.0
	ordinal := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		score := scoreStream(stream, want) - float64(ordinal)*0.1
		if best.Ordinal < 0 || score > bestScore {
			best = Selection{Stream: stream, Ordinal: ordinal}
			bestScore = score
		}
		ordinal++
	}
	return best
}

func scoreStream(stream ffprobe.Stream, want string) float64 {
	score := 0.0
	if want != "" && language.ToISO2(tag(stream.Tags, "language")) == want {
		score += 1000
	}
	if isSecondary(stream) {
		score -= 500
	}
	if stream.Disposition["default"] == 1 {
		score += 50
	}
	if channelCount(stream) >= 2 {
		score += 10
	}
	return score
}

var secondaryKeywords = []string{"commentary", "director", "descriptive", "audio description", "described"}

// isSecondary reports tracks that carry something other than the main mix.
func isSecondary(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		return true
	}
	title := strings.ToLower(tag(stream.Tags, "title"))
	if title == "" {
		return false
	}
	for _, kw := range secondaryKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case layout == "mono":
		return 1
	case layout == "stereo":
		return 2
	case layout == "":
		return 0
	}
	// "5.1(side)" and similar: sum the numeric parts.
	base, _, _ := strings.Cut(layout, "(")
	total := 0
	for part := range strings.SplitSeq(base, ".") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			total += n
		}
	}
	return total
}

func tag(tags map[string]string, key string) string {
	if v, ok := tags[key]; ok {
		return strings.TrimSpace(v)
	}
	if v, ok := tags[strings.ToUpper(key)]; ok {
		return strings.TrimSpace(v)
	}
	return ""
}
