package quality

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"captionsync/internal/textutil"
)

func scoreRhythm(v *view, th Thresholds) (float64, map[string]float64) {
	r := th.Rhythm
	scores := make([]float64, 0, len(v.pages))
	rates := make([]float64, 0, len(v.pages))
	outOfRange := 0
	for _, p := range v.pages {
		seconds := math.Max(p.durationMs(), 1) / 1000
		wps := float64(len(p.Words)) / seconds
		rates = append(rates, wps)
		s := bandScore(wps, r.AbsoluteMinWPS, r.IdealMinWPS, r.IdealMaxWPS, r.AbsoluteMaxWPS)
		if s < 1 {
			outOfRange++
		}
		scores = append(scores, s)
	}

	score := mean(scores)
	fastRatio := 0.0
	if v.pacing != nil {
		fastRatio = v.pacing.FastChunkRatio()
		score *= 1 - r.FastChunkPenalty*fastRatio
	}
	return score, map[string]float64{
		"meanWordsPerSecond": mean(rates),
		"outOfRangePages":    float64(outOfRange),
		"fastChunkRatio":     fastRatio,
	}
}

func scoreDisplayTime(v *view, th Thresholds) (float64, map[string]float64) {
	d := th.DisplayTime
	scores := make([]float64, 0, len(v.pages))
	durations := make([]float64, 0, len(v.pages))
	flashes, tooShort, tooLong := 0, 0, 0
	for _, p := range v.pages {
		ms := p.durationMs()
		durations = append(durations, ms)
		switch {
		case ms < d.FlashMs:
			flashes++
			scores = append(scores, 0)
		case ms < d.MinMs:
			tooShort++
			scores = append(scores, (ms-d.FlashMs)/(d.MinMs-d.FlashMs))
		case ms > d.MaxMs:
			tooLong++
			scores = append(scores, d.MaxMs/ms)
		default:
			scores = append(scores, 1)
		}
	}
	return mean(scores), map[string]float64{
		"meanDurationMs": mean(durations),
		"flashPages":     float64(flashes),
		"shortPages":     float64(tooShort),
		"longPages":      float64(tooLong),
	}
}

func scoreCoverage(v *view, th Thresholds) (float64, map[string]float64) {
	captioned := 0.0
	for i, seg := range v.segments {
		end := seg.EndSec
		if i+1 < len(v.segments) {
			end = math.Min(end, v.segments[i+1].StartSec)
		}
		if v.durationSec > 0 {
			end = math.Min(end, v.durationSec)
		}
		if end > seg.StartSec {
			captioned += end - seg.StartSec
		}
	}
	coverage := 0.0
	if v.durationSec > 0 {
		coverage = math.Min(1, captioned/v.durationSec)
	}
	return math.Min(1, coverage/th.TargetCoverage), map[string]float64{
		"coverageRatio": coverage,
		"captionedSec":  captioned,
		"durationSec":   v.durationSec,
	}
}

func scoreDensity(v *view, th Thresholds) (float64, map[string]float64) {
	overflow, maxLines, maxChars := 0, 0, 0
	for _, p := range v.pages {
		ls := lines(p.Text)
		over := len(ls) > th.Density.MaxLines
		maxLines = max(maxLines, len(ls))
		for _, line := range ls {
			n := len([]rune(line))
			maxChars = max(maxChars, n)
			if n > th.Density.MaxCharsPerLine {
				over = true
			}
		}
		if over {
			overflow++
		}
	}
	return 1 - ratio(overflow, len(v.pages)), map[string]float64{
		"overflowPages":   float64(overflow),
		"maxLines":        float64(maxLines),
		"maxCharsPerLine": float64(maxChars),
	}
}

var (
	repeatedPunct    = regexp.MustCompile(`[!?,;:]{2,}|[^.]\.\.(?:[^.]|$)|^\.\.(?:[^.]|$)`)
	spaceBeforePunct = regexp.MustCompile(`\s[,.!?;:]`)
)

func terminalStyle(text string) string {
	trimmed := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == ')'
	})
	if trimmed == "" {
		return "none"
	}
	switch last := []rune(trimmed)[len([]rune(trimmed))-1]; {
	case last == '.' || last == '…':
		return "period"
	case last == '!':
		return "exclamation"
	case last == '?':
		return "question"
	case last == ',' || last == ';' || last == ':':
		return "comma"
	default:
		return "none"
	}
}

func scorePunctuation(v *view, _ Thresholds) (float64, map[string]float64) {
	repeated, spaced := 0, 0
	flagged := make([]bool, len(v.pages))
	// Questions and exclamations are content, not style. Consistency only
	// compares pages that end plainly or with a period.
	plainCounts := map[string]int{}
	for i, p := range v.pages {
		if repeatedPunct.MatchString(p.Text) {
			repeated++
			flagged[i] = true
		}
		if spaceBeforePunct.MatchString(p.Text) {
			spaced++
			flagged[i] = true
		}
		if style := terminalStyle(p.Text); style == "period" || style == "none" {
			plainCounts[style]++
		}
	}

	minority := ""
	if plainCounts["period"] > 0 && plainCounts["none"] > 0 {
		minority = "period"
		if plainCounts["none"] < plainCounts["period"] {
			minority = "none"
		}
	}
	inconsistent := 0
	if minority != "" {
		for i, p := range v.pages {
			if terminalStyle(p.Text) == minority {
				inconsistent++
				flagged[i] = true
			}
		}
	}

	issues := 0
	for _, f := range flagged {
		if f {
			issues++
		}
	}
	return 1 - ratio(issues, len(v.pages)), map[string]float64{
		"repeatedPunctuation":     float64(repeated),
		"spaceBeforePunctuation":  float64(spaced),
		"inconsistentTerminators": float64(inconsistent),
		"pagesWithIssues":         float64(issues),
	}
}

// casers are stateful, so each scoring pass builds its own.
type casers struct {
	upper, lower, title cases.Caser
}

func newCasers() casers {
	return casers{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
		title: cases.Title(language.Und),
	}
}

// caseStyle classifies the letter casing of a caption page.
func (c casers) caseStyle(text string) string {
	letters := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
	letters = strings.Join(strings.Fields(letters), " ")
	if letters == "" {
		return ""
	}
	switch {
	case c.upper.String(letters) == letters:
		return "upper"
	case c.lower.String(letters) == letters:
		return "lower"
	}
	first := []rune(letters)[0]
	rest := string([]rune(letters)[1:])
	switch {
	case unicode.IsUpper(first) && c.lower.String(rest) == rest:
		return "sentence"
	case c.title.String(letters) == letters:
		return "title"
	default:
		return "mixed"
	}
}

func scoreCapitalization(v *view, _ Thresholds) (float64, map[string]float64) {
	c := newCasers()
	counts := map[string]int{}
	classified := 0
	for _, p := range v.pages {
		if style := c.caseStyle(p.Text); style != "" {
			counts[style]++
			classified++
		}
	}
	if classified == 0 {
		return 1, map[string]float64{"dominantShare": 1}
	}
	dominant := 0
	for _, style := range []string{"upper", "lower", "sentence", "title"} {
		dominant = max(dominant, counts[style])
	}
	share := ratio(dominant, classified)
	return share, map[string]float64{
		"dominantShare": share,
		"upperPages":    float64(counts["upper"]),
		"lowerPages":    float64(counts["lower"]),
		"sentencePages": float64(counts["sentence"]),
		"titlePages":    float64(counts["title"]),
		"mixedPages":    float64(counts["mixed"]),
	}
}

const (
	repeatSimilarity = 0.9
	overlapShare     = 0.6
)

func scoreRedundancy(v *view, _ Thresholds) (float64, map[string]float64) {
	if len(v.pages) < 2 {
		return 1, map[string]float64{"repeatedPages": 0, "overlappingPages": 0}
	}
	repeated, overlapping := 0, 0
	prev := textutil.NewFingerprint(v.pages[0].Text)
	for i := 1; i < len(v.pages); i++ {
		cur := textutil.NewFingerprint(v.pages[i].Text)
		switch {
		case textutil.CosineSimilarity(prev, cur) >= repeatSimilarity:
			repeated++
		case textutil.WordOverlap(v.pages[i-1].Text, v.pages[i].Text) >= overlapShare:
			overlapping++
		}
		prev = cur
	}
	return 1 - ratio(repeated+overlapping, len(v.pages)-1), map[string]float64{
		"repeatedPages":    float64(repeated),
		"overlappingPages": float64(overlapping),
	}
}

// danglingWords should not end a caption page when the sentence continues.
var danglingWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {},
	"and": {}, "but": {}, "or": {}, "nor": {}, "so": {}, "yet": {}, "because": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "from": {}, "by": {}, "into": {},
	"my": {}, "your": {}, "our": {}, "their": {}, "his": {}, "her": {}, "its": {},
}

func scoreSegmentation(v *view, _ Thresholds) (float64, map[string]float64) {
	dangling, orphans := 0, 0
	last := len(v.pages) - 1
	for i, p := range v.pages {
		if i == last || len(p.Words) == 0 {
			continue
		}
		fields := strings.Fields(p.Text)
		tail := fields[len(fields)-1]
		if textutil.EndsSentence(tail) || strings.HasSuffix(tail, ",") {
			continue
		}
		if _, ok := danglingWords[p.Words[len(p.Words)-1]]; ok {
			dangling++
			continue
		}
		if len(p.Words) == 1 {
			orphans++
		}
	}
	return 1 - ratio(dangling+orphans, len(v.pages)), map[string]float64{
		"danglingBreaks": float64(dangling),
		"orphanWords":    float64(orphans),
	}
}
