package language

import "strings"

type entry struct {
	code2     string   // ISO 639-1 (2-letter)
	code3     string   // ISO 639-2 primary (3-letter)
	alt3      string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	tesseract string   // traineddata name when it differs from code3
	display   string   // Human-readable name
	words     []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "", "English", []string{"english"}},
	{"es", "spa", "", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "", "French", []string{"french"}},
	{"de", "deu", "ger", "", "German", []string{"german"}},
	{"it", "ita", "", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "chi_sim", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "", "Finnish", []string{"finnish"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if i := strings.IndexAny(code, "-_"); i > 0 && len(code[:i]) <= 3 {
		code = code[:i]
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code, regional tag ("en-US"), or
// word to ISO 639-1. Unknown 2-letter codes pass through; anything else
// unrecognized returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// TesseractCode maps a language to its Tesseract traineddata name. Names that
// already carry a script suffix ("chi_tra") and unknown values pass through.
func TesseractCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || strings.Contains(code, "_") {
		return code
	}
	if e := lookup(code); e != nil {
		if e.tesseract != "" {
			return e.tesseract
		}
		return e.code3
	}
	return code
}

// TesseractCodes maps and deduplicates a language list, keeping order.
func TesseractCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		mapped := TesseractCode(c)
		if mapped == "" {
			continue
		}
		if _, ok := seen[mapped]; ok {
			continue
		}
		seen[mapped] = struct{}{}
		out = append(out, mapped)
	}
	return out
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
