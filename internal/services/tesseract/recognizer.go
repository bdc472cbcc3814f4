package tesseract

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for DecodeConfig
	_ "image/png"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"

	"captionsync/internal/caption"
	"captionsync/internal/language"
	"captionsync/internal/services"
)

// Config tunes recognition.
type Config struct {
	// Languages are Tesseract traineddata names, e.g. "eng".
	Languages []string
	// MinLineConfidence drops lines Tesseract is less sure of, in [0,1].
	MinLineConfidence float64
	// RegionTop and RegionBottom bound, as frame-height ratios, where caption
	// lines may sit. Zero values mean the full frame.
	RegionTop    float64
	RegionBottom float64
}

// Recognizer implements per-frame OCR. It is safe for concurrent use: each
// call owns its own Tesseract client.
type Recognizer struct {
	cfg Config
}

// New returns a Tesseract recognizer.
func New(cfg Config) *Recognizer {
	cfg.Languages = language.TesseractCodes(cfg.Languages)
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if cfg.RegionBottom <= cfg.RegionTop {
		cfg.RegionTop, cfg.RegionBottom = 0, 1
	}
	return &Recognizer{cfg: cfg}
}

// Name identifies the engine in reports.
func (r *Recognizer) Name() string {
	return "tesseract/" + gosseract.Version()
}

// Recognize reads caption text from one frame image.
func (r *Recognizer) Recognize(ctx context.Context, frame caption.Frame) (caption.Recognition, error) {
	if err := ctx.Err(); err != nil {
		return caption.Recognition{}, err
	}
	width, height, err := imageSize(frame.Path)
	if err != nil {
		return caption.Recognition{}, services.Wrap(services.ErrExternalTool, "ocr", "decode frame", frame.Path, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.cfg.Languages...); err != nil {
		return caption.Recognition{}, services.Wrap(services.ErrConfiguration, "ocr", "tesseract", "set language", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return caption.Recognition{}, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "set page segmentation", err)
	}
	if err := client.SetImage(frame.Path); err != nil {
		return caption.Recognition{}, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", frame.Path, err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return caption.Recognition{}, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", frame.Path, err)
	}

	lines := make([]Line, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, Line{Text: b.Word, Confidence: b.Confidence / 100, Box: b.Box})
	}
	return Combine(lines, width, height, r.cfg), nil
}

// Line is one recognized text line in pixel coordinates.
type Line struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// Combine merges caption lines into one recognition. Lines are kept when
// they contain a letter or digit, meet MinLineConfidence, and are centered
// inside the caption region. Text is ordered top to bottom; confidence is
// the rune-weighted mean; the box is the union normalized to frame size.
func Combine(lines []Line, width, height int, cfg Config) caption.Recognition {
	if width <= 0 || height <= 0 {
		return caption.Recognition{}
	}
	top, bottom := cfg.RegionTop, cfg.RegionBottom
	if bottom <= top {
		top, bottom = 0, 1
	}

	kept := make([]Line, 0, len(lines))
	for _, l := range lines {
		l.Text = strings.Join(strings.Fields(l.Text), " ")
		if !hasAlnum(l.Text) || l.Confidence < cfg.MinLineConfidence || l.Box.Empty() {
			continue
		}
		cy := float64(l.Box.Min.Y+l.Box.Max.Y) / 2 / float64(height)
		if cy < top || cy > bottom {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		return caption.Recognition{}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Box.Min.Y != kept[j].Box.Min.Y {
			return kept[i].Box.Min.Y < kept[j].Box.Min.Y
		}
		return kept[i].Box.Min.X < kept[j].Box.Min.X
	})

	texts := make([]string, len(kept))
	union := kept[0].Box
	weighted, runes := 0.0, 0
	for i, l := range kept {
		texts[i] = l.Text
		union = union.Union(l.Box)
		n := len([]rune(l.Text))
		weighted += l.Confidence * float64(n)
		runes += n
	}
	union = union.Intersect(image.Rect(0, 0, width, height))

	w, h := float64(width), float64(height)
	return caption.Recognition{
		Text:       strings.Join(texts, "\n"),
		Confidence: math.Max(0, math.Min(1, weighted/float64(runes))),
		BBox: caption.BBox{
			CenterX: float64(union.Min.X+union.Max.X) / 2 / w,
			CenterY: float64(union.Min.Y+union.Max.Y) / 2 / h,
			Width:   float64(union.Dx()) / w,
			Height:  float64(union.Dy()) / h,
		},
	}
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
