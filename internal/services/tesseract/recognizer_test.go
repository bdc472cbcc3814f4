package tesseract

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestCombineOrdersLinesAndNormalizesBox(t *testing.T) {
	lines := []Line{
		{Text: "second  line", Confidence: 0.8, Box: image.Rect(300, 1300, 780, 1360)},
		{Text: "FIRST LINE", Confidence: 0.9, Box: image.Rect(240, 1220, 840, 1280)},
	}
	rec := Combine(lines, 1080, 1920, Config{})
	if rec.Text != "FIRST LINE\nsecond line" {
		t.Fatalf("Text = %q", rec.Text)
	}
	want := (0.9*10 + 0.8*11) / 21
	if math.Abs(rec.Confidence-want) > 1e-9 {
		t.Fatalf("Confidence = %v, want %v", rec.Confidence, want)
	}
	if math.Abs(rec.BBox.CenterX-0.5) > 1e-9 {
		t.Fatalf("CenterX = %v, want 0.5", rec.BBox.CenterX)
	}
	if math.Abs(rec.BBox.Height-140.0/1920) > 1e-9 {
		t.Fatalf("Height = %v", rec.BBox.Height)
	}
}

func TestCombineFiltersNoise(t *testing.T) {
	lines := []Line{
		{Text: "@@ ~~", Confidence: 0.99, Box: image.Rect(0, 0, 50, 20)},
		{Text: "blurry", Confidence: 0.2, Box: image.Rect(100, 1200, 300, 1250)},
		{Text: "@handle", Confidence: 0.95, Box: image.Rect(40, 60, 300, 100)},
		{Text: "Caption", Confidence: 0.9, Box: image.Rect(400, 1200, 680, 1260)},
	}
	rec := Combine(lines, 1080, 1920, Config{MinLineConfidence: 0.5, RegionTop: 0.3, RegionBottom: 0.9})
	if rec.Text != "Caption" {
		t.Fatalf("Text = %q, want only the caption line", rec.Text)
	}
}

func TestCombineEmpty(t *testing.T) {
	rec := Combine(nil, 1080, 1920, Config{})
	if rec.Text != "" || !rec.BBox.Empty() {
		t.Fatalf("expected empty recognition, got %+v", rec)
	}
	if rec := Combine([]Line{{Text: "x", Confidence: 1, Box: image.Rect(0, 0, 1, 1)}}, 0, 0, Config{}); rec.Text != "" {
		t.Fatal("zero-size frame must yield no text")
	}
}

func TestImageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	img.Set(1, 1, color.White)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	w, h, err := imageSize(path)
	if err != nil {
		t.Fatalf("imageSize: %v", err)
	}
	if w != 64 || h != 36 {
		t.Fatalf("size = %dx%d, want 64x36", w, h)
	}
}

func TestNewMapsLanguagesToTraineddata(t *testing.T) {
	r := New(Config{Languages: []string{"en", "French", "eng"}})
	if len(r.cfg.Languages) != 2 || r.cfg.Languages[0] != "eng" || r.cfg.Languages[1] != "fra" {
		t.Fatalf("unexpected languages %v", r.cfg.Languages)
	}
	if def := New(Config{}); len(def.cfg.Languages) != 1 || def.cfg.Languages[0] != "eng" {
		t.Fatalf("expected eng default, got %v", def.cfg.Languages)
	}
}
