package caption

// AsrWord is a single transcribed word with its spoken interval.
type AsrWord struct {
	Text       string  `json:"text"`
	StartSec   float64 `json:"startSec"`
	EndSec     float64 `json:"endSec"`
	Confidence float64 `json:"confidence"`
}

// BBox locates recognized caption text inside a frame. All values are ratios
// of the frame width/height, so a centered caption has CenterX = 0.5.
type BBox struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Empty reports whether the box has no area.
func (b BBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Left returns the left edge ratio.
func (b BBox) Left() float64 { return b.CenterX - b.Width/2 }

// Right returns the right edge ratio.
func (b BBox) Right() float64 { return b.CenterX + b.Width/2 }

// Top returns the top edge ratio.
func (b BBox) Top() float64 { return b.CenterY - b.Height/2 }

// Bottom returns the bottom edge ratio.
func (b BBox) Bottom() float64 { return b.CenterY + b.Height/2 }

// Area returns width × height.
func (b BBox) Area() float64 { return b.Width * b.Height }

// OcrObservation is the OCR reading of one sampled frame. An empty RawText
// means no caption was recognized (or OCR failed for that frame).
type OcrObservation struct {
	FrameIndex int     `json:"frameIndex"`
	TimeSec    float64 `json:"timeSec"`
	RawText    string  `json:"rawText"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// HasText reports whether any caption text was recognized on the frame.
func (o OcrObservation) HasText() bool {
	for _, r := range o.RawText {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}

// Frame is one decoded video frame written to disk for OCR.
type Frame struct {
	Index   int     `json:"index"`
	TimeSec float64 `json:"timeSec"`
	Path    string  `json:"path"`
}

// Recognition is the OCR reading of one frame. Text lines are separated by
// newlines; an empty Text means no caption was found.
type Recognition struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// Observation pairs a frame with its recognition.
func (r Recognition) Observation(f Frame) OcrObservation {
	return OcrObservation{
		FrameIndex: f.Index,
		TimeSec:    f.TimeSec,
		RawText:    r.Text,
		Confidence: r.Confidence,
		BBox:       r.BBox,
	}
}
