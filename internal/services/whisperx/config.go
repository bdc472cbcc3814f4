package whisperx

// Config holds the transcription settings taken from the [transcription]
// section.
type Config struct {
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote". pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// Language is any code language.ToISO2 understands; empty auto-detects.
	Language string
	// WorkDir is the parent of each per-run scratch dir; empty uses os.TempDir.
	WorkDir       string
	KeepArtifacts bool
}

const (
	DefaultModel      = "large-v3"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
)
