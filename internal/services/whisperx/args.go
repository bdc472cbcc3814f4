package whisperx

import "captionsync/internal/language"

// decodeFlags are fixed WhisperX settings. The low VAD thresholds keep short
// interjections, which matter for caption timing.
var decodeFlags = []string{
	"--batch_size", "4",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "5",
	"--temperature", "0.0",
	"--output_format", "json",
}

// extractArgs has ffmpeg downmix one audio stream to 16kHz mono PCM.
func extractArgs(source, dest, mapSpec string) []string {
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", source,
		"-map", mapSpec,
		"-vn", "-sn", "-dn",
		"-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le",
		dest,
	}
}

// buildArgs is the uvx command line that runs WhisperX on audio and writes
// <outputDir>/<audio base>.json.
func (s *Service) buildArgs(audio, outputDir string) []string {
	var args []string
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args, "whisperx", audio, "--model", s.Model(), "--output_dir", outputDir)
	args = append(args, decodeFlags...)

	vad := s.cfg.VADMethod
	if vad == "" {
		vad = VADMethodSilero
	}
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if lang := language.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDAEnabled {
		return append(args, "--device", "cuda")
	}
	return append(args, "--device", "cpu", "--compute_type", "float32")
}
