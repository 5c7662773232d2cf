package variant

import "strconv"

// BuildArgs renders the transcoder argument list for one variant. The result
// is passed to exec as-is; nothing in it is shell-interpreted.
func BuildArgs(spec PresetSpec, input, output string, extra ...string) []string {
	args := []string{"-hide_banner", "-loglevel", "info"}
	if spec.LowDelay.NoBuffer {
		args = append(args, "-fflags", "nobuffer")
	}
	if spec.LowDelay.LowDelayFlag {
		args = append(args, "-flags", "low_delay")
	}
	if spec.LowDelay.FastProbe {
		args = append(args, "-probesize", "32", "-analyzeduration", "0")
	}
	args = append(args, "-i", input)

	args = append(args, "-c:v", "libx264", "-preset", spec.SpeedPreset)
	if spec.LowDelay.ZeroLatency {
		args = append(args, "-tune", "zerolatency")
	}
	gop := strconv.Itoa(spec.GOP)
	args = append(args,
		"-crf", strconv.Itoa(spec.CRF),
		"-maxrate", kbit(spec.BitrateKbps),
		"-bufsize", kbit(spec.BufSizeKbit),
		"-g", gop,
		"-keyint_min", gop,
		"-r", strconv.Itoa(spec.FPS),
		"-s", strconv.Itoa(spec.Width)+"x"+strconv.Itoa(spec.Height),
	)
	if spec.DropThresholdMs > 0 {
		args = append(args, "-max_delay", strconv.Itoa(spec.DropThresholdMs*1000))
	}
	if spec.AudioBitrateKbps > 0 {
		args = append(args, "-c:a", "aac", "-b:a", kbit(spec.AudioBitrateKbps), "-ar", "44100")
	} else {
		args = append(args, "-an")
	}
	args = append(args, extra...)
	return append(args, "-f", "flv", output)
}

func kbit(n int) string { return strconv.Itoa(n) + "k" }
