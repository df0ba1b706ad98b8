package assets

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// runFFmpegCommand executes an ffmpeg command and returns its combined
// output on failure.
func runFFmpegCommand(ffmpegPath string, args ...string) error {
	cmd := exec.Command(ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}
	return nil
}

// ConvertToMP4 re-encodes an annotated video to H.264/AAC MP4 so browsers
// can play the uploaded asset. ffmpegExecutable should be the path to the
// ffmpeg binary (e.g., "ffmpeg").
func ConvertToMP4(inputPath, outputPath, ffmpegExecutable string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to ensure output directory: %w", err)
		}
	}

	args := []string{
		"-i", inputPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-pix_fmt", "yuv420p",
		"-y", // Overwrite output files without asking
		outputPath,
	}

	if err := runFFmpegCommand(ffmpegExecutable, args...); err != nil {
		// Remove the potentially incomplete output file.
		os.Remove(outputPath)
		return err
	}
	return nil
}
