// Package thumb extracts still-frame thumbnails from local video files.
package thumb

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// FFmpeg grabs a single frame one second in, which skips most black intro
// frames while staying cheap.
type FFmpeg struct {
	binary string
	logger *zap.Logger
}

func NewFFmpeg(binary string, logger *zap.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, logger: logger}
}

// ExtractThumbnail writes a JPEG next to the video and returns its path.
func (f *FFmpeg) ExtractThumbnail(ctx context.Context, videoPath string) (string, error) {
	thumbPath := videoPath + ".jpg"

	cmd := exec.CommandContext(ctx, f.binary,
		"-y",
		"-ss", "00:00:01",
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		thumbPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("Extracting thumbnail", zap.String("video", videoPath))

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %v: %s", err, lastStderrLine(&stderr))
	}

	if _, err := os.Stat(thumbPath); err != nil {
		return "", fmt.Errorf("thumbnail not produced: %w", err)
	}
	return thumbPath, nil
}

func lastStderrLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
