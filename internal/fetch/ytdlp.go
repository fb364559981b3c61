// Package fetch wraps the yt-dlp binary for metadata probes and transfers.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"vidcourier/internal/core"
)

// YTDLP shells out to the yt-dlp binary. Probe and Fetch honor ctx deadlines
// by killing the child process, so timeouts are enforced from the outside.
type YTDLP struct {
	binary string
	logger *zap.Logger
}

func NewYTDLP(binary string, logger *zap.Logger) *YTDLP {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YTDLP{binary: binary, logger: logger}
}

// probeInfo is the subset of yt-dlp's --dump-json output the pipeline needs.
type probeInfo struct {
	Title          string `json:"title"`
	Filesize       int64  `json:"filesize"`
	FilesizeApprox int64  `json:"filesize_approx"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// Probe fetches metadata without transferring media. The size estimate comes
// from filesize with filesize_approx as a fallback; SizeKnown is false when
// the extractor reports neither.
func (y *YTDLP) Probe(ctx context.Context, url, format string) (*core.ProbeResult, error) {
	args := []string{
		"--dump-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--restrict-filenames",
		"-f", format,
		url,
	}

	out, err := y.run(ctx, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, core.ErrProbeTimeout
		}
		return nil, fmt.Errorf("%w: %s", core.ErrProbeFailed, firstErrorLine(err))
	}

	var info probeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("%w: decode metadata: %v", core.ErrProbeFailed, err)
	}

	return probeResultFromInfo(&info), nil
}

// Fetch transfers the media into destDir and returns the final local path,
// as printed by yt-dlp after any post-processing moves.
func (y *YTDLP) Fetch(ctx context.Context, url, format, destDir string) (string, error) {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--restrict-filenames",
		"--no-simulate",
		"--print", "after_move:filepath",
		"-f", format,
		"-o", destDir + "/%(title)s.%(ext)s",
		url,
	}

	out, err := y.run(ctx, args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", core.ErrTransferTimeout
		}
		return "", fmt.Errorf("%w: %s", core.ErrTransferFailed, firstErrorLine(err))
	}

	path := lastLine(string(out))
	if path == "" {
		return "", fmt.Errorf("%w: no output path reported", core.ErrTransferFailed)
	}
	return path, nil
}

func (y *YTDLP) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, y.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	y.logger.Debug("Running yt-dlp", zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("yt-dlp: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func probeResultFromInfo(info *probeInfo) *core.ProbeResult {
	size := info.Filesize
	if size == 0 {
		size = info.FilesizeApprox
	}
	return &core.ProbeResult{
		Title:     info.Title,
		Size:      size,
		SizeKnown: size > 0,
		Width:     info.Width,
		Height:    info.Height,
	}
}

// firstErrorLine reduces yt-dlp's multi-line stderr to the leading ERROR
// line, which is what users get to see.
func firstErrorLine(err error) string {
	for _, line := range strings.Split(err.Error(), "\n") {
		if i := strings.Index(line, "ERROR:"); i >= 0 {
			return strings.TrimSpace(line[i:])
		}
	}
	return strings.SplitN(err.Error(), "\n", 2)[0]
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
