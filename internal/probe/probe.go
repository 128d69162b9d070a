// Package probe extracts container metadata from video files by
// invoking ffprobe as a subprocess. Only metadata is read; the server
// never decodes frames.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"media-share/internal/apperr"
	"media-share/internal/logging"
)

// Info is the normalized analysis result for one media file.
type Info struct {
	// Container is the normalized container format tag, e.g. "mp4".
	Container string
	Width     int
	Height    int
}

// Prober runs ffprobe with a bounded execution time.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

// New creates a Prober using the given ffprobe binary.
func New(ffprobePath string, timeout time.Duration) *Prober {
	return &Prober{ffprobePath: ffprobePath, timeout: timeout}
}

// ffprobeOutput mirrors the JSON ffprobe emits with -show_error,
// -show_format and -show_streams.
type ffprobeOutput struct {
	Format *struct {
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Error *struct {
		Code   int    `json:"code"`
		String string `json:"string"`
	} `json:"error"`
}

// Probe analyzes the file and returns its container tag and intrinsic
// dimensions. A structured analyzer error surfaces as
// MediaAnalysisFailed carrying the analyzer's message; anything else
// (missing binary, timeout, malformed output) surfaces as an unknown
// analysis failure.
func (p *Prober) Probe(ctx context.Context, file string) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_error",
		"-show_format",
		"-show_streams",
		file,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, apperr.MediaAnalysisFailed("analysis timed out", false, ctx.Err())
	}

	info, err := parseOutput(stdout.Bytes())
	if err != nil {
		if runErr != nil {
			logging.Debug("ffprobe failed for %s: %v, stderr: %s", file, runErr, stderr.String())
			return nil, apperr.MediaAnalysisFailed("", false, fmt.Errorf("ffprobe: %v: %w", runErr, err))
		}
		return nil, err
	}
	return info, nil
}

// parseOutput interprets the ffprobe JSON document.
func parseOutput(data []byte) (*Info, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode analyzer output: %w", err)
	}

	if out.Error != nil {
		return nil, apperr.MediaAnalysisFailed(out.Error.String, true, nil)
	}
	if out.Format == nil {
		return nil, apperr.MediaAnalysisFailed("analyzer returned no format data", true, nil)
	}

	info := &Info{Container: normalizeContainer(out.Format.FormatName)}

	for _, stream := range out.Streams {
		if stream.CodecType == "video" && stream.Width > 0 && stream.Height > 0 {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, apperr.MediaAnalysisFailed("no video stream with dimensions found", true, nil)
	}
	return info, nil
}

// normalizeContainer reduces ffprobe's comma-separated demuxer name
// (e.g. "mov,mp4,m4a,3gp,3g2,mj2") to a single format tag.
func normalizeContainer(formatName string) string {
	parts := strings.Split(formatName, ",")
	for _, part := range parts {
		if part == "mp4" {
			return "mp4"
		}
	}
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}
