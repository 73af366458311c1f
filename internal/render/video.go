// SPDX-License-Identifier: MIT
package render

import (
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"

	applog "vizor/internal/log"
)

// VideoSink encodes raw RGBA frames into a video file by piping them to
// an ffmpeg child process. The source audio file is muxed in alongside
// the generated frames so the output plays back in sync.
type VideoSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// VideoSinkOptions configures the ffmpeg invocation.
type VideoSinkOptions struct {
	FFmpegPath string // Binary to invoke; empty means "ffmpeg" on PATH.
	AudioFile  string // Source audio muxed into the output.
	OutputFile string
	Width      int // Physical frame width in pixels.
	Height     int // Physical frame height in pixels.
	FrameRate  int
}

// NewVideoSink starts ffmpeg reading raw rgba frames on stdin. The
// returned sink must be finished with Finish even on error paths, or
// the child process leaks.
func NewVideoSink(opts VideoSinkOptions) (*VideoSink, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("video sink: frame dimensions must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.FrameRate <= 0 {
		return nil, fmt.Errorf("video sink: frame rate must be positive, got %d", opts.FrameRate)
	}
	ffmpeg := opts.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	args := []string{
		"-i", opts.AudioFile,
		"-thread_queue_size", "32",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", strconv.Itoa(opts.FrameRate),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-y", opts.OutputFile,
	}

	cmd := exec.Command(ffmpeg, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("video sink: stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("video sink: starting %s: %w", ffmpeg, err)
	}
	applog.Infof("VideoSink: encoding %dx%d @ %d fps to %s", opts.Width, opts.Height, opts.FrameRate, opts.OutputFile)

	return &VideoSink{cmd: cmd, stdin: stdin}, nil
}

// SendFrame writes one full RGBA frame to the encoder. The image must
// match the dimensions the sink was created with; ffmpeg's rawvideo
// demuxer has no framing, so a short write would shear every following
// frame.
func (vs *VideoSink) SendFrame(img *image.RGBA) error {
	n := 0
	for n < len(img.Pix) {
		i, err := vs.stdin.Write(img.Pix[n:])
		n += i
		if err != nil {
			return fmt.Errorf("video sink: writing frame: %w", err)
		}
	}
	return nil
}

// Finish closes the frame stream and waits for ffmpeg to flush the
// container.
func (vs *VideoSink) Finish() error {
	vs.stdin.Close()
	return vs.cmd.Wait()
}
