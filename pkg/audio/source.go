// Package audio provides the ffmpeg-backed stream sources and the Discord
// voice transport that plays them.
package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/player"
)

// Stream is a live ffmpeg process decoding a remote stream into 48kHz
// stereo signed 16-bit PCM. Construction starts the process immediately so
// prefetched streams are already buffering when playback begins.
type Stream struct {
	url    string
	cmd    *exec.Cmd
	stdout io.ReadCloser

	mu      sync.Mutex
	cleaned bool
}

// Read returns decoded PCM bytes.
func (s *Stream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Cleanup kills the ffmpeg process and reaps it. Safe to call more than
// once.
func (s *Stream) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleaned {
		return
	}
	s.cleaned = true

	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	if s.stdout != nil {
		s.stdout.Close()
	}
	if s.cmd != nil {
		s.cmd.Wait()
	}
}

// Factory constructs ffmpeg-backed streams.
type Factory struct {
	ffmpegPath string
	log        logging.Logger
}

// NewFactory creates a stream factory using the given ffmpeg binary, or
// "ffmpeg" from PATH when empty.
func NewFactory(ffmpegPath string, log logging.Logger) *Factory {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Factory{
		ffmpegPath: ffmpegPath,
		log:        log.With(logging.String("component", "audio")),
	}
}

// Construct starts an ffmpeg process decoding url at the given volume,
// seeking to startAt first when non-zero. ctx only bounds construction;
// the process lives until Cleanup.
func (f *Factory) Construct(ctx context.Context, url string, volumePercent int, startAt time.Duration) (player.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(f.ffmpegPath, buildArgs(url, volumePercent, startAt)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %v", err)
	}
	go drainStderr(stderr)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %v", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %v", err)
	}

	f.log.Debug("ffmpeg started",
		logging.String("url", url),
		logging.Int("volume", volumePercent),
		logging.Duration("start_at", startAt))

	return &Stream{url: url, cmd: cmd, stdout: stdout}, nil
}

// buildArgs assembles the ffmpeg argument list. The seek flag goes before
// -i so ffmpeg seeks on the input instead of decoding up to the offset.
func buildArgs(url string, volumePercent int, startAt time.Duration) []string {
	args := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	}
	if startAt > 0 {
		args = append(args, "-ss", strconv.FormatFloat(startAt.Seconds(), 'f', 3, 64))
	}
	args = append(args,
		"-i", url,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
	)
	if volumePercent > 0 && volumePercent != 100 {
		args = append(args, "-af",
			fmt.Sprintf("volume=%.2f", float64(volumePercent)/100))
	}
	args = append(args, "-bufsize", "64k", "-")
	return args
}

func drainStderr(stderr io.ReadCloser) {
	defer stderr.Close()
	buffer := make([]byte, 1024)
	for {
		if _, err := stderr.Read(buffer); err != nil {
			return
		}
	}
}
