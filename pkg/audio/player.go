package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/auroramusic/aurora/pkg/logging"
	"github.com/auroramusic/aurora/pkg/player"
)

const (
	sampleRate     = 48000
	channels       = 2
	frameSize      = 960                           // 20ms at 48kHz
	pcmFrameBytes  = frameSize * channels * 2      // s16le
	pcmFrameInt16s = frameSize * channels
	opusBitrate    = 128000
	readTimeout    = 5 * time.Second
	sendTimeout    = 100 * time.Millisecond
)

// Player streams PCM from a Source to one guild's Discord voice
// connection as Opus frames. It implements the playback transport: Play
// hands back a buffered single-shot channel that receives exactly one
// value when streaming ends, however it ends.
type Player struct {
	vc  *discordgo.VoiceConnection
	log logging.Logger

	mu      sync.RWMutex
	playing bool
	paused  bool
	cancel  context.CancelFunc
}

// NewPlayer wraps an established voice connection.
func NewPlayer(vc *discordgo.VoiceConnection, log logging.Logger) *Player {
	return &Player{
		vc:  vc,
		log: log.With(logging.String("component", "voice")),
	}
}

// IsPlaying reports whether audio is actively streaming.
func (p *Player) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing && !p.paused
}

// IsPaused reports whether a stream is suspended mid-track.
func (p *Player) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing && p.paused
}

// Play starts streaming src. The returned channel is buffered and receives
// exactly one value when the stream ends; a nil value means the stream
// finished or was stopped, non-nil means it died.
func (p *Player) Play(src player.Source) (<-chan error, error) {
	reader, ok := src.(io.Reader)
	if !ok {
		return nil, fmt.Errorf("source does not expose PCM: %T", src)
	}

	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return nil, fmt.Errorf("already playing")
	}

	encoder, err := gopus.NewEncoder(sampleRate, channels, gopus.Audio)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("failed to create opus encoder: %v", err)
	}
	encoder.SetBitrate(opusBitrate)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.playing = true
	p.paused = false
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := p.stream(ctx, reader, encoder)
		p.mu.Lock()
		p.playing = false
		p.paused = false
		p.mu.Unlock()
		done <- err
	}()
	return done, nil
}

// Stop cancels the active stream. The completion channel still fires.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Pause suspends frame delivery without tearing down ffmpeg.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return fmt.Errorf("nothing to pause")
	}
	p.paused = true
	return nil
}

// Resume continues a paused stream.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return fmt.Errorf("nothing to resume")
	}
	p.paused = false
	return nil
}

func (p *Player) stream(ctx context.Context, reader io.Reader, encoder *gopus.Encoder) error {
	if err := p.waitForVoiceReady(ctx); err != nil {
		return err
	}

	p.vc.Speaking(true)
	defer p.vc.Speaking(false)

	buffer := make([]byte, pcmFrameBytes)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if p.IsPaused() {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(20 * time.Millisecond):
			}
			continue
		}

		n, err := p.readFrame(ctx, reader, buffer)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("error reading PCM data: %v", err)
		}
		if n == 0 {
			if err != nil {
				return nil
			}
			continue
		}
		lastFrame := err != nil

		samples := bytesToInt16(buffer[:n])
		if len(samples) != pcmFrameInt16s {
			// Pad the final partial frame to a full 20ms.
			padded := make([]int16, pcmFrameInt16s)
			copy(padded, samples)
			samples = padded
		}

		opusData, err := encoder.Encode(samples, frameSize, pcmFrameBytes)
		if err != nil {
			p.log.Warn("opus encoding error", logging.Error(err))
			continue
		}

		select {
		case p.vc.OpusSend <- opusData:
		case <-ctx.Done():
			return nil
		case <-time.After(sendTimeout):
			p.log.Warn("opus send channel blocked, skipping frame")
		}

		if lastFrame {
			return nil
		}
	}
}

// readFrame reads one PCM frame with a timeout so a wedged ffmpeg process
// fails the stream instead of hanging it.
func (p *Player) readFrame(ctx context.Context, reader io.Reader, buffer []byte) (int, error) {
	type readResult struct {
		n   int
		err error
	}
	results := make(chan readResult, 1)

	go func() {
		n, err := io.ReadFull(reader, buffer)
		results <- readResult{n, err}
	}()

	select {
	case res := <-results:
		return res.n, res.err
	case <-ctx.Done():
		return 0, io.EOF
	case <-time.After(readTimeout):
		return 0, fmt.Errorf("timeout reading PCM data")
	}
}

func (p *Player) waitForVoiceReady(ctx context.Context) error {
	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for voice connection")
		case <-ticker.C:
			if p.vc.Ready {
				return nil
			}
		}
	}
}

func bytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}
