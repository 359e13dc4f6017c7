package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/patrickmn/go-cache"

	"github.com/jmylchreest/meditate/internal/model"
)

// ErrPlaybackFailure is returned when a sound cannot be decoded or played.
var ErrPlaybackFailure = errors.New("playback failure")

// speakerLatency is the speaker buffer length.
const speakerLatency = 100 * time.Millisecond

// builtinKey is the cache key of the bundled bell.
const builtinKey = model.BuiltinBell

// Player plays sounds through the system audio device using beep.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Volume control (0.0 to 1.0)
	volume float64

	// Whether speaker has been initialized
	initialized bool

	// Sample rate for the speaker
	sampleRate beep.SampleRate

	// Decoded sounds keyed by path
	cache *cache.Cache
}

// NewPlayer creates a new beep-backed player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		logger:     logger,
		volume:     1.0,
		sampleRate: beep.SampleRate(44100),
		cache:      cache.New(cache.NoExpiration, 0),
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.volume = volume
	p.logger.Debug("volume set", "volume", volume)
}

// GetVolume returns the current volume.
func (p *Player) GetVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play starts playing a sound and returns without waiting for it to finish.
func (p *Player) Play(ref model.SoundRef) error {
	buffer, err := p.buffer(ref)
	if err != nil {
		return err
	}

	speaker.Play(p.streamer(buffer))
	return nil
}

// PlayAndWait plays a sound and blocks until it has finished or ctx ends.
func (p *Player) PlayAndWait(ctx context.Context, ref model.SoundRef) error {
	buffer, err := p.buffer(ref)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(p.streamer(buffer), beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	// The callback fires once the samples are queued; let the device drain.
	timer := time.NewTimer(speakerLatency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Preload decodes a sound into the cache for faster playback.
func (p *Player) Preload(ref model.SoundRef) error {
	_, err := p.buffer(ref)
	if err == nil {
		p.logger.Debug("preloaded sound", "sound", ref.String())
	}
	return err
}

// InvalidateCache removes a specific path from the cache.
func (p *Player) InvalidateCache(path string) {
	p.cache.Delete(path)
}

// ClearCache clears the sound cache.
func (p *Player) ClearCache() {
	p.cache.Flush()
	p.logger.Debug("sound cache cleared")
}

// Close stops all playback and releases resources.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Close()
		p.initialized = false
	}

	p.cache.Flush()
	p.logger.Debug("audio player closed")
}

// buffer returns the decoded sound for ref, decoding it on first use.
func (p *Player) buffer(ref model.SoundRef) (*beep.Buffer, error) {
	key := builtinKey
	if !ref.IsBuiltin() {
		key = ref.Path()
	}

	if cached, ok := p.cache.Get(key); ok {
		return cached.(*beep.Buffer), nil
	}

	var (
		buffer *beep.Buffer
		err    error
	)
	if ref.IsBuiltin() {
		buffer, err = p.decode(io.NopCloser(bytes.NewReader(bellWAV)), ".wav")
	} else {
		buffer, err = p.loadSound(ref.Path())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPlaybackFailure, ref.String(), err)
	}

	p.cache.Set(key, buffer, cache.NoExpiration)
	return buffer, nil
}

// loadSound loads and decodes a sound file into a buffer.
func (p *Player) loadSound(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	return p.decode(f, strings.ToLower(filepath.Ext(path)))
}

// decode reads an encoded stream fully into a buffer. rc is closed.
func (p *Player) decode(rc io.ReadCloser, ext string) (*beep.Buffer, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch ext {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	case ".ogg":
		streamer, format, err = vorbis.Decode(rc)
	case ".mp3":
		streamer, format, err = mp3.Decode(rc)
	default:
		_ = rc.Close()
		return nil, fmt.Errorf("unsupported audio format: %q", ext)
	}

	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	if err := p.ensureInitialized(format.SampleRate); err != nil {
		return nil, err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	return buffer, nil
}

// ensureInitialized initializes the speaker if not already done.
func (p *Player) ensureInitialized(sampleRate beep.SampleRate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	bufferSize := sampleRate.N(speakerLatency)

	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.sampleRate = sampleRate
	p.initialized = true
	p.logger.Debug("speaker initialized", "sample_rate", sampleRate)
	return nil
}

// streamer builds a resampled, volume-adjusted streamer over buffer.
func (p *Player) streamer(buffer *beep.Buffer) beep.Streamer {
	p.mu.Lock()
	volume := p.volume
	sampleRate := p.sampleRate
	p.mu.Unlock()

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())

	if buffer.Format().SampleRate != sampleRate {
		streamer = beep.Resample(4, buffer.Format().SampleRate, sampleRate, streamer)
	}

	if volume < 1.0 {
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     2,
			Volume:   volumeExponent(volume),
			Silent:   volume == 0,
		}
	}

	return streamer
}

// volumeExponent converts a linear gain (0-1) into a base-2 exponent for
// effects.Volume.
func volumeExponent(volume float64) float64 {
	if volume <= 0 {
		return -10
	}
	return math.Log2(volume)
}
