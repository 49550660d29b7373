// Package vad detects voice activity with an RMS energy gate.
//
// Audio is analyzed in 20 ms frames advanced every 10 ms. Speech starts once
// the frame level stays at or above the on threshold for the attack time, and
// ends once it stays at or below the off threshold for the release time.
// Levels between the thresholds hold the current state.
package vad

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/teslashibe/go-hearth/pkg/speech"
)

// Tunable defaults.
const (
	FrameMS = 20 // Frame size for RMS calculation (ms)
	HopMS   = 10 // Hop size between updates (ms)

	DefaultOnThreshold  = -35.0 // dBFS level to trigger speech on
	DefaultOffThreshold = -45.0 // dBFS level to trigger speech off
	DefaultAttack       = 40 * time.Millisecond
	DefaultRelease      = 250 * time.Millisecond
	DefaultMaxUtterance = 30 * time.Second
)

// Config holds detector tuning.
type Config struct {
	SampleRate   int
	OnThreshold  float64
	OffThreshold float64
	Attack       time.Duration
	Release      time.Duration

	// MaxUtterance force-ends speech that runs longer than this.
	MaxUtterance time.Duration
}

// Option configures a Detector.
type Option func(*Config)

// WithThresholds sets the on and off levels in dBFS.
func WithThresholds(on, off float64) Option {
	return func(c *Config) {
		c.OnThreshold = on
		c.OffThreshold = off
	}
}

// WithTiming sets attack and release times.
func WithTiming(attack, release time.Duration) Option {
	return func(c *Config) {
		c.Attack = attack
		c.Release = release
	}
}

// WithMaxUtterance caps utterance length.
func WithMaxUtterance(d time.Duration) Option {
	return func(c *Config) { c.MaxUtterance = d }
}

// WithSampleRate sets the input sample rate.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		SampleRate:   speech.SampleRate,
		OnThreshold:  DefaultOnThreshold,
		OffThreshold: DefaultOffThreshold,
		Attack:       DefaultAttack,
		Release:      DefaultRelease,
		MaxUtterance: DefaultMaxUtterance,
	}
}

// Detector is a speech.VAD.
type Detector struct {
	cfg Config
}

// New creates a detector.
func New(opts ...Option) *Detector {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = speech.SampleRate
	}
	if cfg.OffThreshold > cfg.OnThreshold {
		cfg.OffThreshold = cfg.OnThreshold
	}
	return &Detector{cfg: cfg}
}

// Load returns a detector with default tuning.
func Load() (speech.VAD, error) {
	return New(), nil
}

// Config returns the detector's tuning.
func (d *Detector) Config() Config { return d.cfg }

// NewStream implements speech.VAD.
func (d *Detector) NewStream() speech.VADStream {
	hop := d.cfg.SampleRate * HopMS / 1000
	return &Stream{
		cfg:         d.cfg,
		hopSize:     hop,
		frameSize:   d.cfg.SampleRate * FrameMS / 1000,
		attackHops:  max(1, int(d.cfg.Attack/(HopMS*time.Millisecond))),
		releaseHops: max(1, int(d.cfg.Release/(HopMS*time.Millisecond))),
		maxHops:     int(d.cfg.MaxUtterance / (HopMS * time.Millisecond)),
		samples:     make([]float64, 0, hop*4),
	}
}

// Stream tracks detector state for one audio source. It is not safe for
// concurrent use.
type Stream struct {
	cfg         Config
	hopSize     int
	frameSize   int
	attackHops  int
	releaseHops int
	maxHops     int

	// analysis window, normalized to [-1, 1]
	samples []float64
	// partial hop awaiting more bytes
	pending []byte

	on       bool
	above    int
	below    int
	hops     int
	preroll  [][]byte
	utter    []byte
	lastDBFS float64
}

// Level returns the most recent frame level in dBFS.
func (s *Stream) Level() float64 { return s.lastDBFS }

// Active reports whether speech is in progress.
func (s *Stream) Active() bool { return s.on }

// Push implements speech.VADStream.
func (s *Stream) Push(pcm []byte) []speech.VADEvent {
	var events []speech.VADEvent
	hopBytes := s.hopSize * 2
	for len(pcm) > 0 {
		n := min(hopBytes-len(s.pending), len(pcm))
		s.pending = append(s.pending, pcm[:n]...)
		pcm = pcm[n:]
		if len(s.pending) < hopBytes {
			break
		}
		hop := s.pending
		s.pending = nil
		for i := 0; i+1 < len(hop); i += 2 {
			s.samples = append(s.samples, float64(int16(binary.LittleEndian.Uint16(hop[i:])))/32768.0)
		}
		if ev, ok := s.processHop(hop); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush implements speech.VADStream.
func (s *Stream) Flush() []speech.VADEvent {
	if !s.on {
		return nil
	}
	return []speech.VADEvent{s.end()}
}

func (s *Stream) processHop(hop []byte) (speech.VADEvent, bool) {
	if len(s.samples) > s.frameSize {
		s.samples = s.samples[len(s.samples)-s.frameSize:]
	}
	db := rmsDBFS(s.samples)
	s.lastDBFS = db

	if s.on {
		s.utter = append(s.utter, hop...)
		s.hops++
	} else {
		s.preroll = append(s.preroll, hop)
		if len(s.preroll) > s.attackHops {
			s.preroll = s.preroll[1:]
		}
	}

	switch {
	case db >= s.cfg.OnThreshold:
		s.above++
		s.below = 0
		if !s.on && s.above >= s.attackHops {
			s.on = true
			s.hops = 0
			for _, p := range s.preroll {
				s.utter = append(s.utter, p...)
			}
			s.preroll = nil
			return speech.VADEvent{Type: speech.SpeechStart}, true
		}
	case db <= s.cfg.OffThreshold:
		s.below++
		s.above = 0
		if s.on && s.below >= s.releaseHops {
			return s.end(), true
		}
	}
	if s.on && s.maxHops > 0 && s.hops >= s.maxHops {
		return s.end(), true
	}
	return speech.VADEvent{}, false
}

func (s *Stream) end() speech.VADEvent {
	ev := speech.VADEvent{Type: speech.SpeechEnd, Audio: s.utter}
	s.on = false
	s.utter = nil
	s.hops = 0
	s.above = 0
	s.below = 0
	return ev
}

func rmsDBFS(samples []float64) float64 {
	if len(samples) == 0 {
		return -100.0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	rms := math.Sqrt(sum/float64(len(samples)) + 1e-12)
	return 20.0 * math.Log10(rms+1e-12)
}
