// Package tts provides the speech-synthesis gateway for the tutoring
// session: reply text in, voiced audio out, whole or streamed.
package tts

import (
	"context"
	"sync"
)

// Synthesizer is the interface for text-to-speech services.
type Synthesizer interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize voices the text and returns the complete audio unit.
	Synthesize(ctx context.Context, text string, opts Options) (*Synthesis, error)

	// SynthesizeStream voices the text, delivering audio as it is generated.
	SynthesizeStream(ctx context.Context, text string, opts Options) (*Stream, error)
}

// Options configures synthesis.
type Options struct {
	Voice      string  // Provider voice identifier
	Format     string  // Output encoding: "pcm16" or "mp3"
	SampleRate int     // Sample rate in Hz
	Speed      float64 // Speed multiplier, 0 means provider default
}

// Synthesis is a complete voiced unit.
type Synthesis struct {
	Audio      []byte
	Format     string
	SampleRate int
}

// Stream carries synthesized audio chunks from producer to consumer.
// The consumer ranges over Chunks() and then checks Err(); the consumer may
// Cancel() early, after which the producer's Push reports false.
type Stream struct {
	chunks    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// NewStream creates a synthesis stream with a small delivery buffer.
func NewStream() *Stream {
	return &Stream{
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

// Chunks returns the channel of audio chunks. It is closed by the producer
// after the last chunk (or after a failure; check Err).
func (s *Stream) Chunks() <-chan []byte {
	return s.chunks
}

// Err reports the producer-side failure, if any. Valid once Chunks is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel tells the producer to stop. Safe to call more than once.
func (s *Stream) Cancel() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Push delivers one chunk. Returns false once the consumer canceled.
func (s *Stream) Push(chunk []byte) bool {
	select {
	case s.chunks <- chunk:
		return true
	case <-s.done:
		return false
	}
}

// Fail records a producer-side error. Call before Finish.
func (s *Stream) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Finish closes the chunk channel. The producer must not Push afterward.
func (s *Stream) Finish() {
	close(s.chunks)
}
