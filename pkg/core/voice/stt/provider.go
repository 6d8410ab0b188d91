// Package stt provides the speech-recognition gateway for the tutoring
// session: one utterance of audio in, transcript text out.
package stt

import "context"

// Recognizer is the interface for speech-to-text services.
type Recognizer interface {
	// Name returns the provider identifier.
	Name() string

	// Recognize transcribes one complete utterance.
	Recognize(ctx context.Context, audio []byte, opts Options) (*Transcript, error)

	// RecognizeStream transcribes one utterance, delivering interim
	// hypotheses as they form. The final delta carries IsFinal=true and the
	// channel closes after it. Recognizers without interim support emit a
	// single final delta.
	RecognizeStream(ctx context.Context, audio []byte, opts Options) (<-chan Delta, error)
}

// Options configures recognition.
type Options struct {
	Model      string // Provider-specific model id
	Language   string // ISO language code (default: "en")
	Encoding   string // Audio encoding hint (linear16, opus, mp3, ...)
	SampleRate int    // Audio sample rate in Hz
}

// Transcript is the result of recognizing one utterance. An empty Text means
// the audio contained no recognizable speech; callers treat that as "nothing
// to do", not as an error.
type Transcript struct {
	Text       string
	Confidence float64
	Duration   float64 // Audio duration in seconds
}

// Delta is an incremental recognition update.
type Delta struct {
	Text    string
	IsFinal bool
	Err     error // Set on the terminal delta when recognition failed
}
