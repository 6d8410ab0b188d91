package session

import "time"

// SessionState is the actor's lifecycle phase. Exactly one value holds at any
// time; only the actor goroutine mutates it.
type SessionState int

const (
	StateIdle SessionState = iota
	StateProcessing
	StateSpeaking
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionConfig is the persona and study context established by
// start_session. Only the section fields change afterward, via
// update_section.
type SessionConfig struct {
	VoiceID        string
	PersonaName    string
	PersonaStyle   string
	Topic          string
	SectionTitle   string
	SectionContext string
}

// Config carries the session tunables the gateway resolves from the
// environment.
type Config struct {
	HistoryWindow     int           // recent turns included in a generation snapshot
	AudioChunkBytes   int           // outbound audio slice size
	MaxReplyTokens    int           // generation budget
	Temperature       float64       // generation temperature
	MaxReplyChars     int           // spoken-delivery cap on generated text
	AudioFormat       string        // synthesis output encoding
	SampleRate        int           // synthesis sample rate
	StreamSynthesis   bool          // sentence-pipelined chunks vs one whole audio frame
	MaxAudioBytes     int           // inbound per-utterance audio cap
	MaxTextChars      int           // inbound typed utterance cap
	UtteranceRate     int           // utterance submissions per second; negative disables
	UtteranceByteRate int64         // utterance payload bytes per second; negative disables
	UtteranceBurst    int           // seconds of budget a session may accumulate
	GatewayTimeout    time.Duration // per-call bound on recognition, generation, synthesis
	IdleTimeout       time.Duration // close the session when the client goes quiet
	PingInterval      time.Duration
	WriteTimeout      time.Duration
	OutboundQueue     int // per-lane outbound buffer depth
}

func (c Config) withDefaults() Config {
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 8
	}
	if c.AudioChunkBytes <= 0 {
		c.AudioChunkBytes = 32 * 1024
	}
	if c.MaxReplyTokens <= 0 {
		c.MaxReplyTokens = 256
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.MaxReplyChars <= 0 {
		c.MaxReplyChars = 1200
	}
	if c.AudioFormat == "" {
		c.AudioFormat = "pcm16"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.MaxAudioBytes <= 0 {
		c.MaxAudioBytes = 2 << 20
	}
	if c.MaxTextChars <= 0 {
		c.MaxTextChars = 4000
	}
	if c.UtteranceRate == 0 {
		c.UtteranceRate = 4
	}
	if c.UtteranceByteRate == 0 {
		c.UtteranceByteRate = 4 << 20
	}
	if c.UtteranceBurst <= 0 {
		c.UtteranceBurst = 2
	}
	if c.GatewayTimeout <= 0 {
		c.GatewayTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 5 * time.Minute
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 20 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.OutboundQueue <= 0 {
		c.OutboundQueue = 256
	}
	return c
}
