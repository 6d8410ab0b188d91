// Package config resolves the gateway's runtime configuration from the
// environment. Every knob has a TUTOR_-prefixed variable; upstream API keys
// also fall back to their conventional unprefixed names.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted by TUTOR_STT_PROVIDER and TUTOR_TTS_PROVIDER.
const (
	STTDeepgram = "deepgram"
	STTCartesia = "cartesia"

	TTSElevenLabs = "elevenlabs"
	TTSCartesia   = "cartesia"
)

type Config struct {
	Addr string

	// If true, client identity may be derived from proxy headers like
	// X-Forwarded-For. Only enable behind a trusted proxy or LB.
	TrustProxyHeaders bool

	CORSAllowedOrigins map[string]struct{} // empty => CORS disabled

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	// Per-client HTTP rate limit.
	LimitRPS   float64
	LimitBurst int

	// Live voice sessions (/v1/live).
	LiveMaxSessions           int
	LiveHistoryWindow         int
	LiveAudioChunkBytes       int
	LiveMaxReplyTokens        int
	LiveTemperature           float64
	LiveMaxReplyChars         int
	LiveAudioFormat           string
	LiveSampleRate            int
	LiveStreamSynthesis       bool
	LiveMaxAudioBytes         int
	LiveMaxTextChars          int
	LiveUtteranceRate         int
	LiveUtteranceByteRate     int64
	LiveUtteranceBurstSeconds int
	LiveGatewayTimeout        time.Duration
	LiveIdleTimeout           time.Duration
	LiveWSPingInterval        time.Duration
	LiveWSWriteTimeout        time.Duration
	LiveOutboundQueue         int
	LiveHandshakeTimeout      time.Duration

	// Auxiliary text chat (/v1/chat).
	ChatMaxSessions     int
	ChatSessionTTL      time.Duration
	ChatHistoryWindow   int
	ChatMaxMessageChars int

	// Upstream gateways.
	STTProvider       string
	TTSProvider       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	DeepgramAPIKey    string
	DeepgramBaseURL   string
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	CartesiaAPIKey    string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                      envOr("TUTOR_ADDR", ":8080"),
		TrustProxyHeaders:         envBoolOr("TUTOR_TRUST_PROXY_HEADERS", false),
		CORSAllowedOrigins:        make(map[string]struct{}),
		ReadHeaderTimeout:         envDurationOr("TUTOR_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:               envDurationOr("TUTOR_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:       envDurationOr("TUTOR_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		LimitRPS:                  envFloat64Or("TUTOR_RATE_LIMIT_RPS", 5.0),
		LimitBurst:                envIntOr("TUTOR_RATE_LIMIT_BURST", 10),
		LiveMaxSessions:           envIntOr("TUTOR_LIVE_MAX_SESSIONS", 256),
		LiveHistoryWindow:         envIntOr("TUTOR_LIVE_HISTORY_WINDOW", 8),
		LiveAudioChunkBytes:       envIntOr("TUTOR_LIVE_AUDIO_CHUNK_BYTES", 32*1024),
		LiveMaxReplyTokens:        envIntOr("TUTOR_LIVE_MAX_REPLY_TOKENS", 256),
		LiveTemperature:           envFloat64Or("TUTOR_LIVE_TEMPERATURE", 0.7),
		LiveMaxReplyChars:         envIntOr("TUTOR_LIVE_MAX_REPLY_CHARS", 1200),
		LiveAudioFormat:           envOr("TUTOR_LIVE_AUDIO_FORMAT", "pcm16"),
		LiveSampleRate:            envIntOr("TUTOR_LIVE_SAMPLE_RATE", 16000),
		LiveStreamSynthesis:       envBoolOr("TUTOR_LIVE_STREAM_SYNTHESIS", true),
		LiveMaxAudioBytes:         envIntOr("TUTOR_LIVE_MAX_AUDIO_BYTES", 2<<20),
		LiveMaxTextChars:          envIntOr("TUTOR_LIVE_MAX_TEXT_CHARS", 4000),
		LiveUtteranceRate:         envIntOr("TUTOR_LIVE_UTTERANCE_RATE", 4),
		LiveUtteranceByteRate:     envInt64Or("TUTOR_LIVE_UTTERANCE_BPS", 4<<20),
		LiveUtteranceBurstSeconds: envIntOr("TUTOR_LIVE_UTTERANCE_BURST_SECONDS", 2),
		LiveGatewayTimeout:        envDurationOr("TUTOR_LIVE_GATEWAY_TIMEOUT", 30*time.Second),
		LiveIdleTimeout:           envDurationOr("TUTOR_LIVE_IDLE_TIMEOUT", 5*time.Minute),
		LiveWSPingInterval:        envDurationOr("TUTOR_LIVE_WS_PING_INTERVAL", 20*time.Second),
		LiveWSWriteTimeout:        envDurationOr("TUTOR_LIVE_WS_WRITE_TIMEOUT", 5*time.Second),
		LiveOutboundQueue:         envIntOr("TUTOR_LIVE_OUTBOUND_QUEUE", 256),
		LiveHandshakeTimeout:      envDurationOr("TUTOR_LIVE_HANDSHAKE_TIMEOUT", 5*time.Second),
		ChatMaxSessions:           envIntOr("TUTOR_CHAT_MAX_SESSIONS", 1024),
		ChatSessionTTL:            envDurationOr("TUTOR_CHAT_SESSION_TTL", 30*time.Minute),
		ChatHistoryWindow:         envIntOr("TUTOR_CHAT_HISTORY_WINDOW", 8),
		ChatMaxMessageChars:       envIntOr("TUTOR_CHAT_MAX_MESSAGE_CHARS", 4000),
		STTProvider:               strings.ToLower(envOr("TUTOR_STT_PROVIDER", STTDeepgram)),
		TTSProvider:               strings.ToLower(envOr("TUTOR_TTS_PROVIDER", TTSElevenLabs)),
		OpenAIAPIKey:              envOr("TUTOR_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:             envOr("TUTOR_OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:               envOr("TUTOR_OPENAI_MODEL", "gpt-4o-mini"),
		DeepgramAPIKey:            envOr("TUTOR_DEEPGRAM_API_KEY", os.Getenv("DEEPGRAM_API_KEY")),
		DeepgramBaseURL:           envOr("TUTOR_DEEPGRAM_BASE_URL", "https://api.deepgram.com"),
		ElevenLabsAPIKey:          envOr("TUTOR_ELEVENLABS_API_KEY", os.Getenv("ELEVENLABS_API_KEY")),
		ElevenLabsBaseURL:         envOr("TUTOR_ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		CartesiaAPIKey:            envOr("TUTOR_CARTESIA_API_KEY", os.Getenv("CARTESIA_API_KEY")),
	}

	for _, origin := range splitCSV(os.Getenv("TUTOR_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if strings.TrimSpace(cfg.Addr) == "" {
		return Config{}, fmt.Errorf("TUTOR_ADDR must not be empty")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("TUTOR_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.LimitRPS < 0 {
		return Config{}, fmt.Errorf("TUTOR_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.LimitBurst < 0 {
		return Config{}, fmt.Errorf("TUTOR_RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.LiveMaxSessions <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_MAX_SESSIONS must be > 0")
	}
	if cfg.LiveHistoryWindow <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_HISTORY_WINDOW must be > 0")
	}
	if cfg.LiveAudioChunkBytes <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_AUDIO_CHUNK_BYTES must be > 0")
	}
	if cfg.LiveMaxReplyTokens <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_MAX_REPLY_TOKENS must be > 0")
	}
	if cfg.LiveTemperature < 0 || cfg.LiveTemperature > 2 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_TEMPERATURE must be between 0 and 2")
	}
	if cfg.LiveMaxReplyChars <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_MAX_REPLY_CHARS must be > 0")
	}
	if strings.TrimSpace(cfg.LiveAudioFormat) == "" {
		return Config{}, fmt.Errorf("TUTOR_LIVE_AUDIO_FORMAT must not be empty")
	}
	if cfg.LiveSampleRate <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_SAMPLE_RATE must be > 0")
	}
	if cfg.LiveMaxAudioBytes <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_MAX_AUDIO_BYTES must be > 0")
	}
	if cfg.LiveMaxTextChars <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_MAX_TEXT_CHARS must be > 0")
	}
	if (cfg.LiveUtteranceRate > 0 || cfg.LiveUtteranceByteRate > 0) && cfg.LiveUtteranceBurstSeconds < 1 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_UTTERANCE_BURST_SECONDS must be >= 1 when utterance limits are enabled")
	}
	if cfg.LiveGatewayTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_GATEWAY_TIMEOUT must be > 0")
	}
	if cfg.LiveIdleTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_IDLE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSPingInterval <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.LiveWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.LiveOutboundQueue <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_OUTBOUND_QUEUE must be > 0")
	}
	if cfg.LiveHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_LIVE_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.ChatMaxSessions <= 0 {
		return Config{}, fmt.Errorf("TUTOR_CHAT_MAX_SESSIONS must be > 0")
	}
	if cfg.ChatSessionTTL <= 0 {
		return Config{}, fmt.Errorf("TUTOR_CHAT_SESSION_TTL must be > 0")
	}
	if cfg.ChatHistoryWindow <= 0 {
		return Config{}, fmt.Errorf("TUTOR_CHAT_HISTORY_WINDOW must be > 0")
	}
	if cfg.ChatMaxMessageChars <= 0 {
		return Config{}, fmt.Errorf("TUTOR_CHAT_MAX_MESSAGE_CHARS must be > 0")
	}

	switch cfg.STTProvider {
	case STTDeepgram, STTCartesia:
	default:
		return Config{}, fmt.Errorf("TUTOR_STT_PROVIDER must be one of deepgram|cartesia")
	}
	switch cfg.TTSProvider {
	case TTSElevenLabs, TTSCartesia:
	default:
		return Config{}, fmt.Errorf("TUTOR_TTS_PROVIDER must be one of elevenlabs|cartesia")
	}

	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return Config{}, fmt.Errorf("TUTOR_OPENAI_API_KEY (or OPENAI_API_KEY) must be set")
	}
	if cfg.STTProvider == STTDeepgram && strings.TrimSpace(cfg.DeepgramAPIKey) == "" {
		return Config{}, fmt.Errorf("TUTOR_DEEPGRAM_API_KEY (or DEEPGRAM_API_KEY) must be set when TUTOR_STT_PROVIDER=deepgram")
	}
	if cfg.TTSProvider == TTSElevenLabs && strings.TrimSpace(cfg.ElevenLabsAPIKey) == "" {
		return Config{}, fmt.Errorf("TUTOR_ELEVENLABS_API_KEY (or ELEVENLABS_API_KEY) must be set when TUTOR_TTS_PROVIDER=elevenlabs")
	}
	if (cfg.STTProvider == STTCartesia || cfg.TTSProvider == TTSCartesia) && strings.TrimSpace(cfg.CartesiaAPIKey) == "" {
		return Config{}, fmt.Errorf("TUTOR_CARTESIA_API_KEY (or CARTESIA_API_KEY) must be set when a cartesia provider is selected")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
