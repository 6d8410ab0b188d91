package config

import (
	"strings"
	"testing"
	"time"
)

var gatewayEnvKeys = []string{
	"TUTOR_ADDR",
	"TUTOR_TRUST_PROXY_HEADERS",
	"TUTOR_CORS_ORIGINS",
	"TUTOR_READ_HEADER_TIMEOUT",
	"TUTOR_READ_TIMEOUT",
	"TUTOR_SHUTDOWN_GRACE_PERIOD",
	"TUTOR_RATE_LIMIT_RPS",
	"TUTOR_RATE_LIMIT_BURST",
	"TUTOR_LIVE_MAX_SESSIONS",
	"TUTOR_LIVE_HISTORY_WINDOW",
	"TUTOR_LIVE_AUDIO_CHUNK_BYTES",
	"TUTOR_LIVE_MAX_REPLY_TOKENS",
	"TUTOR_LIVE_TEMPERATURE",
	"TUTOR_LIVE_MAX_REPLY_CHARS",
	"TUTOR_LIVE_AUDIO_FORMAT",
	"TUTOR_LIVE_SAMPLE_RATE",
	"TUTOR_LIVE_STREAM_SYNTHESIS",
	"TUTOR_LIVE_MAX_AUDIO_BYTES",
	"TUTOR_LIVE_MAX_TEXT_CHARS",
	"TUTOR_LIVE_UTTERANCE_RATE",
	"TUTOR_LIVE_UTTERANCE_BPS",
	"TUTOR_LIVE_UTTERANCE_BURST_SECONDS",
	"TUTOR_LIVE_GATEWAY_TIMEOUT",
	"TUTOR_LIVE_IDLE_TIMEOUT",
	"TUTOR_LIVE_WS_PING_INTERVAL",
	"TUTOR_LIVE_WS_WRITE_TIMEOUT",
	"TUTOR_LIVE_OUTBOUND_QUEUE",
	"TUTOR_LIVE_HANDSHAKE_TIMEOUT",
	"TUTOR_CHAT_MAX_SESSIONS",
	"TUTOR_CHAT_SESSION_TTL",
	"TUTOR_CHAT_HISTORY_WINDOW",
	"TUTOR_CHAT_MAX_MESSAGE_CHARS",
	"TUTOR_STT_PROVIDER",
	"TUTOR_TTS_PROVIDER",
	"TUTOR_OPENAI_API_KEY",
	"TUTOR_OPENAI_BASE_URL",
	"TUTOR_OPENAI_MODEL",
	"TUTOR_DEEPGRAM_API_KEY",
	"TUTOR_DEEPGRAM_BASE_URL",
	"TUTOR_ELEVENLABS_API_KEY",
	"TUTOR_ELEVENLABS_BASE_URL",
	"TUTOR_CARTESIA_API_KEY",
	"OPENAI_API_KEY",
	"DEEPGRAM_API_KEY",
	"ELEVENLABS_API_KEY",
	"CARTESIA_API_KEY",
}

// clearGatewayEnv resets every config variable so cases start clean and
// restore automatically via t.Setenv.
func clearGatewayEnv(t *testing.T) {
	t.Helper()
	for _, key := range gatewayEnvKeys {
		t.Setenv(key, "")
	}
}

func setRequiredKeys(t *testing.T) {
	t.Helper()
	t.Setenv("TUTOR_OPENAI_API_KEY", "sk-test")
	t.Setenv("TUTOR_DEEPGRAM_API_KEY", "dg-test")
	t.Setenv("TUTOR_ELEVENLABS_API_KEY", "el-test")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredKeys(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.STTProvider != STTDeepgram || cfg.TTSProvider != TTSElevenLabs {
		t.Errorf("providers = %q/%q", cfg.STTProvider, cfg.TTSProvider)
	}
	if cfg.LiveHistoryWindow != 8 {
		t.Errorf("LiveHistoryWindow = %d", cfg.LiveHistoryWindow)
	}
	if cfg.LiveAudioChunkBytes != 32*1024 {
		t.Errorf("LiveAudioChunkBytes = %d", cfg.LiveAudioChunkBytes)
	}
	if !cfg.LiveStreamSynthesis {
		t.Error("LiveStreamSynthesis should default on")
	}
	if cfg.LiveIdleTimeout != 5*time.Minute {
		t.Errorf("LiveIdleTimeout = %v", cfg.LiveIdleTimeout)
	}
	if cfg.ChatSessionTTL != 30*time.Minute {
		t.Errorf("ChatSessionTTL = %v", cfg.ChatSessionTTL)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredKeys(t)
	t.Setenv("TUTOR_ADDR", ":9999")
	t.Setenv("TUTOR_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TUTOR_LIVE_HISTORY_WINDOW", "4")
	t.Setenv("TUTOR_LIVE_STREAM_SYNTHESIS", "false")
	t.Setenv("TUTOR_LIVE_GATEWAY_TIMEOUT", "12s")
	t.Setenv("TUTOR_STT_PROVIDER", "Deepgram")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://a.example"]; !ok {
		t.Errorf("CORS origins = %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://b.example"]; !ok {
		t.Errorf("CORS origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LiveHistoryWindow != 4 {
		t.Errorf("LiveHistoryWindow = %d", cfg.LiveHistoryWindow)
	}
	if cfg.LiveStreamSynthesis {
		t.Error("LiveStreamSynthesis should be off")
	}
	if cfg.LiveGatewayTimeout != 12*time.Second {
		t.Errorf("LiveGatewayTimeout = %v", cfg.LiveGatewayTimeout)
	}
	if cfg.STTProvider != STTDeepgram {
		t.Errorf("STTProvider = %q, want lowercased", cfg.STTProvider)
	}
}

func TestLoadFromEnv_UnprefixedKeyFallbacks(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-fallback")
	t.Setenv("DEEPGRAM_API_KEY", "dg-fallback")
	t.Setenv("ELEVENLABS_API_KEY", "el-fallback")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.OpenAIAPIKey != "sk-fallback" || cfg.DeepgramAPIKey != "dg-fallback" || cfg.ElevenLabsAPIKey != "el-fallback" {
		t.Fatalf("fallback keys = %q/%q/%q", cfg.OpenAIAPIKey, cfg.DeepgramAPIKey, cfg.ElevenLabsAPIKey)
	}
}

func TestLoadFromEnv_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		prepare func(t *testing.T)
		wantErr string
	}{
		{
			name:    "missing openai key",
			prepare: func(t *testing.T) { t.Setenv("TUTOR_OPENAI_API_KEY", "") },
			wantErr: "TUTOR_OPENAI_API_KEY",
		},
		{
			name: "missing deepgram key for deepgram stt",
			prepare: func(t *testing.T) {
				t.Setenv("TUTOR_OPENAI_API_KEY", "sk")
				t.Setenv("TUTOR_ELEVENLABS_API_KEY", "el")
			},
			wantErr: "TUTOR_DEEPGRAM_API_KEY",
		},
		{
			name: "missing elevenlabs key for elevenlabs tts",
			prepare: func(t *testing.T) {
				t.Setenv("TUTOR_OPENAI_API_KEY", "sk")
				t.Setenv("TUTOR_DEEPGRAM_API_KEY", "dg")
			},
			wantErr: "TUTOR_ELEVENLABS_API_KEY",
		},
		{
			name: "cartesia providers need cartesia key",
			prepare: func(t *testing.T) {
				t.Setenv("TUTOR_OPENAI_API_KEY", "sk")
				t.Setenv("TUTOR_STT_PROVIDER", "cartesia")
				t.Setenv("TUTOR_TTS_PROVIDER", "cartesia")
			},
			wantErr: "TUTOR_CARTESIA_API_KEY",
		},
		{
			name: "unknown stt provider",
			prepare: func(t *testing.T) {
				setRequiredKeys(t)
				t.Setenv("TUTOR_STT_PROVIDER", "whisperx")
			},
			wantErr: "TUTOR_STT_PROVIDER",
		},
		{
			name: "unknown tts provider",
			prepare: func(t *testing.T) {
				setRequiredKeys(t)
				t.Setenv("TUTOR_TTS_PROVIDER", "espeak")
			},
			wantErr: "TUTOR_TTS_PROVIDER",
		},
		{
			name: "temperature out of range",
			prepare: func(t *testing.T) {
				setRequiredKeys(t)
				t.Setenv("TUTOR_LIVE_TEMPERATURE", "3.5")
			},
			wantErr: "TUTOR_LIVE_TEMPERATURE",
		},
		{
			name: "zero history window",
			prepare: func(t *testing.T) {
				setRequiredKeys(t)
				t.Setenv("TUTOR_LIVE_HISTORY_WINDOW", "-1")
			},
			wantErr: "TUTOR_LIVE_HISTORY_WINDOW",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearGatewayEnv(t)
			tc.prepare(t)

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestEnvHelpers_MalformedValuesFallBack(t *testing.T) {
	clearGatewayEnv(t)
	setRequiredKeys(t)
	t.Setenv("TUTOR_LIVE_HISTORY_WINDOW", "not-a-number")
	t.Setenv("TUTOR_LIVE_GATEWAY_TIMEOUT", "soon")
	t.Setenv("TUTOR_LIVE_STREAM_SYNTHESIS", "maybe")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.LiveHistoryWindow != 8 {
		t.Errorf("LiveHistoryWindow = %d, want default", cfg.LiveHistoryWindow)
	}
	if cfg.LiveGatewayTimeout != 30*time.Second {
		t.Errorf("LiveGatewayTimeout = %v, want default", cfg.LiveGatewayTimeout)
	}
	if !cfg.LiveStreamSynthesis {
		t.Error("LiveStreamSynthesis should fall back to default true")
	}
}
