package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsDefaultModel = "eleven_flash_v2_5"
)

// ElevenLabsClient implements Synthesizer using the ElevenLabs REST API.
type ElevenLabsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabs creates an ElevenLabs synthesizer. baseURL may be empty to
// use the public endpoint.
func NewElevenLabs(apiKey, baseURL string) *ElevenLabsClient {
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}
	return &ElevenLabsClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewElevenLabsWithClient creates an ElevenLabs synthesizer with a custom
// HTTP client.
func NewElevenLabsWithClient(apiKey, baseURL string, client *http.Client) *ElevenLabsClient {
	c := NewElevenLabs(apiKey, baseURL)
	if client != nil {
		c.httpClient = client
	}
	return c
}

// Name returns the provider identifier.
func (c *ElevenLabsClient) Name() string {
	return "elevenlabs"
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed,omitempty"`
}

// Synthesize voices the text in one shot and returns the complete unit.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string, opts Options) (*Synthesis, error) {
	resp, err := c.post(ctx, text, opts, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &Synthesis{Audio: audio, Format: normalizeFormat(opts.Format), SampleRate: sampleRateOrDefault(opts.SampleRate)}, nil
}

// SynthesizeStream voices the text through the streaming endpoint, pushing
// audio into the returned Stream as the provider delivers it.
func (c *ElevenLabsClient) SynthesizeStream(ctx context.Context, text string, opts Options) (*Stream, error) {
	resp, err := c.post(ctx, text, opts, true)
	if err != nil {
		return nil, err
	}

	stream := NewStream()
	go func() {
		defer resp.Body.Close()
		defer stream.Finish()
		buf := make([]byte, 4096)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !stream.Push(chunk) {
					return
				}
			}
			if rerr != nil {
				if rerr != io.EOF {
					stream.Fail(fmt.Errorf("read stream: %w", rerr))
				}
				return
			}
		}
	}()
	return stream, nil
}

func (c *ElevenLabsClient) post(ctx context.Context, text string, opts Options, streamed bool) (*http.Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}
	if opts.Voice == "" {
		return nil, fmt.Errorf("synthesize: voice id is required")
	}

	path := "/v1/text-to-speech/" + url.PathEscape(opts.Voice)
	if streamed {
		path += "/stream"
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("output_format", outputFormat(opts))
	u.RawQuery = q.Encode()

	body := elevenLabsRequest{
		Text:    text,
		ModelID: elevenLabsDefaultModel,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           opts.Speed,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, string(detail))
	}
	return resp, nil
}

// outputFormat maps generic options onto ElevenLabs format identifiers.
func outputFormat(opts Options) string {
	rate := sampleRateOrDefault(opts.SampleRate)
	switch normalizeFormat(opts.Format) {
	case "mp3":
		return "mp3_44100_128"
	default:
		return fmt.Sprintf("pcm_%d", rate)
	}
}

func normalizeFormat(format string) string {
	if strings.EqualFold(format, "mp3") {
		return "mp3"
	}
	return "pcm16"
}

func sampleRateOrDefault(rate int) int {
	if rate <= 0 {
		return 16000
	}
	return rate
}
