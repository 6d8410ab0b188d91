package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	cartesiaTTSBaseURL     = "https://api.cartesia.ai"
	cartesiaVersion        = "2025-04-16"
	cartesiaDefaultModelID = "sonic-2"
)

// CartesiaClient implements Synthesizer using Cartesia's bytes API.
type CartesiaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewCartesia creates a Cartesia synthesizer. baseURL may be empty to use the
// public endpoint.
func NewCartesia(apiKey, baseURL string) *CartesiaClient {
	if baseURL == "" {
		baseURL = cartesiaTTSBaseURL
	}
	return &CartesiaClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewCartesiaWithClient creates a Cartesia synthesizer with a custom HTTP client.
func NewCartesiaWithClient(apiKey, baseURL string, client *http.Client) *CartesiaClient {
	c := NewCartesia(apiKey, baseURL)
	if client != nil {
		c.httpClient = client
	}
	return c
}

// Name returns the provider identifier.
func (c *CartesiaClient) Name() string {
	return "cartesia"
}

type cartesiaRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoice        `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     string               `json:"language,omitempty"`
	Speed        float64              `json:"speed,omitempty"`
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate"`
	BitRate    int    `json:"bit_rate,omitempty"`
}

// Synthesize voices the text in one shot and returns the complete unit.
func (c *CartesiaClient) Synthesize(ctx context.Context, text string, opts Options) (*Synthesis, error) {
	resp, err := c.post(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return &Synthesis{Audio: audio, Format: cartesiaFormat(opts.Format), SampleRate: cartesiaSampleRate(opts.SampleRate)}, nil
}

// SynthesizeStream voices the text, pushing audio into the returned Stream
// as the provider delivers it. The bytes endpoint streams its response body.
func (c *CartesiaClient) SynthesizeStream(ctx context.Context, text string, opts Options) (*Stream, error) {
	resp, err := c.post(ctx, text, opts)
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

func (c *CartesiaClient) post(ctx context.Context, text string, opts Options) (*http.Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize: empty text")
	}
	if opts.Voice == "" {
		return nil, fmt.Errorf("synthesize: voice id is required")
	}

	body := cartesiaRequest{
		ModelID:      cartesiaDefaultModelID,
		Transcript:   text,
		Voice:        cartesiaVoice{Mode: "id", ID: opts.Voice},
		OutputFormat: cartesiaOutput(opts),
		Language:     "en",
		Speed:        opts.Speed,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts/bytes", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("cartesia error %d: %s", resp.StatusCode, string(detail))
	}
	return resp, nil
}

func cartesiaOutput(opts Options) cartesiaOutputFormat {
	if cartesiaFormat(opts.Format) == "mp3" {
		return cartesiaOutputFormat{Container: "mp3", SampleRate: 44100, BitRate: 128000}
	}
	return cartesiaOutputFormat{Container: "raw", Encoding: "pcm_s16le", SampleRate: cartesiaSampleRate(opts.SampleRate)}
}

func cartesiaFormat(format string) string {
	if strings.EqualFold(format, "mp3") {
		return "mp3"
	}
	return "pcm16"
}

func cartesiaSampleRate(rate int) int {
	if rate <= 0 {
		return 16000
	}
	return rate
}
