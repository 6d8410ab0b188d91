package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	cartesiaSTTBaseURL = "https://api.cartesia.ai"
	cartesiaVersion    = "2025-04-16"
)

// CartesiaClient implements Recognizer using Cartesia's batch STT API.
type CartesiaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewCartesia creates a Cartesia recognizer. baseURL may be empty to use the
// public endpoint.
func NewCartesia(apiKey, baseURL string) *CartesiaClient {
	if baseURL == "" {
		baseURL = cartesiaSTTBaseURL
	}
	return &CartesiaClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewCartesiaWithClient creates a Cartesia recognizer with a custom HTTP client.
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

// Recognize posts the audio as a multipart upload to /stt and returns the
// transcription.
func (c *CartesiaClient) Recognize(ctx context.Context, audio []byte, opts Options) (*Transcript, error) {
	if len(audio) == 0 {
		return &Transcript{}, nil
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fw, err := form.CreateFormFile("file", "audio."+fileExtension(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = "ink-whisper"
	}
	if err := form.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if opts.Language != "" {
		if err := form.WriteField("language", opts.Language); err != nil {
			return nil, fmt.Errorf("write language field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	u, err := url.Parse(c.baseURL + "/stt")
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	if enc := wireEncoding(opts.Encoding); enc != "" {
		q.Set("encoding", enc)
	}
	if opts.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(opts.SampleRate))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("cartesia error %d: %s", resp.StatusCode, string(detail))
	}

	var parsed cartesiaTranscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	out := &Transcript{Text: strings.TrimSpace(parsed.Text)}
	if parsed.Duration != nil {
		out.Duration = *parsed.Duration
	}
	return out, nil
}

// RecognizeStream wraps Recognize in the streaming shape: a single terminal
// delta, matching the batch API's one-shot result.
func (c *CartesiaClient) RecognizeStream(ctx context.Context, audio []byte, opts Options) (<-chan Delta, error) {
	out := make(chan Delta, 1)
	go func() {
		defer close(out)
		tr, err := c.Recognize(ctx, audio, opts)
		if err != nil {
			out <- Delta{IsFinal: true, Err: err}
			return
		}
		out <- Delta{Text: tr.Text, IsFinal: true}
	}()
	return out, nil
}

type cartesiaTranscriptionResponse struct {
	Text     string   `json:"text"`
	Duration *float64 `json:"duration,omitempty"`
}

func fileExtension(encoding string) string {
	switch strings.ToLower(encoding) {
	case "mp3":
		return "mp3"
	case "opus":
		return "opus"
	case "wav":
		return "wav"
	default:
		return "raw"
	}
}

// wireEncoding maps the generic encoding hint onto Cartesia's identifiers.
// Only raw PCM needs the query parameter; container formats self-describe.
func wireEncoding(encoding string) string {
	switch strings.ToLower(encoding) {
	case "", "linear16", "pcm16", "pcm_s16le":
		return "pcm_s16le"
	default:
		return ""
	}
}
