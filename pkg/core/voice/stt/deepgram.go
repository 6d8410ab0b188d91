package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const deepgramBaseURL = "https://api.deepgram.com"

// DeepgramClient implements Recognizer using Deepgram's prerecorded
// transcription API.
type DeepgramClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewDeepgram creates a Deepgram recognizer. baseURL may be empty to use the
// public endpoint.
func NewDeepgram(apiKey, baseURL string) *DeepgramClient {
	if baseURL == "" {
		baseURL = deepgramBaseURL
	}
	return &DeepgramClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// NewDeepgramWithClient creates a Deepgram recognizer with a custom HTTP client.
func NewDeepgramWithClient(apiKey, baseURL string, client *http.Client) *DeepgramClient {
	c := NewDeepgram(apiKey, baseURL)
	c.httpClient = client
	return c
}

// Name returns the provider identifier.
func (c *DeepgramClient) Name() string {
	return "deepgram"
}

// Recognize posts the audio to /v1/listen and returns the top alternative.
func (c *DeepgramClient) Recognize(ctx context.Context, audio []byte, opts Options) (*Transcript, error) {
	if len(audio) == 0 {
		return &Transcript{}, nil
	}

	u, err := url.Parse(c.baseURL + "/v1/listen")
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	model := opts.Model
	if model == "" {
		model = "nova-2"
	}
	q.Set("model", model)
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	q.Set("language", lang)
	q.Set("smart_format", "true")
	if opts.Encoding != "" {
		q.Set("encoding", opts.Encoding)
	}
	if opts.SampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(opts.SampleRate))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepgram error %d: %s", resp.StatusCode, string(detail))
	}

	var parsed deepgramListenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return parsed.transcript(), nil
}

// RecognizeStream wraps Recognize in the streaming shape: a single terminal
// delta. Interim hypotheses require a live socket connection, which the
// prerecorded API does not offer.
func (c *DeepgramClient) RecognizeStream(ctx context.Context, audio []byte, opts Options) (<-chan Delta, error) {
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

type deepgramListenResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (r deepgramListenResponse) transcript() *Transcript {
	t := &Transcript{Duration: r.Metadata.Duration}
	if len(r.Results.Channels) == 0 || len(r.Results.Channels[0].Alternatives) == 0 {
		return t
	}
	alt := r.Results.Channels[0].Alternatives[0]
	t.Text = strings.TrimSpace(alt.Transcript)
	t.Confidence = alt.Confidence
	return t
}
