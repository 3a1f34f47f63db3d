package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL      = "https://api.assemblyai.com/v2"
	defaultPollInterval = 3 * time.Second
	defaultHTTPTimeout  = 2 * time.Minute
)

// Client wraps the AssemblyAI transcription API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithPollInterval overrides how often transcript status is polled.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient constructs an AssemblyAI API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type transcriptResource struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	Text          string      `json:"text"`
	Error         string      `json:"error"`
	AudioDuration float64     `json:"audio_duration"`
	Utterances    []Utterance `json:"utterances"`
}

// Transcribe uploads the audio file, creates a transcript, and blocks until
// the provider reports a terminal status.
func (c *Client) Transcribe(ctx context.Context, audioPath string, opts Options) (*Transcript, error) {
	if !c.Configured() {
		return nil, errors.New("assemblyai: api key required")
	}
	uploadURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	request := map[string]any{
		"audio_url":      uploadURL,
		"speaker_labels": opts.Diarize,
	}
	if opts.LanguageDetection {
		request["language_detection"] = true
	}
	var created transcriptResource
	if err := c.postJSON(ctx, "/transcript", request, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, errors.New("assemblyai: create transcript: missing id")
	}

	final, err := c.awaitCompletion(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		ID:              final.ID,
		Text:            final.Text,
		Utterances:      final.Utterances,
		DurationSeconds: int(final.AudioDuration),
	}, nil
}

// Sentences fetches the sentence-level breakdown for a completed transcript.
func (c *Client) Sentences(ctx context.Context, transcriptID string) ([]Sentence, error) {
	if !c.Configured() {
		return nil, errors.New("assemblyai: api key required")
	}
	transcriptID = strings.TrimSpace(transcriptID)
	if transcriptID == "" {
		return nil, errors.New("assemblyai: sentences: transcript id required")
	}
	var payload struct {
		Sentences []Sentence `json:"sentences"`
	}
	if err := c.getJSON(ctx, "/transcript/"+transcriptID+"/sentences", &payload); err != nil {
		return nil, err
	}
	return payload.Sentences, nil
}

func (c *Client) awaitCompletion(ctx context.Context, id string) (*transcriptResource, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		var current transcriptResource
		if err := c.getJSON(ctx, "/transcript/"+id, &current); err != nil {
			return nil, err
		}
		switch current.Status {
		case "completed":
			return &current, nil
		case "error":
			detail := strings.TrimSpace(current.Error)
			if detail == "" {
				detail = "provider reported an error status"
			}
			return nil, fmt.Errorf("assemblyai: transcript %s failed: %s", id, detail)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("assemblyai: open audio: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", file)
	if err != nil {
		return "", fmt.Errorf("assemblyai: upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assemblyai: upload: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("assemblyai: upload: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("assemblyai: upload: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("assemblyai: upload: decode response: %w", err)
	}
	if payload.UploadURL == "" {
		return "", errors.New("assemblyai: upload: missing upload_url")
	}
	return payload.UploadURL, nil
}

func (c *Client) postJSON(ctx context.Context, path string, request any, target any) error {
	encoded, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("assemblyai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("assemblyai: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, target)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("assemblyai: new request: %w", err)
	}
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	req.Header.Set("Authorization", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assemblyai: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("assemblyai: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("assemblyai: %s %s: http %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("assemblyai: decode response: %w", err)
	}
	return nil
}
