// Package muse provides the adapter for the image-understanding model that
// drives song suggestion. It talks to an Ollama-compatible endpoint in JSON
// mode, sending the uploaded photo with the analysis instruction and parsing
// the structured song lists that come back.
package muse

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
	"github.com/ewilliams-labs/moodmuse/internal/core/ports"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llava:13b"

	// Expansion prompts carry at most this many recently suggested titles.
	maxExcludeTitles = 50
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// compile-time interface assertion
var _ ports.SuggestionEngine = (*Client)(nil)

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type songBatch struct {
	Songs []domain.Suggestion `json:"songs"`
}

func NewClient(baseURL, model string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// AnalyzeImage sends the uploaded photo to the model and returns the overall
// mood plus the initial suggestion batch.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte) (domain.MoodReading, error) {
	if len(image) == 0 {
		return domain.MoodReading{}, fmt.Errorf("muse: empty image")
	}

	content, err := c.chat(ctx, chatMessage{
		Role:    "user",
		Content: analyzePrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return domain.MoodReading{}, err
	}

	var reading domain.MoodReading
	if err := json.Unmarshal([]byte(content), &reading); err != nil {
		return domain.MoodReading{}, fmt.Errorf("muse: decode reading: %w", err)
	}
	if reading.OverallMood == "" || len(reading.Songs) == 0 {
		return domain.MoodReading{}, fmt.Errorf("muse: incomplete reading")
	}

	return reading, nil
}

// Refine requests suggestions that bridge the current mood and a liked track.
func (c *Client) Refine(ctx context.Context, mood string, anchor domain.Track, exclude []string) ([]domain.Suggestion, error) {
	prompt := fmt.Sprintf(refinePrompt, anchor.Title, anchor.Artist, mood, joinExclusions(exclude))
	return c.requestBatch(ctx, prompt)
}

// Pivot requests suggestions steering away from recently skipped tracks.
func (c *Client) Pivot(ctx context.Context, mood string, skipped []string, exclude []string) ([]domain.Suggestion, error) {
	prompt := fmt.Sprintf(pivotPrompt, mood, strings.Join(skipped, "; "), joinExclusions(exclude))
	return c.requestBatch(ctx, prompt)
}

func (c *Client) requestBatch(ctx context.Context, prompt string) ([]domain.Suggestion, error) {
	content, err := c.chat(ctx, chatMessage{Role: "user", Content: prompt})
	if err != nil {
		return nil, err
	}

	var batch songBatch
	if err := json.Unmarshal([]byte(content), &batch); err != nil {
		return nil, fmt.Errorf("muse: decode songs: %w", err)
	}
	if len(batch.Songs) == 0 {
		return nil, fmt.Errorf("muse: empty song batch")
	}

	return batch.Songs, nil
}

func (c *Client) chat(ctx context.Context, message chatMessage) (string, error) {
	payload := chatRequest{
		Model:    c.model,
		Stream:   false,
		Format:   "json",
		Messages: []chatMessage{message},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("muse: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("muse: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("muse: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("muse: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("muse: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("muse: %s", parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", fmt.Errorf("muse: empty response")
	}

	return content, nil
}

func joinExclusions(exclude []string) string {
	if len(exclude) > maxExcludeTitles {
		exclude = exclude[:maxExcludeTitles]
	}
	if len(exclude) == 0 {
		return "(none)"
	}
	return strings.Join(exclude, "; ")
}
