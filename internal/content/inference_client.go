package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studytrack/internal/models"
)

const inferenceRequestTimeout = 30 * time.Second

// InferenceClient generates content through a hosted text-inference API.
// The model is asked for a JSON object; the first {...} block in its output
// is extracted and decoded.
type InferenceClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewInferenceClient creates a client for the given inference endpoint
func NewInferenceClient(apiURL, apiKey string) *InferenceClient {
	return &InferenceClient{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: inferenceRequestTimeout,
		},
	}
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type inferenceResponse struct {
	GeneratedText string `json:"generated_text"`
}

// query sends a prompt to the inference API and returns its text output
func (c *InferenceClient) query(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(inferenceRequest{Inputs: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var results []inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrInvalidFormat)
	}

	return results[0].GeneratedText, nil
}

// extractJSON pulls the first JSON object out of free-form model output
func extractJSON(text string) ([]byte, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in output", ErrInvalidFormat)
	}
	return []byte(text[start : end+1]), nil
}

// GenerateQuiz produces a multiple-choice quiz for the topic
func (c *InferenceClient) GenerateQuiz(ctx context.Context, topic string) (*models.Quiz, error) {
	prompt := fmt.Sprintf(
		`Generate a multiple-choice quiz with 3 questions about the topic: %q. `+
			`Respond with a single JSON object: {"questions": [{"question": string, "options": [4 strings], "answer": string}]}. `+
			`No text outside the JSON object.`, topic)

	text, err := c.query(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in output", ErrInvalidFormat)
	}

	return &quiz, nil
}

// GenerateFlashcards produces a set of study flashcards for the topic
func (c *InferenceClient) GenerateFlashcards(ctx context.Context, topic string) (*models.FlashcardSet, error) {
	prompt := fmt.Sprintf(
		`Generate 3 educational flashcards about the topic: %q. `+
			`Respond with a single JSON object: {"flashcards": [{"front": string, "back": string}]}. `+
			`No text outside the JSON object.`, topic)

	text, err := c.query(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var set models.FlashcardSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(set.Flashcards) == 0 {
		return nil, fmt.Errorf("%w: no flashcards in output", ErrInvalidFormat)
	}

	return &set, nil
}

// GenerateExplanation produces a plain-text explanation of the topic
func (c *InferenceClient) GenerateExplanation(ctx context.Context, topic string) (string, error) {
	prompt := fmt.Sprintf("Explain the topic %q clearly and concisely for a student encountering it for the first time.", topic)
	return c.queryText(ctx, prompt)
}

// GenerateDiscussion produces plain-text discussion prompts for the topic
func (c *InferenceClient) GenerateDiscussion(ctx context.Context, topic string) (string, error) {
	prompt := fmt.Sprintf("Write three thought-provoking discussion questions about the topic %q.", topic)
	return c.queryText(ctx, prompt)
}

func (c *InferenceClient) queryText(ctx context.Context, prompt string) (string, error) {
	text, err := c.query(ctx, prompt)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty output", ErrInvalidFormat)
	}
	return text, nil
}
