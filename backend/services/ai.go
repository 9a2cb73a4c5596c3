package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"project/backend/config"
	"strings"
)

var ErrGenerationFailed = errors.New("provider returned output that could not be parsed")

// AIService talks to an OpenAI-compatible chat-completions endpoint.
type AIService struct {
	APIURL string
	APIKey string
	Model  string
	Client *http.Client
}

func NewAIService(cfg *config.Config) *AIService {
	return &AIService{
		APIURL: cfg.OpenAIAPIURL,
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeneratedQuestion is the shape GenerateQuiz requires from the provider.
type GeneratedQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// ExplainCode asks the provider for a natural-language explanation of the
// snippet, optionally answering a free-text question about it.
func (s *AIService) ExplainCode(ctx context.Context, code, question string) (string, error) {
	prompt := fmt.Sprintf("Explain the following code clearly and concisely:\n\n%s", code)
	if question != "" {
		prompt = fmt.Sprintf("%s\n\nAlso answer this question about it: %s", prompt, question)
	}

	return s.complete(ctx, []chatMessage{
		{Role: "system", Content: "You are a programming tutor. Explain code for a learner, covering what it does and why."},
		{Role: "user", Content: prompt},
	})
}

// GenerateQuiz asks the provider for count multiple-choice questions about
// the topic or code snippet. Output that does not parse as the expected JSON
// list maps to ErrGenerationFailed.
func (s *AIService) GenerateQuiz(ctx context.Context, topicOrCode string, count int) ([]GeneratedQuestion, error) {
	if count <= 0 {
		count = 5
	}

	prompt := fmt.Sprintf(
		"Generate exactly %d multiple-choice questions about the following topic or code:\n\n%s\n\n"+
			"Respond with ONLY a JSON array, each element an object with fields "+
			`"question" (string), "options" (array of 4 strings), "correctIndex" (0-3) and "explanation" (string).`,
		count, topicOrCode,
	)

	content, err := s.complete(ctx, []chatMessage{
		{Role: "system", Content: "You generate quiz questions as strict JSON with no surrounding prose."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	questions, err := parseGeneratedQuestions(content)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func parseGeneratedQuestions(content string) ([]GeneratedQuestion, error) {
	cleaned := strings.TrimSpace(content)
	// Models often wrap JSON in markdown fences despite instructions.
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var questions []GeneratedQuestion
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, ErrGenerationFailed
	}
	if len(questions) == 0 {
		return nil, ErrGenerationFailed
	}

	for _, q := range questions {
		if q.Question == "" || len(q.Options) < 2 ||
			q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return nil, ErrGenerationFailed
		}
	}

	return questions, nil
}

func (s *AIService) complete(ctx context.Context, messages []chatMessage) (string, error) {
	request := chatRequest{
		Model:       s.Model,
		Messages:    messages,
		Temperature: 0.7,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
