package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// defaultOpenAIAttempts 限制模型输出被拒绝时的重试次数。
const defaultOpenAIAttempts = 3

// OpenAISource implements Source using the official openai-go SDK (chat completions).
type OpenAISource struct {
	Model    string
	Opts     []option.RequestOption
	Attempts int
}

func NewOpenAISource(cfg *SourceSettings, attempts int) (*OpenAISource, error) {
	if cfg == nil {
		return nil, errors.New("source settings is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if attempts <= 0 || attempts > defaultOpenAIAttempts {
		attempts = defaultOpenAIAttempts
	}
	return &OpenAISource{Model: cfg.Model, Opts: opts, Attempts: attempts}, nil
}

// Compose 请模型写一条风格相近的新投稿，并做与 Composer 相同的结构检查。
func (o *OpenAISource) Compose(ctx context.Context, inputs []string) (string, error) {
	var corpus []string
	for _, in := range inputs {
		if !isNoise(in) && strings.TrimSpace(in) != "" {
			corpus = append(corpus, in)
		}
	}
	if len(corpus) == 0 {
		return "", ErrEmptyCorpus
	}

	client := openai.NewClient(o.Opts...)
	prompt := BuildStylePrompt(corpus)
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.System),
		openai.UserMessage(prompt.User),
	}
	for attempt := 0; attempt < o.Attempts; attempt++ {
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(o.Model),
			Messages: msgs,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai: empty choices")
		}
		result := strings.TrimSpace(resp.Choices[0].Message.Content)
		if rejectReason(result, inputs) == "" {
			return result, nil
		}
	}
	return "", fmt.Errorf("openai: %w after %d attempts", ErrRetryExhausted, o.Attempts)
}
