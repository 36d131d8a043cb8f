package generator

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Source 抽象回复文本的来源，便于替换/Mock。
type Source interface {
	Compose(ctx context.Context, inputs []string) (string, error)
}

// SourceSettings 选择具体实现；Provider 为空时使用 chunk 拼接。
type SourceSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewSource 按 provider 构造 Source。markov 之外的实现走 OpenAI 兼容接口。
func NewSource(s SourceSettings, tok Tokenizer, opts Options, logger *logrus.Entry) (Source, error) {
	switch s.Provider {
	case "", "markov":
		return NewComposer(tok, opts, logger)
	case "openai":
		return NewOpenAISource(&s, opts.MaxAttempts)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if s.BaseURL == "" {
			return nil, fmt.Errorf("source provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return NewOpenAISource(&s, opts.MaxAttempts)
	default:
		return nil, fmt.Errorf("source provider %s not supported", s.Provider)
	}
}
