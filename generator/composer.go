package generator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultMaxAttempts 是重试上限。
const DefaultMaxAttempts = 300

// Options 控制 chunk 生成与重试。零值字段取默认值。
type Options struct {
	ChunkSize      int
	MaxMatchLength int
	MaxSteps       int
	MaxAttempts    int
	// Seed 非 0 时使用确定的随机序列（测试用）。
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.MaxMatchLength <= 0 {
		o.MaxMatchLength = DefaultMaxMatchLength
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	return o
}

// Composer 从一组投稿中拼出一条新句子。可并发使用：每次调用独占语料与随机源。
type Composer struct {
	parser    *Parser
	tokenizer Tokenizer
	opts      Options
	log       *logrus.Entry
	// minChunks 决定本次调用结果至少需要的 chunk 数。
	minChunks func(r *rand.Rand) int

	mu   sync.Mutex
	seed *rand.Rand
}

func NewComposer(tok Tokenizer, opts Options, logger *logrus.Entry) (*Composer, error) {
	if tok == nil {
		return nil, errors.New("tokenizer is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger().WithField("pkg", "generator")
	}
	opts = opts.withDefaults()
	var src rand.Source
	if opts.Seed != 0 {
		src = rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Composer{
		parser:    NewParser(),
		tokenizer: tok,
		opts:      opts,
		log:       logger,
		minChunks: func(r *rand.Rand) int { return 1 + r.IntN(7) },
		seed:      rand.New(src),
	}, nil
}

// newRand 为单次调用派生独立的随机源。
func (c *Composer) newRand() *rand.Rand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return rand.New(rand.NewPCG(c.seed.Uint64(), c.seed.Uint64()))
}

// Chunks 对单条输入执行 解析 → 清洗 → 分词 → 切块。
func (c *Composer) Chunks(text string) ([]Chunk, error) {
	tokens, err := Tokenize(c.tokenizer, Sanitize(c.parser.Parse(text)))
	if err != nil {
		return nil, err
	}
	return ChunkTokens(tokens, c.opts.ChunkSize), nil
}

// Compose 生成一条通过结构检查、且与所有输入都不同的文本。
func (c *Composer) Compose(ctx context.Context, inputs []string) (string, error) {
	r := c.newRand()

	var corpus []Chunk
	for _, in := range inputs {
		if isNoise(in) {
			continue
		}
		chunks, err := c.Chunks(in)
		if err != nil {
			return "", err
		}
		corpus = append(corpus, chunks...)
	}
	if len(corpus) == 0 {
		return "", ErrEmptyCorpus
	}

	minimum := c.minChunks(r)
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chain, err := BuildChain(r, corpus, c.opts.MaxMatchLength, c.opts.MaxSteps)
		if err != nil {
			return "", err
		}
		result := Render(chain)
		if reason := rejectReason(result, inputs); reason != "" {
			c.log.WithFields(logrus.Fields{"attempt": attempt, "reason": reason}).Debug("rejected, retrying")
			continue
		}
		chunks, err := c.Chunks(result)
		if err != nil {
			return "", err
		}
		if len(chunks) < minimum {
			c.log.WithFields(logrus.Fields{"attempt": attempt, "reason": "too few chunks", "chunks": len(chunks), "minimum": minimum}).Debug("rejected, retrying")
			continue
		}
		c.log.WithFields(logrus.Fields{"attempts": attempt, "inputs": len(inputs), "corpus": len(corpus)}).Info("composed")
		return result, nil
	}
	return "", fmt.Errorf("%w: no acceptable result in %d attempts", ErrRetryExhausted, c.opts.MaxAttempts)
}
