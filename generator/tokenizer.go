package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Tokenizer 是形态素分析器的抽象：每段独立文本以 BOS … EOS 包围。
type Tokenizer interface {
	Tokenize(text string) ([]Token, error)
}

// TokenizerOptions 替代全局辞书目录配置，显式传入。
type TokenizerOptions struct {
	// DictPath 指向 kagome 辞书归档；为空时使用内置 IPA 辞书。
	DictPath string
	// UserDictPath 指向用户辞书（kagome 用户辞书格式）。
	UserDictPath string
}

// KagomeTokenizer 基于 kagome v2 实现 Tokenizer。
type KagomeTokenizer struct {
	t *tokenizer.Tokenizer
}

func NewKagomeTokenizer(opts TokenizerOptions) (*KagomeTokenizer, error) {
	d := ipa.Dict()
	if opts.DictPath != "" {
		loaded, err := dict.LoadDictFile(opts.DictPath)
		if err != nil {
			return nil, fmt.Errorf("%w: load dictionary %s: %v", ErrTokenizer, opts.DictPath, err)
		}
		d = loaded
	}
	var topts []tokenizer.Option
	if opts.UserDictPath != "" {
		udict, err := dict.NewUserDict(opts.UserDictPath)
		if err != nil {
			return nil, fmt.Errorf("%w: load user dictionary %s: %v", ErrTokenizer, opts.UserDictPath, err)
		}
		topts = append(topts, tokenizer.UserDict(udict))
	}
	t, err := tokenizer.New(d, topts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenizer, err)
	}
	return &KagomeTokenizer{t: t}, nil
}

// Tokenize 按行分别分析，每行产出一组 BOS … EOS。
// 只由 ASCII 空白组成的词被丢弃；全角空格「　」保留。
func (k *KagomeTokenizer) Tokenize(text string) ([]Token, error) {
	var out []Token
	for _, line := range strings.Split(text, "\n") {
		for _, kt := range k.t.Tokenize(line) {
			if kt.Class != tokenizer.DUMMY && isASCIISpace(kt.Surface) {
				continue
			}
			out = append(out, fromKagome(kt))
		}
	}
	return out, nil
}

func isASCIISpace(s string) bool {
	return s != "" && strings.Trim(s, " \t\r\v\f") == ""
}

func fromKagome(kt tokenizer.Token) Token {
	if kt.Class == tokenizer.DUMMY {
		return Token{ID: kt.ID, Surface: kt.Surface, Feature: Feature{POS: POSBoundary}}
	}
	tok := Token{ID: kt.ID, Surface: kt.Surface}
	pos := kt.POS()
	if len(pos) > 0 {
		tok.Feature.POS = pos[0]
	}
	extra := map[string]any{}
	if len(pos) > 1 {
		extra["pos_detail"] = pos[1:]
	}
	if v, ok := kt.BaseForm(); ok {
		extra["base_form"] = v
	}
	if v, ok := kt.Reading(); ok {
		extra["reading"] = v
	}
	if v, ok := kt.Pronunciation(); ok {
		extra["pronunciation"] = v
	}
	tok.Feature.Extra = extra
	return tok
}

// Tokenize 把清洗后的节点转换为 token 序列。
func Tokenize(t Tokenizer, nodes []Node) ([]Token, error) {
	var tokens []Token
	for _, n := range nodes {
		switch n.Kind {
		case KindText:
			ts, err := t.Tokenize(n.Props["text"])
			if err != nil {
				if errors.Is(err, ErrTokenizer) {
					return nil, err
				}
				return nil, fmt.Errorf("%w: %w", ErrTokenizer, err)
			}
			tokens = append(tokens, ts...)
		case KindUnicodeEmoji:
			tokens = append(tokens, Token{Surface: n.Props["emoji"], Feature: Feature{POS: POSEmoji}})
		case KindEmojiCode:
			tokens = append(tokens, Token{Surface: ":" + n.Props["name"] + ":", Feature: Feature{POS: POSEmoji}})
		}
	}
	if len(tokens) > 0 && tokens[0].Surface == "" {
		tokens = tokens[1:]
	}
	return tokens, nil
}
