package generator

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// tableTokenizer 以最长匹配查表分词，未知字符按单字名词处理；行首尾补 BOS/EOS。
type tableTokenizer struct {
	words map[string]string
	fail  error
}

var testWords = map[string]string{
	"猫":  "名詞",
	"犬":  "名詞",
	"鳥":  "名詞",
	"が":  "助詞",
	"は":  "助詞",
	"を":  "助詞",
	"鳴い": "動詞",
	"走っ": "動詞",
	"飛ん": "動詞",
	"だ":  "助動詞",
	"た":  "助動詞",
	"。":  "記号",
	"「":  "記号",
	"」":  "記号",
	"(":  "記号",
	")":  "記号",
}

func newTableTokenizer() tableTokenizer {
	return tableTokenizer{words: testWords}
}

func (t tableTokenizer) Tokenize(text string) ([]Token, error) {
	if t.fail != nil {
		return nil, t.fail
	}
	var out []Token
	for _, line := range strings.Split(text, "\n") {
		out = append(out, boundary(SurfaceBOS))
		rs := []rune(line)
		for i := 0; i < len(rs); {
			n, pos := 1, "名詞"
			for l := min(len(rs)-i, 4); l > 0; l-- {
				if p, ok := t.words[string(rs[i:i+l])]; ok {
					n, pos = l, p
					break
				}
			}
			out = append(out, tok(string(rs[i:i+n]), pos))
			i += n
		}
		out = append(out, boundary(SurfaceEOS))
	}
	return out, nil
}

func tok(surface, pos string) Token {
	return Token{Surface: surface, Feature: Feature{POS: pos}}
}

func boundary(surface string) Token {
	return Token{Surface: surface, Feature: Feature{POS: POSBoundary}}
}

func toks(surfaces ...string) []Token {
	out := make([]Token, len(surfaces))
	for i, s := range surfaces {
		switch s {
		case SurfaceBOS, SurfaceEOS:
			out[i] = boundary(s)
		default:
			out[i] = tok(s, "名詞")
		}
	}
	return out
}

func surfaces(c Chunk) []string {
	out := make([]string, len(c))
	for i, t := range c {
		out[i] = t.Surface
	}
	return out
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
