package generator

import (
	"regexp"
	"strings"
)

// joiner 插在绘文字代码与紧随的英数字之间，代替空格。
const joiner = "\U0001D173"

var (
	emojiCodeSurface = regexp.MustCompile(`:[0-9A-z_\-]+:`)
	alnumHead        = regexp.MustCompile(`^[0-9A-z]`)
	latinRun         = regexp.MustCompile(`^[0-9A-z.!]{2,}`)
	latinHead        = regexp.MustCompile(`^[0-9A-z.!]`)
)

// Render 把链还原为字符串。每步前 MatchLength 个 token 与上一步重叠，不再输出。
func Render(chain Chain) string {
	var b strings.Builder
	for _, step := range chain {
		for i, tok := range step.Chunk {
			if i < step.MatchLength {
				continue
			}
			var prev *Token
			if i > 0 {
				prev = &step.Chunk[i-1]
			}
			b.WriteString(renderToken(prev, tok))
		}
	}
	return b.String()
}

func renderToken(prev *Token, tok Token) string {
	if tok.IsBoundary() {
		if prev != nil && prev.Surface == SurfaceEOS && tok.Surface == SurfaceBOS {
			return "\n"
		}
		return ""
	}
	if prev == nil {
		return tok.Surface
	}
	if emojiCodeSurface.MatchString(prev.Surface) && alnumHead.MatchString(tok.Surface) {
		return joiner + tok.Surface
	}
	if latinRun.MatchString(prev.Surface) && latinHead.MatchString(tok.Surface) {
		return " " + tok.Surface
	}
	return tok.Surface
}
