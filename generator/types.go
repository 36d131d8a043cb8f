package generator

// 词性常量，与 IPA 辞书的品词名保持一致。
const (
	POSBoundary    = "BOS/EOS"
	POSEmoji       = "絵文字"
	POSParticle    = "助詞"
	POSPlaceholder = "なに"
)

const (
	SurfaceBOS = "BOS"
	SurfaceEOS = "EOS"
)

// Feature 是 token 的词性信息；Extra 承载分词器给出的其他字段。
type Feature struct {
	POS   string
	Extra map[string]any
}

// Token 是一个词法单元。ID 为 0 表示合成 token。
type Token struct {
	ID      int
	Surface string
	Feature Feature
}

// IsBoundary 判断是否为 BOS/EOS 边界 token。
func (t Token) IsBoundary() bool {
	return t.Feature.POS == POSBoundary
}

// Chunk 是同一输入中连续 token 的窗口，既作匹配键也作拼接载荷。
type Chunk []Token

// Step 记录一次拼接：MatchLength 个前导 token 与上一步末尾重叠。
type Step struct {
	MatchLength int
	Chunk       Chunk
}

// Chain 是生成过程中的步骤序列，首步以 BOS 开头。
type Chain []Step

func (c Chain) lastToken() (Token, bool) {
	if len(c) == 0 {
		return Token{}, false
	}
	chunk := c[len(c)-1].Chunk
	if len(chunk) == 0 {
		return Token{}, false
	}
	return chunk[len(chunk)-1], true
}
