package generator

// NodeKind 是标记节点的封闭类型集合。
type NodeKind int

const (
	KindText NodeKind = iota + 1
	KindUnicodeEmoji
	KindEmojiCode
	KindURL
	KindLink
	KindMention
	KindHashtag
	KindBold
	KindItalic
	KindStrike
	KindSmall
	KindInlineCode
	KindMathInline
	KindFn
	KindPlain
	KindQuote
	KindCenter
	KindCodeBlock
	KindMathBlock
	KindSearch
)

var kindNames = map[NodeKind]string{
	KindText:         "text",
	KindUnicodeEmoji: "unicodeEmoji",
	KindEmojiCode:    "emojiCode",
	KindURL:          "url",
	KindLink:         "link",
	KindMention:      "mention",
	KindHashtag:      "hashtag",
	KindBold:         "bold",
	KindItalic:       "italic",
	KindStrike:       "strike",
	KindSmall:        "small",
	KindInlineCode:   "inlineCode",
	KindMathInline:   "mathInline",
	KindFn:           "fn",
	KindPlain:        "plain",
	KindQuote:        "quote",
	KindCenter:       "center",
	KindCodeBlock:    "blockCode",
	KindMathBlock:    "mathBlock",
	KindSearch:       "search",
}

func (k NodeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Known 报告 k 是否属于封闭集合。
func (k NodeKind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// Block 报告 k 是否为块级节点。
func (k NodeKind) Block() bool {
	switch k {
	case KindQuote, KindCenter, KindCodeBlock, KindMathBlock, KindSearch:
		return true
	}
	return false
}

// Node 是解析后的标记树节点。Props 依类型携带 text/emoji/name/url 等。
type Node struct {
	Kind     NodeKind
	Props    map[string]string
	Children []Node
}

func textNode(s string) Node {
	return Node{Kind: KindText, Props: map[string]string{"text": s}}
}
