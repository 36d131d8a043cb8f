package generator

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// goldmark 之上的 MFM 行内语法节点。
var (
	kindEmojiCodeInline = ast.NewNodeKind("MFMEmojiCode")
	kindMentionInline   = ast.NewNodeKind("MFMMention")
	kindHashtagInline   = ast.NewNodeKind("MFMHashtag")
	kindFnInline        = ast.NewNodeKind("MFMFn")
	kindTagInline       = ast.NewNodeKind("MFMTag")
	kindMathInline      = ast.NewNodeKind("MFMMathInline")
	kindSearchBlock     = ast.NewNodeKind("MFMSearch")
	kindMathBlock       = ast.NewNodeKind("MFMMathBlock")
)

var inlineKinds = map[ast.NodeKind]NodeKind{
	kindEmojiCodeInline: KindEmojiCode,
	kindMentionInline:   KindMention,
	kindHashtagInline:   KindHashtag,
	kindFnInline:        KindFn,
	kindMathInline:      KindMathInline,
	kindSearchBlock:     KindSearch,
	kindMathBlock:       KindMathBlock,
}

// <center> 等 MFM 标签到节点类型。
var tagKinds = map[string]NodeKind{
	"center": KindCenter,
	"small":  KindSmall,
	"plain":  KindPlain,
	"i":      KindItalic,
	"s":      KindStrike,
}

type mfmInline struct {
	ast.BaseInline
	kind  ast.NodeKind
	props map[string]string
	tag   string
	body  string
}

func (n *mfmInline) Kind() ast.NodeKind { return n.kind }

func (n *mfmInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, n.props, nil)
}

var (
	emojiCodePattern = regexp.MustCompile(`^:([a-zA-Z0-9_+\-]+):`)
	mentionPattern   = regexp.MustCompile(`^@([a-zA-Z0-9_]+(?:[a-zA-Z0-9_.\-]*[a-zA-Z0-9_])?)(?:@([a-zA-Z0-9_\-]+(?:\.[a-zA-Z0-9_\-]+)+))?`)
	hashtagPattern   = regexp.MustCompile(`^#([^\s.,!?'"#:/\[\]【】()「」（）<>]+)`)
	fnHeadPattern    = regexp.MustCompile(`^\$\[([a-zA-Z0-9_]+)(?:\.([^\s\]]*))? `)
	digitsPattern    = regexp.MustCompile(`^[0-9]+$`)
	tagOpenPattern   = regexp.MustCompile(`^<(center|small|plain|i|s)>`)
	searchPattern    = regexp.MustCompile(`^(.+?)[ 　]+(?i:検索|\[検索\]|search|\[search\])$`)
)

// patternParser 把一个触发字符映射为 MFM 行内节点；match 返回消耗的字节数。
// wordStart 为 true 时，紧跟在 ASCII 字母数字之后不生效。
type patternParser struct {
	trigger   byte
	wordStart bool
	match     func(line []byte) (int, *mfmInline)
}

func (p *patternParser) Trigger() []byte { return []byte{p.trigger} }

func (p *patternParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if prev := block.PrecendingCharacter(); p.wordStart && prev < unicode.MaxASCII && isAlnum(prev) {
		return nil
	}
	line, _ := block.PeekLine()
	n, node := p.match(line)
	if node == nil {
		return nil
	}
	block.Advance(n)
	return node
}

func isAlnum(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func matchEmojiCode(line []byte) (int, *mfmInline) {
	m := emojiCodePattern.FindSubmatch(line)
	if m == nil {
		return 0, nil
	}
	return len(m[0]), &mfmInline{kind: kindEmojiCodeInline, props: map[string]string{"name": string(m[1])}}
}

func matchMention(line []byte) (int, *mfmInline) {
	m := mentionPattern.FindSubmatch(line)
	if m == nil {
		return 0, nil
	}
	props := map[string]string{"username": string(m[1]), "acct": string(m[0])}
	if len(m[2]) > 0 {
		props["host"] = string(m[2])
	}
	return len(m[0]), &mfmInline{kind: kindMentionInline, props: props}
}

func matchHashtag(line []byte) (int, *mfmInline) {
	m := hashtagPattern.FindSubmatch(line)
	if m == nil || digitsPattern.Match(m[1]) {
		return 0, nil
	}
	return len(m[0]), &mfmInline{kind: kindHashtagInline, props: map[string]string{"hashtag": string(m[1])}}
}

// matchFn 解析 $[name.args body]，body 内允许嵌套的方括号。
func matchFn(line []byte) (int, *mfmInline) {
	m := fnHeadPattern.FindSubmatch(line)
	if m == nil {
		return 0, nil
	}
	depth := 1
	for i := len(m[0]); i < len(line); i++ {
		switch line[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				props := map[string]string{"name": string(m[1])}
				if len(m[2]) > 0 {
					props["args"] = string(m[2])
				}
				body := string(line[len(m[0]):i])
				return i + 1, &mfmInline{kind: kindFnInline, props: props, body: body}
			}
		case '\n':
			return 0, nil
		}
	}
	return 0, nil
}

// matchTag 解析同一行内闭合的 <center> <small> <plain> <i> <s>，同名标签可嵌套。
// 未闭合时交回 goldmark 的 RawHTML，标签本身被忽略而正文保留。
func matchTag(line []byte) (int, *mfmInline) {
	m := tagOpenPattern.FindSubmatch(line)
	if m == nil {
		return 0, nil
	}
	name := string(m[1])
	open, end := "<"+name+">", "</"+name+">"
	depth := 1
	for i := len(m[0]); i < len(line) && line[i] != '\n'; i++ {
		rest := line[i:]
		switch {
		case bytes.HasPrefix(rest, []byte(open)):
			depth++
		case bytes.HasPrefix(rest, []byte(end)):
			depth--
			if depth == 0 {
				return i + len(end), &mfmInline{kind: kindTagInline, tag: name, body: string(line[len(m[0]):i])}
			}
		}
	}
	return 0, nil
}

// matchMath 解析 \( formula \)。
func matchMath(line []byte) (int, *mfmInline) {
	if !bytes.HasPrefix(line, []byte(`\(`)) {
		return 0, nil
	}
	i := bytes.Index(line[2:], []byte(`\)`))
	if i < 0 || bytes.IndexByte(line[2:2+i], '\n') >= 0 {
		return 0, nil
	}
	formula := string(line[2 : 2+i])
	return i + 4, &mfmInline{kind: kindMathInline, props: map[string]string{"formula": formula}}
}

// mfmBlock 承载检索行与数学块，两者都不再做行内解析。
type mfmBlock struct {
	ast.BaseBlock
	kind   ast.NodeKind
	props  map[string]string
	body   strings.Builder
	closed bool
}

func (n *mfmBlock) Kind() ast.NodeKind { return n.kind }

func (n *mfmBlock) IsRaw() bool { return true }

func (n *mfmBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, n.props, nil)
}

// searchParser 识别整行的「<query> 検索」。
type searchParser struct{}

func (searchParser) Trigger() []byte { return nil }

func (searchParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	line, seg := reader.PeekLine()
	content := util.TrimRightSpace(line[pos:])
	m := searchPattern.FindSubmatch(content)
	if m == nil {
		return nil, parser.NoChildren
	}
	reader.Advance(seg.Len() - 1)
	return &mfmBlock{kind: kindSearchBlock, props: map[string]string{
		"query":   string(m[1]),
		"content": string(content),
	}}, parser.NoChildren
}

func (searchParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (searchParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (searchParser) CanInterruptParagraph() bool { return true }

func (searchParser) CanAcceptIndentedLine() bool { return false }

// mathBlockParser 识别以行首 \[ 开始、以 \] 结束的数学块，可跨行。
type mathBlockParser struct{}

func (mathBlockParser) Trigger() []byte { return []byte{'\\'} }

func (mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	line, seg := reader.PeekLine()
	if !bytes.HasPrefix(line[pos:], []byte(`\[`)) {
		return nil, parser.NoChildren
	}
	node := &mfmBlock{kind: kindMathBlock}
	rest := line[pos+2:]
	if i := bytes.Index(rest, []byte(`\]`)); i >= 0 {
		node.body.Write(rest[:i])
		node.closed = true
	} else {
		node.body.Write(rest)
	}
	reader.Advance(seg.Len() - 1)
	return node, parser.NoChildren
}

func (mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*mfmBlock)
	if n.closed {
		return parser.Close
	}
	line, _ := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	if i := bytes.Index(line, []byte(`\]`)); i >= 0 {
		n.body.Write(line[:i])
		n.closed = true
		reader.Advance(i + 2)
		return parser.Close
	}
	n.body.Write(line)
	reader.Advance(len(bytes.TrimRight(line, "\r\n")))
	return parser.Continue | parser.NoChildren
}

func (mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	n := node.(*mfmBlock)
	n.props = map[string]string{"formula": strings.TrimSpace(n.body.String())}
}

func (mathBlockParser) CanInterruptParagraph() bool { return true }

func (mathBlockParser) CanAcceptIndentedLine() bool { return false }

// Parser 把投稿文本解析为 Node 树（MFM 子集，基于 goldmark）。
type Parser struct {
	md goldmark.Markdown
}

// 不注册 HTML 块解析器：行首的 <center> 交给 matchTag 处理。
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithParser(parser.NewParser(
			parser.WithBlockParsers(
				util.Prioritized(parser.NewSetextHeadingParser(), 100),
				util.Prioritized(parser.NewThematicBreakParser(), 200),
				util.Prioritized(parser.NewListParser(), 300),
				util.Prioritized(parser.NewListItemParser(), 400),
				util.Prioritized(parser.NewCodeBlockParser(), 500),
				util.Prioritized(parser.NewATXHeadingParser(), 600),
				util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
				util.Prioritized(parser.NewBlockquoteParser(), 800),
				util.Prioritized(mathBlockParser{}, 850),
				util.Prioritized(searchParser{}, 900),
				util.Prioritized(parser.NewParagraphParser(), 1000),
			),
			parser.WithInlineParsers(parser.DefaultInlineParsers()...),
			parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
		)),
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		goldmark.WithParserOptions(parser.WithInlineParsers(
			util.Prioritized(&patternParser{trigger: '\\', match: matchMath}, 130),
			util.Prioritized(&patternParser{trigger: '<', match: matchTag}, 140),
			util.Prioritized(&patternParser{trigger: ':', wordStart: true, match: matchEmojiCode}, 150),
			util.Prioritized(&patternParser{trigger: '@', wordStart: true, match: matchMention}, 160),
			util.Prioritized(&patternParser{trigger: '#', wordStart: true, match: matchHashtag}, 170),
			util.Prioritized(&patternParser{trigger: '$', wordStart: true, match: matchFn}, 180),
		)),
	)
	return &Parser{md: md}
}

// Parse 返回顶层节点序列；块之间以换行文本相连。
func (p *Parser) Parse(src string) []Node {
	source := []byte(src)
	doc := p.md.Parser().Parse(text.NewReader(source))
	return p.blocks(doc, source)
}

func (p *Parser) blocks(parent ast.Node, source []byte) []Node {
	var out []Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		nodes := p.block(c, source)
		if len(nodes) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, textNode("\n"))
		}
		out = append(out, nodes...)
	}
	return mergeText(out)
}

func (p *Parser) block(n ast.Node, source []byte) []Node {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return p.inlines(n, source)
	case *ast.Blockquote:
		return []Node{{Kind: KindQuote, Children: p.blocks(n, source)}}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return []Node{{Kind: KindCodeBlock, Props: map[string]string{"code": string(linesValue(n, source))}}}
	case *mfmBlock:
		return []Node{{Kind: inlineKinds[n.kind], Props: n.props}}
	case *ast.ThematicBreak:
		return nil
	default:
		return p.blocks(n, source)
	}
}

func (p *Parser) inlines(parent ast.Node, source []byte) []Node {
	var out []Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Text:
			s := string(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				s += "\n"
			}
			out = append(out, textNode(s))
		case *ast.String:
			out = append(out, textNode(string(n.Value)))
		case *ast.Emphasis:
			kind := KindItalic
			if n.Level >= 2 {
				kind = KindBold
			}
			out = append(out, Node{Kind: kind, Children: p.inlines(n, source)})
		case *east.Strikethrough:
			out = append(out, Node{Kind: KindStrike, Children: p.inlines(n, source)})
		case *ast.CodeSpan:
			out = append(out, Node{Kind: KindInlineCode, Props: map[string]string{"code": childText(n, source)}})
		case *ast.Link:
			out = append(out, Node{Kind: KindLink, Props: map[string]string{"url": string(n.Destination)}, Children: p.inlines(n, source)})
		case *ast.Image:
			out = append(out, Node{Kind: KindLink, Props: map[string]string{"url": string(n.Destination)}, Children: p.inlines(n, source)})
		case *ast.AutoLink:
			out = append(out, Node{Kind: KindURL, Props: map[string]string{"url": string(n.URL(source))}})
		case *mfmInline:
			out = append(out, p.mfmNode(n))
		}
	}
	return mergeText(out)
}

func (p *Parser) mfmNode(n *mfmInline) Node {
	switch n.kind {
	case kindFnInline:
		return Node{Kind: KindFn, Props: n.props, Children: p.Parse(n.body)}
	case kindTagInline:
		node := Node{Kind: tagKinds[n.tag]}
		switch {
		case n.body == "":
		case node.Kind == KindPlain:
			node.Children = []Node{textNode(n.body)}
		default:
			node.Children = p.Parse(n.body)
		}
		return node
	}
	return Node{Kind: inlineKinds[n.kind], Props: n.props}
}

func childText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}

func linesValue(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

// mergeText 合并相邻文本节点，再把 Unicode 绘文字拆成独立节点。
func mergeText(nodes []Node) []Node {
	var out []Node
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, splitEmoji(buf.String())...)
		buf.Reset()
	}
	for _, n := range nodes {
		if n.Kind == KindText {
			buf.WriteString(n.Props["text"])
			continue
		}
		flush()
		out = append(out, n)
	}
	flush()
	return out
}

func splitEmoji(s string) []Node {
	var out []Node
	var buf strings.Builder
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if !isEmojiCluster(g.Runes()) {
			buf.WriteString(g.Str())
			continue
		}
		if buf.Len() > 0 {
			out = append(out, textNode(buf.String()))
			buf.Reset()
		}
		out = append(out, Node{Kind: KindUnicodeEmoji, Props: map[string]string{"emoji": g.Str()}})
	}
	if buf.Len() > 0 {
		out = append(out, textNode(buf.String()))
	}
	return out
}

// emojiPresentation 为 BMP 中默认以绘文字呈现的码位区间。
var emojiPresentation = []struct{ lo, hi rune }{
	{0x231A, 0x231B}, {0x23E9, 0x23EC}, {0x23F0, 0x23F0}, {0x23F3, 0x23F3},
	{0x25FD, 0x25FE}, {0x2614, 0x2615}, {0x2648, 0x2653}, {0x267F, 0x267F},
	{0x2693, 0x2693}, {0x26A1, 0x26A1}, {0x26AA, 0x26AB}, {0x26BD, 0x26BE},
	{0x26C4, 0x26C5}, {0x26CE, 0x26CE}, {0x26D4, 0x26D4}, {0x26EA, 0x26EA},
	{0x26F2, 0x26F3}, {0x26F5, 0x26F5}, {0x26FA, 0x26FA}, {0x26FD, 0x26FD},
	{0x2705, 0x2705}, {0x270A, 0x270B}, {0x2728, 0x2728}, {0x274C, 0x274C},
	{0x274E, 0x274E}, {0x2753, 0x2755}, {0x2757, 0x2757}, {0x2795, 0x2797},
	{0x27B0, 0x27B0}, {0x27BF, 0x27BF}, {0x2B1B, 0x2B1C}, {0x2B50, 0x2B50},
	{0x2B55, 0x2B55},
}

func isEmojiCluster(rs []rune) bool {
	if len(rs) == 0 {
		return false
	}
	if len(rs) > 1 {
		for _, r := range rs[1:] {
			// VS16、组合键帽、ZWJ 序列
			if r == 0xFE0F || r == 0x20E3 || r == 0x200D {
				return true
			}
		}
	}
	r := rs[0]
	if r >= 0x1F000 && r <= 0x1FAFF {
		return true
	}
	for _, rg := range emojiPresentation {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}
