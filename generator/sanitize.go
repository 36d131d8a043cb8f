package generator

// Sanitize 只保留会贡献字面词语的节点（文本与绘文字），其余结构节点按规则丢弃或展开。
func Sanitize(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		out = append(out, sanitizeNode(n)...)
	}
	return out
}

func sanitizeNode(n Node) []Node {
	switch n.Kind {
	case KindText, KindEmojiCode, KindUnicodeEmoji:
		return []Node{n}
	case KindFn:
		// ruby 暂不支持
		if n.Props["name"] == "ruby" {
			return nil
		}
	case KindURL, KindMention, KindHashtag, KindLink:
		return nil
	}
	if len(n.Children) == 0 || !allKnown(n.Children) {
		return nil
	}
	var out []Node
	for _, c := range n.Children {
		out = append(out, sanitizeNode(c)...)
	}
	return out
}

func allKnown(nodes []Node) bool {
	for _, n := range nodes {
		if !n.Kind.Known() {
			return false
		}
	}
	return true
}
