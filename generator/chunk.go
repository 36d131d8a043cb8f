package generator

// DefaultChunkSize 是窗口大小 K。
const DefaultChunkSize = 2

// lineEnders 之后开始新的一行。
var lineEnders = map[string]bool{
	"\n": true,
	"。":  true,
	"　":  true,
}

// ChunkTokens 在每一行内以步长 1 滑动大小为 size 的窗口。
// 行尾不足 size 的窗口保留，但若其首 token 是换行则跳过。
func ChunkTokens(tokens []Token, size int) []Chunk {
	if len(tokens) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(tokens) < size {
		return []Chunk{append(Chunk(nil), tokens...)}
	}

	lines := [][]Token{nil}
	for _, t := range tokens {
		last := len(lines) - 1
		lines[last] = append(lines[last], t)
		if lineEnders[t.Surface] {
			lines = append(lines, nil)
		}
	}

	var chunks []Chunk
	for _, line := range lines {
		for i, t := range line {
			if i > len(line)-size && t.Surface == "\n" {
				continue
			}
			end := min(i+size, len(line))
			chunks = append(chunks, append(Chunk(nil), line[i:end]...))
		}
	}
	return chunks
}
