package generator

import (
	"math"
	"math/rand/v2"
)

const (
	// DefaultMaxMatchLength 是键宽上限。为 1 时 MatchLength 恒为 1。
	DefaultMaxMatchLength = 1
	// DefaultMaxSteps 是单条链的步数上限。
	DefaultMaxSteps = 50
)

// MatchLength 以反正切 S 曲线做加权随机，结果落在 [1, maxWidth]，偏向两端。
func MatchLength(r *rand.Rand, maxWidth int) int {
	const (
		n        = 5
		m        = 13
		minWidth = 1
	)
	t := math.Round(n * 2 * math.Atan(m*r.Float64()) / math.Pi)
	return int(math.Floor(float64(maxWidth-minWidth)*t/n)) + minWidth
}

// fallbackChunk 表示没有可接续的 chunk，插入一个换行。
func fallbackChunk() Chunk {
	return Chunk{{Surface: "\n", Feature: Feature{POS: POSPlaceholder}}}
}

// SelectChunk 在前导 token 与 key 逐位相同且严格长于 key 的 chunk 中均匀随机选择一个。
func SelectChunk(r *rand.Rand, corpus []Chunk, key []Token) Chunk {
	var matched []Chunk
	for _, c := range corpus {
		if len(c) > len(key) && hasPrefix(c, key) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return fallbackChunk()
	}
	return matched[r.IntN(len(matched))]
}

func hasPrefix(c Chunk, key []Token) bool {
	for i, k := range key {
		if c[i].Surface != k.Surface {
			return false
		}
	}
	return true
}

// startCandidates 返回以 BOS 开头、次 token 不是助词的 chunk。
func startCandidates(corpus []Chunk) []Chunk {
	var out []Chunk
	for _, c := range corpus {
		if len(c) > 1 && c[0].Surface == SurfaceBOS && c[0].Feature.POS == POSBoundary && c[1].Feature.POS != POSParticle {
			out = append(out, c)
		}
	}
	return out
}

func terminal(t Token) bool {
	return t.Surface == "。" || t.Surface == SurfaceEOS
}

// BuildChain 从起点 chunk 出发做随机游走，至少走一步；
// 步数达到 maxSteps 或末尾 token 为「。」/EOS 时停止。
func BuildChain(r *rand.Rand, corpus []Chunk, maxMatch, maxSteps int) (Chain, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	starts := startCandidates(corpus)
	if len(starts) == 0 {
		return nil, ErrNoStartCandidate
	}
	if maxMatch <= 0 {
		maxMatch = DefaultMaxMatchLength
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	chain := Chain{{MatchLength: 0, Chunk: starts[r.IntN(len(starts))]}}
	for steps := 0; ; {
		width := MatchLength(r, maxMatch)
		last := chain[len(chain)-1].Chunk
		key := last[max(len(last)-width, 0):]
		chain = append(chain, Step{MatchLength: width, Chunk: SelectChunk(r, corpus, key)})
		steps++

		tail, _ := chain.lastToken()
		if steps >= maxSteps || terminal(tail) {
			return chain, nil
		}
	}
}
