package generator

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestMatchLengthRange(t *testing.T) {
	r := newTestRand()
	for i := 0; i < 1000; i++ {
		if got := MatchLength(r, 1); got != 1 {
			t.Fatalf("maxWidth=1 got %d", got)
		}
	}
	seen := map[int]bool{}
	for i := 0; i < 5000; i++ {
		got := MatchLength(r, 5)
		if got < 1 || got > 5 {
			t.Fatalf("out of range: %d", got)
		}
		seen[got] = true
	}
	if !seen[1] || !seen[5] {
		t.Fatalf("两端都应出现: %v", seen)
	}
}

func TestSelectChunk(t *testing.T) {
	corpus := []Chunk{
		Chunk(toks("猫", "が")),
		Chunk(toks("猫")),
		Chunk(toks("犬", "が")),
	}
	r := newTestRand()
	for i := 0; i < 50; i++ {
		got := SelectChunk(r, corpus, toks("猫"))
		if len(got) != 2 || got[0].Surface != "猫" || got[1].Surface != "が" {
			t.Fatalf("unexpected chunk %v", surfaces(got))
		}
	}

	got := SelectChunk(r, corpus, toks("鳥"))
	if len(got) != 1 || got[0].Surface != "\n" || got[0].Feature.POS != POSPlaceholder {
		t.Fatalf("want fallback newline, got %+v", got)
	}
}

func TestBuildChainErrors(t *testing.T) {
	tests := []struct {
		name   string
		corpus []Chunk
		want   error
	}{
		{"empty", nil, ErrEmptyCorpus},
		{"no BOS", []Chunk{Chunk(toks("猫", "が"))}, ErrNoStartCandidate},
		{"particle after BOS", []Chunk{{boundary(SurfaceBOS), tok("が", POSParticle)}}, ErrNoStartCandidate},
		{"BOS only", []Chunk{Chunk(toks(SurfaceBOS))}, ErrNoStartCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildChain(newTestRand(), tt.corpus, 1, 10)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v got %v", tt.want, err)
			}
		})
	}
}

func TestBuildChainStopsAtTerminal(t *testing.T) {
	corpus := ChunkTokens(mustTokenize(t, "猫が鳴いた。"), 2)
	r := newTestRand()
	for i := 0; i < 20; i++ {
		chain, err := BuildChain(r, corpus, 1, 50)
		if err != nil {
			t.Fatalf("BuildChain: %v", err)
		}
		if chain[0].MatchLength != 0 || chain[0].Chunk[0].Surface != SurfaceBOS {
			t.Fatalf("first step must start at BOS: %+v", chain[0])
		}
		if len(chain) < 2 {
			t.Fatalf("至少一步: %d", len(chain))
		}
		last, _ := chain.lastToken()
		if !terminal(last) {
			t.Fatalf("last token %q is not terminal", last.Surface)
		}
		if got := Render(chain); got != "猫が鳴いた。" {
			t.Fatalf("want 猫が鳴いた。 got %q", got)
		}
	}
}

func TestBuildChainStepLimit(t *testing.T) {
	// 没有终止 token 的语料只能靠步数上限停下。
	corpus := []Chunk{
		{boundary(SurfaceBOS), tok("a", "名詞")},
		Chunk(toks("a", "a")),
	}
	for _, limit := range []int{1, 3, 7} {
		chain, err := BuildChain(newTestRand(), corpus, 1, limit)
		if err != nil {
			t.Fatalf("BuildChain: %v", err)
		}
		if len(chain) != limit+1 {
			t.Fatalf("maxSteps=%d want %d steps got %d", limit, limit+1, len(chain))
		}
	}
}

func mustTokenize(t *testing.T, s string) []Token {
	t.Helper()
	ts, err := newTableTokenizer().Tokenize(s)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	return ts
}
