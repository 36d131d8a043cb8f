package generator

import "testing"

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		chain Chain
		want  string
	}{
		{
			name: "overlap skipped",
			chain: Chain{
				{0, Chunk{boundary(SurfaceBOS), tok("猫", "名詞")}},
				{1, Chunk{tok("猫", "名詞"), tok("が", POSParticle)}},
				{1, Chunk{tok("が", POSParticle), tok("鳴い", "動詞")}},
			},
			want: "猫が鳴い",
		},
		{
			name:  "EOS BOS becomes newline",
			chain: Chain{{0, Chunk{tok("a", "名詞"), boundary(SurfaceEOS), boundary(SurfaceBOS), tok("b", "名詞")}}},
			want:  "a\nb",
		},
		{
			name:  "lone boundaries vanish",
			chain: Chain{{0, Chunk{boundary(SurfaceBOS), tok("猫", "名詞"), boundary(SurfaceEOS)}}},
			want:  "猫",
		},
		{
			name:  "emoji code before alnum",
			chain: Chain{{0, Chunk{tok(":smile:", POSEmoji), tok("abc", "名詞")}}},
			want:  ":smile:" + joiner + "abc",
		},
		{
			name:  "latin words spaced",
			chain: Chain{{0, Chunk{tok("hello", "名詞"), tok("world", "名詞")}}},
			want:  "hello world",
		},
		{
			name:  "single letter not spaced",
			chain: Chain{{0, Chunk{tok("a", "名詞"), tok("b", "名詞")}}},
			want:  "ab",
		},
		{
			name: "previous token within chunk only",
			chain: Chain{
				{0, Chunk{tok("hello", "名詞")}},
				{0, Chunk{tok("world", "名詞")}},
			},
			want: "helloworld",
		},
		{
			name:  "fallback covered by overlap",
			chain: Chain{{0, Chunk{boundary(SurfaceBOS), tok("猫", "名詞")}}, {1, fallbackChunk()}},
			want:  "猫",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.chain); got != tt.want {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}
