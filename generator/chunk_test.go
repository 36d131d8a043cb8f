package generator

import (
	"reflect"
	"testing"
)

// TestChunkTokensShortInput 长度不足窗口时整体作为一个 chunk。
func TestChunkTokensShortInput(t *testing.T) {
	in := toks("猫")
	got := ChunkTokens(in, 2)
	if len(got) != 1 {
		t.Fatalf("want 1 chunk got %d", len(got))
	}
	if !reflect.DeepEqual([]Token(got[0]), in) {
		t.Fatalf("chunk 内容不一致: %v", surfaces(got[0]))
	}
	in[0].Surface = "犬"
	if got[0][0].Surface != "猫" {
		t.Fatalf("chunk 与输入共享底层数组")
	}
}

func TestChunkTokensEmpty(t *testing.T) {
	if got := ChunkTokens(nil, 2); got != nil {
		t.Fatalf("want nil got %v", got)
	}
}

// TestChunkTokensSliding 无行尾符时得到 len-K+1 个等长窗口。
func TestChunkTokensSliding(t *testing.T) {
	in := toks("a", "b", "c", "d", "e")
	tests := []struct {
		size int
		want [][]string
	}{
		{2, [][]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"e"}}},
		{3, [][]string{{"a", "b", "c"}, {"b", "c", "d"}, {"c", "d", "e"}, {"d", "e"}, {"e"}}},
		{5, [][]string{{"a", "b", "c", "d", "e"}, {"b", "c", "d", "e"}, {"c", "d", "e"}, {"d", "e"}, {"e"}}},
	}
	for _, tt := range tests {
		var got [][]string
		for _, c := range ChunkTokens(in, tt.size) {
			got = append(got, surfaces(c))
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("size=%d want %v got %v", tt.size, tt.want, got)
		}
	}
}

func TestChunkTokensLines(t *testing.T) {
	tests := []struct {
		name string
		in   []Token
		want [][]string
	}{
		{
			name: "句点で改行",
			in:   toks("BOS", "猫", "。", "EOS"),
			want: [][]string{{"BOS", "猫"}, {"猫", "。"}, {"。"}, {"EOS"}},
		},
		{
			name: "全角スペース",
			in:   toks("a", "　", "b", "c"),
			want: [][]string{{"a", "　"}, {"　"}, {"b", "c"}, {"c"}},
		},
		{
			name: "行末の改行は単独窓にしない",
			in:   toks("a", "b", "\n"),
			want: [][]string{{"a", "b"}, {"b", "\n"}},
		},
		{
			name: "改行だけの短い窓は捨てる",
			in:   toks("\n", "a", "b"),
			want: [][]string{{"a", "b"}, {"b"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkTokens(tt.in, 2)
			var gs [][]string
			for _, c := range got {
				gs = append(gs, surfaces(c))
			}
			if !reflect.DeepEqual(gs, tt.want) {
				t.Fatalf("want %v got %v", tt.want, gs)
			}
		})
	}
}
