package generator

import (
	"fmt"
	"strings"
)

// maxPromptNotes 限制放进提示词的投稿条数。
const maxPromptNotes = 40

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System string
	User   string
}

// BuildStylePrompt 生成“模仿时间线写一条新投稿”的提示词。
func BuildStylePrompt(notes []string) Prompt {
	if len(notes) > maxPromptNotes {
		notes = notes[len(notes)-maxPromptNotes:]
	}
	var sb strings.Builder
	sb.WriteString("以下は最近の投稿です。\n")
	for i, n := range notes {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.ReplaceAll(n, "\n", " ")))
	}
	sb.WriteString("これらの語彙と口調を混ぜて、新しい投稿を1つだけ書いてください。")

	return Prompt{
		System: "出力は投稿本文のみ。説明・引用符・番号は付けない。どの投稿とも完全一致させない。括弧は必ず閉じる。",
		User:   sb.String(),
	}
}
