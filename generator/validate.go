package generator

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinResultLength 是可接受结果的最短字数。
const MinResultLength = 5

var bracketPairs = [][2]string{
	{"「", "」"},
	{"【", "】"},
	{"[", "]"},
	{"(", ")"},
	{"『", "』"},
	{"{", "}"},
	{"（", "）"},
}

// BracketsBalanced 报告每种括号的左右数量是否相等。
func BracketsBalanced(s string) bool {
	for _, p := range bracketPairs {
		if strings.Count(s, p[0]) != strings.Count(s, p[1]) {
			return false
		}
	}
	return true
}

var noisePattern = regexp.MustCompile(`^[0-9A-z\n ]+$`)

// isNoise: 只由英数字、空格、换行组成的输入不参与语料。
func isNoise(s string) bool {
	return noisePattern.MatchString(s)
}

func isCopy(result string, inputs []string) bool {
	for _, in := range inputs {
		if in == result {
			return true
		}
	}
	return false
}

// rejectReason 返回结果不可接受的原因；空串表示通过结构检查。
// chunk 数检查需要重新分词，由调用方最后进行。
func rejectReason(result string, inputs []string) string {
	switch {
	case result == "":
		return "empty"
	case !BracketsBalanced(result):
		return "unbalanced brackets"
	case utf8.RuneCountInString(result) < MinResultLength:
		return "too short"
	case isCopy(result, inputs):
		return "duplicate of an input"
	}
	return ""
}
