package generator

import "errors"

// 生成请求的错误分类；均只影响单次请求。
var (
	// ErrEmptyCorpus: 所有输入都没有产出 chunk（被过滤或清洗后为空）。
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNoStartCandidate: 存在 chunk，但没有以 BOS 开头且次词非助词的起点。
	ErrNoStartCandidate = errors.New("no start candidate")
	// ErrRetryExhausted: 在尝试上限内没有得到可接受的结果。
	ErrRetryExhausted = errors.New("retry exhausted")
	// ErrTokenizer: 分词器拒绝或处理失败。
	ErrTokenizer = errors.New("tokenizer failure")
)
