package timeline

import (
	"context"
	"sync"
)

// DefaultCapacity 是保留的最近投稿条数。
const DefaultCapacity = 100

// Store 保存最近的投稿，作为生成语料。Recent 按时间顺序返回（旧 → 新）。
type Store interface {
	Append(ctx context.Context, notes ...string) error
	Recent(ctx context.Context, n int) ([]string, error)
}

// Memory 是进程内的有界时间线。
type Memory struct {
	mu       sync.Mutex
	notes    []string
	capacity int
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Append(_ context.Context, notes ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, notes...)
	if over := len(m.notes) - m.capacity; over > 0 {
		m.notes = append([]string(nil), m.notes[over:]...)
	}
	return nil
}

// Recent 返回最近 n 条；n <= 0 表示全部。
func (m *Memory) Recent(_ context.Context, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.notes) {
		n = len(m.notes)
	}
	return append([]string(nil), m.notes[len(m.notes)-n:]...), nil
}
