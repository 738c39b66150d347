package editor

import (
	"context"
	"slices"
	"sync"
)

type MemoryKV struct { // implements KV
	values sync.Map
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{}
}

func (m *MemoryKV) Load(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.values.Load(key); ok {
		return slices.Clone(v.([]byte)), nil
	}
	return nil, nil
}

func (m *MemoryKV) Save(_ context.Context, key string, value []byte) error {
	m.values.Store(key, slices.Clone(value))
	return nil
}
