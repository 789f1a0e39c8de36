package storage

import (
	"context"
	"sync"
)

// MemoryClient is a KVClient that keeps values in process memory.
// It backs the "memory" store driver and the tests.
type MemoryClient struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryClient creates an empty in-memory store
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{values: make(map[string]string)}
}

// Method Get is a KVClient implementation for reading an in-memory key.
func (c *MemoryClient) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.values[key]
	return value, ok, nil
}

// Method Set is a KVClient implementation for writing an in-memory key.
func (c *MemoryClient) Set(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[key] = value
	return nil
}

// Method Ping is a KVClient implementation; the memory store is always reachable.
func (c *MemoryClient) Ping(context.Context) error {
	return nil
}

// Method Close is a KVClient implementation; it drops all values.
func (c *MemoryClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values = make(map[string]string)
	return nil
}
