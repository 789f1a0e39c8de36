package storage

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/bookshelf/backend/internal/metrics"
	"go.uber.org/zap"
)

// DocumentStore reads and writes whole JSON collections under a single key.
//
// It fails open: a read that errors or finds malformed data yields an empty collection,
// and a write that errors is logged and dropped. Callers cannot tell whether a write succeeded.
type DocumentStore struct {
	client  KVClient
	logger  *zap.Logger
	timeout time.Duration
}

// NewDocumentStore creates a document store over the client. A zero timeout disables the per-call deadline.
func NewDocumentStore(client KVClient, logger *zap.Logger, timeout time.Duration) *DocumentStore {
	return &DocumentStore{
		client:  client,
		logger:  logger,
		timeout: timeout,
	}
}

// Load decodes the document stored under key into dst, which must be a pointer to a slice.
//
// dst is left as an empty collection when the key is absent, the read fails or the JSON is malformed.
func (s *DocumentStore) Load(ctx context.Context, key string, dst any) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, ok, err := s.client.Get(ctx, key)
	if err != nil {
		s.logger.Error("failed to read document, using empty collection", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("load")
		resetCollection(dst)
		return
	}
	if !ok || raw == "" {
		resetCollection(dst)
		return
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Error("malformed document, using empty collection", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("decode")
		resetCollection(dst)
		return
	}
	// A stored JSON null decodes to a nil slice; normalize so callers always get a collection.
	if v := reflect.ValueOf(dst).Elem(); v.Kind() == reflect.Slice && v.IsNil() {
		resetCollection(dst)
	}
}

// Save encodes v and overwrites the document stored under key. Failures are logged, never returned.
func (s *DocumentStore) Save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode document", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("encode")
		return
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, string(data)); err != nil {
		s.logger.Error("failed to save document", zap.String("key", key), zap.Error(err))
		metrics.RecordStoreError("save")
	}
}

// Ping checks the underlying client
func (s *DocumentStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx)
}

func (s *DocumentStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// resetCollection sets *dst to an empty, non-nil slice
func resetCollection(dst any) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	elem := v.Elem()
	if elem.Kind() == reflect.Slice {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
		return
	}
	elem.Set(reflect.Zero(elem.Type()))
}
