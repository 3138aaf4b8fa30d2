// Package cache decorates an embedding service with a Redis-backed vector cache.
//
// Keys combine the model name with the SHA-256 of the text, so switching
// models never returns stale vectors. Redis failures degrade to calling the
// wrapped service directly.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultTTL is how long cached vectors live.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "manualqa:emb:"

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// EmbeddingService caches vectors produced by inner.
type EmbeddingService struct {
	inner  driven.EmbeddingService
	client Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	warned atomic.Bool
}

// Connect dials Redis at url (redis://host:port/db) and verifies it with PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis failed: %w", err)
	}
	return client, nil
}

// New wraps inner with a cache stored in client.
func New(inner driven.EmbeddingService, client Client, ttl time.Duration) *EmbeddingService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EmbeddingService{inner: inner, client: client, ttl: ttl}
}

// Stats returns cache hit and miss counts.
func (s *EmbeddingService) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Embed returns the cached vector for text or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch serves cached vectors and sends only the misses to inner.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		keys[i] = s.key(text)
		if vec, ok := s.lookup(ctx, keys[i]); ok {
			out[i] = vec
			s.hits.Add(1)
			continue
		}
		s.misses.Add(1)
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("cache: inner returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = fresh[j]
		if err := s.client.Set(ctx, keys[i], encode(fresh[j]), s.ttl).Err(); err != nil {
			s.degrade(err)
		}
	}
	return out, nil
}

func (s *EmbeddingService) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.degrade(err)
		return nil, false
	}
	vec, ok := decode(data)
	if !ok || len(vec) != s.inner.Dimensions() {
		return nil, false
	}
	return vec, true
}

// degrade logs the first Redis failure; later ones are silent.
func (s *EmbeddingService) degrade(err error) {
	if s.warned.CompareAndSwap(false, true) {
		logger.Warn("Embedding cache unavailable, continuing without it: %v", err)
	}
}

func (s *EmbeddingService) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + s.inner.ModelName() + ":" + hex.EncodeToString(sum[:])
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped service. Redis is optional and not checked.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes Redis and the wrapped service.
func (s *EmbeddingService) Close() error {
	hits, misses := s.Stats()
	logger.Debug("Embedding cache: %d hits, %d misses", hits, misses)
	return errors.Join(s.client.Close(), s.inner.Close())
}

func encode(vec []float32) []byte {
	buf := make([]byte, 0, len(vec)*4)
	for _, v := range vec {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func decode(data []byte) ([]float32, bool) {
	if len(data)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, true
}
