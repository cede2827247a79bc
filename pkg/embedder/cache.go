package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	// Path is the Badger directory. Empty means an in-memory store.
	Path string `json:"path,omitempty"`

	// TTL bounds how long a cached vector stays valid. Zero means no expiry.
	TTL time.Duration `json:"ttl,omitempty"`
}

// CachingClient wraps an embedding client with a Badger-backed cache.
// Entries are keyed by model and content hash, so switching models never
// serves stale vectors.
type CachingClient struct {
	inner Client
	db    *badger.DB
	model string
	ttl   time.Duration
}

// NewCachingClient wraps inner with a persistent embedding cache.
func NewCachingClient(inner Client, model string, config CacheConfig) (*CachingClient, error) {
	options := badger.DefaultOptions(config.Path).WithLogger(nil)
	if config.Path == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	return &CachingClient{
		inner: inner,
		db:    db,
		model: model,
		ttl:   config.TTL,
	}, nil
}

// Embed returns cached vectors where available and embeds only the misses.
func (c *CachingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))

	for i, text := range texts {
		vector, err := c.lookup(text)
		if err != nil {
			return nil, err
		}
		if vector != nil {
			embeddings[i] = vector
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return embeddings, nil
	}

	missingTexts := make([]string, len(missing))
	for i, idx := range missing {
		missingTexts[i] = texts[idx]
	}

	fresh, err := c.inner.Embed(ctx, missingTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(fresh))
	}

	for i, idx := range missing {
		embeddings[idx] = fresh[i]
		if err := c.store(texts[idx], fresh[i]); err != nil {
			return nil, err
		}
	}
	return embeddings, nil
}

// EmbedSingle returns the cached vector for text, embedding on a miss.
func (c *CachingClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the inner client's vector width.
func (c *CachingClient) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the cache and the inner client.
func (c *CachingClient) Close() error {
	dbErr := c.db.Close()
	innerErr := c.inner.Close()
	return errors.Join(dbErr, innerErr)
}

func (c *CachingClient) key(text string) []byte {
	digest := sha256.Sum256([]byte(text))
	key := make([]byte, 0, len(c.model)+1+len(digest))
	key = append(key, c.model...)
	key = append(key, ':')
	key = append(key, digest[:]...)
	return key
}

func (c *CachingClient) lookup(text string) ([]float32, error) {
	var vector []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(text))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			vector = decodeVector(value)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("embedding cache read failed: %w", err)
	}
	return vector, nil
}

func (c *CachingClient) store(text string, vector []float32) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(c.key(text), encodeVector(vector))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("embedding cache write failed: %w", err)
	}
	return nil
}

func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vector
}
