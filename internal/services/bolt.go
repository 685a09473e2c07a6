package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltCache implements the reply cache using a BoltDB backend. Replies are keyed by the normalised
// question so that repeated visitor questions do not reach the LLM provider again until they expire.
type BoltCache struct {
	db  *bolt.DB
	ttl time.Duration

	now func() time.Time
}

type cacheEntry struct {
	Question string    `json:"question"`
	Reply    string    `json:"reply"`
	StoredAt time.Time `json:"storedAt"`
}

var (
	repliesBucket = []byte("replies")
	metaBucket    = []byte("meta")
	promptKey     = []byte("promptHash")
)

// NewBoltCache opens, or creates with 0600 permissions, the cache database at path. A zero ttl keeps
// entries forever. Replies are only valid for the system prompt they were produced under: when
// systemPrompt differs from the one the database was last opened with, every cached reply is dropped.
func NewBoltCache(path string, ttl time.Duration, systemPrompt string) (BoltCache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltCache{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	sum := sha256.Sum256([]byte(systemPrompt))
	hash := []byte(hex.EncodeToString(sum[:]))

	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if !bytes.Equal(meta.Get(promptKey), hash) {
			if tx.Bucket(repliesBucket) != nil {
				if err := tx.DeleteBucket(repliesBucket); err != nil {
					return err
				}
			}
			if err := meta.Put(promptKey, hash); err != nil {
				return err
			}
		}
		_, err = tx.CreateBucketIfNotExists(repliesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltCache{}, fmt.Errorf("failed to create replies bucket: %w", err)
	}

	return BoltCache{db: db, ttl: ttl, now: time.Now}, nil
}

// NormalizeQuestion lower-cases q, trims it and collapses inner whitespace.
func NormalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// Get returns the cached reply for question. Expired entries are reported as misses.
func (b BoltCache) Get(_ context.Context, question string) (string, bool, error) {
	key := NormalizeQuestion(question)
	if key == "" {
		return "", false, nil
	}

	var entry cacheEntry
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(repliesBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal cache entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return "", false, err
	}

	if b.ttl > 0 && b.now().Sub(entry.StoredAt) > b.ttl {
		return "", false, nil
	}
	return entry.Reply, true, nil
}

// Put stores reply for question, replacing any previous entry.
func (b BoltCache) Put(_ context.Context, question, reply string) error {
	key := NormalizeQuestion(question)
	if key == "" {
		return nil
	}

	v, err := json.Marshal(cacheEntry{
		Question: question,
		Reply:    reply,
		StoredAt: b.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(repliesBucket).Put([]byte(key), v)
	})
}

// Prune deletes expired entries and returns how many were removed.
func (b BoltCache) Prune(_ context.Context) (int, error) {
	if b.ttl <= 0 {
		return 0, nil
	}

	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(repliesBucket)
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var entry cacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal cache entry: %w", err)
			}
			if b.now().Sub(entry.StoredAt) > b.ttl {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

// Close releases the database file.
func (b BoltCache) Close() error {
	return b.db.Close()
}
