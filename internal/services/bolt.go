package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grambudget/grambudget/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB implements the NewsStore interface using a BoltDB backend, so the last fetched headlines survive a
// restart and the upstream news API is not hit on every boot.
type BoltDB struct {
	db *bolt.DB
}

// NewsSnapshot is a set of articles together with the moment they were fetched from upstream.
type NewsSnapshot struct {
	Articles  []models.NewsArticle `json:"articles"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

var (
	newsBucket = []byte("news")
	latestKey  = []byte("latest")
)

// NewBoltDB creates a new BoltDB instance with the specified file path. It initializes the database
// with required buckets and returns an error if the database cannot be opened or initialized. The
// database file is created with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(newsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltDB{}, fmt.Errorf("failed to create news bucket: %w", err)
	}

	return BoltDB{db: db}, nil
}

// LatestNews returns the most recently stored snapshot. The boolean is false when nothing has been
// stored yet.
func (b BoltDB) LatestNews(context.Context) (NewsSnapshot, bool, error) {
	var (
		snap  NewsSnapshot
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(newsBucket)
		if bk == nil {
			return nil
		}

		v := bk.Get(latestKey)
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &snap); err != nil {
			return fmt.Errorf("failed to unmarshal news snapshot: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return NewsSnapshot{}, false, err
	}
	return snap, found, nil
}

// StoreNews replaces the stored snapshot.
func (b BoltDB) StoreNews(_ context.Context, snap NewsSnapshot) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(newsBucket)
		if bk == nil {
			return fmt.Errorf("bucket %s not found", newsBucket)
		}

		v, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to marshal news snapshot: %w", err)
		}

		return bk.Put(latestKey, v)
	})
}

// Close releases the database file lock.
func (b BoltDB) Close() error {
	return b.db.Close()
}
