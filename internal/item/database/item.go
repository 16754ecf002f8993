package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"proxi/internal/database"
	"proxi/internal/item/model"
)

const (
	datasetKeys = "dataset:keys:"
	prefix      = "dataset:"
)

type FilterFn func(item model.Item) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the names of all datasets registered in the storage.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

func (db *DB) Store(_ context.Context, item model.Item) error {
	var b *bolt.Bucket
	bytes, err := json.Marshal(item)
	if err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + item.Dataset))
		if b == nil {
			b, err = tx.CreateBucket([]byte(prefix + item.Dataset))
			if err != nil {
				return fmt.Errorf("create bucket: %w", err)
			}
		}
		if err := b.Put([]byte(item.ID.String()), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		b = tx.Bucket([]byte(datasetKeys))
		if b == nil {
			b, err = tx.CreateBucket([]byte(datasetKeys))
			if err != nil {
				return fmt.Errorf("unable create datasets bucket: %w", err)
			}
		}
		if err := b.Put([]byte(prefix+item.Dataset), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to datasets bucket: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) AppendMany(_ context.Context, items []model.Item) error {
	var b *bolt.Bucket
	if err := db.sDB.DB.Batch(func(tx *bolt.Tx) error {
		for _, item := range items {
			b = tx.Bucket([]byte(prefix + item.Dataset))
			if b == nil {
				datasetBucket, err := tx.CreateBucket([]byte(prefix + item.Dataset))
				if err != nil {
					return fmt.Errorf("create bucket: %w", err)
				}
				b = datasetBucket
			}
			bytes, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID.String()), bytes); err != nil {
				return fmt.Errorf("put to bucket error: %w", err)
			}
			b = tx.Bucket([]byte(datasetKeys))
			if b == nil {
				keysBucket, err := tx.CreateBucket([]byte(datasetKeys))
				if err != nil {
					return fmt.Errorf("unable create datasets bucket: %w", err)
				}
				b = keysBucket
			}
			if err := b.Put([]byte(prefix+item.Dataset), []byte{0x0}); err != nil {
				return fmt.Errorf("unable put to datasets bucket: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("batch transaction error: %v", err)
	}

	return nil
}

func (db *DB) DeleteMany(_ context.Context, items []model.Item) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		for _, item := range items {
			b := tx.Bucket([]byte(prefix + item.Dataset))
			if b == nil {
				continue
			}
			if err := b.Delete([]byte(item.ID.String())); err != nil {
				return fmt.Errorf("unable delete: %w", err)
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) Delete(_ context.Context, item model.Item) error {
	var b *bolt.Bucket
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b = tx.Bucket([]byte(prefix + item.Dataset))
		if b == nil {
			return nil
		}

		return b.Delete([]byte(item.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %v", err)
	}

	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Item, error) {
	var (
		keys  []string
		items []model.Item
	)
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(datasetKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}

		for _, key := range keys {
			b := tx.Bucket([]byte(key))
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				var m model.Item
				if err := json.Unmarshal(v, &m); err != nil {
					return fmt.Errorf("item unmarshal error, %q", err)
				}
				if filter == nil || filter(m) {
					items = append(items, m)
				}
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return items, nil
}

func (db *DB) CountByDataset(dataset string) (int, error) {
	var length int
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + dataset))
		if b == nil {
			length = 0
			return nil
		}
		stats := b.Stats()
		length = stats.KeyN
		return nil
	}); err != nil {
		return 0, fmt.Errorf("view transaction error: %v", err)
	}

	return length, nil
}

func (db *DB) FindByDataset(dataset string, filter FilterFn) ([]model.Item, error) {
	var list []model.Item
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + dataset))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item model.Item
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("json unmarshal error, %q", err)
			}
			if filter == nil || filter(item) {
				list = append(list, item)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %v", err)
	}

	return list, nil
}
