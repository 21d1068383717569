package snapshot

import (
	"context"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vango-dev/kinesis/internal/errors"
)

const (
	bucketHTML = "html"
	bucketMeta = "meta"
)

// BoltStore keeps snapshots in a single bbolt database file.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// OpenBoltStore opens or creates the database at path. The file is locked
// while the store is open.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(path).Wrap(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketHTML, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(path).Wrap(err)
	}
	return &BoltStore{db: db, path: path}, nil
}

// Close releases the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Save implements Store.
func (s *BoltStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	if err := ValidateName(snap.Name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	meta, err := json.Marshal(fileMeta{App: snap.App, Size: len(snap.HTML), CreatedAt: snap.CreatedAt})
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(snap.Name)
		if err := tx.Bucket([]byte(bucketHTML)).Put(key, snap.HTML); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketMeta)).Put(key, meta)
	})
	if err != nil {
		return "", errors.New(errors.CodeSnapshotStore).WithDetail(snap.Name).Wrap(err)
	}
	return "bolt://" + s.path + "#" + snap.Name, nil
}

// Load implements Store.
func (s *BoltStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var snap *Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		key := []byte(name)
		html := tx.Bucket([]byte(bucketHTML)).Get(key)
		if html == nil {
			return nil
		}
		// Values are only valid inside the transaction.
		snap = &Snapshot{Name: name, HTML: append([]byte(nil), html...)}
		var meta fileMeta
		if data := tx.Bucket([]byte(bucketMeta)).Get(key); data != nil && json.Unmarshal(data, &meta) == nil {
			snap.App, snap.CreatedAt = meta.App, meta.CreatedAt
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(name).Wrap(err)
	}
	if snap == nil {
		return nil, errors.New(errors.CodeSnapshotNotFound).WithDetail(name)
	}
	return snap, nil
}

// Names returns the stored snapshot names in key order.
func (s *BoltStore) Names() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketHTML)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}
