package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

var (
	usersBucket = []byte("users")
	postsBucket = []byte("posts")
)

// BoltStore keeps users and the post log in one bbolt file.
// Users live under users/<id>; posts under posts/<id>/<unix-nanos|seq>.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(usersBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(postsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

// Users returns the UserStore view.
func (s *BoltStore) Users() UserStore { return boltUsers{s.db} }

// Posts returns the PostLog view.
func (s *BoltStore) Posts() PostLog { return boltPosts{s.db} }

type boltUsers struct{ db *bbolt.DB }

func userKey(id int64) []byte { return []byte(strconv.FormatInt(id, 10)) }

func (u boltUsers) Get(_ context.Context, userID int64) (UserRecord, error) {
	rec := UserRecord{UserID: userID}
	err := u.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(usersBucket).Get(userKey(userID))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return UserRecord{}, wrap("bolt get user", err)
	}
	return rec, nil
}

func (u boltUsers) Put(_ context.Context, rec UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return wrap("bolt encode user", err)
	}
	err = u.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(usersBucket).Put(userKey(rec.UserID), data)
	})
	if err != nil {
		return wrap("bolt put user", err)
	}
	return nil
}

func (u boltUsers) All(_ context.Context) ([]UserRecord, error) {
	var out []UserRecord
	err := u.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(usersBucket).ForEach(func(_, v []byte) error {
			var rec UserRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, wrap("bolt list users", err)
	}
	sortRecords(out)
	return out, nil
}

type boltPosts struct{ db *bbolt.DB }

func (p boltPosts) Append(_ context.Context, entry PostLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return wrap("bolt encode post", err)
	}
	err = p.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(postsBucket).CreateBucketIfNotExists(userKey(entry.UserID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 16)
		binary.BigEndian.PutUint64(key[:8], uint64(entry.Timestamp.UnixNano()))
		binary.BigEndian.PutUint64(key[8:], seq)
		return b.Put(key, data)
	})
	if err != nil {
		return wrap("bolt append post", err)
	}
	return nil
}

func (p boltPosts) All(_ context.Context) ([]PostLogEntry, error) {
	var out []PostLogEntry
	err := p.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(postsBucket)
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			return root.Bucket(k).ForEach(func(_, data []byte) error {
				var e PostLogEntry
				if err := json.Unmarshal(data, &e); err != nil {
					return nil
				}
				out = append(out, e)
				return nil
			})
		})
	})
	if err != nil {
		return nil, wrap("bolt list posts", err)
	}
	return out, nil
}

func (p boltPosts) Clear(_ context.Context) error {
	err := p.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(postsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(postsBucket)
		return err
	})
	if err != nil {
		return wrap("bolt clear posts", err)
	}
	return nil
}
