// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/solbridge-labs/solbridge/types"
)

const sessionPrefix = "session:"

// Store persists sessions as JSON records in LevelDB. Sessions survive
// process restarts; in-flight transfers can be resumed after a crash.
type Store struct {
	db *leveldb.DB
}

func NewStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewMemStore backs the store with in-memory storage.
func NewMemStore() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

func (s *Store) GetSession(id string) (*Session, error) {
	data, err := s.db.Get(sessionKey(id), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, types.NewError(types.CodeNotFound, fmt.Sprintf("session %s not found", id))
		}
		return nil, err
	}

	sess := new(Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Store) SaveSession(sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.db.Put(sessionKey(sess.ID), data, nil)
}

// ActiveSessionIDs lists sessions that have not reached a terminal state.
func (s *Store) ActiveSessionIDs() ([]string, error) {
	ids := make([]string, 0)
	iter := s.db.NewIterator(util.BytesPrefix([]byte(sessionPrefix)), nil)
	defer iter.Release()

	for iter.Next() {
		sess := new(Session)
		if err := json.Unmarshal(iter.Value(), sess); err != nil {
			return nil, err
		}
		if !sess.Status.Terminal() {
			ids = append(ids, sess.ID)
		}
	}
	return ids, iter.Error()
}
