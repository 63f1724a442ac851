// Package session persists chat conversations in a bbolt file.
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/smartclassroom/backend/core/chat"
	"github.com/smartclassroom/backend/core/genai"
)

var conversationsBucket = []byte("Conversations")

type BoltStore struct {
	db *bbolt.DB
}

var _ chat.SessionStore = (*BoltStore)(nil) // interface compliance check

// Open opens (or creates) the store file at path.
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating sessions directory")
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening sessions store")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating conversations bucket")
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) GetConversation(_ context.Context, id string) (chat.Conversation, error) {
	var conv chat.Conversation
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(conversationsBucket).Get([]byte(id))
		if v == nil {
			return chat.ErrNotFound
		}
		return json.Unmarshal(v, &conv)
	})
	if err != nil {
		if err == chat.ErrNotFound {
			return chat.Conversation{}, err
		}
		return chat.Conversation{}, errors.Wrap(err, "reading conversation")
	}
	return conv, nil
}

func (s *BoltStore) SaveConversation(_ context.Context, conv chat.Conversation) error {
	b, err := json.Marshal(conv)
	if err != nil {
		return errors.Wrap(err, "encoding conversation")
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(conversationsBucket).Put([]byte(conv.ID), b)
	})
	return errors.Wrap(err, "saving conversation")
}

func (s *BoltStore) AppendMessages(_ context.Context, id string, userID int, msgs []genai.Message, at time.Time) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(conversationsBucket)
		v := b.Get([]byte(id))
		if v == nil {
			return chat.ErrNotFound
		}
		var conv chat.Conversation
		if err := json.Unmarshal(v, &conv); err != nil {
			return errors.Wrap(err, "decoding conversation")
		}
		if conv.UserID != userID {
			return chat.ErrNotFound
		}
		conv.History = append(conv.History, msgs...)
		conv.UpdatedAt = at
		enc, err := json.Marshal(conv)
		if err != nil {
			return errors.Wrap(err, "encoding conversation")
		}
		return b.Put([]byte(id), enc)
	})
	if err != nil {
		if err == chat.ErrNotFound {
			return err
		}
		return errors.Wrap(err, "appending to conversation")
	}
	return nil
}
