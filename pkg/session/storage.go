package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/klokku/klokku-scheduler/internal/utils"
	log "github.com/sirupsen/logrus"
)

// Storage is a small persistent key/value store, the local counterpart of a
// browser's localStorage.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

type StorageImpl struct {
	db    *sql.DB
	clock utils.Clock
}

func NewStorage(db *sql.DB, clock utils.Clock) *StorageImpl {
	return &StorageImpl{db: db, clock: clock}
}

func (s *StorageImpl) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE storage_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		err := fmt.Errorf("could not read local storage key %s: %w", key, err)
		log.Error(err)
		return "", false, err
	}
	return value, true, nil
}

func (s *StorageImpl) Set(ctx context.Context, key string, value string) error {
	query := `INSERT INTO local_storage (storage_key, value, updated_at) VALUES (?, ?, ?)
              ON CONFLICT (storage_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, key, value, s.clock.Now().UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not write local storage key %s: %w", key, err)
		log.Error(err)
		return err
	}
	return nil
}

func (s *StorageImpl) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE storage_key = ?`, key)
	if err != nil {
		err := fmt.Errorf("could not remove local storage key %s: %w", key, err)
		log.Error(err)
		return err
	}
	return nil
}
