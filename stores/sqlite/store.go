package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"marker-mind/core"

	"github.com/sirupsen/logrus"
)

type sqliteStore struct {
	db *sql.DB
}

const boardsTable = `
CREATE TABLE IF NOT EXISTS boards (
	id TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	name TEXT,
	objects BLOB NOT NULL,
	revision INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (owner_id, id)
);`

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}
	// SQLite allows a single writer; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(boardsTable); err != nil {
		log.Fatalf("failed to create boards table: %v", err)
	}

	logrus.WithField("driver", driverName).Debug("SQLite store opened")
	return &sqliteStore{db}
}

func (s *sqliteStore) List(ctx context.Context, ownerID string) ([]*core.Board, error) {
	log := logrus.WithField("owner_id", ownerID)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, revision, created_at, updated_at FROM boards WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		log.WithError(err).Error("Failed to list boards")
		return nil, err
	}
	defer rows.Close()

	boards := []*core.Board{}
	for rows.Next() {
		b := core.Board{OwnerID: ownerID}
		var created, updated int64
		if err := rows.Scan(&b.ID, &b.Name, &b.Revision, &created, &updated); err != nil {
			return nil, err
		}
		b.CreatedAt, b.UpdatedAt = fromUnix(created), fromUnix(updated)
		boards = append(boards, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Infof("Listed %d boards", len(boards))
	return boards, nil
}

func (s *sqliteStore) Get(ctx context.Context, ownerID, id string) (*core.Board, error) {
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id})

	b := core.Board{ID: id, OwnerID: ownerID}
	var objects []byte
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT name, objects, revision, created_at, updated_at FROM boards WHERE owner_id = ? AND id = ?",
		ownerID, id).Scan(&b.Name, &objects, &b.Revision, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Board not found for owner")
			return nil, &core.NotFoundError{ID: id}
		}
		log.WithError(err).Error("Failed to retrieve board")
		return nil, err
	}
	if err := json.Unmarshal(objects, &b.Objects); err != nil {
		log.WithError(err).Error("Failed to decode board objects")
		return nil, fmt.Errorf("decode board %s: %w", id, err)
	}
	b.CreatedAt, b.UpdatedAt = fromUnix(created), fromUnix(updated)

	log.Info("Board retrieved successfully")
	return &b, nil
}

func (s *sqliteStore) Save(ctx context.Context, board *core.Board) error {
	if board.OwnerID == "" {
		return fmt.Errorf("owner id cannot be empty")
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": board.OwnerID, "board_id": board.ID})

	objects, err := json.Marshal(board.Objects)
	if err != nil {
		return fmt.Errorf("encode board %s: %w", board.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	var revision, created int64
	err = tx.QueryRowContext(ctx,
		"SELECT revision, created_at FROM boards WHERE owner_id = ? AND id = ?",
		board.OwnerID, board.ID).Scan(&revision, &created)

	now := time.Now().UTC()
	switch {
	case err == nil:
		board.Revision = revision + 1
		board.CreatedAt = fromUnix(created)
		board.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			"UPDATE boards SET name = ?, objects = ?, revision = ?, updated_at = ? WHERE owner_id = ? AND id = ?",
			board.Name, objects, board.Revision, now.UnixNano(), board.OwnerID, board.ID)
	case errors.Is(err, sql.ErrNoRows):
		board.Revision = 1
		board.CreatedAt = now
		board.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			"INSERT INTO boards (id, owner_id, name, objects, revision, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			board.ID, board.OwnerID, board.Name, objects, board.Revision, now.UnixNano(), now.UnixNano())
	}
	if err != nil {
		log.WithError(err).Error("Failed to save board")
		return err
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit board")
		return err
	}
	log.WithField("revision", board.Revision).Info("Board saved successfully")
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, ownerID, id string) error {
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id})

	res, err := s.db.ExecContext(ctx, "DELETE FROM boards WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		log.WithError(err).Error("Failed to delete board")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Warn("Board not found for deletion")
		return &core.NotFoundError{ID: id}
	}

	log.Info("Board deleted successfully")
	return nil
}

// Close releases the database handle.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func fromUnix(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
