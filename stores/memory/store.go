package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"marker-mind/core"

	"github.com/sirupsen/logrus"
)

// memStore keeps boards in a map per owner.
type memStore struct {
	mu sync.RWMutex
	// boards maps owner id to board id to board.
	boards map[string]map[string]*core.Board
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{boards: make(map[string]map[string]*core.Board)}
}

func (s *memStore) List(ctx context.Context, ownerID string) ([]*core.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.boards[ownerID]
	boards := make([]*core.Board, 0, len(owned))
	for _, b := range owned {
		boards = append(boards, b.ListView())
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })

	logrus.WithField("owner_id", ownerID).Infof("Listed %d boards", len(boards))
	return boards, nil
}

func (s *memStore) Get(ctx context.Context, ownerID, id string) (*core.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id})

	b, ok := s.boards[ownerID][id]
	if !ok {
		log.Warn("Board not found for owner")
		return nil, &core.NotFoundError{ID: id}
	}

	log.Info("Board retrieved successfully")
	c := *b
	return &c, nil
}

func (s *memStore) Save(ctx context.Context, board *core.Board) error {
	if board.OwnerID == "" {
		return fmt.Errorf("owner id cannot be empty")
	}
	if err := core.ValidateBoardID(board.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned, ok := s.boards[board.OwnerID]
	if !ok {
		owned = make(map[string]*core.Board)
		s.boards[board.OwnerID] = owned
	}

	now := time.Now().UTC()
	if existing, exists := owned[board.ID]; exists {
		board.CreatedAt = existing.CreatedAt
		board.Revision = existing.Revision + 1
	} else {
		board.CreatedAt = now
		board.Revision = 1
	}
	board.UpdatedAt = now

	c := *board
	owned[board.ID] = &c

	logrus.WithFields(logrus.Fields{
		"owner_id": board.OwnerID,
		"board_id": board.ID,
		"revision": board.Revision,
	}).Info("Board saved successfully")
	return nil
}

func (s *memStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id})

	if _, ok := s.boards[ownerID][id]; !ok {
		log.Warn("Board not found for deletion")
		return &core.NotFoundError{ID: id}
	}

	delete(s.boards[ownerID], id)
	log.Info("Board deleted successfully")
	return nil
}
