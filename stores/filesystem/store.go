package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"marker-mind/core"

	"github.com/sirupsen/logrus"
)

const fileExt = ".json"

// fsStore keeps one JSON file per board under <basePath>/<ownerID>/.
type fsStore struct {
	basePath string
}

// record is the on-disk form. Board hides its owner from JSON, the file
// keeps it so a copied file still says who owns it.
type record struct {
	OwnerID string `json:"ownerId"`
	*core.Board
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) ownerPath(ownerID string) string {
	return filepath.Join(s.basePath, ownerID)
}

// boardPath returns the file of a board, refusing ids that would leave the
// owner's directory.
func (s *fsStore) boardPath(ownerID, id string) (string, error) {
	if err := core.ValidateBoardID(id); err != nil {
		return "", err
	}
	ownerPath, err := filepath.Abs(s.ownerPath(ownerID))
	if err != nil {
		return "", err
	}
	filePath, err := filepath.Abs(filepath.Join(ownerPath, id+fileExt))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(filePath, ownerPath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return filePath, nil
}

func (s *fsStore) List(ctx context.Context, ownerID string) ([]*core.Board, error) {
	ownerPath := s.ownerPath(ownerID)
	log := logrus.WithField("owner_id", ownerID).WithField("path", ownerPath)

	files, err := os.ReadDir(ownerPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("Owner directory does not exist, returning empty list.")
			return []*core.Board{}, nil
		}
		log.WithError(err).Error("Failed to read owner directory")
		return nil, err
	}

	boards := make([]*core.Board, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != fileExt {
			continue
		}
		b, err := readBoard(filepath.Join(ownerPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read board file %s, skipping", file.Name())
			continue
		}
		boards = append(boards, b.ListView())
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })

	log.Infof("Listed %d boards", len(boards))
	return boards, nil
}

func (s *fsStore) Get(ctx context.Context, ownerID, id string) (*core.Board, error) {
	filePath, err := s.boardPath(ownerID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id, "path": filePath})

	b, err := readBoard(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Board file not found")
			return nil, &core.NotFoundError{ID: id}
		}
		log.WithError(err).Error("Failed to read board file")
		return nil, err
	}

	log.Info("Board retrieved successfully")
	return b, nil
}

func (s *fsStore) Save(ctx context.Context, board *core.Board) error {
	if board.OwnerID == "" {
		return fmt.Errorf("owner id cannot be empty")
	}
	filePath, err := s.boardPath(board.OwnerID, board.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": board.OwnerID, "board_id": board.ID, "path": filePath})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create owner directory")
		return err
	}

	now := time.Now().UTC()
	existing, err := readBoard(filePath)
	switch {
	case err == nil:
		board.CreatedAt = existing.CreatedAt
		board.Revision = existing.Revision + 1
	case os.IsNotExist(err):
		board.CreatedAt = now
		board.Revision = 1
	default:
		log.WithError(err).Error("Failed to read existing board")
		return err
	}
	board.UpdatedAt = now

	data, err := json.Marshal(record{OwnerID: board.OwnerID, Board: board})
	if err != nil {
		log.WithError(err).Error("Failed to marshal board for saving")
		return err
	}

	// Write to a temporary file first so readers never see a partial board.
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write board file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to replace board file")
		return err
	}

	log.WithField("revision", board.Revision).Info("Board saved successfully")
	return nil
}

func (s *fsStore) Delete(ctx context.Context, ownerID, id string) error {
	filePath, err := s.boardPath(ownerID, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id, "path": filePath})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Board file not found for deletion")
			return &core.NotFoundError{ID: id}
		}
		log.WithError(err).Error("Failed to delete board file")
		return err
	}

	log.Info("Board deleted successfully")
	return nil
}

func readBoard(filePath string) (*core.Board, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	rec := record{Board: &core.Board{}}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", filepath.Base(filePath), err)
	}
	rec.Board.OwnerID = rec.OwnerID
	return rec.Board, nil
}
