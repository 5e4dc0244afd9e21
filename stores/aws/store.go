package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sort"
	"strings"
	"time"

	"marker-mind/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// objectAPI is the part of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Store struct {
	s3Client objectAPI
	bucket   string
}

// record is the stored object body; the owner is part of the key but kept
// in the body as well.
type record struct {
	OwnerID string `json:"ownerId"`
	*core.Board
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func boardKey(ownerID, id string) (string, error) {
	if err := core.ValidateBoardID(id); err != nil {
		return "", err
	}
	if ownerID == "" || strings.Contains(ownerID, "/") {
		return "", fmt.Errorf("invalid owner id %q", ownerID)
	}
	return path.Join(ownerID, id), nil
}

func (s *s3Store) List(ctx context.Context, ownerID string) ([]*core.Board, error) {
	logger := logrus.WithField("owner_id", ownerID)

	prefix := ownerID + "/"
	boards := []*core.Board{}
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list boards for owner %s: %w", ownerID, err)
		}
		for _, object := range page.Contents {
			b, err := s.read(ctx, aws.ToString(object.Key))
			if err != nil {
				logger.WithError(err).Warnf("Failed to read board %s, skipping", aws.ToString(object.Key))
				continue
			}
			boards = append(boards, b.ListView())
		}
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })

	logger.Infof("Listed %d boards", len(boards))
	return boards, nil
}

func (s *s3Store) Get(ctx context.Context, ownerID, id string) (*core.Board, error) {
	key, err := boardKey(ownerID, id)
	if err != nil {
		return nil, err
	}
	b, err := s.read(ctx, key)
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id}).Warn("Board not found for owner")
			return nil, &core.NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to get board %s: %w", id, err)
	}
	return b, nil
}

func (s *s3Store) Save(ctx context.Context, board *core.Board) error {
	key, err := boardKey(board.OwnerID, board.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	existing, err := s.Get(ctx, board.OwnerID, board.ID)
	switch {
	case err == nil:
		board.CreatedAt = existing.CreatedAt
		board.Revision = existing.Revision + 1
	case errors.Is(err, core.ErrNotFound):
		board.CreatedAt = now
		board.Revision = 1
	default:
		return err
	}
	board.UpdatedAt = now

	data, err := json.Marshal(record{OwnerID: board.OwnerID, Board: board})
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save board %s: %w", board.ID, err)
	}

	logrus.WithFields(logrus.Fields{
		"owner_id": board.OwnerID,
		"board_id": board.ID,
		"revision": board.Revision,
	}).Info("Board saved successfully")
	return nil
}

func (s *s3Store) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	key, err := boardKey(ownerID, id)
	if err != nil {
		return err
	}
	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete board %s: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{"owner_id": ownerID, "board_id": id}).Info("Board deleted successfully")
	return nil
}

func (s *s3Store) read(ctx context.Context, key string) (*core.Board, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read board data: %w", err)
	}

	rec := record{Board: &core.Board{}}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board data: %w", err)
	}
	rec.Board.OwnerID = rec.OwnerID
	return rec.Board, nil
}
