package store

import (
	"context"
	"errors"
	"time"

	"github.com/signdrop/internal/db/models"
	"gorm.io/gorm"
)

// GormStore is the durable DocumentStore, backed by Postgres. The
// database commit is the durability point for every mutation, and the
// signed transition is a single conditional UPDATE so the row's status
// check and write are one atomic statement.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, doc *models.Document) error {
	err := s.db.WithContext(ctx).Create(doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *GormStore) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) GetByToken(ctx context.Context, token string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, "signing_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormStore) TransitionToSigned(ctx context.Context, id, signedFile string, signedAt time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      models.StatusSigned,
			"signed_file": signedFile,
			"signed_at":   signedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}
	// Lost the race or the id is unknown; look at the row to tell which.
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
