// Package store owns persistence and concurrency control over document
// records. All mutation goes through Create, TransitionToSigned and
// Delete; the signed transition is a compare-and-set so two concurrent
// submits of the same link can never both win.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/signdrop/internal/db/models"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document store conflict")
)

type DocumentStore interface {
	// Create inserts a new record. ErrConflict if the id or signing
	// token already exists.
	Create(ctx context.Context, doc *models.Document) error

	GetByID(ctx context.Context, id string) (*models.Document, error)
	GetByToken(ctx context.Context, token string) (*models.Document, error)

	// ListAll returns documents in creation order.
	ListAll(ctx context.Context) ([]models.Document, error)

	// TransitionToSigned atomically moves a PENDING record to SIGNED,
	// publishing the signed file reference. ErrConflict if the record
	// is already signed.
	TransitionToSigned(ctx context.Context, id, signedFile string, signedAt time.Time) error

	Delete(ctx context.Context, id string) error
}
