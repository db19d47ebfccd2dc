package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signdrop/internal/db/models"
	"github.com/signdrop/internal/geometry"
	"github.com/signdrop/internal/pdfengine"
	"github.com/signdrop/internal/storage"
	"github.com/signdrop/internal/store"
	"github.com/signdrop/pkg/metrics"
	"go.uber.org/zap"
)

// Workflow drives the document lifecycle: Place creates a pending
// record, Submit performs the single pending->signed transition, and
// Expired is derived at read time. The store's compare-and-set is the
// only serialization point; everything before it is free of shared
// state, so an aborted request leaves no trace.
type Workflow struct {
	store   store.DocumentStore
	blobs   storage.BlobStore
	engine  pdfengine.Engine
	logger  *zap.Logger
	metrics *metrics.Collector
	linkTTL time.Duration
	now     func() time.Time
}

func NewWorkflow(
	docStore store.DocumentStore,
	blobs storage.BlobStore,
	engine pdfengine.Engine,
	logger *zap.Logger,
	collector *metrics.Collector,
	linkTTL time.Duration,
) *Workflow {
	return &Workflow{
		store:   docStore,
		blobs:   blobs,
		engine:  engine,
		logger:  logger.With(zap.String("service", "signing_workflow")),
		metrics: collector,
		linkTTL: linkTTL,
		now:     time.Now,
	}
}

// PlaceRequest carries the uploaded PDF and the signature box in
// display space. Box.Y must already be flipped to a bottom-left origin
// at capture time; CanvasHeight is the actual rendered pixel height of
// the page, which together with the true page height yields the scale
// ratio.
type PlaceRequest struct {
	FileName     string
	PDF          []byte
	PageIndex    int
	Box          geometry.Box
	CanvasHeight float64
}

type PlaceResult struct {
	DocumentID   string
	SigningToken string
}

// SignerView is everything a signer is allowed to see before signing.
// Placement coordinates and the internal id stay server-side.
type SignerView struct {
	OriginalName string    `json:"originalName"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type DocumentSummary struct {
	ID           string                `json:"id"`
	OriginalName string                `json:"originalName"`
	Status       models.DocumentStatus `json:"status"`
	CreatedAt    time.Time             `json:"createdAt"`
	ExpiresAt    time.Time             `json:"expiresAt"`
	SignedAt     *time.Time            `json:"signedAt,omitempty"`
}

func (w *Workflow) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	start := w.now()

	pageCount, err := w.engine.PageCount(ctx, req.PDF)
	if err != nil {
		return nil, err
	}
	if req.PageIndex < 0 || req.PageIndex >= pageCount {
		return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidPage, req.PageIndex, pageCount)
	}

	pageHeight, err := w.engine.PageHeight(ctx, req.PDF, req.PageIndex)
	if err != nil {
		return nil, err
	}
	box, err := geometry.ToPageSpace(req.Box, req.CanvasHeight, pageHeight)
	if err != nil {
		return nil, err
	}

	token, err := NewSigningToken()
	if err != nil {
		return nil, err
	}

	// The file must be durable before a record references it.
	ref, err := w.blobs.Put(req.PDF, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	now := w.now().UTC()
	doc := &models.Document{
		ID:           NewDocumentID(),
		SigningToken: token,
		OriginalName: req.FileName,
		OriginalFile: ref,
		Placement: models.SignaturePlacement{
			PageIndex:  req.PageIndex,
			X:          box.X,
			Y:          box.Y,
			Width:      box.Width,
			Height:     box.Height,
			PageHeight: pageHeight,
		},
		Status:    models.StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(w.linkTTL),
	}

	if err := w.store.Create(ctx, doc); err != nil {
		// Don't leave an unreferenced blob behind.
		if derr := w.blobs.Delete(ref); derr != nil {
			w.logger.Warn("orphaned blob after failed create",
				zap.String("ref", ref), zap.Error(derr))
		}
		return nil, fmt.Errorf("create document record: %w", err)
	}

	w.metrics.IncrementCounter("documents_placed")
	w.metrics.ObserveSize("upload_bytes", float64(len(req.PDF)))
	w.metrics.ObserveLatency("place", w.now().Sub(start))
	w.logger.Info("Document placed",
		zap.String("doc_id", doc.ID),
		zap.Int("page", req.PageIndex),
		zap.Float64("x", box.X),
		zap.Float64("y", box.Y))

	return &PlaceResult{DocumentID: doc.ID, SigningToken: token}, nil
}

func (w *Workflow) Fetch(ctx context.Context, token string) (*SignerView, error) {
	doc, err := w.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := w.checkSignable(doc); err != nil {
		return nil, err
	}
	return &SignerView{OriginalName: doc.OriginalName, ExpiresAt: doc.ExpiresAt}, nil
}

func (w *Workflow) Submit(ctx context.Context, token string, signature []byte) (string, error) {
	start := w.now()

	doc, err := w.store.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	// State is re-checked here, not reused from an earlier Fetch: time
	// may have passed, or a concurrent submit may have consumed the
	// link already.
	if err := w.checkSignable(doc); err != nil {
		return "", err
	}

	original, err := w.blobs.Get(doc.OriginalFile)
	if err != nil {
		return "", fmt.Errorf("load original: %w", err)
	}

	p := doc.Placement
	stamped, err := w.engine.Stamp(ctx, original, signature, p.PageIndex, geometry.Box{
		X: p.X, Y: p.Y, Width: p.Width, Height: p.Height,
	})
	if err != nil {
		return "", err
	}

	ref, err := w.blobs.Put(stamped, ".pdf")
	if err != nil {
		return "", fmt.Errorf("store signed file: %w", err)
	}

	signedAt := w.now().UTC()
	if err := w.store.TransitionToSigned(ctx, doc.ID, ref, signedAt); err != nil {
		// The winner's file is authoritative; this render is discarded.
		if derr := w.blobs.Delete(ref); derr != nil {
			w.logger.Warn("orphaned blob after lost signing race",
				zap.String("ref", ref), zap.Error(derr))
		}
		if errors.Is(err, store.ErrConflict) {
			return "", ErrAlreadySigned
		}
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("transition to signed: %w", err)
	}

	w.metrics.IncrementCounter("documents_signed")
	w.metrics.ObserveLatency("submit", w.now().Sub(start))
	w.logger.Info("Document signed", zap.String("doc_id", doc.ID))
	return doc.ID, nil
}

func (w *Workflow) checkSignable(doc *models.Document) error {
	switch doc.StatusAt(w.now()) {
	case models.StatusSigned:
		return ErrAlreadySigned
	case models.StatusExpired:
		return ErrLinkExpired
	}
	return nil
}

// Details returns the operator view of a single document, with the
// derived status applied.
func (w *Workflow) Details(ctx context.Context, id string) (*models.Document, error) {
	doc, err := w.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc.Status = doc.StatusAt(w.now())
	return doc, nil
}

func (w *Workflow) List(ctx context.Context) ([]DocumentSummary, error) {
	docs, err := w.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := w.now()
	summaries := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, DocumentSummary{
			ID:           d.ID,
			OriginalName: d.OriginalName,
			Status:       d.StatusAt(now),
			CreatedAt:    d.CreatedAt,
			ExpiresAt:    d.ExpiresAt,
			SignedAt:     d.SignedAt,
		})
	}
	return summaries, nil
}

// Download returns the signed artifact. Only signed documents are
// downloadable.
func (w *Workflow) Download(ctx context.Context, id string) (string, []byte, error) {
	doc, err := w.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrNotFound
		}
		return "", nil, err
	}
	if doc.Status != models.StatusSigned || doc.SignedFile == "" {
		return "", nil, ErrNotSigned
	}
	data, err := w.blobs.Get(doc.SignedFile)
	if err != nil {
		return "", nil, fmt.Errorf("load signed file: %w", err)
	}
	return "signed-" + doc.OriginalName, data, nil
}

// Delete removes the record and both file blobs together. Blobs go
// first: if either removal fails the record stays, so a signing link
// never dangles on missing files.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	doc, err := w.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := w.blobs.Delete(doc.OriginalFile); err != nil {
		return fmt.Errorf("delete original: %w", err)
	}
	if doc.SignedFile != "" {
		if err := w.blobs.Delete(doc.SignedFile); err != nil {
			return fmt.Errorf("delete signed file: %w", err)
		}
	}
	if err := w.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	w.metrics.IncrementCounter("documents_deleted")
	w.logger.Info("Document deleted", zap.String("doc_id", id))
	return nil
}

// WithClock overrides the workflow clock. Test hook.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}
