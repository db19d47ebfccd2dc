package models

import (
	"time"
)

type DocumentStatus string

const (
	StatusPending DocumentStatus = "PENDING"
	StatusSigned  DocumentStatus = "SIGNED"
	// StatusExpired is derived at read time and never written to storage.
	StatusExpired DocumentStatus = "EXPIRED"
)

// SignaturePlacement is the rectangle, in PDF user space (bottom-left
// origin, points), where the signature image is drawn. Immutable once
// the document is created.
type SignaturePlacement struct {
	PageIndex int     `gorm:"not null" json:"page"`
	X         float64 `gorm:"not null" json:"x"`
	Y         float64 `gorm:"not null" json:"y"`
	Width     float64 `gorm:"not null" json:"width"`
	Height    float64 `gorm:"not null" json:"height"`
	// PageHeight is the page height used to compute Y, kept so Y can be
	// reinterpreted if page geometry ever has to be re-derived.
	PageHeight float64 `gorm:"not null" json:"pageHeight"`
}

// Document is the aggregate root of the signing workflow. OriginalFile
// and SignedFile are blob store references, not inline bytes.
type Document struct {
	ID           string `gorm:"primaryKey"`
	SigningToken string `gorm:"uniqueIndex;not null"`
	OriginalName string `gorm:"not null"`
	OriginalFile string `gorm:"not null"`
	SignedFile   string
	Placement    SignaturePlacement `gorm:"embedded;embeddedPrefix:placement_"`
	Status       DocumentStatus     `gorm:"not null;default:'PENDING'"`
	CreatedAt    time.Time          `gorm:"not null"`
	ExpiresAt    time.Time          `gorm:"not null"`
	SignedAt     *time.Time
}

// StatusAt derives the externally visible status. A pending document
// past its expiry reads as EXPIRED without ever being rewritten; a
// signed document never expires.
func (d *Document) StatusAt(now time.Time) DocumentStatus {
	if d.Status == StatusPending && now.After(d.ExpiresAt) {
		return StatusExpired
	}
	return d.Status
}
