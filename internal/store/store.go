// Package store persists verification results and batch item failures for
// audit. The engine itself never touches storage; callers record verdicts
// after the fact.
package store

import (
	"context"
	"time"

	"github.com/sells-group/labelproof/internal/model"
)

// ResultFilter specifies criteria for listing stored results.
type ResultFilter struct {
	Status model.VerificationStatus `json:"status,omitempty"`
	Limit  int                      `json:"limit,omitempty"`
	Offset int                      `json:"offset,omitempty"`
}

// ResultRecord pairs a stored verdict with the brand name it was filed
// under, for listings and exports.
type ResultRecord struct {
	BrandName string                   `json:"brand_name"`
	Result    model.VerificationResult `json:"result"`
}

// ItemFailure records a batch item that never produced a verdict, e.g. an
// extraction service error or malformed input. Kept separate from
// VerificationResult so batch callers can report succeeded/failed counts
// independently of approved/rejected/needs_review counts.
type ItemFailure struct {
	ID        string    `json:"id"`
	BrandName string    `json:"brand_name,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the persistence interface for verification results.
type Store interface {
	// Results
	SaveResult(ctx context.Context, brandName string, result *model.VerificationResult) error
	GetResult(ctx context.Context, id string) (*model.VerificationResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]ResultRecord, error)
	CountByStatus(ctx context.Context) (map[model.VerificationStatus]int, error)

	// Batch failures
	SaveFailure(ctx context.Context, failure *ItemFailure) error
	ListFailures(ctx context.Context, limit int) ([]ItemFailure, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
