package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ContractRepository defines the interface for archiving contract PDFs
type ContractRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ContractObjectPath returns the object key for a loan's contract.
// Each archive gets a fresh key so earlier copies are kept.
func ContractObjectPath(loanID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("contracts/%s/%s-%s.pdf", loanID, at.UTC().Format("20060102T150405Z"), uuid.New().String()[:8])
}
