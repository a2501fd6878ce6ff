package service

import (
	"strings"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
)

// DocumentLookup resolves an identity document to the registered name of its holder
type DocumentLookup interface {
	Lookup(doc domain.Document) (domain.Party, error)
}

// DocumentLookupService validates the document and defers to a lookup provider.
// No provider is wired yet, so valid documents yield ErrDocumentLookupUnavailable.
type DocumentLookupService struct {
	provider DocumentLookup
}

// NewDocumentLookupService creates a new DocumentLookupService. provider may be nil.
func NewDocumentLookupService(provider DocumentLookup) *DocumentLookupService {
	return &DocumentLookupService{provider: provider}
}

// Lookup returns the party registered under the document
func (s *DocumentLookupService) Lookup(docType, number string) (domain.Party, error) {
	doc := domain.Document{
		Type:   domain.DocumentType(strings.ToUpper(strings.TrimSpace(docType))),
		Number: strings.TrimSpace(number),
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, domain.ErrDocumentLookupUnavailable
	}
	return s.provider.Lookup(doc)
}
