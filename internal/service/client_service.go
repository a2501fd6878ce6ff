package service

import (
	"errors"
	"strings"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/google/uuid"
)

// ClientService handles client registry business logic
type ClientService struct {
	clientRepo     domain.ClientRepository
	loanRepo       domain.LoanRepository
	eventPublisher websocket.EventPublisher
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo domain.ClientRepository, loanRepo domain.LoanRepository) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		loanRepo:   loanRepo,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ClientService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ClientService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// ClientInput contains the editable fields of a client
type ClientInput struct {
	Document domain.Document
	Party    domain.Party
	Contact  domain.Contact
}

func (in ClientInput) normalized() ClientInput {
	in.Document.Type = domain.DocumentType(strings.ToUpper(strings.TrimSpace(string(in.Document.Type))))
	in.Document.Number = strings.TrimSpace(in.Document.Number)
	switch p := in.Party.(type) {
	case domain.NaturalPerson:
		p.GivenNames = strings.TrimSpace(p.GivenNames)
		p.FamilyNames = strings.TrimSpace(p.FamilyNames)
		in.Party = p
	case domain.LegalEntity:
		p.BusinessName = strings.TrimSpace(p.BusinessName)
		in.Party = p
	}
	in.Contact.Phone = strings.TrimSpace(in.Contact.Phone)
	in.Contact.Email = strings.TrimSpace(in.Contact.Email)
	in.Contact.Address = strings.TrimSpace(in.Contact.Address)
	return in
}

// CreateClient validates and registers a new client
func (s *ClientService) CreateClient(input ClientInput) (*domain.Client, error) {
	input = input.normalized()
	client := &domain.Client{
		ID:       uuid.New(),
		Document: input.Document,
		Party:    input.Party,
		Contact:  input.Contact,
	}
	if err := client.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureDocumentFree(client.Document, uuid.Nil); err != nil {
		return nil, err
	}

	created, err := s.clientRepo.Create(client)
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.ClientCreated(clientPayload(created)))
	return created, nil
}

// GetClient retrieves a client by ID
func (s *ClientService) GetClient(id uuid.UUID) (*domain.Client, error) {
	return s.clientRepo.GetByID(id)
}

// ListClients returns clients whose name or document number contains query
func (s *ClientService) ListClients(query string) ([]*domain.Client, error) {
	return s.clientRepo.List(strings.TrimSpace(query))
}

// UpdateClient replaces the editable fields of a client
func (s *ClientService) UpdateClient(id uuid.UUID, input ClientInput) (*domain.Client, error) {
	existing, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	input = input.normalized()
	updated := *existing
	updated.Document = input.Document
	updated.Party = input.Party
	updated.Contact = input.Contact
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureDocumentFree(updated.Document, id); err != nil {
		return nil, err
	}

	saved, err := s.clientRepo.Update(&updated)
	if err != nil {
		return nil, err
	}

	s.publishEvent(websocket.ClientUpdated(clientPayload(saved)))
	return saved, nil
}

// DeleteClient removes a client that has no loans
func (s *ClientService) DeleteClient(id uuid.UUID) error {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return err
	}

	count, err := s.loanRepo.CountByClient(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrClientHasLoans
	}

	if err := s.clientRepo.Delete(id); err != nil {
		return err
	}

	s.publishEvent(websocket.ClientDeleted(clientPayload(client)))
	return nil
}

// ensureDocumentFree fails when another client already holds doc.
// The unique constraint still guards concurrent inserts.
func (s *ClientService) ensureDocumentFree(doc domain.Document, self uuid.UUID) error {
	other, err := s.clientRepo.GetByDocument(doc)
	if errors.Is(err, domain.ErrClientNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != self {
		return domain.ErrClientDocumentTaken
	}
	return nil
}

func clientPayload(c *domain.Client) map[string]interface{} {
	return map[string]interface{}{
		"id":             c.ID.String(),
		"name":           c.DisplayName(),
		"documentType":   string(c.Document.Type),
		"documentNumber": c.Document.Number,
	}
}
