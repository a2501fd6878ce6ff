package service

import (
	"bytes"
	"context"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/export"
	"github.com/dafibh/prestamos/prestamos-backend/internal/repository/storage"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/google/uuid"
)

// ContractURLExpiry is how long an archived contract link stays valid
const ContractURLExpiry = 15 * time.Minute

// Contract is a rendered contract ready for download
type Contract struct {
	Filename string
	Data     []byte
}

// ArchivedContract points at a stored contract
type ArchivedContract struct {
	ObjectPath string    `json:"objectPath"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ContractService renders loan contracts and archives them
type ContractService struct {
	loanRepo       domain.LoanRepository
	clientRepo     domain.ClientRepository
	renderer       *export.ContractRenderer
	storage        storage.ContractRepository
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewContractService creates a new ContractService. storage may be nil.
func NewContractService(loanRepo domain.LoanRepository, clientRepo domain.ClientRepository, renderer *export.ContractRenderer, storage storage.ContractRepository) *ContractService {
	return &ContractService{
		loanRepo:   loanRepo,
		clientRepo: clientRepo,
		renderer:   renderer,
		storage:    storage,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ContractService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// ArchiveEnabled indicates whether contracts can be archived (storage configured)
func (s *ContractService) ArchiveEnabled() bool {
	return s != nil && s.storage != nil
}

// Render builds the contract PDF for a loan
func (s *ContractService) Render(loanID uuid.UUID) (*Contract, error) {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(loan.ClientID)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.Render(loan, client, s.now())
	if err != nil {
		return nil, err
	}
	return &Contract{
		Filename: export.ContractFilename(loan, client),
		Data:     data,
	}, nil
}

// Archive renders the contract, uploads it and returns a temporary download link
func (s *ContractService) Archive(ctx context.Context, loanID uuid.UUID) (*ArchivedContract, error) {
	if !s.ArchiveEnabled() {
		return nil, domain.ErrStorageNotConfigured
	}

	contract, err := s.Render(loanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	objectPath := storage.ContractObjectPath(loanID, now)
	path, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(contract.Data), "application/pdf", int64(len(contract.Data)))
	if err != nil {
		return nil, err
	}

	url, err := s.storage.GeneratePresignedURL(ctx, path, ContractURLExpiry)
	if err != nil {
		// a stored object nobody can reach is useless
		_ = s.storage.Delete(ctx, path)
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(websocket.ContractArchived(map[string]interface{}{
			"loanId":     loanID.String(),
			"objectPath": path,
		}))
	}

	return &ArchivedContract{
		ObjectPath: path,
		URL:        url,
		ExpiresAt:  now.Add(ContractURLExpiry),
	}, nil
}
