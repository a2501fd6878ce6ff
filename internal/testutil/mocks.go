package testutil

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockClientRepository is a mock implementation of domain.ClientRepository
type MockClientRepository struct {
	Clients  map[uuid.UUID]*domain.Client
	CreateFn func(client *domain.Client) (*domain.Client, error)
	ListFn   func(query string) ([]*domain.Client, error)
}

// NewMockClientRepository creates a new MockClientRepository
func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{
		Clients: make(map[uuid.UUID]*domain.Client),
	}
}

// AddClient stores a client directly, for test setup
func (m *MockClientRepository) AddClient(client *domain.Client) {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	m.Clients[client.ID] = client
}

// Create creates a new client, refusing duplicate documents
func (m *MockClientRepository) Create(client *domain.Client) (*domain.Client, error) {
	if m.CreateFn != nil {
		return m.CreateFn(client)
	}
	if _, err := m.GetByDocument(client.Document); err == nil {
		return nil, domain.ErrClientDocumentTaken
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	m.Clients[client.ID] = client
	return client, nil
}

// GetByID retrieves a client by ID
func (m *MockClientRepository) GetByID(id uuid.UUID) (*domain.Client, error) {
	client, ok := m.Clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	return client, nil
}

// GetByDocument retrieves a client by document
func (m *MockClientRepository) GetByDocument(doc domain.Document) (*domain.Client, error) {
	for _, c := range m.Clients {
		if c.Document.Type == doc.Type && c.Document.Number == doc.Number {
			return c, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

// List returns the clients matching query, newest first
func (m *MockClientRepository) List(query string) ([]*domain.Client, error) {
	if m.ListFn != nil {
		return m.ListFn(query)
	}
	var out []*domain.Client
	for _, c := range m.Clients {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update overwrites a client
func (m *MockClientRepository) Update(client *domain.Client) (*domain.Client, error) {
	if _, ok := m.Clients[client.ID]; !ok {
		return nil, domain.ErrClientNotFound
	}
	if other, err := m.GetByDocument(client.Document); err == nil && other.ID != client.ID {
		return nil, domain.ErrClientDocumentTaken
	}
	client.UpdatedAt = time.Now()
	m.Clients[client.ID] = client
	return client, nil
}

// Delete removes a client
func (m *MockClientRepository) Delete(id uuid.UUID) error {
	if _, ok := m.Clients[id]; !ok {
		return domain.ErrClientNotFound
	}
	delete(m.Clients, id)
	return nil
}

// Count returns the number of clients
func (m *MockClientRepository) Count() (int64, error) {
	return int64(len(m.Clients)), nil
}

// MockLoanRepository is a mock implementation of domain.LoanRepository
type MockLoanRepository struct {
	Loans              map[uuid.UUID]*domain.Loan
	mu                 sync.Mutex
	CreateFn           func(loan *domain.Loan) (*domain.Loan, error)
	GetAllFn           func() ([]*domain.Loan, error)
	GetActiveFn        func() ([]*domain.Loan, error)
	UpdateScheduleFn   func(loan *domain.Loan, expectedVersion int32) (*domain.Loan, error)
	UpdateScheduleCall int
}

// NewMockLoanRepository creates a new MockLoanRepository
func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		Loans: make(map[uuid.UUID]*domain.Loan),
	}
}

// AddLoan stores a loan directly, for test setup
func (m *MockLoanRepository) AddLoan(loan *domain.Loan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	if loan.Version == 0 {
		loan.Version = 1
	}
	if loan.Status == "" {
		loan.Status = domain.LoanActive
	}
	m.Loans[loan.ID] = loan
}

// Create creates a new loan
func (m *MockLoanRepository) Create(loan *domain.Loan) (*domain.Loan, error) {
	if m.CreateFn != nil {
		return m.CreateFn(loan)
	}
	loan.Version = 1
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = loan.CreatedAt
	m.AddLoan(loan)
	return loan, nil
}

// CreateTx creates a new loan within a transaction (mock just calls Create)
func (m *MockLoanRepository) CreateTx(tx interface{}, loan *domain.Loan) (*domain.Loan, error) {
	return m.Create(loan)
}

// GetByID returns a copy of the stored loan
func (m *MockLoanRepository) GetByID(id uuid.UUID) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.Loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	cp := *loan
	cp.Schedule = loan.Schedule.Clone()
	return &cp, nil
}

// GetByIDTx retrieves a loan within a transaction (mock just calls GetByID)
func (m *MockLoanRepository) GetByIDTx(tx interface{}, id uuid.UUID) (*domain.Loan, error) {
	return m.GetByID(id)
}

// GetAll returns every loan, newest first
func (m *MockLoanRepository) GetAll() ([]*domain.Loan, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn()
	}
	return m.filter(func(*domain.Loan) bool { return true }), nil
}

// GetByClient returns the loans of a client
func (m *MockLoanRepository) GetByClient(clientID uuid.UUID) ([]*domain.Loan, error) {
	return m.filter(func(l *domain.Loan) bool { return l.ClientID == clientID }), nil
}

// GetActive returns loans that are not closed
func (m *MockLoanRepository) GetActive() ([]*domain.Loan, error) {
	if m.GetActiveFn != nil {
		return m.GetActiveFn()
	}
	return m.filter(func(l *domain.Loan) bool { return !l.IsClosed() }), nil
}

func (m *MockLoanRepository) filter(keep func(*domain.Loan) bool) []*domain.Loan {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Loan
	for _, l := range m.Loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// UpdateScheduleTx writes the schedule when the version matches
func (m *MockLoanRepository) UpdateScheduleTx(tx interface{}, loan *domain.Loan, expectedVersion int32) (*domain.Loan, error) {
	m.mu.Lock()
	m.UpdateScheduleCall++
	m.mu.Unlock()
	if m.UpdateScheduleFn != nil {
		return m.UpdateScheduleFn(loan, expectedVersion)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Loans[loan.ID]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	if stored.Version != expectedVersion {
		return nil, domain.ErrConcurrentModification
	}
	stored.Schedule = loan.Schedule.Clone()
	stored.Version++
	stored.UpdatedAt = time.Now()
	cp := *stored
	return &cp, nil
}

// UpdateStatus sets a loan's status
func (m *MockLoanRepository) UpdateStatus(id uuid.UUID, status domain.LoanStatus) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	stored.Status = status
	stored.Version++
	cp := *stored
	return &cp, nil
}

// Delete removes a loan
func (m *MockLoanRepository) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Loans[id]; !ok {
		return domain.ErrLoanNotFound
	}
	delete(m.Loans, id)
	return nil
}

// CountByClient counts the loans of a client
func (m *MockLoanRepository) CountByClient(clientID uuid.UUID) (int64, error) {
	loans, _ := m.GetByClient(clientID)
	return int64(len(loans)), nil
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
type MockPaymentRepository struct {
	Payments []*domain.Payment
	Details  []*domain.PaymentDetail
	mu       sync.Mutex
	CreateFn func(payment *domain.Payment) (*domain.Payment, error)
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

// CreateTx stores a payment, refusing a second one for the same installment
func (m *MockPaymentRepository) CreateTx(tx interface{}, payment *domain.Payment) (*domain.Payment, error) {
	if m.CreateFn != nil {
		return m.CreateFn(payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Payments {
		if p.LoanID == payment.LoanID && p.InstallmentNumber == payment.InstallmentNumber {
			return nil, domain.ErrDuplicateInstallmentPay
		}
	}
	m.Payments = append(m.Payments, payment)
	return payment, nil
}

// GetByLoan returns the payments of a loan
func (m *MockPaymentRepository) GetByLoan(loanID uuid.UUID) ([]*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Payment
	for _, p := range m.Payments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	return out, nil
}

// List returns the preset payment details
func (m *MockPaymentRepository) List(query string) ([]*domain.PaymentDetail, error) {
	return m.Details, nil
}

// CountByLoan counts the payments of a loan
func (m *MockPaymentRepository) CountByLoan(loanID uuid.UUID) (int64, error) {
	payments, _ := m.GetByLoan(loanID)
	return int64(len(payments)), nil
}

// SumByLoan sums payment amounts per loan
func (m *MockPaymentRepository) SumByLoan() (map[uuid.UUID]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, p := range m.Payments {
		sums[p.LoanID] = sums[p.LoanID].Add(p.Amount)
	}
	return sums, nil
}

// MockTransactor runs fn without a real transaction
type MockTransactor struct {
	mu    sync.Mutex
	Calls int
}

// WithinTx calls fn with a nil tx
func (m *MockTransactor) WithinTx(fn func(tx interface{}) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(nil)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []websocket.Event
}

// Publish records the event
func (m *MockEventPublisher) Publish(event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

// Types returns the types of the recorded events in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}

// MockContractStorage is an in-memory contract archive
type MockContractStorage struct {
	Objects  map[string][]byte
	UploadFn func(objectPath string, data []byte) error
}

// NewMockContractStorage creates a new MockContractStorage
func NewMockContractStorage() *MockContractStorage {
	return &MockContractStorage{Objects: make(map[string][]byte)}
}

// Upload stores the object and returns its path
func (m *MockContractStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	if m.UploadFn != nil {
		if err := m.UploadFn(objectPath, buf); err != nil {
			return "", err
		}
	}
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes the object
func (m *MockContractStorage) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for objectPath
func (m *MockContractStorage) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + objectPath, nil
}
