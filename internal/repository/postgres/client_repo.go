package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientColumns = `id, document_type, document_number, party_kind, given_names, family_names,
	business_name, phone, email, address, created_at, updated_at`

// ClientRepository implements domain.ClientRepository using PostgreSQL
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Create inserts a new client
func (r *ClientRepository) Create(client *domain.Client) (*domain.Client, error) {
	ctx := context.Background()
	given, family, business := partyColumns(client.Party)

	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, document_type, document_number, party_kind, given_names, family_names,
			business_name, phone, email, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+clientColumns,
		client.ID, string(client.Document.Type), client.Document.Number, string(client.Party.Kind()),
		given, family, business, client.Contact.Phone, client.Contact.Email, client.Contact.Address,
	)
	created, err := scanClient(row)
	if err != nil {
		if isUniqueViolation(err, "clients_document_unique") {
			return nil, domain.ErrClientDocumentTaken
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return created, nil
}

// GetByID retrieves a client by its ID
func (r *ClientRepository) GetByID(id uuid.UUID) (*domain.Client, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return client, nil
}

// GetByDocument retrieves a client by document type and number
func (r *ClientRepository) GetByDocument(doc domain.Document) (*domain.Client, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE document_type = $1 AND document_number = $2`,
		string(doc.Type), doc.Number,
	)
	client, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("get client by document: %w", err)
	}
	return client, nil
}

// List returns clients whose name or document matches query, newest first.
// An empty query returns every client.
func (r *ClientRepository) List(query string) ([]*domain.Client, error) {
	ctx := context.Background()
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE LOWER(COALESCE(given_names, '') || ' ' || COALESCE(family_names, '')) LIKE $1
			OR LOWER(COALESCE(business_name, '')) LIKE $1
			OR LOWER(document_number) LIKE $1
		ORDER BY created_at DESC`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// Update overwrites the client's document, party and contact
func (r *ClientRepository) Update(client *domain.Client) (*domain.Client, error) {
	ctx := context.Background()
	given, family, business := partyColumns(client.Party)

	row := r.pool.QueryRow(ctx, `
		UPDATE clients SET document_type = $2, document_number = $3, party_kind = $4, given_names = $5,
			family_names = $6, business_name = $7, phone = $8, email = $9, address = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING `+clientColumns,
		client.ID, string(client.Document.Type), client.Document.Number, string(client.Party.Kind()),
		given, family, business, client.Contact.Phone, client.Contact.Email, client.Contact.Address,
	)
	updated, err := scanClient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		if isUniqueViolation(err, "clients_document_unique") {
			return nil, domain.ErrClientDocumentTaken
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return updated, nil
}

// Delete removes a client
func (r *ClientRepository) Delete(id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// Count returns the number of registered clients
func (r *ClientRepository) Count() (int64, error) {
	ctx := context.Background()
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func partyColumns(p domain.Party) (given, family, business pgtype.Text) {
	switch v := p.(type) {
	case domain.NaturalPerson:
		given = pgtype.Text{String: strings.TrimSpace(v.GivenNames), Valid: true}
		family = pgtype.Text{String: strings.TrimSpace(v.FamilyNames), Valid: true}
	case domain.LegalEntity:
		business = pgtype.Text{String: strings.TrimSpace(v.BusinessName), Valid: true}
	}
	return
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var (
		c                       domain.Client
		docType, kind           string
		given, family, business pgtype.Text
		createdAt, updatedAt    time.Time
	)
	err := row.Scan(&c.ID, &docType, &c.Document.Number, &kind, &given, &family, &business,
		&c.Contact.Phone, &c.Contact.Email, &c.Contact.Address, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.Document.Type = domain.DocumentType(docType)
	switch domain.PartyKind(kind) {
	case domain.PartyLegal:
		c.Party = domain.LegalEntity{BusinessName: business.String}
	default:
		c.Party = domain.NaturalPerson{GivenNames: given.String, FamilyNames: family.String}
	}
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return &c, nil
}
