package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DocumentType identifies a Peruvian identity document
type DocumentType string

const (
	DocumentDNI DocumentType = "DNI" // national id, 8 digits
	DocumentRUC DocumentType = "RUC" // tax id, 11 digits
	DocumentCE  DocumentType = "CE"  // foreign-resident card
)

// IsValid reports whether t is a known document type
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentDNI, DocumentRUC, DocumentCE:
		return true
	}
	return false
}

// Document is a typed identity document number
type Document struct {
	Type   DocumentType `json:"type"`
	Number string       `json:"number"`
}

// Validate checks the number against the rules of its type
func (d Document) Validate() error {
	if !d.Type.IsValid() {
		return ErrDocumentTypeInvalid
	}
	number := strings.TrimSpace(d.Number)
	if number == "" {
		return ErrDocumentNumberRequired
	}

	switch d.Type {
	case DocumentDNI:
		if !isDigits(number) {
			return ErrDocumentNotNumeric
		}
		if len(number) != 8 {
			return ErrDNILength
		}
	case DocumentRUC:
		if !isDigits(number) {
			return ErrDocumentNotNumeric
		}
		if len(number) != 11 {
			return ErrRUCLength
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// PartyKind discriminates the two client shapes
type PartyKind string

const (
	PartyNatural PartyKind = "natural"
	PartyLegal   PartyKind = "legal"
)

// Party is either a NaturalPerson or a LegalEntity
type Party interface {
	Kind() PartyKind
	DisplayName() string
	Validate() error
}

// NaturalPerson is an individual borrower
type NaturalPerson struct {
	GivenNames  string `json:"givenNames"`
	FamilyNames string `json:"familyNames"`
}

func (p NaturalPerson) Kind() PartyKind { return PartyNatural }

func (p NaturalPerson) DisplayName() string {
	return strings.TrimSpace(p.GivenNames + " " + p.FamilyNames)
}

func (p NaturalPerson) Validate() error {
	given := strings.TrimSpace(p.GivenNames)
	family := strings.TrimSpace(p.FamilyNames)
	if given == "" {
		return ErrGivenNamesRequired
	}
	if family == "" {
		return ErrFamilyNamesRequired
	}
	if len(given) > MaxNameLength || len(family) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// LegalEntity is a company borrower
type LegalEntity struct {
	BusinessName string `json:"businessName"`
}

func (e LegalEntity) Kind() PartyKind { return PartyLegal }

func (e LegalEntity) DisplayName() string {
	return strings.TrimSpace(e.BusinessName)
}

func (e LegalEntity) Validate() error {
	name := strings.TrimSpace(e.BusinessName)
	if name == "" {
		return ErrBusinessNameRequired
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Contact holds optional contact details
type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Client is a borrower registered by the office
type Client struct {
	ID        uuid.UUID
	Document  Document
	Party     Party
	Contact   Contact
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the person's full name or the business name
func (c *Client) DisplayName() string {
	if c.Party == nil {
		return ""
	}
	return c.Party.DisplayName()
}

// Validate checks the document and the party
func (c *Client) Validate() error {
	if err := c.Document.Validate(); err != nil {
		return err
	}
	if c.Party == nil {
		return ErrPartyRequired
	}
	return c.Party.Validate()
}

// Matches reports whether query appears in the display name or document number, ignoring case
func (c *Client) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.DisplayName()), q) ||
		strings.Contains(strings.ToLower(c.Document.Number), q)
}

type ClientRepository interface {
	Create(client *Client) (*Client, error)
	GetByID(id uuid.UUID) (*Client, error)
	GetByDocument(doc Document) (*Client, error)
	List(query string) ([]*Client, error)
	Update(client *Client) (*Client, error)
	Delete(id uuid.UUID) error
	Count() (int64, error)
}
