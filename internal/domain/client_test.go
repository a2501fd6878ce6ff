package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr error
	}{
		{"valid DNI", Document{DocumentDNI, "12345678"}, nil},
		{"short DNI", Document{DocumentDNI, "1234567"}, ErrDNILength},
		{"long DNI", Document{DocumentDNI, "123456789"}, ErrDNILength},
		{"letters in DNI", Document{DocumentDNI, "1234567A"}, ErrDocumentNotNumeric},
		{"valid RUC", Document{DocumentRUC, "20123456789"}, nil},
		{"short RUC", Document{DocumentRUC, "2012345678"}, ErrRUCLength},
		{"CE without length rule", Document{DocumentCE, "X1"}, nil},
		{"empty number", Document{DocumentCE, "  "}, ErrDocumentNumberRequired},
		{"unknown type", Document{"PASSPORT", "123"}, ErrDocumentTypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v should be a validation error", err)
			}
		})
	}
}

func TestClientValidate(t *testing.T) {
	dni := Document{DocumentDNI, "12345678"}
	tests := []struct {
		name    string
		client  Client
		wantErr error
	}{
		{"natural person", Client{Document: dni, Party: NaturalPerson{"Ana María", "Quispe Huamán"}}, nil},
		{"legal entity", Client{Document: Document{DocumentRUC, "20123456789"}, Party: LegalEntity{"Inversiones Andinas SAC"}}, nil},
		{"missing party", Client{Document: dni}, ErrPartyRequired},
		{"missing given names", Client{Document: dni, Party: NaturalPerson{"", "Quispe"}}, ErrGivenNamesRequired},
		{"missing family names", Client{Document: dni, Party: NaturalPerson{"Ana", " "}}, ErrFamilyNamesRequired},
		{"missing business name", Client{Document: dni, Party: LegalEntity{}}, ErrBusinessNameRequired},
		{"name too long", Client{Document: dni, Party: LegalEntity{strings.Repeat("a", MaxNameLength+1)}}, ErrNameTooLong},
		{"bad document first", Client{Document: Document{DocumentDNI, "1"}, Party: LegalEntity{}}, ErrDNILength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.client.Validate()
			if !errors.Is(err, tt.wantErr) && !(tt.wantErr == nil && err == nil) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientDisplayNameAndMatches(t *testing.T) {
	person := &Client{Document: Document{DocumentDNI, "44556677"}, Party: NaturalPerson{"Luis", "Ramos"}}
	company := &Client{Document: Document{DocumentRUC, "20987654321"}, Party: LegalEntity{"Ferretería El Sol"}}

	if person.DisplayName() != "Luis Ramos" {
		t.Errorf("DisplayName() = %q", person.DisplayName())
	}
	if company.DisplayName() != "Ferretería El Sol" {
		t.Errorf("DisplayName() = %q", company.DisplayName())
	}
	if person.Party.Kind() != PartyNatural || company.Party.Kind() != PartyLegal {
		t.Error("unexpected party kinds")
	}

	if !person.Matches("ramos") || !person.Matches("4455") || !person.Matches("") {
		t.Error("person should match name, document and empty query")
	}
	if company.Matches("ramos") {
		t.Error("company should not match another client's name")
	}
	if (&Client{}).DisplayName() != "" {
		t.Error("client without party should have empty name")
	}
}
