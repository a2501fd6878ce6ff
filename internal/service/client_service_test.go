package service

import (
	"errors"
	"testing"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/testutil"
	"github.com/google/uuid"
)

func setupClientService() (*ClientService, *testutil.MockClientRepository, *testutil.MockLoanRepository, *testutil.MockEventPublisher) {
	clientRepo := testutil.NewMockClientRepository()
	loanRepo := testutil.NewMockLoanRepository()
	publisher := &testutil.MockEventPublisher{}
	svc := NewClientService(clientRepo, loanRepo)
	svc.SetEventPublisher(publisher)
	return svc, clientRepo, loanRepo, publisher
}

func naturalInput(dni string) ClientInput {
	return ClientInput{
		Document: domain.Document{Type: domain.DocumentDNI, Number: dni},
		Party:    domain.NaturalPerson{GivenNames: "Ana", FamilyNames: "Quispe"},
		Contact:  domain.Contact{Phone: "987654321"},
	}
}

func TestCreateClient_Success(t *testing.T) {
	svc, clientRepo, _, publisher := setupClientService()

	input := naturalInput(" 12345678 ")
	input.Document.Type = "dni"
	input.Party = domain.NaturalPerson{GivenNames: "  Ana ", FamilyNames: "Quispe  "}

	client, err := svc.CreateClient(input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.ID == uuid.Nil {
		t.Error("Expected client ID to be assigned")
	}
	if client.Document.Type != domain.DocumentDNI || client.Document.Number != "12345678" {
		t.Errorf("Expected normalized document, got %+v", client.Document)
	}
	if client.DisplayName() != "Ana Quispe" {
		t.Errorf("Expected display name 'Ana Quispe', got %q", client.DisplayName())
	}
	if len(clientRepo.Clients) != 1 {
		t.Errorf("Expected 1 stored client, got %d", len(clientRepo.Clients))
	}
	if types := publisher.Types(); len(types) != 1 || types[0] != "client.created" {
		t.Errorf("Expected client.created event, got %v", types)
	}
}

func TestCreateClient_LegalEntity(t *testing.T) {
	svc, _, _, _ := setupClientService()

	client, err := svc.CreateClient(ClientInput{
		Document: domain.Document{Type: domain.DocumentRUC, Number: "20123456789"},
		Party:    domain.LegalEntity{BusinessName: "Comercial Andina SAC"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.Party.Kind() != domain.PartyLegal {
		t.Errorf("Expected legal party, got %s", client.Party.Kind())
	}
}

func TestCreateClient_ValidationErrors(t *testing.T) {
	svc, clientRepo, _, publisher := setupClientService()

	tests := []struct {
		name    string
		input   ClientInput
		wantErr error
	}{
		{"short DNI", naturalInput("1234567"), domain.ErrDNILength},
		{"letters in DNI", naturalInput("1234567a"), domain.ErrDocumentNotNumeric},
		{"no party", ClientInput{Document: domain.Document{Type: domain.DocumentDNI, Number: "12345678"}}, domain.ErrPartyRequired},
		{"RUC length", ClientInput{
			Document: domain.Document{Type: domain.DocumentRUC, Number: "2012345678"},
			Party:    domain.LegalEntity{BusinessName: "X"},
		}, domain.ErrRUCLength},
		{"blank business name", ClientInput{
			Document: domain.Document{Type: domain.DocumentRUC, Number: "20123456789"},
			Party:    domain.LegalEntity{BusinessName: "   "},
		}, domain.ErrBusinessNameRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateClient(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Expected a validation error, got %v", err)
			}
		})
	}

	if len(clientRepo.Clients) != 0 {
		t.Errorf("Expected nothing stored, got %d clients", len(clientRepo.Clients))
	}
	if len(publisher.Events) != 0 {
		t.Errorf("Expected no events, got %d", len(publisher.Events))
	}
}

func TestCreateClient_DuplicateDocument(t *testing.T) {
	svc, _, _, _ := setupClientService()

	if _, err := svc.CreateClient(naturalInput("12345678")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	_, err := svc.CreateClient(naturalInput("12345678"))
	if !errors.Is(err, domain.ErrClientDocumentTaken) {
		t.Errorf("Expected ErrClientDocumentTaken, got %v", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Expected a conflict error, got %v", err)
	}
}

func TestCreateClient_SameNumberDifferentType(t *testing.T) {
	svc, _, _, _ := setupClientService()

	if _, err := svc.CreateClient(naturalInput("12345678")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	input := naturalInput("12345678")
	input.Document.Type = domain.DocumentCE
	if _, err := svc.CreateClient(input); err != nil {
		t.Errorf("Expected CE with the same number to be accepted, got %v", err)
	}
}

func TestUpdateClient(t *testing.T) {
	svc, _, _, publisher := setupClientService()

	first, _ := svc.CreateClient(naturalInput("12345678"))
	second, _ := svc.CreateClient(naturalInput("87654321"))

	input := naturalInput("12345678")
	input.Party = domain.NaturalPerson{GivenNames: "Ana María", FamilyNames: "Quispe"}
	updated, err := svc.UpdateClient(first.ID, input)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.DisplayName() != "Ana María Quispe" {
		t.Errorf("Expected updated name, got %q", updated.DisplayName())
	}

	_, err = svc.UpdateClient(second.ID, naturalInput("12345678"))
	if !errors.Is(err, domain.ErrClientDocumentTaken) {
		t.Errorf("Expected ErrClientDocumentTaken, got %v", err)
	}

	_, err = svc.UpdateClient(uuid.New(), naturalInput("11111111"))
	if !errors.Is(err, domain.ErrClientNotFound) {
		t.Errorf("Expected ErrClientNotFound, got %v", err)
	}

	types := publisher.Types()
	if types[len(types)-1] != "client.updated" {
		t.Errorf("Expected last event client.updated, got %v", types)
	}
}

func TestListClients_Search(t *testing.T) {
	svc, _, _, _ := setupClientService()

	_, _ = svc.CreateClient(naturalInput("12345678"))
	_, _ = svc.CreateClient(ClientInput{
		Document: domain.Document{Type: domain.DocumentRUC, Number: "20123456789"},
		Party:    domain.LegalEntity{BusinessName: "Comercial Andina SAC"},
	})

	all, err := svc.ListClients("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 clients, got %d", len(all))
	}

	byName, _ := svc.ListClients("andina")
	if len(byName) != 1 || byName[0].Document.Type != domain.DocumentRUC {
		t.Errorf("Expected the legal entity, got %v", byName)
	}

	byDoc, _ := svc.ListClients(" 345 ")
	if len(byDoc) != 2 {
		t.Errorf("Expected both clients to match '345', got %d", len(byDoc))
	}
}

func TestDeleteClient(t *testing.T) {
	svc, clientRepo, loanRepo, publisher := setupClientService()

	withLoan, _ := svc.CreateClient(naturalInput("12345678"))
	without, _ := svc.CreateClient(naturalInput("87654321"))
	loanRepo.AddLoan(&domain.Loan{ClientID: withLoan.ID})

	err := svc.DeleteClient(withLoan.ID)
	if !errors.Is(err, domain.ErrClientHasLoans) {
		t.Errorf("Expected ErrClientHasLoans, got %v", err)
	}

	if err := svc.DeleteClient(without.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := clientRepo.Clients[without.ID]; ok {
		t.Error("Expected client to be removed")
	}

	if err := svc.DeleteClient(uuid.New()); !errors.Is(err, domain.ErrClientNotFound) {
		t.Errorf("Expected ErrClientNotFound, got %v", err)
	}

	types := publisher.Types()
	if types[len(types)-1] != "client.deleted" {
		t.Errorf("Expected last event client.deleted, got %v", types)
	}
}
