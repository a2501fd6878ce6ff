package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ClientHandler handles client-related HTTP requests
type ClientHandler struct {
	clientService *service.ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// ClientRequest is the body of create and update requests.
// Kind selects which name fields apply: "natural" uses givenNames and
// familyNames, "legal" uses businessName.
type ClientRequest struct {
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Kind           string `json:"kind"`
	GivenNames     string `json:"givenNames,omitempty"`
	FamilyNames    string `json:"familyNames,omitempty"`
	BusinessName   string `json:"businessName,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID             string `json:"id"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Kind           string `json:"kind"`
	DisplayName    string `json:"displayName"`
	GivenNames     string `json:"givenNames,omitempty"`
	FamilyNames    string `json:"familyNames,omitempty"`
	BusinessName   string `json:"businessName,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func (r ClientRequest) toInput() service.ClientInput {
	in := service.ClientInput{
		Document: domain.Document{Type: domain.DocumentType(r.DocumentType), Number: r.DocumentNumber},
		Contact:  domain.Contact{Phone: r.Phone, Email: r.Email, Address: r.Address},
	}
	switch domain.PartyKind(strings.ToLower(strings.TrimSpace(r.Kind))) {
	case domain.PartyNatural:
		in.Party = domain.NaturalPerson{GivenNames: r.GivenNames, FamilyNames: r.FamilyNames}
	case domain.PartyLegal:
		in.Party = domain.LegalEntity{BusinessName: r.BusinessName}
	}
	// unknown kinds leave Party nil, which validation rejects
	return in
}

func toClientResponse(c *domain.Client) ClientResponse {
	resp := ClientResponse{
		ID:             c.ID.String(),
		DocumentType:   string(c.Document.Type),
		DocumentNumber: c.Document.Number,
		DisplayName:    c.DisplayName(),
		Phone:          c.Contact.Phone,
		Email:          c.Contact.Email,
		Address:        c.Contact.Address,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
	switch p := c.Party.(type) {
	case domain.NaturalPerson:
		resp.Kind = string(domain.PartyNatural)
		resp.GivenNames = p.GivenNames
		resp.FamilyNames = p.FamilyNames
	case domain.LegalEntity:
		resp.Kind = string(domain.PartyLegal)
		resp.BusinessName = p.BusinessName
	}
	return resp
}

// CreateClient handles POST /api/v1/clients
func (h *ClientHandler) CreateClient(c echo.Context) error {
	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	client, err := h.clientService.CreateClient(req.toInput())
	if err != nil {
		return handleError(c, err, "create client")
	}

	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// GetClients handles GET /api/v1/clients?q=
func (h *ClientHandler) GetClients(c echo.Context) error {
	clients, err := h.clientService.ListClients(c.QueryParam("q"))
	if err != nil {
		return handleError(c, err, "list clients")
	}

	response := make([]ClientResponse, len(clients))
	for i, client := range clients {
		response[i] = toClientResponse(client)
	}
	return c.JSON(http.StatusOK, response)
}

// GetClient handles GET /api/v1/clients/:id
func (h *ClientHandler) GetClient(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	client, err := h.clientService.GetClient(id)
	if err != nil {
		return handleError(c, err, "get client")
	}

	return c.JSON(http.StatusOK, toClientResponse(client))
}

// UpdateClient handles PUT /api/v1/clients/:id
func (h *ClientHandler) UpdateClient(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	var req ClientRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	client, err := h.clientService.UpdateClient(id, req.toInput())
	if err != nil {
		return handleError(c, err, "update client")
	}

	return c.JSON(http.StatusOK, toClientResponse(client))
}

// DeleteClient handles DELETE /api/v1/clients/:id
func (h *ClientHandler) DeleteClient(c echo.Context) error {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	if err := h.clientService.DeleteClient(id); err != nil {
		return handleError(c, err, "delete client")
	}

	return c.NoContent(http.StatusNoContent)
}
