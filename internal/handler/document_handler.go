package handler

import (
	"net/http"

	"github.com/dafibh/prestamos/prestamos-backend/internal/domain"
	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DocumentHandler handles identity document lookups
type DocumentHandler struct {
	lookupService *service.DocumentLookupService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(lookupService *service.DocumentLookupService) *DocumentHandler {
	return &DocumentHandler{lookupService: lookupService}
}

// DocumentLookupResponse is the name registered under a document
type DocumentLookupResponse struct {
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Kind           string `json:"kind"`
	DisplayName    string `json:"displayName"`
	GivenNames     string `json:"givenNames,omitempty"`
	FamilyNames    string `json:"familyNames,omitempty"`
	BusinessName   string `json:"businessName,omitempty"`
}

// LookupDocument handles GET /api/v1/documents/:type/:number
func (h *DocumentHandler) LookupDocument(c echo.Context) error {
	docType, number := c.Param("type"), c.Param("number")

	party, err := h.lookupService.Lookup(docType, number)
	if err != nil {
		return handleError(c, err, "look up document")
	}

	resp := DocumentLookupResponse{
		DocumentType:   docType,
		DocumentNumber: number,
		Kind:           string(party.Kind()),
		DisplayName:    party.DisplayName(),
	}
	switch p := party.(type) {
	case domain.NaturalPerson:
		resp.GivenNames = p.GivenNames
		resp.FamilyNames = p.FamilyNames
	case domain.LegalEntity:
		resp.BusinessName = p.BusinessName
	}
	return c.JSON(http.StatusOK, resp)
}
