package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dafibh/prestamos/prestamos-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ContractHandler serves loan contract PDFs
type ContractHandler struct {
	contractService *service.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *service.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// ArchiveContractResponse represents an archived contract link
type ArchiveContractResponse struct {
	ObjectPath string `json:"objectPath"`
	URL        string `json:"url"`
	ExpiresAt  string `json:"expiresAt"`
}

// DownloadContract handles GET /api/v1/loans/:id/contract
func (h *ContractHandler) DownloadContract(c echo.Context) error {
	loanID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	contract, err := h.contractService.Render(loanID)
	if err != nil {
		return handleError(c, err, "render contract")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", contract.Filename))
	return c.Blob(http.StatusOK, "application/pdf", contract.Data)
}

// ArchiveContract handles POST /api/v1/loans/:id/contract/archive
func (h *ContractHandler) ArchiveContract(c echo.Context) error {
	loanID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	archived, err := h.contractService.Archive(c.Request().Context(), loanID)
	if err != nil {
		return handleError(c, err, "archive contract")
	}

	log.Info().Str("loan_id", loanID.String()).Str("object_path", archived.ObjectPath).Msg("Contract archived")

	return c.JSON(http.StatusCreated, ArchiveContractResponse{
		ObjectPath: archived.ObjectPath,
		URL:        archived.URL,
		ExpiresAt:  archived.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
