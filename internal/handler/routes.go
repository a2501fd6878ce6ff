package handler

import (
	"github.com/dafibh/prestamos/prestamos-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Client   *ClientHandler
	Loan     *LoanHandler
	Payment  *PaymentHandler
	Report   *ReportHandler
	Document *DocumentHandler
	Contract *ContractHandler
}

// RegisterRoutes sets up all API routes. Every route is authenticated and rate limited.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Client routes
	clients := api.Group("/clients")
	clients.POST("", h.Client.CreateClient)
	clients.GET("", h.Client.GetClients)
	clients.GET("/:id", h.Client.GetClient)
	clients.PUT("/:id", h.Client.UpdateClient)
	clients.DELETE("/:id", h.Client.DeleteClient)
	clients.GET("/:id/loans", h.Loan.GetLoansByClient)

	// Document lookup
	api.GET("/documents/:type/:number", h.Document.LookupDocument)

	// Loan routes
	loans := api.Group("/loans")
	loans.POST("/preview", h.Loan.PreviewLoan)
	loans.POST("", h.Loan.CreateLoan)
	loans.GET("", h.Loan.GetLoans)
	loans.GET("/:id", h.Loan.GetLoan)
	loans.DELETE("/:id", h.Loan.DeleteLoan)
	loans.POST("/:id/close", h.Loan.CloseLoan)

	// Payment routes
	loans.POST("/:id/payments", h.Payment.RecordPayment)
	loans.GET("/:id/payments", h.Payment.GetLoanPayments)
	loans.GET("/:id/installments/payable", h.Payment.GetPayableInstallments)
	api.GET("/payments", h.Payment.GetPayments)

	// Contract routes
	loans.GET("/:id/contract", h.Contract.DownloadContract)
	loans.POST("/:id/contract/archive", h.Contract.ArchiveContract)

	// Dashboard and reports
	api.GET("/dashboard", h.Report.GetDashboard)
	api.GET("/reports", h.Report.GetReport)
}
