package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"submissions-service/internal/middleware"
	"submissions-service/internal/models"
	"submissions-service/internal/repository"
)

// WalletHandler reports balances and the ledger.
type WalletHandler struct {
	repo repository.SubmissionRepositoryInterface
}

func NewWalletHandler(repo repository.SubmissionRepositoryInterface) *WalletHandler {
	return &WalletHandler{repo: repo}
}

// GetWallet returns the client's current balance.
// GET /api/v1/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	clientID := middleware.GetClientID(c)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "CLIENT_REQUIRED", Message: "Client ID is required"},
		})
		return
	}

	wallet, err := h.repo.GetWallet(c.Request.Context(), tenantID, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "WALLET_NOT_FOUND", Message: "No wallet exists for this account"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "GET_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.WalletResponse{Success: true, Data: wallet})
}

// ListTransactions returns the client's wallet ledger, newest first.
// GET /api/v1/wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	clientID := middleware.GetClientID(c)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "CLIENT_REQUIRED", Message: "Client ID is required"},
		})
		return
	}

	page, limit, offset := paginationParams(c)
	transactions, total, err := h.repo.ListWalletTransactions(c.Request.Context(), tenantID, clientID, limit, offset)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "WALLET_NOT_FOUND", Message: "No wallet exists for this account"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "LIST_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.WalletTransactionListResponse{
		Success:    true,
		Data:       transactions,
		Pagination: buildPagination(page, limit, total),
	})
}
