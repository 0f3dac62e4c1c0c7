package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"submissions-service/internal/middleware"
	"submissions-service/internal/models"
	"submissions-service/internal/repository"
)

// SubmissionHandler serves the dashboard views over committed orders.
type SubmissionHandler struct {
	repo repository.SubmissionRepositoryInterface
}

func NewSubmissionHandler(repo repository.SubmissionRepositoryInterface) *SubmissionHandler {
	return &SubmissionHandler{repo: repo}
}

func paginationParams(c *gin.Context) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func buildPagination(page, limit int, total int64) models.PaginationInfo {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// ListSubmissions returns committed orders for the tenant, optionally
// scoped to one client.
// GET /api/v1/submissions
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "TENANT_REQUIRED", Message: "Tenant ID is required"},
		})
		return
	}
	clientID := middleware.GetClientID(c)

	page, limit, offset := paginationParams(c)
	orders, total, err := h.repo.ListSubmissions(c.Request.Context(), tenantID, clientID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "LIST_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.SubmissionListResponse{
		Success:    true,
		Data:       orders,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetSubmission returns one committed order.
// GET /api/v1/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Submission ID must be a UUID"},
		})
		return
	}

	order, err := h.repo.GetSubmission(c.Request.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "NOT_FOUND", Message: "Submission not found"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "GET_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// UpdateSubmissionStatus moves one committed order through its lifecycle.
// PUT /api/v1/submissions/:id/status
func (h *SubmissionHandler) UpdateSubmissionStatus(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_ID", Message: "Submission ID must be a UUID"},
		})
		return
	}

	var req models.UpdateSubmissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	switch req.Status {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted, models.StatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "INVALID_STATUS", Message: "Unknown submission status"},
		})
		return
	}

	if err := h.repo.UpdateSubmissionStatus(c.Request.Context(), tenantID, id, req.Status); err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "NOT_FOUND", Message: "Submission not found"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "UPDATE_FAILED", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
