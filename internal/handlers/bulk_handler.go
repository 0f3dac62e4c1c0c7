package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"submissions-service/internal/excel"
	"submissions-service/internal/middleware"
	"submissions-service/internal/models"
	"submissions-service/internal/products"
	"submissions-service/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BulkHandler owns the bulk submission pipeline endpoints: template
// download, upload parsing with local validation, server validation and
// the final submit.
type BulkHandler struct {
	validator services.BulkValidationService
	submitter services.BulkSubmitService
}

func NewBulkHandler(validator services.BulkValidationService, submitter services.BulkSubmitService) *BulkHandler {
	return &BulkHandler{validator: validator, submitter: submitter}
}

func (h *BulkHandler) getTenantID(c *gin.Context) (string, bool) {
	tenantID := middleware.GetTenantID(c)
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TENANT_REQUIRED",
				Message: "Tenant ID is required",
			},
		})
		return "", false
	}
	return tenantID, true
}

func (h *BulkHandler) getClientID(c *gin.Context) (string, bool) {
	clientID := middleware.GetClientID(c)
	if clientID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CLIENT_REQUIRED",
				Message: "Client ID is required",
			},
		})
		return "", false
	}
	return clientID, true
}

// GetTemplate downloads the spreadsheet template for one product, or the
// combined template with one sheet per product.
// GET /api/v1/bulk/template?product=
func (h *BulkHandler) GetTemplate(c *gin.Context) {
	productParam := c.DefaultQuery("product", "all")

	var filename string
	var build func() error

	if productParam == "all" {
		filename = "bulk_submission_template.xlsx"
		build = func() error {
			f, err := excel.BuildCombinedTemplate()
			if err != nil {
				return err
			}
			defer f.Close()
			return f.Write(c.Writer)
		}
	} else {
		pt, err := products.ParseProductType(productParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UNKNOWN_PRODUCT",
					Message: fmt.Sprintf("Unknown product %q", productParam),
				},
			})
			return
		}
		filename = fmt.Sprintf("bulk_%s_template.xlsx", strings.ToLower(string(pt)))
		build = func() error {
			f, err := excel.BuildTemplate(pt)
			if err != nil {
				return err
			}
			defer f.Close()
			return f.Write(c.Writer)
		}
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := build(); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TEMPLATE_FAILED",
				Message: err.Error(),
			},
		})
	}
}

// ParseWorkbook parses an uploaded workbook and runs the local (offline)
// validation pass on every row. Nothing touches the database here.
// POST /api/v1/bulk/parse
func (h *BulkHandler) ParseWorkbook(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload an Excel (.xlsx) file",
			},
		})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only XLSX files are supported",
			},
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "READ_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	var rows []products.ParsedRow
	if forced := c.PostForm("product"); forced != "" {
		pt, perr := products.ParseProductType(forced)
		if perr != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UNKNOWN_PRODUCT",
					Message: fmt.Sprintf("Unknown product %q", forced),
				},
			})
			return
		}
		rows, err = excel.ParseAs(data, pt)
	} else {
		rows, err = excel.Parse(data)
	}

	if err != nil {
		code := "PARSE_ERROR"
		if errors.Is(err, excel.ErrNoValidSheets) {
			code = "NO_VALID_SHEETS"
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    code,
				Message: err.Error(),
			},
		})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_FILE",
				Message: "The file contains no data rows",
			},
		})
		return
	}

	response := models.ParseResponse{
		Success: true,
		Rows:    make([]models.BulkRow, 0, len(rows)),
	}
	for _, row := range rows {
		local := products.ValidateRow(row)
		if local.Valid {
			response.ValidRows++
		}
		response.Rows = append(response.Rows, models.BulkRow{Row: row, Local: local})
	}
	response.RowCount = len(response.Rows)

	c.JSON(http.StatusOK, response)
}

// ValidateBatch runs the authoritative server validation pass: live
// pricing, wallet balance and the batch-level go/no-go signal.
// POST /api/v1/bulk/validate
func (h *BulkHandler) ValidateBatch(c *gin.Context) {
	tenantID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	clientID, ok := h.getClientID(c)
	if !ok {
		return
	}

	var req models.ValidateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	report, err := h.validator.ValidateBatch(c.Request.Context(), tenantID, clientID, req.Rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// SubmitBatch commits a validated batch atomically. A batch rejected
// before any commit attempt returns 409; a commit that failed and rolled
// back returns 200 with rolledBack set so the caller can tell the two
// apart.
// POST /api/v1/bulk/submit
func (h *BulkHandler) SubmitBatch(c *gin.Context) {
	tenantID, ok := h.getTenantID(c)
	if !ok {
		return
	}
	clientID, ok := h.getClientID(c)
	if !ok {
		return
	}

	var req models.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), tenantID, clientID, req.Rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SUBMIT_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	if !result.Success && !result.RolledBack {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
