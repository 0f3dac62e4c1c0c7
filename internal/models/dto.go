package models

import (
	"github.com/google/uuid"

	"submissions-service/internal/products"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Error represents error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

// BulkRow is one parsed row travelling through the pipeline: the row
// itself plus the client-side (local) validation result. The server never
// trusts the local result; it re-validates and merges.
type BulkRow struct {
	Row   products.ParsedRow        `json:"row"`
	Local products.ValidationResult `json:"local"`
}

// ParseResponse is returned by the upload/parse endpoint: every surviving
// row with its local validation result, in ascending source-row order.
type ParseResponse struct {
	Success   bool      `json:"success"`
	Rows      []BulkRow `json:"rows"`
	RowCount  int       `json:"rowCount"`
	ValidRows int       `json:"validRows"`
}

// ValidateBatchRequest carries locally validated rows to the server
// validator.
type ValidateBatchRequest struct {
	Rows []BulkRow `json:"rows" binding:"required,min=1"`
}

// RowReport is the per-row outcome of the server validation pass.
type RowReport struct {
	Row    products.ParsedRow        `json:"row"`
	Local  products.ValidationResult `json:"local"`
	Server products.ValidationResult `json:"server"`
	Merged products.ValidationResult `json:"merged"`
}

// BulkValidationSummary aggregates one validation pass across all rows.
// InsufficientBalance is a batch-level condition: every row can be valid
// while the batch as a whole is unsubmittable.
type BulkValidationSummary struct {
	TotalRows           int      `json:"totalRows"`
	ValidRows           int      `json:"validRows"`
	InvalidRows         int      `json:"invalidRows"`
	TotalCost           int      `json:"totalCost"`
	CurrentBalance      int      `json:"currentBalance"`
	RemainingBalance    int      `json:"remainingBalance"`
	InsufficientBalance bool     `json:"insufficientBalance"`
	BatchErrors         []string `json:"batchErrors,omitempty"`
	Submittable         bool     `json:"submittable"`
}

// BulkValidationReport is the full response of the server validator.
type BulkValidationReport struct {
	Success bool                  `json:"success"`
	Rows    []RowReport           `json:"rows"`
	Summary BulkValidationSummary `json:"summary"`
}

// SubmitBatchRequest carries server-validated rows into the submitter.
// PointCost per row is the server-computed cost from the validation pass;
// the submitter recomputes it anyway before committing.
type SubmitBatchRequest struct {
	Rows []BulkRow `json:"rows" binding:"required,min=1"`
}

// SubmitRowResult is the terminal per-row outcome of one submission
// attempt. SubmissionNumber is set if and only if the order record was
// committed.
type SubmitRowResult struct {
	RowNumber        int                  `json:"rowNumber"`
	SheetName        string               `json:"sheetName"`
	Product          products.ProductType `json:"product"`
	Success          bool                 `json:"success"`
	SubmissionNumber string               `json:"submissionNumber,omitempty"`
	Error            string               `json:"error,omitempty"`
}

// BulkSubmitResult summarizes one submission attempt. If RolledBack is
// true, no order records and no balance deduction exist for this batch
// and the result is purely diagnostic.
type BulkSubmitResult struct {
	Success       bool              `json:"success"`
	BatchID       uuid.UUID         `json:"batchId"`
	Rows          []SubmitRowResult `json:"rows"`
	SuccessCount  int               `json:"successCount"`
	FailedCount   int               `json:"failedCount"`
	PointsSpent   int               `json:"pointsSpent"`
	NewBalance    int               `json:"newBalance"`
	RolledBack    bool              `json:"rolledBack"`
	FailureReason string            `json:"failureReason,omitempty"`
}

// PaginationInfo represents pagination information
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// SubmissionListResponse is the paginated dashboard listing of committed
// orders.
type SubmissionListResponse struct {
	Success    bool            `json:"success"`
	Data       []CampaignOrder `json:"data"`
	Pagination PaginationInfo  `json:"pagination"`
}

// WalletResponse reports a client's balance.
type WalletResponse struct {
	Success bool    `json:"success"`
	Data    *Wallet `json:"data"`
}

// WalletTransactionListResponse is the ledger listing.
type WalletTransactionListResponse struct {
	Success    bool                `json:"success"`
	Data       []WalletTransaction `json:"data"`
	Pagination PaginationInfo      `json:"pagination"`
}

// UpdateSubmissionStatusRequest updates one committed order's status.
type UpdateSubmissionStatusRequest struct {
	Status SubmissionStatus `json:"status" binding:"required"`
}
