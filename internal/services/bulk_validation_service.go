package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"submissions-service/internal/models"
	"submissions-service/internal/products"
	"submissions-service/internal/repository"
)

// BulkValidationService is the authoritative validation pass: it re-runs
// every row rule server-side, prices rows from live per-unit pricing and
// gates the batch on the wallet balance. It never trusts client-computed
// validity or cost.
type BulkValidationService interface {
	ValidateBatch(ctx context.Context, tenantID, clientID string, rows []models.BulkRow) (*models.BulkValidationReport, error)
}

type bulkValidationService struct {
	repo   repository.SubmissionRepositoryInterface
	logger *logrus.Entry
}

func NewBulkValidationService(repo repository.SubmissionRepositoryInterface, logger *logrus.Logger) BulkValidationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &bulkValidationService{
		repo:   repo,
		logger: logger.WithField("component", "bulk-validation"),
	}
}

func (s *bulkValidationService) ValidateBatch(ctx context.Context, tenantID, clientID string, rows []models.BulkRow) (*models.BulkValidationReport, error) {
	prices, err := s.repo.GetUnitPrices(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("loading prices: %w", err)
	}

	balance := 0
	var batchErrors []string
	wallet, err := s.repo.GetWallet(ctx, tenantID, clientID)
	switch {
	case err == nil:
		balance = wallet.Balance
	case errors.Is(err, repository.ErrWalletNotFound):
		batchErrors = append(batchErrors, "no wallet exists for this account")
	default:
		return nil, fmt.Errorf("loading wallet: %w", err)
	}

	// Rows are reported in ascending source order so errors map back to
	// the spreadsheet predictably.
	sorted := make([]models.BulkRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Row.SheetName != sorted[j].Row.SheetName {
			return sorted[i].Row.SheetName < sorted[j].Row.SheetName
		}
		return sorted[i].Row.RowNumber < sorted[j].Row.RowNumber
	})

	report := &models.BulkValidationReport{
		Rows: make([]models.RowReport, 0, len(sorted)),
	}
	missingPricing := make(map[products.ProductType]bool)
	totalCost := 0
	validRows := 0

	for _, item := range sorted {
		server := products.ValidateRow(item.Row)

		if server.Valid {
			unitPrice, priced := prices[item.Row.Product]
			units, unitsOK := products.BillableUnits(item.Row)
			switch {
			case !priced:
				missingPricing[item.Row.Product] = true
			case !unitsOK:
				server.Valid = false
				server.Errors = append(server.Errors, "billable unit count could not be determined")
			default:
				server.UnitPrice = unitPrice
				server.PointCost = unitPrice * units
			}
		}

		merged := item.Local.Merge(server)
		if merged.Valid {
			validRows++
			totalCost += server.PointCost
		}

		report.Rows = append(report.Rows, models.RowReport{
			Row:    item.Row,
			Local:  item.Local,
			Server: server,
			Merged: merged,
		})
	}

	for _, cfg := range products.All() {
		if missingPricing[cfg.Type] {
			batchErrors = append(batchErrors, fmt.Sprintf("pricing is not configured for %s", cfg.Name))
		}
	}

	summary := models.BulkValidationSummary{
		TotalRows:           len(sorted),
		ValidRows:           validRows,
		InvalidRows:         len(sorted) - validRows,
		TotalCost:           totalCost,
		CurrentBalance:      balance,
		RemainingBalance:    balance - totalCost,
		InsufficientBalance: totalCost > balance,
		BatchErrors:         batchErrors,
	}
	summary.Submittable = summary.InvalidRows == 0 &&
		!summary.InsufficientBalance &&
		len(batchErrors) == 0 &&
		summary.TotalRows > 0

	report.Summary = summary
	report.Success = true

	s.logger.WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"total_rows":  summary.TotalRows,
		"valid_rows":  summary.ValidRows,
		"total_cost":  summary.TotalCost,
		"submittable": summary.Submittable,
	}).Info("Validated bulk batch")

	return report, nil
}
