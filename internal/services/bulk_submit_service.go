package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"submissions-service/internal/models"
	"submissions-service/internal/repository"
)

// BatchEventPublisher publishes terminal batch events. Nil disables
// publishing; submission never fails because an event could not be sent.
type BatchEventPublisher interface {
	PublishBulkCompleted(ctx context.Context, tenantID, clientID string, result *models.BulkSubmitResult) error
	PublishBulkRolledBack(ctx context.Context, tenantID, clientID string, result *models.BulkSubmitResult) error
}

// BulkSubmitService executes a validated batch as one atomic unit of
// work. It re-derives pricing and the balance gate itself before the
// commit; a stale client view can downgrade to a clean rejection but
// never to a partial commit.
type BulkSubmitService interface {
	Submit(ctx context.Context, tenantID, clientID string, rows []models.BulkRow) (*models.BulkSubmitResult, error)
}

type bulkSubmitService struct {
	repo      repository.SubmissionRepositoryInterface
	validator BulkValidationService
	publisher BatchEventPublisher
	logger    *logrus.Entry
}

func NewBulkSubmitService(repo repository.SubmissionRepositoryInterface, validator BulkValidationService, publisher BatchEventPublisher, logger *logrus.Logger) BulkSubmitService {
	if logger == nil {
		logger = logrus.New()
	}
	return &bulkSubmitService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		logger:    logger.WithField("component", "bulk-submit"),
	}
}

func (s *bulkSubmitService) Submit(ctx context.Context, tenantID, clientID string, rows []models.BulkRow) (*models.BulkSubmitResult, error) {
	report, err := s.validator.ValidateBatch(ctx, tenantID, clientID, rows)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()

	// Rejected before any commit attempt began: this is an ordinary
	// rejection, not a rollback.
	if !report.Summary.Submittable {
		return &models.BulkSubmitResult{
			BatchID:       batchID,
			Rows:          rejectedRows(report),
			FailedCount:   report.Summary.TotalRows,
			NewBalance:    report.Summary.CurrentBalance,
			FailureReason: rejectionReason(report.Summary),
		}, nil
	}

	orders := make([]*models.CampaignOrder, 0, len(report.Rows))
	for _, rr := range report.Rows {
		payload := make(models.JSON, len(rr.Row.Cells))
		for k, v := range rr.Row.Cells {
			payload[k] = v
		}
		orders = append(orders, &models.CampaignOrder{
			SubmissionNumber: generateSubmissionNumber(),
			ProductType:      rr.Row.Product,
			SourceSheet:      rr.Row.SheetName,
			SourceRow:        rr.Row.RowNumber,
			Payload:          payload,
			UnitPrice:        rr.Server.UnitPrice,
			PointCost:        rr.Server.PointCost,
			Status:           models.StatusPending,
		})
	}

	newBalance, err := s.repo.CommitBatch(ctx, tenantID, clientID, batchID, orders)
	if err != nil {
		result := &models.BulkSubmitResult{
			BatchID:       batchID,
			Rows:          make([]models.SubmitRowResult, 0, len(report.Rows)),
			FailedCount:   len(report.Rows),
			NewBalance:    report.Summary.CurrentBalance,
			RolledBack:    true,
			FailureReason: err.Error(),
		}
		for _, rr := range report.Rows {
			result.Rows = append(result.Rows, models.SubmitRowResult{
				RowNumber: rr.Row.RowNumber,
				SheetName: rr.Row.SheetName,
				Product:   rr.Row.Product,
				Error:     "batch rolled back: " + err.Error(),
			})
		}

		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"batch_id":  batchID,
			"rows":      len(report.Rows),
		}).WithError(err).Warn("Bulk submission rolled back")

		s.publishRolledBack(ctx, tenantID, clientID, result)
		return result, nil
	}

	result := &models.BulkSubmitResult{
		Success:      true,
		BatchID:      batchID,
		Rows:         make([]models.SubmitRowResult, 0, len(orders)),
		SuccessCount: len(orders),
		PointsSpent:  report.Summary.TotalCost,
		NewBalance:   newBalance,
	}
	for _, order := range orders {
		result.Rows = append(result.Rows, models.SubmitRowResult{
			RowNumber:        order.SourceRow,
			SheetName:        order.SourceSheet,
			Product:          order.ProductType,
			Success:          true,
			SubmissionNumber: order.SubmissionNumber,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id":    tenantID,
		"batch_id":     batchID,
		"orders":       len(orders),
		"points_spent": result.PointsSpent,
	}).Info("Bulk submission committed")

	if s.publisher != nil {
		if err := s.publisher.PublishBulkCompleted(ctx, tenantID, clientID, result); err != nil {
			s.logger.WithError(err).Warn("Failed to publish bulk completed event")
		}
	}
	return result, nil
}

func (s *bulkSubmitService) publishRolledBack(ctx context.Context, tenantID, clientID string, result *models.BulkSubmitResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBulkRolledBack(ctx, tenantID, clientID, result); err != nil {
		s.logger.WithError(err).Warn("Failed to publish bulk rolled back event")
	}
}

func rejectedRows(report *models.BulkValidationReport) []models.SubmitRowResult {
	rows := make([]models.SubmitRowResult, 0, len(report.Rows))
	for _, rr := range report.Rows {
		row := models.SubmitRowResult{
			RowNumber: rr.Row.RowNumber,
			SheetName: rr.Row.SheetName,
			Product:   rr.Row.Product,
		}
		if len(rr.Merged.Errors) > 0 {
			row.Error = strings.Join(rr.Merged.Errors, "; ")
		}
		rows = append(rows, row)
	}
	return rows
}

func rejectionReason(summary models.BulkValidationSummary) string {
	switch {
	case summary.TotalRows == 0:
		return "no rows to submit"
	case summary.InvalidRows > 0:
		return fmt.Sprintf("%d of %d rows failed validation", summary.InvalidRows, summary.TotalRows)
	case len(summary.BatchErrors) > 0:
		return strings.Join(summary.BatchErrors, "; ")
	case summary.InsufficientBalance:
		return fmt.Sprintf("insufficient balance: need %d points, have %d", summary.TotalCost, summary.CurrentBalance)
	default:
		return "batch is not submittable"
	}
}

func generateSubmissionNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("SUB-%s-%s", time.Now().Format("20060102"), suffix)
}
