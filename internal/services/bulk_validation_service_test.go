package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"submissions-service/internal/models"
	"submissions-service/internal/products"
	"submissions-service/internal/repository"
)

// MockSubmissionRepository is a mock implementation of SubmissionRepositoryInterface
type MockSubmissionRepository struct {
	mock.Mock
}

// Ensure MockSubmissionRepository implements the interface
var _ repository.SubmissionRepositoryInterface = (*MockSubmissionRepository)(nil)

func (m *MockSubmissionRepository) GetUnitPrices(ctx context.Context, tenantID string) (map[products.ProductType]int, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[products.ProductType]int), args.Error(1)
}

func (m *MockSubmissionRepository) GetWallet(ctx context.Context, tenantID, clientID string) (*models.Wallet, error) {
	args := m.Called(ctx, tenantID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockSubmissionRepository) CommitBatch(ctx context.Context, tenantID, clientID string, batchID uuid.UUID, orders []*models.CampaignOrder) (int, error) {
	args := m.Called(ctx, tenantID, clientID, batchID, orders)
	return args.Int(0), args.Error(1)
}

func (m *MockSubmissionRepository) ListSubmissions(ctx context.Context, tenantID, clientID string, limit, offset int) ([]models.CampaignOrder, int64, error) {
	args := m.Called(ctx, tenantID, clientID, limit, offset)
	return args.Get(0).([]models.CampaignOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) GetSubmission(ctx context.Context, tenantID string, id uuid.UUID) (*models.CampaignOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CampaignOrder), args.Error(1)
}

func (m *MockSubmissionRepository) UpdateSubmissionStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.SubmissionStatus) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *MockSubmissionRepository) ListWalletTransactions(ctx context.Context, tenantID, clientID string, limit, offset int) ([]models.WalletTransaction, int64, error) {
	args := m.Called(ctx, tenantID, clientID, limit, offset)
	return args.Get(0).([]models.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func rewardBulkRow(rowNumber int) models.BulkRow {
	row := products.ParsedRow{
		SheetName: "리워드",
		RowNumber: rowNumber,
		Product:   products.ProductReward,
		Cells: map[string]string{
			"product_name":   "강남 새로국밥",
			"place_url":      "https://m.place.naver.com/restaurant/11672104/home",
			"start_date":     "2026-09-01",
			"operation_days": "7",
			"daily_count":    "100",
		},
	}
	return models.BulkRow{Row: row, Local: products.ValidateRow(row)}
}

func blogBulkRow(rowNumber int) models.BulkRow {
	row := products.ParsedRow{
		SheetName: "블로그배포",
		RowNumber: rowNumber,
		Product:   products.ProductBlogReviewer,
		Cells: map[string]string{
			"distribution_type": "리뷰어",
			"start_date":        "2026-09-01",
			"end_date":          "2026-09-20",
			"content_type":      "포스팅",
			"place_url":         "https://place.naver.com/restaurant/11672104",
			"daily_count":       "5",
			"total_count":       "100",
			"operation_days":    "20",
		},
	}
	return models.BulkRow{Row: row, Local: products.ValidateRow(row)}
}

func testWallet(tenantID, clientID string, balance int) *models.Wallet {
	return &models.Wallet{
		ID:       uuid.New(),
		TenantID: tenantID,
		ClientID: clientID,
		Balance:  balance,
	}
}

func TestValidateBatch_Success(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{
			products.ProductReward:       10,
			products.ProductBlogReviewer: 50,
		}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(testWallet(tenantID, clientID, 100000), nil)

	rows := []models.BulkRow{rewardBulkRow(2), blogBulkRow(2)}

	report, err := service.ValidateBatch(ctx, tenantID, clientID, rows)

	assert.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Summary.TotalRows)
	assert.Equal(t, 2, report.Summary.ValidRows)
	assert.Equal(t, 0, report.Summary.InvalidRows)
	// reward: 100/day × 7 days × 10 points, blog: 100 units × 50 points
	assert.Equal(t, 7000+5000, report.Summary.TotalCost)
	assert.Equal(t, 100000, report.Summary.CurrentBalance)
	assert.Equal(t, 100000-12000, report.Summary.RemainingBalance)
	assert.False(t, report.Summary.InsufficientBalance)
	assert.True(t, report.Summary.Submittable)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_ServerRevalidatesEveryRow(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{products.ProductReward: 10}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(testWallet(tenantID, clientID, 100000), nil)

	// The client claims this broken row is valid; the server must not
	// take its word for it.
	bad := rewardBulkRow(2)
	bad.Row.Cells["daily_count"] = "99"
	bad.Local = products.ValidationResult{Valid: true}

	report, err := service.ValidateBatch(ctx, tenantID, clientID, []models.BulkRow{bad})

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Summary.InvalidRows)
	assert.False(t, report.Summary.Submittable)
	assert.True(t, report.Rows[0].Local.Valid)
	assert.False(t, report.Rows[0].Server.Valid)
	assert.False(t, report.Rows[0].Merged.Valid)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{products.ProductReward: 10}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(testWallet(tenantID, clientID, 1000), nil)

	report, err := service.ValidateBatch(ctx, tenantID, clientID, []models.BulkRow{rewardBulkRow(2)})

	assert.NoError(t, err)
	// Every row is individually valid; the batch as a whole is not.
	assert.Equal(t, 0, report.Summary.InvalidRows)
	assert.True(t, report.Summary.InsufficientBalance)
	assert.Equal(t, 1000-7000, report.Summary.RemainingBalance)
	assert.False(t, report.Summary.Submittable)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_MissingPricing(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(testWallet(tenantID, clientID, 100000), nil)

	report, err := service.ValidateBatch(ctx, tenantID, clientID, []models.BulkRow{rewardBulkRow(2)})

	assert.NoError(t, err)
	// The row stays valid; missing pricing is a batch-level condition.
	assert.Equal(t, 1, report.Summary.ValidRows)
	assert.Contains(t, report.Summary.BatchErrors[0], "리워드")
	assert.False(t, report.Summary.Submittable)
	assert.Equal(t, 0, report.Summary.TotalCost)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_NoWallet(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{products.ProductReward: 10}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(nil, repository.ErrWalletNotFound)

	report, err := service.ValidateBatch(ctx, tenantID, clientID, []models.BulkRow{rewardBulkRow(2)})

	assert.NoError(t, err)
	assert.Contains(t, report.Summary.BatchErrors, "no wallet exists for this account")
	assert.Equal(t, 0, report.Summary.CurrentBalance)
	assert.False(t, report.Summary.Submittable)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_WalletLoadError(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{products.ProductReward: 10}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(nil, errors.New("connection refused"))

	report, err := service.ValidateBatch(ctx, tenantID, clientID, []models.BulkRow{rewardBulkRow(2)})

	assert.Error(t, err)
	assert.Nil(t, report)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_RowsSortedBySourceOrder(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{
			products.ProductReward:       10,
			products.ProductBlogReviewer: 50,
		}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(testWallet(tenantID, clientID, 1000000), nil)

	rows := []models.BulkRow{rewardBulkRow(5), blogBulkRow(3), rewardBulkRow(2)}

	report, err := service.ValidateBatch(ctx, tenantID, clientID, rows)

	assert.NoError(t, err)
	// "리워드" sorts before "블로그배포"; within a sheet, by row number.
	assert.Equal(t, "리워드", report.Rows[0].Row.SheetName)
	assert.Equal(t, 2, report.Rows[0].Row.RowNumber)
	assert.Equal(t, 5, report.Rows[1].Row.RowNumber)
	assert.Equal(t, "블로그배포", report.Rows[2].Row.SheetName)
	mockRepo.AssertExpectations(t)
}

func TestValidateBatch_EmptyBatchNotSubmittable(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant-123"
	clientID := "client-9"

	mockRepo := new(MockSubmissionRepository)
	service := NewBulkValidationService(mockRepo, nil)

	mockRepo.On("GetUnitPrices", ctx, tenantID).
		Return(map[products.ProductType]int{}, nil)
	mockRepo.On("GetWallet", ctx, tenantID, clientID).
		Return(testWallet(tenantID, clientID, 100000), nil)

	report, err := service.ValidateBatch(ctx, tenantID, clientID, nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, report.Summary.TotalRows)
	assert.False(t, report.Summary.Submittable)
	mockRepo.AssertExpectations(t)
}
