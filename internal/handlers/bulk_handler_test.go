package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"submissions-service/internal/excel"
	"submissions-service/internal/models"
	"submissions-service/internal/products"
	"submissions-service/internal/services"
)

// MockBulkValidationService is a mock implementation of BulkValidationService
type MockBulkValidationService struct {
	mock.Mock
}

var _ services.BulkValidationService = (*MockBulkValidationService)(nil)

func (m *MockBulkValidationService) ValidateBatch(ctx context.Context, tenantID, clientID string, rows []models.BulkRow) (*models.BulkValidationReport, error) {
	args := m.Called(ctx, tenantID, clientID, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkValidationReport), args.Error(1)
}

// MockBulkSubmitService is a mock implementation of BulkSubmitService
type MockBulkSubmitService struct {
	mock.Mock
}

var _ services.BulkSubmitService = (*MockBulkSubmitService)(nil)

func (m *MockBulkSubmitService) Submit(ctx context.Context, tenantID, clientID string, rows []models.BulkRow) (*models.BulkSubmitResult, error) {
	args := m.Called(ctx, tenantID, clientID, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkSubmitResult), args.Error(1)
}

func setTestContext(tenantID, clientID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("tenant_id", tenantID)
		c.Set("client_id", clientID)
		c.Next()
	}
}

func setupBulkRouter(handler *BulkHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	bulk := router.Group("/api/v1/bulk")
	bulk.Use(setTestContext("tenant-123", "client-9"))
	{
		bulk.GET("/template", handler.GetTemplate)
		bulk.POST("/parse", handler.ParseWorkbook)
		bulk.POST("/validate", handler.ValidateBatch)
		bulk.POST("/submit", handler.SubmitBatch)
	}
	return router
}

func multipartUpload(t *testing.T, fieldName, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func templateBytes(t *testing.T, pt products.ProductType) []byte {
	t.Helper()
	f, err := excel.BuildTemplate(pt)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestGetTemplate_SingleProduct(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk/template?product=reward", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bulk_reward_template.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), "리워드")
	require.NoError(t, f.Close())
}

func TestGetTemplate_Combined(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk/template", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bulk_submission_template.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "영수증리뷰")
	assert.Contains(t, sheets, "블로그배포")
	assert.Contains(t, sheets, "리워드")
	assert.Contains(t, sheets, products.GuideSheetName)
	require.NoError(t, f.Close())
}

func TestGetTemplate_UnknownProduct(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk/template?product=coupon", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_PRODUCT", resp.Error.Code)
}

func TestParseWorkbook_Success(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	body, contentType := multipartUpload(t, "file", "upload.xlsx", templateBytes(t, products.ProductReward), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.RowCount)
	assert.Equal(t, 2, resp.ValidRows)
	assert.Equal(t, products.ProductReward, resp.Rows[0].Row.Product)
	assert.True(t, resp.Rows[0].Local.Valid)
}

func TestParseWorkbook_ReportsLocalErrors(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "리워드")
	f.SetCellValue("리워드", "A1", "상품명")
	f.SetCellValue("리워드", "B1", "일건수")
	f.SetCellValue("리워드", "A2", "강남 새로국밥")
	f.SetCellValue("리워드", "B2", "99")
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	body, contentType := multipartUpload(t, "file", "upload.xlsx", buf.Bytes(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RowCount)
	assert.Equal(t, 0, resp.ValidRows)
	assert.False(t, resp.Rows[0].Local.Valid)
	assert.NotEmpty(t, resp.Rows[0].Local.Errors)
}

func TestParseWorkbook_ForcedProduct(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Data")
	f.SetCellValue("Data", "A1", "product_name")
	f.SetCellValue("Data", "A2", "강남 새로국밥")
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	body, contentType := multipartUpload(t, "file", "upload.xlsx", buf.Bytes(), map[string]string{"product": "reward"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ParseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, products.ProductReward, resp.Rows[0].Row.Product)
}

func TestParseWorkbook_MissingFile(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FILE_REQUIRED", resp.Error.Code)
}

func TestParseWorkbook_RejectsNonXLSX(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	body, contentType := multipartUpload(t, "file", "upload.csv", []byte("a,b,c"), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
}

func TestParseWorkbook_NoValidSheets(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Data")
	f.SetCellValue("Data", "A1", "whatever")
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	body, contentType := multipartUpload(t, "file", "upload.xlsx", buf.Bytes(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_VALID_SHEETS", resp.Error.Code)
}

func TestParseWorkbook_EmptyWorkbook(t *testing.T) {
	router := setupBulkRouter(NewBulkHandler(nil, nil))

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "리워드")
	f.SetCellValue("리워드", "A1", "상품명")
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	body, contentType := multipartUpload(t, "file", "upload.xlsx", buf.Bytes(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/parse", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "EMPTY_FILE", resp.Error.Code)
}

func TestValidateBatch_Endpoint(t *testing.T) {
	mockValidator := new(MockBulkValidationService)
	router := setupBulkRouter(NewBulkHandler(mockValidator, nil))

	report := &models.BulkValidationReport{
		Success: true,
		Summary: models.BulkValidationSummary{
			TotalRows:   1,
			ValidRows:   1,
			TotalCost:   7000,
			Submittable: true,
		},
	}
	mockValidator.On("ValidateBatch", mock.Anything, "tenant-123", "client-9", mock.AnythingOfType("[]models.BulkRow")).
		Return(report, nil)

	payload, _ := json.Marshal(models.ValidateBatchRequest{
		Rows: []models.BulkRow{{Row: products.ParsedRow{RowNumber: 2, Product: products.ProductReward}}},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.BulkValidationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Summary.Submittable)
	mockValidator.AssertExpectations(t)
}

func TestValidateBatch_Endpoint_EmptyRows(t *testing.T) {
	mockValidator := new(MockBulkValidationService)
	router := setupBulkRouter(NewBulkHandler(mockValidator, nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/validate", bytes.NewReader([]byte(`{"rows":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockValidator.AssertNotCalled(t, "ValidateBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitBatch_Committed(t *testing.T) {
	mockSubmitter := new(MockBulkSubmitService)
	router := setupBulkRouter(NewBulkHandler(nil, mockSubmitter))

	result := &models.BulkSubmitResult{
		Success:      true,
		BatchID:      uuid.New(),
		SuccessCount: 1,
		PointsSpent:  7000,
		NewBalance:   93000,
	}
	mockSubmitter.On("Submit", mock.Anything, "tenant-123", "client-9", mock.AnythingOfType("[]models.BulkRow")).
		Return(result, nil)

	payload, _ := json.Marshal(models.SubmitBatchRequest{
		Rows: []models.BulkRow{{Row: products.ParsedRow{RowNumber: 2, Product: products.ProductReward}}},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/submit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.BulkSubmitResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 93000, resp.NewBalance)
	mockSubmitter.AssertExpectations(t)
}

func TestSubmitBatch_RejectionReturns409(t *testing.T) {
	mockSubmitter := new(MockBulkSubmitService)
	router := setupBulkRouter(NewBulkHandler(nil, mockSubmitter))

	result := &models.BulkSubmitResult{
		Success:       false,
		RolledBack:    false,
		FailedCount:   1,
		FailureReason: "1 of 1 rows failed validation",
	}
	mockSubmitter.On("Submit", mock.Anything, "tenant-123", "client-9", mock.AnythingOfType("[]models.BulkRow")).
		Return(result, nil)

	payload, _ := json.Marshal(models.SubmitBatchRequest{
		Rows: []models.BulkRow{{Row: products.ParsedRow{RowNumber: 2, Product: products.ProductReward}}},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/submit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockSubmitter.AssertExpectations(t)
}

func TestSubmitBatch_RollbackReturns200(t *testing.T) {
	mockSubmitter := new(MockBulkSubmitService)
	router := setupBulkRouter(NewBulkHandler(nil, mockSubmitter))

	result := &models.BulkSubmitResult{
		Success:       false,
		RolledBack:    true,
		FailedCount:   1,
		FailureReason: "insufficient balance",
	}
	mockSubmitter.On("Submit", mock.Anything, "tenant-123", "client-9", mock.AnythingOfType("[]models.BulkRow")).
		Return(result, nil)

	payload, _ := json.Marshal(models.SubmitBatchRequest{
		Rows: []models.BulkRow{{Row: products.ParsedRow{RowNumber: 2, Product: products.ProductReward}}},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/submit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.BulkSubmitResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.RolledBack)
	mockSubmitter.AssertExpectations(t)
}
