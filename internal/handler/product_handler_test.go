package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"app/internal/domain/model"
	"app/internal/handler"
	repo "app/internal/repository"
	"app/internal/upload"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =====================
// Mocks（handler専用：名前衝突回避）
// =====================

type HProductRepoMock struct{ mock.Mock }

func (m *HProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *HProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *HProductRepoMock) Search(ctx context.Context, term string) ([]model.Product, error) {
	args := m.Called(ctx, term)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *HProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *HProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *HProductRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *HProductRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *HProductRepoMock) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	args := m.Called(ctx, threshold)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *HProductRepoMock) SumStockValue(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *HProductRepoMock) CountByCategory(ctx context.Context) ([]repo.CategoryCount, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).([]repo.CategoryCount)
	return counts, args.Error(1)
}

type HLogRepoMock struct{ mock.Mock }

func (m *HLogRepoMock) Create(ctx context.Context, log model.ProductLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *HLogRepoMock) List(ctx context.Context, filter repo.ProductLogFilter) ([]model.ProductLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.ProductLog)
	return logs, args.Error(1)
}

var _ repo.ProductRepository = (*HProductRepoMock)(nil)
var _ repo.ProductLogRepository = (*HLogRepoMock)(nil)

// =====================
// helper
// =====================

func newEcho(t *testing.T, pRepo *HProductRepoMock, lRepo *HLogRepoMock) *echo.Echo {
	t.Helper()

	gate := upload.NewGate(t.TempDir())
	uc := usecase.NewProductUsecase(pRepo, lRepo, gate, zap.NewNop())
	h := handler.NewProductHandler(uc, gate)

	e := echo.New()
	h.RegisterRoutes(e.Group(""))
	return e
}

// name/sku等のフィールドだけのmultipartボディを作る
func multipartBody(t *testing.T, fields map[string]string, imageName string, imageContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(imageContent)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestProductHandler_Create_Success(t *testing.T) {
	pRepo := new(HProductRepoMock)
	lRepo := new(HLogRepoMock)
	e := newEcho(t, pRepo, lRepo)

	pRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Name == "Widget" && p.SKU == "W-1" && p.Price == 9.99 && p.StockQuantity == 5
	})).Return(model.Product{ID: 11}, nil)
	lRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	body, ct := multipartBody(t, map[string]string{
		"name":           "Widget",
		"sku":            "W-1",
		"price":          "9.99",
		"stock_quantity": "5",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp handler.ProductCreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.ID)
}

func TestProductHandler_Create_WithImageStoresFile(t *testing.T) {
	pRepo := new(HProductRepoMock)
	lRepo := new(HLogRepoMock)
	e := newEcho(t, pRepo, lRepo)

	pRepo.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Image != nil && strings.HasSuffix(*p.Image, "_photo.png")
	})).Return(model.Product{ID: 12}, nil)
	lRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	body, ct := multipartBody(t, map[string]string{
		"name": "Widget",
		"sku":  "W-2",
	}, "photo.png", pngHeader)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	pRepo.AssertExpectations(t)
}

func TestProductHandler_Create_MissingName_400(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	body, ct := multipartBody(t, map[string]string{"sku": "W-1"}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductHandler_Create_DuplicateSKU_409(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	pRepo.On("Create", mock.Anything, mock.Anything).Return(model.Product{}, repo.ErrDuplicateSKU)

	body, ct := multipartBody(t, map[string]string{"name": "Widget", "sku": "W-1"}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProductHandler_Create_BadImage_400(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	body, ct := multipartBody(t, map[string]string{"name": "Widget", "sku": "W-1"}, "fake.png", []byte("not an image"))

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductHandler_Detail_NotFound_404(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	pRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/products/99", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductHandler_List_SearchParamUsesRankedSearch(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	pRepo.On("Search", mock.Anything, "W-1").Return([]model.Product{{ID: 1, SKU: "W-1"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products?search=W-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "W-1", resp.Items[0].SKU)

	pRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestProductHandler_Update_NotFound_404(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	pRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	body, ct := multipartBody(t, map[string]string{"name": "Widget", "sku": "W-1"}, "", nil)

	req := httptest.NewRequest(http.MethodPut, "/products/99", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductHandler_Delete_Success(t *testing.T) {
	pRepo := new(HProductRepoMock)
	lRepo := new(HLogRepoMock)
	e := newEcho(t, pRepo, lRepo)

	pRepo.On("FindByID", mock.Anything, int64(3)).Return(model.Product{ID: 3, Name: "W", SKU: "S"}, nil)
	pRepo.On("Delete", mock.Anything, int64(3)).Return(nil)
	lRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/products/3", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	pRepo.AssertExpectations(t)
}

func TestProductHandler_LowStock_CustomThreshold(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	pRepo.On("ListLowStock", mock.Anything, int64(3)).Return([]model.Product{{ID: 1, StockQuantity: 2}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/low-stock?threshold=3", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handler.ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
}

func TestProductHandler_LowStock_NoParamUsesDefault(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	pRepo.On("ListLowStock", mock.Anything, int64(10)).Return([]model.Product{{ID: 1, StockQuantity: 4}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/low-stock", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	pRepo.AssertExpectations(t)
}

func TestProductHandler_LowStock_ZeroThresholdPassedThrough(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	//threshold=0は既定値に置き換えない
	pRepo.On("ListLowStock", mock.Anything, int64(0)).Return([]model.Product{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/products/low-stock?threshold=0", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	pRepo.AssertExpectations(t)
}

func TestProductHandler_LowStock_NegativeThresholdRejected(t *testing.T) {
	pRepo := new(HProductRepoMock)
	e := newEcho(t, pRepo, new(HLogRepoMock))

	req := httptest.NewRequest(http.MethodGet, "/products/low-stock?threshold=-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	pRepo.AssertNotCalled(t, "ListLowStock", mock.Anything, mock.Anything)
}
