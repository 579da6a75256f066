package handler

import (
	"errors"
	"net/http"
	"strconv"

	"app/internal/domain/model"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/upload"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// 商品一覧のレスポンス
type ProductListResponse struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
}

// 作成時のレスポンス
type ProductCreatedResponse struct {
	ID int64 `json:"id"`
}

// エラー種別をHTTPステータスへ写す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	var ve *validator.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Error()})
	}
	if errors.Is(err, repo.ErrDuplicateSKU) {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "sku already exists"})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
	switch {
	case errors.Is(err, upload.ErrFileTooLarge),
		errors.Is(err, upload.ErrExtensionNotAllowed),
		errors.Is(err, upload.ErrInvalidContent):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// contextからactor（操作ユーザー名）を取り出す
func getActor(c echo.Context) string {
	if v, ok := c.Get(middleware.CtxUsernameKey).(string); ok {
		return v
	}
	return ""
}

// /products をまとめる
type ProductHandler struct {
	uc   *usecase.ProductUsecase
	gate *upload.Gate
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase, gate *upload.Gate) *ProductHandler {
	return &ProductHandler{uc: uc, gate: gate}
}

// ログイン必須のグループに商品ルートを登録
func (h *ProductHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/products", h.list)
	g.GET("/products/low-stock", h.lowStock)
	g.GET("/products/stats", h.stats)
	g.GET("/products/:id", h.detail)
	g.POST("/products", h.create)
	g.PUT("/products/:id", h.update)
	g.DELETE("/products/:id", h.delete)
}

// GET /products?search=&limit=&offset=
func (h *ProductHandler) list(c echo.Context) error {
	ctx := c.Request().Context()

	//searchありなら順位付き検索。空文字は全件と同じ。
	if term := c.QueryParam("search"); term != "" {
		items := h.uc.Search(ctx, term)
		return c.JSON(http.StatusOK, ProductListResponse{Items: items, Total: int64(len(items))})
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = n
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		offset = n
	}

	items := h.uc.List(ctx, limit, offset)
	return c.JSON(http.StatusOK, ProductListResponse{Items: items, Total: h.uc.Count(ctx)})
}

// GET /products/:id
func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	p, err := h.uc.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if p == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}
	return c.JSON(http.StatusOK, p)
}

// POST /products（multipart: 項目 + 任意のimage）
func (h *ProductHandler) create(c echo.Context) error {
	raw, err := h.bindProductForm(c)
	if err != nil {
		return writeError(c, err)
	}

	id, err := h.uc.Create(c.Request().Context(), getActor(c), raw)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, ProductCreatedResponse{ID: id})
}

// PUT /products/:id
func (h *ProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	raw, err := h.bindProductForm(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Update(c.Request().Context(), getActor(c), id, raw); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

// DELETE /products/:id
func (h *ProductHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product id"})
	}

	if err := h.uc.Delete(c.Request().Context(), getActor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// GET /products/low-stock?threshold=
func (h *ProductHandler) lowStock(c echo.Context) error {
	//指定なしは既定値。0（在庫切れだけ）は明示指定として通す。
	threshold := int64(-1)
	if v := c.QueryParam("threshold"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid threshold"})
		}
		threshold = n
	}

	items := h.uc.LowStock(c.Request().Context(), threshold)
	return c.JSON(http.StatusOK, ProductListResponse{Items: items, Total: int64(len(items))})
}

// GET /products/stats
func (h *ProductHandler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.GetStatistics(c.Request().Context()))
}

// multipartフォームをそのままRawProductInputへ詰める。
// 新しい画像があれば受付（検証+保存）し、なければcurrent_imageを引き継ぐ。
func (h *ProductHandler) bindProductForm(c echo.Context) (validator.RawProductInput, error) {
	raw := validator.RawProductInput{
		Name:          c.FormValue("name"),
		SKU:           c.FormValue("sku"),
		Description:   c.FormValue("description"),
		Price:         c.FormValue("price"),
		Supplier:      c.FormValue("supplier"),
		Category:      c.FormValue("category"),
		StockQuantity: c.FormValue("stock_quantity"),
		Image:         c.FormValue("current_image"),
	}

	fh, err := c.FormFile("image")
	if err != nil {
		//ファイルなし（JSONフォームなど）は通常ケース
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return raw, nil
		}
		return raw, err
	}

	filename, err := h.gate.Store(fh)
	if err != nil {
		return raw, err
	}
	raw.Image = filename

	return raw, nil
}
