package handler

import (
	"net/http"
	"strconv"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 監査ログ一覧のレスポンス
type ProductLogListResponse struct {
	Items []model.ProductLog `json:"items"`
}

// /product-logs（閲覧のみ。追記はusecase経由でしか起きない）
type ProductLogHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductLogHandler(uc *usecase.ProductUsecase) *ProductLogHandler {
	return &ProductLogHandler{uc: uc}
}

func (h *ProductLogHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/product-logs", h.list)
}

// GET /product-logs?product_id=&action=&limit=&offset=
func (h *ProductLogHandler) list(c echo.Context) error {
	var filter repo.ProductLogFilter

	if v := c.QueryParam("product_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
		}
		filter.ProductID = &id
	}
	if v := c.QueryParam("action"); v != "" {
		switch model.LogAction(v) {
		case model.LogActionCreate, model.LogActionUpdate, model.LogActionDelete:
			a := model.LogAction(v)
			filter.Action = &a
		default:
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid action"})
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		filter.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		filter.Offset = n
	}

	logs := h.uc.ListLogs(c.Request().Context(), filter)
	return c.JSON(http.StatusOK, ProductLogListResponse{Items: logs})
}
