package server

import (
	"app/internal/config"
	"app/internal/handler"
	"app/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はルート登録済みのechoを組み立てる。
func New(
	cfg config.Config,
	authH *handler.AuthHandler,
	productH *handler.ProductHandler,
	logH *handler.ProductLogHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	//ログイン
	authH.RegisterRoutes(e)

	//ここから下は要ログイン
	api := e.Group("")
	api.Use(middleware.AuthJWT(cfg))

	productH.RegisterRoutes(api)
	logH.RegisterRoutes(api)

	//アップロード済み画像の配信
	e.Static("/uploads", cfg.UploadDir)

	return e
}

// Start はサーバーを起動する。
func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
