package repository

import (
	"context"

	"app/internal/domain/model"
)

//監査ログの絞り込み条件。

type ProductLogFilter struct {
	ProductID *int64
	Action    *model.LogAction
	User      *string
	Limit     int
	Offset    int
}

// 監査ログの保存・一覧取得の約束。
type ProductLogRepository interface {
	//監査ログを1件保存
	Create(ctx context.Context, log model.ProductLog) error

	//監査ログを条件で一覧取得。
	List(ctx context.Context, filter ProductLogFilter) ([]model.ProductLog, error)
}
