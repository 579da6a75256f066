package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// skuのUNIQUE制約違反。事前チェックはせずDB側の失敗をこのエラーに写す。
var ErrDuplicateSKU = errors.New("duplicate sku")

// 一覧のページング窓。Limit<=0なら全件。
type ProductListQuery struct {
	Limit  int
	Offset int
}

// カテゴリ別件数（統計用）。
type CategoryCount struct {
	Category *string `json:"category"`
	Count    int64   `json:"count"`
}

// 商品の永続化（保存・取得・集計）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)

	//termの部分一致（大文字小文字無視）をname/sku/description/supplier/categoryへ。
	//並びは sku完全一致 > name部分一致 > その他、同順位内は id DESC。
	Search(ctx context.Context, term string) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, id int64) error

	Count(ctx context.Context) (int64, error)
	ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error)
	SumStockValue(ctx context.Context) (float64, error)
	CountByCategory(ctx context.Context) ([]CategoryCount, error)
}
