package repository

import (
	"context"
	"errors"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 新しい順（id DESC）の一覧。Limit<=0なら全件。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Order("id DESC")

	if q.Limit > 0 {
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		tx = tx.Limit(q.Limit).Offset(offset)
	}

	var products []model.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// 部分一致検索。並びはsku完全一致 > name部分一致 > その他、同順位内はid DESC。
func (r *ProductGormRepository) Search(ctx context.Context, term string) ([]model.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.List(ctx, repo.ProductListQuery{})
	}

	like := "%" + term + "%"

	var products []model.Product
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where(
			"name ILIKE ? OR sku ILIKE ? OR description ILIKE ? OR supplier ILIKE ? OR category ILIKE ?",
			like, like, like, like, like,
		).
		Order(clause.OrderBy{
			Expression: clause.Expr{
				SQL:  "CASE WHEN sku = ? THEN 1 WHEN name ILIKE ? THEN 2 ELSE 3 END, id DESC",
				Vars: []interface{}{term, like},
			},
		}).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// 商品の作成。sku重複はErrDuplicateSKUに写す。
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Product{}, repo.ErrDuplicateSKU
		}
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（全カラム置き換え）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":           p.Name,
		"sku":            p.SKU,
		"description":    p.Description,
		"price":          p.Price,
		"supplier":       p.Supplier,
		"category":       p.Category,
		"stock_quantity": p.StockQuantity,
		"image":          p.Image,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return repo.ErrDuplicateSKU
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（物理削除）
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 総件数
func (r *ProductGormRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// 在庫がthreshold以下の商品を在庫少ない順で返す。
func (r *ProductGormRepository) ListLowStock(ctx context.Context, threshold int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// 在庫総額（Σ price × stock_quantity）
func (r *ProductGormRepository) SumStockValue(ctx context.Context) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("SUM(price * stock_quantity)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	//商品0件ならSUMはNULL
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// カテゴリ別件数（多い順）
func (r *ProductGormRepository) CountByCategory(ctx context.Context) ([]repo.CategoryCount, error) {
	var counts []repo.CategoryCount
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// PostgreSQLのunique_violation（23505）か判定する
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
