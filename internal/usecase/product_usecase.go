package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/validator"

	"go.uber.org/zap"
)

// 在庫少の既定しきい値
const DefaultLowStockThreshold = 10

// 商品画像の置き場。usecaseからは削除だけ使う。
type ImageStore interface {
	Remove(filename string) error
}

// 統計のまとめ（ダッシュボード用）
type Statistics struct {
	TotalProducts   int64                `json:"total_products"`
	TotalStockValue float64              `json:"total_stock_value"`
	ByCategory      []repo.CategoryCount `json:"by_category"`
	LowStockCount   int64                `json:"low_stock_count"`
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	logRepo     repo.ProductLogRepository
	images      ImageStore
	logger      *zap.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	logRepo repo.ProductLogRepository,
	images ImageStore,
	logger *zap.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		logRepo:     logRepo,
		images:      images,
		logger:      logger,
	}
}

// Create は検証→保存→監査ログの順で商品を作る。
// sku重複などの保存失敗時は監査ログを残さない。
func (u *ProductUsecase) Create(ctx context.Context, actor string, in validator.RawProductInput) (int64, error) {
	p, err := validator.ValidateProduct(in)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := u.productRepo.Create(ctx, p)
	if err != nil {
		return 0, err
	}

	u.logAction(ctx, actor, model.LogActionCreate, created.ID, created)
	return created.ID, nil
}

// GetByID は1件取得。見つからなければ(nil, nil)で返す（エラーではない）。
func (u *ProductUsecase) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		//読み取り失敗は呼び出し側に投げず、空で返す
		u.logger.Error("find product failed", zap.Int64("product_id", id), zap.Error(err))
		return nil, nil
	}
	return &p, nil
}

// List は新しい順の一覧。limit<=0なら全件。
func (u *ProductUsecase) List(ctx context.Context, limit int, offset int) []model.Product {
	products, err := u.productRepo.List(ctx, repo.ProductListQuery{Limit: limit, Offset: offset})
	if err != nil {
		u.logger.Error("list products failed", zap.Error(err))
		return []model.Product{}
	}
	if products == nil {
		products = []model.Product{}
	}
	return products
}

// Search は部分一致検索。空のtermは全件一覧と同じ。
func (u *ProductUsecase) Search(ctx context.Context, term string) []model.Product {
	products, err := u.productRepo.Search(ctx, term)
	if err != nil {
		u.logger.Error("search products failed", zap.String("term", term), zap.Error(err))
		return []model.Product{}
	}
	if products == nil {
		products = []model.Product{}
	}
	return products
}

// Update は検証→変更前取得→全カラム置き換え→監査ログ（before/after）。
// 対象がなければErrNotFoundを返す。
func (u *ProductUsecase) Update(ctx context.Context, actor string, id int64, in validator.RawProductInput) error {
	p, err := validator.ValidateProduct(in)
	if err != nil {
		return err
	}

	//監査ログのbeforeを先に取る
	before, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	p.ID = id
	//created_atは更新で変わらない。afterスナップショットにも元の値を残す。
	p.CreatedAt = before.CreatedAt
	p.UpdatedAt = time.Now()

	if err := u.productRepo.Update(ctx, p); err != nil {
		return err
	}

	u.logAction(ctx, actor, model.LogActionUpdate, id, map[string]interface{}{
		"before": before,
		"after":  p,
	})
	return nil
}

// Delete は画像→行の順で消し、削除前の全レコードを監査ログに残す。
// 画像の削除失敗で行削除は止めない。
func (u *ProductUsecase) Delete(ctx context.Context, actor string, id int64) error {
	before, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if before.Image != nil && *before.Image != "" {
		if err := u.images.Remove(*before.Image); err != nil {
			u.logger.Warn("remove product image failed",
				zap.Int64("product_id", id), zap.String("image", *before.Image), zap.Error(err))
		}
	}

	if err := u.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	u.logAction(ctx, actor, model.LogActionDelete, id, before)
	return nil
}

// Count は総件数。失敗時は0。
func (u *ProductUsecase) Count(ctx context.Context) int64 {
	total, err := u.productRepo.Count(ctx)
	if err != nil {
		u.logger.Error("count products failed", zap.Error(err))
		return 0
	}
	return total
}

// LowStock は在庫がthreshold以下の商品。threshold<0なら既定値10。
// 0は「在庫切れだけ」の指定として通す。
func (u *ProductUsecase) LowStock(ctx context.Context, threshold int64) []model.Product {
	if threshold < 0 {
		threshold = DefaultLowStockThreshold
	}

	products, err := u.productRepo.ListLowStock(ctx, threshold)
	if err != nil {
		u.logger.Error("list low stock failed", zap.Int64("threshold", threshold), zap.Error(err))
		return []model.Product{}
	}
	if products == nil {
		products = []model.Product{}
	}
	return products
}

// GetStatistics はダッシュボード用の集計。部分的な失敗は0件として埋める。
func (u *ProductUsecase) GetStatistics(ctx context.Context) Statistics {
	stats := Statistics{ByCategory: []repo.CategoryCount{}}

	stats.TotalProducts = u.Count(ctx)

	value, err := u.productRepo.SumStockValue(ctx)
	if err != nil {
		u.logger.Error("sum stock value failed", zap.Error(err))
	} else {
		stats.TotalStockValue = value
	}

	byCategory, err := u.productRepo.CountByCategory(ctx)
	if err != nil {
		u.logger.Error("count by category failed", zap.Error(err))
	} else if byCategory != nil {
		stats.ByCategory = byCategory
	}

	stats.LowStockCount = int64(len(u.LowStock(ctx, DefaultLowStockThreshold)))

	return stats
}

// ListLogs は監査ログの一覧。失敗時は空。
func (u *ProductUsecase) ListLogs(ctx context.Context, filter repo.ProductLogFilter) []model.ProductLog {
	logs, err := u.logRepo.List(ctx, filter)
	if err != nil {
		u.logger.Error("list product logs failed", zap.Error(err))
		return []model.ProductLog{}
	}
	if logs == nil {
		logs = []model.ProductLog{}
	}
	return logs
}

// logAction は監査ログを1件追記する。
// 記録失敗は呼び出し元のCRUD結果に影響させない（ログに残すだけ）。
func (u *ProductUsecase) logAction(ctx context.Context, actor string, action model.LogAction, productID int64, details interface{}) {
	if actor == "" {
		actor = model.SystemUser
	}

	var detailsJSON *string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			u.logger.Error("marshal log details failed", zap.Error(err))
		} else {
			s := string(b)
			detailsJSON = &s
		}
	}

	entry := model.ProductLog{
		ProductID: &productID,
		Action:    action,
		User:      actor,
		Details:   detailsJSON,
		CreatedAt: time.Now(),
	}

	if err := u.logRepo.Create(ctx, entry); err != nil {
		u.logger.Error("write product log failed",
			zap.Int64("product_id", productID), zap.String("action", string(action)), zap.Error(err))
	}
}
