package repository

import (
	"context"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type productLogGormRepository struct {
	db *gorm.DB
}

func NewProductLogGormRepository(db *gorm.DB) repo.ProductLogRepository {
	return &productLogGormRepository{db: db}
}

func (r *productLogGormRepository) Create(ctx context.Context, log model.ProductLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return err
	}
	return nil
}

func (r *productLogGormRepository) List(ctx context.Context, filter repo.ProductLogFilter) ([]model.ProductLog, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductLog{})

	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Action != nil {
		q = q.Where("action = ?", *filter.Action)
	}
	if filter.User != nil {
		q = q.Where(`"user" = ?`, *filter.User)
	}

	//新しい順
	q = q.Order("id DESC")

	// limit/offset
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	q = q.Limit(limit).Offset(filter.Offset)

	var logs []model.ProductLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
