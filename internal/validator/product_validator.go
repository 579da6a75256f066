package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"app/internal/domain/model"
)

// フォームから来たままの商品入力。数値欄も文字列で受ける。
type RawProductInput struct {
	Name          string
	SKU           string
	Description   string
	Price         string
	Supplier      string
	Category      string
	StockQuantity string
	Image         string
}

// 必須項目の欠落。Fieldにどの項目かを持つ。
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

//<tag>形式のマークアップを落とすため
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// タグ除去してから前後の空白を落とす。
func sanitize(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}

// 空文字はNULLとして保存する
func optional(s string) *string {
	s = sanitize(s)
	if s == "" {
		return nil
	}
	return &s
}

// ValidateProduct は生入力を検証・整形して保存可能なProductにする。
// 返り値に未整形の文字列は残らない。ID/timestampsはstore側で入る。
func ValidateProduct(in RawProductInput) (model.Product, error) {
	var p model.Product

	// name - 必須
	p.Name = sanitize(in.Name)
	if p.Name == "" {
		return model.Product{}, &ValidationError{Field: "name"}
	}

	// sku - 必須
	p.SKU = sanitize(in.SKU)
	if p.SKU == "" {
		return model.Product{}, &ValidationError{Field: "sku"}
	}

	// description - 任意
	p.Description = optional(in.Description)

	// price - 数値でなければ0.00に倒す。範囲チェックはしない。
	if f, err := strconv.ParseFloat(strings.TrimSpace(in.Price), 64); err == nil {
		p.Price = f
	} else {
		p.Price = 0.00
	}

	// supplier / category - 任意
	p.Supplier = optional(in.Supplier)
	p.Category = optional(in.Category)

	// stock_quantity - 数値でなければ0に倒す。小数は切り捨て。
	if f, err := strconv.ParseFloat(strings.TrimSpace(in.StockQuantity), 64); err == nil {
		p.StockQuantity = int64(f)
	} else {
		p.StockQuantity = 0
	}

	// image - 任意（存在チェックはここではしない）
	p.Image = optional(in.Image)

	return p, nil
}
