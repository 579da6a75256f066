package model

import "time"

// 商品に対する操作の種類。
type LogAction string

const (
	//商品を作成した操作。
	LogActionCreate LogAction = "CREATE"

	//商品を更新した操作。
	LogActionUpdate LogAction = "UPDATE"

	//商品を削除した操作。
	LogActionDelete LogAction = "DELETE"
)

// 未ログイン処理（バッチなど）のときのactor。
const SystemUser = "system"

// 商品の監査ログ（追記専用）。
// 「誰が」「どの商品を」「どう変えたか」を残す。削除後も行は残る。
type ProductLog struct {
	//IDは監査ログの主キー
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//対象の商品ID。削除済み商品は参照ではなく値として残るためNULL許容。
	ProductID *int64 `gorm:"index" json:"product_id"`

	//Actionは操作の種類（CREATE / UPDATE / DELETE）。
	Action LogAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//操作したユーザー名。未特定なら"system"。
	User string `gorm:"column:user;type:varchar(100)" json:"user"`

	//操作内容のスナップショット。JSON文字列で保存する。
	//CREATE: 検証済みデータ / UPDATE: {before, after} / DELETE: 削除前の全レコード
	Details *string `gorm:"type:text" json:"details"`

	//作成時刻
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
