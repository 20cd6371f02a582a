package model

// 適合車種（年式は範囲で持つ）
type VehicleCompatibility struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	Make      string `gorm:"type:varchar(100);not null;index" json:"make"`
	Model     string `gorm:"type:varchar(100);not null;index" json:"model"`
	YearStart int    `gorm:"not null" json:"year_start"`
	YearEnd   int    `gorm:"not null" json:"year_end"`
}

func (v VehicleCompatibility) Covers(year int) bool {
	return year >= v.YearStart && year <= v.YearEnd
}
