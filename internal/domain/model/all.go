package model

// AutoMigrate対象
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&ProductImage{},
		&VehicleCompatibility{},
		&CartItem{},
		&Address{},
		&Order{},
		&OrderItem{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
