package db

import (
	"autoparts/internal/config"
	"autoparts/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		// 一意制約違反を gorm.ErrDuplicatedKey に変換
		TranslateError: true,
	}
	if cfg.IsProd() {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	return gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
}

// スキーマ作成（マイグレーションはAutoMigrateで済ませる）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}
