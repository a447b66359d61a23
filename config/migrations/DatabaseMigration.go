package migrations

import (
	"github.com/trakkie-id/paymentrails/model"
	"gorm.io/gorm"
)

func MigrateDatabase(db *gorm.DB) {
	_ = db.Table(model.SCHEME_NEFT.TransactionTable()).AutoMigrate(&model.Transaction{})
	_ = db.Table(model.SCHEME_RTGS.TransactionTable()).AutoMigrate(&model.Transaction{})
	_ = db.Table(model.SCHEME_NEFT.BatchTable()).AutoMigrate(&model.Batch{})
	_ = db.Table(model.SCHEME_RTGS.BatchTable()).AutoMigrate(&model.Batch{})
	_ = db.AutoMigrate(&model.AuditLog{})
}
