package database

import (
	"bakerypos/internal/logger"
	"bakerypos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Staff{},
		&model.AuthorizedDevice{},
		&model.AppSetting{},
		&model.AuditLog{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Discount{},
		&model.Shift{},
		&model.PendingPurchase{},
		&model.Sale{},
		&model.SaleItem{},
		&model.DeductionFailure{},
		&model.DailyInventory{},
		&model.StockMovement{},
		&model.ShiftInventory{},
		&model.ShiftInventoryLine{},
		&model.CustomerOrder{},
		&model.CustomerOrderItem{},
		&model.ChargeCustomer{},
		&model.Receivable{},
		&model.ReceivablePayment{},
		&model.Ingredient{},
		&model.PackagingMaterial{},
		&model.Preparation{},
		&model.PreparationLine{},
		&model.RecipeComponent{},
		&model.InventoryDeductionLog{},
		&model.SalesImport{},
		&model.SalesImportDay{},
		&model.SalesImportItem{},
		&model.ProductMapping{},
	)
	if err != nil {
		logger.Get().WithError(err).Warn("failed to auto-migrate models")
	}

	return db, nil
}
