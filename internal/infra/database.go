package infra

import (
	"fmt"

	"kioskpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx. Unique and foreign
// key violations are translated to gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations creates / updates every table from the models, then applies
// the idempotent SQL patches AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&model.Account{},
		&model.Product{},
		&model.Menu{},
		&model.Order{},
		&model.LineItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches adds the CHECK constraints that back the domain invariants.
// Each block is guarded by an existence check so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ table, name, check string }{
		{"orders", "chk_orders_total_non_negative", "total >= 0"},
		{"orders", "chk_orders_status", "status IN ('pending','preparing','ready','delivered')"},
		{"orders", "chk_orders_number_digits", "order_number ~ '^[0-9]+$'"},
		{"line_items", "chk_line_items_quantity_positive", "quantity > 0"},
		{"line_items", "chk_line_items_price_non_negative", "price >= 0"},
		{"line_items", "chk_line_items_kind", "item_kind IN ('product','menu')"},
		{"accounts", "chk_accounts_role", "role IN ('admin','preparer','frontdesk')"},
	}

	for _, p := range patches {
		sql := fmt.Sprintf(`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		    ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
		  END IF;
		END $$`, p.name, p.table, p.name, p.check)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.name, err)
		}
	}
	return nil
}
