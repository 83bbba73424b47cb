package migrations

import (
	"fmt"
	"strings"

	"inventory/m/internal/database"
)

// Run creates the database schema required by the inventory API.
func Run(db *database.DB) error {
	for _, stmt := range schema(db.Driver()) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, stmt)
		}
	}
	return nil
}

func schema(driver string) []string {
	id, ts, boolean := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME", "BOOLEAN"
	suffix := ""
	switch driver {
	case database.Postgres:
		id, ts = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	case database.MySQL:
		id = "BIGINT AUTO_INCREMENT PRIMARY KEY"
		suffix = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}
	ref := "INTEGER"
	if driver != database.SQLite {
		ref = "BIGINT"
	}
	text := func(n int) string {
		if driver == database.MySQL {
			return fmt.Sprintf("VARCHAR(%d)", n)
		}
		return "TEXT"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id ` + id + `,
            username ` + text(50) + ` NOT NULL UNIQUE,
            email ` + text(255) + ` NOT NULL UNIQUE,
            full_name ` + text(100) + `,
            hashed_password ` + text(255) + ` NOT NULL,
            is_active ` + boolean + ` NOT NULL DEFAULT TRUE,
            created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS categories (
            id ` + id + `,
            name ` + text(100) + ` NOT NULL UNIQUE,
            slug ` + text(120) + ` NOT NULL UNIQUE,
            description ` + text(500) + `,
            created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id ` + id + `,
            name ` + text(200) + ` NOT NULL,
            description ` + text(2000) + `,
            sku ` + text(50) + ` UNIQUE,
            price DECIMAL(12,2) NOT NULL CHECK (price > 0),
            stock ` + ref + ` NOT NULL DEFAULT 0 CHECK (stock >= 0),
            min_stock ` + ref + ` NOT NULL DEFAULT 5 CHECK (min_stock >= 0),
            category_id ` + ref + `,
            is_active ` + boolean + ` NOT NULL DEFAULT TRUE,
            created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (category_id) REFERENCES categories(id)
        )`,
		`CREATE TABLE IF NOT EXISTS sales (
            id ` + id + `,
            user_id ` + ref + ` NOT NULL,
            total_amount DECIMAL(12,2) NOT NULL,
            sale_date ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
            status ` + text(20) + ` NOT NULL DEFAULT 'completed' CHECK (status IN ('completed', 'cancelled', 'pending')),
            notes ` + text(1000) + `,
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
		`CREATE TABLE IF NOT EXISTS sale_items (
            id ` + id + `,
            sale_id ` + ref + ` NOT NULL,
            product_id ` + ref + ` NOT NULL,
            quantity ` + ref + ` NOT NULL CHECK (quantity > 0),
            unit_price DECIMAL(12,2) NOT NULL,
            subtotal DECIMAL(12,2) NOT NULL,
            FOREIGN KEY (sale_id) REFERENCES sales(id) ON DELETE CASCADE,
            FOREIGN KEY (product_id) REFERENCES products(id)
        )`,
	}
	for i := range stmts {
		stmts[i] += suffix
	}

	indexes := []string{
		`CREATE INDEX idx_products_category ON products (category_id)`,
		`CREATE INDEX idx_sales_status ON sales (status)`,
		`CREATE INDEX idx_sale_items_sale ON sale_items (sale_id)`,
	}
	for _, idx := range indexes {
		if driver == database.MySQL {
			// MySQL has no CREATE INDEX IF NOT EXISTS; the InnoDB foreign keys
			// already index these columns.
			continue
		}
		stmts = append(stmts, strings.Replace(idx, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1))
	}
	return stmts
}
