package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"inventory/m/internal/database"
	"inventory/m/internal/testutil"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := database.Open("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestInsertIDAndConstraintErrors(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	id, err := db.InsertID(ctx, db, `INSERT INTO categories (name, slug) VALUES (?, ?)`, "Bebidas", "bebidas")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d", id)
	}

	_, err = db.InsertID(ctx, db, `INSERT INTO categories (name, slug) VALUES (?, ?)`, "Bebidas", "bebidas-2")
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if database.IsForeignKeyViolation(err) {
		t.Fatal("unique violation misreported as foreign key violation")
	}

	_, err = db.InsertID(ctx, db, `INSERT INTO products (name, price, category_id) VALUES (?, ?, ?)`, "Agua", "1.00", 999)
	if !database.IsForeignKeyViolation(err) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}

	if database.IsUniqueViolation(errors.New("boom")) {
		t.Fatal("plain error is not a constraint violation")
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := db.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name, slug) VALUES ('a', 'a')`); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("InTx error = %v", err)
	}

	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rolled back insert is visible: %d rows", n)
	}
}

func TestForUpdateSuffix(t *testing.T) {
	db := testutil.NewDB(t)
	if db.ForUpdate() != "" {
		t.Fatal("sqlite does not support FOR UPDATE")
	}
}
