package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bazaarhq/bazaar-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCartItemsMigrationEnforcesIdentity(t *testing.T) {
	content := readMigration(t, "*_create_cart_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_identity",
		"COALESCE(metadata->>'selected_size', '')",
		"COALESCE(metadata->>'selected_color', '')",
		"WHERE status = 'in_cart'",
		"DROP TABLE IF EXISTS cart_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPendingCheckoutsMigrationUniqueGatewayOrder(t *testing.T) {
	content := readMigration(t, "*_create_pending_checkouts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS pending_checkouts",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_pending_checkouts_razorpay_order_id",
		"cart_item_ids UUID[] NOT NULL",
		"DROP TABLE IF EXISTS pending_checkouts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRegisterSessionsMigrationSingleOpenDrawer(t *testing.T) {
	content := readMigration(t, "*_create_register_sessions.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_register_sessions_open",
		"WHERE status = 'open'",
		"total_cash_sales NUMERIC(10,2) NOT NULL DEFAULT 0",
		"transaction_count INTEGER NOT NULL DEFAULT 0",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationFilenamesValidate(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
