// Package testdb opens an in-memory sqlite database carrying the rental schema for package tests.
package testdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rentease/rentease-backend/pkg/db"
)

// Open returns a fresh database private to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_fk=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// OpenClient wraps Open in the transaction-aware client used by services.
func OpenClient(t *testing.T) *db.Client {
	t.Helper()
	return db.Wrap(Open(t))
}

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  company_name TEXT NOT NULL DEFAULT '',
  gstin TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  pincode TEXT NOT NULL DEFAULT '',
  company_logo_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
	`CREATE TABLE product_attributes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);`,
	`CREATE TABLE attribute_values (
  id TEXT PRIMARY KEY,
  attribute_id TEXT NOT NULL REFERENCES product_attributes(id) ON DELETE CASCADE,
  value TEXT NOT NULL,
  UNIQUE (attribute_id, value)
);`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  category_id TEXT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  image_url TEXT,
  tags TEXT NOT NULL DEFAULT '{}',
  cost_price NUMERIC NOT NULL DEFAULT 0,
  sales_price NUMERIC NOT NULL DEFAULT 0,
  price_per_hour NUMERIC,
  price_per_day NUMERIC,
  price_per_week NUMERIC,
  quantity_on_hand INTEGER NOT NULL DEFAULT 0,
  is_rentable INTEGER NOT NULL DEFAULT 1,
  publish_on_website INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  sku TEXT NOT NULL DEFAULT '',
  price_per_hour NUMERIC,
  price_per_day NUMERIC,
  price_per_week NUMERIC,
  quantity_on_hand INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE product_attribute_values (
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  attribute_value_id TEXT NOT NULL REFERENCES attribute_values(id) ON DELETE CASCADE,
  PRIMARY KEY (product_id, attribute_value_id)
);`,
	`CREATE TABLE quotations (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  coupon_code TEXT,
  order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_quotations_one_draft_per_customer ON quotations (customer_id) WHERE status = 'draft';`,
	`CREATE TABLE quotation_lines (
  id TEXT PRIMARY KEY,
  quotation_id TEXT NOT NULL REFERENCES quotations(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  quantity INTEGER NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE rental_orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  quotation_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  delivery_method TEXT NOT NULL DEFAULT 'home_delivery',
  delivery_address TEXT NOT NULL DEFAULT '',
  delivery_city TEXT NOT NULL DEFAULT '',
  delivery_state TEXT NOT NULL DEFAULT '',
  delivery_pincode TEXT NOT NULL DEFAULT '',
  notes TEXT,
  confirmed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES rental_orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  quantity INTEGER NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE inventory_reservations (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES rental_orders(id) ON DELETE CASCADE,
  order_line_id TEXT NOT NULL UNIQUE,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  quantity INTEGER NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  released_at DATETIME,
  created_at DATETIME
);`,
	`CREATE TABLE pickups (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  pickup_date DATETIME NOT NULL,
  picked_by TEXT NOT NULL,
  id_proof TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  recorded_by TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE rental_returns (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  return_date DATETIME NOT NULL,
  returned_by TEXT NOT NULL,
  condition_notes TEXT NOT NULL DEFAULT '',
  late_fee NUMERIC NOT NULL DEFAULT 0,
  damage_fee NUMERIC NOT NULL DEFAULT 0,
  recorded_by TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE invoices (
  id TEXT PRIMARY KEY,
  invoice_number TEXT NOT NULL UNIQUE,
  order_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'draft',
  payment_term TEXT NOT NULL DEFAULT 'full_upfront',
  subtotal NUMERIC NOT NULL DEFAULT 0,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  tax_rate NUMERIC NOT NULL DEFAULT 18,
  tax_amount NUMERIC NOT NULL DEFAULT 0,
  security_deposit NUMERIC NOT NULL DEFAULT 0,
  late_fee NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  amount_paid NUMERIC NOT NULL DEFAULT 0,
  due_date DATETIME,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
  amount NUMERIC NOT NULL CHECK (amount > 0),
  payment_method TEXT NOT NULL,
  reference_number TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  recorded_by TEXT,
  paid_at DATETIME NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount_percentage NUMERIC NOT NULL DEFAULT 10,
  is_active INTEGER NOT NULL DEFAULT 1,
  max_uses INTEGER NOT NULL DEFAULT 0,
  times_used INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME NOT NULL,
  valid_until DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE coupon_usages (
  id TEXT PRIMARY KEY,
  coupon_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  order_id TEXT,
  discount_amount NUMERIC NOT NULL,
  used_at DATETIME,
  UNIQUE (coupon_id, user_id)
);`,
	`CREATE TABLE system_settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  updated_at DATETIME
);`,
	`CREATE TABLE order_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  actor_user_id TEXT,
  type TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`,
}
