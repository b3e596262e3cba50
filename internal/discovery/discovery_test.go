package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

type fakeProvider struct {
	tables     []schema.Table
	columns    map[string][]schema.Column
	indexes    map[string][]schema.Index
	fks        map[string][]schema.ForeignKey
	indexErr   error
	connectErr error
}

func (f *fakeProvider) Connect(ctx context.Context) error { return f.connectErr }
func (f *fakeProvider) Close() error                      { return nil }
func (f *fakeProvider) Source() string                    { return "mysql" }
func (f *fakeProvider) Database() string                  { return "shop" }

func (f *fakeProvider) ListTables(ctx context.Context) ([]schema.Table, error) {
	return f.tables, nil
}
func (f *fakeProvider) ListColumns(ctx context.Context, table string) ([]schema.Column, error) {
	return f.columns[table], nil
}
func (f *fakeProvider) ListIndexes(ctx context.Context, table string) ([]schema.Index, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.indexes[table], nil
}
func (f *fakeProvider) ListForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	return f.fks[table], nil
}

func TestSnapshotAssemblesTables(t *testing.T) {
	p := &fakeProvider{
		tables: []schema.Table{{Name: "Orders", Engine: "InnoDB", RowCount: 42}},
		columns: map[string][]schema.Column{
			"Orders": {{Name: "id", DataType: "bigint"}, {Name: "customer_id", DataType: "bigint"}},
		},
		indexes: map[string][]schema.Index{
			"Orders": {{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Primary: true}},
		},
		fks: map[string][]schema.ForeignKey{
			"Orders": {{Name: "fk_orders_customer_id", Columns: []string{"customer_id"}, ReferencedTable: "Customers", ReferencedColumns: []string{"id"}}},
		},
	}

	snap, err := Snapshot(context.Background(), p, "db.internal")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Source != "mysql" || snap.Database != "shop" || snap.Host != "db.internal" {
		t.Errorf("snapshot identity wrong: %+v", snap)
	}

	tbl := snap.Table("Orders")
	if tbl == nil {
		t.Fatal("Orders missing from snapshot")
	}
	if len(tbl.Columns) != 2 || len(tbl.Indexes) != 1 || len(tbl.ForeignKeys) != 1 {
		t.Errorf("table not fully populated: %+v", tbl)
	}
	if tbl.RowCount != 42 {
		t.Errorf("table-level stats lost: %+v", tbl)
	}
}

func TestSnapshotWrapsProviderErrors(t *testing.T) {
	underlying := errors.New("connection reset")
	p := &fakeProvider{
		tables:   []schema.Table{{Name: "Orders"}},
		indexErr: underlying,
	}

	_, err := Snapshot(context.Background(), p, "")
	var metaErr *MetadataError
	if !errors.As(err, &metaErr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
	if !errors.Is(err, underlying) {
		t.Error("underlying error not wrapped")
	}
	if !strings.Contains(metaErr.Op, "Orders") {
		t.Errorf("op should name the table: %q", metaErr.Op)
	}
}

func TestNewProviderSelection(t *testing.T) {
	if p, err := New(&config.DatabaseConfig{Type: "mysql"}); err != nil || p.Source() != "mysql" {
		t.Errorf("mysql provider: %v %v", p, err)
	}
	if p, err := New(&config.DatabaseConfig{Type: "postgresql"}); err != nil || p.Source() != "postgresql" {
		t.Errorf("postgresql provider: %v %v", p, err)
	}

	_, err := New(&config.DatabaseConfig{Type: "oracle"})
	var unsupported *UnsupportedSourceError
	if !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedSourceError, got %v", err)
	}
}

func TestMySQLDSN(t *testing.T) {
	m := NewMySQL(&config.DatabaseConfig{
		User: "app", Password: "secret", Host: "db.internal", Port: 3306,
		Database: "shop", Charset: "utf8mb4",
	})
	want := "app:secret@tcp(db.internal:3306)/shop?charset=utf8mb4&parseTime=true"
	if got := m.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
