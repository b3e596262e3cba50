package patch

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/analyze"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/rename"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

func testGenerator() *Generator {
	g := NewGenerator()
	g.now = func() time.Time { return time.Date(2024, 1, 31, 15, 45, 0, 0, time.UTC) }
	return g
}

func shopSnapshot() *schema.Snapshot {
	return &schema.Snapshot{
		Database: "shop",
		Tables: []schema.Table{
			{
				Name: "order_items",
				Columns: []schema.Column{
					{Name: "id"}, {Name: "OrderID"}, {Name: "quantity"},
				},
				Indexes: []schema.Index{
					{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Primary: true},
				},
			},
			{
				Name:    "Orders",
				Columns: []schema.Column{{Name: "id"}, {Name: "customer_id"}, {Name: "status"}},
				Indexes: []schema.Index{
					{Name: "idx_orders_customer_id", Columns: []string{"customer_id"}},
					{Name: "idx_orders_customer_id_status", Columns: []string{"customer_id", "status"}},
				},
			},
		},
	}
}

func TestGenerateTableThenColumnRename(t *testing.T) {
	snap := shopSnapshot()
	findings := []analyze.Finding{
		{
			Kind: analyze.NamingViolation, Table: "order_items", Subject: "order_items",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "order_items", NewName: "OrderItems"},
		},
		{
			Kind: analyze.NamingViolation, Table: "order_items", Subject: "OrderID",
			Rename: &analyze.RenameOp{Kind: analyze.KindColumn, Table: "order_items", OldName: "OrderID", NewName: "order_id"},
		},
	}

	script, err := testGenerator().Generate(snap, findings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(script.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %+v", len(script.Statements), script.Statements)
	}

	if got := script.Statements[0].SQL; got != "RENAME TABLE `order_items` TO `OrderItems`;" {
		t.Errorf("statement 0 = %q", got)
	}
	// The column rename must address the table by its final name.
	if got := script.Statements[1].SQL; got != "ALTER TABLE `OrderItems` RENAME COLUMN `OrderID` TO `order_id`;" {
		t.Errorf("statement 1 = %q", got)
	}
}

func TestGeneratePhaseOrder(t *testing.T) {
	snap := shopSnapshot()
	findings := []analyze.Finding{
		{
			Kind: analyze.MissingIndex, Table: "order_items", Subject: "fk_order_items_order_id",
			Index: &analyze.IndexOp{Action: analyze.IndexCreate, Table: "order_items", Name: "fk_order_items_order_id", Columns: []string{"OrderID"}},
		},
		{
			Kind: analyze.NamingViolation, Table: "order_items", Subject: "order_items",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "order_items", NewName: "OrderItems"},
		},
		{
			Kind: analyze.RedundantIndex, Table: "Orders", Subject: "idx_orders_customer_id",
			Index: &analyze.IndexOp{Action: analyze.IndexDrop, Table: "Orders", Name: "idx_orders_customer_id", Columns: []string{"customer_id"}},
		},
		{
			Kind: analyze.NamingViolation, Table: "order_items", Subject: "OrderID",
			Rename: &analyze.RenameOp{Kind: analyze.KindColumn, Table: "order_items", OldName: "OrderID", NewName: "order_id"},
		},
	}

	script, err := testGenerator().Generate(snap, findings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rank := map[Phase]int{
		PhaseIndexDrop:    0,
		PhaseTableRename:  1,
		PhaseColumnRename: 2,
		PhaseIndexRename:  3,
		PhaseIndexCreate:  4,
	}
	last := -1
	for i, st := range script.Statements {
		r := rank[st.Phase]
		if r < last {
			t.Fatalf("statement %d (%s) out of phase order:\n%+v", i, st.Phase, script.Statements)
		}
		last = r
	}

	first, final := script.Statements[0], script.Statements[len(script.Statements)-1]
	if first.Phase != PhaseIndexDrop {
		t.Errorf("first phase = %s, want index_drop", first.Phase)
	}
	if final.Phase != PhaseIndexCreate {
		t.Errorf("last phase = %s, want index_create", final.Phase)
	}
	// The created index names final table and column names.
	if want := "CREATE INDEX `fk_order_items_order_id` ON `OrderItems` (`order_id`);"; final.SQL != want {
		t.Errorf("create = %q, want %q", final.SQL, want)
	}
}

func TestGenerateSkipsRenameOfDroppedIndex(t *testing.T) {
	snap := shopSnapshot()
	findings := []analyze.Finding{
		{
			Kind: analyze.RedundantIndex, Table: "Orders", Subject: "idx_orders_customer_id",
			Index: &analyze.IndexOp{Action: analyze.IndexDrop, Table: "Orders", Name: "idx_orders_customer_id", Columns: []string{"customer_id"}},
		},
		{
			Kind: analyze.NamingViolation, Table: "Orders", Subject: "idx_orders_customer_id",
			Rename: &analyze.RenameOp{Kind: analyze.KindIndex, Table: "Orders", OldName: "idx_orders_customer_id", NewName: "fk_orders_customer_id"},
		},
	}

	script, err := testGenerator().Generate(snap, findings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(script.Statements) != 1 {
		t.Fatalf("expected only the drop, got %+v", script.Statements)
	}
	if script.Statements[0].Phase != PhaseIndexDrop {
		t.Errorf("phase = %s, want index_drop", script.Statements[0].Phase)
	}
}

func TestGenerateForeignKeyRename(t *testing.T) {
	snap := &schema.Snapshot{
		Database: "shop",
		Tables: []schema.Table{
			{Name: "Customers", Columns: []schema.Column{{Name: "id"}}},
			{
				Name:    "orders",
				Columns: []schema.Column{{Name: "id"}, {Name: "CustomerID"}},
				ForeignKeys: []schema.ForeignKey{{
					Name:              "orders_ibfk_1",
					Columns:           []string{"CustomerID"},
					ReferencedTable:   "Customers",
					ReferencedColumns: []string{"id"},
				}},
			},
		},
	}
	findings := []analyze.Finding{
		{
			Kind: analyze.NamingViolation, Table: "orders", Subject: "orders",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "orders", NewName: "Orders"},
		},
		{
			Kind: analyze.NamingViolation, Table: "orders", Subject: "CustomerID",
			Rename: &analyze.RenameOp{Kind: analyze.KindColumn, Table: "orders", OldName: "CustomerID", NewName: "customer_id"},
		},
		{
			Kind: analyze.NamingViolation, Table: "orders", Subject: "orders_ibfk_1",
			Rename: &analyze.RenameOp{Kind: analyze.KindForeignKey, Table: "orders", OldName: "orders_ibfk_1", NewName: "fk_orders_customer_id"},
		},
	}

	script, err := testGenerator().Generate(snap, findings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var fkSQL string
	for _, st := range script.Statements {
		if st.IdentKind == analyze.KindForeignKey {
			fkSQL = st.SQL
		}
	}
	want := "ALTER TABLE `Orders` DROP FOREIGN KEY `orders_ibfk_1`, ADD CONSTRAINT `fk_orders_customer_id` FOREIGN KEY (`customer_id`) REFERENCES `Customers` (`id`);"
	if fkSQL != want {
		t.Errorf("fk statement = %q\nwant %q", fkSQL, want)
	}
}

func TestGenerateConflictIsAtomic(t *testing.T) {
	snap := &schema.Snapshot{
		Database: "shop",
		Tables:   []schema.Table{{Name: "user_data"}, {Name: "userData"}, {Name: "order_items"}},
	}
	findings := []analyze.Finding{
		{
			Kind: analyze.NamingViolation, Table: "order_items", Subject: "order_items",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "order_items", NewName: "OrderItems"},
		},
		{
			Kind: analyze.NamingViolation, Table: "user_data", Subject: "user_data",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "user_data", NewName: "UserData"},
		},
		{
			Kind: analyze.NamingViolation, Table: "userData", Subject: "userData",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "userData", NewName: "UserData"},
		},
	}

	script, err := testGenerator().Generate(snap, findings)
	if script != nil {
		t.Fatal("expected no script on conflict")
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	var conflict *rename.ConflictError
	if !errors.As(err, &conflict) || conflict.Kind != rename.DuplicateTarget {
		t.Fatalf("expected wrapped duplicate_target conflict, got %v", err)
	}
}

func TestGenerateStaleSnapshot(t *testing.T) {
	snap := shopSnapshot()
	findings := []analyze.Finding{
		{
			Kind: analyze.NamingViolation, Table: "Ghost", Subject: "Ghost",
			Rename: &analyze.RenameOp{Kind: analyze.KindColumn, Table: "Ghost", OldName: "X", NewName: "x"},
		},
	}

	_, err := testGenerator().Generate(snap, findings)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if !strings.Contains(genErr.Reason, "stale snapshot") {
		t.Errorf("reason = %q, want a stale-snapshot hint", genErr.Reason)
	}
}

func TestGenerateReportOnlyKinds(t *testing.T) {
	snap := shopSnapshot()
	findings := []analyze.Finding{
		{Kind: analyze.LowSelectivityIndex, Table: "Orders", Subject: "idx_orders_customer_id"},
		{Kind: analyze.SchemaIssue, Table: "Orders", Subject: "Orders"},
	}
	script, err := testGenerator().Generate(snap, findings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(script.Statements) != 0 {
		t.Errorf("report-only findings produced statements: %+v", script.Statements)
	}
}

func TestRenderAndFilename(t *testing.T) {
	snap := shopSnapshot()
	findings := []analyze.Finding{
		{
			Kind: analyze.NamingViolation, Table: "order_items", Subject: "order_items", Detail: "table rename",
			Rename: &analyze.RenameOp{Kind: analyze.KindTable, OldName: "order_items", NewName: "OrderItems"},
		},
	}
	script, err := testGenerator().Generate(snap, findings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	out := script.Render()
	if !strings.Contains(out, "-- Schema patch for database: shop") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "USE `shop`;") {
		t.Errorf("missing USE statement:\n%s", out)
	}
	if !strings.Contains(out, "-- TABLE RENAMES") {
		t.Errorf("missing phase header:\n%s", out)
	}
	if !strings.Contains(out, "-- table rename\nRENAME TABLE `order_items` TO `OrderItems`;") {
		t.Errorf("missing rationale comment:\n%s", out)
	}

	if got := script.Filename("naming"); got != "patch_shop_naming_20240131_154500.sql" {
		t.Errorf("Filename = %q", got)
	}
}

func TestQuoteEscapesBackticks(t *testing.T) {
	if got := quote("weird`name"); got != "`weird``name`" {
		t.Errorf("quote = %q", got)
	}
}
