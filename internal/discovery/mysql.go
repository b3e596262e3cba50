package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// MySQL implements Provider against information_schema.
type MySQL struct {
	cfg *config.DatabaseConfig
	db  *sql.DB
}

// NewMySQL creates a MySQL metadata provider.
func NewMySQL(cfg *config.DatabaseConfig) *MySQL {
	return &MySQL{cfg: cfg}
}

// DSN returns the go-sql-driver connection string.
func (m *MySQL) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true",
		m.cfg.User, m.cfg.Password, m.cfg.Host, m.cfg.Port, m.cfg.Database, m.cfg.Charset)
}

func (m *MySQL) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", m.DSN())
	if err != nil {
		return fmt.Errorf("opening MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging MySQL: %w", err)
	}

	m.db = db
	return nil
}

func (m *MySQL) Close() error {
	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

func (m *MySQL) Source() string   { return "mysql" }
func (m *MySQL) Database() string { return m.cfg.Database }

func (m *MySQL) ListTables(ctx context.Context) ([]schema.Table, error) {
	query := `
		SELECT
			TABLE_NAME,
			IFNULL(ENGINE, ''),
			IFNULL(TABLE_COLLATION, ''),
			IFNULL(ROW_FORMAT, ''),
			IFNULL(TABLE_ROWS, 0),
			IFNULL(DATA_LENGTH, 0),
			IFNULL(DATA_FREE, 0),
			IFNULL(AUTO_INCREMENT, 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := m.db.QueryContext(ctx, query, m.cfg.Database)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var t schema.Table
		if err := rows.Scan(&t.Name, &t.Engine, &t.Collation, &t.RowFormat, &t.RowCount, &t.DataLength, &t.DataFree, &t.AutoIncrement); err != nil {
			return nil, err
		}
		// collation implies the charset, e.g. utf8mb4_unicode_ci
		if i := strings.IndexByte(t.Collation, '_'); i > 0 {
			t.Charset = t.Collation[:i]
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (m *MySQL) ListColumns(ctx context.Context, table string) ([]schema.Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			IFNULL(EXTRA, ''),
			IFNULL(COLUMN_KEY, '')
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := m.db.QueryContext(ctx, query, m.cfg.Database, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var c schema.Column
		var nullable string
		if err := rows.Scan(&c.Name, &c.DataType, &c.ColumnType, &nullable, &c.DefaultValue, &c.Extra, &c.Key); err != nil {
			return nil, err
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (m *MySQL) ListIndexes(ctx context.Context, table string) ([]schema.Index, error) {
	query := `
		SELECT
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE,
			SEQ_IN_INDEX,
			IFNULL(INDEX_TYPE, 'BTREE'),
			IFNULL(CARDINALITY, 0)
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	rows, err := m.db.QueryContext(ctx, query, m.cfg.Database, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []schema.Index
	byName := make(map[string]int)
	for rows.Next() {
		var (
			name, column, indexType string
			nonUnique, seq          int
			cardinality             int64
		)
		if err := rows.Scan(&name, &column, &nonUnique, &seq, &indexType, &cardinality); err != nil {
			return nil, err
		}
		i, ok := byName[name]
		if !ok {
			i = len(indexes)
			byName[name] = i
			indexes = append(indexes, schema.Index{
				Name:    name,
				Unique:  nonUnique == 0,
				Primary: name == "PRIMARY",
				Type:    indexType,
			})
		}
		indexes[i].Columns = append(indexes[i].Columns, column)
		indexes[i].Cardinality = append(indexes[i].Cardinality, cardinality)
	}
	return indexes, rows.Err()
}

func (m *MySQL) ListForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.CONSTRAINT_NAME,
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME,
			rc.UPDATE_RULE,
			rc.DELETE_RULE
		FROM information_schema.KEY_COLUMN_USAGE kcu
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
			ON kcu.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
			AND kcu.TABLE_SCHEMA = rc.CONSTRAINT_SCHEMA
		WHERE kcu.TABLE_SCHEMA = ?
			AND kcu.TABLE_NAME = ?
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	rows, err := m.db.QueryContext(ctx, query, m.cfg.Database, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	byName := make(map[string]int)
	for rows.Next() {
		var name, column, refTable, refColumn, updateRule, deleteRule string
		if err := rows.Scan(&name, &column, &refTable, &refColumn, &updateRule, &deleteRule); err != nil {
			return nil, err
		}
		i, ok := byName[name]
		if !ok {
			i = len(fks)
			byName[name] = i
			fks = append(fks, schema.ForeignKey{
				Name:            name,
				ReferencedTable: refTable,
				UpdateRule:      updateRule,
				DeleteRule:      deleteRule,
			})
		}
		fks[i].Columns = append(fks[i].Columns, column)
		fks[i].ReferencedColumns = append(fks[i].ReferencedColumns, refColumn)
	}
	return fks, rows.Err()
}
