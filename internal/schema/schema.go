package schema

// Snapshot is a point-in-time, read-only view of one database's metadata.
// It is built once per analysis run; analyzers only ever read it, so a single
// snapshot gives every analyzer a consistent picture of the schema.
type Snapshot struct {
	Source   string  `yaml:"source"` // mysql or postgresql
	Host     string  `yaml:"host,omitempty"`
	Database string  `yaml:"database"`
	Tables   []Table `yaml:"tables"`
}

// Table represents a database table.
type Table struct {
	Name          string       `yaml:"name"`
	Columns       []Column     `yaml:"columns"`
	Indexes       []Index      `yaml:"indexes,omitempty"`
	ForeignKeys   []ForeignKey `yaml:"foreign_keys,omitempty"`
	Engine        string       `yaml:"engine,omitempty"`
	Charset       string       `yaml:"charset,omitempty"`
	Collation     string       `yaml:"collation,omitempty"`
	RowFormat     string       `yaml:"row_format,omitempty"`
	RowCount      int64        `yaml:"row_count"`
	DataLength    int64        `yaml:"data_length,omitempty"`
	DataFree      int64        `yaml:"data_free,omitempty"`
	AutoIncrement int64        `yaml:"auto_increment,omitempty"`
}

// Column represents a table column.
type Column struct {
	Name         string  `yaml:"name"`
	DataType     string  `yaml:"data_type"`
	ColumnType   string  `yaml:"column_type,omitempty"` // full type, e.g. varchar(255)
	Nullable     bool    `yaml:"nullable"`
	DefaultValue *string `yaml:"default_value,omitempty"`
	Extra        string  `yaml:"extra,omitempty"` // auto_increment etc.
	Key          string  `yaml:"key,omitempty"`   // PRI, UNI, MUL
}

// Index represents a database index. Column order matters: a prefix of one
// index's columns may be covered by another index.
type Index struct {
	Name        string   `yaml:"name"`
	Columns     []string `yaml:"columns"`
	Unique      bool     `yaml:"unique"`
	Primary     bool     `yaml:"primary,omitempty"`
	Type        string   `yaml:"type,omitempty"` // BTREE, HASH
	Cardinality []int64  `yaml:"cardinality,omitempty"`
}

// ForeignKey represents a foreign key constraint.
type ForeignKey struct {
	Name              string   `yaml:"name"`
	Columns           []string `yaml:"columns"`
	ReferencedTable   string   `yaml:"referenced_table"`
	ReferencedColumns []string `yaml:"referenced_columns"`
	UpdateRule        string   `yaml:"update_rule,omitempty"`
	DeleteRule        string   `yaml:"delete_rule,omitempty"`
}

// Table returns the table with the given name, or nil.
func (s *Snapshot) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableNames returns the set of table names in the snapshot.
func (s *Snapshot) TableNames() map[string]bool {
	names := make(map[string]bool, len(s.Tables))
	for i := range s.Tables {
		names[s.Tables[i].Name] = true
	}
	return names
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Index returns the index with the given name, or nil.
func (t *Table) Index(name string) *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}

// PrimaryKey returns the primary key index, or nil if the table has none.
func (t *Table) PrimaryKey() *Index {
	for i := range t.Indexes {
		if t.Indexes[i].Primary {
			return &t.Indexes[i]
		}
	}
	return nil
}

// HasIndexLeadingOn reports whether any index's first column is the given
// column. Used for foreign-key coverage checks.
func (t *Table) HasIndexLeadingOn(column string) bool {
	for i := range t.Indexes {
		if len(t.Indexes[i].Columns) > 0 && t.Indexes[i].Columns[0] == column {
			return true
		}
	}
	return false
}
