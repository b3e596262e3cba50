package discovery

import "fmt"

// ScriptGenerator produces an offline SQL script that queries
// information_schema and prints YAML matching the schema.Snapshot format.
// Useful when the analyzer host has no network path to the database: a DBA
// runs the script and ships the output back for --snapshot.
type ScriptGenerator struct {
	Database string
}

// GenerateScript returns the offline discovery SQL for the MySQL client.
// Each table row carries its own nested columns, indexes, and foreign keys
// so the output stays valid YAML regardless of how many tables the schema
// holds.
func (sg *ScriptGenerator) GenerateScript() string {
	db := sg.Database
	return fmt.Sprintf(`-- Offline discovery script (MySQL)
-- Run: mysql -h HOST -u USER -p --batch --raw --skip-column-names < this_script.sql > snapshot.yaml
-- The output loads directly with --snapshot.

SET SESSION group_concat_max_len = 1048576;

SELECT 'source: mysql';
SELECT CONCAT('database: ', '%s');
SELECT 'tables:';

SELECT CONCAT(
    '- name: ', t.TABLE_NAME,
    '\n  engine: ', IFNULL(t.ENGINE, ''),
    '\n  collation: ', IFNULL(t.TABLE_COLLATION, ''),
    '\n  row_format: ', IFNULL(t.ROW_FORMAT, ''),
    '\n  row_count: ', IFNULL(t.TABLE_ROWS, 0),
    '\n  data_length: ', IFNULL(t.DATA_LENGTH, 0),
    '\n  data_free: ', IFNULL(t.DATA_FREE, 0),
    '\n  auto_increment: ', IFNULL(t.AUTO_INCREMENT, 0),
    '\n  columns:',
    IFNULL((SELECT GROUP_CONCAT(CONCAT(
            '\n  - name: ', c.COLUMN_NAME,
            '\n    data_type: ', c.DATA_TYPE,
            '\n    column_type: ', c.COLUMN_TYPE,
            '\n    nullable: ', IF(c.IS_NULLABLE = 'YES', 'true', 'false'),
            '\n    extra: ', IFNULL(c.EXTRA, ''))
        ORDER BY c.ORDINAL_POSITION SEPARATOR '')
        FROM information_schema.COLUMNS c
        WHERE c.TABLE_SCHEMA = t.TABLE_SCHEMA AND c.TABLE_NAME = t.TABLE_NAME), ''),
    '\n  indexes:',
    IFNULL((SELECT GROUP_CONCAT(CONCAT(
            '\n  - name: ', i.INDEX_NAME,
            '\n    unique: ', IF(i.NON_UNIQUE = 0, 'true', 'false'),
            '\n    primary: ', IF(i.INDEX_NAME = 'PRIMARY', 'true', 'false'),
            '\n    columns: [', i.COLS, ']')
        ORDER BY i.INDEX_NAME SEPARATOR '')
        FROM (SELECT TABLE_SCHEMA, TABLE_NAME, INDEX_NAME,
                     MIN(NON_UNIQUE) AS NON_UNIQUE,
                     GROUP_CONCAT(COLUMN_NAME ORDER BY SEQ_IN_INDEX SEPARATOR ', ') AS COLS
              FROM information_schema.STATISTICS
              GROUP BY TABLE_SCHEMA, TABLE_NAME, INDEX_NAME) i
        WHERE i.TABLE_SCHEMA = t.TABLE_SCHEMA AND i.TABLE_NAME = t.TABLE_NAME), ''),
    '\n  foreign_keys:',
    IFNULL((SELECT GROUP_CONCAT(CONCAT(
            '\n  - name: ', k.CONSTRAINT_NAME,
            '\n    referenced_table: ', k.REF_TABLE,
            '\n    columns: [', k.COLS, ']',
            '\n    referenced_columns: [', k.REF_COLS, ']')
        ORDER BY k.CONSTRAINT_NAME SEPARATOR '')
        FROM (SELECT TABLE_SCHEMA, TABLE_NAME, CONSTRAINT_NAME,
                     REFERENCED_TABLE_NAME AS REF_TABLE,
                     GROUP_CONCAT(COLUMN_NAME ORDER BY ORDINAL_POSITION SEPARATOR ', ') AS COLS,
                     GROUP_CONCAT(REFERENCED_COLUMN_NAME ORDER BY ORDINAL_POSITION SEPARATOR ', ') AS REF_COLS
              FROM information_schema.KEY_COLUMN_USAGE
              WHERE REFERENCED_TABLE_NAME IS NOT NULL
              GROUP BY TABLE_SCHEMA, TABLE_NAME, CONSTRAINT_NAME, REFERENCED_TABLE_NAME) k
        WHERE k.TABLE_SCHEMA = t.TABLE_SCHEMA AND k.TABLE_NAME = t.TABLE_NAME), ''))
FROM information_schema.TABLES t
WHERE t.TABLE_SCHEMA = '%s' AND t.TABLE_TYPE = 'BASE TABLE'
ORDER BY t.TABLE_NAME;
`, db, db)
}

// GenerateShellWrapper returns a bash wrapper that runs the SQL and captures
// the output.
func (sg *ScriptGenerator) GenerateShellWrapper() string {
	return fmt.Sprintf(`#!/bin/bash
# Offline discovery wrapper. Usage: ./discover.sh HOST USER
set -euo pipefail
HOST="${1:?usage: $0 HOST USER}"
USER="${2:?usage: $0 HOST USER}"
mysql -h "$HOST" -u "$USER" -p --batch --raw --skip-column-names < discover_%s.sql > snapshot.yaml
echo "Wrote snapshot.yaml"
`, sg.Database)
}
