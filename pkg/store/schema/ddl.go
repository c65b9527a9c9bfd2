package schema

import (
	"fmt"
	"strings"
)

// Dialect names understood by the DDL generator.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

func columnType(f FieldDef, dialect string) string {
	switch f.Type {
	case FieldTypeInteger:
		if dialect == DialectPostgres {
			if f.AutoIncrement {
				return "BIGSERIAL"
			}
			return "BIGINT"
		}
		return "INTEGER"
	case FieldTypeNumber:
		if dialect == DialectPostgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case FieldTypeBoolean:
		return "BOOLEAN"
	case FieldTypeTimestamp:
		if dialect == DialectPostgres {
			return "TIMESTAMP WITH TIME ZONE"
		}
		return "TIMESTAMP"
	case FieldTypeJSON:
		if dialect == DialectPostgres {
			return "JSONB"
		}
		return "TEXT"
	default:
		return "TEXT"
	}
}

// GenerateColumnDef renders one column of a CREATE TABLE statement.
func (f FieldDef) GenerateColumnDef(dialect string, quote func(string) string) string {
	columnDef := quote(f.Name) + " " + columnType(f, dialect)
	if f.PrimaryKey {
		columnDef += " PRIMARY KEY"
		if f.AutoIncrement && dialect == DialectSQLite {
			columnDef += " AUTOINCREMENT"
		}
		return columnDef
	}
	if f.Required {
		columnDef += " NOT NULL"
	}
	if f.Unique {
		columnDef += " UNIQUE"
	}
	if f.DefaultValue != nil {
		columnDef += " DEFAULT " + literal(f.DefaultValue)
	}
	return columnDef
}

func literal(v interface{}) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// CreateTableSQL returns the idempotent DDL for s followed by its indexes.
func (s *EntitySchema) CreateTableSQL(dialect string, quote func(string) string) []string {
	columnDefs := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		columnDefs = append(columnDefs, f.GenerateColumnDef(dialect, quote))
	}
	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quote(s.Name), strings.Join(columnDefs, ", "))}

	for _, idx := range s.Indexes {
		uniqueStr := ""
		if idx.Unique {
			uniqueStr = "UNIQUE "
		}
		cols := make([]string, len(idx.Fields))
		for i, c := range idx.Fields {
			cols[i] = quote(c)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
			uniqueStr, quote(idx.Name), quote(s.Name), strings.Join(cols, ", ")))
	}
	return stmts
}
