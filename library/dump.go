package library

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Dump writes every table with its column names and rows to w. It only reads.
func (d *Database) Dump(ctx context.Context, w io.Writer) error {
	tables, err := d.tableNames(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables found in the database.")
		return nil
	}

	for _, table := range tables {
		fmt.Fprintf(w, "\nContents of table '%s':\n", table)
		if err := d.dumpTable(ctx, w, table); err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) tableNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, storageErr("list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, storageErr("list tables", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tables", err)
	}
	return names, nil
}

func (d *Database) dumpTable(ctx context.Context, w io.Writer, table string) error {
	// Table names come from sqlite_master, quoted as identifiers.
	rows, err := d.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(table))
	if err != nil {
		return storageErr("dump "+table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return storageErr("dump "+table, err)
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return storageErr("dump "+table, err)
		}
		if n == 0 {
			fmt.Fprintln(w, strings.Join(cols, ", "))
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = formatValue(v)
		}
		fmt.Fprintf(w, "(%s)\n", strings.Join(parts, ", "))
		n++
	}
	if err := rows.Err(); err != nil {
		return storageErr("dump "+table, err)
	}
	if n == 0 {
		fmt.Fprintln(w, "No data found.")
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("%q", string(x))
	case string:
		return fmt.Sprintf("%q", x)
	}
	return fmt.Sprint(v)
}
