package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"mankeu/pkg/config"
)

type foreignKey struct {
	name, table, columns, refTable, refColumns, definition string
}

// expectation is a constraint the application depends on.
type expectation struct {
	table, column string
	// onDelete is the required action, or "" when no foreign key may exist.
	onDelete string
}

var expected = []expectation{
	{"transactions", "category_id", "RESTRICT"},
	{"monthly_budgets", "category_id", "RESTRICT"},
	{"transactions", "user_id", "CASCADE"},
	{"savings", "user_id", "CASCADE"},
	{"debt_payments", "debt_id", "CASCADE"},
	// savings may be deleted while transactions still point at them
	{"transactions", "goal_id", ""},
}

func main() {
	check := flag.Bool("check", false, "exit non-zero when a constraint the app relies on differs")
	flag.Parse()

	config.LoadDotEnv()
	fks, err := inspect(os.Getenv("DB_DSN"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Foreign keys:")
	for _, fk := range fks {
		fmt.Printf("- %s: %s(%s) -> %s(%s)\n    def: %s\n", fk.name, fk.table, fk.columns, fk.refTable, fk.refColumns, fk.definition)
	}
	problems := verify(fks)
	for _, p := range problems {
		fmt.Println("MISMATCH:", p)
	}
	if *check && len(problems) > 0 {
		os.Exit(1)
	}
}

func inspect(dsn string) ([]foreignKey, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	rows, err := db.QueryContext(ctx, `
		SELECT
		  con.conname AS constraint_name,
		  rel.relname AS table_name,
		  string_agg(att.attname, ',' ORDER BY u.ord) AS src_columns,
		  confrel.relname AS referenced_table,
		  string_agg(att2.attname, ',' ORDER BY u.ord) AS ref_columns,
		  pg_get_constraintdef(con.oid) AS definition
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = rel.relnamespace AND ns.nspname = 'public'
		JOIN pg_class confrel ON confrel.oid = con.confrelid
		JOIN unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord) ON true
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = u.attnum
		LEFT JOIN unnest(con.confkey) WITH ORDINALITY AS v(confkey, ord2) ON v.ord2 = u.ord
		LEFT JOIN pg_attribute att2 ON att2.attrelid = con.confrelid AND att2.attnum = v.confkey
		WHERE con.contype = 'f'
		GROUP BY con.oid, con.conname, rel.relname, confrel.relname
		ORDER BY rel.relname, con.conname`)
	if err != nil {
		return nil, fmt.Errorf("query constraints: %w", err)
	}
	defer rows.Close()

	var out []foreignKey
	for rows.Next() {
		var fk foreignKey
		var src, ref sql.NullString
		if err := rows.Scan(&fk.name, &fk.table, &src, &fk.refTable, &ref, &fk.definition); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		fk.columns, fk.refColumns = src.String, ref.String
		out = append(out, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// verify compares fks with the expected constraints. Postgres omits
// "ON DELETE NO ACTION" from the definition.
func verify(fks []foreignKey) []string {
	var problems []string
	for _, e := range expected {
		var found *foreignKey
		for i := range fks {
			if fks[i].table == e.table && fks[i].columns == e.column {
				found = &fks[i]
				break
			}
		}
		switch {
		case e.onDelete == "" && found != nil:
			problems = append(problems, fmt.Sprintf("%s.%s must not be a foreign key (%s)", e.table, e.column, found.name))
		case e.onDelete != "" && found == nil:
			problems = append(problems, fmt.Sprintf("%s.%s has no foreign key", e.table, e.column))
		case e.onDelete != "" && !strings.Contains(found.definition, "ON DELETE "+e.onDelete):
			problems = append(problems, fmt.Sprintf("%s.%s should be ON DELETE %s: %s", e.table, e.column, e.onDelete, found.definition))
		}
	}
	return problems
}
