package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fatalf("usage: dbtool <migrate|journal-smoke> [args]")
	}

	switch os.Args[1] {
	case "migrate":
		migrate(os.Args[2:])
	case "journal-smoke":
		journalSmoke(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

func urlFlag(fs *flag.FlagSet) *string {
	return fs.String("url", os.Getenv("DATABASE_URL"), "postgres connection string (default $DATABASE_URL)")
}

func migrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	url := urlFlag(fs)
	var dir string
	fs.StringVar(&dir, "dir", "migrations/payrollreview", "directory of goose-style .sql files")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *url == "" {
		fatalf("missing --url")
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatalf("no migrations in %s", dir)
	}
	sort.Strings(files)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, *url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			fatal(err)
		}
		up := upSection(string(b))
		if strings.TrimSpace(up) == "" {
			fatalf("%s: empty up section", f)
		}
		tx, err := conn.Begin(ctx)
		if err != nil {
			fatal(err)
		}
		if _, err := tx.Exec(ctx, up); err != nil {
			_ = tx.Rollback(context.Background())
			if msg, ok := pgErrorMessage(err); ok {
				fatalf("%s: %s", f, msg)
			}
			fatal(err)
		}
		if err := tx.Commit(ctx); err != nil {
			fatal(err)
		}
		fmt.Printf("[migrate] %s\n", filepath.Base(f))
	}
}

// upSection returns the statements between "-- +goose Up" and
// "-- +goose Down". A file without markers is applied whole.
func upSection(sql string) string {
	const upMarker, downMarker = "-- +goose Up", "-- +goose Down"
	if i := strings.Index(sql, upMarker); i >= 0 {
		sql = sql[i+len(upMarker):]
	}
	if i := strings.Index(sql, downMarker); i >= 0 {
		sql = sql[:i]
	}
	return strings.TrimSpace(sql)
}

// journalSmoke checks that payroll_review.decisions is isolated per company.
func journalSmoke(args []string) {
	fs := flag.NewFlagSet("journal-smoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	url := urlFlag(fs)
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}
	if *url == "" {
		fatalf("missing --url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, *url)
	if err != nil {
		fatal(err)
	}
	defer conn.Close(context.Background())

	_ = tryEnsureRole(ctx, conn, "app_nobypassrls")

	tx, err := conn.Begin(ctx)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	_ = trySetRole(ctx, tx, "app_nobypassrls")

	if _, err := tx.Exec(ctx, `SAVEPOINT sp_failclosed;`); err != nil {
		fatal(err)
	}
	var count int
	err = tx.QueryRow(ctx, `SELECT count(*) FROM payroll_review.decisions;`).Scan(&count)
	if _, rbErr := tx.Exec(ctx, `ROLLBACK TO SAVEPOINT sp_failclosed;`); rbErr != nil {
		fatal(rbErr)
	}
	if err == nil && count != 0 {
		fatalf("expected no visible decisions when app.current_tenant is missing, got %d", count)
	}

	companyA := "smoke-company-a"
	companyB := "smoke-company-b"
	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, companyA); err != nil {
		fatal(err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO payroll_review.decisions (id, company_id, kind, payroll_run_id, subject_id, from_value, to_value)
VALUES (gen_random_uuid(), $1, 'review_transition', 'smoke-run', 'smoke-review', 'PENDING', 'APPROVED');`, companyA); err != nil {
		fatal(err)
	}

	if _, err := tx.Exec(ctx, `SAVEPOINT sp_cross_insert;`); err != nil {
		fatal(err)
	}
	_, err = tx.Exec(ctx, `
INSERT INTO payroll_review.decisions (id, company_id, kind, payroll_run_id, subject_id)
VALUES (gen_random_uuid(), $1, 'review_transition', 'smoke-run', 'smoke-review');`, companyB)
	if _, rbErr := tx.Exec(ctx, `ROLLBACK TO SAVEPOINT sp_cross_insert;`); rbErr != nil {
		fatal(rbErr)
	}
	if err == nil {
		fatalf("expected RLS rejection on cross-company insert")
	}

	if err := tx.QueryRow(ctx, `SELECT count(*) FROM payroll_review.decisions WHERE payroll_run_id = 'smoke-run';`).Scan(&count); err != nil {
		fatal(err)
	}
	if count != 1 {
		fatalf("expected count=1 under company A, got %d", count)
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, companyB); err != nil {
		fatal(err)
	}
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM payroll_review.decisions WHERE payroll_run_id = 'smoke-run';`).Scan(&count); err != nil {
		fatal(err)
	}
	if count != 0 {
		fatalf("expected count=0 under company B, got %d", count)
	}

	fmt.Println("[journal-smoke] OK")
}

func pgErrorMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	return pgErr.Code + ": " + pgErr.Message, true
}

func tryEnsureRole(ctx context.Context, conn *pgx.Conn, role string) error {
	if !validSQLIdent(role) {
		return errors.New("invalid role name")
	}

	stmt := fmt.Sprintf(`DO $$
BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = '%s') THEN
    EXECUTE 'CREATE ROLE %s NOBYPASSRLS';
  END IF;
END
$$;`, role, role)
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return err
	}
	_, _ = conn.Exec(ctx, `GRANT USAGE ON SCHEMA payroll_review TO `+role+`;`)
	_, _ = conn.Exec(ctx, `GRANT SELECT, INSERT ON ALL TABLES IN SCHEMA payroll_review TO `+role+`;`)
	return nil
}

func trySetRole(ctx context.Context, tx pgx.Tx, role string) bool {
	if _, err := tx.Exec(ctx, `SET ROLE `+role+`;`); err != nil {
		return false
	}
	return true
}

var reSQLIdent = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validSQLIdent(s string) bool {
	return reSQLIdent.MatchString(s)
}

func fatal(err error) {
	if err == nil {
		os.Exit(1)
	}
	fatalf("%v", err)
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
