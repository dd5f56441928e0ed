package server

import (
	"net/url"
	"testing"
)

func TestDBDSNFromEnv_DatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@h:5432/db?sslmode=disable")

	if got := dbDSNFromEnv(); got != "postgres://u:p@h:5432/db?sslmode=disable" {
		t.Fatalf("got=%q", got)
	}
}

func TestDBDSNFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(k, "")
	}

	u, err := url.Parse(dbDSNFromEnv())
	if err != nil {
		t.Fatal(err)
	}
	if u.Scheme != "postgres" {
		t.Fatalf("scheme=%q", u.Scheme)
	}
	if u.Host != "127.0.0.1:5432" || u.Path != "/payroll_review" {
		t.Fatalf("host=%q path=%q", u.Host, u.Path)
	}
	if u.Query().Get("sslmode") != "disable" {
		t.Fatalf("sslmode=%q", u.Query().Get("sslmode"))
	}
}

func TestDBDSNFromEnv_Parts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USER", "journal")
	t.Setenv("DB_PASSWORD", "p@ss word")
	t.Setenv("DB_NAME", "approvals")
	t.Setenv("DB_SSLMODE", "require")

	u, err := url.Parse(dbDSNFromEnv())
	if err != nil {
		t.Fatal(err)
	}
	if pass, _ := u.User.Password(); u.User.Username() != "journal" || pass != "p@ss word" {
		t.Fatalf("user=%v", u.User)
	}
	if u.Host != "db.internal:6543" || u.Path != "/approvals" || u.Query().Get("sslmode") != "require" {
		t.Fatalf("dsn=%q", u.String())
	}
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("X_TEST_ENV", "v")

	if got := getenvDefault("X_TEST_ENV", "d"); got != "v" {
		t.Fatalf("got=%q", got)
	}
	if got := getenvDefault("X_NO_SUCH_ENV", "d"); got != "d" {
		t.Fatalf("got=%q", got)
	}
}
