package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gymstack/rbac/migrate"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// TestMain runs schema migrations for the store tests. Without a reachable
// test database the whole package is skipped.
func TestMain(m *testing.M) {
	dsn := getTestDSN()
	if strings.TrimSpace(dsn) == "" {
		log.Printf("no test DSN available, skipping store tests")
		return
	}

	driver := "postgres"
	var ready bool
	for i := 0; i < 20; i++ {
		if db, err := sql.Open(driver, dsn); err == nil {
			if err = db.Ping(); err == nil {
				ready = true
				_ = db.Close()
				break
			}
			_ = db.Close()
		}
		time.Sleep(1 * time.Second)
	}
	if !ready {
		log.Printf("postgres is not ready, skipping store tests: dsn=%s", dsn)
		return
	}

	if err := migrate.Run(migrate.Options{
		Driver:  driver,
		DSN:     dsn,
		Command: "up",
		Logger:  log.New(os.Stdout, "[store-migrate] ", log.LstdFlags),
	}); err != nil {
		panic(fmt.Sprintf("store test migration failed: %v", err))
	}

	code := m.Run()
	if code != 0 {
		panic(fmt.Sprintf("store tests failed with code %d", code))
	}
}

func getTestDSN() string {
	return os.Getenv("TEST_DATABASE_URL")
}

func getTestGormDB() (*gorm.DB, error) {
	dsn := getTestDSN()
	if dsn == "" {
		return nil, fmt.Errorf("no test DSN available")
	}
	return Open(dsn)
}

// wipeModuleData clears a module's catalog rows so each test starts from a
// known state.
func wipeModuleData(t *testing.T, db *gorm.DB, module string) {
	t.Helper()
	for _, table := range []string{"role_users", "role_tasks", "roles", "tasks", "categories"} {
		if err := db.Exec("DELETE FROM "+table+" WHERE module = ?", module).Error; err != nil {
			t.Fatalf("wipe %s: %v", table, err)
		}
	}
}
