package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// The FAS (facility access system) database is an external, read-only MariaDB
// operated by the access-control vendor. It is queried directly with
// database/sql; it is NOT part of our schema and never migrated.

var fasDB *sql.DB

func GetFasDB() *sql.DB {
	return fasDB
}

// SetFasDB overrides the FAS pool. Used by tests.
func SetFasDB(pool *sql.DB) {
	fasDB = pool
}

// ConnectFasDatabase opens the FAS pool. The FAS source is optional: when the
// env is not configured we run without it and the attendance features that
// need it degrade (sync/report endpoints return SERVICE_UNAVAILABLE).
func ConnectFasDatabase() {
	host := os.Getenv("FAS_DB_HOST")
	if host == "" {
		log.Printf("FAS_DB_HOST not set; running without FAS source")
		return
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&timeout=5s&readTimeout=10s",
		os.Getenv("FAS_DB_USER"),
		os.Getenv("FAS_DB_PASSWORD"),
		host,
		os.Getenv("FAS_DB_PORT"),
		os.Getenv("FAS_DB_NAME"),
	)

	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Printf("failed to open FAS database: %v; running without FAS source", err)
		return
	}
	// The vendor caps connections per client; keep the pool small.
	pool.SetMaxOpenConns(IntFromEnv("FAS_DB_MAX_OPEN_CONNS", 5))
	pool.SetMaxIdleConns(2)
	pool.SetConnMaxLifetime(5 * time.Minute)

	if err := pool.Ping(); err != nil {
		// FAS being down is an expected condition (that is what the circuit
		// breaker flag is for); keep the pool and let queries retry.
		log.Printf("FAS database not reachable at startup: %v", err)
	}
	fasDB = pool
	log.Printf("FAS database pool ready (host=%s)", host)
}
