// internal/config/database.go
package config

import (
	"fmt"
	"time"
)

// DSN renders the libpq-style connection string understood by pgx.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

func (d *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.MaxLifetime) * time.Second
}

// QueryLogging reports whether SQL statements should be logged.
func (d *DatabaseConfig) QueryLogging() bool {
	return d.LogLevel != "" && d.LogLevel != "silent"
}
