package config

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDSN returns data.dsn with the driver options the SQL store relies on:
// DATE columns parsed as time.Time in UTC and a utf8mb4 connection charset.
func (c DataConfig) MySQLDSN() (string, error) {
	parsed, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return "", fmt.Errorf("invalid data.dsn: %w", err)
	}
	parsed.ParseTime = true
	if parsed.Loc == nil {
		parsed.Loc = time.UTC
	}
	if parsed.Params == nil {
		parsed.Params = map[string]string{}
	}
	if parsed.Params["charset"] == "" {
		parsed.Params["charset"] = defaultDBCharset
	}
	return parsed.FormatDSN(), nil
}
