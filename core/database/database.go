package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the reconciliation database. The backend is selected purely
// by inspecting the connection string's scheme: mysql:// opens the relational
// server backend, sqlite:// (or a bare file path) opens the embedded file
// store. Both present the same logical schema to the store layer.
func Connect(cfg Config) (*gorm.DB, error) {
	conn, err := cfg.ConnectionURL()
	if err != nil {
		return nil, err
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(strings.ToLower(conn), "mysql://"):
		dsn, err := mysqlDSN(conn, timeout)
		if err != nil {
			return nil, err
		}
		dialector = mysql.Open(dsn)
	case strings.HasPrefix(strings.ToLower(conn), "sqlite://"), !strings.Contains(conn, "://"):
		dialector = sqlite.Open(sqlitePath(conn))
	default:
		return nil, fmt.Errorf("unsupported database scheme in %q", conn)
	}

	// Suppress GORM logging; diagnostics go through the application logger.
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// One statement at a time in this tool, but keep sane pool settings.
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// mysqlDSN converts a mysql:// URL into the go-sql-driver DSN format:
// user:pass@tcp(host:port)/name?params.
func mysqlDSN(conn string, timeout int) (string, error) {
	u, err := url.Parse(conn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql connection url: %w", err)
	}

	host := u.Host
	if u.Port() == "" {
		host = host + ":3306"
	}
	name := strings.TrimPrefix(u.Path, "/")
	userInfo := ""
	if u.User != nil {
		userInfo = u.User.String()
	}

	return fmt.Sprintf("%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		userInfo, host, name, timeout, timeout, timeout), nil
}

// sqlitePath strips the sqlite URL prefix down to a plain file path and
// enables WAL so each upsert commits independently without blocking readers.
func sqlitePath(conn string) string {
	path := conn
	switch {
	case strings.HasPrefix(strings.ToLower(conn), "sqlite:///"):
		path = conn[len("sqlite:///"):]
	case strings.HasPrefix(strings.ToLower(conn), "sqlite://"):
		path = conn[len("sqlite://"):]
		path = strings.TrimPrefix(path, "/")
	}

	if strings.Contains(path, "?") || strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_journal_mode=WAL&_synchronous=NORMAL"
}
