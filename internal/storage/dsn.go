package storage

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// PostgresDSN builds a postgres:// URL for lib/pq from opts. Credentials and
// the database name are escaped, so they may hold spaces, quotes or slashes.
func PostgresDSN(opts Options) string {
	if opts.DSN != "" {
		return opts.DSN
	}
	port := opts.Port
	if port == 0 {
		port = 5432
	}
	sslMode := opts.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(opts.Host, strconv.Itoa(port)),
		Path:     "/" + opts.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if opts.Username != "" {
		u.User = url.UserPassword(opts.Username, opts.Password)
	}
	return u.String()
}

// MySQLDSN builds a go-sql-driver DSN from opts. parseTime is always on so
// timestamps scan into time.Time.
func MySQLDSN(opts Options) string {
	if opts.DSN != "" {
		if strings.Contains(opts.DSN, "parseTime=") {
			return opts.DSN
		}
		sep := "?"
		if strings.Contains(opts.DSN, "?") {
			sep = "&"
		}
		return opts.DSN + sep + "parseTime=true"
	}
	port := opts.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		opts.Username, opts.Password, opts.Host, port, opts.Database,
	)
	if opts.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}

// MongoURI builds a connection URI from opts. A Host that is already a
// mongodb:// or mongodb+srv:// URI is used as is.
func MongoURI(opts Options) string {
	if opts.DSN != "" {
		return opts.DSN
	}
	if strings.HasPrefix(opts.Host, "mongodb+srv://") || strings.HasPrefix(opts.Host, "mongodb://") {
		return opts.Host
	}
	port := opts.Port
	if port == 0 {
		port = 27017
	}
	if opts.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d",
			url.QueryEscape(opts.Username), url.QueryEscape(opts.Password), opts.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", opts.Host, port)
}
