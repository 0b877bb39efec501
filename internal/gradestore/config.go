package gradestore

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var errNoDatabase = errors.New("grade store: set either file or url")

// Config selects a local sqlite file or a remote libsql database, Url wins when both
// are set.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// dsn builds the libsql data source name. Local files use the file: scheme, which the
// libsql driver serves through modernc.org/sqlite. The auth token is added to any query
// the url already carries.
func (c Config) dsn() (string, error) {
	if c.Url == "" {
		if c.File == "" {
			return "", errNoDatabase
		}
		return "file:" + c.File, nil
	}

	remote, err := url.Parse(c.Url)
	if err != nil {
		return "", fmt.Errorf("grade store url: %w", err)
	}
	if c.AuthToken != "" {
		query := remote.Query()
		query.Set("authToken", c.AuthToken)
		remote.RawQuery = query.Encode()
	}
	return remote.String(), nil
}

func (c Config) OpenDB() (*sql.DB, error) {
	dsn, err := c.dsn()
	if err != nil {
		return nil, err
	}
	return sql.Open("libsql", dsn)
}

// OpenMemory opens a private in-memory database. Every sqlite connection to :memory:
// is a database of its own, so the pool holds a single connection.
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
