package lyim

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/bodgit/lyim/resize"
	_ "github.com/mattn/go-sqlite3"
)

// Store is a cache of encoded images keyed by the SHA-1 of the source file
// and the options used to encode it.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database file.
func NewStore(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS encoding (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, filter TEXT NOT NULL, data BLOB NOT NULL, UNIQUE (sha1, width, height, filter))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func filterKey(o Options) string {
	if o.Filter == "" {
		return resize.DefaultFilter
	}
	return strings.ToLower(o.Filter)
}

// Find returns the cached encoding, if any.
func (s *Store) Find(sha string, o Options) ([]byte, bool, error) {
	var data []byte
	switch err := s.db.QueryRow("SELECT data FROM encoding WHERE sha1 = ? AND width = ? AND height = ? AND filter = ?", sha, o.Width, o.Height, filterKey(o)).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
		return data, true, nil
	default:
		return nil, false, err
	}
}

// Add stores an encoding, replacing any existing one.
func (s *Store) Add(sha string, o Options, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	if _, err := s.db.Exec("INSERT OR REPLACE INTO encoding (sha1, width, height, filter, data) VALUES (?, ?, ?, ?, ?)", sha, o.Width, o.Height, filterKey(o), data); err != nil {
		return err
	}
	return nil
}

// Length returns the number of cached encodings.
func (s *Store) Length() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM encoding").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
