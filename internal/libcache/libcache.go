// Package libcache persists pin sets for external required libraries in a
// SQLite database, so requires that point outside the workspace can still
// contribute declarations without reparsing the library on every start.
package libcache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"rubylens/internal/pin"
)

// Cache is the SQLite data access layer for cached library pins.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) a cache database at dbPath with WAL mode enabled.
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("libcache: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("libcache: ping database: %w", err)
	}
	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) migrate() error {
	if _, err := c.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("libcache: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS libraries (
  name            TEXT PRIMARY KEY,
  indexed_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS pins (
  id              INTEGER PRIMARY KEY,
  library         TEXT NOT NULL REFERENCES libraries(name),
  kind            INTEGER NOT NULL,
  name            TEXT NOT NULL,
  namespace       TEXT NOT NULL DEFAULT '',
  scope           INTEGER NOT NULL DEFAULT 0,
  visibility      INTEGER NOT NULL DEFAULT 0,
  type_name       TEXT NOT NULL DEFAULT '',
  namespace_type  INTEGER NOT NULL DEFAULT 0,
  ref_kind        INTEGER NOT NULL DEFAULT 0,
  alias_of        TEXT NOT NULL DEFAULT '',
  docs            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_pins_library ON pins(library);
`

// Save replaces the cached pin set for one library.
func (c *Cache) Save(library string, pins []*pin.Pin) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("libcache: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pins WHERE library = ?", library); err != nil {
		return fmt.Errorf("libcache: clear %s: %w", library, err)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO libraries(name) VALUES (?)", library); err != nil {
		return fmt.Errorf("libcache: register %s: %w", library, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO pins
		(library, kind, name, namespace, scope, visibility, type_name, namespace_type, ref_kind, alias_of, docs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("libcache: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range pins {
		// Local variables are per-file analysis state, not library surface.
		if p.Kind == pin.KindLocalVariable {
			continue
		}
		if _, err := stmt.Exec(
			library, int(p.Kind), p.Name, p.Namespace, int(p.Scope), int(p.Visibility),
			p.TypeName, int(p.NamespaceType), int(p.RefKind), p.AliasOf, p.Docs,
		); err != nil {
			return fmt.Errorf("libcache: insert pin %s: %w", p.Path(), err)
		}
	}
	return tx.Commit()
}

// Load returns the cached pins for one library, nil when the library is
// not cached.
func (c *Cache) Load(library string) ([]*pin.Pin, error) {
	rows, err := c.db.Query(`SELECT kind, name, namespace, scope, visibility, type_name, namespace_type, ref_kind, alias_of, docs
		FROM pins WHERE library = ? ORDER BY id`, library)
	if err != nil {
		return nil, fmt.Errorf("libcache: query %s: %w", library, err)
	}
	defer rows.Close()

	var pins []*pin.Pin
	for rows.Next() {
		var kind, scope, visibility, nsType, refKind int
		p := &pin.Pin{}
		if err := rows.Scan(&kind, &p.Name, &p.Namespace, &scope, &visibility,
			&p.TypeName, &nsType, &refKind, &p.AliasOf, &p.Docs); err != nil {
			return nil, fmt.Errorf("libcache: scan: %w", err)
		}
		p.Kind = pin.Kind(kind)
		p.Scope = pin.Scope(scope)
		p.Visibility = pin.Visibility(visibility)
		p.NamespaceType = pin.NamespaceType(nsType)
		p.RefKind = pin.RefKind(refKind)
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("libcache: rows: %w", err)
	}
	return pins, nil
}

// Has reports whether the library has a cached pin set.
func (c *Cache) Has(library string) (bool, error) {
	var name string
	err := c.db.QueryRow("SELECT name FROM libraries WHERE name = ?", library).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("libcache: lookup %s: %w", library, err)
	}
	return true, nil
}

// Libraries returns the names of all cached libraries, sorted.
func (c *Cache) Libraries() ([]string, error) {
	rows, err := c.db.Query("SELECT name FROM libraries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("libcache: list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("libcache: scan: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
