package imgtobitmap

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
)

// Catalog is a SQLite database of previously generated artifacts keyed by
// the SHA1 of the source image and the conversion settings.
type Catalog struct {
	db *sql.DB
}

// Entry describes one cached artifact.
type Entry struct {
	SHA1    string
	Width   int
	Height  int
	BPP     int
	Variant string
	Path    string
	Size    int
}

// OpenCatalog opens or creates the catalog database in file.
func OpenCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS source (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS artifact (id INTEGER PRIMARY KEY NOT NULL, source_id INTEGER NOT NULL, bpp INTEGER NOT NULL, variant TEXT NOT NULL, path TEXT NOT NULL, data BLOB NOT NULL, UNIQUE(source_id, bpp, variant), FOREIGN KEY(source_id) REFERENCES source(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) addSource(sha string, width, height int) (int64, error) {
	var id int64
	switch err := c.db.QueryRow("SELECT id FROM source WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := c.db.Exec("INSERT INTO source (sha1, width, height) VALUES (?, ?, ?)", sha, width, height)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// Store records data as the artifact for the source with the given SHA1,
// replacing any previous artifact with the same settings.
func (c *Catalog) Store(sha string, width, height, bpp int, variant, path string, data []byte) error {
	source, err := c.addSource(sha, width, height)
	if err != nil {
		return err
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO artifact (source_id, bpp, variant, path, data) VALUES (?, ?, ?, ?, ?)", source, bpp, variant, path, data); err != nil {
		return err
	}

	return nil
}

// Lookup returns the cached artifact, or nil if there isn't one.
func (c *Catalog) Lookup(sha string, bpp int, variant string) ([]byte, error) {
	var data []byte
	switch err := c.db.QueryRow("SELECT a.data FROM artifact AS a JOIN source AS s ON a.source_id = s.id WHERE s.sha1 = ? AND a.bpp = ? AND a.variant = ?", sha, bpp, variant).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if data == nil {
			data = []byte{}
		}
		return data, nil
	default:
		return nil, err
	}
}

// Entries returns every cached artifact, oldest first.
func (c *Catalog) Entries() ([]Entry, error) {
	rows, err := c.db.Query("SELECT s.sha1, s.width, s.height, a.bpp, a.variant, a.path, length(a.data) FROM artifact AS a JOIN source AS s ON a.source_id = s.id ORDER BY a.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SHA1, &e.Width, &e.Height, &e.BPP, &e.Variant, &e.Path, &e.Size); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
