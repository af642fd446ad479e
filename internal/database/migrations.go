package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one numbered pair of SQL scripts from migrations/.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// ID is the file stem, e.g. 000001_init_schema.
func (m Migration) ID() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

var embedded, embeddedErr = loadMigrations(migrationFiles, "migrations")

// Migrations returns the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	if embeddedErr != nil {
		return nil, embeddedErr
	}
	out := make([]Migration, len(embedded))
	copy(out, embedded)
	return out, nil
}

// loadMigrations reads every NNNNNN_name.up.sql in dir along with its
// matching .down.sql.
func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	seen := make(map[int]string, len(files))
	list := make([]Migration, 0, len(files))
	for _, upPath := range files {
		stem := strings.TrimSuffix(path.Base(upPath), ".up.sql")
		num, name, ok := strings.Cut(stem, "_")
		if !ok || name == "" {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name.up.sql", upPath)
		}
		version, err := strconv.Atoi(num)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: bad version %q", upPath, num)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %s and %s", version, prev, stem)
		}
		seen[version] = stem

		up, err := fs.ReadFile(fsys, upPath)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, stem+".down.sql"))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", stem, err)
		}
		list = append(list, Migration{Version: version, Name: name, Up: string(up), Down: string(down)})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Version < list[j].Version })
	return list, nil
}
