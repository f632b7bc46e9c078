// Package migrations embeds the SQL schema of the attendance store.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.up.sql
var files embed.FS

// Up returns the contents of every up migration in version order.
func Up() ([]string, error) {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, string(b))
	}
	return scripts, nil
}
