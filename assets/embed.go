// Package assets embeds the built-in word catalog and the SQL migrations.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed words.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// WordList returns the built-in secret word catalog, uppercased.
func WordList() ([]string, error) {
	return readLines("words.txt")
}

// Migrations returns the embedded migration scripts rooted at sql/.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// sql/ is embedded at build time; Sub only fails on a malformed path.
		panic(err)
	}
	return sub
}
