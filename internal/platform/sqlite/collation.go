package sqlite

import (
	"strings"

	"golang.org/x/text/cases"
	moderncsqlite "modernc.org/sqlite"
)

// foldCollation orders text by its full Unicode case folding, the same key
// the in-memory store sorts on. SQLite's LOWER only folds ASCII.
const foldCollation = "casefold"

func init() {
	moderncsqlite.MustRegisterCollationUtf8(foldCollation, compareFolded)
}

func compareFolded(left, right string) int {
	caser := cases.Fold()
	return strings.Compare(caser.String(left), caser.String(right))
}
