package pg

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql seeds/*.sql
var sqlFiles embed.FS

// Migrations returns the schema migrations shipped with the binary.
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Seeds returns the demo seed files.
func Seeds() fs.FS {
	sub, err := fs.Sub(sqlFiles, "seeds")
	if err != nil {
		panic(err)
	}
	return sub
}
