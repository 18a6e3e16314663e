package devices

import (
	"embed"
	"io/fs"
)

//go:embed catalog/*.yaml
var builtinFS embed.FS

// BuiltinCatalog returns the manifests shipped with the binary.
func BuiltinCatalog() fs.FS {
	sub, err := fs.Sub(builtinFS, "catalog")
	if err != nil {
		panic(err)
	}
	return sub
}
