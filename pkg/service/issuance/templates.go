package issuance

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.json
var embeddedTemplates embed.FS

// DefaultTemplates returns the credential templates compiled into the binary.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
