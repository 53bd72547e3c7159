// internal/app/features/vault/templates.go
package vault

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "vault",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
