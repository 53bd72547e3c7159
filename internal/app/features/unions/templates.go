// internal/app/features/unions/templates.go
package unions

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "unions",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
