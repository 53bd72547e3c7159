// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"

	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/unionctx"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Active union context (from unionctx middleware); empty on
	// pages outside a union.
	UnionCode string
	UnionName string
	UnionRole string
	// Unions the user belongs to, for the switcher menu.
	Unions []UnionOption

	// Page context
	Title       string
	BackURL     string
	CurrentPath string
}

// UnionOption is one entry of the union switcher.
type UnionOption struct {
	Code   string
	Name   string
	Active bool
}

const siteName = "Union Hub"

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	role, name, userID, signedIn := authz.UserCtx(r)

	vm := BaseVM{
		SiteName:    siteName,
		IsLoggedIn:  signedIn,
		Role:        role,
		UserName:    name,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
	}

	if sel, ok := unionctx.Active(r); ok && !sel.None {
		vm.UnionCode = sel.Union.Code
		vm.UnionName = sel.Union.Name
		if signedIn {
			vm.UnionRole = sel.Union.RoleOf(userID)
		}
		for _, u := range sel.Unions {
			vm.Unions = append(vm.Unions, UnionOption{
				Code:   u.Code,
				Name:   u.Name,
				Active: u.Code == sel.Union.Code,
			})
		}
	}

	return vm
}
