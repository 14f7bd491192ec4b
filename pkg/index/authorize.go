package index

import (
	"fmt"

	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/index/model"
)

// Authorize decides whether actor may register or update packages under
// owner's index. pkg is nil when no package of the requested name exists yet
// (i.e. this request would create it); maintainers are pkg's maintainer
// records and are ignored when pkg is nil.
//
// The function is pure: everything it needs is passed in, nothing is
// fetched. Rules, in order:
//  1. creating a package under another identity is never allowed
//  2. the owner may do anything to an existing package
//  3. anyone else must hold a ReadWrite maintainer record
func Authorize(actor, owner *auth.User, pkg *model.Package, maintainers []model.Maintainer) error {
	if pkg == nil {
		if actor.ID != owner.ID {
			return &NotAuthorizedError{Reason: "You can not create a package on someone else's account."}
		}
		return nil
	}
	if actor.ID == owner.ID {
		return nil
	}
	var maintainer *model.Maintainer
	for i := range maintainers {
		if maintainers[i].UserID == actor.ID {
			maintainer = &maintainers[i]
			break
		}
	}
	if maintainer == nil {
		return &NotAuthorizedError{Reason: fmt.Sprintf("You are not a maintainer of %s", pkg.Name)}
	}
	if maintainer.Permission == model.PermissionReadOnly {
		return &NotAuthorizedError{Reason: "You can not update packages"}
	}
	return nil
}

// AuthorizeRead decides whether user (possibly nil, i.e. anonymous) may see
// a package through the browsing views. Public packages are visible to
// everyone; private ones only to the owner and maintainers of any level.
func AuthorizeRead(user *auth.User, pkg *model.Package, maintainers []model.Maintainer) bool {
	if !pkg.Private {
		return true
	}
	if user == nil {
		return false
	}
	if user.ID == pkg.OwnerID {
		return true
	}
	for i := range maintainers {
		if maintainers[i].UserID == user.ID {
			return true
		}
	}
	return false
}
