// Package authz holds the pure allow/deny checks applied between identity
// resolution and storage. Nothing here touches the database.
package authz

import "github.com/mickeybyalsky/rfd-api/internal/models"

// Reason says why a check denied. ReasonOK means allowed.
type Reason string

const (
	ReasonOK       Reason = "ok"
	ReasonNotOwner Reason = "not_owner"
	ReasonSelfVote Reason = "self_vote"
	ReasonBanned   Reason = "banned"
	ReasonNotAdmin Reason = "not_admin"
)

// CanModify allows only the author of the target to edit or delete it.
// Admin override happens through the separate admin routes, not here.
func CanModify(acct models.Account, authorID int) (bool, Reason) {
	if acct.ID != authorID {
		return false, ReasonNotOwner
	}
	return true, ReasonOK
}

// CanVote denies voting on your own content and voting while banned.
func CanVote(acct models.Account, authorID int) (bool, Reason) {
	if acct.Role == models.RoleBanned {
		return false, ReasonBanned
	}
	if acct.ID == authorID {
		return false, ReasonSelfVote
	}
	return true, ReasonOK
}

// CanPost denies content creation to banned accounts.
func CanPost(acct models.Account) (bool, Reason) {
	if acct.Role == models.RoleBanned {
		return false, ReasonBanned
	}
	return true, ReasonOK
}

// IsAdmin allows only accounts with the admin role.
func IsAdmin(acct models.Account) (bool, Reason) {
	if acct.Role != models.RoleAdmin {
		return false, ReasonNotAdmin
	}
	return true, ReasonOK
}
