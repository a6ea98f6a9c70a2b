// Package authz holds the pure permission matrix consulted before any
// administrative, review or engagement action. It performs no I/O; role and
// suspension state must be resolved from the user store by the caller.
package authz

import "github.com/campushub/campushub-api/internal/models"

// Action identifies an operation subject to the permission matrix.
type Action string

const (
	// Administrative actions carry a target principal.
	ActionSuspendUser    Action = "user.suspend"
	ActionDeleteUser     Action = "user.delete"
	ActionPromoteUser    Action = "user.promote"
	ActionCreateReviewer Action = "user.create_reviewer"

	// ActionReviewDocument covers approving or rejecting a pending document.
	ActionReviewDocument Action = "document.review"

	// Submission and engagement actions are open to every active principal.
	ActionSubmitDocument Action = "document.submit"
	ActionCreatePost     Action = "post.create"
	ActionComment        Action = "post.comment"
	ActionReact          Action = "post.react"
)

// roleRank orders the closed role set. Administrative actions require the
// actor to strictly outrank the target.
var roleRank = map[models.Role]int{
	models.RoleStudent:    0,
	models.RoleAdmin:      1,
	models.RoleSuperAdmin: 2,
}

var administrativeActions = map[Action]struct{}{
	ActionSuspendUser:    {},
	ActionDeleteUser:     {},
	ActionPromoteUser:    {},
	ActionCreateReviewer: {},
}

var submissionActions = map[Action]struct{}{
	ActionSubmitDocument: {},
	ActionCreatePost:     {},
	ActionComment:        {},
	ActionReact:          {},
}

// CanPerform decides whether an actor role may perform an action, optionally
// against a target role. It is deterministic and side-effect free. Target is
// ignored for actions that do not involve another principal.
func CanPerform(actor models.Role, action Action, target models.Role) bool {
	if _, ok := administrativeActions[action]; ok {
		return canAdminister(actor, action, target)
	}

	if action == ActionReviewDocument {
		return actor == models.RoleAdmin || actor == models.RoleSuperAdmin
	}

	if _, ok := submissionActions[action]; ok {
		return actor.Valid()
	}

	return false
}

func canAdminister(actor models.Role, action Action, target models.Role) bool {
	// A super admin is never a valid target of a destructive action,
	// not even for another super admin.
	if target == models.RoleSuperAdmin {
		return false
	}

	if action == ActionCreateReviewer {
		return actor == models.RoleSuperAdmin
	}

	actorRank, ok := roleRank[actor]
	if !ok {
		return false
	}
	targetRank, ok := roleRank[target]
	if !ok {
		return false
	}

	return actorRank > targetRank
}
