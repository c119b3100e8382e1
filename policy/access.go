// Package policy holds the pure permission rules for task access. It is the
// single place these rules live: controllers must call it rather than
// re-deriving ownership checks inline.
//
// The checks here are advisory for the UI; the server re-validates every
// mutation and remains the security boundary.
package policy

import "github.com/taskwire/client/domain"

// Decision is the outcome of a permission check. Reason is set only when
// the action is not allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// CanEdit reports whether the session may edit the task. Admins may edit
// any task; other users only their own. A missing or unauthenticated
// session always denies.
func CanEdit(task *domain.Task, session *domain.Session) Decision {
	if !session.Authenticated() {
		return deny("no session")
	}
	if session.IsAdmin() {
		return allow()
	}
	if task == nil || task.OwnerID() != session.UserID {
		return deny("not owner")
	}
	return allow()
}

// CanDelete applies the edit rule plus the requirement that the task has a
// server-assigned identity. A task that was never persisted cannot be
// deleted by anyone.
func CanDelete(task *domain.Task, session *domain.Session) Decision {
	if !session.Authenticated() {
		return deny("no session")
	}
	if !task.Persisted() {
		return deny("task has no identity")
	}
	if session.IsAdmin() {
		return allow()
	}
	if task.OwnerID() != session.UserID {
		return deny("not owner")
	}
	return allow()
}
