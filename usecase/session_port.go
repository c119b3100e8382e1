package usecase

import "github.com/taskwire/client/domain"

// SessionStore abstracts durable session persistence so use cases stay
// storage-agnostic.
type SessionStore interface {
	Load() (*domain.Session, error)
	Save(session *domain.Session) error
	Clear() error
}
