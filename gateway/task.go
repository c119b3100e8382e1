// Package gateway defines the boundary through which the client talks to
// the task service. Implementations live in subpackages; everything above
// this package depends only on these interfaces and payload types.
package gateway

import (
	"context"

	"github.com/taskwire/client/domain"
)

// Pagination defaults matching the server's listing contract.
const (
	DefaultPageSize = 10
	DefaultSort     = "createdDate,desc"
)

// ListQuery identifies one page of the task listing. An empty Status means
// "all statuses within the session's scope"; scope filtering (own tasks vs
// all tasks) is the server's responsibility.
type ListQuery struct {
	Status domain.Status `schema:"status,omitempty"`
	Page   int           `schema:"page"`
	Sort   string        `schema:"sort,omitempty"`
}

// TaskRequest is the payload for task create and update calls.
// TargetUserID is the admin-only assignment field; it must be nil for
// regular users so the field never reaches the wire.
type TaskRequest struct {
	Title        string        `json:"title" validate:"required"`
	Description  string        `json:"description,omitempty"`
	Status       domain.Status `json:"status,omitempty" validate:"omitempty,oneof=NEW IN_PROGRESS DONE"`
	TargetUserID *int64        `json:"targetUserId,omitempty" validate:"omitempty,gt=0"`
}

// TaskGateway performs the network operations against the task resource.
type TaskGateway interface {
	List(ctx context.Context, query ListQuery) (*domain.TaskPage, error)
	Create(ctx context.Context, req TaskRequest) (*domain.Task, error)
	Update(ctx context.Context, id int64, req TaskRequest) (*domain.Task, error)
	Remove(ctx context.Context, id int64) error
}
