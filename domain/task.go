package domain

// Status classifies a task's progress.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the human-readable form of the status.
func (s Status) Label() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// TaskOwner identifies the user a task belongs to, as the server reports it.
type TaskOwner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Task represents a user-owned activity item. CreatedDate is kept as the
// server's literal timestamp string; the client never interprets it, only
// displays it.
type Task struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	CreatedDate string     `json:"createdDate,omitempty"`
	Owner       *TaskOwner `json:"user,omitempty"`
}

// Persisted reports whether the task has been assigned an identity by the
// server. A zero ID means the task exists only locally.
func (t *Task) Persisted() bool {
	return t != nil && t.ID > 0
}

// OwnerID returns the owning user's id, or zero when ownership is unknown.
func (t *Task) OwnerID() int64 {
	if t == nil || t.Owner == nil {
		return 0
	}
	return t.Owner.ID
}

// OwnerName returns the owning user's name for display purposes.
func (t *Task) OwnerName() string {
	if t == nil || t.Owner == nil {
		return ""
	}
	return t.Owner.Username
}
