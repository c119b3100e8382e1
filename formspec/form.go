// Package formspec computes how the task form is parameterized: which
// fields exist, their initial values, which are required, and how entered
// values become a wire payload. All functions are pure; the form widgets
// themselves are someone else's problem.
package formspec

import (
	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
)

// Mode distinguishes creating a new task from editing an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Names of the task form fields.
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldStatus       = "status"
	FieldTargetUserID = "targetUserId"
)

// Field describes one form input: its initial value and whether the user
// must fill it before saving.
type Field struct {
	Initial  any
	Required bool
}

// Descriptor is the full parameterization of one open of the task form.
// It is built fresh each time the form opens and discarded on close.
type Descriptor struct {
	Mode   Mode
	Fields map[string]Field
}

// Values carries what the user entered into the form. TargetUserID zero
// means "not set"; the field only exists for admin sessions.
type Values struct {
	Title        string
	Description  string
	Status       domain.Status
	TargetUserID int64
}

// Build computes the field set and initial values for the given task,
// session and mode. The targetUserId field exists only for admins: in EDIT
// mode it defaults to the task's owner, in CREATE mode to the admin's own
// id. EDIT mode without a persisted task is a contract violation and fails
// immediately.
func Build(task *domain.Task, session *domain.Session, mode Mode) (*Descriptor, error) {
	if mode == ModeEdit && !task.Persisted() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "edit form requires a persisted task")
	}

	title := ""
	description := ""
	status := domain.StatusNew
	if mode == ModeEdit {
		title = task.Title
		description = task.Description
		if task.Status.Valid() {
			status = task.Status
		}
	}

	fields := map[string]Field{
		FieldTitle:       {Initial: title, Required: true},
		FieldDescription: {Initial: description},
		FieldStatus:      {Initial: status, Required: true},
	}

	if session.IsAdmin() {
		target := session.UserID
		if mode == ModeEdit {
			target = task.OwnerID()
		}
		fields[FieldTargetUserID] = Field{Initial: target, Required: true}
	}

	return &Descriptor{Mode: mode, Fields: fields}, nil
}

// Values flattens the descriptor's initial values into a Values struct,
// ready to be edited and eventually passed to BuildRequest.
func (d *Descriptor) Values() Values {
	var v Values
	if d == nil {
		v.Status = domain.StatusNew
		return v
	}
	if title, ok := d.Fields[FieldTitle].Initial.(string); ok {
		v.Title = title
	}
	if desc, ok := d.Fields[FieldDescription].Initial.(string); ok {
		v.Description = desc
	}
	if status, ok := d.Fields[FieldStatus].Initial.(domain.Status); ok {
		v.Status = status
	}
	if target, ok := d.Fields[FieldTargetUserID]; ok {
		if id, ok := target.Initial.(int64); ok {
			v.TargetUserID = id
		}
	}
	return v
}

// BuildRequest shapes form values into the wire payload. Title, description
// and status are always included. targetUserId is included only when the
// session is an admin and the value is set; anything a non-admin managed to
// put there is dropped so the admin-only field cannot be injected.
func BuildRequest(values Values, session *domain.Session) gateway.TaskRequest {
	req := gateway.TaskRequest{
		Title:       values.Title,
		Description: values.Description,
		Status:      values.Status,
	}
	if session.IsAdmin() && values.TargetUserID > 0 {
		target := values.TargetUserID
		req.TargetUserID = &target
	}
	return req
}
