// Package taskform drives the create/edit task form: opening it builds the
// field set through formspec after a policy check, saving it validates and
// ships the payload through the gateway.
package taskform

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/formspec"
	"github.com/taskwire/client/gateway"
	"github.com/taskwire/client/policy"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// Controller owns one user's form workflow. Gateway calls are children of
// the controller's context; Close abandons them.
type Controller struct {
	tasks   gateway.TaskGateway
	users   gateway.UserGateway
	session *domain.Session
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Form is one open of the task form: the computed field descriptor, the
// working values, and (for admins) the selectable assignees. Task is a
// working copy; the listing's instance is never mutated through it.
type Form struct {
	Mode       formspec.Mode
	Task       *domain.Task
	Descriptor *formspec.Descriptor
	Values     formspec.Values
	Users      []domain.User
}

func New(ctx context.Context, tasks gateway.TaskGateway, users gateway.UserGateway, session *domain.Session, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Controller{
		tasks:   tasks,
		users:   users,
		session: session,
		logger:  logger,
		ctx:     cctx,
		cancel:  cancel,
	}
}

// Close abandons all in-flight requests owned by the controller.
func (c *Controller) Close() {
	c.cancel()
}

// Open prepares the form for the given task and mode. Editing requires
// permission on the task; creating does not. For admins the assignee
// directory is preloaded; if that fails the form still opens, just without
// the list.
func (c *Controller) Open(task *domain.Task, mode formspec.Mode) (*Form, error) {
	if mode == formspec.ModeEdit {
		if decision := policy.CanEdit(task, c.session); !decision.Allowed {
			return nil, domain.NewError(domain.ErrCodeForbidden, decision.Reason)
		}
	} else if !c.session.Authenticated() {
		return nil, domain.ErrNoSession
	}

	descriptor, err := formspec.Build(task, c.session, mode)
	if err != nil {
		return nil, err
	}

	form := &Form{
		Mode:       mode,
		Descriptor: descriptor,
		Values:     descriptor.Values(),
	}
	if task != nil {
		working := *task
		form.Task = &working
	}

	if c.session.IsAdmin() {
		users, err := c.users.ListUsers(c.ctx)
		if err != nil {
			c.logger.Warn("could not load assignable users", zap.Error(err))
		} else {
			form.Users = users
		}
	}

	return form, nil
}

// Save validates the entered values and persists the task, creating or
// updating according to the form's mode. Validation failures carry
// per-field messages so the form can stay open with the entered values.
func (c *Controller) Save(form *Form) (*domain.Task, error) {
	if form == nil {
		return nil, domain.ErrInvalidPayload
	}

	req := formspec.BuildRequest(form.Values, c.session)
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}

	if form.Mode == formspec.ModeEdit {
		if !form.Task.Persisted() {
			return nil, domain.NewError(domain.ErrCodeInvalid, "edit form requires a persisted task")
		}
		updated, err := c.tasks.Update(c.ctx, form.Task.ID, req)
		if err != nil {
			return nil, err
		}
		c.logger.Info("task updated", zap.Int64("task_id", updated.ID))
		return updated, nil
	}

	created, err := c.tasks.Create(c.ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("task created", zap.Int64("task_id", created.ID))
	return created, nil
}

func (c *Controller) validateRequest(req gateway.TaskRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		fieldErrors := make(map[string]string, len(valErrs))
		for _, ve := range valErrs {
			fieldErrors[ve.Field()] = messageFor(ve)
		}
		invalid := domain.NewError(domain.ErrCodeInvalid, "please fill in all required fields")
		invalid.FieldErrors = fieldErrors
		return invalid
	}
	return domain.WrapError(domain.ErrCodeInvalid, "invalid form values", err)
}

func messageFor(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of %s", ve.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", ve.Param())
	}
	return "invalid value"
}
