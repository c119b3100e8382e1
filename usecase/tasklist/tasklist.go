// Package tasklist drives the paginated, status-filtered task listing.
package tasklist

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
	"github.com/taskwire/client/policy"
)

// State describes where the listing is in its load cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Config adjusts the listing parameters. Status and Page preset the
// filter state so the first Refresh lands on the right page.
type Config struct {
	Sort   string
	Status domain.Status
	Page   int
}

// Controller owns the listing's view state. All gateway calls it issues
// are children of its context; Close cancels them along with the
// controller itself.
type Controller struct {
	tasks   gateway.TaskGateway
	session *domain.Session
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	sort   string

	mu         sync.Mutex
	state      State
	generation uint64
	page       *domain.TaskPage
	pageIndex  int
	filter     domain.Status
	lastErr    error
}

// Snapshot is the view state at one point in time. Page is the last
// successfully loaded page; it stays visible through later failures.
type Snapshot struct {
	State     State
	Page      *domain.TaskPage
	PageIndex int
	Filter    domain.Status
	Err       error
}

func New(ctx context.Context, tasks gateway.TaskGateway, session *domain.Session, cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Sort == "" {
		cfg.Sort = gateway.DefaultSort
	}
	if cfg.Page < 0 {
		cfg.Page = 0
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Controller{
		tasks:     tasks,
		session:   session,
		logger:    logger,
		ctx:       cctx,
		cancel:    cancel,
		sort:      cfg.Sort,
		state:     StateIdle,
		filter:    cfg.Status,
		pageIndex: cfg.Page,
	}
}

// Close abandons all in-flight requests owned by the controller.
func (c *Controller) Close() {
	c.cancel()
}

// Refresh fetches the current page with the current filter.
func (c *Controller) Refresh() error {
	return c.load()
}

// SetFilter changes the status filter and reloads from the first page. An
// empty status means "all". The page reset is unconditional: page N of one
// filter must never be presented as page N of another.
func (c *Controller) SetFilter(status domain.Status) error {
	c.mu.Lock()
	c.filter = status
	c.pageIndex = 0
	c.mu.Unlock()
	return c.load()
}

// SetPage moves to the given page index and reloads.
func (c *Controller) SetPage(index int) error {
	if index < 0 {
		index = 0
	}
	c.mu.Lock()
	c.pageIndex = index
	c.mu.Unlock()
	return c.load()
}

// CanEdit delegates the edit permission check for one listed task.
func (c *Controller) CanEdit(task *domain.Task) policy.Decision {
	return policy.CanEdit(task, c.session)
}

// CanDelete delegates the delete permission check for one listed task.
func (c *Controller) CanDelete(task *domain.Task) policy.Decision {
	return policy.CanDelete(task, c.session)
}

// Delete removes a task after a local permission check and refreshes the
// listing. A 404 means someone else already removed the task; that is
// reported through the returned notice, not as an error.
func (c *Controller) Delete(task *domain.Task) (string, error) {
	if decision := c.CanDelete(task); !decision.Allowed {
		return "", domain.NewError(domain.ErrCodeForbidden, decision.Reason)
	}

	err := c.tasks.Remove(c.ctx, task.ID)
	if err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return "", err
	}

	notice := "task deleted"
	if err != nil {
		notice = "task was already removed"
		c.logger.Warn("delete target already gone", zap.Int64("task_id", task.ID))
	}

	if loadErr := c.load(); loadErr != nil {
		c.logger.Error("refresh after delete failed", zap.Error(loadErr))
	}
	return notice, nil
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state,
		Page:      c.page,
		PageIndex: c.pageIndex,
		Filter:    c.filter,
		Err:       c.lastErr,
	}
}

// load performs one fetch cycle. Each call claims a new generation; a
// fetch whose generation has been superseded by the time it completes is
// discarded so rapid filter or page changes cannot apply out of order.
func (c *Controller) load() error {
	c.mu.Lock()
	c.state = StateLoading
	c.generation++
	generation := c.generation
	query := gateway.ListQuery{
		Status: c.filter,
		Page:   c.pageIndex,
		Sort:   c.sort,
	}
	c.mu.Unlock()

	page, err := c.tasks.List(c.ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		c.logger.Debug("stale list response discarded", zap.Uint64("generation", generation))
		return nil
	}
	if err != nil {
		// keep the last loaded page on screen
		c.state = StateError
		c.lastErr = err
		c.logger.Error("task list load failed", zap.Error(err))
		return err
	}
	c.state = StateLoaded
	c.lastErr = nil
	c.page = page
	c.pageIndex = page.PageIndex
	return nil
}
