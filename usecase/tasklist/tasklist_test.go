package tasklist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
)

type fakeTaskGateway struct {
	mu      sync.Mutex
	queries []gateway.ListQuery
	pages   []*domain.TaskPage
	listErr error

	removeErr error
	removed   []int64

	// blockList, when set, is closed by the test to release a pending List.
	blockList chan struct{}
}

func (f *fakeTaskGateway) List(ctx context.Context, query gateway.ListQuery) (*domain.TaskPage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	block := f.blockList
	f.blockList = nil
	var page *domain.TaskPage
	if len(f.pages) > 0 {
		page = f.pages[0]
		f.pages = f.pages[1:]
	}
	err := f.listErr
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &domain.TaskPage{PageIndex: query.Page, PageSize: gateway.DefaultPageSize}
	}
	return page, nil
}

func (f *fakeTaskGateway) Create(ctx context.Context, req gateway.TaskRequest) (*domain.Task, error) {
	return nil, domain.NewError(domain.ErrCodeInternal, "not used")
}

func (f *fakeTaskGateway) Update(ctx context.Context, id int64, req gateway.TaskRequest) (*domain.Task, error) {
	return nil, domain.NewError(domain.ErrCodeInternal, "not used")
}

func (f *fakeTaskGateway) Remove(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return f.removeErr
}

func (f *fakeTaskGateway) lastQuery() gateway.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return gateway.ListQuery{}
	}
	return f.queries[len(f.queries)-1]
}

func ownerSession() *domain.Session {
	return &domain.Session{UserID: 5, Username: "alice", Role: domain.RoleUser, Token: "tok"}
}

func pageOf(number, totalPages int, tasks ...domain.Task) *domain.TaskPage {
	return &domain.TaskPage{
		Items:      tasks,
		TotalItems: totalPages * gateway.DefaultPageSize,
		TotalPages: totalPages,
		PageIndex:  number,
		PageSize:   gateway.DefaultPageSize,
	}
}

func TestRefreshTransitionsToLoaded(t *testing.T) {
	tasks := &fakeTaskGateway{pages: []*domain.TaskPage{pageOf(0, 1, domain.Task{ID: 1, Title: "a", Status: domain.StatusNew})}}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	if got := c.Snapshot().State; got != StateIdle {
		t.Fatalf("initial state = %v, want idle", got)
	}
	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	snap := c.Snapshot()
	if snap.State != StateLoaded {
		t.Errorf("state = %v, want loaded", snap.State)
	}
	if snap.Page.Empty() || snap.Page.Items[0].ID != 1 {
		t.Errorf("page = %+v", snap.Page)
	}
	if q := tasks.lastQuery(); q.Sort != gateway.DefaultSort {
		t.Errorf("sort = %q, want default", q.Sort)
	}
}

func TestFilterChangeResetsPageIndex(t *testing.T) {
	tasks := &fakeTaskGateway{pages: []*domain.TaskPage{
		pageOf(2, 5),
		pageOf(0, 3),
	}}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	if err := c.SetFilter(domain.StatusNew); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	if err := c.SetPage(2); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if snap := c.Snapshot(); snap.PageIndex != 2 {
		t.Fatalf("page index = %d, want server-reported 2", snap.PageIndex)
	}

	if err := c.SetFilter(domain.StatusInProgress); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}
	q := tasks.lastQuery()
	if q.Page != 0 {
		t.Errorf("page after filter change = %d, want 0", q.Page)
	}
	if q.Status != domain.StatusInProgress {
		t.Errorf("status = %q", q.Status)
	}
}

func TestLoadFailurePreservesLastPage(t *testing.T) {
	tasks := &fakeTaskGateway{pages: []*domain.TaskPage{pageOf(0, 1, domain.Task{ID: 1, Title: "a", Status: domain.StatusNew})}}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	tasks.mu.Lock()
	tasks.listErr = domain.NewError(domain.ErrCodeNetwork, "connection refused")
	tasks.mu.Unlock()

	if err := c.Refresh(); err == nil {
		t.Fatal("expected a load error")
	}

	snap := c.Snapshot()
	if snap.State != StateError {
		t.Errorf("state = %v, want error", snap.State)
	}
	if snap.Page.Empty() {
		t.Error("last loaded page was cleared on failure")
	}
	if snap.Err == nil {
		t.Error("snapshot lost the error")
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	tasks := &fakeTaskGateway{
		blockList: release,
		pages: []*domain.TaskPage{
			pageOf(3, 5), // slow response for the abandoned request
			pageOf(0, 2, domain.Task{ID: 2, Title: "fresh", Status: domain.StatusInProgress}),
		},
	}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.SetPage(3) }()

	// Wait for the slow request to be in flight, then supersede it.
	for {
		tasks.mu.Lock()
		started := len(tasks.queries) > 0 && tasks.blockList == nil
		tasks.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := c.SetFilter(domain.StatusInProgress); err != nil {
		t.Fatalf("SetFilter: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded load returned error: %v", err)
	}

	snap := c.Snapshot()
	if snap.State != StateLoaded {
		t.Errorf("state = %v, want loaded", snap.State)
	}
	if snap.PageIndex != 0 {
		t.Errorf("page index = %d; stale page-3 response was applied", snap.PageIndex)
	}
	if snap.Page.Empty() || snap.Page.Items[0].Title != "fresh" {
		t.Errorf("page = %+v, want the fresh filter's result", snap.Page)
	}
}

func TestDeleteRefusedByPolicy(t *testing.T) {
	tasks := &fakeTaskGateway{}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	foreign := &domain.Task{ID: 10, Title: "other", Status: domain.StatusNew, Owner: &domain.TaskOwner{ID: 7}}
	if _, err := c.Delete(foreign); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	if len(tasks.removed) != 0 {
		t.Error("gateway was called despite the policy denial")
	}
}

func TestDeleteAlreadyRemovedIsBenign(t *testing.T) {
	tasks := &fakeTaskGateway{removeErr: domain.NewError(domain.ErrCodeNotFound, "task not found")}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	mine := &domain.Task{ID: 99, Title: "mine", Status: domain.StatusNew, Owner: &domain.TaskOwner{ID: 5}}
	notice, err := c.Delete(mine)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if notice != "task was already removed" {
		t.Errorf("notice = %q", notice)
	}
	if len(tasks.queries) == 0 {
		t.Error("listing was not refreshed after delete")
	}
}

func TestDeleteSuccessRefreshes(t *testing.T) {
	tasks := &fakeTaskGateway{}
	c := New(context.Background(), tasks, ownerSession(), Config{}, nil)
	defer c.Close()

	mine := &domain.Task{ID: 12, Title: "mine", Status: domain.StatusDone, Owner: &domain.TaskOwner{ID: 5}}
	notice, err := c.Delete(mine)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if notice != "task deleted" {
		t.Errorf("notice = %q", notice)
	}
	if len(tasks.removed) != 1 || tasks.removed[0] != 12 {
		t.Errorf("removed = %v", tasks.removed)
	}
	if len(tasks.queries) != 1 {
		t.Errorf("refresh count = %d, want 1", len(tasks.queries))
	}
}
