package rest

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
)

// newTestClient runs a real fasthttp server over an in-memory listener and
// returns a client dialed into it.
func newTestClient(t *testing.T, cfg Config, configure func(r *router.Router)) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	r := router.New()
	configure(r)
	srv := &fasthttp.Server{Handler: r.Handler}
	go srv.Serve(ln) //nolint:errcheck
	t.Cleanup(func() { ln.Close() })

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://tasks.test"
	}
	client := NewClient(cfg)
	client.http.Dial = func(addr string) (net.Conn, error) { return ln.Dial() }
	return client
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func TestListEncodesQueryAndMapsPage(t *testing.T) {
	var gotPage, gotStatus, gotSort string

	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.GET("/tasks", func(ctx *fasthttp.RequestCtx) {
			gotPage = string(ctx.QueryArgs().Peek("page"))
			gotStatus = string(ctx.QueryArgs().Peek("status"))
			gotSort = string(ctx.QueryArgs().Peek("sort"))
			writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
				"content": []map[string]interface{}{
					{"id": 10, "title": "report", "status": "NEW", "user": map[string]interface{}{"id": 7, "username": "owner"}},
				},
				"totalElements":    41,
				"totalPages":       5,
				"size":             10,
				"number":           2,
				"first":            false,
				"last":             false,
				"numberOfElements": 1,
				"empty":            false,
			})
		})
	})

	tasks := NewTaskGateway(client)
	page, err := tasks.List(context.Background(), gateway.ListQuery{
		Status: domain.StatusNew,
		Page:   2,
		Sort:   gateway.DefaultSort,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if gotPage != "2" || gotStatus != "NEW" || gotSort != gateway.DefaultSort {
		t.Errorf("query = page %q status %q sort %q", gotPage, gotStatus, gotSort)
	}
	if page.PageIndex != 2 || page.TotalPages != 5 || page.TotalItems != 41 || page.PageSize != 10 {
		t.Errorf("page metadata = %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].OwnerID() != 7 {
		t.Errorf("page items = %+v", page.Items)
	}
}

func TestListOmitsEmptyStatusFilter(t *testing.T) {
	var hadStatus bool

	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.GET("/tasks", func(ctx *fasthttp.RequestCtx) {
			hadStatus = ctx.QueryArgs().Has("status")
			writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"content": []interface{}{}})
		})
	})

	if _, err := NewTaskGateway(client).List(context.Background(), gateway.ListQuery{Page: 0}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if hadStatus {
		t.Error("empty status filter must not be sent to the server")
	}
}

func TestCreateSendsBearerTokenAndBody(t *testing.T) {
	var gotAuth string
	var gotBody gateway.TaskRequest

	client := newTestClient(t, Config{Token: func() string { return "tok-123" }}, func(r *router.Router) {
		r.POST("/tasks", func(ctx *fasthttp.RequestCtx) {
			gotAuth = string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
			if err := json.Unmarshal(ctx.PostBody(), &gotBody); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			writeJSON(ctx, fasthttp.StatusCreated, domain.Task{
				ID:     11,
				Title:  "new task",
				Status: domain.StatusNew,
				Owner:  &domain.TaskOwner{ID: 5, Username: "user"},
			})
		})
	})

	target := int64(5)
	created, err := NewTaskGateway(client).Create(context.Background(), gateway.TaskRequest{
		Title:        "new task",
		Status:       domain.StatusNew,
		TargetUserID: &target,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if gotBody.TargetUserID == nil || *gotBody.TargetUserID != 5 {
		t.Errorf("targetUserId on the wire = %v", gotBody.TargetUserID)
	}
	if created.ID != 11 {
		t.Errorf("created id = %d", created.ID)
	}
}

func TestUpdateNotFound(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.PUT("/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
			writeJSON(ctx, fasthttp.StatusNotFound, map[string]string{"message": "task not found"})
		})
	})

	_, err := NewTaskGateway(client).Update(context.Background(), 99, gateway.TaskRequest{Title: "x"})
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if err.Error() != "task not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRemoveNoContent(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.DELETE("/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
		})
	})

	if err := NewTaskGateway(client).Remove(context.Background(), 10); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestValidationErrorCarriesFieldErrors(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.POST("/tasks", func(ctx *fasthttp.RequestCtx) {
			writeJSON(ctx, fasthttp.StatusBadRequest, map[string]interface{}{
				"message":     "validation failed",
				"fieldErrors": map[string]string{"title": "must not be blank"},
			})
		})
	})

	_, err := NewTaskGateway(client).Create(context.Background(), gateway.TaskRequest{})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("err = %v, want INVALID", err)
	}
	fields := domain.Fields(err)
	if fields["title"] != "must not be blank" {
		t.Errorf("fieldErrors = %v", fields)
	}
}

func TestPlainStringErrorBody(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.DELETE("/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
			writeJSON(ctx, fasthttp.StatusForbidden, "you may only delete your own tasks")
		})
	})

	err := NewTaskGateway(client).Remove(context.Background(), 10)
	if !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	if err.Error() != "you may only delete your own tasks" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestFallbackMessageOnOpaqueErrorBody(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.GET("/tasks", func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("<html>boom</html>")
		})
	})

	_, err := NewTaskGateway(client).List(context.Background(), gateway.ListQuery{})
	if !domain.IsDomainError(err, domain.ErrCodeInternal) {
		t.Fatalf("err = %v, want INTERNAL", err)
	}
	if err.Error() != "could not load tasks" {
		t.Errorf("message = %q, want the fallback", err.Error())
	}
}

func TestUnauthorizedInvokesAuthFailureHook(t *testing.T) {
	var torn bool
	client := newTestClient(t, Config{OnAuthFailure: func() { torn = true }}, func(r *router.Router) {
		r.GET("/tasks", func(ctx *fasthttp.RequestCtx) {
			writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"message": "token expired"})
		})
	})

	_, err := NewTaskGateway(client).List(context.Background(), gateway.ListQuery{})
	if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if !torn {
		t.Error("OnAuthFailure hook was not invoked")
	}
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.POST("/users/login", func(ctx *fasthttp.RequestCtx) {
			var creds gateway.Credentials
			if err := json.Unmarshal(ctx.PostBody(), &creds); err != nil || creds.Username != "alice" {
				writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"message": "bad credentials"})
				return
			}
			writeJSON(ctx, fasthttp.StatusOK, gateway.LoginResult{
				ID: 5, Username: "alice", Role: domain.RoleAdmin, Token: "tok-5",
			})
		})
	})

	users := NewUserGateway(client)
	result, err := users.Login(context.Background(), gateway.Credentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.ID != 5 || result.Role != domain.RoleAdmin || result.Token != "tok-5" {
		t.Errorf("result = %+v", result)
	}

	_, err = users.Login(context.Background(), gateway.Credentials{Username: "mallory", Password: "pw"})
	if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Errorf("bad credentials err = %v, want UNAUTHORIZED", err)
	}
}

func TestListUsers(t *testing.T) {
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.GET("/users", func(ctx *fasthttp.RequestCtx) {
			writeJSON(ctx, fasthttp.StatusOK, []domain.User{
				{ID: 1, Username: "admin", Role: domain.RoleAdmin},
				{ID: 5, Username: "alice", Role: domain.RoleUser},
			})
		})
	})

	users, err := NewUserGateway(client).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[1].Username != "alice" {
		t.Errorf("users = %+v", users)
	}
}

func TestCanceledContextNeverHitsTheWire(t *testing.T) {
	var called bool
	client := newTestClient(t, Config{}, func(r *router.Router) {
		r.GET("/tasks", func(ctx *fasthttp.RequestCtx) { called = true })
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTaskGateway(client).List(ctx, gateway.ListQuery{})
	if !domain.IsDomainError(err, domain.ErrCodeNetwork) {
		t.Fatalf("err = %v, want NETWORK", err)
	}
	if called {
		t.Error("request was sent despite the canceled context")
	}
}
