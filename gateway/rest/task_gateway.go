package rest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/schema"
	"github.com/valyala/fasthttp"

	"github.com/taskwire/client/domain"
	"github.com/taskwire/client/gateway"
)

// TaskGateway talks to the /tasks resource.
type TaskGateway struct {
	client  *Client
	encoder *schema.Encoder
}

// NewTaskGateway creates a REST-backed task gateway.
func NewTaskGateway(client *Client) *TaskGateway {
	return &TaskGateway{
		client:  client,
		encoder: schema.NewEncoder(),
	}
}

// pageEnvelope mirrors the server's page serialization.
type pageEnvelope struct {
	Content          []domain.Task `json:"content"`
	TotalElements    int           `json:"totalElements"`
	TotalPages       int           `json:"totalPages"`
	Size             int           `json:"size"`
	Number           int           `json:"number"`
	First            bool          `json:"first"`
	Last             bool          `json:"last"`
	NumberOfElements int           `json:"numberOfElements"`
	Empty            bool          `json:"empty"`
}

func (e *pageEnvelope) toPage() *domain.TaskPage {
	return &domain.TaskPage{
		Items:      e.Content,
		TotalItems: e.TotalElements,
		TotalPages: e.TotalPages,
		PageIndex:  e.Number,
		PageSize:   e.Size,
		First:      e.First,
		Last:       e.Last,
	}
}

func (g *TaskGateway) List(ctx context.Context, query gateway.ListQuery) (*domain.TaskPage, error) {
	values := url.Values{}
	if err := g.encoder.Encode(&query, values); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "encode list query", err)
	}

	var envelope pageEnvelope
	if err := g.client.do(ctx, fasthttp.MethodGet, "/tasks", values, nil, &envelope, "could not load tasks"); err != nil {
		return nil, err
	}
	return envelope.toPage(), nil
}

func (g *TaskGateway) Create(ctx context.Context, req gateway.TaskRequest) (*domain.Task, error) {
	var task domain.Task
	if err := g.client.do(ctx, fasthttp.MethodPost, "/tasks", nil, req, &task, "could not create task"); err != nil {
		return nil, err
	}
	return &task, nil
}

func (g *TaskGateway) Update(ctx context.Context, id int64, req gateway.TaskRequest) (*domain.Task, error) {
	var task domain.Task
	path := fmt.Sprintf("/tasks/%d", id)
	if err := g.client.do(ctx, fasthttp.MethodPut, path, nil, req, &task, "could not update task"); err != nil {
		return nil, err
	}
	return &task, nil
}

func (g *TaskGateway) Remove(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/tasks/%d", id)
	return g.client.do(ctx, fasthttp.MethodDelete, path, nil, nil, nil, "could not delete task")
}

var _ gateway.TaskGateway = (*TaskGateway)(nil)
