package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"tasktracker/internal/service"
)

const (
	// fetchPageSize is the page size used when collecting every task.
	fetchPageSize = 100

	// fetchConcurrency bounds parallel page requests in ListAllTasks.
	fetchConcurrency = 4
)

func (c *Client) userID() (string, error) {
	st := c.session.State()
	if !st.IsAuthenticated || st.User == nil {
		return "", service.ErrNotAuthenticated
	}
	return strconv.FormatInt(st.User.ID, 10), nil
}

func taskPath(id int64) string {
	return "tasks/" + strconv.FormatInt(id, 10)
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, page, size int) (service.TaskPage, error) {
	uid, err := c.userID()
	if err != nil {
		return service.TaskPage{}, err
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var out service.TaskPage
	err = c.do(ctx, call{method: http.MethodGet, path: "tasks/user/" + uid, query: q}, &out)
	return out, err
}

// ListAllTasks implements service.Service. The first page reports how many
// pages exist; the rest are fetched concurrently and assembled in order.
func (c *Client) ListAllTasks(ctx context.Context) ([]service.Task, error) {
	first, err := c.ListTasks(ctx, 0, fetchPageSize)
	if err != nil {
		return nil, err
	}
	if first.TotalPages <= 1 {
		return first.Content, nil
	}

	pages := make([][]service.Task, first.TotalPages)
	pages[0] = first.Content

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for p := 1; p < first.TotalPages; p++ {
		g.Go(func() error {
			pg, err := c.ListTasks(gctx, p, fetchPageSize)
			if err != nil {
				return err
			}
			pages[p] = pg.Content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]service.Task, 0, first.TotalElements)
	for _, pg := range pages {
		all = append(all, pg...)
	}
	return all, nil
}

// GetTask implements service.Service.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	var out service.Task
	err := c.do(ctx, call{method: http.MethodGet, path: taskPath(id)}, &out)
	return out, err
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	uid, err := c.userID()
	if err != nil {
		return service.Task{}, err
	}
	var out service.Task
	err = c.do(ctx, call{method: http.MethodPost, path: "tasks/" + uid, body: in.Normalize()}, &out)
	return out, err
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id int64, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	var out service.Task
	err := c.do(ctx, call{method: http.MethodPut, path: taskPath(id), body: in.Normalize()}, &out)
	return out, err
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: taskPath(id)}, nil)
}
