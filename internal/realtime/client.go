// Package realtime keeps a board in sync with the push channel.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
	"github.com/runoshun/boardsync/internal/usecase"
)

const (
	logCategory      = "push"
	presenceCategory = "presence"
)

// UseCases are the board operations triggered by push traffic.
type UseCases struct {
	LoadTasks       *usecase.LoadTasks
	RefreshActivity *usecase.RefreshActivity
	AppendComment   *usecase.AppendComment
}

// Client is the board's push handler.
//
// It announces the session's presence once the channel is ready, routes
// inbound events into the stores, and on every reconnect announces again and
// reloads tasks and activity instead of relying on missed deliveries.
// Presence and editing state are kept across a drop.
// Fields are ordered to minimize memory padding.
type Client struct {
	push      domain.PushChannel
	board     usecase.Board
	session   domain.SessionProvider
	log       domain.Logger
	uc        UseCases
	ready     chan struct{}
	filter    atomic.Pointer[domain.TaskFilter]
	wg        sync.WaitGroup
	readyOnce sync.Once
	connects  atomic.Int64
	connected atomic.Bool
}

// New creates a Client. Call Run to connect.
func New(push domain.PushChannel, board usecase.Board, session domain.SessionProvider, uc UseCases, log domain.Logger) *Client {
	c := &Client{
		push:    push,
		board:   board,
		session: session,
		log:     log,
		uc:      uc,
		ready:   make(chan struct{}),
	}
	c.filter.Store(&domain.TaskFilter{})
	return c
}

var _ domain.PushHandler = (*Client)(nil)

// SetFilter sets the project (and filters) that reconnects reload.
func (c *Client) SetFilter(f domain.TaskFilter) {
	c.filter.Store(&f)
}

// Filter returns the active filter.
func (c *Client) Filter() domain.TaskFilter {
	return *c.filter.Load()
}

// Ready is closed after the first successful connect.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Connected reports whether the channel is currently connected.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects the push channel and blocks until ctx is done.
// Background refetches started by events are waited for before returning.
func (c *Client) Run(ctx context.Context) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-c.ready:
			c.announce(ctx)
		case <-ctx.Done():
		}
	}()

	err := c.push.Run(ctx, c)
	c.wg.Wait()
	return err
}

// OnConnected implements domain.PushHandler.
func (c *Client) OnConnected(ctx context.Context) {
	c.connected.Store(true)
	n := c.connects.Add(1)
	if n == 1 {
		c.readyOnce.Do(func() { close(c.ready) })
		return
	}

	c.log.Info(logCategory, fmt.Sprintf("reconnected (#%d), resyncing", n-1))
	c.spawn(func() {
		c.announce(ctx)
		c.resync(ctx)
	})
}

// OnDisconnected implements domain.PushHandler.
func (c *Client) OnDisconnected(err error) {
	c.connected.Store(false)
	c.log.Warn(logCategory, fmt.Sprintf("disconnected: %v", err))
}

// OnEvent implements domain.PushHandler.
func (c *Client) OnEvent(ctx context.Context, ev domain.PushEvent) {
	switch ev.Kind {
	case domain.PushOnlineUsers:
		c.replacePresence(ctx, ev.Presence)
	case domain.PushCommentAdded:
		c.appendComment(ctx, ev)
	case domain.PushActivityLogged:
		c.spawn(func() { c.refreshActivity(ctx) })
	case domain.PushEditingStarted:
		c.mutate(ctx, func(s *engine.Stores) { s.Editing.Start(ev.TaskID, ev.UserID) })
	case domain.PushEditingFinished:
		c.mutate(ctx, func(s *engine.Stores) { s.Editing.Stop(ev.TaskID) })
	default:
		c.log.Debug(logCategory, "ignored "+string(ev.Kind))
	}
}

// announce emits the session's presence if it is known and valid.
func (c *Client) announce(ctx context.Context) {
	p := c.session.Current().Presence()
	if !p.Valid() {
		c.log.Debug(presenceCategory, "identity unknown, not announcing")
		return
	}
	err := c.push.Emit(ctx, domain.PushEvent{
		Kind:     domain.PushUserOnline,
		Presence: []domain.PresenceEntry{p},
	})
	if err != nil {
		c.log.Warn(presenceCategory, fmt.Sprintf("announce: %v", err))
		return
	}
	c.log.Debug(presenceCategory, "announced "+p.Email)
}

func (c *Client) resync(ctx context.Context) {
	f := c.Filter()
	if f.ProjectID == "" {
		return
	}
	if _, err := c.uc.LoadTasks.Execute(ctx, usecase.LoadTasksInput{Filter: f}); err != nil {
		c.log.Warn(logCategory, fmt.Sprintf("reload after reconnect: %v", err))
	}
	c.refreshActivity(ctx)
}

// refreshActivity refetches the project's activity log. Only admins may read
// the log, so for other sessions the event is ignored and no request is sent.
func (c *Client) refreshActivity(ctx context.Context) {
	projectID := c.Filter().ProjectID
	if projectID == "" || !domain.CanViewActivity(c.session.Current()) {
		return
	}
	if _, err := c.uc.RefreshActivity.Execute(ctx, usecase.RefreshActivityInput{ProjectID: projectID}); err != nil {
		c.log.Warn("activity", fmt.Sprintf("refetch: %v", err))
	}
}

func (c *Client) replacePresence(ctx context.Context, entries []domain.PresenceEntry) {
	var kept int
	c.mutate(ctx, func(s *engine.Stores) { kept = s.Presence.Replace(entries) })
	if dropped := len(entries) - kept; dropped > 0 {
		c.log.Debug(presenceCategory, fmt.Sprintf("dropped %d invalid presence entries", dropped))
	}
}

func (c *Client) appendComment(ctx context.Context, ev domain.PushEvent) {
	if ev.Comment == nil {
		return
	}
	taskID := ev.TaskID
	if taskID == "" {
		taskID = ev.Comment.TaskID
	}
	out, err := c.uc.AppendComment.Execute(ctx, usecase.AppendCommentInput{TaskID: taskID, Comment: *ev.Comment})
	if err != nil {
		c.log.Warn(logCategory, fmt.Sprintf("append comment: %v", err))
		return
	}
	if !out.Appended {
		c.log.Debug(logCategory, fmt.Sprintf("comment %q on %s not applied", ev.Comment.ID, taskID))
	}
}

func (c *Client) mutate(ctx context.Context, fn func(*engine.Stores)) {
	if err := c.board.Mutate(ctx, fn); err != nil {
		c.log.Warn(logCategory, fmt.Sprintf("apply event: %v", err))
	}
}

func (c *Client) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}
