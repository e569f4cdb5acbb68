// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/boardsync/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockBoardAPI is a test double for domain.BoardAPI.
// It keeps tasks in memory and is safe for concurrent use.
// Fields are ordered to minimize memory padding.
type MockBoardAPI struct {
	// UpdateGate, when set, makes UpdateTask wait for a receive before answering.
	UpdateGate chan struct{}

	Comments map[string][]domain.Comment
	Session  domain.Session // Returned by Login

	LoginErr        error
	ListErr         error
	CreateErr       error
	UpdateErr       error
	DeleteErr       error
	ListCommentsErr error
	AddCommentErr   error
	ActivityErr     error

	// UpdateResponse, when set, is returned by UpdateTask as a full task
	// instead of the stored task.
	UpdateResponse *domain.Task
	// UpdatePatch, when set, is returned by UpdateTask as is.
	UpdatePatch *domain.TaskPatch

	Tasks    []domain.Task
	Activity []domain.ActivityEntry
	Updates  []domain.TaskUpdate
	Filters  []domain.TaskFilter
	calls    []string
	mu       sync.Mutex
	nextID   int
}

// NewMockBoardAPI creates a MockBoardAPI holding tasks.
func NewMockBoardAPI(tasks ...domain.Task) *MockBoardAPI {
	return &MockBoardAPI{
		Tasks:    tasks,
		Comments: make(map[string][]domain.Comment),
		nextID:   1,
	}
}

func (m *MockBoardAPI) record(call string) {
	m.calls = append(m.calls, call)
}

// Calls returns the names of the methods called so far, in order.
func (m *MockBoardAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many times method was called.
func (m *MockBoardAPI) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Login returns Session or LoginErr.
func (m *MockBoardAPI) Login(_ context.Context, _, _ string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Login")
	if m.LoginErr != nil {
		return domain.Session{}, m.LoginErr
	}
	return m.Session, nil
}

// ListTasks returns the stored tasks of the filter's project.
func (m *MockBoardAPI) ListTasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListTasks")
	m.Filters = append(m.Filters, filter)
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := []domain.Task{}
	for _, t := range m.Tasks {
		if t.ProjectID == filter.ProjectID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// CreateTask stores a task built from the draft with a generated ID.
func (m *MockBoardAPI) CreateTask(_ context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateTask")
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	t := domain.Task{
		ID:          fmt.Sprintf("T%d", m.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		ProjectID:   draft.ProjectID,
		AssigneeID:  draft.Assignee,
		Priority:    draft.Priority,
		Tags:        slices.Clone(draft.Tags),
		Deadline:    draft.Deadline,
	}
	m.nextID++
	m.Tasks = append(m.Tasks, t)
	return &t, nil
}

// UpdateTask applies the update to the stored task and answers with every
// field except the comments.
func (m *MockBoardAPI) UpdateTask(ctx context.Context, id string, update domain.TaskUpdate) (*domain.TaskPatch, error) {
	m.mu.Lock()
	m.record("UpdateTask")
	m.Updates = append(m.Updates, update)
	gate := m.UpdateGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	if m.UpdatePatch != nil {
		p := *m.UpdatePatch
		return &p, nil
	}
	if m.UpdateResponse != nil {
		p := domain.FullPatch(*m.UpdateResponse)
		return &p, nil
	}
	i := slices.IndexFunc(m.Tasks, func(t domain.Task) bool { return t.ID == id })
	if i < 0 {
		return nil, domain.ErrTaskNotFound
	}
	applyUpdate(&m.Tasks[i], update)
	t := m.Tasks[i].Clone()
	t.Comments = nil
	p := domain.FullPatch(t)
	return &p, nil
}

// DeleteTask removes the stored task.
func (m *MockBoardAPI) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteTask")
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Tasks = slices.DeleteFunc(m.Tasks, func(t domain.Task) bool { return t.ID == id })
	return nil
}

// ListComments returns the stored comments of a task.
func (m *MockBoardAPI) ListComments(_ context.Context, taskID string) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListComments")
	if m.ListCommentsErr != nil {
		return nil, m.ListCommentsErr
	}
	return slices.Clone(m.Comments[taskID]), nil
}

// AddComment stores a comment with a generated ID.
func (m *MockBoardAPI) AddComment(_ context.Context, taskID, text string) (*domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddComment")
	if m.AddCommentErr != nil {
		return nil, m.AddCommentErr
	}
	c := domain.Comment{
		ID:     fmt.Sprintf("C%d", m.nextID),
		TaskID: taskID,
		Text:   text,
	}
	m.nextID++
	m.Comments[taskID] = append(m.Comments[taskID], c)
	return &c, nil
}

// ListActivity returns Activity or ActivityErr.
func (m *MockBoardAPI) ListActivity(_ context.Context, _ string) ([]domain.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListActivity")
	if m.ActivityErr != nil {
		return nil, m.ActivityErr
	}
	return slices.Clone(m.Activity), nil
}

func applyUpdate(t *domain.Task, u domain.TaskUpdate) {
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Deadline != nil {
		d := *u.Deadline
		t.Deadline = &d
	}
	if u.Assignee != nil {
		t.AssigneeID = *u.Assignee
	}
	if u.Tags != nil {
		t.Tags = slices.Clone(u.Tags)
	}
}

// MockPushChannel is a test double for domain.PushChannel.
// Run registers the handler and reports a connection; tests then drive the
// handler with Deliver, Drop and Reconnect.
type MockPushChannel struct {
	EmitErr error
	handler domain.PushHandler
	ctx     context.Context
	started chan struct{}
	emitted []domain.PushEvent
	mu      sync.Mutex
	once    sync.Once
	// ManualConnect skips the initial OnConnected call in Run.
	ManualConnect bool
}

// NewMockPushChannel creates a MockPushChannel.
func NewMockPushChannel() *MockPushChannel {
	return &MockPushChannel{started: make(chan struct{})}
}

// Run stores h, calls OnConnected unless ManualConnect is set, and blocks until ctx is done.
func (m *MockPushChannel) Run(ctx context.Context, h domain.PushHandler) error {
	m.mu.Lock()
	m.handler = h
	m.ctx = ctx
	m.mu.Unlock()

	if !m.ManualConnect {
		h.OnConnected(ctx)
	}
	m.once.Do(func() { close(m.started) })
	<-ctx.Done()
	return nil
}

// Started is closed once Run has registered its handler.
func (m *MockPushChannel) Started() <-chan struct{} {
	return m.started
}

// Emit records ev.
func (m *MockPushChannel) Emit(_ context.Context, ev domain.PushEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EmitErr != nil {
		return m.EmitErr
	}
	m.emitted = append(m.emitted, ev)
	return nil
}

// Emitted returns the events emitted so far.
func (m *MockPushChannel) Emitted() []domain.PushEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.emitted)
}

// Deliver passes an inbound event to the handler.
func (m *MockPushChannel) Deliver(ev domain.PushEvent) {
	h, ctx := m.current()
	h.OnEvent(ctx, ev)
}

// Drop reports a lost connection to the handler.
func (m *MockPushChannel) Drop(err error) {
	h, _ := m.current()
	h.OnDisconnected(err)
}

// Reconnect reports a new connection to the handler.
func (m *MockPushChannel) Reconnect() {
	h, ctx := m.current()
	h.OnConnected(ctx)
}

func (m *MockPushChannel) current() (domain.PushHandler, context.Context) {
	<-m.started
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler, m.ctx
}

// MockSessionStore is a test double for domain.SessionStore.
type MockSessionStore struct {
	LoadErr  error
	SaveErr  error
	ClearErr error
	Session  domain.Session
	Saved    bool
	Cleared  bool
}

// Load returns Session or LoadErr.
func (m *MockSessionStore) Load() (domain.Session, error) {
	if m.LoadErr != nil {
		return domain.Session{}, m.LoadErr
	}
	return m.Session, nil
}

// Save stores s.
func (m *MockSessionStore) Save(s domain.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Session = s
	m.Saved = true
	return nil
}

// Clear forgets the stored session.
func (m *MockSessionStore) Clear() error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Session = domain.Session{}
	m.Cleared = true
	return nil
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config *domain.Config
	Err    error
}

// Load returns Config (or the defaults) or Err.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}

// MockLogger records log lines as "LEVEL [category] msg".
type MockLogger struct {
	lines []string
	mu    sync.Mutex
}

func (l *MockLogger) add(level, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("%s [%s] %s", level, category, msg))
}

func (l *MockLogger) Debug(category, msg string) { l.add("DEBUG", category, msg) }
func (l *MockLogger) Info(category, msg string)  { l.add("INFO", category, msg) }
func (l *MockLogger) Warn(category, msg string)  { l.add("WARN", category, msg) }
func (l *MockLogger) Error(category, msg string) { l.add("ERROR", category, msg) }

// Lines returns the recorded lines.
func (l *MockLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

// Ensure mocks implement their interfaces.
var (
	_ domain.Clock        = (*MockClock)(nil)
	_ domain.BoardAPI     = (*MockBoardAPI)(nil)
	_ domain.PushChannel  = (*MockPushChannel)(nil)
	_ domain.SessionStore = (*MockSessionStore)(nil)
	_ domain.ConfigLoader = (*MockConfigLoader)(nil)
	_ domain.Logger       = (*MockLogger)(nil)
)

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitLocalErr     error
	InitGlobalErr    error
	GlobalInfo       domain.ConfigInfo
	LocalInfo        domain.ConfigInfo
	InitLocalCalled  bool
	InitGlobalCalled bool
}

// NewMockConfigManager creates a MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{}
}

// GlobalConfigInfo returns GlobalInfo.
func (m *MockConfigManager) GlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalInfo
}

// LocalConfigInfo returns LocalInfo.
func (m *MockConfigManager) LocalConfigInfo() domain.ConfigInfo {
	return m.LocalInfo
}

// InitLocalConfig records the call. Returns ErrConfigExists when LocalInfo.Exists is set.
func (m *MockConfigManager) InitLocalConfig(_ *domain.Config) error {
	m.InitLocalCalled = true
	if m.InitLocalErr != nil {
		return m.InitLocalErr
	}
	if m.LocalInfo.Exists {
		return domain.ErrConfigExists
	}
	return nil
}

// InitGlobalConfig records the call. Returns ErrConfigExists when GlobalInfo.Exists is set.
func (m *MockConfigManager) InitGlobalConfig(_ *domain.Config) error {
	m.InitGlobalCalled = true
	if m.InitGlobalErr != nil {
		return m.InitGlobalErr
	}
	if m.GlobalInfo.Exists {
		return domain.ErrConfigExists
	}
	return nil
}
