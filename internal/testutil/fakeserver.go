package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/infra/pushcodec"
)

// FakeUser is an account known to FakeServer.
type FakeUser struct {
	Email    string
	Password string
	UserID   string
	Role     domain.Role
}

// RecordedRequest is one REST request seen by FakeServer.
type RecordedRequest struct {
	Header http.Header
	Method string
	Path   string
	Query  string
}

// FakeServer is an in-process board backend: the REST API under /api and
// the push channel at /ws.
// Fields are ordered to minimize memory padding.
type FakeServer struct {
	srv      *httptest.Server
	users    map[string]FakeUser // by token
	comments map[string][]domain.Comment
	conns    map[*fakeConn]struct{}
	presence map[*fakeConn]domain.PresenceEntry

	// EditStatus, when non-zero, makes PUT /task/:id fail with this status.
	EditStatus int

	tasks    []domain.Task
	activity []domain.ActivityEntry
	requests []RecordedRequest
	frames   []domain.PushEvent
	mu       sync.Mutex
	nextID   int
}

type fakeConn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *fakeConn) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

var fakeUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewFakeServer starts a FakeServer with the given users. It is closed with the test.
func NewFakeServer(t testing.TB, users ...FakeUser) *FakeServer {
	t.Helper()
	s := &FakeServer{
		users:    make(map[string]FakeUser),
		comments: make(map[string][]domain.Comment),
		conns:    make(map[*fakeConn]struct{}),
		presence: make(map[*fakeConn]domain.PresenceEntry),
		nextID:   1,
	}
	for _, u := range users {
		s.users["token-"+u.UserID] = u
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api := e.Group("/api", s.record)
	api.POST("/auth/login", s.login)
	authed := api.Group("", s.auth)
	authed.GET("/task", s.listTasks)
	authed.POST("/task", s.createTask)
	authed.PUT("/task/:id", s.updateTask)
	authed.DELETE("/task/:id", s.deleteTask)
	authed.GET("/comments/:taskId", s.listComments)
	authed.POST("/comments/:taskId", s.addComment)
	authed.GET("/activity/:projectId", s.listActivity)
	e.GET("/ws", s.handleWS)

	s.srv = httptest.NewServer(e)
	t.Cleanup(s.Close)
	return s
}

// APIURL returns the REST base URL.
func (s *FakeServer) APIURL() string {
	return s.srv.URL + "/api"
}

// WSURL returns the push channel URL.
func (s *FakeServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
}

// Close disconnects all clients and stops the server.
func (s *FakeServer) Close() {
	s.DropClients()
	s.srv.Close()
}

// TokenFor returns the token issued to userID on login.
func (s *FakeServer) TokenFor(userID string) string {
	return "token-" + userID
}

// SeedTasks adds tasks to the backend.
func (s *FakeServer) SeedTasks(tasks ...domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, tasks...)
}

// SeedActivity sets the activity log.
func (s *FakeServer) SeedActivity(entries ...domain.ActivityEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, entries...)
}

// Task returns the backend copy of a task.
func (s *FakeServer) Task(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Task{}, false
}

// Requests returns the REST requests received so far.
func (s *FakeServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Received returns the push events received from clients.
func (s *FakeServer) Received() []domain.PushEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frames)
}

// ClientCount returns the number of open push connections.
func (s *FakeServer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Broadcast sends ev to every connected client.
func (s *FakeServer) Broadcast(ev domain.PushEvent) {
	frame, err := pushcodec.Encode(ev)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	conns := make([]*fakeConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.write(frame)
	}
}

// DropClients closes every push connection.
func (s *FakeServer) DropClients() {
	s.mu.Lock()
	conns := make([]*fakeConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.ws.Close()
	}
}

func (s *FakeServer) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Header: r.Header.Clone(),
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *FakeServer) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		s.mu.Lock()
		u, ok := s.users[token]
		s.mu.Unlock()
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		}
		c.Set("user", u)
		return next(c)
	}
}

func currentUser(c echo.Context) FakeUser {
	u, _ := c.Get("user").(FakeUser)
	return u
}

func (s *FakeServer) login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid body"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, u := range s.users {
		if u.Email == body.Email && u.Password == body.Password {
			return c.JSON(http.StatusOK, domain.Session{Token: token, Role: u.Role, UserID: u.UserID, Email: u.Email})
		}
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
}

func (s *FakeServer) listTasks(c echo.Context) error {
	project := c.QueryParam("project")
	title := strings.ToLower(c.QueryParam("title"))
	tag := c.QueryParam("tag")
	priority := c.QueryParam("priority")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Task{}
	for _, t := range s.tasks {
		if t.ProjectID != project {
			continue
		}
		if title != "" && !strings.Contains(strings.ToLower(t.Title), title) {
			continue
		}
		if tag != "" && !slices.Contains(t.Tags, tag) {
			continue
		}
		if priority != "" && string(t.Priority) != priority {
			continue
		}
		out = append(out, t)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *FakeServer) createTask(c echo.Context) error {
	var draft domain.TaskDraft
	if err := c.Bind(&draft); err != nil || strings.TrimSpace(draft.Title) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Title is required"})
	}
	u := currentUser(c)

	s.mu.Lock()
	t := domain.Task{
		CreatedAt:   time.Now().UTC(),
		ID:          fmt.Sprintf("T%d", s.nextID),
		Title:       draft.Title,
		Description: draft.Description,
		Status:      draft.Status,
		ProjectID:   draft.ProjectID,
		CreatorID:   u.UserID,
		Priority:    draft.Priority,
		Tags:        draft.Tags,
		Deadline:    draft.Deadline,
	}
	if u.Role == domain.RoleAdmin {
		t.AssigneeID = draft.Assignee
	}
	s.nextID++
	s.tasks = append(s.tasks, t)
	s.appendActivityLocked(u, t.ProjectID, "created task "+t.Title)
	s.mu.Unlock()

	s.Broadcast(domain.PushEvent{Kind: domain.PushActivityLogged})
	return c.JSON(http.StatusCreated, t)
}

func (s *FakeServer) updateTask(c echo.Context) error {
	s.mu.Lock()
	failStatus := s.EditStatus
	s.mu.Unlock()
	if failStatus != 0 {
		return c.JSON(failStatus, map[string]string{"message": "Edit rejected"})
	}

	var u domain.TaskUpdate
	if err := c.Bind(&u); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid body"})
	}
	id := c.Param("id")

	s.mu.Lock()
	i := slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Task not found"})
	}
	applyUpdate(&s.tasks[i], u)
	resp := s.tasks[i].Clone()
	resp.Comments = nil
	s.mu.Unlock()

	return c.JSON(http.StatusOK, resp)
}

func (s *FakeServer) deleteTask(c echo.Context) error {
	if currentUser(c).Role != domain.RoleAdmin {
		return c.JSON(http.StatusForbidden, map[string]string{"message": "Only admins can delete tasks"})
	}
	id := c.Param("id")
	s.mu.Lock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t domain.Task) bool { return t.ID == id })
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (s *FakeServer) listComments(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.comments[c.Param("taskId")])
	if out == nil {
		out = []domain.Comment{}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *FakeServer) addComment(c echo.Context) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Text is required"})
	}
	u := currentUser(c)
	taskID := c.Param("taskId")

	s.mu.Lock()
	cm := domain.Comment{
		CreatedAt: time.Now().UTC(),
		Author:    &domain.UserRef{Email: u.Email, Role: u.Role},
		ID:        fmt.Sprintf("C%d", s.nextID),
		TaskID:    taskID,
		Text:      body.Text,
	}
	s.nextID++
	s.comments[taskID] = append(s.comments[taskID], cm)
	project := ""
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			s.tasks[i].Comments = append(s.tasks[i].Comments, cm)
			project = s.tasks[i].ProjectID
		}
	}
	s.appendActivityLocked(u, project, "commented on a task")
	s.mu.Unlock()

	s.Broadcast(domain.PushEvent{Kind: domain.PushCommentAdded, TaskID: taskID, Comment: &cm})
	s.Broadcast(domain.PushEvent{Kind: domain.PushActivityLogged})
	return c.JSON(http.StatusCreated, cm)
}

func (s *FakeServer) listActivity(c echo.Context) error {
	project := c.Param("projectId")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.ActivityEntry{}
	for _, a := range s.activity {
		if a.ProjectID == project {
			out = append(out, a)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *FakeServer) appendActivityLocked(u FakeUser, projectID, action string) {
	s.activity = append(s.activity, domain.ActivityEntry{
		CreatedAt: time.Now().UTC(),
		User:      domain.UserRef{Email: u.Email, Role: u.Role},
		ID:        fmt.Sprintf("A%d", len(s.activity)+1),
		ProjectID: projectID,
		Action:    action,
	})
}

func (s *FakeServer) handleWS(c echo.Context) error {
	ws, err := fakeUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	conn := &fakeConn{ws: ws}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.presence, conn)
		s.mu.Unlock()
		_ = ws.Close()
		s.broadcastPresence()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return nil
		}
		ev, err := pushcodec.Decode(data)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.frames = append(s.frames, ev)
		if ev.Kind == domain.PushUserOnline && len(ev.Presence) == 1 {
			s.presence[conn] = ev.Presence[0]
		}
		s.mu.Unlock()
		if ev.Kind == domain.PushUserOnline {
			s.broadcastPresence()
		}
	}
}

func (s *FakeServer) broadcastPresence() {
	s.mu.Lock()
	users := make([]domain.PresenceEntry, 0, len(s.presence))
	for _, p := range s.presence {
		users = append(users, p)
	}
	s.mu.Unlock()
	slices.SortFunc(users, func(a, b domain.PresenceEntry) int { return strings.Compare(a.UserID, b.UserID) })
	s.Broadcast(domain.PushEvent{Kind: domain.PushOnlineUsers, Presence: users})
}
