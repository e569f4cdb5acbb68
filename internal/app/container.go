// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/engine"
	"github.com/runoshun/boardsync/internal/infra/config"
	"github.com/runoshun/boardsync/internal/infra/logging"
	"github.com/runoshun/boardsync/internal/infra/pushredis"
	"github.com/runoshun/boardsync/internal/infra/pushws"
	"github.com/runoshun/boardsync/internal/infra/restapi"
	"github.com/runoshun/boardsync/internal/infra/sessionfile"
	"github.com/runoshun/boardsync/internal/realtime"
	"github.com/runoshun/boardsync/internal/store"
	"github.com/runoshun/boardsync/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	WorkDir  string // Directory the command runs in (local config and .env)
	StateDir string // Global config directory, also holding logs and the session file
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	API           domain.BoardAPI
	Push          domain.PushChannel
	Sessions      domain.SessionStore
	Clock         domain.Clock
	Logger        domain.Logger
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager

	// Pointer fields
	Session   *store.SessionContext
	Board     *engine.Loop
	AppConfig *domain.Config

	closers   []io.Closer
	startOnce sync.Once

	// Configuration
	Config Config
}

// New creates a Container for the given working directory.
func New(workDir string) (*Container, error) {
	loader := config.NewLoader(workDir)
	appConfig, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := Config{
		WorkDir:  workDir,
		StateDir: loader.GlobalDir(),
	}

	logger := logging.New(cfg.StateDir, logging.ParseLevel(appConfig.Log.Level))
	for _, w := range appConfig.Warnings {
		logger.Warn("config", w)
	}

	sessions := sessionfile.New(appConfig.Session.Path)
	session, err := sessions.Load()
	if err != nil {
		logger.Warn("session", fmt.Sprintf("load session: %v", err))
		session = domain.Session{}
	}
	sessionCtx := store.NewSessionContext(session)
	clock := domain.RealClock{}

	c := &Container{
		API:           restapi.New(appConfig.API, sessionCtx, clock, logger),
		Sessions:      sessions,
		Clock:         clock,
		Logger:        logger,
		ConfigLoader:  loader,
		ConfigManager: config.NewManager(workDir),
		Session:       sessionCtx,
		Board:         engine.New(engine.NewStores(appConfig.Board.DedupeComments)),
		AppConfig:     appConfig,
		closers:       []io.Closer{logger},
		Config:        cfg,
	}
	c.Push = c.newPushChannel(appConfig.Push)
	return c, nil
}

// newPushChannel selects the push transport configured in [push].
func (c *Container) newPushChannel(cfg domain.PushConfig) domain.PushChannel {
	if cfg.Transport == domain.PushTransportRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		c.closers = append(c.closers, rdb)
		return pushredis.New(rdb, cfg.ChannelPrefix, c.Logger)
	}
	return pushws.New(cfg.URL, c.Session, c.Logger)
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, appConfig *domain.Config, api domain.BoardAPI, push domain.PushChannel, sessions domain.SessionStore, clock domain.Clock, logger domain.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	session, err := sessions.Load()
	if err != nil {
		session = domain.Session{}
	}
	return &Container{
		API:       api,
		Push:      push,
		Sessions:  sessions,
		Clock:     clock,
		Logger:    logger,
		Session:   store.NewSessionContext(session),
		Board:     engine.New(engine.NewStores(appConfig.Board.DedupeComments)),
		AppConfig: appConfig,
		Config:    cfg,
	}
}

// Start runs the board loop until ctx is done. Calls after the first are no-ops.
func (c *Container) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		go func() {
			if err := c.Board.Run(ctx); err != nil {
				c.Logger.Error("app", fmt.Sprintf("board loop: %v", err))
			}
		}()
	})
}

// Close releases the log file and transport connections.
func (c *Container) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// RealtimeClient returns a push handler that keeps the board in sync for filter.
func (c *Container) RealtimeClient(filter domain.TaskFilter) *realtime.Client {
	rc := realtime.New(c.Push, c.Board, c.Session, realtime.UseCases{
		LoadTasks:       c.LoadTasksUseCase(),
		RefreshActivity: c.RefreshActivityUseCase(),
		AppendComment:   c.AppendCommentUseCase(),
	}, c.Logger)
	rc.SetFilter(filter)
	return rc
}

// UseCase factory methods

// LoadTasksUseCase returns a new LoadTasks use case.
func (c *Container) LoadTasksUseCase() *usecase.LoadTasks {
	return usecase.NewLoadTasks(c.API, c.Board, c.Logger)
}

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.API, c.Board, c.Session, c.Logger)
}

// EditTaskUseCase returns a new EditTask use case.
func (c *Container) EditTaskUseCase() *usecase.EditTask {
	return usecase.NewEditTask(c.API, c.Board, c.Logger)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.API, c.Board, c.Logger)
}

// DropTaskUseCase returns a new DropTask use case honoring board.revert_failed_moves.
func (c *Container) DropTaskUseCase() *usecase.DropTask {
	return usecase.NewDropTask(c.API, c.Board, c.Logger, c.AppConfig.Board.RevertFailedMoves)
}

// DragController returns a new drag gesture controller.
func (c *Container) DragController() *usecase.DragController {
	return usecase.NewDragController(c.DropTaskUseCase())
}

// SubmitCommentUseCase returns a new SubmitComment use case.
func (c *Container) SubmitCommentUseCase() *usecase.SubmitComment {
	return usecase.NewSubmitComment(c.API, c.Board, c.Logger)
}

// AppendCommentUseCase returns a new AppendComment use case.
func (c *Container) AppendCommentUseCase() *usecase.AppendComment {
	return usecase.NewAppendComment(c.Board)
}

// LoadCommentsUseCase returns a new LoadComments use case.
func (c *Container) LoadCommentsUseCase() *usecase.LoadComments {
	return usecase.NewLoadComments(c.API, c.Board, c.Logger)
}

// RefreshActivityUseCase returns a new RefreshActivity use case.
func (c *Container) RefreshActivityUseCase() *usecase.RefreshActivity {
	return usecase.NewRefreshActivity(c.API, c.Board, c.Logger)
}

// LoginUseCase returns a new Login use case.
func (c *Container) LoginUseCase() *usecase.Login {
	return usecase.NewLogin(c.API, c.Sessions, c.Session, c.Logger)
}

// LogoutUseCase returns a new Logout use case.
func (c *Container) LogoutUseCase() *usecase.Logout {
	return usecase.NewLogout(c.Sessions, c.Session, c.Logger)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
