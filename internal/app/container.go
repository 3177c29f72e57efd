// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/runoshun/kanban-sync/internal/domain"
	"github.com/runoshun/kanban-sync/internal/infra/config"
	"github.com/runoshun/kanban-sync/internal/infra/gitstore"
	"github.com/runoshun/kanban-sync/internal/infra/jsonstore"
	"github.com/runoshun/kanban-sync/internal/infra/logging"
	"github.com/runoshun/kanban-sync/internal/infra/redisbus"
	"github.com/runoshun/kanban-sync/internal/infra/sqlitestore"
	"github.com/runoshun/kanban-sync/internal/infra/wsclient"
	"github.com/runoshun/kanban-sync/internal/server"
	"github.com/runoshun/kanban-sync/internal/usecase"
)

// Config holds the resolved paths of one board.
type Config struct {
	WorkDir   string // Directory the board belongs to
	BoardDir  string // Path to the .kanban directory
	GlobalDir string // Global config directory ("" if unknown)
	StorePath string // Resolved store file or repository path
}

// newConfig resolves board paths for a working directory.
func newConfig(dir, globalDir string) (Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve %s: %w", dir, err)
	}
	return Config{
		WorkDir:   abs,
		BoardDir:  domain.BoardDir(abs),
		GlobalDir: globalDir,
	}, nil
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Issues           domain.IssueRepository
	StoreInitializer domain.StoreInitializer
	Clock            domain.Clock
	ConfigLoader     domain.ConfigLoader
	ConfigManager    domain.ConfigManager
	Notifier         domain.ChangeNotifier // nil until ConnectBus succeeds

	// Pointer fields
	Logger    *slog.Logger
	AppConfig *domain.Config
	bus       *redisbus.Bus
	gitStore  *gitstore.Store
	closeFns  []func() error

	// Configuration
	Config Config
}

// New creates a new Container for the board in dir.
func New(dir string) (*Container, error) {
	return NewWithGlobalDir(dir, config.DefaultGlobalConfigDir())
}

// NewWithGlobalDir creates a new Container reading global config from globalDir.
func NewWithGlobalDir(dir, globalDir string) (*Container, error) {
	cfg, err := newConfig(dir, globalDir)
	if err != nil {
		return nil, err
	}

	configLoader := config.NewLoaderWithGlobalDir(cfg.BoardDir, globalDir)
	appConfig, err := configLoader.Load()
	if err != nil {
		// Keep going on defaults so 'kanban config' can still run.
		appConfig = domain.NewDefaultConfig()
		appConfig.Warnings = append(appConfig.Warnings, fmt.Sprintf("config: %v", err))
	}
	cfg.StorePath = appConfig.StorePath(cfg.BoardDir)

	logger := logging.NewText(os.Stderr, logging.ParseLevel(appConfig.Log.Level))

	c := &Container{
		Clock:         domain.RealClock{},
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManagerWithGlobalDir(cfg.BoardDir, globalDir),
		Logger:        logger,
		AppConfig:     appConfig,
		Config:        cfg,
	}
	if err := c.openStore(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, appConfig *domain.Config, store domain.Store, clock domain.Clock, logger *slog.Logger) *Container {
	if appConfig == nil {
		appConfig = domain.NewDefaultConfig()
	}
	return &Container{
		Issues:           store,
		StoreInitializer: store,
		Clock:            clock,
		Logger:           logger,
		AppConfig:        appConfig,
		Config:           cfg,
	}
}

// openStore binds the repository selected by [store] type.
func (c *Container) openStore() error {
	var store domain.Store
	switch c.AppConfig.Store.Type {
	case domain.StoreJSON, "":
		store = jsonstore.New(c.Config.StorePath)
	case domain.StoreGit:
		gs, err := gitstore.New(c.Config.StorePath, c.AppConfig.Store.Namespace, c.AppConfig.Store.EncryptionKey)
		if err != nil {
			return fmt.Errorf("open git store: %w", err)
		}
		c.gitStore = gs
		store = gs
	case domain.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(c.Config.StorePath), 0o750); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
		ss, err := sqlitestore.Open(c.Config.StorePath)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		c.closeFns = append(c.closeFns, ss.Close)
		store = ss
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownStore, c.AppConfig.Store.Type)
	}
	c.Issues = store
	c.StoreInitializer = store
	return nil
}

// GitStore returns the git-backed store when it is the configured backend.
func (c *Container) GitStore() (*gitstore.Store, bool) {
	return c.gitStore, c.gitStore != nil
}

// ConnectBus dials the configured Redis and uses it as the change notifier.
// It returns (nil, nil) when no Redis is configured.
func (c *Container) ConnectBus(ctx context.Context) (*redisbus.Bus, error) {
	if c.bus != nil {
		return c.bus, nil
	}
	addr := c.AppConfig.Server.RedisAddr
	if addr == "" {
		return nil, nil
	}
	bus, err := redisbus.Dial(ctx, addr, c.AppConfig.Server.RedisChannel, c.DomainLogger())
	if err != nil {
		return nil, err
	}
	c.bus = bus
	c.Notifier = bus
	c.closeFns = append(c.closeFns, bus.Close)
	return bus, nil
}

// Close releases store and bus connections.
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closeFns) - 1; i >= 0; i-- {
		if err := c.closeFns[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closeFns = nil
	return firstErr
}

// DomainLogger adapts the container's slog logger to domain.Logger.
func (c *Container) DomainLogger() domain.Logger {
	if c.Logger == nil {
		return domain.NopLogger{}
	}
	return logging.NewSlogLogger(c.Logger)
}

// ClientLogger returns the file logger used while the TUI owns the terminal.
func (c *Container) ClientLogger() *logging.Logger {
	return logging.New(c.Config.BoardDir, logging.ParseLevel(c.AppConfig.Log.Level))
}

// NewServer returns a board server over the configured store.
func (c *Container) NewServer(opts server.Options) *server.Server {
	return server.New(c.Issues, c.Clock, c.Notifier, c.DomainLogger(), opts)
}

// NewBoardClient returns a websocket client for url ("" = configured URL).
func (c *Container) NewBoardClient(url string, logger domain.Logger) *wsclient.Client {
	if url == "" {
		url = c.AppConfig.Server.URL
	}
	return wsclient.New(wsclient.Options{
		URL:          url,
		Logger:       logger,
		ReconnectMin: c.AppConfig.Client.ReconnectMin,
		ReconnectMax: c.AppConfig.Client.ReconnectMax,
	})
}

// UseCase factory methods

// InitBoardUseCase returns a new InitBoard use case.
func (c *Container) InitBoardUseCase() *usecase.InitBoard {
	return usecase.NewInitBoard(c.StoreInitializer)
}

// NewIssueUseCase returns a new NewIssue use case.
func (c *Container) NewIssueUseCase() *usecase.NewIssue {
	return usecase.NewNewIssue(c.Issues, c.Clock, c.Notifier, c.DomainLogger())
}

// ListIssuesUseCase returns a new ListIssues use case.
func (c *Container) ListIssuesUseCase() *usecase.ListIssues {
	return usecase.NewListIssues(c.Issues)
}

// UpdateIssueFieldUseCase returns a new UpdateIssueField use case.
func (c *Container) UpdateIssueFieldUseCase() *usecase.UpdateIssueField {
	return usecase.NewUpdateIssueField(c.Issues, c.Clock, c.Notifier, c.DomainLogger())
}

// DeleteIssueUseCase returns a new DeleteIssue use case.
func (c *Container) DeleteIssueUseCase() *usecase.DeleteIssue {
	return usecase.NewDeleteIssue(c.Issues, c.Notifier, c.DomainLogger())
}

// ListStatusesUseCase returns a new ListStatuses use case.
func (c *Container) ListStatusesUseCase() *usecase.ListStatuses {
	return usecase.NewListStatuses(c.Issues)
}

// CreateStatusUseCase returns a new CreateStatus use case.
func (c *Container) CreateStatusUseCase() *usecase.CreateStatus {
	return usecase.NewCreateStatus(c.Issues, c.Notifier, c.DomainLogger())
}

// UpdateStatusUseCase returns a new UpdateStatus use case.
func (c *Container) UpdateStatusUseCase() *usecase.UpdateStatus {
	return usecase.NewUpdateStatus(c.Issues, c.Notifier, c.DomainLogger())
}

// DeleteStatusUseCase returns a new DeleteStatus use case.
func (c *Container) DeleteStatusUseCase() *usecase.DeleteStatus {
	return usecase.NewDeleteStatus(c.Issues, c.Notifier, c.DomainLogger())
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.AppConfig)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigTemplateUseCase returns a new ShowConfigTemplate use case.
func (c *Container) ShowConfigTemplateUseCase() *usecase.ShowConfigTemplate {
	return usecase.NewShowConfigTemplate()
}
