// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/fd1az/perpetual-pools/internal/asset"
	"github.com/fd1az/perpetual-pools/internal/config"
	"github.com/fd1az/perpetual-pools/internal/di"
	"github.com/fd1az/perpetual-pools/internal/health"
	"github.com/fd1az/perpetual-pools/internal/logger"
)

// Registry keys for the shared services.
const (
	ServiceConfig        = "config"
	ServiceLogger        = "logger"
	ServiceAssetRegistry = "assetRegistry"
	ServiceHTTPServer    = "httpServer"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	HTTPServer() *health.Server
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Closer is implemented by modules holding resources (db pools, sockets).
type Closer interface {
	Close() error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	assetRegistry *asset.Registry
	httpServer    *health.Server
	container     di.Container
	modules       []Module
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface, version string) *app {
	assetRegistry := asset.DefaultRegistry()
	httpServer := health.NewServer(cfg.Server.Port, version, log)

	container := di.NewContainer()
	container.Register(ServiceConfig, cfg)
	container.Register(ServiceLogger, log)
	container.Register(ServiceAssetRegistry, assetRegistry)
	container.Register(ServiceHTTPServer, httpServer)

	return &app{
		config:        cfg,
		logger:        log,
		assetRegistry: assetRegistry,
		httpServer:    httpServer,
		container:     container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) HTTPServer() *health.Server {
	return a.httpServer
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
		a.modules = append(a.modules, m)
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close releases module resources in reverse registration order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.modules) - 1; i >= 0; i-- {
		if c, ok := a.modules[i].(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
