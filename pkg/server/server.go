package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Server is a long running listener with graceful shutdown.
type Server interface {
	Start() error
	Stop() error
}

type Config struct {
	Host        string        `env:"HOST"         envDefault:"localhost"`
	Port        string        `env:"PORT"         envDefault:""`
	CertFile    string        `env:"SERVER_CERT"  envDefault:""`
	KeyFile     string        `env:"SERVER_KEY"   envDefault:""`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	StopTimeout time.Duration `env:"STOP_TIMEOUT" envDefault:"5s"`
}

type BaseServer struct {
	Ctx      context.Context
	Cancel   context.CancelFunc
	Name     string
	Address  string
	Config   Config
	Logger   *slog.Logger
	Protocol string
}

func NewBaseServer(ctx context.Context, cancel context.CancelFunc, name string, config Config, logger *slog.Logger) BaseServer {
	return BaseServer{
		Ctx:     ctx,
		Cancel:  cancel,
		Name:    name,
		Address: fmt.Sprintf("%s:%s", config.Host, config.Port),
		Config:  config,
		Logger:  logger,
	}
}

// StopSignalHandler stops every server on SIGINT or SIGTERM and returns
// nil once the context is cancelled without a signal.
func StopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, svcName string, servers ...Server) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		defer cancel()
		var err error
		for _, s := range servers {
			if serr := s.Stop(); serr != nil {
				err = serr
			}
		}
		if err != nil {
			return fmt.Errorf("%s service error during shutdown: %w", svcName, err)
		}
		logger.Info(fmt.Sprintf("%s service shutdown by signal: %s", svcName, sig))

		return nil
	case <-ctx.Done():
		return nil
	}
}
