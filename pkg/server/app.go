package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EVDemand/internal/scheduler"
	xhttp "EVDemand/pkg/http"
	pkgkafka "EVDemand/pkg/kafka"
	applogger "EVDemand/pkg/logger"
)

// Closer is a named resource released at shutdown, in registration order.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	l          *applogger.Logger
	httpServer *xhttp.Server
	scheduler  *scheduler.Scheduler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	closers    []Closer
	stop       chan os.Signal
}

// New creates a new App instance. consumer, kh and sched may be nil.
func New(
	l *applogger.Logger,
	httpServer *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	closers ...Closer,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		l:          l,
		httpServer: httpServer,
		scheduler:  sched,
		consumer:   consumer,
		kh:         kh,
		closers:    closers,
		stop:       make(chan os.Signal, 1),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			a.l.Error("scheduler start error", applogger.Error(err))
			return err
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer error", applogger.Error(err))
			a.shutdown()
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		a.shutdown()
		return err
	}

	signal.Notify(a.stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(a.stop)
	sig := <-a.stop

	a.l.Info("shutdown signal received", applogger.String("signal", sig.String()))
	a.shutdown()
	return nil
}

// Stop triggers the same shutdown path as SIGTERM.
func (a *App) Stop() {
	select {
	case a.stop <- syscall.SIGTERM:
	default:
	}
}

// shutdown stops intake first, then background jobs, then releases clients.
func (a *App) shutdown() {
	a.l.Info("shutting down...")
	timeout := 15 * time.Second
	if a.httpServer != nil {
		timeout = a.httpServer.ShutdownTimeout()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
}
