package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftsync/internal/config"
	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/editorstate"
	"github.com/draftsync/internal/handler"
	"github.com/draftsync/internal/jobs"
	"github.com/draftsync/internal/logging"
	"github.com/draftsync/internal/queue"
	"github.com/draftsync/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the sync worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Load())
		},
	}

	return command
}

func openQueue(cfg config.AppConfig) (queue.SyncQueue, func(), error) {
	if cfg.RedisURL == "" {
		logrus.Warn("REDIS_URL not set, using in-process sync queue")
		return queue.NewMemoryQueue(), func() {}, nil
	}

	q, err := queue.NewRedisSyncQueue(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return q, func() {
		if err := q.Close(); err != nil {
			logrus.Errorf("error closing redis: %v", err)
		}
	}, nil
}

func serve(cfg config.AppConfig) error {
	logFile := logging.SetupFile(cfg.LogFile, cfg.LogLevel, cfg.LogFormat)
	defer logFile.Close()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Init(cfg.DatabasePath, db.Options{Silent: cfg.GinMode == gin.ReleaseMode})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword, db.RoleAdministrator); err != nil {
		return fmt.Errorf("failed to ensure super root user: %w", err)
	}

	q, closeQueue, err := openQueue(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect sync queue: %w", err)
	}
	defer closeQueue()

	api := handler.NewAPI(gdb, handler.Options{
		Queue:  q,
		Policy: editorstate.NewPolicy(cfg.SyncPublishing),
	})

	worker := jobs.NewSyncWorker(q, api.Sync(), cfg.SyncPollTimeout)
	go worker.Run(context.Background())
	defer worker.Stop()

	executor := jobs.NewTaskExecutor(jobs.NewSweepTask(cfg.SyncSweepInterval, api.Posts(), q))
	if err := executor.Start(); err != nil {
		return err
	}
	defer executor.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, cfg.SessionSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-sigs:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}
	return nil
}
