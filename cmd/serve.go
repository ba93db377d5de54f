package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/StevieDC/dd-voice/internal/config"
	"github.com/StevieDC/dd-voice/internal/httpapi"
	"github.com/StevieDC/dd-voice/internal/keyword"
	"github.com/StevieDC/dd-voice/internal/metrics"
	"github.com/StevieDC/dd-voice/internal/schedule"
	"github.com/StevieDC/dd-voice/internal/session"
	"github.com/StevieDC/dd-voice/pkg/log"
)

var (
	serveAddr      string
	serveEngine    string
	serveKeywords  string
	serveAutoStart bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the listening session with the HTTP API and event stream",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "override HTTP_ADDR")
	serveCmd.Flags().StringVar(&serveEngine, "stt", "", "override STT_ENGINE (line, command, push); push when STT_ENGINE is unset")
	serveCmd.Flags().StringVar(&serveKeywords, "keywords-file", "", "override KEYWORDS_FILE")
	serveCmd.Flags().BoolVar(&serveAutoStart, "start", false, "start listening immediately")
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

const shutdownTimeout = 5 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(
		config.WithHTTPAddr(serveAddr),
		config.WithDefaultRecognizerEngine(config.EnginePush),
		config.WithRecognizerEngine(serveEngine),
		config.WithKeywordsFile(serveKeywords),
	)
	if err != nil {
		return err
	}

	m := metrics.New()
	hub := httpapi.NewHub()
	sess, err := newSession(cfg, os.Stdin, session.WithNotifier(hub), session.WithRecorder(m))
	if err != nil {
		return err
	}

	runners := []func(context.Context) error{sess.Run}
	opts := []httpapi.Option{
		httpapi.WithHub(hub),
		httpapi.WithMetrics(m.Handler()),
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIStaticDir != ""),
	}

	schedCfg := schedule.Config{StartExpr: cfg.Schedule.StartExpr, StopExpr: cfg.Schedule.StopExpr}
	if schedCfg.Enabled() {
		sched, err := schedule.New(schedCfg, sess)
		if err != nil {
			return err
		}
		runners = append(runners, sched.Run)
		opts = append(opts, httpapi.WithSchedule(sched))
	}

	if cfg.Keywords.File != "" && cfg.Keywords.Watch {
		watcher, err := keyword.NewWatcher(cfg.Keywords.File)
		if err != nil {
			return err
		}
		runners = append(runners, watchKeywords(watcher, sess))
	}

	if serveAutoStart {
		runners = append(runners, func(ctx context.Context) error {
			if err := sess.Start(ctx); err != nil {
				log.Warn("Could not start listening: %v", err)
			}
			return nil
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("HTTP API listening on %s", cfg.HTTP.Addr)
	return runWithComponents(ctx, cfg.HTTP.Addr, httpapi.NewServer(sess, opts...), runners...)
}

// runWithComponents runs the HTTP server and every runner until ctx is done
// or one of them fails.
func runWithComponents(ctx context.Context, addr string, srv httpServer, runners ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, run := range runners {
		g.Go(func() error {
			return run(ctx)
		})
	}

	g.Go(func() error {
		if err := srv.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type keywordLoader interface {
	LoadKeywords(ctx context.Context, set *keyword.Set) error
}

// watchKeywords pushes each reload of the keyword file into the session. A
// failed reload keeps the previous set.
func watchKeywords(w *keyword.Watcher, loader keywordLoader) func(context.Context) error {
	return func(ctx context.Context) error {
		return w.Run(ctx, func(set *keyword.Set, err error) {
			if err != nil {
				log.Warn("Keeping previous keywords: %v", err)
				return
			}
			if err := loader.LoadKeywords(ctx, set); err != nil {
				log.Warn("Could not apply reloaded keywords: %v", err)
			}
		})
	}
}
