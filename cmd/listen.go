package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/StevieDC/dd-voice/internal/config"
	"github.com/StevieDC/dd-voice/internal/session"
	"github.com/StevieDC/dd-voice/pkg/log"
)

var (
	listenKeywords string
	listenEngine   string
	listenQuiet    bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Spot keywords in transcript lines read from stdin or a recognizer command",
	Long: "Reads one transcript per line (plain text or recognizer JSON) and announces keyword matches. " +
		"Detections are printed to stdout. Exits when the input ends.",
	Example: "  echo 'a drag on appears' | dd-voice listen --keywords 'dragon|goblin' --quiet",
	RunE:    runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenKeywords, "keywords", "", "inline keywords separated by |")
	listenCmd.Flags().StringVar(&listenEngine, "stt", "", "override STT_ENGINE (line or command)")
	listenCmd.Flags().BoolVar(&listenQuiet, "quiet", false, "log announcements instead of speaking them")
}

func runListen(cmd *cobra.Command, _ []string) error {
	opts := []config.Option{config.WithRecognizerEngine(listenEngine)}
	if listenKeywords != "" {
		opts = append(opts, func(c *config.Config) {
			c.Keywords.File = ""
			c.Keywords.Inline = listenKeywords
		})
	}
	if listenQuiet {
		opts = append(opts, func(c *config.Config) { c.Speaker.Engine = config.EngineLog })
	}
	cfg, err := loadConfig(opts...)
	if err != nil {
		return err
	}
	if cfg.Recognizer.Engine == config.EnginePush {
		return fmt.Errorf("the push recognizer needs the HTTP API; use serve")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return listen(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
}

func listen(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	console := newConsoleNotifier(out)
	sess, err := newSession(cfg, in, session.WithNotifier(console))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	if err := sess.Start(ctx); err != nil {
		cancel()
		<-done
		return err
	}

	select {
	case <-console.idle:
	case <-ctx.Done():
	}
	cancel()
	return <-done
}

// consoleNotifier prints detections and reports when the session falls back
// to idle after having listened, which happens once the input is exhausted.
type consoleNotifier struct {
	out      io.Writer
	idle     chan struct{}
	listened bool
	closed   bool
}

func newConsoleNotifier(out io.Writer) *consoleNotifier {
	return &consoleNotifier{out: out, idle: make(chan struct{})}
}

func (c *consoleNotifier) Notify(n session.Notification) {
	switch n.Type {
	case session.NotifyDetected:
		if d := n.Detection; d != nil {
			fmt.Fprintf(c.out, "%s\theard=%q\tdistance=%d\n", d.Keyword, d.Heard, d.Distance)
		}
	case session.NotifyTranscript:
		log.Debug("Transcript: %s", n.Text)
	case session.NotifyError:
		log.Debug("Session error: %s", n.Text)
	case session.NotifyState:
		switch n.State {
		case session.StateListening:
			c.listened = true
		case session.StateIdle:
			if c.listened && !c.closed {
				c.closed = true
				close(c.idle)
			}
		}
	}
}
