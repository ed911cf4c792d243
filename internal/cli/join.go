package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/spf13/cobra"

	"github.com/beka-birhanu/vinom-relay-server/client"
	"github.com/beka-birhanu/vinom-relay-server/config"
)

const connectTimeout = 3 * time.Second

func newJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join the relay as a player",
		Long: `join connects under --name, prints every record the server sends, and
relays each JSON line read from stdin as an Action. Disconnect is sent on EOF
or interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Name == "" {
				return errors.New("--name is required (env: RELAY_NAME)")
			}
			l, err := logger.New("CLIENT", config.ColorBlue, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c, err := client.Dial(client.Config{ServerAddr: cfg.ServerAddr, Name: cfg.Name, Logger: l})
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJoin(ctx, c, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Relay UDP address (env: RELAY_SERVER)")
	cmd.Flags().StringVar(&cfg.Name, "name", cfg.Name, "Player name (env: RELAY_NAME)")
	return cmd
}

// lockedWriter serializes writes from the receive and input loops.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runJoin(ctx context.Context, c *client.Client, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	session, err := c.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	fmt.Fprintf(out, "connected as %d with %d life at level %d (canconnect=%t)\n",
		session.ID, session.Life, session.Level, session.CanConnect)
	defer func() { _ = c.Disconnect() }()

	go func() {
		for rec := range c.Messages() {
			b, _ := json.Marshal(rec)
			fmt.Fprintln(out, string(b))
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			if !json.Valid([]byte(line)) {
				fmt.Fprintf(out, "skipping invalid JSON: %s\n", line)
				continue
			}
			if err := c.SendAction(json.RawMessage(line)); err != nil {
				return err
			}
		}
	}
}
