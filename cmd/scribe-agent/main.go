package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scribehq/scribe/pkg/buffer"
	"github.com/scribehq/scribe/pkg/client"
	"github.com/scribehq/scribe/pkg/config"
	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scribe-agent",
	Short: "Scribe agent - durable client-side event recorder",
	Long: `The agent reads events as JSON lines from stdin, queues them in a
crash-safe local spool, and delivers them to the Scribe server in
batches. Events survive restarts; delivery failures are retried and
only dropped after the retry limit.

Each input line is one event:

  {"type":"code.snapshot","data":{"hash":"abc"}}`,
	Version: Version,
	RunE:    runAgent,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Scribe agent version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.Flags().String("session", "", "Session ID to record into")
	rootCmd.Flags().String("candidate", "", "Start a new session for this candidate")
	rootCmd.Flags().String("assessment", "", "Assessment ID for a new session")
}

// inputEvent is one stdin line. Unset fields get buffer defaults.
type inputEvent struct {
	Type          types.EventType `json:"type"`
	Checkpoint    bool            `json:"checkpoint,omitempty"`
	QuestionIndex *int            `json:"question_index,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
		Output:     os.Stderr, // stdout stays free for piping
	})
	logger := log.WithComponent("agent")

	c := client.NewClient(cfg.ServerURL, cfg.AuthToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		candidateID, _ := cmd.Flags().GetString("candidate")
		if candidateID == "" {
			return fmt.Errorf("either --session or --candidate is required")
		}
		assessmentID, _ := cmd.Flags().GetString("assessment")

		session, err := c.StartSession(ctx, candidateID, assessmentID)
		if err != nil {
			return fmt.Errorf("failed to start session: %v", err)
		}
		sessionID = session.ID
		fmt.Fprintf(os.Stderr, "✓ Session started: %s\n", sessionID)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SpoolPath), 0755); err != nil {
		return fmt.Errorf("failed to create spool directory: %v", err)
	}
	spool, err := buffer.OpenSpool(cfg.SpoolPath)
	if err != nil {
		return fmt.Errorf("failed to open spool: %v", err)
	}
	defer spool.Close()

	buf, err := buffer.New(sessionID, c, spool, buffer.Options{
		FlushThreshold: cfg.FlushThreshold,
		FlushInterval:  cfg.FlushInterval,
		MaxRetries:     cfg.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("failed to create buffer: %v", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return readEvents(ctx, buf, logger)
	})

	err = g.Wait()

	// Final flush regardless of how the read loop ended.
	if derr := buf.Destroy(context.Background()); derr != nil {
		logger.Warn().Err(derr).Int("queued", buf.Len()).Msg("final flush failed, events remain spooled")
	}
	return err
}

// readEvents consumes stdin line by line until EOF or cancellation.
// Malformed lines are skipped with a warning rather than aborting the
// recording.
func readEvents(ctx context.Context, buf *buffer.Buffer, logger zerolog.Logger) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case line, open := <-lines:
			if !open {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if line == "" {
				continue
			}

			var in inputEvent
			if err := json.Unmarshal([]byte(line), &in); err != nil {
				logger.Warn().Err(err).Msg("skipping malformed input line")
				continue
			}
			if in.Type == "" {
				logger.Warn().Msg("skipping event with no type")
				continue
			}

			if err := buf.Add(&types.PendingEvent{
				EventType:     in.Type,
				Origin:        types.OriginUser,
				Checkpoint:    in.Checkpoint,
				QuestionIndex: in.QuestionIndex,
				Data:          in.Data,
			}); err != nil {
				return fmt.Errorf("failed to queue event: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
