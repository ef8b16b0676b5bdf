package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay SESSION_ID",
	Short: "Fetch a session replay",
	Long: `Fetch the full replay for a session: the ordered event log, the
display timeline, and the aggregate metrics. By default the timeline
and a metrics summary are printed; --json emits the raw payload.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		replay, err := c.Replay(context.Background(), args[0])
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(replay)
		}

		fmt.Printf("Session %s (%s)\n", replay.Session.ID, replay.Session.CandidateID)
		fmt.Printf("Started: %s\n", replay.Session.StartedAt.Format(time.RFC3339))
		if replay.Session.EndedAt != nil {
			fmt.Printf("Ended:   %s\n", replay.Session.EndedAt.Format(time.RFC3339))
		}
		fmt.Println()

		for _, entry := range replay.Timeline {
			marker := " "
			if entry.Checkpoint {
				marker = "*"
			}
			fmt.Printf("%s %6d  %s  %s\n",
				marker, entry.SequenceNumber,
				entry.Timestamp.Format("15:04:05"), entry.Type)
		}

		m := replay.Metrics
		fmt.Println()
		fmt.Printf("Events: %d  Interactions: %d  Snapshots: %d  Test runs: %d\n",
			m.TotalEvents, m.InteractionCount, m.CodeSnapshotCount, m.TestRunCount)
		fmt.Printf("Tokens: %d in / %d out  Pass rate: %.0f%%  Avg quality: %.2f\n",
			m.InputTokens, m.OutputTokens, m.TestPassRate*100, m.AverageQuality)
		return nil
	},
}

func init() {
	replayCmd.Flags().Bool("json", false, "Print the raw replay payload as JSON")
}
