package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribehq/scribe/pkg/api"
	"github.com/scribehq/scribe/pkg/client"
	"github.com/scribehq/scribe/pkg/config"
	"github.com/scribehq/scribe/pkg/types"
)

// newClient builds an API client from the persistent flags, falling
// back to the SCRIBE_* environment for anything unset.
func newClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}

	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = cfg.ServerURL
	}
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = cfg.AuthToken
	}
	return client.NewClient(server, token), nil
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage recording sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new recording session",
	RunE: func(cmd *cobra.Command, args []string) error {
		candidateID, _ := cmd.Flags().GetString("candidate")
		assessmentID, _ := cmd.Flags().GetString("assessment")

		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		session, err := c.StartSession(context.Background(), candidateID, assessmentID)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Session started\n")
		fmt.Printf("  ID: %s\n", session.ID)
		fmt.Printf("  Candidate: %s\n", session.CandidateID)
		if session.AssessmentID != "" {
			fmt.Printf("  Assessment: %s\n", session.AssessmentID)
		}
		return nil
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end SESSION_ID",
	Short: "End a recording session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		session, err := c.EndSession(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✓ Session ended\n")
		fmt.Printf("  Duration: %s\n", session.Duration(time.Now()).Round(time.Second))
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		sessions, err := c.ListSessions(context.Background())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-8s  %s\n", "ID", "CANDIDATE", "STATUS", "STARTED")
		for _, s := range sessions {
			status := "active"
			if s.Ended() {
				status = "ended"
			}
			fmt.Printf("%-36s  %-16s  %-8s  %s\n",
				s.ID, s.CandidateID, status, s.StartedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var sessionGetCmd = &cobra.Command{
	Use:   "get SESSION_ID",
	Short: "Show one session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		session, err := c.GetSession(context.Background(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(session)
	},
}

func init() {
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionGetCmd)

	sessionStartCmd.Flags().String("candidate", "", "Candidate ID")
	sessionStartCmd.Flags().String("assessment", "", "Assessment ID")
	sessionStartCmd.MarkFlagRequired("candidate")
}

var recordCmd = &cobra.Command{
	Use:   "record SESSION_ID TYPE [JSON_DATA]",
	Short: "Record a single event",
	Long: `Append one event to a session's log. TYPE is a dotted event type
such as code.snapshot or terminal.command; JSON_DATA is an optional
JSON object carried opaquely with the event.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data json.RawMessage
		if len(args) == 3 {
			if !json.Valid([]byte(args[2])) {
				return fmt.Errorf("event data is not valid JSON")
			}
			data = json.RawMessage(args[2])
		}

		c, err := newClient(cmd)
		if err != nil {
			return err
		}

		event, err := c.RecordEvent(context.Background(), args[0], api.EventPayload{
			Type:   types.EventType(args[1]),
			Origin: types.OriginUser,
			Data:   data,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ Recorded %s at sequence %d\n", event.EventType, event.SequenceNumber)
		return nil
	},
}
