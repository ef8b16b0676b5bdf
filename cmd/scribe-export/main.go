package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/scribehq/scribe/pkg/storage"
)

// scribe-export dumps recorded sessions out of an offline data
// directory as JSON lines, for archival or for feeding an analytics
// pipeline. The server must not be running against the same directory;
// the database takes an exclusive lock.

var (
	dataDir   = flag.String("data-dir", "data", "Scribe data directory")
	sessionID = flag.String("session", "", "Session to export (default: all sessions)")
	outPath   = flag.String("out", "", "Output file (default: stdout)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags)

	store, err := storage.NewEventStore(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := export(store, out); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
}

func export(store storage.Store, out *os.File) error {
	sessions, err := store.ListSessions()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	exported := 0
	for _, session := range sessions {
		if *sessionID != "" && session.ID != *sessionID {
			continue
		}

		if err := enc.Encode(session); err != nil {
			return err
		}

		events, err := store.ReadEvents(session.ID)
		if err != nil {
			return fmt.Errorf("failed to read events for %s: %w", session.ID, err)
		}
		for _, event := range events {
			if err := enc.Encode(event); err != nil {
				return err
			}
		}

		log.Printf("✓ Exported session %s (%d events)", session.ID, len(events))
		exported++
	}

	if *sessionID != "" && exported == 0 {
		return fmt.Errorf("session %s not found", *sessionID)
	}
	log.Printf("✓ Exported %d session(s)", exported)
	return nil
}
