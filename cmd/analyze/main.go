package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/AnishMulay/sandtrap/internal/analytics"
	"github.com/AnishMulay/sandtrap/internal/event_log/jsonl"
)

func main() {
	var (
		logDir  = flag.String("log-dir", "./data/logs", "Directory holding events.jsonl")
		file    = flag.String("file", "", "Event file to read (overrides -log-dir)")
		top     = flag.Int("top", 10, "Rows shown per ranking")
		section = flag.String("section", "all", "Report section: all, summary, credentials, commands")
	)
	flag.Parse()

	path := *file
	if path == "" {
		path = filepath.Join(*logDir, jsonl.FileName)
	}

	events, skipped, err := analytics.LoadFile(path)
	if err != nil {
		log.Fatalf("Failed to load events: %v", err)
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "skipped %d malformed lines\n", skipped)
	}

	report := analytics.Analyze(events, *top)

	switch *section {
	case "all":
		analytics.Render(os.Stdout, report)
	case "summary":
		analytics.RenderSummary(os.Stdout, report)
	case "credentials":
		analytics.RenderCredentials(os.Stdout, report)
	case "commands":
		analytics.RenderCommands(os.Stdout, report)
	default:
		log.Fatalf("Unknown section: %s", *section)
	}
}
