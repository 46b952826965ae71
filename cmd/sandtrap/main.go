package main

import (
	"flag"
	"log"

	"github.com/AnishMulay/sandtrap/internal/config"
	"github.com/AnishMulay/sandtrap/servers/honeypot"
)

func main() {
	var (
		configPath = flag.String("config", "./data/sandtrap.yaml", "Path to the YAML config (created with defaults if missing)")
		nodeID     = flag.String("node-id", "", "Node ID used in log lines")
		listen     = flag.String("listen", "", "Listen address")
		logDir     = flag.String("log-dir", "", "Directory for the service log and events.jsonl")
		logLevel   = flag.String("log-level", "", "Minimum log level (DEBUG, INFO, WARN, ERROR)")
		stdout     = flag.Bool("stdout", false, "Also write service log lines to stdout")
		sourceDir  = flag.String("source-dir", "", "Host directory copied into the fake filesystem")
		layoutFile = flag.String("layout", "", "Layout file of extra empty files and directories")
		diskFile   = flag.String("disk-file", "", "Back the master filesystem's blocks with this file")
		hostKey    = flag.String("host-key", "", "Host key path (generated if missing)")
		healthAddr = flag.String("health-addr", "", "gRPC health listen address (disabled if empty)")
		fatalScope = flag.String("fatal-scope", "", "What a session fault stops: global or session")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.NodeID, *nodeID)
	override(&cfg.Server.ListenAddr, *listen)
	override(&cfg.Server.HostKeyPath, *hostKey)
	override(&cfg.Server.HealthAddr, *healthAddr)
	override(&cfg.Server.FatalScope, *fatalScope)
	override(&cfg.Filesystem.SourceDir, *sourceDir)
	override(&cfg.Filesystem.LayoutFile, *layoutFile)
	override(&cfg.Filesystem.DiskFile, *diskFile)
	override(&cfg.Log.Dir, *logDir)
	override(&cfg.Log.Level, *logLevel)
	if *stdout {
		cfg.Log.Stdout = true
	}

	server, err := honeypot.Build(honeypot.Options{Config: cfg})
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	if err := server.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
