// Copyright 2025 The typeahead Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the typeahead suggestion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

typeahead ranks search suggestions for a social blog while the user types. Each
query fans out to two providers, one for posts and one for author profiles,
and the merged candidates are scored by text match quality, popularity and
recency. Keystrokes are debounced, results are cached briefly, and replies to
superseded queries are dropped so the newest query always wins.

# Usage

Start the IPC server against the social API:

	typeahead

Enable debug logging and use a custom config:

	typeahead -d -config ./typeahead.toml

Run the interactive CLI against an offline fixture, printing scores:

	typeahead -c -fixture testdata/social.json -scores

# Configuration

Runtime configuration is read from typeahead.toml, created with defaults in the
user config directory when missing:

	[api]
	base_url = "https://v2.api.noroff.dev"
	timeout_ms = 10000

	[search]
	debounce_ms = 180
	cache_ttl_ms = 15000
	max_results = 10
	min_query_len = 1
	partial_results = false

Credentials are best passed through TYPEAHEAD_API_KEY and TYPEAHEAD_TOKEN.

# IPC Protocol

The server speaks MessagePack over stdin/stdout, see package server:

	{"id": "req1", "q": "anna"}
	{"id": "in1", "a": "input", "q": "ann"}

# Command Line Flags

	-version  Show current version
	-d        Enable debug mode with detailed logging
	-c        Run in CLI mode instead of server mode
	-config   Path to a custom config file
	-fixture  Serve suggestions from a JSON fixture instead of the API
	-scores   Show scores in CLI mode
	-rebuild-config
	    Overwrite the default config file with builtin defaults and exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/typeahead/internal/cli"
	"github.com/bastiangx/typeahead/internal/logger"
	"github.com/bastiangx/typeahead/pkg/config"
	"github.com/bastiangx/typeahead/pkg/provider"
	"github.com/bastiangx/typeahead/pkg/server"
	"github.com/bastiangx/typeahead/pkg/suggest"
)

const (
	Version = "0.1.0-beta"
	AppName = "typeahead"
	gh      = "https://github.com/bastiangx/typeahead"
)

// sigHandler is a simple handler for OS signals to exit normally.
// In-flight provider requests are canceled through the returned context first.
func sigHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cancel()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
	return ctx
}

// sources holds the two providers the coordinator fans out to.
type sources struct {
	content suggest.ContentProvider
	authors suggest.AuthorProvider
	label   string
}

// main wires config, providers and the coordinator, then hands over to the
// server or the CLI.
func main() {
	ctx := sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPath := flag.String("config", "", "Path to a custom typeahead.toml")
	fixture := flag.String("fixture", "", "Serve suggestions from a JSON fixture instead of the API")
	showScores := flag.Bool("scores", false, "Show scores in CLI mode")
	rebuildConfig := flag.Bool("rebuild-config", false, "Overwrite the default config file with builtin defaults and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	if *rebuildConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		path, _ := config.GetDefaultConfigPath()
		log.Printf("Rebuilt config at %s", path)
		return
	}

	cfg, usedPath, _ := config.LoadConfigWithPriority(*configPath)
	log.Debugf("Using config: %s", config.GetActiveConfigPath(usedPath))
	if *fixture != "" {
		cfg.CLI.Fixture = *fixture
	}
	if *showScores {
		cfg.CLI.ShowScores = true
	}

	src, err := newSources(cfg)
	if err != nil {
		log.Fatalf("Failed to init providers: %v", err)
	}

	coordinator, err := suggest.NewCoordinator(src.content, src.authors, cfg.CoordinatorOptions()...)
	if err != nil {
		log.Fatalf("Failed to init coordinator: %v", err)
	}
	defer coordinator.Close()

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "source", src.label, "scores", cfg.CLI.ShowScores)

		inputHandler := cli.NewInputHandler(coordinator, cfg.CLI.ShowScores)
		if err := inputHandler.Start(ctx); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(coordinator)
	showStartupInfo(src.label)

	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newSources(cfg *config.Config) (sources, error) {
	if cfg.CLI.Fixture != "" {
		mem, err := provider.LoadFixture(cfg.CLI.Fixture)
		if err != nil {
			return sources{}, err
		}
		return sources{content: mem, authors: mem, label: "fixture " + cfg.CLI.Fixture}, nil
	}

	api, err := provider.NewHTTP(cfg.HTTPOptions())
	if err != nil {
		return sources{}, err
	}
	if cfg.API.APIKey == "" {
		log.Warnf("No API key configured, set %s if the API rejects requests", config.EnvAPIKey)
	}
	return sources{content: api, authors: api, label: cfg.API.BaseURL}, nil
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ typeahead ] Ranked search suggestions while you type!")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(source string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Info("===========")
	log.Info(" typeahead ")
	log.Info("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("source: ( %s )", source)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
