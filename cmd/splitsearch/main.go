// Copyright 2026 The SplitSearch Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the segmented search server and CLI [DBG] application.

SplitSearch provides ranked, fuzzy lookup of segmented identifiers such as
Math.Mat44.MultiplyVector3. Registered paths live in an in-memory segment
trie; queries like ["mat4", "mul"] come back ranked by importance tier,
learned popularity and a reverse subsequence score. It can operate as a
MessagePack IPC server for integration with editors, or as a CLI application
for testing and debugging.

# Usage

Start the server with a seed dictionary:

	splitsearch -seed identifiers.txt

Run in CLI mode with debug logging:

	splitsearch -c -d -limit 10

The seed file holds one delimited identifier per line, optionally followed
by ",echelon":

	Math.Mat44.MultiplyVector3,1
	Math.Vec3.Normalize,1
	Util.Debug.Log

# Configuration

Runtime configuration is managed through a TOML file:

	[server]
	max_limit = 64
	min_segments = 1
	max_segments = 16

	[dict]
	delimiter = "."
	prefs_file = "splitsearch-prefs.json"
	autosave_prefs = true

	[cli]
	default_limit = 24

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. A query request:

	{"id": "req1", "q": ["mat4", "mul"], "l": 10}

comes back with entries ranked by echelon, select count and score:

	{"id": "req1", "m": [{"d": "Math.Mat44.MultiplyVector3", "e": 1, "sc": 0, "pts": 17, "pen": 14}], "c": 1, "t": 85}

Mutations, selection feedback and preference persistence use the action
field; see the server package docs for the full message set.

# Preferences

Selections reported through the protocol (or the CLI's ':N' command)
increment per-node popularity counters. With autosave enabled the counters
are written back to the prefs file on shutdown and restored over a rebuilt
dictionary on the next start, so the ranking adapts across sessions.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bastiangx/splitsearch/internal/cli"
	"github.com/bastiangx/splitsearch/pkg/config"
	"github.com/bastiangx/splitsearch/pkg/dict"
	"github.com/bastiangx/splitsearch/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "splitsearch"
	gh      = "https://github.com/bastiangx/splitsearch"
)

// sigHandler exits normally on OS signals, saving prefs first when asked.
func sigHandler(d *dict.Dict, cfg *config.Config) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		if cfg.Dict.AutosavePrefs && cfg.Dict.PrefsFile != "" {
			d.SavePrefs(cfg.Dict.PrefsFile)
		}
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPath := flag.String("config", "", "Path to a config.toml (default: user config dir)")
	seedFile := flag.String("seed", "", "File with one delimited identifier per line, optionally 'path,echelon'")
	prefsFile := flag.String("prefs", "", "Preferences file to load at startup (overrides config)")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of matches to return")
	delim := flag.String("delim", "", "Path delimiter (single character, overrides config)")

	flag.Parse()

	if *showVersion {
		showVersionInfo()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	path := *configPath
	if path == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			log.Warnf("Failed to determine config path: %v. Using built-in defaults...", err)
		}
		path = defaultPath
	}
	appConfig := defaultConfig
	if path != "" {
		loaded, err := config.InitConfig(path)
		if err == nil {
			appConfig = loaded
		}
		log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))
	}

	if *delim != "" {
		appConfig.Dict.Delimiter = *delim
	}
	if *prefsFile != "" {
		appConfig.Dict.PrefsFile = *prefsFile
	}

	d := dict.NewDict()
	sigHandler(d, appConfig)

	if *seedFile != "" {
		count, err := loadSeedFile(d, *seedFile, appConfig.Delim())
		if err != nil {
			log.Fatalf("Failed to load seed file %s: %v", *seedFile, err)
			os.Exit(1)
		}
		log.Debugf("Seeded %d identifiers from %s", count, *seedFile)
	}

	if appConfig.Dict.PrefsFile != "" {
		d.LoadPrefs(appConfig.Dict.PrefsFile)
	}

	cliLimit := appConfig.CLI.DefaultLimit
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "limit" {
			cliLimit = *limit
		}
	})

	if *cliMode {
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(d, cliLimit, appConfig.Delim())
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
			os.Exit(1)
		}
		d.Release()
		return
	}

	log.Debug("spawning IPC")
	showStartupInfo(*seedFile)

	srv := server.NewServer(d, appConfig)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// loadSeedFile registers every identifier in the file, using the path
// string itself as userdata. Lines may carry a trailing ",echelon".
func loadSeedFile(d *dict.Dict, filename string, delimiter byte) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		path := line
		echelon := 0
		if i := strings.LastIndexByte(line, ','); i >= 0 {
			if e, err := strconv.Atoi(strings.TrimSpace(line[i+1:])); err == nil {
				path = strings.TrimSpace(line[:i])
				echelon = e
			}
		}
		if !d.AddDelimited(path, delimiter, path, uint32(echelon), 0) {
			log.Warnf("Skipping conflicting entry: %s", path)
			continue
		}
		count++
	}
	return count, scanner.Err()
}

// showVersionInfo displays the styled version banner.
func showVersionInfo() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()

	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ SplitSearch ] Ranked fuzzy lookup for segmented names")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(seedFile string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	if seedFile != "" {
		log.Infof("seed file: ( %s )", seedFile)
	}
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
