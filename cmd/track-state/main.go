// Command track-state reconstructs the hidden state of an Innovation
// game from its activity log.
//
// It reads data/<TABLE_ID> <opponent>/game_log.json (or the raw
// notification dump with -raw), applies every event, and writes
// game_state.json and summary.html next to the input.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AnotherSava/bga-tracker/internal/card"
	"github.com/AnotherSava/bga-tracker/internal/config"
	"github.com/AnotherSava/bga-tracker/internal/events"
	"github.com/AnotherSava/bga-tracker/internal/format"
	"github.com/AnotherSava/bga-tracker/internal/game"
	"github.com/AnotherSava/bga-tracker/internal/interpreter"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	rawInput   = flag.Bool("raw", false, "input is a raw notification dump; normalize it first")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: track-state [-config path] [-raw] TABLE_ID")
		os.Exit(1)
	}
	tableID := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting state tracker",
		zap.String("version", version),
		zap.String("table", tableID),
	)

	if cfg.Perspective == "" {
		logger.Fatal("perspective player not configured (set perspective in config or PLAYER_NAME in environment)")
	}

	db, err := card.LoadDatabase(filepath.Join(cfg.AssetsDir, "cardinfo.json"))
	if err != nil {
		logger.Fatal("failed to load card database", zap.Error(err))
	}
	logger.Info("card database loaded", zap.Int("cards", db.Len()))

	tableDir, opponent, err := findTable(cfg.DataDir, tableID)
	if err != nil {
		logger.Fatal("failed to locate table data", zap.Error(err))
	}
	players := []string{cfg.Perspective, opponent}
	logger.Info("players resolved", zap.Strings("players", players))

	gameLog, err := loadGameLog(tableDir, *rawInput, logger)
	if err != nil {
		logger.Fatal("failed to load game log", zap.Error(err))
	}

	state := game.NewState(db, players, cfg.Perspective, logger)
	if err := state.Setup(); err != nil {
		logger.Fatal("failed to set up game state", zap.Error(err))
	}

	it := interpreter.New(state, db, logger)
	if err := it.Run(gameLog); err != nil {
		logger.Fatal("failed to apply game log", zap.Error(err))
	}

	snap := state.Snapshot()
	statePath := filepath.Join(tableDir, "game_state.json")
	if err := writeJSON(statePath, snap); err != nil {
		logger.Fatal("failed to write snapshot", zap.Error(err))
	}
	logger.Info("snapshot written", zap.String("path", statePath))

	summary, err := format.Summary(snap, cfg.Perspective, tableID)
	if err != nil {
		logger.Fatal("failed to render summary", zap.Error(err))
	}
	summaryPath := filepath.Join(tableDir, "summary.html")
	if err := os.WriteFile(summaryPath, []byte(summary), 0o644); err != nil {
		logger.Fatal("failed to write summary", zap.Error(err))
	}
	logger.Info("summary written", zap.String("path", summaryPath))
}

// findTable locates the "<TABLE_ID> <opponent>" directory under the
// data dir and extracts the opponent name from it.
func findTable(dataDir, tableID string) (string, string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return "", "", fmt.Errorf("read data dir: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), tableID+" ") {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) != 1 {
		return "", "", fmt.Errorf("no unique table directory for %q in %s (%d matches)",
			tableID, dataDir, len(matches))
	}

	opponent := strings.SplitN(matches[0], " ", 2)[1]
	return filepath.Join(dataDir, matches[0]), opponent, nil
}

// loadGameLog reads the structured game log, normalizing the raw
// notification dump first when requested (and persisting the result
// for later runs).
func loadGameLog(tableDir string, raw bool, logger *zap.Logger) (*events.Log, error) {
	logPath := filepath.Join(tableDir, "game_log.json")
	if !raw {
		return events.LoadLog(logPath)
	}

	data, err := os.ReadFile(filepath.Join(tableDir, "raw_history.json"))
	if err != nil {
		return nil, fmt.Errorf("read raw history: %w", err)
	}
	history, err := events.ParseRawHistory(data)
	if err != nil {
		return nil, err
	}
	gameLog, err := events.Normalize(history)
	if err != nil {
		return nil, err
	}
	logger.Info("raw history normalized", zap.Int("events", len(gameLog.Log)))

	if err := writeJSON(logPath, gameLog); err != nil {
		return nil, err
	}
	return gameLog, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
