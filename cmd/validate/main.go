// Command validate checks every game configuration in a directory. It checks:
//   - JSON or YAML structure, rejecting unknown fields
//   - The rules enforced by engine.ValidateGameConfig
//   - That the winning tile can be built on the board at all
//   - That no two files resolve to the same config id
//
// It prints a report per file and exits with status 1 if any file is invalid.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
)

var errInvalidConfigs = errors.New("some configurations have errors")

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages holds informational lines; otherwise it
// holds the problems that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// decodeStrict decodes like engine.DecodeGameConfig but rejects fields the
// game does not know about.
func decodeStrict(filename string, data []byte) (*engine.GameConfig, error) {
	cfg := engine.GameConfig{InitialTiles: engine.DefaultInitialTiles}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return &cfg, nil
}

// maxReachableTile is the largest tile a board of the given size can hold
// when the biggest spawn is maxSpawn: every cell holds a distinct power of
// two and the last merge doubles the largest.
func maxReachableTile(size, maxSpawn int) int {
	cells := size * size
	if cells > 40 {
		return int(^uint(0) >> 1)
	}
	return maxSpawn << (cells - 1)
}

// validateConfig loads and validates a single configuration file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	cfg, err := decodeStrict(filePath, data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if err := engine.ValidateGameConfig(cfg); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	maxSpawn := 0
	for _, v := range cfg.SpawnValues {
		if v > maxSpawn {
			maxSpawn = v
		}
	}
	if reachable := maxReachableTile(cfg.Size, maxSpawn); cfg.WinningValue > reachable {
		result.fail("winning_value %d cannot be reached on a %dx%d board (largest possible tile is %d)",
			cfg.WinningValue, cfg.Size, cfg.Size, reachable)
		return result
	}

	result.Messages = append(result.Messages,
		fmt.Sprintf("✓ Name: %s", cfg.Name),
		fmt.Sprintf("✓ Board: %dx%d", cfg.Size, cfg.Size),
		fmt.Sprintf("✓ Winning tile: %d", cfg.WinningValue),
		fmt.Sprintf("✓ Spawn values: %v", cfg.SpawnValues),
		fmt.Sprintf("✓ Initial tiles: %d", cfg.InitialTiles),
	)
	return result
}

// configFiles lists the configuration files in dir in a stable order
func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !config.IsConfigFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// validateDir validates every configuration in dir, writes the report to w
// and returns errInvalidConfigs if any file failed.
func validateDir(dir string, w io.Writer) error {
	files, err := configFiles(dir)
	if err != nil {
		return fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no configuration files in %s", dir)
	}

	results := make([]ValidationResult, 0, len(files))
	ids := make(map[string]string)
	for _, file := range files {
		result := validateConfig(file)

		id := strings.ToLower(config.ConfigID(filepath.Base(file)))
		if other, exists := ids[id]; exists {
			result.fail("config id %q is already used by %s", id, other)
		} else {
			ids[id] = result.File
		}
		results = append(results, result)
	}

	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Messages {
				fmt.Fprintln(w, "  "+info)
			}
			continue
		}

		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		for _, problem := range result.Messages {
			if !strings.HasPrefix(problem, "✓") {
				fmt.Fprintln(w, "  ❌ "+problem)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(w, "❌ Some configurations have errors")
		return errInvalidConfigs
	}
	fmt.Fprintln(w, "✅ All configurations are valid!")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "Validate the 2048 game configurations in a directory",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "configs",
				Usage:   "Directory containing game configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("dir")
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			return validateDir(dir, os.Stdout)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidConfigs) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
