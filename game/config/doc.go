// Package config provides configuration management for the 2048 game server.
//
// The config package handles:
//   - Loading game configurations from JSON and YAML files
//   - Configuration validation through the engine package
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as .json, .yaml or .yml files in the
// configs directory. The file name without its extension is the config id
// used when creating sessions. Each configuration defines:
//   - Board size and the winning tile value
//   - The tile values that may spawn after a move
//   - How many tiles a new game starts with
//   - Player-facing messages
//
// Available Configurations:
//   - classic: 4x4 board played to 2048
//   - mini: 3x3 board played to 256
//   - big: 5x5 board played to 4096 (YAML)
//   - hard: 4x4 board that also spawns eights
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("mini")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	configs, err := manager.ListConfigs()
//
// When the directory holds no usable configuration, GetDefault returns
// engine.DefaultGameConfig.
package config
