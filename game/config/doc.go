// Package config provides difficulty management for the Logic Labyrinth.
//
// The config package handles:
//   - Loading difficulty levels from JSON or YAML files
//   - Falling back to the built-in easy, medium and hard levels
//   - Caching loaded difficulties
//   - Listing and saving difficulties
//
// Configuration Format:
//
// Difficulties live in the configs directory as <id>.json, <id>.yaml or
// <id>.yml. Each file defines the maze size (odd, 5 to 101), the star reward
// for a success, the animation tick interval and the player messages. The
// success message must contain %d, which is replaced by the reward.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	hard, err := manager.LoadConfig("hard")
//	difficulties, err := manager.ListConfigs()
//
// A file named like a built-in level replaces it.
package config
