// Package service provides the business logic layer for the Logic Labyrinth.
//
// The service package implements:
//   - Multi-session management, one maze and program per session
//   - Program authoring (append, undo, clear)
//   - Animated and instant runs, and aborting them
//   - Solution hints and reward progress
//   - Difficulty listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages difficulty loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine. Animated runs tick in
// the background and push every frame to the FrameObserver passed with
// WithFrameObserver, which is how the WebSocket hub streams them.
//
// Usage:
//
//	ledger := rewards.NewLedger()
//	sessionMgr := session.NewManager(ledger)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, ledger)
//
//	info, err := gameService.CreateSession(ctx, "easy", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameService.AppendInstruction(ctx, info.ID, program.Forward, program.TurnRight)
//	result, err := gameService.RunProgram(ctx, info.ID, service.RunInstant)
package service
