// Package mcp exposes the Logic Labyrinth to AI agents over the Model Context
// Protocol.
//
// The mcp package implements:
//   - An MCP server whose tools proxy to the REST API
//   - Text renderings of mazes, programs, runs and progress for agents
//   - A single-message HTTP endpoint for the /mcp route
//
// MCP Tools:
//   - create_session, get_session, list_sessions, delete_session
//   - regenerate_maze, snapshot
//   - append_instructions, undo_instruction, clear_program, get_program
//   - run_program, abort_run, suggest_solution
//   - get_progress, list_difficulties, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: mount the Client itself as the /mcp handler
//
// run_program defaults to instant mode so agents get the outcome in the same
// call. Animated runs are only useful when someone watches the WebSocket.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
