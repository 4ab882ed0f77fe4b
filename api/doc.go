// Package api provides the HTTP REST API for the Logic Labyrinth.
//
// The api package implements:
//   - Session endpoints (create, list, inspect, delete, regenerate the maze)
//   - Program authoring endpoints (append, undo, clear)
//   - Run control (animated or instant runs, abort) and solution hints
//   - Difficulty listing, lookup and saving
//   - Reward progress
//   - WebSocket upgrade for live frames
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"difficulty": "easy", "seed": 42})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&difficulty=ID)
//   - GET /api/sessions/{id} - Session details with its snapshot
//   - DELETE /api/sessions/{id} - Delete a session
//   - GET /api/sessions/{id}/snapshot - Current maze, player and run status
//   - POST /api/sessions/{id}/maze - Generate a new maze ({"seed": 7}, 0 for random)
//
// Program:
//   - GET /api/sessions/{id}/program - Authored instructions
//   - POST /api/sessions/{id}/program - Append ({"instructions": ["F","R"]} or {"text": "F R"})
//   - POST /api/sessions/{id}/program/undo - Remove the last instruction
//   - DELETE /api/sessions/{id}/program - Clear the program
//
// Execution:
//   - POST /api/sessions/{id}/run - Run the program ({"mode": "animated|instant"})
//   - POST /api/sessions/{id}/abort - Abort the run in flight
//   - GET /api/sessions/{id}/solution - A program that reaches the exit
//
// Difficulties and progress:
//   - GET /api/difficulties - List difficulties
//   - GET /api/difficulties/{name} - Difficulty configuration
//   - POST /api/difficulties - Save a difficulty (?id= overrides the name)
//   - GET /api/progress - Stars and unlocked awards
//
// Other:
//   - GET /health - Health check
//   - GET /ws?session={id} - WebSocket stream of frames and snapshots
//
// Animated runs answer 202 Accepted immediately; their frames arrive over the
// WebSocket. Instant runs answer 200 with every frame and the final outcome.
// A crash or an incomplete run is an outcome, not an HTTP error.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "session not found: session not found",
//	  "code": 404
//	}
//
// Unknown sessions and difficulties map to 404, malformed programs, run modes
// and difficulty files to 400, and unsolvable mazes to 422.
package api
