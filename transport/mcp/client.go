package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/logic-labyrinth/game/engine"
	"github.com/wricardo/logic-labyrinth/game/rewards"
	"github.com/wricardo/logic-labyrinth/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Logic Labyrinth",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Logic Labyrinth - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Write a program that walks the player from the top-left corner, facing right,
to the exit in the bottom-right corner without touching a wall.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions / delete_session
- regenerate_maze: New maze for a session (optional seed)
- snapshot: The maze, the player and the state of the last run
- append_instructions: Add instructions (F, L, R, LOOP_START, LOOP_END)
- undo_instruction / clear_program / get_program
- run_program: Run the program (instant by default)
- abort_run: Stop an animated run
- suggest_solution: A program that reaches the exit
- get_progress: Stars and awards earned
- list_difficulties
- game_instructions: Full rules of the instruction language

NOTE: The 'intent' parameter on append_instructions serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new labyrinth session with optional difficulty and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"difficulty": map[string]interface{}{
					"type":        "string",
					"description": "Difficulty ID to use (optional, see list_difficulties)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Maze seed for a reproducible labyrinth (optional, 0 for random)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session"), c.handleGetSession)
	c.mcpServer.AddTool(sessionTool("delete_session", "Delete a session"), c.handleDeleteSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "regenerate_maze",
		Description: "Replace the session's maze with a newly generated one. The program is kept.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Maze seed (optional, 0 for random)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRegenerateMaze)

	c.mcpServer.AddTool(sessionTool("snapshot", "Show the maze, the player and the status of the last run"), c.handleSnapshot)

	// Program authoring
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "append_instructions",
		Description: "Append instructions to the session's program",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"instructions": map[string]interface{}{
					"type":        "string",
					"description": "Space or comma separated tokens: F (forward), L (turn left), R (turn right), LOOP_START, LOOP_END",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of what these instructions should achieve (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "instructions"},
		},
	}, c.handleAppendInstructions)

	c.mcpServer.AddTool(sessionTool("undo_instruction", "Remove the last instruction of the program"), c.handleUndo)
	c.mcpServer.AddTool(sessionTool("clear_program", "Remove every instruction of the program"), c.handleClearProgram)
	c.mcpServer.AddTool(sessionTool("get_program", "Show the program and its expanded length"), c.handleGetProgram)

	// Execution
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_program",
		Description: "Run the session's program from the start position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"instant", "animated"},
					"description": "instant returns the outcome immediately; animated streams frames to WebSocket viewers (default instant)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunProgram)

	c.mcpServer.AddTool(sessionTool("abort_run", "Stop the run in progress"), c.handleAbortRun)
	c.mcpServer.AddTool(sessionTool("suggest_solution", "Compute a program that reaches the exit of the session's maze"), c.handleSuggestSolution)

	// Progress and configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_progress",
		Description: "Show stars earned and awards unlocked",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGetProgress)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_difficulties",
		Description: "List available difficulties",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListDifficulties)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the labyrinth and its instruction language",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP answers single JSON-RPC messages posted to the /mcp endpoint
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// notifications have no response
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"].(string); ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// seedArg reads an optional numeric seed; JSON numbers arrive as float64
func seedArg(args map[string]interface{}) uint64 {
	switch v := args["seed"].(type) {
	case float64:
		if v > 0 {
			return uint64(v)
		}
	case int:
		if v > 0 {
			return uint64(v)
		}
	}
	return 0
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	body := map[string]interface{}{}
	if difficulty, _ := args["difficulty"].(string); difficulty != "" {
		body["difficulty"] = difficulty
	}
	if seed := seedArg(args); seed != 0 {
		body["seed"] = seed
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\n%s", session.ID, formatSessionInfo(&session))), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Difficulty: %s, Seed: %d, Last run: %s, Created: %s)\n",
			s.ID, s.Difficulty, s.Seed, s.Snapshot.Outcome, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(request.GetArguments(), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(request.GetArguments(), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response map[string]string
	if err := c.apiCall(ctx, "DELETE", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response["message"]), nil
}

func (c *Client) handleRegenerateMaze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := sessionPath(args, "/maze")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", path, map[string]uint64{"seed": seedArg(args)}, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("New maze (seed %d)\n\n%s", session.Seed, formatSnapshot(&session.Snapshot))), nil
}

func (c *Client) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(request.GetArguments(), "/snapshot")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleAppendInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := sessionPath(args, "/program")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, _ := args["instructions"].(string)
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("instructions are required"), nil
	}

	var info service.ProgramInfo
	if err := c.apiCall(ctx, "POST", path, map[string]string{"text": text}, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatProgram(&info)
	if intent, _ := args["intent"].(string); intent != "" {
		response = fmt.Sprintf("Intent: %s\n%s", intent, response)
	}
	return mcp.NewToolResultText(response), nil
}

func (c *Client) programCall(ctx context.Context, request mcp.CallToolRequest, method, suffix string) (*mcp.CallToolResult, error) {
	path, err := sessionPath(request.GetArguments(), suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.ProgramInfo
	if err := c.apiCall(ctx, method, path, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProgram(&info)), nil
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.programCall(ctx, request, "POST", "/program/undo")
}

func (c *Client) handleClearProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.programCall(ctx, request, "DELETE", "/program")
}

func (c *Client) handleGetProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.programCall(ctx, request, "GET", "/program")
}

func (c *Client) handleRunProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	path, err := sessionPath(args, "/run")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode, _ := args["mode"].(string)
	if mode == "" {
		mode = string(service.RunInstant)
	}

	var result service.RunResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"mode": mode}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&result)), nil
}

func (c *Client) handleAbortRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(request.GetArguments(), "/abort")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.AbortResult
	if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Aborted {
		return mcp.NewToolResultText("No run in progress"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Run aborted at tick %d", result.Snapshot.Tick)), nil
}

func (c *Client) handleSuggestSolution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(request.GetArguments(), "/solution")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var solution service.SolutionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &solution); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Solution (%d instructions, %d steps):\n%s",
		solution.Length, solution.ExpandedLength, solution.Text)), nil
}

func (c *Client) handleGetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var progress rewards.Progress
	if err := c.apiCall(ctx, "GET", "/api/progress", nil, &progress); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProgress(&progress)), nil
}

func (c *Client) handleListDifficulties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var difficulties []service.DifficultyInfo
	if err := c.apiCall(ctx, "GET", "/api/difficulties", nil, &difficulties); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Difficulties:\n\n")
	for _, d := range difficulties {
		fmt.Fprintf(&result, "- %s: %dx%d maze, %d⭐ per success", d.ID, d.MazeSize, d.MazeSize, d.Reward)
		if d.Description != "" {
			fmt.Fprintf(&result, " (%s)", d.Description)
		}
		result.WriteString("\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `# Logic Labyrinth

## Goal
Write a program that moves the player from (0,0) to the exit at (N-1,N-1).
Every run starts at (0,0) facing right (→). Coordinates are (x,y) with y
growing downwards.

## Instructions
- F: move one cell forward
- L: turn 90° left in place
- R: turn 90° right in place
- LOOP_START ... LOOP_END: repeat the enclosed instructions 3 times

Loops nest: LOOP_START LOOP_START F LOOP_END LOOP_END moves forward 9 times.
A LOOP_START without a matching LOOP_END loops to the end of the program; a
stray LOOP_END is ignored.

## Runs
One instruction executes per tick. Moving into a wall (#) or off the grid
crashes the run immediately. When the instructions run out the run succeeds if
the player stands on the exit, otherwise it is incomplete. A success pays the
difficulty's reward in stars; crashes and incomplete runs pay nothing.

## Map legend
- . open cell
- # wall
- E exit
- ↑ → ↓ ← the player and its heading

## Tips
1. Call snapshot to see the maze before writing the program.
2. Use loops to compress long corridors: LOOP_START F LOOP_END is three steps.
3. run_program in instant mode reports where the player ended and why.
4. suggest_solution is there when you are stuck.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nDifficulty: %s\nSeed: %d\nCreated: %s\n\n%s",
		session.ID, session.Difficulty, session.Seed,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(&session.Snapshot))
}

func formatSnapshot(snap *engine.Snapshot) string {
	if snap == nil || snap.Size == 0 {
		return "No maze available"
	}

	var result strings.Builder
	view := *snap
	if view.Player == nil {
		start := engine.InitialPlayer()
		view.Player = &start
	}

	fmt.Fprintf(&result, "Maze %dx%d | Player: (%d,%d) %s | Status: %s | Outcome: %s\n\n",
		view.Size, view.Size,
		view.Player.Position.X, view.Player.Position.Y, view.Player.Heading.Arrow(),
		view.Status, view.Outcome)
	result.WriteString(engine.RenderSnapshot(view))
	result.WriteString("\n")

	if view.TraceLength > 0 {
		fmt.Fprintf(&result, "\nTick %d/%d", view.Tick, view.TraceLength)
	}
	if view.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", view.Message)
	}

	return result.String()
}

func formatProgram(info *service.ProgramInfo) string {
	if info.Length == 0 {
		return "Program is empty"
	}
	return fmt.Sprintf("Program (%d instructions, %d steps when expanded):\n%s",
		info.Length, info.ExpandedLength, info.Text)
}

func formatRunResult(result *service.RunResult) string {
	if result.Final == nil {
		return fmt.Sprintf("Run %s started (%s, %d steps). Watch it over the WebSocket or call snapshot.",
			result.RunID, result.Mode, result.TraceLength)
	}

	var response strings.Builder
	switch result.Final.Outcome {
	case engine.OutcomeSuccess:
		response.WriteString("🎉 SUCCESS!\n")
	case engine.OutcomeCrashed:
		fmt.Fprintf(&response, "💥 CRASHED on tick %d executing %s\n", result.Final.Tick, result.Final.Instruction)
	default:
		response.WriteString("✗ Did not reach the exit\n")
	}
	fmt.Fprintf(&response, "Ended at (%d,%d) facing %s after %d of %d steps\n\n",
		result.Final.Player.Position.X, result.Final.Player.Position.Y,
		result.Final.Player.Heading.Arrow(), result.Final.Tick, result.TraceLength)
	response.WriteString(formatSnapshot(&result.Snapshot))

	return response.String()
}

func formatProgress(progress *rewards.Progress) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Stars: %d⭐ from %d successful runs\n", progress.Stars, progress.Successes)
	if len(progress.Unlocked) > 0 {
		fmt.Fprintf(&result, "Awards: %s\n", strings.Join(progress.Unlocked, ", "))
	}
	if progress.Next != nil {
		fmt.Fprintf(&result, "Next award: %s at %d⭐ (%d to go)\n",
			progress.Next.Name, progress.Next.Threshold, progress.Next.Threshold-progress.Stars)
	}
	return result.String()
}
