package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/service"
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
		baseURL: baseURL,
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
		"Klondike Solitaire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Klondike Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Build all four foundations from Ace to King, one suit each. Draw one card at a time from the stock, unlimited passes.

AVAILABLE TOOLS:
- create_session: Deal a new game in its own session (optional profile and seed)
- list_sessions / get_session: Inspect sessions
- game_state: Show the board with card IDs
- draw: Turn the next stock card, or recycle the waste when the stock is empty
- move: Any action (waste_to_tableau, tableau_to_tableau, auto, ...) - requires intent explanation
- undo / redo: Step through history
- new_game: Shuffle and deal again in the same session
- auto_complete: Send every safe card to the foundations
- move_history: View attempted actions
- describe_card: Where a card is and where it could go
- list_configs: Rule profiles
- best_score / leaderboard: Recorded wins
- game_instructions: Full rules and strategy notes

NOTE: The 'intent' parameter on draw/move serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intentProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Explain why you are making this move (rubber duck debugging)",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with an optional rule profile and deal seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Rule profile ID (e.g. 'classic', 'assisted'). Defaults to the server default.",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Shuffle seed. The same seed always produces the same deal.",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List active game sessions, most recently used first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum sessions to list",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get session details including the board and undo/redo availability",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Show the current board. Face-down cards are [##]; face-up cards are shown as RankSuit#ID.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "draw",
		Description: "Turn the top stock card onto the waste. With an empty stock, turns the waste back over into the stock.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"intent":     intentProperty(),
			},
			Required: []string{"session_id", "intent"},
		},
	}, c.handleDraw)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Apply one action. Columns and foundations are zero-based (columns 0-6, foundations 0-3).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"action": map[string]interface{}{
					"type":        "string",
					"description": "Action to apply",
					"enum":        service.Actions,
				},
				"column": map[string]interface{}{
					"type":        "integer",
					"description": "Source tableau column for tableau_to_* actions",
				},
				"to_column": map[string]interface{}{
					"type":        "integer",
					"description": "Target tableau column for *_to_tableau actions",
				},
				"foundation": map[string]interface{}{
					"type":        "integer",
					"description": "Target foundation for *_to_foundation actions",
				},
				"start_index": map[string]interface{}{
					"type":        "integer",
					"description": "Index of the first card of the run to move for tableau_to_tableau (0 is the bottom card). Omit to move only the top card.",
				},
				"card_id": map[string]interface{}{
					"type":        "integer",
					"description": "Card ID for auto, auto_foundation and auto_smart. Omit to use the waste top.",
				},
				"intent": intentProperty(),
			},
			Required: []string{"session_id", "action", "intent"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "undo",
		Description: "Undo the last action",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleUndo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "redo",
		Description: "Redo the last undone action",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRedo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Shuffle and deal a new game in the same session. Clears undo/redo history.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "auto_complete",
		Description: "Repeatedly move every card that can go to a foundation until nothing moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleAutoComplete)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the paginated log of attempted actions, including rejected ones",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Entries per page (default 20)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"description": "Sort order",
					"enum":        []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_card",
		Description: "Describe where a face-up card is and every legal destination for it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"card": map[string]interface{}{
					"type":        "string",
					"description": "Card name such as 'QH' or '10S', or a numeric card ID",
				},
			},
			Required: []string{"session_id", "card"},
		},
	}, c.handleDescribeCard)

	// Profiles and scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule profiles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "best_score",
		Description: "Show the best recorded win (fewest moves, then fastest)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleBestScore)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "List recorded wins, fastest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum entries (1-100, default 20)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules, action reference and strategy notes",
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

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
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
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// arguments returns the tool arguments as a map, tolerating a missing object
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]interface{}{}
	if configID != "" {
		body["config_id"] = configID
	}
	if seed, ok := intArg(args, "seed"); ok {
		body["seed"] = int64(seed)
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path := "/api/sessions"
	if limit, ok := intArg(args, "limit"); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Count    int                   `json:"count"`
		Total    int                   `json:"total"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", path, nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d of %d):\n\n", response.Count, response.Total)
	for _, s := range response.Sessions {
		status := "in progress"
		moves := 0
		if s.GameState != nil {
			moves = s.GameState.Moves
			if s.GameState.Won {
				status = "won"
			}
		}
		result += fmt.Sprintf("- %s (Config: %s, Moves: %d, %s, Last used: %s)\n",
			s.ID, s.ConfigName, moves, status, s.LastAccessedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", sessionPath(sessionID, ""), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) postMove(sessionID string, move service.MoveRequest) (*mcp.CallToolResult, error) {
	var result service.MoveResult
	err := c.apiCall("POST", sessionPath(sessionID, "/move"), move, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	return c.postMove(sessionID, service.MoveRequest{Action: service.ActionDraw})
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	action, _ := args["action"].(string)
	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	if action == "" {
		return mcp.NewToolResultError("action is required"), nil
	}

	move := service.MoveRequest{Action: action}
	move.Column, _ = intArg(args, "column")
	move.ToColumn, _ = intArg(args, "to_column")
	move.Foundation, _ = intArg(args, "foundation")
	move.CardID, _ = intArg(args, "card_id")
	if start, ok := intArg(args, "start_index"); ok {
		move.StartIndex = &start
	}

	return c.postMove(sessionID, move)
}

func (c *Client) handleAutoComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)
	return c.postMove(sessionID, service.MoveRequest{Action: service.ActionAutoComplete})
}

func (c *Client) historyStep(request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.MoveResult
	err := c.apiCall("POST", sessionPath(sessionID, suffix), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.historyStep(request, "/undo")
}

func (c *Client) handleRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.historyStep(request, "/redo")
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.historyStep(request, "/new-game")
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", strconv.Itoa(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", strconv.Itoa(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	err := c.apiCall("GET", path, nil, &history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleDescribeCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	name, _ := args["card"].(string)
	if name == "" {
		if id, ok := intArg(args, "card"); ok {
			name = strconv.Itoa(id)
		}
	}

	var state engine.GameState
	err := c.apiCall("GET", sessionPath(sessionID, "/state"), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := describeCard(&state, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall("GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Rule Profiles:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (id: %s)\n  %s\n  Auto-move: %s, Auto aces: %t\n\n",
			config.Name, config.ConfigID, config.Description, config.AutoMovePolicy, config.AutoMoveAces)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleBestScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var best service.BestScore
	err := c.apiCall("GET", "/api/scores/best", nil, &best)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Best Score: %d moves in %s\nDeal: %s\nSession: %s\nRecorded: %s\n",
		best.Moves, formatElapsed(best.ElapsedMs), best.DealID, best.SessionID,
		best.UpdatedAt.Format("2006-01-02 15:04:05"))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/scores/leaderboard"
	if limit, ok := intArg(arguments(request), "limit"); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var response struct {
		Count int                        `json:"count"`
		Wins  []service.LeaderboardEntry `json:"wins"`
	}
	err := c.apiCall("GET", path, nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeaderboard(response.Wins)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `🃏 Klondike Solitaire - Complete Instructions

GAME OBJECTIVE:
Move all 52 cards onto the four foundations. Each foundation holds one suit, built up from Ace to King.

THE LAYOUT:
• Tableau: 7 columns (0-6). Column N starts with N+1 cards; only the top card is face up.
• Stock: The 24 cards left after the deal, face down.
• Waste: Cards turned from the stock. Only the top waste card can be played.
• Foundations: 4 piles (0-3), empty at the start.

RULES:
• Tableau: Place a card on a card one rank higher of the opposite color (red 7 on black 8).
• Empty column: Only a King, or a run starting with a King, may fill it.
• Runs: Any face-up run in a column can move together if its bottom card fits the target.
• Foundations: An Ace starts an empty foundation; then the same suit, one rank higher.
• Reveal: When a face-down card becomes the top of a column it turns face up automatically.
• Draw: One card per draw. When the stock is empty, drawing turns the whole waste back into the stock. Passes are unlimited.
• Victory: All four foundations hold thirteen cards.

ACTIONS (move tool):
• draw - Turn a stock card, or recycle the waste
• waste_to_foundation {foundation} - Play the waste top to a foundation
• waste_to_tableau {to_column} - Play the waste top to a column
• tableau_to_foundation {column, foundation} - Play a column's top card to a foundation
• tableau_to_tableau {column, to_column, start_index} - Move a run between columns
• auto {card_id} - Send a card to its best destination under the profile's auto-move policy
• auto_foundation {card_id} - Send a card to a foundation if possible
• auto_smart {card_id} - Try a foundation first, then the tableau
• auto_aces - Move every available Ace to an empty foundation
• auto_complete - Keep moving cards to foundations until nothing moves

UNDO AND HISTORY:
• Every successful action can be undone. A new action clears the redo stack.
• new_game deals a fresh shuffle and clears history.
• Rejected actions leave the board untouched but still appear in move_history.

READING THE BOARD:
• [##] is a face-down card.
• QH#37 is the Queen of Hearts with card ID 37. Use card IDs with auto actions.
• Suits: H hearts, D diamonds (red); C clubs, S spades (black).

STRATEGY TIPS:
1. Play Aces and Twos to the foundations as soon as they appear.
2. Prefer moves that turn over face-down cards, especially in the longest columns.
3. Do not empty a column unless a King is ready to fill it.
4. Draw from the stock when no tableau move uncovers anything new.
5. Keep foundations roughly even so low cards stay available for the tableau.
6. Use describe_card when unsure where a card can go.`
