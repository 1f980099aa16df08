package mcp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/klondike-solitaire-game/game/engine"
	"github.com/wricardo/klondike-solitaire-game/game/service"
)

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nUndo: %t | Redo: %t\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.CanUndo, session.CanRedo,
		formatGameState(session.GameState))
}

func formatElapsed(ms int64) string {
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// formatCard renders a face-up card with its ID, or [##] when face down
func formatCard(c engine.Card) string {
	if !c.FaceUp {
		return "[##]"
	}
	return fmt.Sprintf("%s#%d", c, c.ID)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deal: %s | Moves: %d | Time: %s | Foundations: %d/%d\n\n",
		state.DealID, state.Moves, formatElapsed(state.ElapsedMs),
		engine.FoundationCount(state), engine.DeckSize)

	fmt.Fprintf(&b, "Stock: %d", len(state.Stock))
	if top, ok := state.Waste.Top(); ok {
		fmt.Fprintf(&b, " | Waste: %s (%d cards)\n", formatCard(top), len(state.Waste))
	} else {
		b.WriteString(" | Waste: --\n")
	}

	b.WriteString("Foundations:")
	for i, f := range state.Foundations {
		if top, ok := f.Top(); ok {
			fmt.Fprintf(&b, "  F%d: %s", i, formatCard(top))
		} else {
			fmt.Fprintf(&b, "  F%d: --", i)
		}
	}
	b.WriteString("\n\nTableau:\n")

	for i, column := range state.Tableau {
		fmt.Fprintf(&b, "  %d:", i)
		if len(column) == 0 {
			b.WriteString(" (empty)")
		}
		for _, card := range column {
			b.WriteString(" " + formatCard(card))
		}
		b.WriteString("\n")
	}

	if state.Won {
		b.WriteString("\n🎉 VICTORY! All foundations complete.")
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	response := ""
	if result.Success {
		response = fmt.Sprintf("✓ %s successful", result.Action)
	} else {
		response = fmt.Sprintf("✗ %s rejected", result.Action)
	}
	if result.Message != "" {
		response += ": " + result.Message
	}
	response += "\n"

	if result.MovesDelta != 0 {
		response += fmt.Sprintf("Moves: %+d\n", result.MovesDelta)
	}
	if result.NewBest {
		response += "🏆 New best score!\n"
	}

	if len(result.Events) > 0 {
		response += "Events:\n"
		for _, event := range result.Events {
			response += fmt.Sprintf("- %s: %s\n", event.Type, event.Message)
		}
	}

	response += fmt.Sprintf("Undo: %t | Redo: %t\n", result.CanUndo, result.CanRedo)
	response += "\n" + formatGameState(result.GameState)
	return response
}

func formatHistory(history *service.HistoryResponse) string {
	result := fmt.Sprintf("Move History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		result += fmt.Sprintf("%d. %s%s %s [Moves: %d]\n",
			move.Seq, move.Action, describeRequest(move.Request), status, move.Moves)
	}

	if len(history.Moves) == 0 {
		result += "(no moves)\n"
	}
	return result
}

// describeRequest summarizes the arguments that matter for an action
func describeRequest(req service.MoveRequest) string {
	switch req.Action {
	case service.ActionWasteToFoundation:
		return fmt.Sprintf(" -> F%d", req.Foundation)
	case service.ActionWasteToTableau:
		return fmt.Sprintf(" -> col %d", req.ToColumn)
	case service.ActionTableauToFoundation:
		return fmt.Sprintf(" col %d -> F%d", req.Column, req.Foundation)
	case service.ActionTableauToTableau:
		if req.StartIndex != nil {
			return fmt.Sprintf(" col %d[%d] -> col %d", req.Column, *req.StartIndex, req.ToColumn)
		}
		return fmt.Sprintf(" col %d -> col %d", req.Column, req.ToColumn)
	case service.ActionAuto, service.ActionAutoFoundation, service.ActionAutoSmart:
		if req.CardID != 0 {
			return fmt.Sprintf(" card #%d", req.CardID)
		}
	}
	return ""
}

func formatLeaderboard(wins []service.LeaderboardEntry) string {
	if len(wins) == 0 {
		return "Leaderboard: no wins recorded yet"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Leaderboard (%d wins):\n\n", len(wins))
	for i, w := range wins {
		fmt.Fprintf(&b, "%d. %s - %d moves (session %s, deal %s, %s)\n",
			i+1, formatElapsed(w.ElapsedMs), w.Moves, w.SessionID, w.DealID,
			w.WonAt.Format("2006-01-02"))
	}
	return b.String()
}

// parseCardName parses names like "QH", "10s" or "AS"
func parseCardName(name string) (engine.Suit, engine.Rank, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) < 2 {
		return "", 0, fmt.Errorf("invalid card name %q", name)
	}

	var suit engine.Suit
	switch name[len(name)-1] {
	case 'H':
		suit = engine.Hearts
	case 'D':
		suit = engine.Diamonds
	case 'C':
		suit = engine.Clubs
	case 'S':
		suit = engine.Spades
	default:
		return "", 0, fmt.Errorf("invalid suit in card name %q", name)
	}

	var rank engine.Rank
	switch r := name[:len(name)-1]; r {
	case "A":
		rank = engine.Ace
	case "J":
		rank = engine.Jack
	case "Q":
		rank = engine.Queen
	case "K":
		rank = engine.King
	default:
		n, err := strconv.Atoi(r)
		if err != nil || n < 2 || n > 10 {
			return "", 0, fmt.Errorf("invalid rank in card name %q", name)
		}
		rank = engine.Rank(n)
	}
	return suit, rank, nil
}

// findCardID resolves a card name or numeric ID to a card ID in state
func findCardID(state *engine.GameState, name string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		return id, nil
	}
	suit, rank, err := parseCardName(name)
	if err != nil {
		return 0, err
	}

	piles := []engine.Pile{state.Stock, state.Waste}
	piles = append(piles, state.Foundations[:]...)
	piles = append(piles, state.Tableau[:]...)
	for _, pile := range piles {
		for _, c := range pile {
			if c.Suit == suit && c.Rank == rank {
				return c.ID, nil
			}
		}
	}
	return 0, fmt.Errorf("card %s not found", name)
}

// describeCard reports a card's location and its legal destinations
func describeCard(state *engine.GameState, name string) (string, error) {
	id, err := findCardID(state, name)
	if err != nil {
		return "", err
	}
	loc, ok := engine.LocateCard(state, id)
	if !ok {
		return "", fmt.Errorf("card #%d not found", id)
	}
	if !loc.Card.FaceUp {
		return fmt.Sprintf("Card #%d is face down and cannot be played yet.", id), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Card: %s\n", formatCard(loc.Card))

	var pile engine.Pile
	switch loc.Kind {
	case engine.PileWaste:
		pile = state.Waste
		b.WriteString("Location: waste")
	case engine.PileFoundation:
		pile = state.Foundations[loc.Index]
		fmt.Fprintf(&b, "Location: foundation F%d", loc.Index)
	case engine.PileTableau:
		pile = state.Tableau[loc.Index]
		fmt.Fprintf(&b, "Location: tableau column %d, position %d", loc.Index, loc.Position)
	default:
		pile = state.Stock
		b.WriteString("Location: stock")
	}
	onTop := loc.Position == len(pile)-1
	if onTop {
		b.WriteString(" (top)\n")
	} else {
		fmt.Fprintf(&b, " (%d cards above)\n", len(pile)-1-loc.Position)
	}

	// Only the waste top and tableau runs are playable
	playable := (loc.Kind == engine.PileWaste && onTop) ||
		(loc.Kind == engine.PileTableau && isRun(pile[loc.Position:]))
	if !playable {
		b.WriteString("Playable: no\n")
		return b.String(), nil
	}

	var targets []string
	if onTop {
		for i, f := range state.Foundations {
			if engine.CanPlaceOnFoundation(loc.Card, f) {
				targets = append(targets, fmt.Sprintf("foundation F%d", i))
			}
		}
	}
	for i, column := range state.Tableau {
		if loc.Kind == engine.PileTableau && loc.Index == i {
			continue
		}
		if engine.CanPlaceOnTableau(loc.Card, column.TopPtr()) {
			targets = append(targets, fmt.Sprintf("tableau column %d", i))
		}
	}

	if len(targets) == 0 {
		b.WriteString("Legal destinations: none\n")
	} else {
		fmt.Fprintf(&b, "Legal destinations: %s\n", strings.Join(targets, ", "))
	}
	return b.String(), nil
}

// isRun reports whether cards form a face-up, alternating-color, descending run
func isRun(cards engine.Pile) bool {
	for i, c := range cards {
		if !c.FaceUp {
			return false
		}
		if i > 0 && !engine.CanPlaceOnTableau(c, &cards[i-1]) {
			return false
		}
	}
	return true
}
