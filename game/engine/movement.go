package engine

// DrawCard turns the top stock card onto the waste. With an empty stock it
// recycles the waste, reversed and face-down, into a new stock; that counts
// as a move. Fails only when both piles are empty.
func (e *GameEngine) DrawCard() bool {
	if len(e.state.Stock) == 0 {
		if len(e.state.Waste) == 0 {
			return false
		}
		e.pushUndo()
		s := e.state
		stock := make(Pile, len(s.Waste))
		for i, c := range s.Waste {
			c.FaceUp = false
			stock[len(s.Waste)-1-i] = c
		}
		s.Stock = stock
		s.Waste = Pile{}
		s.Moves++
		return true
	}

	e.pushUndo()
	s := e.state
	card := s.Stock[len(s.Stock)-1]
	s.Stock = s.Stock[:len(s.Stock)-1]
	card.FaceUp = true
	s.Waste = append(s.Waste, card)
	s.Moves++
	return true
}

// MoveWasteToFoundation moves the top waste card onto a foundation
func (e *GameEngine) MoveWasteToFoundation(foundationIndex int) bool {
	if !validFoundation(foundationIndex) {
		return false
	}
	s := e.state
	card, ok := s.Waste.Top()
	if !ok || !CanPlaceOnFoundation(card, s.Foundations[foundationIndex]) {
		return false
	}

	e.pushUndo()
	s.Waste = s.Waste[:len(s.Waste)-1]
	s.Foundations[foundationIndex] = append(s.Foundations[foundationIndex], card)
	s.Moves++
	e.checkWin()
	return true
}

// MoveWasteToTableau moves the top waste card onto a tableau column
func (e *GameEngine) MoveWasteToTableau(columnIndex int) bool {
	if !validColumn(columnIndex) {
		return false
	}
	s := e.state
	card, ok := s.Waste.Top()
	if !ok || !CanPlaceOnTableau(card, s.Tableau[columnIndex].TopPtr()) {
		return false
	}

	e.pushUndo()
	s.Waste = s.Waste[:len(s.Waste)-1]
	s.Tableau[columnIndex] = append(s.Tableau[columnIndex], card)
	s.Moves++
	return true
}

// MoveTableauToFoundation moves a face-up column top onto a foundation and
// reveals the card beneath it
func (e *GameEngine) MoveTableauToFoundation(columnIndex, foundationIndex int) bool {
	if !validColumn(columnIndex) || !validFoundation(foundationIndex) {
		return false
	}
	s := e.state
	card, ok := s.Tableau[columnIndex].Top()
	if !ok || !card.FaceUp || !CanPlaceOnFoundation(card, s.Foundations[foundationIndex]) {
		return false
	}

	e.pushUndo()
	column := s.Tableau[columnIndex]
	s.Tableau[columnIndex] = column[:len(column)-1]
	s.Foundations[foundationIndex] = append(s.Foundations[foundationIndex], card)
	e.revealTop(columnIndex)
	s.Moves++
	e.checkWin()
	return true
}

// MoveTableauToTableau moves the run starting at startIndex in fromColumn
// onto toColumn as a unit. Only the lead card is checked against the target;
// the rest of a face-up run was built legally earlier.
func (e *GameEngine) MoveTableauToTableau(fromColumn, toColumn, startIndex int) bool {
	if !validColumn(fromColumn) || !validColumn(toColumn) || fromColumn == toColumn {
		return false
	}
	s := e.state
	src := s.Tableau[fromColumn]
	if startIndex < 0 || startIndex >= len(src) {
		return false
	}
	lead := src[startIndex]
	if !lead.FaceUp || !CanPlaceOnTableau(lead, s.Tableau[toColumn].TopPtr()) {
		return false
	}

	e.pushUndo()
	s.Tableau[toColumn] = append(s.Tableau[toColumn], src[startIndex:]...)
	s.Tableau[fromColumn] = src[:startIndex]
	e.revealTop(fromColumn)
	s.Moves++
	e.checkWin()
	return true
}

// AutoMove sends a movable card (waste top or face-up column top) to the
// first foundation that accepts it. Under FoundationThenTableau it falls back
// to the first other column that accepts it.
func (e *GameEngine) AutoMove(cardID int, policy AutoMovePolicy) bool {
	s := e.state
	fromWaste := false
	originColumn := -1
	var card Card

	if top, ok := s.Waste.Top(); ok && top.ID == cardID {
		card = top
		fromWaste = true
	} else {
		for col := 0; col < NumColumns; col++ {
			top, ok := s.Tableau[col].Top()
			if ok && top.ID == cardID && top.FaceUp {
				card = top
				originColumn = col
				break
			}
		}
	}
	if !fromWaste && originColumn < 0 {
		return false
	}

	for f := 0; f < NumFoundations; f++ {
		if CanPlaceOnFoundation(card, s.Foundations[f]) {
			if fromWaste {
				return e.MoveWasteToFoundation(f)
			}
			return e.MoveTableauToFoundation(originColumn, f)
		}
	}

	if policy != FoundationThenTableau {
		return false
	}

	for col := 0; col < NumColumns; col++ {
		if col == originColumn {
			continue
		}
		if CanPlaceOnTableau(card, s.Tableau[col].TopPtr()) {
			if fromWaste {
				return e.MoveWasteToTableau(col)
			}
			return e.MoveTableauToTableau(originColumn, col, len(s.Tableau[originColumn])-1)
		}
	}
	return false
}

// AutoMoveCard is AutoMove restricted to foundations
func (e *GameEngine) AutoMoveCard(cardID int) bool {
	return e.AutoMove(cardID, FoundationOnly)
}

// AutoMoveSmart is AutoMove with the tableau fallback
func (e *GameEngine) AutoMoveSmart(cardID int) bool {
	return e.AutoMove(cardID, FoundationThenTableau)
}

// AutoComplete greedily moves face-up column tops to the foundations,
// restarting from column 0 after every move. It ignores the waste and never
// looks under hidden cards, so a winnable deal may stay partly unsolved.
func (e *GameEngine) AutoComplete() bool {
	changed := false
	for e.moveFirstTableauTop(func(Card) bool { return true }) {
		changed = true
	}
	return changed
}

// AutoMoveAces repeatedly sends aces to the foundations: the waste top first,
// then column tops in order, one move per pass
func (e *GameEngine) AutoMoveAces() bool {
	isAce := func(c Card) bool { return c.Rank == Ace }
	changed := false
	for {
		if top, ok := e.state.Waste.Top(); ok && top.FaceUp && isAce(top) {
			if f := firstFoundationFor(e.state, top); f >= 0 && e.MoveWasteToFoundation(f) {
				changed = true
				continue
			}
		}
		if !e.moveFirstTableauTop(isAce) {
			return changed
		}
		changed = true
	}
}

// moveFirstTableauTop performs one tableau-to-foundation move for the first
// face-up column top matching accept. Reports whether a move happened.
func (e *GameEngine) moveFirstTableauTop(accept func(Card) bool) bool {
	for col := 0; col < NumColumns; col++ {
		top, ok := e.state.Tableau[col].Top()
		if !ok || !top.FaceUp || !accept(top) {
			continue
		}
		if f := firstFoundationFor(e.state, top); f >= 0 {
			return e.MoveTableauToFoundation(col, f)
		}
	}
	return false
}

// firstFoundationFor returns the lowest foundation index accepting card, or -1
func firstFoundationFor(state *GameState, card Card) int {
	for f := 0; f < NumFoundations; f++ {
		if CanPlaceOnFoundation(card, state.Foundations[f]) {
			return f
		}
	}
	return -1
}

// revealTop turns the top card of a column face-up
func (e *GameEngine) revealTop(columnIndex int) {
	column := e.state.Tableau[columnIndex]
	if len(column) > 0 && !column[len(column)-1].FaceUp {
		column[len(column)-1].FaceUp = true
	}
}

func validFoundation(i int) bool {
	return i >= 0 && i < NumFoundations
}

func validColumn(i int) bool {
	return i >= 0 && i < NumColumns
}
