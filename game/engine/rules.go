package engine

// CanPlaceOnTableau reports whether card may be placed on target. A nil
// target is an empty column, which only accepts a King.
func CanPlaceOnTableau(card Card, target *Card) bool {
	if target == nil {
		return card.Rank == King
	}
	return card.IsRed() != target.IsRed() && card.Rank == target.Rank-1
}

// CanPlaceOnFoundation reports whether card may be placed on foundation.
// An empty foundation only accepts an Ace; otherwise the card must follow
// the top card in the same suit.
func CanPlaceOnFoundation(card Card, foundation Pile) bool {
	top, ok := foundation.Top()
	if !ok {
		return card.Rank == Ace
	}
	return card.Suit == top.Suit && card.Rank == top.Rank+1
}
