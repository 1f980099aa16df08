// Package scores keeps finished games in SQLite: every win is appended to a
// history table and a single best-score row is maintained next to it.
//
// The best score follows a dominance rule. A stored best is kept when it is
// no slower and used no more moves than the new result; otherwise the new
// result replaces it. This means a faster game with more moves still
// replaces the best.
//
// Usage:
//
//	store, err := scores.Open("data/scores.db")
//	if err != nil {
//		log.Fatal().Err(err).Msg("open scores")
//	}
//	defer store.Close()
//
//	newBest, err := store.RecordWin(ctx, scores.Win{DealID: id, Moves: 97, ElapsedMs: 182000})
package scores
