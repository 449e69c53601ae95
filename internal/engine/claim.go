package engine

import "fmt"

// ValidateClaim checks a claimed win against the card and the session's
// committed draw history. Every step must pass:
//
//  1. every claimed number (free marker aside) is marked on the card,
//  2. every claimed number has actually been drawn,
//  3. the claimed pattern re-derives as complete from the card grid.
//
// Any failure yields ErrInvalidClaim and the caller must reject the claim
// without side effects.
func ValidateClaim(card *Card, pattern Pattern, numbers []int, drawn []DrawnNumber) error {
	if card == nil {
		return fmt.Errorf("%w: no card", ErrInvalidClaim)
	}
	if !KnownPattern(pattern) {
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidClaim, pattern)
	}
	if len(numbers) == 0 {
		return fmt.Errorf("%w: no winning numbers", ErrInvalidClaim)
	}

	drawnSet := make(map[int]bool, len(drawn))
	for _, d := range drawn {
		drawnSet[d.Number] = true
	}

	for _, n := range numbers {
		if n == FreeNumber {
			continue
		}
		if !card.IsNumberMarked(n) {
			return fmt.Errorf("%w: number %d is not marked", ErrInvalidClaim, n)
		}
		if !drawnSet[n] {
			return fmt.Errorf("%w: number %d was never drawn", ErrInvalidClaim, n)
		}
	}

	if _, ok := PatternComplete(card, pattern); !ok {
		return fmt.Errorf("%w: pattern %s is not complete", ErrInvalidClaim, pattern)
	}

	return nil
}
