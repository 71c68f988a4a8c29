package combat

import "cardquest/internal/cards"

func countSlot(hand []HandCard, slot cards.Kind) int {
	n := 0
	for _, hc := range hand {
		if hc.Slot == slot {
			n++
		}
	}
	return n
}

// drawUpTo draws up to requested cards of one slot kind from pool,
// uniformly and with replacement, without taking the slot past limit.
func drawUpTo(hand []HandCard, pool []string, slot cards.Kind, limit, requested int, rng Rand, newID func() string) []HandCard {
	if len(pool) == 0 {
		return hand
	}
	n := min(requested, limit-countSlot(hand, slot))
	for i := 0; i < n; i++ {
		hand = append(hand, HandCard{
			Instance: newID(),
			CardID:   pool[rng.IntN(len(pool))],
			Slot:     slot,
		})
	}
	return hand
}

// topUp fills the missing attack and action slots of a hand.
func topUp(hand []HandCard, pools Pools, attackSlots, actionSlots int, rng Rand, newID func() string) []HandCard {
	hand = drawUpTo(hand, pools.Attack, cards.KindAttack, attackSlots, attackSlots, rng, newID)
	return drawUpTo(hand, pools.Action, cards.KindAction, actionSlots, actionSlots, rng, newID)
}

// deal builds a fresh hand of exactly the slot counts, drawing each card
// from its pool with replacement.
func deal(pools Pools, attackSlots, actionSlots int, rng Rand, newID func() string) []HandCard {
	return topUp(nil, pools, attackSlots, actionSlots, rng, newID)
}
