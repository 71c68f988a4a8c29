package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cardquest/internal/cards"
)

func TestDrawUpTo_NeverExceedsLimit(t *testing.T) {
	newID := seqIDs()
	var hand []HandCard
	for i := 0; i < 5; i++ {
		hand = append(hand, HandCard{Instance: newID(), CardID: "slash", Slot: cards.KindAttack})
	}

	hand = drawUpTo(hand, []string{"jab"}, cards.KindAttack, 7, 7, NewRand(1), newID)
	assert.Len(t, hand, 7)

	hand = drawUpTo(hand, []string{"jab"}, cards.KindAttack, 7, 7, NewRand(1), newID)
	assert.Len(t, hand, 7)

	hand = drawUpTo(hand, []string{"guard"}, cards.KindAction, 3, 1, NewRand(1), newID)
	assert.Equal(t, 1, countSlot(hand, cards.KindAction))
}

func TestDrawUpTo_EmptyPool(t *testing.T) {
	hand := drawUpTo(nil, nil, cards.KindAttack, 7, 7, NewRand(1), seqIDs())
	assert.Empty(t, hand)
}

func TestTopUp_AllowsDuplicates(t *testing.T) {
	hand := topUp(nil, Pools{Attack: []string{"slash"}, Action: []string{"guard"}}, 7, 3, NewRand(1), seqIDs())
	assert.Len(t, hand, 10)

	ids := map[string]bool{}
	for _, hc := range hand {
		ids[hc.Instance] = true
	}
	assert.Len(t, ids, 10)
}

func TestDeal_FillsSlotsFromSmallPools(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		hand := deal(Pools{Attack: []string{"bite", "rake"}, Action: []string{"guard"}}, 3, 2, NewRand(seed), seqIDs())
		assert.Len(t, hand, 5)
		assert.Equal(t, 3, countSlot(hand, cards.KindAttack))
		assert.Equal(t, 2, countSlot(hand, cards.KindAction))
		for _, hc := range hand {
			if hc.Slot == cards.KindAttack {
				assert.Contains(t, []string{"bite", "rake"}, hc.CardID)
			} else {
				assert.Equal(t, "guard", hc.CardID)
			}
		}
	}

	hand := deal(Pools{Attack: []string{"bite"}}, 2, 1, NewRand(1), seqIDs())
	assert.Len(t, hand, 2, "an empty action pool leaves its slots empty")
}
