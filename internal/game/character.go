package game

import (
	"crypto/rand"
	"encoding/binary"
)

// RollStats rolls a fresh character: 2d6 strength and luck, 2d6+6 health.
func RollStats() Stats {
	s, _ := RollStatsDetailed()
	return s
}

// RollStatsDetailed is RollStats that also returns the individual dice,
// in strength, luck, health order.
func RollStatsDetailed() (Stats, [3][2]int) {
	var dice [3][2]int
	for i := range dice {
		dice[i] = [2]int{d6(), d6()}
	}
	return Stats{
		Strength: dice[0][0] + dice[0][1],
		Luck:     dice[1][0] + dice[1][1],
		Health:   dice[2][0] + dice[2][1] + 6,
	}, dice
}

func roll2d6() int {
	return d6() + d6()
}

func d6() int {
	var b [8]byte
	_, _ = rand.Read(b[:])
	n := binary.LittleEndian.Uint64(b[:])
	return int(n%6) + 1
}
