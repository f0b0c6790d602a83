package verification

import (
	"math/rand"
)

// emojiCategories are the pick pools for the challenge message
var emojiCategories = map[string][]string{
	"colors":  {"🟥", "🟧", "🟨", "🟩", "🟦", "🟪", "⬛", "⬜", "🟫"},
	"symbols": {"⭐", "⚡", "❄️", "🔥", "💧", "☘️", "🎯", "🎲", "🔔"},
	"animals": {"🐶", "🐱", "🐭", "🦊", "🐻", "🐼", "🐨", "🐸", "🐵"},
}

const challengeSize = 3

// EmojiCategories lists the available pool names
func EmojiCategories() (names []string) {
	for name := range emojiCategories {
		names = append(names, name)
	}
	return names
}

// BuildChallenge picks a shuffled emoji subset from the category pool
// and marks one of them as the correct answer. Unknown categories fall
// back to the colors pool.
func BuildChallenge(category string) (emojis []string, correct string) {
	pool, ok := emojiCategories[category]
	if !ok {
		pool = emojiCategories["colors"]
	}

	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	emojis = shuffled[:challengeSize]
	correct = emojis[rand.Intn(challengeSize)]
	return emojis, correct
}
