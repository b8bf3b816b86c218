package game

// RNG is the randomness the rules consume. *math/rand.Rand satisfies it.
// Intn must return a value in [0, n).
type RNG interface {
	Intn(n int) int
}
