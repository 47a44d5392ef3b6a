package types

// Difficulty is an optional tag on an evaluation question, used to bucket
// aggregate scores. Empty means untagged.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid checks if the difficulty is valid. Empty is allowed.
func (d Difficulty) IsValid() bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// String returns the string representation of the difficulty
func (d Difficulty) String() string {
	return string(d)
}
