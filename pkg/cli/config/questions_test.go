package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/papyrus-lab/alexandria/pkg/cli/config"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

func writeQuestionSet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadQuestionSet(t *testing.T) {
	path := writeQuestionSet(t, `
[[question]]
text = "How did profit change?"
reference = "Profit rose 5% year over year"
difficulty = "easy"

[[question]]
text = "What are the strategic risks?"
difficulty = "hard"

[[question]]
text = "Who is the CEO?"
`)

	set, err := config.LoadQuestionSet(path)
	gt.NoError(t, err).Required()
	gt.A(t, set.Questions).Length(3)

	questions := set.ToModel()
	gt.Value(t, questions[0].Text).Equal("How did profit change?")
	gt.Value(t, questions[0].Reference).Equal("Profit rose 5% year over year")
	gt.Value(t, questions[0].Difficulty).Equal(types.DifficultyEasy)
	gt.Value(t, questions[1].Difficulty).Equal(types.DifficultyHard)
	gt.Value(t, questions[2].Difficulty).Equal(types.Difficulty(""))
}

func TestLoadQuestionSetNotFound(t *testing.T) {
	_, err := config.LoadQuestionSet(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Bool(t, errors.Is(err, config.ErrQuestionSetNotFound)).True()
}

func TestLoadQuestionSetInvalidTOML(t *testing.T) {
	path := writeQuestionSet(t, `this is not toml [[[`)

	_, err := config.LoadQuestionSet(path)
	gt.Bool(t, errors.Is(err, config.ErrInvalidQuestionSet)).True()
}

func TestLoadQuestionSetEmpty(t *testing.T) {
	path := writeQuestionSet(t, `# no questions here`)

	_, err := config.LoadQuestionSet(path)
	gt.Bool(t, errors.Is(err, config.ErrInvalidQuestionSet)).True()
}

func TestLoadQuestionSetMissingText(t *testing.T) {
	path := writeQuestionSet(t, `
[[question]]
reference = "something"
`)

	_, err := config.LoadQuestionSet(path)
	gt.Bool(t, errors.Is(err, config.ErrMissingQuestionText)).True()
}

func TestLoadQuestionSetInvalidDifficulty(t *testing.T) {
	path := writeQuestionSet(t, `
[[question]]
text = "How did profit change?"
difficulty = "impossible"
`)

	_, err := config.LoadQuestionSet(path)
	gt.Bool(t, errors.Is(err, config.ErrInvalidDifficulty)).True()
}
