package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
)

// QuestionSet is the TOML representation of an evaluation question set
type QuestionSet struct {
	Questions []QuestionEntry `toml:"question"`
}

// QuestionEntry is one question record
type QuestionEntry struct {
	Text       string `toml:"text"`
	Reference  string `toml:"reference"`
	Difficulty string `toml:"difficulty"`
}

// Validate checks if the QuestionEntry is valid
func (q *QuestionEntry) Validate() error {
	if q.Text == "" {
		return goerr.Wrap(ErrMissingQuestionText, "question entry has no text")
	}
	if !types.Difficulty(q.Difficulty).IsValid() {
		return goerr.Wrap(ErrInvalidDifficulty, "unknown difficulty",
			goerr.V(DifficultyKey, q.Difficulty))
	}
	return nil
}

// Validate checks if the QuestionSet is valid
func (s *QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return goerr.Wrap(ErrInvalidQuestionSet, "question set has no questions")
	}
	for i, q := range s.Questions {
		if err := q.Validate(); err != nil {
			return goerr.Wrap(err, "invalid question entry", goerr.V(QuestionIndexKey, i))
		}
	}
	return nil
}

// ToModel converts the set into domain questions, preserving file order
func (s *QuestionSet) ToModel() []model.Question {
	questions := make([]model.Question, len(s.Questions))
	for i, q := range s.Questions {
		questions[i] = model.Question{
			Text:       q.Text,
			Reference:  q.Reference,
			Difficulty: types.Difficulty(q.Difficulty),
		}
	}
	return questions
}

// LoadQuestionSet reads and validates a TOML question set file
func LoadQuestionSet(path string) (*QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrQuestionSetNotFound, "cannot open question set",
				goerr.V(QuestionSetPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read question set",
			goerr.V(QuestionSetPathKey, path))
	}

	var set QuestionSet
	if err := toml.Unmarshal(data, &set); err != nil {
		return nil, goerr.Wrap(ErrInvalidQuestionSet, "failed to parse question set",
			goerr.V(QuestionSetPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := set.Validate(); err != nil {
		return nil, goerr.Wrap(err, "question set validation failed",
			goerr.V(QuestionSetPathKey, path))
	}

	return &set, nil
}
