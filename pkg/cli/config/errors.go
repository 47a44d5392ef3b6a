package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrQuestionSetNotFound = goerr.New("question set file not found")
	ErrInvalidQuestionSet  = goerr.New("invalid question set")
	ErrMissingQuestionText = goerr.New("question text is required")
	ErrInvalidDifficulty   = goerr.New("invalid difficulty tag")
)

// Context keys for error values
const (
	QuestionSetPathKey = "question_set_path"
	QuestionIndexKey   = "question_index"
	DifficultyKey      = "difficulty"
)
