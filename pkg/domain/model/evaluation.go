package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

// Question is one entry of an evaluation question set
type Question struct {
	Text       string
	Reference  string // optional expected-answer characteristics
	Difficulty types.Difficulty
}

// JudgeScoreMin and JudgeScoreMax bound the judge scale. A record outside
// this range is a failed judgement, not a low score.
const (
	JudgeScoreMin = 1
	JudgeScoreMax = 5
)

// FailureScore is the sentinel recorded when answering or judging a single
// question failed. It is excluded from score aggregation.
const FailureScore = 0

// EvaluationRecord is the immutable outcome for one question of an
// evaluation run
type EvaluationRecord struct {
	Question         Question
	Answer           string
	Mode             types.PipelineMode
	Score            int
	Rationale        string
	SupportingChunks []ChunkID
	Elapsed          time.Duration
	Failed           bool
	FailureReason    string
}

// RunID identifies one evaluation run
type RunID string

// NewRunID generates a new UUID v4 RunID
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// Report is the completed sequence of evaluation records for one run, in
// question-set order
type Report struct {
	ID        RunID
	Mode      types.PipelineMode
	StartedAt time.Time
	Records   []EvaluationRecord
}

// Summary is a pure aggregation over a report's records
type Summary struct {
	Total        int
	Failed       int
	MeanScore    float64
	ByDifficulty map[types.Difficulty]float64
}

// Summarize computes aggregate scores. Failed records count toward Total
// and Failed but are excluded from every mean. Recomputable at any time
// from the records alone.
func (r *Report) Summarize() Summary {
	s := Summary{
		Total:        len(r.Records),
		ByDifficulty: make(map[types.Difficulty]float64),
	}

	var sum int
	var scored int
	bucketSum := make(map[types.Difficulty]int)
	bucketCount := make(map[types.Difficulty]int)

	for _, rec := range r.Records {
		if rec.Failed {
			s.Failed++
			continue
		}
		sum += rec.Score
		scored++
		bucketSum[rec.Question.Difficulty] += rec.Score
		bucketCount[rec.Question.Difficulty]++
	}

	if scored > 0 {
		s.MeanScore = float64(sum) / float64(scored)
	}
	for d, n := range bucketCount {
		s.ByDifficulty[d] = float64(bucketSum[d]) / float64(n)
	}

	return s
}
