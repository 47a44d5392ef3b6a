package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/papyrus-lab/alexandria/pkg/domain/model"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
	"github.com/papyrus-lab/alexandria/pkg/utils/logging"
)

//go:embed prompt/judge.md
var judgePromptTmpl string

var judgePrompt = template.Must(template.New("judge").Parse(judgePromptTmpl))

// Evaluate runs every question through the selected pipeline and scores
// each generated answer with a judge LLM call. A failure on one question
// never voids the run: the record is flagged with the failure sentinel and
// the remaining questions proceed. The report always holds exactly one
// record per question, in question-set order.
func (uc *UseCases) Evaluate(ctx context.Context, questions []model.Question, mode types.PipelineMode) (*model.Report, error) {
	if len(questions) == 0 {
		return nil, goerr.New("question set is empty")
	}
	if !mode.IsValid() {
		return nil, goerr.New("invalid pipeline mode", goerr.V("mode", mode))
	}

	logger := logging.From(ctx)
	report := &model.Report{
		ID:        model.NewRunID(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
		Records:   make([]model.EvaluationRecord, 0, len(questions)),
	}

	for i, q := range questions {
		record := uc.evaluateOne(ctx, q, mode)
		if record.Failed {
			logger.Warn("question failed, continuing",
				"index", i,
				types.QuestionKey, q.Text,
				"reason", record.FailureReason,
			)
		} else {
			logger.Info("question scored",
				"index", i,
				"score", record.Score,
				"elapsed", record.Elapsed,
			)
		}
		report.Records = append(report.Records, record)
	}

	return report, nil
}

func (uc *UseCases) evaluateOne(ctx context.Context, q model.Question, mode types.PipelineMode) model.EvaluationRecord {
	record := model.EvaluationRecord{
		Question: q,
		Mode:     mode,
	}

	answer, err := uc.Ask(ctx, q.Text, mode)
	if err != nil {
		record.Failed = true
		record.Score = model.FailureScore
		record.FailureReason = err.Error()
		return record
	}

	record.Answer = answer.Text
	record.Elapsed = answer.Elapsed
	for _, sc := range answer.SupportingChunks {
		record.SupportingChunks = append(record.SupportingChunks, sc.Chunk.ID)
	}

	score, rationale, err := uc.judge(ctx, q, answer.Text)
	if err != nil {
		record.Failed = true
		record.Score = model.FailureScore
		record.FailureReason = err.Error()
		return record
	}

	record.Score = score
	record.Rationale = rationale
	return record
}

type judgeResponse struct {
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// judge asks a separate LLM call to score one generated answer. Output is
// constrained to a strict schema and fails closed on anything unparsable —
// garbage is never treated as a score.
func (uc *UseCases) judge(ctx context.Context, q model.Question, answer string) (int, string, error) {
	var buf bytes.Buffer
	if err := judgePrompt.Execute(&buf, map[string]any{
		"Question":  q.Text,
		"Reference": q.Reference,
		"Answer":    answer,
	}); err != nil {
		return 0, "", goerr.Wrap(err, "failed to render judge prompt")
	}

	session, err := uc.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(judgeSchema()),
	)
	if err != nil {
		return 0, "", goerr.Wrap(types.ErrGeneration, "failed to create judge session",
			goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buf.String()))
	if err != nil {
		return 0, "", goerr.Wrap(types.ErrGeneration, "judge request failed",
			goerr.V(types.QuestionKey, q.Text), goerr.V("cause", err.Error()))
	}
	if len(resp.Texts) == 0 {
		return 0, "", goerr.Wrap(types.ErrGeneration, "judge returned no content",
			goerr.V(types.QuestionKey, q.Text))
	}

	var parsed judgeResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &parsed); err != nil {
		return 0, "", goerr.Wrap(types.ErrGeneration, "failed to parse judge response",
			goerr.V("response", resp.Texts[0]))
	}
	if parsed.Score < model.JudgeScoreMin || parsed.Score > model.JudgeScoreMax {
		return 0, "", goerr.Wrap(types.ErrGeneration, "judge score out of range",
			goerr.V("score", parsed.Score))
	}

	return parsed.Score, parsed.Rationale, nil
}

func judgeSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "JudgeVerdict",
		Description: "Score and rationale for one generated answer",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"score": {
				Type:        gollem.TypeInteger,
				Description: "Integer score from 1 (worst) to 5 (best)",
				Required:    true,
			},
			"rationale": {
				Type:        gollem.TypeString,
				Description: "One or two sentences explaining the score",
				Required:    true,
			},
		},
	}
}
