package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/papyrus-lab/alexandria/pkg/domain/types"
)

func TestParsePipelineMode(t *testing.T) {
	for _, mode := range types.AllPipelineModes() {
		parsed, err := types.ParsePipelineMode(mode.String())
		gt.NoError(t, err)
		gt.Value(t, parsed).Equal(mode)
	}

	_, err := types.ParsePipelineMode("hybrid")
	gt.Error(t, err)

	_, err = types.ParsePipelineMode("")
	gt.Error(t, err)
}

func TestDifficultyIsValid(t *testing.T) {
	gt.Bool(t, types.Difficulty("").IsValid()).True()
	gt.Bool(t, types.DifficultyMedium.IsValid()).True()
	gt.Bool(t, types.Difficulty("extreme").IsValid()).False()
}
