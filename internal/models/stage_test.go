package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageSequenceOrder(t *testing.T) {
	assert.Len(t, StageSequence, 13)
	assert.Equal(t, StageDesignProposal, StageSequence[0])
	assert.Equal(t, StageDelivery, StageSequence[len(StageSequence)-1])

	for i, stage := range StageSequence {
		assert.Equal(t, i, StageIndex(stage), "stage %s", stage)
	}
}

func TestIsValidStage(t *testing.T) {
	for _, stage := range StageSequence {
		assert.True(t, IsValidStage(stage))
	}
	assert.False(t, IsValidStage("Shipped"))
	assert.False(t, IsValidStage(""))
	assert.False(t, IsValidStage("designproposal"))
}

func TestParseStage(t *testing.T) {
	stage, err := ParseStage("QualityControl")
	assert.NoError(t, err)
	assert.Equal(t, StageQualityControl, stage)

	_, err = ParseStage("Unknown")
	assert.Error(t, err)
}

func TestIsForwardTransition(t *testing.T) {
	assert.True(t, IsForwardTransition(StageDesignProposal, StageMeasurements))
	assert.True(t, IsForwardTransition(StageCutting, StageSewing))
	assert.True(t, IsForwardTransition(StageDesignProposal, StageDelivery))

	// Same stage is not a forward move.
	assert.False(t, IsForwardTransition(StageSewing, StageSewing))

	// Backward moves are rejected regardless of distance.
	assert.False(t, IsForwardTransition(StageDelivery, StageShip))
	assert.False(t, IsForwardTransition(StageMeasurements, StageDesignProposal))

	// Unknown stages are never a forward move in either position.
	assert.False(t, IsForwardTransition(OrderStage("Bogus"), StageSewing))
	assert.False(t, IsForwardTransition(StageSewing, OrderStage("Bogus")))
}

func TestIsTerminalStage(t *testing.T) {
	assert.True(t, IsTerminalStage(StageDelivery))
	for _, stage := range StageSequence[:len(StageSequence)-1] {
		assert.False(t, IsTerminalStage(stage), "stage %s", stage)
	}
}

func TestNextStages(t *testing.T) {
	next := NextStages(StageShip)
	assert.Equal(t, []OrderStage{StageDelivery}, next)

	assert.Empty(t, NextStages(StageDelivery))
	assert.Empty(t, NextStages(OrderStage("Bogus")))

	fromStart := NextStages(StageDesignProposal)
	assert.Len(t, fromStart, 12)
	assert.Equal(t, StageProofApproval, fromStart[0])
}
