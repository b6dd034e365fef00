package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusNext(t *testing.T) {
	next, ok := StatusSamplePending.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusSampleProcessing, next)

	next, ok = StatusSampleProcessing.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusReportProcessing, next)

	next, ok = StatusReportProcessing.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusVerified, next)

	_, ok = StatusVerified.Next()
	assert.False(t, ok, "VERIFIED is terminal")
}

func TestOrderStatusCanTransitionTo(t *testing.T) {
	assert.True(t, StatusSamplePending.CanTransitionTo(StatusSampleProcessing))
	assert.True(t, StatusReportProcessing.CanTransitionTo(StatusVerified))

	// Skipping a stage is not allowed.
	assert.False(t, StatusSamplePending.CanTransitionTo(StatusReportProcessing))
	assert.False(t, StatusSamplePending.CanTransitionTo(StatusVerified))

	// Neither is going backwards or standing still.
	assert.False(t, StatusSampleProcessing.CanTransitionTo(StatusSamplePending))
	assert.False(t, StatusVerified.CanTransitionTo(StatusVerified))
	assert.False(t, StatusVerified.CanTransitionTo(StatusSamplePending))
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, ValidOrderStatus(s))
	}
	assert.False(t, ValidOrderStatus("CANCELLED"))
	assert.False(t, ValidOrderStatus(""))
}

func TestValidSampleStatus(t *testing.T) {
	assert.True(t, ValidSampleStatus(SamplePending))
	assert.True(t, ValidSampleStatus(SampleRejected))
	assert.False(t, ValidSampleStatus("LOST"))
}
