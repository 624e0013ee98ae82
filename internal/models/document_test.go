package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionPage(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to processing", PageStatusPending, PageStatusProcessing, true},
		{"pending to completed", PageStatusPending, PageStatusCompleted, true},
		{"processing to completed", PageStatusProcessing, PageStatusCompleted, true},
		{"processing to failed", PageStatusProcessing, PageStatusFailed, true},
		{"processing to pending", PageStatusProcessing, PageStatusPending, false},
		{"completed to processing", PageStatusCompleted, PageStatusProcessing, false},
		{"completed to failed", PageStatusCompleted, PageStatusFailed, false},
		{"failed to completed", PageStatusFailed, PageStatusCompleted, false},
		{"completed to pending", PageStatusCompleted, PageStatusPending, false},
		{"unknown from", "bogus", PageStatusCompleted, false},
		{"unknown to", PageStatusPending, "bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionPage(tt.from, tt.to))
		})
	}
}

func TestCanTransitionPageNeverRegresses(t *testing.T) {
	// Walk every transition sequence the pipeline can produce and verify
	// the rank never moves backward.
	order := []string{PageStatusPending, PageStatusProcessing, PageStatusCompleted, PageStatusFailed}
	for i, from := range order {
		for j, to := range order {
			if CanTransitionPage(from, to) {
				assert.Greater(t, pageRank[order[j]], pageRank[order[i]],
					"transition %s -> %s allowed but not forward", from, to)
			}
		}
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		failed int
		want   string
	}{
		{"no failures", 5, 0, StatusCompleted},
		{"all failed", 5, 5, StatusFailed},
		{"some failed", 5, 2, StatusCompletedWithErrors},
		{"single page success", 1, 0, StatusCompleted},
		{"single page failure", 1, 1, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.total, tt.failed))
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.False(t, IsTerminalStatus(StatusProcessing))
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusCompletedWithErrors))
	assert.True(t, IsTerminalStatus(StatusFailed))
	assert.True(t, IsTerminalStatus(StatusCancelled))
}
