package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterviewCode(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^INT-2025-[A-Z0-9]{4}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewInterviewCode(now)
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "postgresql", "docker"}, SplitList(" Go, PostgreSQL ,, docker "))
	assert.Nil(t, SplitList("  "))
}

func TestDecisions(t *testing.T) {
	for _, d := range []string{"Pending", "Selected", "Rejected", "On-Hold"} {
		assert.True(t, ValidDecision(d), d)
	}
	assert.False(t, ValidDecision("Hired"))
	assert.False(t, ValidDecision("selected"))

	status, ok := ApplicationStatusForDecision(DecisionSelected)
	assert.True(t, ok)
	assert.Equal(t, StatusHired, status)

	status, ok = ApplicationStatusForDecision(DecisionRejected)
	assert.True(t, ok)
	assert.Equal(t, StatusRejected, status)

	_, ok = ApplicationStatusForDecision(DecisionOnHold)
	assert.False(t, ok)
}

func TestInterviewIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	iv := &Interview{ExpiresAt: &past}
	assert.True(t, iv.IsExpired(now))
	assert.False(t, (&Interview{}).IsExpired(now))
}
