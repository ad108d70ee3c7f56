package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestContextFields(t *testing.T) {
	entry := WithRequestContext("req-1", "run-1")
	assert.Equal(t, "req-1", entry.Data["request_id"])
	assert.Equal(t, "run-1", entry.Data["run_id"])
}

func TestWithPoolContextFields(t *testing.T) {
	entry := WithPoolContext("run-2", 14)
	assert.Equal(t, "run-2", entry.Data["run_id"])
	assert.Equal(t, 14, entry.Data["pool_size"])
}

func TestWithBalanceContextFields(t *testing.T) {
	entry := WithBalanceContext("run-3", "snake_draft")
	assert.Equal(t, "run-3", entry.Data["run_id"])
	assert.Equal(t, "snake_draft", entry.Data["strategy"])
}
