package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppBuildInfo(t *testing.T) {
	info := NewAppBuildInfo("1.4.0", "2026-10-01", "abc123")
	assert.True(t, info.HasVersion())
	assert.Equal(t, "1.4.0 (date: 2026-10-01, commit: abc123)", info.String())

	empty := NewAppBuildInfo("", "", "")
	assert.False(t, empty.HasVersion())
	assert.Equal(t, "N/A", empty.BuildCommit())
	assert.Equal(t, "N/A (date: N/A, commit: N/A)", empty.String())
}
