package id

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	a := New()
	b := New()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestAtUsesGivenTime(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	parsed, err := ulid.Parse(At(ts))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(ts), parsed.Time())
}

func TestRunName(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	name := RunName("sac 500:ts", ts)
	assert.True(t, strings.HasPrefix(name, "sac_500_ts_20240102T030405Z_"), name)
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, ":")

	bare := RunName("", ts)
	assert.True(t, strings.HasPrefix(bare, "20240102T030405Z_"), bare)
}
