package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	late := time.Date(2024, time.January, 1, 23, 59, 59, 0, loc)

	d := DateOf(late)

	assert.Equal(t, "2024-01-01", d.String())
	assert.True(t, d.Equal(NewDate(2024, time.January, 1)))
}

func TestDate_DaysUntil(t *testing.T) {
	start := NewDate(2024, time.March, 9)

	assert.Equal(t, 1, start.DaysUntil(start.AddDays(1)))
	assert.Equal(t, -10, start.DaysUntil(start.AddDays(-10)))
	assert.Equal(t, 366, NewDate(2024, time.January, 1).DaysUntil(NewDate(2025, time.January, 1)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.January, 2), d)

	_, err = ParseDate("02/01/2024")
	require.Error(t, err)
	assert.True(t, IsDomainError(err, ErrCodeInvalid))
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Due Date `json:"due"`
	}

	out, err := json.Marshal(wrapper{Due: NewDate(2024, time.January, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-01-02"}`, string(out))

	var in wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-12-31"}`), &in))
	assert.Equal(t, "2024-12-31", in.Due.String())

	require.NoError(t, json.Unmarshal([]byte(`{"due":null}`), &in))
	assert.True(t, in.Due.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"due":"tomorrow"}`), &in))
}
