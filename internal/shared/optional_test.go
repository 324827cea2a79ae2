package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchPayload struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	Completed   Optional[bool]   `json:"completed"`
}

func TestOptionalDistinguishesAbsentNullAndValue(t *testing.T) {
	var p patchPayload
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","description":null}`), &p))

	assert.Equal(t, Some("x"), p.Title)
	assert.True(t, p.Description.Set)
	assert.True(t, p.Description.Null)
	assert.False(t, p.Completed.Set)
}

func TestOptionalRejectsWrongType(t *testing.T) {
	var p patchPayload
	err := json.Unmarshal([]byte(`{"completed":"yes"}`), &p)
	require.Error(t, err)
}

func TestOptionalConstructors(t *testing.T) {
	assert.Equal(t, Optional[int]{Set: true, Value: 3}, Some(3))
	assert.Equal(t, Optional[int]{Set: true, Null: true}, Null[int]())
}
