package validation

import (
	"errors"
	"testing"

	"github.com/linkspace/linkspace/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string `json:"name" validate:"required,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Capacity int    `json:"capacity" validate:"gt=0"`
	Kind     string `json:"type" validate:"oneof=a b"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Name: "this name is too long", Email: "nope", Capacity: 0, Kind: "c"})
	require.ErrorIs(t, err, apperr.ErrValidation)

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))

	got := map[string]string{}
	for _, f := range ve.Fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "must be at most 10 characters", got["name"])
	assert.Equal(t, "must be a valid email address", got["email"])
	assert.Equal(t, "must be greater than 0", got["capacity"])
	assert.Equal(t, "must be one of: a, b", got["type"])
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "ok", Email: "a@b.co", Capacity: 1, Kind: "a"}))
}

func TestMerge(t *testing.T) {
	assert.NoError(t, Merge(nil, nil))

	err := Merge(apperr.Invalid("a", "x"), nil, apperr.Invalid("b", "y"))
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)

	other := errors.New("boom")
	assert.Equal(t, other, Merge(apperr.Invalid("a", "x"), other))
}
