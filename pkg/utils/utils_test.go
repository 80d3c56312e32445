package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string   `json:"name" validate:"trimmed_required"`
	Latitude *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Radius   int      `json:"radius" validate:"gt=0"`
}

func TestValidateStruct_Details(t *testing.T) {
	lat := 95.0
	err := ValidateStruct(&sample{Name: "  ", Latitude: &lat})
	require.Error(t, err)

	details := ValidationDetails(err)
	assert.Contains(t, details, "name is required")
	assert.Contains(t, details, "latitude must be at most 90")
	assert.Contains(t, details, "radius must be greater than 0")

	lat = 4.05
	assert.NoError(t, ValidateStruct(&sample{Name: "Home", Latitude: &lat, Radius: 10}))
	assert.Empty(t, ValidationDetails(nil))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeText("  hello\x00 world "))

	blank := "   "
	assert.Nil(t, SanitizeOptional(&blank))
	assert.Nil(t, SanitizeOptional(nil))

	addr := " Rue 1, Douala "
	assert.Equal(t, "Rue 1, Douala", *SanitizeOptional(&addr))
}

func TestBoolValue(t *testing.T) {
	yes := true
	assert.True(t, BoolValue(&yes, false))
	assert.True(t, BoolValue(nil, true))
	assert.False(t, BoolValue(nil, false))
}
