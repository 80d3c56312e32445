package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityInfo, ParseSeverity(""))
	assert.Equal(t, SeverityCritical, ParseSeverity(" CRITICAL "))
	assert.False(t, Severity("urgent").Known())
	assert.Equal(t, 0, Severity("urgent").Rank())
	assert.Greater(t, SeverityCritical.Rank(), SeverityWarning.Rank())

	assert.Equal(t, []Severity{SeverityWarning, SeverityCritical}, AtLeast(SeverityWarning))
	assert.Len(t, AtLeast(SeverityInfo), 3)
}

func TestType(t *testing.T) {
	assert.Equal(t, TypeEmergency, ParseType("Emergency"))
	assert.Equal(t, TypeSpeed, TypeSpeed.Bucket())
	assert.Equal(t, TypeCustom, ParseType("left_early").Bucket())
	assert.False(t, TypeCustom.Known())
}
