package zone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	at := time.Now().UTC()
	inside := NewStatus("d", "z", true, at)
	outside := NewStatus("d", "z", false, at)

	tests := []struct {
		name    string
		tr      Transition
		entered bool
		exited  bool
	}{
		{"first report inside", Transition{Current: inside, Changed: true}, true, false},
		{"first report outside", Transition{Current: outside, Changed: true}, false, false},
		{"left zone", Transition{Previous: inside, Current: outside, Changed: true}, false, true},
		{"came back", Transition{Previous: outside, Current: inside, Changed: true}, true, false},
		{"repeated inside", Transition{Previous: inside, Current: inside}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.entered, tt.tr.Entered())
			assert.Equal(t, tt.exited, tt.tr.Exited())
		})
	}
}

func TestNewStatus(t *testing.T) {
	at := time.Now().UTC()

	in := NewStatus("d", "z", true, at)
	assert.NotNil(t, in.EnteredAt)
	assert.Nil(t, in.ExitedAt)

	out := NewStatus("d", "z", false, at)
	assert.Nil(t, out.EnteredAt)
	assert.Equal(t, at, *out.ExitedAt)
}

func TestType(t *testing.T) {
	assert.Equal(t, TypeSchool, ParseType(" School "))
	assert.True(t, TypeHome.Known())
	assert.Equal(t, TypeOther, ParseType("grandparents").Bucket())
	assert.Equal(t, TypeActivity, TypeActivity.Bucket())
}
