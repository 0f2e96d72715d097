package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
)

func TestValidateTimeRange(t *testing.T) {
	valid := TimeRangeParams{
		Start: gameclock.Moment{Period: 4, Clock: gameclock.Clock{Minutes: 5}},
		End:   gameclock.Moment{Period: 4, Clock: gameclock.Clock{Minutes: 2}},
	}
	assert.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		params TimeRangeParams
	}{
		{
			name: "end before start",
			params: TimeRangeParams{
				Start: gameclock.Moment{Period: 4, Clock: gameclock.Clock{Minutes: 2}},
				End:   gameclock.Moment{Period: 4, Clock: gameclock.Clock{Minutes: 5}},
			},
		},
		{
			name: "end equals start",
			params: TimeRangeParams{
				Start: gameclock.Moment{Period: 2, Clock: gameclock.Clock{Minutes: 6}},
				End:   gameclock.Moment{Period: 2, Clock: gameclock.Clock{Minutes: 6}},
			},
		},
		{
			name: "period zero",
			params: TimeRangeParams{
				Start: gameclock.Moment{Period: 0, Clock: gameclock.Clock{Minutes: 5}},
				End:   gameclock.Moment{Period: 1, Clock: gameclock.Clock{Minutes: 2}},
			},
		},
		{
			name: "clock longer than the period",
			params: TimeRangeParams{
				Start: gameclock.Moment{Period: 5, Clock: gameclock.Clock{Minutes: 8}},
				End:   gameclock.Moment{Period: 5, Clock: gameclock.Clock{Minutes: 1}},
			},
		},
		{
			name: "seconds out of range",
			params: TimeRangeParams{
				Start: gameclock.Moment{Period: 1, Clock: gameclock.Clock{Minutes: 5, Seconds: 60}},
				End:   gameclock.Moment{Period: 1, Clock: gameclock.Clock{Minutes: 2}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.params))
		})
	}
}

func TestValidateDifference(t *testing.T) {
	assert.NoError(t, Validate(DifferenceParams{Comparator: CompGreater, Threshold: 10}))
	assert.NoError(t, Validate(DifferenceParams{Comparator: CompAtMost, Threshold: 0}))
	assert.Error(t, Validate(DifferenceParams{Comparator: "<", Threshold: 10}))
	assert.Error(t, Validate(DifferenceParams{Comparator: CompGreater, Threshold: -1}))
}

func TestValidateLeader(t *testing.T) {
	assert.NoError(t, Validate(LeaderParams{LeaderTeamID: 1610612738}))
	assert.Error(t, Validate(LeaderParams{LeaderTeamID: 0}))
}

func TestParamsCodec(t *testing.T) {
	params := TimeRangeParams{
		Start: gameclock.Moment{Period: 4, Clock: gameclock.Clock{Minutes: 5}},
		End:   gameclock.Moment{Period: 4, Clock: gameclock.Clock{Minutes: 2}},
	}

	typ, raw, err := EncodeParams(params)
	require.NoError(t, err)
	assert.Equal(t, TypeTimeRange, typ)

	decoded, err := DecodeParams(typ, raw)
	require.NoError(t, err)
	assert.Equal(t, params, decoded)

	_, err = DecodeParams("SOMETHING_ELSE", raw)
	require.Error(t, err)
}
