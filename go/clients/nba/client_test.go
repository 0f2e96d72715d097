package nba

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcourt/clutchtime/go/internal/gameclock"
	"github.com/mcourt/clutchtime/go/internal/models"
)

func TestParseGameClock(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *gameclock.Clock
		wantErr bool
	}{
		{
			name: "mid period",
			raw:  "PT11M23.00S",
			want: &gameclock.Clock{Minutes: 11, Seconds: 23},
		},
		{
			name: "fractional seconds",
			raw:  "PT00M59.70S",
			want: &gameclock.Clock{Minutes: 0, Seconds: 59.7},
		},
		{
			name: "period end",
			raw:  "PT00M00.00S",
			want: &gameclock.Clock{Minutes: 0, Seconds: 0},
		},
		{
			name: "empty means no clock",
			raw:  "",
			want: nil,
		},
		{
			name:    "garbage",
			raw:     "11:23",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGameClock(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, scoreboardEndpoint, r.URL.Path)
		w.Write([]byte(`{
			"scoreboard": {
				"gameDate": "2026-01-15",
				"games": [
					{
						"gameId": "0022500551",
						"gameStatus": 2,
						"period": 3,
						"gameClock": "PT07M41.00S",
						"gameTimeUTC": "2026-01-16T00:30:00Z",
						"homeTeam": {"teamId": 1610612738, "teamName": "Celtics", "teamTricode": "BOS", "score": 78},
						"awayTeam": {"teamId": 1610612747, "teamName": "Lakers", "teamTricode": "LAL", "score": 71}
					},
					{
						"gameId": "0022500552",
						"gameStatus": 1,
						"period": 0,
						"gameClock": "",
						"gameTimeUTC": "2026-01-16T03:00:00Z",
						"homeTeam": {"teamId": 1610612744, "teamName": "Warriors", "teamTricode": "GSW", "score": 0},
						"awayTeam": {"teamId": 1610612743, "teamName": "Nuggets", "teamTricode": "DEN", "score": 0}
					}
				]
			}
		}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	snapshots, err := client.Scoreboard(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	live := snapshots[0]
	assert.Equal(t, "0022500551", live.GameID)
	assert.Equal(t, models.GameStatusLive, live.Status)
	assert.Equal(t, 3, live.Period)
	require.NotNil(t, live.Clock)
	assert.Equal(t, gameclock.Clock{Minutes: 7, Seconds: 41}, *live.Clock)
	assert.Equal(t, "BOS", live.HomeTeam.Tricode)
	assert.Equal(t, 78, live.HomeTeam.Score)
	assert.Equal(t, 7, live.ScoreDiff())

	scheduled := snapshots[1]
	assert.Equal(t, models.GameStatusScheduled, scheduled.Status)
	assert.Nil(t, scheduled.Clock)
	assert.Equal(t, gameclock.Moment{Period: 0}, scheduled.Moment())
}

func TestScoreboardUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	_, err := client.Scoreboard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPlayByPlay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/liveData/playbyplay/playbyplay_0022500551.json", r.URL.Path)
		w.Write([]byte(`{
			"game": {
				"gameId": "0022500551",
				"actions": [
					{"actionNumber": 1, "orderNumber": 10000, "period": 1, "actionType": "period", "subType": "start", "timeActual": "2026-01-16T00:40:00Z"},
					{"actionNumber": 122, "orderNumber": 1220000, "period": 2, "actionType": "period", "subType": "end", "timeActual": "2026-01-16T01:35:12Z"}
				]
			}
		}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	actions, err := client.PlayByPlay(context.Background(), "0022500551")
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionTypePeriod, actions[1].ActionType)
	assert.Equal(t, models.SubTypeEnd, actions[1].SubType)
	assert.Equal(t, 1220000, actions[1].OrderNumber)
}
