package nba

// The NBA live-data CDN serves static JSON documents, no auth required.
const (
	BaseURL = "https://cdn.nba.com/static/json"

	scoreboardEndpoint = "/liveData/scoreboard/todaysScoreboard_00.json"
	playByPlayEndpoint = "/liveData/playbyplay/playbyplay_%s.json"
	scheduleEndpoint   = "/staticData/scheduleLeagueV2_18.json"
)
