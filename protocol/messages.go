package protocol

import "github.com/goccy/go-json"

// Envelope
type MsgEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Intent type strings (C -> S).
const (
	TypeStart          = "start"
	TypeInput          = "input"
	TypeStop           = "stop"
	TypeForfeit        = "forfeit"
	TypeStopLobby      = "stoplobby"
	TypePing           = "ping"
	TypeGetLeaderboard = "getLeaderboard"
)

// Notification type strings (S -> C).
const (
	TypeWaiting          = "waiting"
	TypeMatchFound       = "matchFound"
	TypeRankedMatchFound = "rankedMatchFound"
	TypeState            = "state"
	TypeMatchOver        = "matchOver"
	TypeRankedMatchOver  = "rankedMatchOver"
	TypeStopNotice       = "STOP"
	TypeError            = "error"
	TypePong             = "pong"
	TypeLeaderboard      = "leaderboard"
)

// Game modes for Start.Vs.
const (
	VsLocal  = "local"
	VsBot    = "bot"
	VsOnline = "online"
	VsRanked = "ranked"
)

// ================= C -> S =================

type Start struct {
	Vs         string   `json:"vs"`
	Difficulty *float64 `json:"difficulty,omitempty"` // [0,1], bot mode only
}

type Input struct {
	Player    string `json:"player"`    // "left" | "right"
	Direction string `json:"direction"` // "up" | "down" | "stop"
}

type Stop struct{}
type Forfeit struct{}
type StopLobby struct{}
type Ping struct{}
type GetLeaderboard struct{}

// ================= S -> C =================

type Waiting struct {
	Ranked bool   `json:"ranked"`
	Rating int    `json:"rating,omitempty"`
	Rank   string `json:"rank,omitempty"`
}

type MatchFound struct {
	MatchID    string `json:"matchId"`
	Role       string `json:"role"` // "left" | "right"
	Opponent   string `json:"opponent"`
	OpponentID int64  `json:"opponentId"`
}

type RankedMatchFound struct {
	MatchID        string `json:"matchId"`
	Role           string `json:"role"`
	Rating         int    `json:"rating"`
	Rank           string `json:"rank"`
	Opponent       string `json:"opponent"`
	OpponentID     int64  `json:"opponentId"`
	OpponentRating int    `json:"opponentRating"`
}

// State is one tick snapshot, broadcast to both sides.
type State struct {
	LeftY    float64 `json:"leftY"`
	RightY   float64 `json:"rightY"`
	BallX    float64 `json:"ballX"`
	BallY    float64 `json:"ballY"`
	Score    [2]int  `json:"score"`
	GameOver bool    `json:"gameOver"`
	Winner   string  `json:"winner,omitempty"`
}

type MatchOver struct {
	Score  [2]int `json:"score"`
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason,omitempty"` // "" | "forfeit" | "disconnect"
}

type RatingResult struct {
	NewRating int    `json:"newRating"`
	Delta     int    `json:"delta"`
	Rank      string `json:"rank"`
}

type RankedMatchOver struct {
	Score    [2]int       `json:"score"`
	Winner   string       `json:"winner,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	You      RatingResult `json:"you"`
	Opponent RatingResult `json:"opponent"`
}

// StopNotice tells the survivor the other side stopped or vanished.
type StopNotice struct {
	Reason string `json:"reason"`
	Score  [2]int `json:"score"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}

type Pong struct{}

type LeaderboardEntry struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Rank   string `json:"rank"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

type Leaderboard struct {
	Items       []LeaderboardEntry `json:"items"`
	GeneratedAt int64              `json:"generated_at"` // Unix ms
}
