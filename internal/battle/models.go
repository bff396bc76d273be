// internal/battle/models.go
package battle

import (
	"time"

	"github.com/google/uuid"
)

// RoomState enumerates the lifecycle phases of a battle room.
type RoomState string

const (
	StateWaiting    RoomState = "waiting"
	StateSetup      RoomState = "setup"
	StateGenerating RoomState = "generating"
	StateBattle     RoomState = "battle"
	StateJudging    RoomState = "judging"
	StateResult     RoomState = "result"
	StateClosed     RoomState = "closed"
)

// Difficulty and language vocabularies. Config messages from the host are
// matched against these exact values (see ParseConfigFragment).
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangJava       = "java"
	LangCpp        = "c++"
	LangC          = "c"
)

// Config is the per-battle challenge configuration. Both fields are empty
// until the host's setup messages resolve them.
type Config struct {
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

// Complete reports whether both fields have been resolved.
func (c Config) Complete() bool {
	return c.Difficulty != "" && c.Language != ""
}

// PartialConfig holds whichever fields a single chat fragment matched.
type PartialConfig struct {
	Difficulty string
	Language   string
}

// PlayerSession is one participant's membership in a room. ConnectionID is
// updated in place on reconnect; everything else is immutable after join.
type PlayerSession struct {
	PlayerID     uuid.UUID `json:"playerId"`
	DisplayName  string    `json:"displayName"`
	ConnectionID uuid.UUID `json:"-"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Problem is the generated challenge. It is opaque to the room: attached
// once on Generating->Battle and never mutated afterwards.
type Problem struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	InputFormat   string `json:"input_format"`
	OutputFormat  string `json:"output_format"`
	ExampleInput  string `json:"example_input"`
	ExampleOutput string `json:"example_output"`
}

// Submission is one player's answer for the active round.
type Submission struct {
	Code             string    `json:"-"`
	SubmittedAt      time.Time `json:"submittedAt"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
}

// JudgeEntry pairs a player with their submission for the judging request.
type JudgeEntry struct {
	PlayerID         uuid.UUID
	PlayerName       string
	Code             string
	TimeTakenSeconds int
}

// Verdict is the parsed response from the external judge. Winner is a
// display name, or "Draw".
type Verdict struct {
	Winner string             `json:"winner"`
	Reason string             `json:"reason"`
	Scores map[string]float64 `json:"scores"`
}

// JudgeResult is the verdict mapped back onto room membership, with rewards
// applied. WinnerID is nil on a draw.
type JudgeResult struct {
	WinnerID   *uuid.UUID
	WinnerName string
	Reason     string
	Scores     map[string]float64
	XPAwarded  map[string]int
}

// RoomSnapshot is the read-only view returned to a reconnecting client so it
// can redraw its UI without replaying history.
type RoomSnapshot struct {
	Code      string          `json:"code"`
	State     RoomState       `json:"state"`
	HostID    uuid.UUID       `json:"hostId"`
	Config    Config          `json:"config"`
	Problem   *Problem        `json:"problem,omitempty"`
	Players   []PlayerSession `json:"players"`
	Submitted []uuid.UUID     `json:"submitted"`
}
