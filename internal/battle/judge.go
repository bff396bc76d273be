// internal/battle/judge.go
package battle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DrawWinner is the sentinel the external judge returns instead of a
// display name when neither submission wins.
const DrawWinner = "Draw"

// FallbackReason is broadcast when the judge call fails or returns
// something unparsable. The room must never stay stuck in Judging.
const FallbackReason = "We couldn't reach the judge this time, so the battle is scored as a draw. Sorry about that!"

const judgeTimeout = 2 * time.Minute

// Base XP per difficulty tier. The winner takes the full amount; on a draw
// each player takes half.
var xpByDifficulty = map[string]int{
	DifficultyEasy:   50,
	DifficultyMedium: 100,
	DifficultyHard:   150,
}

// XPSource tags reward grants coming from battles in the rewards ledger.
const XPSource = "code_battle"

// Rewards persists experience-point grants. It is not idempotent across
// duplicate calls, so the coordinator calls it exactly once per grant.
type Rewards interface {
	AwardXP(ctx context.Context, playerID uuid.UUID, source string, amount int) (int, error)
}

// Recorder receives finished battle records, e.g. for the platform's
// history feed.
type Recorder interface {
	Record(ctx context.Context, rec BattleRecord)
}

// BattleRecord summarizes one finished battle for downstream consumers.
type BattleRecord struct {
	RoomCode   string             `json:"room_code"`
	Difficulty string             `json:"difficulty"`
	Language   string             `json:"language"`
	Winner     string             `json:"winner"`
	Reason     string             `json:"reason"`
	Scores     map[string]float64 `json:"scores"`
	FinishedAt int64              `json:"finished_at"`
}

// JudgeRequest carries everything the coordinator needs, copied out of the
// room so the detached task touches no shared state.
type JudgeRequest struct {
	RoomCode string
	Config   Config
	Problem  *Problem
	Entries  []JudgeEntry
}

// Judge coordinates the external judging call: it invokes the provider,
// maps the verdict back onto player identities, triggers reward grants, and
// returns a result for the room to apply. It never fails: provider or
// parse errors degrade to a draw with a fixed reason.
type Judge struct {
	Provider Provider
	Rewards  Rewards
	History  Recorder
	Logger   *logrus.Logger
}

// Run executes one judging pass. Always returns a non-nil result.
func (j *Judge) Run(ctx context.Context, req JudgeRequest) *JudgeResult {
	ctx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()

	verdict, err := j.Provider.Judge(ctx, req.Problem, req.Entries)
	if err != nil || verdict == nil {
		j.Logger.Warnf("room %s: judge call failed: %v", req.RoomCode, err)
		verdict = &Verdict{Winner: DrawWinner, Reason: FallbackReason, Scores: map[string]float64{}}
	}

	result := &JudgeResult{
		WinnerName: verdict.Winner,
		Reason:     verdict.Reason,
		Scores:     verdict.Scores,
		XPAwarded:  make(map[string]int),
	}

	// Winner resolution is an exact match against current display names.
	// Fragile under duplicate names, but preserved as-is: a name the judge
	// invents that matches nobody degrades to a draw.
	if verdict.Winner != DrawWinner {
		for _, e := range req.Entries {
			if e.PlayerName == verdict.Winner {
				id := e.PlayerID
				result.WinnerID = &id
				break
			}
		}
		if result.WinnerID == nil {
			j.Logger.Warnf("room %s: judge returned unknown winner %q, treating as draw", req.RoomCode, verdict.Winner)
			result.WinnerName = DrawWinner
		}
	}

	j.grantRewards(ctx, req, result)

	if j.History != nil {
		j.History.Record(ctx, BattleRecord{
			RoomCode:   req.RoomCode,
			Difficulty: req.Config.Difficulty,
			Language:   req.Config.Language,
			Winner:     result.WinnerName,
			Reason:     result.Reason,
			Scores:     result.Scores,
			FinishedAt: time.Now().Unix(),
		})
	}

	return result
}

// grantRewards awards the full tier amount to the winner, or half to each
// player on a draw. Grant failures are logged and the corresponding amount
// is dropped from the payload, so clients never see XP that wasn't booked.
func (j *Judge) grantRewards(ctx context.Context, req JudgeRequest, result *JudgeResult) {
	base, ok := xpByDifficulty[req.Config.Difficulty]
	if !ok {
		base = xpByDifficulty[DifficultyEasy]
	}

	award := func(playerID uuid.UUID, playerName string, amount int) {
		if j.Rewards == nil || amount <= 0 {
			return
		}
		if _, err := j.Rewards.AwardXP(ctx, playerID, XPSource, amount); err != nil {
			j.Logger.Warnf("room %s: failed to award %d xp to %s: %v", req.RoomCode, amount, playerID, err)
			return
		}
		result.XPAwarded[playerName] = amount
	}

	if result.WinnerID != nil {
		for _, e := range req.Entries {
			if e.PlayerID == *result.WinnerID {
				award(e.PlayerID, e.PlayerName, base)
			}
		}
		return
	}
	for _, e := range req.Entries {
		award(e.PlayerID, e.PlayerName, base/2)
	}
}

// DefaultProblem is the minimal fallback attached when generation fails, so
// a battle always makes forward progress.
func DefaultProblem(difficulty, language string) *Problem {
	return &Problem{
		Title:         "Sum of Two Numbers",
		Description:   "Read two integers and print their sum. (Our problem generator was unavailable, so enjoy a classic.)",
		InputFormat:   "Two space-separated integers a and b on one line.",
		OutputFormat:  "A single integer: a + b.",
		ExampleInput:  "2 3",
		ExampleOutput: "5",
	}
}
