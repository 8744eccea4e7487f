// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 form used for history timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// CohortStanding explains where the user sits inside one comparison cohort.
type CohortStanding struct {
	Cohort   string `json:"cohort"`
	Standing string `json:"standing"`
	Reason   string `json:"reason"`
}

// ActionStep is a titled group of suggestions.
type ActionStep struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// RubricScore is one category of the rubric behind the headline score.
type RubricScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"maxScore"`
}

// ProductivityScore is the report returned by the model plus the locally
// computed RunHash.
type ProductivityScore struct {
	RunHash               string           `json:"runHash"`
	UtilizationScore      float64          `json:"utilizationScore"`
	PercentileEstimates   string           `json:"percentileEstimates"`
	InputsObserved        []string         `json:"inputsObserved"`
	HighLeverageBehaviors []string         `json:"highLeverageBehaviors"`
	MissedLeverage        []string         `json:"missedLeverage"`
	CohortComparison      []CohortStanding `json:"cohortComparison"`
	WhatMovesYou          []ActionStep     `json:"whatMovesYou"`
	MinimalRubric         []RubricScore    `json:"minimalRubric"`
	CallToAction          string           `json:"callToAction"`
}

// ScoreHistoryEntry is an immutable record of one completed generation.
type ScoreHistoryEntry struct {
	ScoreData ProductivityScore `json:"scoreData"`
	Timestamp string            `json:"timestamp"`
}

// NewHistoryEntry stamps score with at, rendered in UTC.
func NewHistoryEntry(score ProductivityScore, at time.Time) ScoreHistoryEntry {
	return ScoreHistoryEntry{
		ScoreData: score,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

// Time parses Timestamp. A zero time is returned when it is malformed.
func (e ScoreHistoryEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LeaderboardEntry is a posted score. RunHash is its identity; only
// IsVerified changes after creation.
type LeaderboardEntry struct {
	RunHash    string  `json:"runHash"`
	Username   string  `json:"username"`
	Score      float64 `json:"score"`
	IsVerified bool    `json:"isVerified"`
}

// EntryFromScore derives the unverified leaderboard entry for a report.
func EntryFromScore(score ProductivityScore, username string) LeaderboardEntry {
	return LeaderboardEntry{
		RunHash:    score.RunHash,
		Username:   strings.TrimSpace(username),
		Score:      score.UtilizationScore,
		IsVerified: false,
	}
}

// Leaderboards holds the two simulated boards.
type Leaderboards struct {
	Verified   []LeaderboardEntry `json:"verified"`
	Unverified []LeaderboardEntry `json:"unverified"`
}

// EmptyLeaderboards returns boards with non-nil, empty lists.
func EmptyLeaderboards() Leaderboards {
	return Leaderboards{
		Verified:   []LeaderboardEntry{},
		Unverified: []LeaderboardEntry{},
	}
}
