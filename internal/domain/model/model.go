// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// EntityKind discriminates the kinds of entities tracked by the engine.
type EntityKind string

// Entity kinds. Wire values match the remote API's "type" field.
const (
	KindPlayer EntityKind = "player"
	KindTeam   EntityKind = "team"
)

// EntityRef is the unit stored in the recency cache: an identity plus a
// denormalized display snapshot taken at interaction time. Snapshot fields
// are not guaranteed fresh.
type EntityRef struct {
	Kind     EntityKind `json:"type"`
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Number   string     `json:"number,omitempty"`
	Position string     `json:"position,omitempty"`
	Team     string     `json:"team,omitempty"`
	Mascot   string     `json:"mascot,omitempty"`
	Color    string     `json:"primary_color,omitempty"`

	// RecordedAt is unix milliseconds of the most recent interaction.
	RecordedAt int64 `json:"timestamp"`
}

// Key identifies an entity within the cache. At most one entry per key
// may exist at any time.
func (e EntityRef) Key() string {
	return string(e.Kind) + "/" + e.ID
}

// Recorded returns the RecordedAt stamp as a time.Time.
func (e EntityRef) Recorded() time.Time {
	return time.UnixMilli(e.RecordedAt)
}

// SearchResult is one match returned by the remote search endpoint.
// Fields mirror the API schema for /search.
type SearchResult struct {
	Kind EntityKind `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
	// Team fields
	Mascot   string `json:"mascot,omitempty"`
	District string `json:"district,omitempty"`
	Record   string `json:"record,omitempty"`
	// Player fields
	Number   string `json:"number,omitempty"`
	Position string `json:"position,omitempty"`
	Team     string `json:"team,omitempty"`
	Grade    string `json:"grade,omitempty"`
}

// Ref builds an EntityRef snapshot from a search result. RecordedAt is left
// zero; the recency cache stamps it on record.
func (r SearchResult) Ref() EntityRef {
	return EntityRef{
		Kind:     r.Kind,
		ID:       r.ID,
		Name:     r.Name,
		Number:   r.Number,
		Position: r.Position,
		Team:     r.Team,
		Mascot:   r.Mascot,
	}
}

// EntityDetail is the enrichment payload fetched from a profile endpoint.
// Only the fields the engine folds back into snapshots are modeled.
type EntityDetail struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mascot  string `json:"mascot,omitempty"`
	Color   string `json:"primary_color,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// Choice is a vote for one side of a game. Absence of a vote is represented
// by the fact store, never by a Choice value.
type Choice string

const (
	ChoiceHome Choice = "home"
	ChoiceAway Choice = "away"
)

// ParseChoice validates a stored or user-supplied vote value.
func ParseChoice(s string) (Choice, error) {
	switch Choice(s) {
	case ChoiceHome, ChoiceAway:
		return Choice(s), nil
	default:
		return "", fmt.Errorf("unknown vote choice: %q", s)
	}
}
