package model

import "time"

// Company carries the reputation signal the decision engine weighs.
// Reputation is a [0,1] value maintained out of band (manual curation or
// an external lookup); unknown companies default to 0.5.
type Company struct {
	ID         string
	Name       string
	Reputation float64
	UpdatedAt  time.Time
}

// DefaultReputation is used for companies with no stored signal
const DefaultReputation = 0.5
