// Code generated by ent, DO NOT EDIT.

package predicate

import (
	"entgo.io/ent/dialect/sql"
)

// AttemptEvent is the predicate function for attemptevent builders.
type AttemptEvent func(*sql.Selector)

// GenerationEvent is the predicate function for generationevent builders.
type GenerationEvent func(*sql.Selector)
