package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AttemptEvent records one evaluation of user code against a reference
// solution.
type AttemptEvent struct {
	ent.Schema
}

func (AttemptEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (AttemptEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			Comment("Practice session the attempt belongs to"),
		field.String("mode").
			Comment("Challenge variant: sql or python"),
		field.Int("question_index").
			Default(0).
			Comment("Index of the question within the challenge"),
		field.Bool("match").
			Comment("Whether the user's output matched the reference"),
		field.Int64("duration_ms").
			Default(0).
			Comment("Wall-clock time of the evaluation"),
		field.String("error_message").
			Default("").
			Comment("Execution error surfaced to the user, if any"),
	}
}

func (AttemptEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
	}
}
