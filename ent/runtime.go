// Code generated by ent, DO NOT EDIT.

package ent

import (
	"time"

	"github.com/xiaoyuezhuu/ds-interview-generative-pad/ent/attemptevent"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/ent/generationevent"
	"github.com/xiaoyuezhuu/ds-interview-generative-pad/ent/schema"
)

// The init function reads all schema descriptors with runtime code
// (default values, validators, hooks and policies) and stitches it
// to their package variables.
func init() {
	attempteventMixin := schema.AttemptEvent{}.Mixin()
	attempteventMixinFields0 := attempteventMixin[0].Fields()
	_ = attempteventMixinFields0
	attempteventFields := schema.AttemptEvent{}.Fields()
	_ = attempteventFields
	// attempteventDescTimestamp is the schema descriptor for timestamp field.
	attempteventDescTimestamp := attempteventMixinFields0[1].Descriptor()
	// attemptevent.DefaultTimestamp holds the default value on creation for the timestamp field.
	attemptevent.DefaultTimestamp = attempteventDescTimestamp.Default.(func() time.Time)
	// attempteventDescQuestionIndex is the schema descriptor for question_index field.
	attempteventDescQuestionIndex := attempteventFields[2].Descriptor()
	// attemptevent.DefaultQuestionIndex holds the default value on creation for the question_index field.
	attemptevent.DefaultQuestionIndex = attempteventDescQuestionIndex.Default.(int)
	// attempteventDescDurationMs is the schema descriptor for duration_ms field.
	attempteventDescDurationMs := attempteventFields[4].Descriptor()
	// attemptevent.DefaultDurationMs holds the default value on creation for the duration_ms field.
	attemptevent.DefaultDurationMs = attempteventDescDurationMs.Default.(int64)
	// attempteventDescErrorMessage is the schema descriptor for error_message field.
	attempteventDescErrorMessage := attempteventFields[5].Descriptor()
	// attemptevent.DefaultErrorMessage holds the default value on creation for the error_message field.
	attemptevent.DefaultErrorMessage = attempteventDescErrorMessage.Default.(string)
	generationeventMixin := schema.GenerationEvent{}.Mixin()
	generationeventMixinFields0 := generationeventMixin[0].Fields()
	_ = generationeventMixinFields0
	generationeventFields := schema.GenerationEvent{}.Fields()
	_ = generationeventFields
	// generationeventDescTimestamp is the schema descriptor for timestamp field.
	generationeventDescTimestamp := generationeventMixinFields0[1].Descriptor()
	// generationevent.DefaultTimestamp holds the default value on creation for the timestamp field.
	generationevent.DefaultTimestamp = generationeventDescTimestamp.Default.(func() time.Time)
	// generationeventDescInputTokens is the schema descriptor for input_tokens field.
	generationeventDescInputTokens := generationeventFields[3].Descriptor()
	// generationevent.DefaultInputTokens holds the default value on creation for the input_tokens field.
	generationevent.DefaultInputTokens = generationeventDescInputTokens.Default.(int)
	// generationeventDescOutputTokens is the schema descriptor for output_tokens field.
	generationeventDescOutputTokens := generationeventFields[4].Descriptor()
	// generationevent.DefaultOutputTokens holds the default value on creation for the output_tokens field.
	generationevent.DefaultOutputTokens = generationeventDescOutputTokens.Default.(int)
	// generationeventDescLatencyMs is the schema descriptor for latency_ms field.
	generationeventDescLatencyMs := generationeventFields[5].Descriptor()
	// generationevent.DefaultLatencyMs holds the default value on creation for the latency_ms field.
	generationevent.DefaultLatencyMs = generationeventDescLatencyMs.Default.(int64)
	// generationeventDescErrorMessage is the schema descriptor for error_message field.
	generationeventDescErrorMessage := generationeventFields[7].Descriptor()
	// generationevent.DefaultErrorMessage holds the default value on creation for the error_message field.
	generationevent.DefaultErrorMessage = generationeventDescErrorMessage.Default.(string)
}
