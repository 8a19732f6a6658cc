package challenge

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_ManualRequiresTopic(t *testing.T) {
	err := Params{Mode: ModeSQL, Source: SourceManual}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if verr.Field != "topic" {
		t.Errorf("Field = %q, want topic", verr.Field)
	}
}

func TestValidate_CompanyRequiresName(t *testing.T) {
	err := Params{Mode: ModeSQL, Source: SourceCompany}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if verr.Field != "company" {
		t.Errorf("Field = %q, want company", verr.Field)
	}
}

func TestValidate_UnknownMode(t *testing.T) {
	err := Params{Mode: "haskell"}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
}

func TestValidate_WhitespaceTopicRejected(t *testing.T) {
	err := Params{Mode: ModeSQL, Source: SourceManual, Topic: "   "}.Validate()
	if err == nil {
		t.Fatal("whitespace-only topic passed validation")
	}
}

func TestBuildPrompt_SQLManual(t *testing.T) {
	system, user, err := BuildPrompt(Params{
		Mode:       ModeSQL,
		Source:     SourceManual,
		Topic:      "window functions",
		Difficulty: DifficultyHard,
	})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	if !strings.Contains(user, "window functions") {
		t.Error("user prompt does not mention the topic")
	}
	if !strings.Contains(user, "Hard") {
		t.Error("user prompt does not mention the difficulty")
	}
	// The document shape is embedded in the user message as example JSON.
	if !strings.Contains(user, "schema_sql") {
		t.Error("user prompt does not embed the document shape")
	}
	if system == "" {
		t.Error("system prompt is empty")
	}
}

func TestBuildPrompt_SQLCompany(t *testing.T) {
	_, user, err := BuildPrompt(Params{
		Mode:    ModeSQL,
		Source:  SourceCompany,
		Company: "Airbnb",
	})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.Contains(user, "Airbnb") {
		t.Error("user prompt does not mention the company")
	}
}

func TestBuildPrompt_Python(t *testing.T) {
	system, user, err := BuildPrompt(Params{
		Mode:    ModePython,
		Dataset: "titanic",
		Stage:   "data cleaning",
	})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if !strings.Contains(user, "titanic") {
		t.Error("user prompt does not mention the dataset")
	}
	if !strings.Contains(user, "data cleaning") {
		t.Error("user prompt does not mention the stage")
	}
	if !strings.Contains(user, "starter_code") {
		t.Error("user prompt does not embed the document shape")
	}
	if system == "" {
		t.Error("system prompt is empty")
	}
}

func TestBuildPrompt_InvalidParamsNoPrompt(t *testing.T) {
	system, user, err := BuildPrompt(Params{Mode: ModeSQL, Source: SourceManual})
	if err == nil {
		t.Fatal("invalid params produced a prompt")
	}
	if system != "" || user != "" {
		t.Error("prompts should be empty on validation failure")
	}
}
