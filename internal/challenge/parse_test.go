package challenge

import (
	"errors"
	"strings"
	"testing"
)

func validSQLJSON() string {
	return `{
		"title": "E-commerce Orders",
		"schema_sql": "CREATE TABLE orders (id INT, amount REAL);",
		"data_sql": "INSERT INTO orders VALUES (1, 9.99);",
		"questions": [
			{
				"title": "Total Revenue",
				"difficulty": "Easy",
				"tags": ["SUM", "aggregation"],
				"question": "What is the total revenue?",
				"solution_sql": "SELECT SUM(amount) AS revenue FROM orders;",
				"explanation": "SUM aggregates the amount column."
			},
			{
				"title": "Order Count",
				"difficulty": "Medium",
				"tags": ["COUNT"],
				"question": "How many orders are there?",
				"solution_sql": "SELECT COUNT(*) AS n FROM orders;",
				"explanation": "COUNT counts rows."
			}
		]
	}`
}

func TestParseSQL_Valid(t *testing.T) {
	ch, err := Parse(ModeSQL, validSQLJSON())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if ch.Mode != ModeSQL {
		t.Errorf("Mode = %q, want %q", ch.Mode, ModeSQL)
	}
	if len(ch.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(ch.Questions))
	}
	if ch.Questions[0].Difficulty != DifficultyEasy {
		t.Errorf("question 0 difficulty = %q, want Easy", ch.Questions[0].Difficulty)
	}
	if ch.Questions[1].Solution != "SELECT COUNT(*) AS n FROM orders;" {
		t.Errorf("question 1 solution = %q", ch.Questions[1].Solution)
	}
	if !strings.Contains(ch.SchemaSQL, "CREATE TABLE orders") {
		t.Errorf("SchemaSQL = %q", ch.SchemaSQL)
	}
}

func TestParseSQL_FencedEqualsUnfenced(t *testing.T) {
	unfenced, err := Parse(ModeSQL, validSQLJSON())
	if err != nil {
		t.Fatalf("unfenced parse failed: %v", err)
	}

	fenced, err := Parse(ModeSQL, "```json\n"+validSQLJSON()+"\n```")
	if err != nil {
		t.Fatalf("fenced parse failed: %v", err)
	}

	if len(fenced.Questions) != len(unfenced.Questions) {
		t.Fatalf("fenced %d questions, unfenced %d", len(fenced.Questions), len(unfenced.Questions))
	}
	if fenced.SchemaSQL != unfenced.SchemaSQL || fenced.DataSQL != unfenced.DataSQL {
		t.Error("fenced and unfenced payloads parsed differently")
	}
	for i := range fenced.Questions {
		if fenced.Questions[i].Prompt != unfenced.Questions[i].Prompt ||
			fenced.Questions[i].Solution != unfenced.Questions[i].Solution {
			t.Errorf("question %d differs between fenced and unfenced parse", i)
		}
	}
}

func TestParseSQL_FlatQuestionBackCompat(t *testing.T) {
	flat := `{
		"title": "Window Functions",
		"difficulty": "Hard",
		"tags": ["RANK"],
		"schema_sql": "CREATE TABLE t (id INT);",
		"data_sql": "INSERT INTO t VALUES (1);",
		"question": "Rank the rows.",
		"solution_sql": "SELECT id, RANK() OVER (ORDER BY id) FROM t;",
		"explanation": "RANK assigns positions."
	}`

	ch, err := Parse(ModeSQL, flat)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ch.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(ch.Questions))
	}
	q := ch.Questions[0]
	if q.Title != "Window Functions" {
		t.Errorf("Title = %q", q.Title)
	}
	if q.Difficulty != DifficultyHard {
		t.Errorf("Difficulty = %q, want Hard", q.Difficulty)
	}
	if q.Prompt != "Rank the rows." {
		t.Errorf("Prompt = %q", q.Prompt)
	}
	if q.Solution != "SELECT id, RANK() OVER (ORDER BY id) FROM t;" {
		t.Errorf("Solution = %q", q.Solution)
	}
	if len(q.Tags) != 1 || q.Tags[0] != "RANK" {
		t.Errorf("Tags = %v", q.Tags)
	}
}

func TestParseSQL_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not JSON", "the model apologizes instead of answering"},
		{"no schema", `{"data_sql": "INSERT;", "questions": [{"question": "q", "solution_sql": "s"}]}`},
		{"no data", `{"schema_sql": "CREATE;", "questions": [{"question": "q", "solution_sql": "s"}]}`},
		{"no questions", `{"schema_sql": "CREATE;", "data_sql": "INSERT;"}`},
		{"question without solution", `{"schema_sql": "CREATE;", "data_sql": "INSERT;", "questions": [{"question": "q"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(ModeSQL, tt.payload)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("got %v, want MalformedResponseError", err)
			}
		})
	}
}

func TestParseSQL_OverEscapedQuotes(t *testing.T) {
	// Strictly invalid JSON: the string literal's quotes are double-escaped.
	payload := `{
		"schema_sql": "CREATE TABLE users (name TEXT);",
		"data_sql": "INSERT INTO users VALUES (\\"alice\\");",
		"questions": [{"question": "Who is there?", "solution_sql": "SELECT name FROM users;"}]
	}`

	ch, err := Parse(ModeSQL, payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.Contains(ch.DataSQL, `"alice"`) {
		t.Errorf("DataSQL = %q, want embedded quoted literal", ch.DataSQL)
	}
}

func TestParsePython_Valid(t *testing.T) {
	payload := `{
		"title": "Titanic Survival",
		"dataset_description": "Passenger records with survival labels.",
		"task_details": "Work with pandas.",
		"question": "What fraction of passengers survived?",
		"starter_code": "import pandas as pd\n",
		"solution_code": "print(0.38)",
		"explanation": "Roughly 38 percent survived."
	}`

	ch, err := Parse(ModePython, payload)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ch.Mode != ModePython {
		t.Errorf("Mode = %q", ch.Mode)
	}
	if len(ch.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(ch.Questions))
	}
	if ch.Questions[0].StarterCode == "" {
		t.Error("StarterCode is empty")
	}
	if ch.DatasetDescription == "" {
		t.Error("DatasetDescription is empty")
	}
}

func TestParsePython_MissingStarterCode(t *testing.T) {
	_, err := Parse(ModePython, `{"title": "x", "question": "q", "solution_code": "s"}`)
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedResponseError", err)
	}
}

func TestNormalizeDifficulty(t *testing.T) {
	if d := normalizeDifficulty("EASY"); d != DifficultyEasy {
		t.Errorf("EASY -> %q", d)
	}
	if d := normalizeDifficulty("hard"); d != DifficultyHard {
		t.Errorf("hard -> %q", d)
	}
	if d := normalizeDifficulty("something else"); d != DifficultyMedium {
		t.Errorf("unknown -> %q, want Medium", d)
	}
}
