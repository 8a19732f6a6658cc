package challenge

import (
	"fmt"
	"strings"
)

// Source selects how the SQL challenge topic is chosen.
type Source string

const (
	// SourceManual generates from a user-picked topic.
	SourceManual Source = "manual"

	// SourceCompany generates in the style of a named company's
	// data-science interviews.
	SourceCompany Source = "company"
)

// Params holds the user-selected generation parameters.
type Params struct {
	// Mode selects the challenge variant.
	Mode Mode

	// Source applies to the SQL variant only.
	Source Source

	// Topic is the SQL subject area, e.g. "window functions".
	// Required when Source is manual.
	Topic string

	// Company names the interview style to imitate.
	// Required when Source is company.
	Company string

	// Difficulty applies to the whole challenge. Empty means mixed.
	Difficulty Difficulty

	// Dataset names the dataset for the Python variant, e.g. "titanic".
	Dataset string

	// Stage is the Python interview stage, e.g. "data cleaning", "modeling".
	Stage string
}

// ValidationError reports bad or missing user parameters. It is raised
// before any provider call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the required fields for the selected mode and source.
func (p Params) Validate() error {
	if p.Mode != ModeSQL && p.Mode != ModePython {
		return &ValidationError{Field: "mode", Message: `must be "sql" or "python"`}
	}
	if p.Mode == ModeSQL {
		switch p.Source {
		case SourceManual:
			if strings.TrimSpace(p.Topic) == "" {
				return &ValidationError{Field: "topic", Message: "topic is required for manual generation"}
			}
		case SourceCompany:
			if strings.TrimSpace(p.Company) == "" {
				return &ValidationError{Field: "company", Message: "company name is required for company-style generation"}
			}
		default:
			return &ValidationError{Field: "source", Message: `must be "manual" or "company"`}
		}
	}
	return nil
}

const sqlSystemPrompt = `You are a senior data scientist writing SQL interview challenges.

Rules:
- Produce one self-contained challenge: CREATE TABLE statements, INSERT statements, and 1-3 questions of progressive difficulty.
- Use standard SQLite-compatible SQL only. No vendor extensions, no comments inside statements.
- Every question's reference solution must run against the provided schema and data and return a deterministic, non-empty result. Use ORDER BY whenever row order matters.
- Table and column names are lowercase snake_case.
- INSERT enough rows (10-30 per table) that the questions have meaningful answers.
- Each question gets a short title, a difficulty label, topic tags, the question text, the reference SQL, and a concise explanation of the approach.`

const pythonSystemPrompt = `You are a senior data scientist writing Python data-science interview tasks.

Rules:
- Produce one self-contained task for the given dataset and interview stage.
- The starter code sets up imports and loads the dataset; the candidate fills in the rest.
- The reference solution must be complete, runnable Python that prints its result to stdout.
- Use only the standard scientific stack: pandas, numpy, matplotlib.
- The explanation walks through the approach step by step.`

// sqlExampleDoc is embedded in the user message so the model sees the exact
// document shape to return, field by field.
const sqlExampleDoc = `{
  "schema_sql": "CREATE TABLE orders (id INTEGER, user_id INTEGER, amount REAL, created_at TEXT);",
  "data_sql": "INSERT INTO orders VALUES (1, 10, 49.5, '2024-01-03');",
  "questions": [
    {
      "title": "Top Spenders",
      "difficulty": "Easy",
      "tags": ["GROUP BY", "ORDER BY"],
      "question": "Find the three users with the highest total order amount.",
      "solution_sql": "SELECT user_id, SUM(amount) AS total FROM orders GROUP BY user_id ORDER BY total DESC LIMIT 3;",
      "explanation": "Group orders by user, sum the amounts, sort descending and keep three rows."
    }
  ]
}`

const pythonExampleDoc = `{
  "title": "Survival Rates by Class",
  "dataset_description": "Titanic passenger manifest with pclass, sex, age, fare and survived columns.",
  "task_details": "The dataset is available as titanic.csv in the working directory.",
  "question": "Compute the survival rate per passenger class, sorted by class.",
  "starter_code": "import pandas as pd\n\ndf = pd.read_csv('titanic.csv')\n# your code here\n",
  "solution_code": "import pandas as pd\n\ndf = pd.read_csv('titanic.csv')\nprint(df.groupby('pclass')['survived'].mean().sort_index())\n",
  "explanation": "Group by pclass and take the mean of the survived flag, which is the survival rate."
}`

// BuildPrompt constructs the system and user messages for the given
// parameters. It validates first and returns a *ValidationError without
// touching the network when required fields are missing.
func BuildPrompt(p Params) (system, user string, err error) {
	if err := p.Validate(); err != nil {
		return "", "", err
	}

	var b strings.Builder

	switch p.Mode {
	case ModeSQL:
		switch p.Source {
		case SourceManual:
			fmt.Fprintf(&b, "Topic: %s\n", p.Topic)
		case SourceCompany:
			fmt.Fprintf(&b, "Write the challenge in the style of %s data-science interviews.\n", p.Company)
		}
		if p.Difficulty != "" {
			fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
		} else {
			b.WriteString("Difficulty: mixed, easiest first\n")
		}
		b.WriteString("\nReturn exactly one JSON document with this shape:\n")
		b.WriteString(sqlExampleDoc)
		return sqlSystemPrompt, b.String(), nil

	default:
		fmt.Fprintf(&b, "Dataset: %s\n", valueOr(p.Dataset, "any well-known public dataset"))
		fmt.Fprintf(&b, "Interview stage: %s\n", valueOr(p.Stage, "exploratory analysis"))
		b.WriteString("\nReturn exactly one JSON document with this shape:\n")
		b.WriteString(pythonExampleDoc)
		return pythonSystemPrompt, b.String(), nil
	}
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
