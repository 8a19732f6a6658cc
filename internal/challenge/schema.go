package challenge

import "github.com/xiaoyuezhuu/ds-interview-generative-pad/internal/llm"

// SQLChallengeSchema is the structured-output schema for the SQL variant.
var SQLChallengeSchema = &llm.Schema{
	Name:        "sql-challenge",
	Description: "A SQL interview challenge: shared schema and data plus ordered questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"schema_sql": map[string]any{
				"type":        "string",
				"description": "CREATE TABLE statements, semicolon separated, SQLite-compatible",
			},
			"data_sql": map[string]any{
				"type":        "string",
				"description": "INSERT statements populating every table",
			},
			"questions": map[string]any{
				"type":        "array",
				"description": "1-3 questions in progressive difficulty order",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Short display name for the question",
						},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"Easy", "Medium", "Hard"},
						},
						"tags": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Topic tags, e.g. JOIN, window functions",
						},
						"question": map[string]any{
							"type":        "string",
							"description": "Full question text",
						},
						"solution_sql": map[string]any{
							"type":        "string",
							"description": "Reference solution query, deterministic output",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Concise walkthrough of the approach",
						},
					},
					"required": []any{"title", "difficulty", "tags", "question", "solution_sql", "explanation"},
				},
			},
		},
		"required":             []any{"schema_sql", "data_sql", "questions"},
		"additionalProperties": false,
	},
}

// PythonChallengeSchema is the structured-output schema for the Python variant.
var PythonChallengeSchema = &llm.Schema{
	Name:        "python-challenge",
	Description: "A Python data-science task with starter and reference code",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type": "string",
			},
			"dataset_description": map[string]any{
				"type":        "string",
				"description": "What the dataset contains and how it is shaped",
			},
			"task_details": map[string]any{
				"type":        "string",
				"description": "Extra context: file names, expected output format",
			},
			"question": map[string]any{
				"type":        "string",
				"description": "Full task text",
			},
			"starter_code": map[string]any{
				"type":        "string",
				"description": "Scaffold the candidate edits; loads the dataset",
			},
			"solution_code": map[string]any{
				"type":        "string",
				"description": "Complete runnable reference solution printing to stdout",
			},
			"explanation": map[string]any{
				"type": "string",
			},
		},
		"required":             []any{"title", "dataset_description", "task_details", "question", "starter_code", "solution_code", "explanation"},
		"additionalProperties": false,
	},
}
