package challenge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponseError indicates the model's text could not be parsed as
// the expected challenge document.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed challenge document: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed challenge document: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// sqlDocument is the wire shape of the SQL variant. The flat fields carry
// the legacy single-question form, normalized into Questions at parse time.
type sqlDocument struct {
	SchemaSQL string        `json:"schema_sql"`
	DataSQL   string        `json:"data_sql"`
	Questions []sqlQuestion `json:"questions"`

	// Legacy flat form.
	Title       string   `json:"title"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
	Question    string   `json:"question"`
	SolutionSQL string   `json:"solution_sql"`
	Explanation string   `json:"explanation"`
}

type sqlQuestion struct {
	Title       string   `json:"title"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
	Question    string   `json:"question"`
	SolutionSQL string   `json:"solution_sql"`
	Explanation string   `json:"explanation"`
}

type pythonDocument struct {
	Title              string `json:"title"`
	DatasetDescription string `json:"dataset_description"`
	TaskDetails        string `json:"task_details"`
	Question           string `json:"question"`
	StarterCode        string `json:"starter_code"`
	SolutionCode       string `json:"solution_code"`
	Explanation        string `json:"explanation"`
}

// Parse turns raw model text into a canonical Challenge. It strips code
// fences, retries once with escaped-quote normalization, and resolves the
// two possible SQL document shapes (flat question vs. questions sequence)
// into the single internal form.
func Parse(mode Mode, raw string) (*Challenge, error) {
	payload := stripFences(raw)

	switch mode {
	case ModeSQL:
		return parseSQL(payload)
	case ModePython:
		return parsePython(payload)
	default:
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
}

func parseSQL(payload string) (*Challenge, error) {
	var doc sqlDocument
	if err := unmarshalLenient(payload, &doc); err != nil {
		return nil, &MalformedResponseError{Reason: "not valid JSON", Err: err}
	}

	if strings.TrimSpace(doc.SchemaSQL) == "" {
		return nil, &MalformedResponseError{Reason: "schema_sql is missing"}
	}
	if strings.TrimSpace(doc.DataSQL) == "" {
		return nil, &MalformedResponseError{Reason: "data_sql is missing"}
	}

	// Legacy single-question form: wrap into a one-element sequence.
	if len(doc.Questions) == 0 && doc.Question != "" {
		doc.Questions = []sqlQuestion{{
			Title:       doc.Title,
			Difficulty:  doc.Difficulty,
			Tags:        doc.Tags,
			Question:    doc.Question,
			SolutionSQL: doc.SolutionSQL,
			Explanation: doc.Explanation,
		}}
	}

	if len(doc.Questions) == 0 {
		return nil, &MalformedResponseError{Reason: "questions is missing or empty"}
	}

	ch := &Challenge{
		Mode:      ModeSQL,
		Title:     doc.Title,
		SchemaSQL: doc.SchemaSQL,
		DataSQL:   doc.DataSQL,
	}
	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("question %d has no text", i)}
		}
		if strings.TrimSpace(q.SolutionSQL) == "" {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("question %d has no solution_sql", i)}
		}
		ch.Questions = append(ch.Questions, Question{
			Title:       q.Title,
			Difficulty:  normalizeDifficulty(q.Difficulty),
			Tags:        q.Tags,
			Prompt:      q.Question,
			Solution:    q.SolutionSQL,
			Explanation: q.Explanation,
		})
	}
	return ch, nil
}

func parsePython(payload string) (*Challenge, error) {
	var doc pythonDocument
	if err := unmarshalLenient(payload, &doc); err != nil {
		return nil, &MalformedResponseError{Reason: "not valid JSON", Err: err}
	}

	if strings.TrimSpace(doc.StarterCode) == "" {
		return nil, &MalformedResponseError{Reason: "starter_code is missing"}
	}
	if strings.TrimSpace(doc.Question) == "" {
		return nil, &MalformedResponseError{Reason: "question is missing"}
	}

	return &Challenge{
		Mode:               ModePython,
		Title:              doc.Title,
		DatasetDescription: doc.DatasetDescription,
		TaskDetails:        doc.TaskDetails,
		Questions: []Question{{
			Title:       doc.Title,
			Difficulty:  DifficultyMedium,
			Prompt:      doc.Question,
			StarterCode: doc.StarterCode,
			Solution:    doc.SolutionCode,
			Explanation: doc.Explanation,
		}},
	}, nil
}

// unmarshalLenient parses the payload, and on failure retries once with
// over-escaped quotes collapsed. Some models double-escape quotes inside
// SQL string literals; the retry only runs when the strict parse failed,
// so well-formed documents are never rewritten.
func unmarshalLenient(payload string, v any) error {
	err := json.Unmarshal([]byte(payload), v)
	if err == nil {
		return nil
	}
	relaxed := strings.ReplaceAll(payload, `\\"`, `\"`)
	if relaxed != payload {
		if retryErr := json.Unmarshal([]byte(relaxed), v); retryErr == nil {
			return nil
		}
	}
	return err
}

// stripFences removes leading/trailing markdown code-fence markers so that
// fenced and unfenced payloads parse identically.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func normalizeDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
