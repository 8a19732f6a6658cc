package challenge

// Mode selects the challenge variant.
type Mode string

const (
	// ModeSQL produces a shared schema/data batch plus one or more
	// questions answered with SQL queries.
	ModeSQL Mode = "sql"

	// ModePython produces a single data-science task answered with
	// Python code against a described dataset.
	ModePython Mode = "python"
)

// Difficulty is the per-question difficulty label.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question is one gradeable task within a Challenge. Every Question
// belongs to exactly one Challenge; questions are ordered and indexable.
type Question struct {
	// Title is a short display name, e.g. "Monthly Active Users".
	Title string

	// Difficulty is the model's label for this question.
	Difficulty Difficulty

	// Tags is an ordered sequence of topic markers, e.g. ["JOIN", "GROUP BY"].
	Tags []string

	// Prompt is the full question text shown to the user.
	Prompt string

	// StarterCode is an optional scaffold the user edits (Python variant).
	StarterCode string

	// Solution is the reference solution, executed to produce the
	// expected output.
	Solution string

	// Explanation is a worked walkthrough shown after evaluation.
	Explanation string
}

// Challenge is a generated problem set. In the SQL variant the schema and
// data batches are shared by all questions (challenge-scoped, not
// question-scoped), so switching questions never requires a reload.
type Challenge struct {
	Mode  Mode
	Title string

	// SchemaSQL holds CREATE TABLE statements (SQL variant).
	SchemaSQL string

	// DataSQL holds INSERT statements (SQL variant).
	DataSQL string

	// DatasetDescription describes the dataset (Python variant).
	DatasetDescription string

	// TaskDetails carries extra task context (Python variant).
	TaskDetails string

	// Questions is the ordered question list. Always at least one element
	// after a successful parse.
	Questions []Question
}
