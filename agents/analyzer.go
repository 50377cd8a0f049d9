package agents

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/analyst/framework"
)

// sqlSystemPrompt constrains the model to emit exactly one SQLite query over
// the registered table. The rules cover the quirks scraped data actually
// has: quoted column names, monetary strings, and SQLite's missing CORR.
const sqlSystemPrompt = `You are an expert SQLite SQL writer. Your ONLY job is to convert the user's question into a single, valid SQLite query.
The data is in a table named "data_table". The table schema is:
%s

CRITICAL Rules:
1. You MUST respond with ONLY the SQL query. Do not add any explanation, markdown, or other text.
2. Always use double quotes for column names that contain spaces or special characters (e.g., "Worldwide gross").
3. To use monetary strings (like '$2,123,456') in numeric calculations, clean them first: remove currency symbols and commas, then cast. For example: CAST(REPLACE(REPLACE("Worldwide gross", '$', ''), ',', '') AS REAL).
4. SQLite has no CORR function. For a Pearson correlation between x and y use: (AVG(x*y) - AVG(x)*AVG(y)) / (SQRT(AVG(x*x) - AVG(x)*AVG(x)) * SQRT(AVG(y*y) - AVG(y)*AVG(y))).
5. If asked for a specific row (e.g., 'the earliest film'), select the relevant columns from that single row. Do not use LIMIT 1 without an ORDER BY clause.`

const textSystemPrompt = `You are an expert Data Analyst. Your job is to answer the user's question based *only* on the provided text content.
Be concise and extract the specific information requested. If the answer cannot be found in the text, state that clearly.`

// Analyzer answers questions about scraped data. Tabular artifacts are
// loaded into an in-memory SQLite database and queried with model-generated
// SQL; textual artifacts are answered directly by the model from truncated
// content.
type Analyzer struct {
	Model        framework.LanguageModel
	ModelName    string
	MaxTextChars int
	Logger       *log.Logger
}

// NewAnalyzer builds the analysis provider.
func NewAnalyzer(model framework.LanguageModel, modelName string, maxTextChars int, logger *log.Logger) *Analyzer {
	if maxTextChars <= 0 {
		maxTextChars = 8000
	}
	return &Analyzer{Model: model, ModelName: modelName, MaxTextChars: maxTextChars, Logger: logger}
}

// AnalyzeTable answers a question against a table. The returned value is
// shaped by the query result: nil for no rows, a scalar for a 1x1 result, a
// record for a single row, and a list of records otherwise.
func (a *Analyzer) AnalyzeTable(ctx context.Context, question string, table *framework.Table) (framework.ResultEntry, error) {
	if table == nil || table.NumRows() == 0 {
		return "Cannot analyze: the provided table is empty.", nil
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, framework.Providerf("analyze", err)
	}
	defer db.Close()

	if err := loadTable(ctx, db, table); err != nil {
		return nil, framework.Providerf("analyze", err)
	}

	schema, err := describeSchema(ctx, db)
	if err != nil {
		schema = "Could not retrieve schema. Infer from column names: " + strings.Join(table.Columns, ", ")
	}

	query, err := a.generateQuery(ctx, question, schema)
	if err != nil {
		return nil, framework.Providerf("analyze", err)
	}
	a.logf("analyze: generated SQL -> %s", query)

	result, err := runQuery(ctx, db, query)
	if err != nil {
		return nil, framework.Providerf("analyze", fmt.Errorf("executing query %q: %w", query, err))
	}
	return result, nil
}

// AnalyzeText answers a question from a body of text, truncated to the
// configured budget so the prompt stays inside the model context window.
func (a *Analyzer) AnalyzeText(ctx context.Context, question, text string) (framework.ResultEntry, error) {
	if len(text) > a.MaxTextChars {
		text = text[:a.MaxTextChars]
	}
	resp, err := a.Model.Chat(ctx, []framework.Message{
		{Role: "system", Content: textSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Based on the following text, please answer this question:\n\nQuestion: %s\n\nText: %s", question, text)},
	}, &framework.LLMOptions{Model: a.ModelName})
	if err != nil {
		return nil, framework.Providerf("analyze", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// generateQuery asks the model for a single SQLite statement and strips any
// markdown fencing it emits despite the instructions.
func (a *Analyzer) generateQuery(ctx context.Context, question, schema string) (string, error) {
	resp, err := a.Model.Chat(ctx, []framework.Message{
		{Role: "system", Content: fmt.Sprintf(sqlSystemPrompt, schema)},
		{Role: "user", Content: question},
	}, &framework.LLMOptions{Model: a.ModelName})
	if err != nil {
		return "", err
	}
	query := strings.TrimSpace(resp.Text)
	query = strings.ReplaceAll(query, "```sql", "")
	query = strings.ReplaceAll(query, "```", "")
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("model returned an empty query")
	}
	return query, nil
}

// loadTable creates data_table with inferred column affinity and inserts all
// rows. Columns whose non-empty cells all parse numerically get REAL
// affinity so aggregation works without casting.
func loadTable(ctx context.Context, db *sql.DB, table *framework.Table) error {
	columns := dedupeColumns(table.Columns)
	numeric := inferNumeric(table)

	defs := make([]string, len(columns))
	for i, col := range columns {
		affinity := "TEXT"
		if numeric[i] {
			affinity = "REAL"
		}
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), affinity)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE data_table (%s)", strings.Join(defs, ", "))); err != nil {
		return err
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(columns)), ",")
	stmt, err := db.PrepareContext(ctx, fmt.Sprintf("INSERT INTO data_table VALUES (%s)", placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		args := make([]any, len(columns))
		for i := range columns {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			switch {
			case strings.TrimSpace(cell) == "":
				args[i] = nil
			case numeric[i]:
				v, err := framework.ParseNumeric(cell)
				if err != nil {
					args[i] = cell
				} else {
					args[i] = v
				}
			default:
				args[i] = cell
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// inferNumeric marks the columns whose non-empty cells all parse as numbers
// after lenient cleaning.
func inferNumeric(table *framework.Table) []bool {
	numeric := make([]bool, len(table.Columns))
	for i := range table.Columns {
		nonEmpty := 0
		parsed := 0
		for _, row := range table.Rows {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			nonEmpty++
			if _, err := framework.ParseNumeric(row[i]); err == nil {
				parsed++
			}
		}
		numeric[i] = nonEmpty > 0 && parsed == nonEmpty
	}
	return numeric
}

// dedupeColumns renames duplicate or blank headers so the CREATE TABLE
// statement stays valid.
func dedupeColumns(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, col := range columns {
		name := strings.TrimSpace(col)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name] = 1
		out[i] = name
	}
	return out
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// describeSchema renders PRAGMA table_info output for the generation prompt.
func describeSchema(ctx context.Context, db *sql.DB) (string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info('data_table')")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString("cid | name | type\n")
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d | %s | %s\n", cid, name, ctype)
	}
	return b.String(), rows.Err()
}

// runQuery executes the generated SQL and shapes the result based on its
// dimensions, mirroring how callers want to consume it.
func runQuery(ctx context.Context, db *sql.DB, query string) (framework.ResultEntry, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(records) == 0:
		return nil, nil
	case len(records) == 1 && len(cols) == 1:
		return records[0][cols[0]], nil
	case len(records) == 1:
		return records[0], nil
	default:
		return records, nil
	}
}

// normalizeValue converts driver byte slices to strings so results serialize
// as JSON text instead of base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
	}
}
