package agents

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexcodex/analyst/framework"
)

type stubLLM struct {
	responses []string
	prompts   []framework.Message
	idx       int
}

// Chat returns the next canned response and records what was asked.
func (s *stubLLM) Chat(ctx context.Context, messages []framework.Message, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	s.prompts = append(s.prompts, messages...)
	if s.idx >= len(s.responses) {
		return nil, errors.New("no response queued")
	}
	resp := s.responses[s.idx]
	s.idx++
	return &framework.LLMResponse{Text: resp}, nil
}

func filmsTable(rows int) *framework.Table {
	table := &framework.Table{Columns: []string{"Rank", "Title", "Gross"}}
	for i := 1; i <= rows; i++ {
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(i),
			fmt.Sprintf("Film %d", i),
			fmt.Sprintf("$%d,000,000", 100*i),
		})
	}
	return table
}

func TestAnalyzeTableScalar(t *testing.T) {
	model := &stubLLM{responses: []string{"SELECT COUNT(*) FROM data_table"}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	result, err := analyzer.AnalyzeTable(context.Background(), "count rows", filmsTable(10))
	assert.NoError(t, err)
	assert.EqualValues(t, 10, result)
}

func TestAnalyzeTableStripsCodeFences(t *testing.T) {
	model := &stubLLM{responses: []string{"```sql\nSELECT COUNT(*) FROM data_table\n```"}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	result, err := analyzer.AnalyzeTable(context.Background(), "count rows", filmsTable(4))
	assert.NoError(t, err)
	assert.EqualValues(t, 4, result)
}

func TestAnalyzeTableSingleRowBecomesRecord(t *testing.T) {
	model := &stubLLM{responses: []string{`SELECT "Rank", "Title" FROM data_table WHERE "Rank" = 1`}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	result, err := analyzer.AnalyzeTable(context.Background(), "first film", filmsTable(3))
	assert.NoError(t, err)
	record, ok := result.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "Film 1", record["Title"])
}

func TestAnalyzeTableMultiRowBecomesList(t *testing.T) {
	model := &stubLLM{responses: []string{`SELECT "Title" FROM data_table ORDER BY "Rank"`}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	result, err := analyzer.AnalyzeTable(context.Background(), "all titles", filmsTable(3))
	assert.NoError(t, err)
	records, ok := result.([]map[string]any)
	assert.True(t, ok)
	assert.Len(t, records, 3)
}

func TestAnalyzeTableNumericAffinity(t *testing.T) {
	// Gross holds monetary strings that the loader parses into REAL, so
	// aggregation works without casting in the generated SQL.
	model := &stubLLM{responses: []string{`SELECT MAX("Gross") FROM data_table`}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	result, err := analyzer.AnalyzeTable(context.Background(), "largest gross", filmsTable(3))
	assert.NoError(t, err)
	assert.EqualValues(t, 300000000, result)
}

func TestAnalyzeTableSchemaInPrompt(t *testing.T) {
	model := &stubLLM{responses: []string{"SELECT COUNT(*) FROM data_table"}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	_, err := analyzer.AnalyzeTable(context.Background(), "count rows", filmsTable(2))
	assert.NoError(t, err)
	assert.NotEmpty(t, model.prompts)
	assert.Contains(t, model.prompts[0].Content, "Rank")
	assert.Contains(t, model.prompts[0].Content, "data_table")
}

func TestAnalyzeTableBadSQLFailsRequest(t *testing.T) {
	model := &stubLLM{responses: []string{"SELECT nope FROM missing_table"}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	_, err := analyzer.AnalyzeTable(context.Background(), "count rows", filmsTable(2))
	assert.Error(t, err)
	assert.False(t, framework.IsValidation(err))
}

func TestAnalyzeTableEmptyResult(t *testing.T) {
	model := &stubLLM{responses: []string{`SELECT "Title" FROM data_table WHERE "Rank" > 99`}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 0, nil)

	result, err := analyzer.AnalyzeTable(context.Background(), "none", filmsTable(2))
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyzeEmptyTable(t *testing.T) {
	analyzer := NewAnalyzer(&stubLLM{}, "gpt-4o-mini", 0, nil)
	result, err := analyzer.AnalyzeTable(context.Background(), "count", &framework.Table{Columns: []string{"A"}})
	assert.NoError(t, err)
	assert.Contains(t, result, "empty")
}

func TestAnalyzeTextTruncates(t *testing.T) {
	model := &stubLLM{responses: []string{"The answer is 42."}}
	analyzer := NewAnalyzer(model, "gpt-4o-mini", 100, nil)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	result, err := analyzer.AnalyzeText(context.Background(), "what is the answer", string(long))
	assert.NoError(t, err)
	assert.Equal(t, "The answer is 42.", result)

	// The user message carries the question plus at most MaxTextChars of
	// source text.
	user := model.prompts[len(model.prompts)-1]
	assert.Less(t, len(user.Content), 300)
}
