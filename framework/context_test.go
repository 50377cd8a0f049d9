package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharedContextStartsEmpty(t *testing.T) {
	ctx := NewSharedContext("prompt")
	assert.Equal(t, "prompt", ctx.Prompt())
	assert.Equal(t, ArtifactNone, ctx.Artifact().Kind)
}

func TestSharedContextTagMatchesPayload(t *testing.T) {
	ctx := NewSharedContext("prompt")

	table := &Table{Columns: []string{"A"}, Rows: [][]string{{"1"}}}
	ctx.SetTable(table)
	artifact := ctx.Artifact()
	assert.Equal(t, ArtifactTable, artifact.Kind)
	assert.Same(t, table, artifact.Table)
	assert.Empty(t, artifact.Text)

	ctx.SetText("page text")
	artifact = ctx.Artifact()
	assert.Equal(t, ArtifactText, artifact.Kind)
	assert.Equal(t, "page text", artifact.Text)
	assert.Nil(t, artifact.Table)
}

func TestSharedContextLastWriteWins(t *testing.T) {
	ctx := NewSharedContext("prompt")
	first := &Table{Columns: []string{"A"}}
	second := &Table{Columns: []string{"B"}}

	ctx.SetTable(first)
	ctx.SetTable(second)
	assert.Same(t, second, ctx.Artifact().Table)
}

func TestSharedContextHistory(t *testing.T) {
	ctx := NewSharedContext("prompt")
	ctx.AddInteraction("scraper", "stored table artifact", map[string]any{"rows": 3})
	ctx.AddInteraction("engine", "task finished", nil)

	history := ctx.History()
	assert.Len(t, history, 2)
	assert.Equal(t, 1, history[0].ID)
	assert.Equal(t, 2, history[1].ID)
	assert.Equal(t, "scraper", history[0].Role)
}

func TestAgentKindKnown(t *testing.T) {
	assert.True(t, AgentScrape.Known())
	assert.True(t, AgentAnalyze.Known())
	assert.True(t, AgentVisualize.Known())
	assert.False(t, AgentKind("TimeTravelAgent").Known())
}
