package routing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_EmptyContent(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := Route(in)
		assert.ErrorIs(t, err, ErrEmptyContent, "input %q", in)
	}
}

func TestAnalyze_DevOps(t *testing.T) {
	a, err := Analyze("deploy kubernetes pipeline")
	require.NoError(t, err)

	assert.Equal(t, CategoryDevOps, a.PrimaryCategory)
	assert.Equal(t, ContentGeneral, a.ContentType)
	assert.Equal(t, 3, a.WordCount)
	assert.InDelta(t, 66.67, a.Confidence, 0.01)

	require.Len(t, a.Suggestions, 2)
	assert.Equal(t, "devops/deployment_architecture.md", a.Suggestions[0].TargetFile)
	assert.Equal(t, "devops/ci_cd_pipeline.md", a.Suggestions[1].TargetFile)
	for _, s := range a.Suggestions {
		assert.Equal(t, PriorityHigh, s.Priority)
	}
}

func TestAnalyze_DedupeKeepsFirstSuggestion(t *testing.T) {
	a, err := Analyze("team meeting: change the update cadence for releases")
	require.NoError(t, err)

	assert.Equal(t, CategoryDynamicMeta, a.PrimaryCategory)
	assert.Equal(t, ContentMeetingNotes, a.ContentType)
	require.Len(t, a.Suggestions, 1)
	assert.Equal(t, "dynamic_meta/change_log.md", a.Suggestions[0].TargetFile)
	assert.Equal(t, PriorityHigh, a.Suggestions[0].Priority)
	assert.Equal(t, "Contains change information", a.Suggestions[0].Reason)
}

func TestAnalyze_TieGoesToEarlierCategory(t *testing.T) {
	a, err := Analyze("architecture and deploy")
	require.NoError(t, err)
	assert.Equal(t, CategoryTechSpecs, a.PrimaryCategory)
}

func TestAnalyze_NoIndicators(t *testing.T) {
	a, err := Analyze("hello world")
	require.NoError(t, err)

	assert.Equal(t, CategoryGeneral, a.PrimaryCategory)
	assert.Zero(t, a.Confidence)
	assert.Empty(t, a.Suggestions)
	assert.Len(t, a.Scores, 4)
}

func TestAnalyze_ConfidenceIsClamped(t *testing.T) {
	a, err := Analyze("deploy-pipeline-build-server")
	require.NoError(t, err)

	assert.Equal(t, CategoryDevOps, a.PrimaryCategory)
	assert.Equal(t, 1, a.WordCount)
	assert.Equal(t, 100.0, a.Confidence)
}

func TestAnalyze_SubstringMatching(t *testing.T) {
	// "login" carries "log", which is a dynamic_meta indicator.
	a, err := Analyze("fix the login error")
	require.NoError(t, err)

	assert.Equal(t, CategoryDynamicMeta, a.PrimaryCategory)
	assert.Equal(t, ContentIssueReport, a.ContentType)
	require.Len(t, a.Suggestions, 1)
	assert.Equal(t, "Issue reports should be tracked in change log", a.Suggestions[0].Reason)
}

func TestAnalyze_DecisionRecord(t *testing.T) {
	a, err := Analyze("we made a decision to choose postgres")
	require.NoError(t, err)

	assert.Equal(t, ContentDecisionRecord, a.ContentType)
	require.Len(t, a.Suggestions, 1)
	assert.Equal(t, "dynamic_meta/decision_logs.md", a.Suggestions[0].TargetFile)
}

func TestAnalyze_SortedByPriority(t *testing.T) {
	a, err := Analyze("meeting about stakeholder metric")
	require.NoError(t, err)

	var got []string
	for _, s := range a.Suggestions {
		got = append(got, s.TargetFile+":"+s.Priority.String())
	}
	assert.Equal(t, []string{
		"context/stakeholders.md:high",
		"context/success_metrics.md:medium",
		"dynamic_meta/change_log.md:medium",
	}, got)
}

func TestAnalyze_KeyTopicsAreWholeWords(t *testing.T) {
	a, err := Analyze("the api talks to the database and backend apis")
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "database", "backend"}, a.KeyTopics)
}

func TestPriority_MarshalsAsName(t *testing.T) {
	data, err := json.Marshal(Suggestion{TargetFile: "x.md", Priority: PriorityMedium})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"priority":"medium"`)
}

func TestCategoryTitle(t *testing.T) {
	assert.Equal(t, "Dynamic Meta", CategoryDynamicMeta.Title())
	assert.Equal(t, "Meeting Notes", ContentMeetingNotes.Title())
}

// ─── SuggestUpdates ─────────────────────────────────────────────────────────

func TestSuggestUpdates(t *testing.T) {
	plan, err := SuggestUpdates("Refactor the API endpoint and update the deployment config")
	require.NoError(t, err)

	var paths []string
	for _, u := range plan.Updates {
		paths = append(paths, u.Path)
	}
	assert.Equal(t, []string{
		"tech_specs/api_reference.md",
		"devops/deployment_architecture.md",
		"dynamic_meta/change_log.md",
		"dynamic_meta/config_map.md",
	}, paths)
	assert.Empty(t, plan.Priority, "change log already suggested and input is short")
}

func TestSuggestUpdates_PriorityItems(t *testing.T) {
	plan, err := SuggestUpdates("small tweak")
	require.NoError(t, err)
	assert.Empty(t, plan.Updates)
	require.Len(t, plan.Priority, 1)
	assert.Equal(t, "dynamic_meta/change_log.md", plan.Priority[0].Path)

	plan, err = SuggestUpdates(strings.Repeat("word ", 50))
	require.NoError(t, err)
	require.Len(t, plan.Priority, 2)
	assert.Equal(t, "context/overview.md", plan.Priority[1].Path)
}

func TestSuggestUpdates_ModulesDirectory(t *testing.T) {
	plan, err := SuggestUpdates("new billing microservice")
	require.NoError(t, err)
	require.True(t, plan.Contains("tech_specs/modules/"))
	for _, u := range plan.Updates {
		if u.Path == "tech_specs/modules/" {
			assert.True(t, u.IsDir)
		}
	}
}

func TestSuggestUpdates_Empty(t *testing.T) {
	_, err := SuggestUpdates(" ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

// ─── AnalyzeSummary ─────────────────────────────────────────────────────────

func TestAnalyzeSummary(t *testing.T) {
	a, err := AnalyzeSummary("A React web app with a Go backend API on AWS, focused on security and scalability.")
	require.NoError(t, err)

	assert.Equal(t, "Web Application", a.ProjectType)
	assert.Equal(t, []string{"API-First Architecture"}, a.ArchitecturePatterns)
	assert.Subset(t, a.TechKeywords, []string{"api", "backend", "security", "aws", "react", "go"})
	assert.Contains(t, a.BusinessKeywords, "scalability")
	assert.Equal(t, []string{"react"}, a.Stack.Frontend)
	assert.Contains(t, a.Stack.Backend, "go")
	assert.Equal(t, []string{"aws"}, a.Stack.Infrastructure)
	assert.Len(t, a.Recommendations, 3)
	assert.False(t, a.Truncated)
}

func TestAnalyzeSummary_Fallbacks(t *testing.T) {
	a, err := AnalyzeSummary("A simple tool")
	require.NoError(t, err)

	assert.Equal(t, "General Software Project", a.ProjectType)
	assert.Equal(t, []string{"Monolithic Architecture"}, a.ArchitecturePatterns)
	require.Len(t, a.Recommendations, 1)
	assert.Contains(t, a.Recommendations[0], "logging, monitoring, and testing")
}

func TestAnalyzeSummary_TruncatesPreview(t *testing.T) {
	a, err := AnalyzeSummary(strings.Repeat("x", 600))
	require.NoError(t, err)
	assert.True(t, a.Truncated)
	assert.Len(t, a.Preview, summaryPreviewLen)
}
