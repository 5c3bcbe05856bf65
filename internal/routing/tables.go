package routing

// maxKeyTopics caps Analysis.KeyTopics.
const maxKeyTopics = 5

// categoryIndicators is ordered: on equal scores the earlier entry wins.
var categoryIndicators = []struct {
	category Category
	keywords []string
}{
	{CategoryContext, []string{"overview", "stakeholder", "business", "goal", "objective", "requirement", "user", "customer"}},
	{CategoryTechSpecs, []string{"architecture", "design", "pattern", "structure", "component"}},
	{CategoryDevOps, []string{"deploy", "infrastructure", "server", "cloud", "pipeline", "ci/cd", "monitoring", "build"}},
	{CategoryDynamicMeta, []string{"change", "decision", "config", "update", "modify", "log", "history", "version"}},
}

// contentTypeRules are checked in order; the first hit decides.
var contentTypeRules = []struct {
	contentType ContentType
	keywords    []string
}{
	{ContentCode, []string{"class", "function", "method", "import", "def", "var", "const"}},
	{ContentDocumentation, []string{"# ", "## ", "### ", "markdown", "documentation"}},
	{ContentMeetingNotes, []string{"meeting", "discussion", "notes", "agenda"}},
	{ContentDecisionRecord, []string{"decision", "choice", "option", "alternative"}},
	{ContentIssueReport, []string{"bug", "issue", "fix", "error", "problem"}},
}

var topicKeywords = []string{"api", "database", "frontend", "backend", "authentication", "security", "deployment", "testing"}

// fileRule maps keywords (or a content type) inside a category to a file.
type fileRule struct {
	keywords    []string
	contentType ContentType // when set, the rule only fires for this type
	file        string
	priority    Priority
	reason      string
}

func (r fileRule) suggestion() Suggestion {
	return Suggestion{TargetFile: r.file, Reason: r.reason, Priority: r.priority}
}

// fileRules is the second-level table applied within the primary category.
var fileRules = map[Category][]fileRule{
	CategoryContext: {
		{keywords: []string{"overview"}, file: "context/overview.md", priority: PriorityHigh,
			reason: "Contains project overview information"},
		{keywords: []string{"stakeholder", "team", "role"}, file: "context/stakeholders.md", priority: PriorityHigh,
			reason: "Contains stakeholder information"},
		{keywords: []string{"metric", "kpi", "success", "performance"}, file: "context/success_metrics.md", priority: PriorityMedium,
			reason: "Contains success metrics and KPIs"},
	},
	CategoryTechSpecs: {
		{keywords: []string{"architecture", "design", "pattern"}, file: "tech_specs/system_architecture.md", priority: PriorityHigh,
			reason: "Contains system architecture information"},
		{keywords: []string{"api", "endpoint", "rest", "graphql"}, file: "tech_specs/api_reference.md", priority: PriorityHigh,
			reason: "Contains API documentation"},
		{keywords: []string{"data", "flow", "pipeline"}, file: "tech_specs/data_flow.md", priority: PriorityMedium,
			reason: "Contains data flow information"},
	},
	CategoryDevOps: {
		{keywords: []string{"deploy", "deployment", "infrastructure"}, file: "devops/deployment_architecture.md", priority: PriorityHigh,
			reason: "Contains deployment information"},
		{keywords: []string{"ci/cd", "pipeline", "build"}, file: "devops/ci_cd_pipeline.md", priority: PriorityHigh,
			reason: "Contains CI/CD pipeline information"},
	},
	CategoryDynamicMeta: {
		{contentType: ContentDecisionRecord, file: "dynamic_meta/decision_logs.md", priority: PriorityHigh,
			reason: "Contains decision information"},
		{keywords: []string{"change", "update", "modify"}, file: "dynamic_meta/change_log.md", priority: PriorityHigh,
			reason: "Contains change information"},
		{keywords: []string{"config", "configuration", "setting"}, file: "dynamic_meta/config_map.md", priority: PriorityMedium,
			reason: "Contains configuration information"},
	},
}

// contentTypeFileRules apply regardless of the primary category.
var contentTypeFileRules = []fileRule{
	{contentType: ContentMeetingNotes, file: "dynamic_meta/change_log.md", priority: PriorityMedium,
		reason: "Meeting notes should be logged as changes"},
	{contentType: ContentIssueReport, file: "dynamic_meta/change_log.md", priority: PriorityHigh,
		reason: "Issue reports should be tracked in change log"},
}
