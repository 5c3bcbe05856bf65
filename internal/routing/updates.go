package routing

import "strings"

// longInputThreshold is the length above which the overview is proposed
// as a priority update.
const longInputThreshold = 200

// FileUpdate is a file (or, when IsDir, a directory) worth updating.
type FileUpdate struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	IsDir  bool   `json:"is_dir,omitempty"`
}

// UpdatePlan lists the files a change description touches plus the
// priority items every change should consider.
type UpdatePlan struct {
	Updates  []FileUpdate `json:"updates"`
	Priority []FileUpdate `json:"priority"`
}

// Contains reports whether path is already among the keyword matches.
func (p UpdatePlan) Contains(path string) bool {
	for _, u := range p.Updates {
		if u.Path == path {
			return true
		}
	}
	return false
}

var updateRules = []struct {
	keywords []string
	update   FileUpdate
}{
	{[]string{"overview", "description", "purpose", "goal", "objective"},
		FileUpdate{Path: "context/overview.md", Reason: "Project overview and description updates"}},
	{[]string{"stakeholder", "team", "role", "responsibility", "owner"},
		FileUpdate{Path: "context/stakeholders.md", Reason: "Stakeholder information and roles"}},
	{[]string{"metric", "kpi", "success", "performance", "measure"},
		FileUpdate{Path: "context/success_metrics.md", Reason: "Success metrics and KPIs"}},
	{[]string{"architecture", "design", "pattern", "structure", "component"},
		FileUpdate{Path: "tech_specs/system_architecture.md", Reason: "System architecture and design patterns"}},
	{[]string{"api", "endpoint", "rest", "graphql", "interface"},
		FileUpdate{Path: "tech_specs/api_reference.md", Reason: "API documentation and endpoints"}},
	{[]string{"data", "flow", "pipeline", "process", "transformation"},
		FileUpdate{Path: "tech_specs/data_flow.md", Reason: "Data flow and processing pipelines"}},
	{[]string{"module", "service", "microservice", "component"},
		FileUpdate{Path: "tech_specs/modules/", Reason: "Module-specific technical specifications", IsDir: true}},
	{[]string{"deploy", "deployment", "infrastructure", "server", "cloud"},
		FileUpdate{Path: "devops/deployment_architecture.md", Reason: "Deployment and infrastructure setup"}},
	{[]string{"ci/cd", "pipeline", "build", "test", "automation"},
		FileUpdate{Path: "devops/ci_cd_pipeline.md", Reason: "CI/CD pipeline and automation"}},
	{[]string{"change", "update", "modify", "fix", "feature"},
		FileUpdate{Path: "dynamic_meta/change_log.md", Reason: "Change log and modification history"}},
	{[]string{"decision", "choice", "option", "alternative", "rationale"},
		FileUpdate{Path: "dynamic_meta/decision_logs.md", Reason: "Decision logs and rationale"}},
	{[]string{"config", "configuration", "setting", "environment", "variable"},
		FileUpdate{Path: "dynamic_meta/config_map.md", Reason: "Configuration and environment settings"}},
}

// SuggestUpdates maps a change description to the memory-bank files it
// should be reflected in. The change log is always a priority item; long
// descriptions also propose the overview.
func SuggestUpdates(text string) (UpdatePlan, error) {
	if strings.TrimSpace(text) == "" {
		return UpdatePlan{}, ErrEmptyContent
	}
	lower := strings.ToLower(text)

	var plan UpdatePlan
	for _, r := range updateRules {
		if hasAny(lower, r.keywords...) {
			plan.Updates = append(plan.Updates, r.update)
		}
	}

	if !plan.Contains("dynamic_meta/change_log.md") {
		plan.Priority = append(plan.Priority, FileUpdate{
			Path:   "dynamic_meta/change_log.md",
			Reason: "Record this change/update",
		})
	}
	if len(text) > longInputThreshold && !plan.Contains("context/overview.md") {
		plan.Priority = append(plan.Priority, FileUpdate{
			Path:   "context/overview.md",
			Reason: "Update project overview if needed",
		})
	}
	return plan, nil
}
