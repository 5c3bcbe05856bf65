package routing

import (
	"slices"
	"strings"
)

// summaryPreviewLen is how much of the summary a report echoes back.
const summaryPreviewLen = 500

// TechStack groups the technologies a summary mentions.
type TechStack struct {
	Frontend       []string `json:"frontend"`
	Backend        []string `json:"backend"`
	Database       []string `json:"database"`
	Infrastructure []string `json:"infrastructure"`
	Tools          []string `json:"tools"`
}

// SummaryAnalysis is the heuristic read of a project summary.
type SummaryAnalysis struct {
	Preview              string    `json:"preview"`
	Truncated            bool      `json:"truncated"`
	ProjectType          string    `json:"project_type"`
	TechKeywords         []string  `json:"tech_keywords"`
	BusinessKeywords     []string  `json:"business_keywords"`
	ArchitecturePatterns []string  `json:"architecture_patterns"`
	Stack                TechStack `json:"stack"`
	Recommendations      []string  `json:"recommendations"`
}

// SuggestedBankFiles are proposed for every analysed project.
var SuggestedBankFiles = []FileUpdate{
	{Path: "context/overview.md", Reason: "Detailed project description"},
	{Path: "tech_specs/system_architecture.md", Reason: "Architecture documentation"},
	{Path: "tech_specs/api_reference.md", Reason: "API documentation"},
	{Path: "devops/deployment_architecture.md", Reason: "Deployment strategy"},
	{Path: "context/stakeholders.md", Reason: "Project stakeholders"},
}

var (
	techKeywords = []string{
		"api", "database", "frontend", "backend", "server", "client",
		"authentication", "authorization", "security", "deployment",
		"docker", "kubernetes", "aws", "azure", "gcp", "cloud",
		"microservices", "monolith", "rest", "graphql", "websocket",
		"react", "vue", "angular", "node", "python", "java", "go",
		"mongodb", "postgresql", "mysql", "redis", "elasticsearch",
		"machine learning", "ai", "analytics", "monitoring", "logging",
	}
	businessKeywords = []string{
		"user", "customer", "business", "revenue", "profit", "cost",
		"market", "competition", "strategy", "growth", "scalability",
		"performance", "efficiency", "productivity", "automation",
		"integration", "workflow", "process", "optimization",
	}

	// projectTypes is ordered; the first hit names the project.
	projectTypes = []struct {
		name     string
		keywords []string
	}{
		{"Web Application", []string{"web app", "website", "frontend", "ui", "ux"}},
		{"Backend Service", []string{"api", "backend", "server", "microservice"}},
		{"Mobile Application", []string{"mobile", "ios", "android", "app"}},
		{"Data/Analytics Platform", []string{"data", "analytics", "machine learning", "ai"}},
		{"DevOps/Infrastructure", []string{"devops", "infrastructure", "deployment"}},
		{"Gaming/Entertainment", []string{"game", "gaming", "entertainment"}},
	}

	architecturePatterns = []struct {
		name     string
		keywords []string
	}{
		{"Microservices Architecture", []string{"microservice", "distributed", "scalable"}},
		{"Event-Driven Architecture", []string{"event", "message", "queue", "async"}},
		{"API-First Architecture", []string{"api", "rest", "graphql"}},
		{"Layered Architecture", []string{"layer", "tier", "separation"}},
		{"Serverless Architecture", []string{"serverless", "lambda", "function"}},
	}

	frontendTechs = []string{"react", "vue", "angular", "svelte", "html", "css", "javascript", "typescript"}
	backendTechs  = []string{"node", "python", "java", "go", "php", "ruby", "c#", "scala"}
	databaseTechs = []string{"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "sqlite"}
	infraTechs    = []string{"docker", "kubernetes", "aws", "azure", "gcp", "heroku", "netlify"}
	toolTechs     = []string{"git", "jenkins", "github", "gitlab", "jira", "slack"}
)

// AnalyzeSummary classifies a free-text project summary and proposes
// architecture patterns and recommendations for it.
func AnalyzeSummary(summary string) (SummaryAnalysis, error) {
	if strings.TrimSpace(summary) == "" {
		return SummaryAnalysis{}, ErrEmptyContent
	}
	lower := strings.ToLower(summary)

	a := SummaryAnalysis{
		Preview:          summary,
		ProjectType:      "General Software Project",
		TechKeywords:     containedIn(lower, techKeywords),
		BusinessKeywords: containedIn(lower, businessKeywords),
		Stack: TechStack{
			Frontend:       containedIn(lower, frontendTechs),
			Backend:        containedIn(lower, backendTechs),
			Database:       containedIn(lower, databaseTechs),
			Infrastructure: containedIn(lower, infraTechs),
			Tools:          containedIn(lower, toolTechs),
		},
	}
	if r := []rune(summary); len(r) > summaryPreviewLen {
		a.Preview = string(r[:summaryPreviewLen])
		a.Truncated = true
	}

	for _, pt := range projectTypes {
		if hasAny(lower, pt.keywords...) {
			a.ProjectType = pt.name
			break
		}
	}

	for _, p := range architecturePatterns {
		if hasAny(lower, p.keywords...) {
			a.ArchitecturePatterns = append(a.ArchitecturePatterns, p.name)
		}
	}
	if len(a.ArchitecturePatterns) == 0 {
		a.ArchitecturePatterns = []string{"Monolithic Architecture"}
	}

	a.Recommendations = recommend(a.TechKeywords, a.BusinessKeywords)
	return a, nil
}

func recommend(tech, business []string) []string {
	var recs []string
	if slices.Contains(tech, "security") {
		recs = append(recs, "Implement comprehensive security measures including authentication, authorization, and data encryption")
	}
	if slices.Contains(business, "scalability") {
		recs = append(recs, "Design for horizontal scaling with load balancing and distributed architecture")
	}
	if slices.Contains(business, "performance") {
		recs = append(recs, "Implement caching strategies and performance monitoring")
	}
	if slices.Contains(tech, "api") {
		recs = append(recs, "Design RESTful APIs with proper versioning and documentation")
	}
	if len(recs) == 0 {
		recs = append(recs, "Consider implementing proper logging, monitoring, and testing strategies")
	}
	return recs
}

// containedIn returns the keywords found in text, in list order.
func containedIn(text string, keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if strings.Contains(text, k) {
			out = append(out, k)
		}
	}
	return out
}
