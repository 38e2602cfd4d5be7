package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/digital-native-cli/internal/model"
)

// Signal lists for the deterministic scorer. Matching is substring-based on
// lowercased fields.
var (
	highDigitalIndustries = []string{
		"saas", "software", "fintech", "ecommerce", "e-commerce",
		"cloud", "ai", "machine learning", "data", "analytics",
		"platform", "api", "developer", "tech", "digital",
	}

	mediumDigitalIndustries = []string{
		"communication", "social", "media", "marketing",
		"automation", "productivity", "collaboration",
	}

	digitalKeywords = []string{
		"platform", "saas", "cloud", "api", "software", "digital",
		"online", "web", "app", "service", "technology", "solution",
	}

	techDomainExtensions = []string{".io", ".ai", ".tech", ".app", ".dev"}

	knownDigitalNatives = []string{
		"stripe", "shopify", "github", "slack", "zoom", "datadog", "mongodb",
	}

	highIncidentIndustries = []string{
		"saas", "fintech", "ecommerce", "cloud", "platform", "api",
	}
)

const (
	defaultDigitalReasoning  = "Automated scoring based on industry and company characteristics"
	defaultIncidentReasoning = "Scoring based on digital native characteristics and likely technical complexity"
)

// Fallback scores a company with deterministic rules alone. It always
// succeeds; it is the path of last resort when the model scorer fails.
func Fallback(record model.CompanyRecord) *model.ScoreResult {
	var digitalScore float64
	var reasoning []string
	var incidentReasoning []string

	name := strings.ToLower(record.Name)
	industry := strings.ToLower(record.Industry)
	description := strings.ToLower(record.Description)
	domain := strings.ToLower(record.Domain)

	if containsAny(industry, highDigitalIndustries...) {
		digitalScore += 70
		reasoning = append(reasoning, fmt.Sprintf("High digital native industry: %s", industry))
	} else if containsAny(industry, mediumDigitalIndustries...) {
		digitalScore += 50
		reasoning = append(reasoning, fmt.Sprintf("Medium digital native industry: %s", industry))
	}

	keywordCount := 0
	for _, kw := range digitalKeywords {
		if strings.Contains(description, kw) {
			keywordCount++
		}
	}
	if keywordCount >= 3 {
		digitalScore += 20
		reasoning = append(reasoning, "Strong digital indicators in description")
	} else if keywordCount >= 1 {
		digitalScore += 10
		reasoning = append(reasoning, "Some digital indicators in description")
	}

	if containsAny(domain, techDomainExtensions...) {
		digitalScore += 10
		reasoning = append(reasoning, "Tech-focused domain extension")
	}

	if containsAny(name, knownDigitalNatives...) {
		digitalScore += 15
		reasoning = append(reasoning, "Well-known digital native company")
	}

	if record.FoundedYear != nil {
		year := *record.FoundedYear
		switch {
		case year >= 2010:
			digitalScore += 10
			reasoning = append(reasoning, fmt.Sprintf("Founded in digital era (%d)", year))
		case year >= 2000:
			digitalScore += 5
			reasoning = append(reasoning, fmt.Sprintf("Founded in early internet era (%d)", year))
		default:
			reasoning = append(reasoning, fmt.Sprintf("Founded before internet era (%d)", year))
		}
	}

	var incidentScore float64
	switch {
	case containsAny(industry, highIncidentIndustries...):
		incidentScore = math.Min(90, digitalScore*0.8)
		incidentReasoning = append(incidentReasoning, fmt.Sprintf("High incident management needs for %s companies", industry))
	case digitalScore >= 60:
		incidentScore = math.Min(80, digitalScore*0.7)
		incidentReasoning = append(incidentReasoning, "Digital companies typically need incident management")
	default:
		incidentScore = digitalScore * 0.3
		incidentReasoning = append(incidentReasoning, "Limited incident management needs for traditional companies")
	}

	digitalScore = model.ClampScore(digitalScore)
	incidentScore = model.ClampScore(incidentScore)

	result := &model.ScoreResult{
		DigitalNativeScore:     digitalScore,
		DigitalNativeReasoning: joinOrDefault(reasoning, defaultDigitalReasoning),
		IncidentFitScore:       incidentScore,
		IncidentFitReasoning:   joinOrDefault(incidentReasoning, defaultIncidentReasoning),
		IsDigitalNative:        digitalScore >= model.DigitalNativeThreshold,
	}
	return result
}

func joinOrDefault(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "; ")
}

// containsAny checks if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
