package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/digital-native-cli/internal/model"
	"github.com/sells-group/digital-native-cli/pkg/anthropic"
)

const scoreSystemPrompt = `You are an expert business analyst specializing in identifying digital native companies and evaluating their fit for incident management tools.

Digital Native Company Criteria:
- Founded after 2010
- Cloud-native infrastructure and operations
- Heavy dependence on online/digital tools and platforms
- Primary business model involves digital products/services
- High technology adoption and integration
- Strong online presence and digital customer engagement

Incident Management Context:
The product is an AI-powered incident management platform for engineering teams, including:
- Real-time incident coordination and response
- On-call management and alerting
- AI-assisted incident resolution
- Post-incident analysis and reporting
- Integration with development and communication tools
- Service catalog and dependency mapping

Target customers are typically mid-to-large technology companies with complex software systems that require reliable incident management and operational resilience.

Your task is to analyze companies and provide:
1. Digital Native Score (0-100): how likely the company is to be digital native
2. Incident Fit Score (0-100): how likely they would need an incident management platform
3. Clear reasoning for both scores

Scoring guidance:
- Software/SaaS companies: usually 70-100 digital native, 60-90 incident fit
- E-commerce platforms: usually 60-90 digital native, 50-80 incident fit
- Fintech: usually 70-90 on both
- Traditional companies with digital transformation: 20-60 digital native, 10-40 incident fit
- Pure traditional/physical companies: 0-30 digital native

A company is digital native if its business model fundamentally depends on digital platforms, not merely because of its founding year. Shopify (2006) and GitHub (2008) are digital native.

Respond with a valid JSON object:
{"digital_native_score": <number>, "digital_native_reasoning": "<explanation>", "incident_fit_score": <number>, "incident_fit_reasoning": "<explanation>"}`

const scoreUserPrompt = `Company Analysis Request:

Company Name: %s
Domain: %s
Industry: %s
Founded Year: %s
Employee Count: %s
Location: %s
Description: %s`

// buildUserPrompt renders the per-company prompt. Absent fields show as N/A
// so the model does not invent them.
func buildUserPrompt(record model.CompanyRecord) string {
	founded := "N/A"
	if record.FoundedYear != nil {
		founded = fmt.Sprintf("%d", *record.FoundedYear)
	}
	return fmt.Sprintf(scoreUserPrompt,
		orNA(record.Name),
		orNA(record.Domain),
		orNA(record.Industry),
		founded,
		orNA(record.EmployeeCount),
		orNA(record.Location),
		orNA(record.Description),
	)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// parseScoreResult extracts a score result from model output. A response
// with no parseable JSON object, missing score fields, or blank reasoning is
// an error so the caller can fall back.
func parseScoreResult(text string) (*model.ScoreResult, error) {
	text = cleanJSON(text)

	var raw struct {
		DigitalNativeScore     *float64 `json:"digital_native_score"`
		DigitalNativeReasoning string   `json:"digital_native_reasoning"`
		IncidentFitScore       *float64 `json:"incident_fit_score"`
		IncidentFitReasoning   string   `json:"incident_fit_reasoning"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, eris.Wrap(err, "scoring: parse model response")
	}

	if raw.DigitalNativeScore == nil || raw.IncidentFitScore == nil {
		return nil, eris.New("scoring: model response missing score fields")
	}
	if strings.TrimSpace(raw.DigitalNativeReasoning) == "" || strings.TrimSpace(raw.IncidentFitReasoning) == "" {
		return nil, eris.New("scoring: model response missing reasoning")
	}

	result := &model.ScoreResult{
		DigitalNativeScore:     *raw.DigitalNativeScore,
		DigitalNativeReasoning: raw.DigitalNativeReasoning,
		IncidentFitScore:       *raw.IncidentFitScore,
		IncidentFitReasoning:   raw.IncidentFitReasoning,
	}
	result.Normalize()
	return result, nil
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
