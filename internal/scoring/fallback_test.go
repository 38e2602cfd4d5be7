package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/digital-native-cli/internal/model"
)

func intp(v int) *int { return &v }

func TestFallbackFintechCompany(t *testing.T) {
	record := model.CompanyRecord{
		Name:        "Payflow",
		Domain:      "payflow.io",
		Industry:    "Fintech",
		FoundedYear: intp(2015),
		Description: "A cloud platform with APIs for payment automation",
	}

	result := Fallback(record)

	// 70 industry + 20 description keywords + 10 domain + 10 founded year,
	// clamped from 110.
	assert.Equal(t, 100.0, result.DigitalNativeScore)
	assert.True(t, result.IsDigitalNative)
	// High-incident industry: min(90, 110*0.8) = 88.
	assert.Equal(t, 88.0, result.IncidentFitScore)
	assert.Contains(t, result.DigitalNativeReasoning, "High digital native industry: fintech")
	assert.Contains(t, result.DigitalNativeReasoning, "Founded in digital era (2015)")
	assert.Contains(t, result.IncidentFitReasoning, "High incident management needs")
}

func TestFallbackMediumIndustry(t *testing.T) {
	record := model.CompanyRecord{
		Name:     "AdReach",
		Domain:   "adreach.com",
		Industry: "Marketing",
	}

	result := Fallback(record)

	assert.Equal(t, 50.0, result.DigitalNativeScore)
	assert.False(t, result.IsDigitalNative)
	// Not a high-incident industry and digital score below 60: 50*0.3 = 15.
	assert.Equal(t, 15.0, result.IncidentFitScore)
	assert.Contains(t, result.DigitalNativeReasoning, "Medium digital native industry: marketing")
}

func TestFallbackTraditionalCompany(t *testing.T) {
	record := model.CompanyRecord{
		Name:        "Smith Bros Lumber",
		Domain:      "smithbroslumber.com",
		Industry:    "Construction",
		FoundedYear: intp(1962),
	}

	result := Fallback(record)

	assert.Equal(t, 0.0, result.DigitalNativeScore)
	assert.False(t, result.IsDigitalNative)
	assert.Equal(t, 0.0, result.IncidentFitScore)
	assert.Contains(t, result.DigitalNativeReasoning, "Founded before internet era (1962)")
	assert.Contains(t, result.IncidentFitReasoning, "Limited incident management needs")
}

func TestFallbackKnownCompanyName(t *testing.T) {
	record := model.CompanyRecord{
		Name:   "Stripe Inc",
		Domain: "stripe.com",
	}

	result := Fallback(record)

	assert.Equal(t, 15.0, result.DigitalNativeScore)
	assert.Contains(t, result.DigitalNativeReasoning, "Well-known digital native company")
}

func TestFallbackDescriptionKeywordTiers(t *testing.T) {
	one := Fallback(model.CompanyRecord{
		Name:        "A",
		Domain:      "a.com",
		Description: "runs an online store",
	})
	assert.Equal(t, 10.0, one.DigitalNativeScore)
	assert.Contains(t, one.DigitalNativeReasoning, "Some digital indicators")

	three := Fallback(model.CompanyRecord{
		Name:        "B",
		Domain:      "b.com",
		Description: "a cloud platform exposing an api",
	})
	assert.Equal(t, 20.0, three.DigitalNativeScore)
	assert.Contains(t, three.DigitalNativeReasoning, "Strong digital indicators")
}

func TestFallbackEarlyInternetEra(t *testing.T) {
	result := Fallback(model.CompanyRecord{
		Name:        "Webly",
		Domain:      "webly.com",
		FoundedYear: intp(2004),
	})

	assert.Equal(t, 5.0, result.DigitalNativeScore)
	assert.Contains(t, result.DigitalNativeReasoning, "Founded in early internet era (2004)")
}

func TestFallbackEmptyRecordUsesDefaultReasoning(t *testing.T) {
	result := Fallback(model.CompanyRecord{Name: "X", Domain: "x.example"})

	assert.Equal(t, 0.0, result.DigitalNativeScore)
	assert.Equal(t, defaultDigitalReasoning, result.DigitalNativeReasoning)
	assert.NotEmpty(t, result.IncidentFitReasoning)
}

func TestFallbackIncidentCapAt90(t *testing.T) {
	// Digital score far above 100 before clamping still caps incident at 90.
	result := Fallback(model.CompanyRecord{
		Name:        "Datadog",
		Domain:      "datadoghq.io",
		Industry:    "SaaS Cloud Platform",
		FoundedYear: intp(2010),
		Description: "cloud platform saas api software monitoring",
	})

	assert.Equal(t, 100.0, result.DigitalNativeScore)
	assert.LessOrEqual(t, result.IncidentFitScore, 90.0)
}
