package enrich

import (
	"strings"
	"text/template"
)

var promptTemplates = template.Must(template.New("prompts").Parse(`
{{define "parse"}}=== BICYCLE LISTING PARSING REQUEST ===

=== TEXT DESCRIPTION ===
{{.Description}}

=== TASK ===
Extract from the bicycle listing description above:
1. Basic information: brand and model, production year, condition, color, seller type.
2. Technical specification: frame size and description, frame material, wheel size,
   groupset and drivetrain, brake type, number of gears, weight, suspension.
3. Additional information: price and currency, location, date added, URL,
   included accessories, reported issues or damage, upgrades or modifications.

=== REQUIRED JSON FORMAT ===
{
  "title": string,
  "price": {"amount": number, "currency": string, "negotiable": boolean},
  "location": string,
  "date_added": string,
  "url": string,
  "brand": string or null,
  "size": string or null,
  "year": number or null,
  "description": string or null,
  "condition": string or null,
  "color": string or null,
  "derailleur_type": string or null,
  "brake_type": string or null,
  "frame_material": string or null,
  "wheel_size": string or null,
  "seller_type": string or null,
  "bike_type": string or null,
  "frame_size_desc": string or null,
  "gears": string or null,
  "weight": string or null,
  "suspension": string or null,
  "parameters": {
    "accessories": [string],
    "issues": [string],
    "upgrades": [string],
    "is_shipping_available": boolean,
    "confidence_score": number
  }
}

Respond with valid JSON only. Use null for any field you are unsure about.
Rate confidence_score from 1 to 10.
{{end}}
{{define "categorize"}}=== BICYCLE CATEGORIZATION REQUEST ===

=== LISTING ===
Title: {{.Title}}

Description: {{.Description}}

=== TASK ===
Assign the listing a category and subcategory.

=== REQUIRED JSON FORMAT ===
{
  "primary_category": string (one of "road", "gravel", "mtb", "city", "trekking", "kids", "electric", "other"),
  "subcategory": string (for example "race", "endurance", "hardtail", "full-suspension"),
  "intended_use": string (for example "racing", "commuting", "touring", "all-road"),
  "price_category": string (one of "budget", "mid-range", "high-end", "premium"),
  "confidence": number (1-10)
}

Respond with valid JSON only. Give your best guess for uncertain fields.
{{end}}
{{define "value"}}=== BICYCLE VALUE ANALYSIS REQUEST ===

=== BIKE DATA ===
{{.Data}}

=== TASK ===
Estimate the fair market value range, list the key selling points and any
concerns, and judge whether the listed price is fair, too high or too low.

=== REQUIRED JSON FORMAT ===
{
  "value_analysis": {
    "estimated_value_range": {"low": number, "high": number, "currency": string},
    "value_assessment": string (one of "fair", "overpriced", "underpriced", "unknown"),
    "price_difference_percent": number or null
  },
  "selling_points": [string],
  "concerns": [string],
  "overall_recommendation": string,
  "confidence": number (1-10)
}

Respond with valid JSON only.
{{end}}`))

func renderPrompt(name string, data any) string {
	var b strings.Builder
	// The templates are static and their data are plain strings.
	_ = promptTemplates.ExecuteTemplate(&b, name, data) //nolint:errcheck
	return b.String()
}

func parsePrompt(description string) string {
	return renderPrompt("parse", struct{ Description string }{description})
}

func categorizePrompt(title, description string) string {
	return renderPrompt("categorize", struct{ Title, Description string }{title, description})
}

func valuePrompt(data string) string {
	return renderPrompt("value", struct{ Data string }{data})
}
