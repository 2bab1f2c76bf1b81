package extraction

// extractionSchema is the contract the model's JSON must satisfy before any
// of it reaches pricing. Unknown properties are tolerated; wrong types and
// negative numbers are not.
const extractionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["customer", "surfaces"],
  "properties": {
    "customer": {
      "type": "object",
      "properties": {
        "name":    {"type": ["string", "null"]},
        "email":   {"type": ["string", "null"]},
        "phone":   {"type": ["string", "null"]},
        "address": {"type": ["string", "null"]}
      }
    },
    "projectType": {"type": ["string", "null"]},
    "surfaces": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type":        {"type": "string"},
          "area":        {"type": ["number", "null"], "minimum": 0},
          "linearFeet":  {"type": ["number", "null"], "minimum": 0},
          "count":       {"type": ["number", "null"], "minimum": 0},
          "coats":       {"type": ["integer", "null"]},
          "condition":   {"type": ["string", "null"]},
          "prepWork":    {"type": ["array", "null"], "items": {"type": "string"}},
          "description": {"type": ["string", "null"]}
        }
      }
    },
    "settings": {
      "type": ["object", "null"],
      "properties": {
        "taxRatePercent":      {"type": ["number", "null"], "minimum": 0},
        "overheadPercent":     {"type": ["number", "null"], "minimum": 0},
        "profitMarginPercent": {"type": ["number", "null"], "minimum": 0},
        "laborPercentOfCost":  {"type": ["number", "null"], "minimum": 0}
      }
    },
    "analysis": {
      "type": ["object", "null"],
      "properties": {
        "complexity":            {"type": ["string", "null"]},
        "estimatedDurationDays": {"type": ["number", "null"]},
        "recommendations":       {"type": ["array", "null"], "items": {"type": "string"}}
      }
    }
  }
}`

// rawExtraction mirrors extractionSchema for decoding.
type rawExtraction struct {
	Customer struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	} `json:"customer"`
	ProjectType *string      `json:"projectType"`
	Surfaces    []rawSurface `json:"surfaces"`
	Settings    *struct {
		TaxRatePercent      *float64 `json:"taxRatePercent"`
		OverheadPercent     *float64 `json:"overheadPercent"`
		ProfitMarginPercent *float64 `json:"profitMarginPercent"`
		LaborPercentOfCost  *float64 `json:"laborPercentOfCost"`
	} `json:"settings"`
	Analysis *struct {
		Complexity            *string  `json:"complexity"`
		EstimatedDurationDays *float64 `json:"estimatedDurationDays"`
		Recommendations       []string `json:"recommendations"`
	} `json:"analysis"`
}

type rawSurface struct {
	Type        string   `json:"type"`
	Area        *float64 `json:"area"`
	LinearFeet  *float64 `json:"linearFeet"`
	Count       *float64 `json:"count"`
	Coats       *int     `json:"coats"`
	Condition   *string  `json:"condition"`
	PrepWork    []string `json:"prepWork"`
	Description *string  `json:"description"`
}
