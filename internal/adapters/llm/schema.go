package llm

import "google.golang.org/genai"

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

// ProductivityScoreSchema describes the report the model must return. The
// runHash field is computed locally and is not part of it.
func ProductivityScoreSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"utilizationScore":      {Type: genai.TypeNumber, Description: "The main score from 0 to 100."},
			"percentileEstimates":   {Type: genai.TypeString, Description: "A summary string of percentile estimates."},
			"inputsObserved":        stringArray(),
			"highLeverageBehaviors": stringArray(),
			"missedLeverage":        stringArray(),
			"cohortComparison": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"cohort":   {Type: genai.TypeString},
						"standing": {Type: genai.TypeString},
						"reason":   {Type: genai.TypeString},
					},
					Required: []string{"cohort", "standing", "reason"},
				},
			},
			"whatMovesYou": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":  {Type: genai.TypeString},
						"points": stringArray(),
					},
					Required: []string{"title", "points"},
				},
			},
			"minimalRubric": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"category": {Type: genai.TypeString},
						"score":    {Type: genai.TypeNumber},
						"maxScore": {Type: genai.TypeNumber},
					},
					Required: []string{"category", "score", "maxScore"},
				},
			},
			"callToAction": {Type: genai.TypeString},
		},
		Required: []string{
			"utilizationScore",
			"percentileEstimates",
			"inputsObserved",
			"highLeverageBehaviors",
			"missedLeverage",
			"cohortComparison",
			"whatMovesYou",
			"minimalRubric",
			"callToAction",
		},
	}
}
