package gemini

import "google.golang.org/genai"

var stringList = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

// reportSchema makes the model answer with every report field present.
var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"diseaseName":              {Type: genai.TypeString},
		"confidence":               {Type: genai.TypeString},
		"symptoms":                 stringList,
		"treatment":                {Type: genai.TypeString},
		"fertilizerRecommendation": {Type: genai.TypeString},
		"preventionTips":           stringList,
	},
	Required: []string{"diseaseName", "confidence", "symptoms", "treatment", "fertilizerRecommendation", "preventionTips"},
}
