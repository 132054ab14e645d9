package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30
	geminiOutputPricePerMillion = 2.50
)

const estimatePrompt = `You are an expert in scrap metal and e-waste valuation.

You will use the provided information, including a description and a photo, to estimate the value, material composition, and condition of the scrap item.

Description: %s
Photo: (attached)

Consider factors like material type, weight, condition, and current market prices.

Provide your estimate in USD.

Respond in JSON format with these fields:
- estimatedValue: The estimated value of the scrap item in USD (number).
- materialComposition: The estimated material composition of the scrap item.
- condition: The estimated condition of the scrap item.`

// contentGenerator is the part of the genai client the estimator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiEstimator uses Google's Gemini API to value scrap items from a photo.
type GeminiEstimator struct {
	models contentGenerator
	model  string
}

// NewGeminiEstimator creates a Gemini-based estimator.
func NewGeminiEstimator(ctx context.Context, apiKey, model string) (*GeminiEstimator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEstimator{models: client.Models, model: model}, nil
}

// Model returns the Gemini model name used for estimates.
func (g *GeminiEstimator) Model() string {
	return g.model
}

// estimateSchema is the structured output contract for the model response.
func estimateSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"estimatedValue": {
				Type:        genai.TypeNumber,
				Description: "The estimated value of the scrap item in USD.",
			},
			"materialComposition": {
				Type:        genai.TypeString,
				Description: "The estimated material composition of the scrap item.",
			},
			"condition": {
				Type:        genai.TypeString,
				Description: "The estimated condition of the scrap item.",
			},
		},
		Required:         []string{"estimatedValue", "materialComposition", "condition"},
		PropertyOrdering: []string{"estimatedValue", "materialComposition", "condition"},
	}
}

// Estimate implements the Estimator interface using Gemini.
func (g *GeminiEstimator) Estimate(ctx context.Context, req Request) (*Estimation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(fmt.Sprintf(estimatePrompt, req.Description)),
		{InlineData: &genai.Blob{Data: req.Photo.Data, MIMEType: req.Photo.MIMEType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   estimateSchema(),
	}

	result, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate content: %w", ErrEstimationFailed, err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from Gemini", ErrEstimationFailed)
	}

	estimate, err := parseResult(result.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEstimationFailed, err)
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens)
	}

	log.Info().
		Str("model", g.model).
		Int("photoBytes", len(req.Photo.Data)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Float64("estimatedValue", estimate.EstimatedValue).
		Msg("valuation llm call")

	return &Estimation{Result: estimate, Usage: usage}, nil
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// parseResult decodes and validates the model output. Missing fields are
// errors, not zero values.
func parseResult(text string) (*Result, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	var raw struct {
		EstimatedValue      *float64 `json:"estimatedValue"`
		MaterialComposition *string  `json:"materialComposition"`
		Condition           *string  `json:"condition"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr)
	}
	if raw.EstimatedValue == nil || raw.MaterialComposition == nil || raw.Condition == nil {
		return nil, fmt.Errorf("response is missing required fields (response: %s)", jsonStr)
	}

	res := &Result{
		EstimatedValue:      *raw.EstimatedValue,
		MaterialComposition: strings.TrimSpace(*raw.MaterialComposition),
		Condition:           strings.TrimSpace(*raw.Condition),
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return res, nil
}
