package valuation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text     string
	err      error
	model    string
	config   *genai.GenerateContentConfig
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(f.text, genai.RoleModel)},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     1000,
			CandidatesTokenCount: 100,
			TotalTokenCount:      1100,
		},
	}, nil
}

func testRequest(t *testing.T, description string) Request {
	t.Helper()
	photo, err := NewPhoto(testPNG(t), "image/png")
	require.NoError(t, err)
	return Request{Photo: photo, Description: description}
}

func TestGeminiEstimator_Estimate(t *testing.T) {
	gen := &fakeGenerator{text: `{"estimatedValue": 42.5, "materialComposition": "Aluminum, plastic", "condition": "Fair"}`}
	est := &GeminiEstimator{models: gen, model: "test-model"}

	out, err := est.Estimate(context.Background(), testRequest(t, "old laptop"))
	require.NoError(t, err)

	assert.Equal(t, &Result{EstimatedValue: 42.5, MaterialComposition: "Aluminum, plastic", Condition: "Fair"}, out.Result)
	assert.Equal(t, "$42.50", out.Result.FormattedValue())
	assert.Equal(t, int64(1000), out.Usage.InputTokens)
	assert.Equal(t, int64(100), out.Usage.OutputTokens)
	assert.InDelta(t, 0.00055, out.Usage.CostUSD, 1e-9)
	assert.False(t, out.Cached)

	// Request carries the prompt, the photo and the output schema.
	assert.Equal(t, "test-model", gen.model)
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "Description: old laptop")
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.ElementsMatch(t, []string{"estimatedValue", "materialComposition", "condition"}, gen.config.ResponseSchema.Required)
}

func TestGeminiEstimator_ProviderError(t *testing.T) {
	providerErr := errors.New("quota exceeded")
	est := &GeminiEstimator{models: &fakeGenerator{err: providerErr}, model: "test-model"}

	_, err := est.Estimate(context.Background(), testRequest(t, "copper pipes"))
	assert.ErrorIs(t, err, ErrEstimationFailed)
	assert.ErrorIs(t, err, providerErr)
}

func TestGeminiEstimator_InvalidRequest(t *testing.T) {
	gen := &fakeGenerator{text: `{}`}
	est := &GeminiEstimator{models: gen, model: "test-model"}

	_, err := est.Estimate(context.Background(), testRequest(t, "   "))
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, gen.contents, "no request should be sent for invalid input")
}

func TestGeminiEstimator_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "I think it is worth about ten dollars"},
		{"missing condition", `{"estimatedValue": 10, "materialComposition": "Copper"}`},
		{"negative value", `{"estimatedValue": -3, "materialComposition": "Copper", "condition": "Good"}`},
		{"empty material", `{"estimatedValue": 3, "materialComposition": " ", "condition": "Good"}`},
		{"value as string", `{"estimatedValue": "3", "materialComposition": "Copper", "condition": "Good"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &GeminiEstimator{models: &fakeGenerator{text: tt.text}, model: "test-model"}
			_, err := est.Estimate(context.Background(), testRequest(t, "copper pipes"))
			assert.ErrorIs(t, err, ErrEstimationFailed)
		})
	}
}

func TestParseResult_MarkdownWrapped(t *testing.T) {
	res, err := parseResult("```json\n{\"estimatedValue\": 12, \"materialComposition\": \"Steel\", \"condition\": \"Rusty\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, 12.0, res.EstimatedValue)
	assert.Equal(t, "Steel", res.MaterialComposition)
	assert.Equal(t, "Rusty", res.Condition)
}
