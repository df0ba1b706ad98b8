// Package narrative turns computed gait metrics and patient context into a
// structured clinical analysis via an external text-generation capability.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"golang.org/x/sync/singleflight"

	"gait-backend/internal/errs"
)

// Request carries the formatted inputs for one narrative generation.
type Request struct {
	Age               string
	Weight            string
	Prosthetics       string
	MedicalConditions string
	Injuries          string
	GaitData          string
}

// Analysis is the validated structured response.
type Analysis struct {
	DetailedAnalysis      string   `json:"detailed_analysis" jsonschema:"required"`
	Summary               string   `json:"summary" jsonschema:"required"`
	PossibleAbnormalities []string `json:"possible_abnormalities" jsonschema:"required"`
	Recommendations       []string `json:"recommendations" jsonschema:"required"`
	RecommendedExercises  []string `json:"recommended_exercises" jsonschema:"required"`
	LongTermRisks         []string `json:"long_term_risks" jsonschema:"required"`
}

// Generator is the external narrative-generation capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Analysis, error)
}

// OpenAIGenerator produces the analysis through the OpenAI Responses API
// with a strict JSON schema. The underlying client is an expensive shared
// handle: it is created lazily once per process and reused across runs, with
// a single-flight guard resolving initialization races.
type OpenAIGenerator struct {
	APIKey string
	Model  string

	initGroup singleflight.Group
	client    *openai.Client
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{APIKey: apiKey, Model: model}
}

func (g *OpenAIGenerator) getClient() (*openai.Client, error) {
	v, err, _ := g.initGroup.Do("client", func() (any, error) {
		if g.client != nil {
			return g.client, nil
		}
		if g.APIKey == "" {
			return nil, fmt.Errorf("narrative generation API key is not configured")
		}
		c := openai.NewClient(option.WithAPIKey(g.APIKey))
		g.client = &c
		return g.client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*openai.Client), nil
}

// Generate renders the prompt, requests a schema-constrained completion and
// validates the response. Any unparsable or schema-violating response is a
// DataError, never silently coerced.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Analysis, error) {
	client, err := g.getClient()
	if err != nil {
		return nil, err
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "GaitAnalysis",
			Schema:      analysisSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Structured gait analysis JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:        g.Model,
		Instructions: openai.String(systemInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(buildPrompt(req), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("narrative generation request: %w", err)
	}
	return parseAnalysis(resp.OutputText())
}

// parseAnalysis strips stray code-fence markers, decodes the JSON body and
// checks the required structure.
func parseAnalysis(raw string) (*Analysis, error) {
	cleaned := stripCodeFence(raw)

	var out Analysis
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, errs.NewDataError("narrative response is not valid JSON", err)
	}
	if out.DetailedAnalysis == "" || out.Summary == "" {
		return nil, errs.NewDataError("narrative response does not match the expected structure", nil)
	}
	// The list fields may be empty but never absent from the row we persist.
	if out.PossibleAbnormalities == nil {
		out.PossibleAbnormalities = []string{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	if out.RecommendedExercises == nil {
		out.RecommendedExercises = []string{}
	}
	if out.LongTermRisks == nil {
		out.LongTermRisks = []string{}
	}
	return &out, nil
}

// stripCodeFence removes ```json and ``` markers from the response if present.
func stripCodeFence(s string) string {
	content := strings.TrimSpace(s)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimSpace(strings.TrimPrefix(content, "```json"))
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSpace(strings.TrimSuffix(content, "```"))
	}
	return content
}

var analysisSchema = generateSchema[Analysis]()

func generateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		panic(err)
	}
	return obj
}
