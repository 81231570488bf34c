package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const extractToolName = "record_job_structure"

const extractPrompt = `Extract the structure of the following job description.
Use the original language of the posting for every extracted item.
Description:

%s`

// AnthropicExtractor implements Extractor using the Anthropic messages API
// with a forced tool call so the output always matches the contract.
type AnthropicExtractor struct {
	client anthropic.Client
	model  anthropic.Model
	cfg    config.AnthropicConfig
}

// NewAnthropicExtractor creates a structured extractor client
func NewAnthropicExtractor(cfg config.AnthropicConfig) (*AnthropicExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicExtractor{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  anthropic.Model(cfg.Model),
		cfg:    cfg,
	}, nil
}

// Extract invokes the model with a typed-output tool contract
func (e *AnthropicExtractor) Extract(ctx context.Context, rawText string) (*JobStructure, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	tool := anthropic.ToolParam{
		Name:        extractToolName,
		Description: anthropic.String("Record the structured fields of a job description"),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]interface{}{
				"responsibilities": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"requirements": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"skills": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"education":  map[string]interface{}{"type": "string"},
				"experience": map[string]interface{}{"type": "string"},
			},
			Required: []string{"responsibilities", "requirements", "skills"},
		},
	}

	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: 2048,
		Tools:     []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: extractToolName},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(extractPrompt, rawText))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("structured extraction request: %w", err)
	}

	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			out := &JobStructure{}
			if err := json.Unmarshal([]byte(variant.JSON.Input.Raw()), out); err != nil {
				return nil, fmt.Errorf("decode extraction output: %w", err)
			}
			return out, nil
		}
	}

	return nil, fmt.Errorf("model returned no tool call")
}
