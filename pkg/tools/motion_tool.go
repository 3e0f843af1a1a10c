package tools

import (
	"context"
	"strings"

	"github.com/counselflow/legal-research-agent/pkg/domain"
	"github.com/counselflow/legal-research-agent/pkg/motion"
)

// GenerateMotionTemplateTool renders a boilerplate motion skeleton. Pure
// computation over supplied facts, so no caching is needed.
type GenerateMotionTemplateTool struct{}

// NewGenerateMotionTemplateTool creates the motion template tool
func NewGenerateMotionTemplateTool() *GenerateMotionTemplateTool {
	return &GenerateMotionTemplateTool{}
}

// Name returns the tool name
func (t *GenerateMotionTemplateTool) Name() string { return "generate_motion_template" }

// Description returns the tool description
func (t *GenerateMotionTemplateTool) Description() string {
	return "Generate a markdown skeleton for a legal motion. Supported types: " +
		strings.Join(motion.SupportedTypes(), ", ") + "."
}

// Schema returns the tool's parameter schema
func (t *GenerateMotionTemplateTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"motion_type": {
				Type:        "string",
				Description: "Which skeleton to generate",
				Enum:        motion.SupportedTypes(),
			},
			"facts": {
				Type:        "object",
				Description: "Case facts: court, case_name, case_number, moving_party, opposing_party, judge, fact_summary, relief_sought, grounds",
			},
		},
		Required: []string{"motion_type"},
	}
}

// Execute renders the motion skeleton
func (t *GenerateMotionTemplateTool) Execute(_ context.Context, params map[string]interface{}) (string, error) {
	motionType, err := stringParam(params, "motion_type")
	if err != nil {
		return "", err
	}

	var facts motion.Facts
	if _, ok := params["facts"]; ok {
		if err := decodeParam(params, "facts", &facts); err != nil {
			return "", err
		}
	}

	return motion.Render(motionType, facts)
}
