package tools

import (
	"fmt"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// Deps bundles the external capabilities the standard tool set needs
type Deps struct {
	CaseLaw    domain.CaseLawService
	Regulation domain.RegulationService
	Verifier   domain.CitationVerifier
	Now        Clock
}

// NewDefaultRegistry builds the registry holding the full research tool set
func NewDefaultRegistry(deps Deps) (*Registry, error) {
	registry := NewRegistry()

	all := []domain.Tool{
		NewSearchCaseLawTool(deps.CaseLaw),
		NewGetCFRTextTool(deps.Regulation),
		NewVerifyCitationTool(deps.Verifier),
		NewGetCurrentDateTool(deps.Now),
		NewCheckDeadlineStatusTool(deps.Now),
		NewValidateTimelineTool(deps.Now),
		NewGenerateTimelineTool(deps.Now),
		NewGenerateMotionTemplateTool(),
	}

	for _, tool := range all {
		if err := registry.Register(tool); err != nil {
			return nil, fmt.Errorf("registering %s: %w", tool.Name(), err)
		}
	}
	return registry, nil
}
