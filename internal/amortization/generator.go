package amortization

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/segyhp/installment-engine/internal/domain"
	customError "github.com/segyhp/installment-engine/pkg/errors"
	"github.com/segyhp/installment-engine/pkg/utils"
)

// Generator dispatches to the configured amortization method
type Generator struct {
	Presets  PresetTable
	Step     int64
	Fallback domain.AmortizationMethod
}

// NewGenerator creates a generator with the default presets.
// Fallback is the dynamic method used when no preset matches; anything other
// than price selects SAC.
func NewGenerator(step int64, fallback domain.AmortizationMethod) *Generator {
	if step <= 0 {
		step = utils.DefaultRoundingStep
	}
	if fallback != domain.MethodPrice {
		fallback = domain.MethodSAC
	}
	return &Generator{
		Presets:  DefaultPresets(),
		Step:     step,
		Fallback: fallback,
	}
}

// Generate produces the installment plan for terms and reports which method
// actually produced it. An empty method and an unmatched preset both resolve
// to the fallback.
func (g *Generator) Generate(method domain.AmortizationMethod, terms Terms) ([]domain.Installment, domain.AmortizationMethod, error) {
	if err := terms.Validate(); err != nil {
		return nil, "", err
	}

	if method == "" {
		method = g.Fallback
	}

	switch method {
	case domain.MethodPrice:
		plan, err := Price(terms)
		return plan, domain.MethodPrice, err
	case domain.MethodSAC:
		plan, err := SAC(terms, g.Step)
		return plan, domain.MethodSAC, err
	case domain.MethodPreset:
		if values, ok := g.Presets.Lookup(terms.Principal, terms.Installments); ok {
			return fromTotals(terms, values), domain.MethodPreset, nil
		}
		log.Debug().
			Str("principal", terms.Principal.StringFixed(2)).
			Int("installments", terms.Installments).
			Str("fallback", string(g.Fallback)).
			Msg("no preset matches terms, using dynamic schedule")
		return g.Generate(g.Fallback, terms)
	default:
		return nil, "", customError.WrapInvalidTerms(fmt.Sprintf("unsupported amortization method %q", method))
	}
}
