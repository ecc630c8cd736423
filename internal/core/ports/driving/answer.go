package driving

import (
	"context"

	"github.com/custodia-labs/policybot/internal/core/domain"
)

// AnswerRequest describes one grounded question.
type AnswerRequest struct {
	// Tenant is the company_id namespace. Required.
	Tenant string

	// Question is the employee's natural-language question. Required.
	Question string

	// TopK overrides the configured number of retrieved chunks when > 0.
	TopK int

	// WantSources attaches the retrieved chunks' provenance to the result.
	WantSources bool
}

// Answerer retrieves tenant-scoped context and synthesises a grounded answer.
// Zero retrieved chunks is not an error: the model is still invoked and the
// system prompt's fallback instruction produces the "can't find this"
// response.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (*domain.AnswerResult, error)
}
