package mocks

import (
	"github.com/kevin07696/merchant-gateway/internal/adapters/ports"
)

// CorruptRequestProcessor wraps a processor and prepends "<" to every payload
// it builds, so the processor receives a request it cannot parse
type CorruptRequestProcessor struct {
	ports.Processor
}

func (p *CorruptRequestProcessor) BuildRequest(req *ports.Request) (*ports.WirePayload, error) {
	payload, err := p.Processor.BuildRequest(req)
	if err != nil {
		return nil, err
	}
	return &ports.WirePayload{
		ContentType: payload.ContentType,
		Body:        append([]byte("<"), payload.Body...),
	}, nil
}

// SupportsForcedOutcome passes through the wrapped processor's capability
func (p *CorruptRequestProcessor) SupportsForcedOutcome() bool {
	f, ok := p.Processor.(ports.OutcomeForcer)
	return ok && f.SupportsForcedOutcome()
}
