// Package formatter declares the transcript<->provider-payload boundary.
// Concrete formatters (rendering a []message.Msg to a specific vendor's wire
// format, and parsing that vendor's response back into a model.ChatResponse)
// are external collaborators per spec §1; this package only holds the
// contract the engine calls through.
package formatter

import (
	"time"

	"github.com/nexuscore/agentkit/message"
	"github.com/nexuscore/agentkit/model"
)

// Formatter renders a transcript to a provider payload and parses a
// provider response back into a ChatResponse. Implementations decide how
// roles, tool calls, and media map onto a specific vendor's wire format;
// Thinking blocks are conventionally skipped when formatting outbound
// payloads (see spec §8 R1) since providers do not accept a model's own
// prior reasoning back as input.
type Formatter interface {
	// Format renders messages (already including any system prompt as a
	// SYSTEM-role Msg) into the provider-specific payload the Model
	// implementation expects.
	Format(messages []message.Msg) (any, error)

	// ParseResponse converts a provider response payload into a
	// ChatResponse. startedAt is passed through so implementations can
	// compute latency for message.ChatUsage.
	ParseResponse(payload any, startedAt time.Time) (model.ChatResponse, error)
}
