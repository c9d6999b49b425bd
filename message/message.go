// Package message defines the tagged message and content-block model shared
// across the engine, memory, toolkit, and hook packages. A Msg is the unit
// the ReAct loop appends to Memory; a ContentBlock is one piece of a Msg's
// body (text, reasoning, tool call, tool result, or media).
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies the author of a Msg. Role is immutable once a Msg is
// constructed — there is no setter.
type Role string

const (
	RoleSystem    Role = "SYSTEM"
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
	RoleTool      Role = "TOOL"
)

// ChatUsage records token accounting and latency reported by a Model for a
// single turn.
type ChatUsage struct {
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	Latency      time.Duration `json:"latency,omitempty"`
}

// Msg is one turn in a conversation transcript. A TOOL-role Msg carries
// exactly the ToolResult blocks answering one preceding ASSISTANT turn's
// ToolUse blocks, in the same order those ToolUse blocks appeared.
type Msg struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Role     Role           `json:"role"`
	Content  []ContentBlock `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Usage    *ChatUsage     `json:"usage,omitempty"`
}

// Text returns the concatenation of every Text block's content, in order.
// Thinking blocks are excluded.
func (m Msg) Text() string {
	var out string
	for _, b := range m.Content {
		if t, ok := b.(Text); ok {
			out += t.Text
		}
	}
	return out
}

// ToolUses returns every ToolUse block in the message, in appearance order.
func (m Msg) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range m.Content {
		if tu, ok := b.(ToolUse); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}

// MetadataBool reports the boolean value of a metadata key, defaulting to
// false when absent or of another type.
func (m Msg) MetadataBool(key string) bool {
	v, ok := m.Metadata[key].(bool)
	return ok && v
}

// Clone returns a copy of the message with its own Content slice, Metadata
// map and Usage, so those can be replaced or edited without touching the
// original (used by Memory.Snapshot). Maps and slices nested inside content
// blocks (such as ToolUse.Input) or inside metadata values are shared.
func (m Msg) Clone() Msg {
	clone := m
	if m.Content != nil {
		clone.Content = make([]ContentBlock, len(m.Content))
		copy(clone.Content, m.Content)
	}
	if m.Metadata != nil {
		clone.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	if m.Usage != nil {
		usage := *m.Usage
		clone.Usage = &usage
	}
	return clone
}

// Kind discriminates ContentBlock variants on the wire.
type Kind string

const (
	KindText      Kind = "text"
	KindThinking  Kind = "thinking"
	KindToolUse   Kind = "tool_use"
	KindToolResult Kind = "tool_result"
	KindImage     Kind = "image"
	KindAudio     Kind = "audio"
	KindVideo     Kind = "video"
)

// ContentBlock is a closed tagged union. Every variant implements Kind() and
// the package-private marker method so external types cannot satisfy the
// interface by accident.
type ContentBlock interface {
	Kind() Kind
	isContentBlock()
}

// Text is natural-language content intended for the model and the user.
type Text struct {
	Text string `json:"text"`
}

func (Text) Kind() Kind     { return KindText }
func (Text) isContentBlock() {}

// Thinking is internal reasoning. Formatters must never send Thinking blocks
// back to the model in outgoing payloads (see formatter.Formatter).
type Thinking struct {
	Thinking string `json:"thinking"`
}

func (Thinking) Kind() Kind     { return KindThinking }
func (Thinking) isContentBlock() {}

// ToolUse is a model-requested tool invocation.
type ToolUse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Input      map[string]any `json:"input"`
	RawContent json.RawMessage `json:"raw_content,omitempty"`
}

func (ToolUse) Kind() Kind     { return KindToolUse }
func (ToolUse) isContentBlock() {}

// ToolResult answers a ToolUse with the same ID.
type ToolResult struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Output []ContentBlock `json:"output"`
}

func (ToolResult) Kind() Kind     { return KindToolResult }
func (ToolResult) isContentBlock() {}

// MediaSource is either a remote URL or inline base64 payload. Exactly one
// of URL or Base64 is set.
type MediaSource struct {
	URL    string       `json:"url,omitempty"`
	Base64 *Base64Media `json:"base64,omitempty"`
}

// Base64Media is inline media data.
type Base64Media struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Image is an image content block.
type Image struct {
	Source MediaSource `json:"source"`
}

func (Image) Kind() Kind     { return KindImage }
func (Image) isContentBlock() {}

// Audio is an audio content block.
type Audio struct {
	Source MediaSource `json:"source"`
}

func (Audio) Kind() Kind     { return KindAudio }
func (Audio) isContentBlock() {}

// Video is a video content block.
type Video struct {
	Source MediaSource `json:"source"`
}

func (Video) Kind() Kind     { return KindVideo }
func (Video) isContentBlock() {}

// wireBlock is the envelope used to (de)serialize the ContentBlock union.
// ID and Name are shared by ToolUse and ToolResult; Output encodes nested
// blocks through MarshalContentBlocks.
type wireBlock struct {
	Kind Kind `json:"kind"`
	Text
	Thinking
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Input      map[string]any  `json:"input"`
	RawContent json.RawMessage `json:"raw_content,omitempty"`
	Output     blockList       `json:"output,omitempty"`
	Source     MediaSource     `json:"source,omitempty"`
}

// blockList is a []ContentBlock that (de)serializes through the tagged
// wire format.
type blockList []ContentBlock

func (l blockList) MarshalJSON() ([]byte, error) { return MarshalContentBlocks(l) }

func (l *blockList) UnmarshalJSON(data []byte) error {
	blocks, err := UnmarshalContentBlocks(data, false)
	*l = blocks
	return err
}

// MarshalContentBlocks encodes a slice of ContentBlock to JSON, tagging each
// element with its Kind.
func MarshalContentBlocks(blocks []ContentBlock) ([]byte, error) {
	wires := make([]wireBlock, len(blocks))
	for i, b := range blocks {
		wires[i] = toWire(b)
	}
	return json.Marshal(wires)
}

func toWire(b ContentBlock) wireBlock {
	w := wireBlock{Kind: b.Kind()}
	switch v := b.(type) {
	case Text:
		w.Text = v
	case Thinking:
		w.Thinking = v
	case ToolUse:
		w.ID, w.Name, w.Input, w.RawContent = v.ID, v.Name, v.Input, v.RawContent
	case ToolResult:
		w.ID, w.Name, w.Output = v.ID, v.Name, v.Output
	case Image:
		w.Source = v.Source
	case Audio:
		w.Source = v.Source
	case Video:
		w.Source = v.Source
	}
	return w
}

// UnmarshalContentBlocks decodes JSON into ContentBlock variants. Unless
// allowUnknown is true, an unrecognized Kind fails closed with an error,
// per the forward-compatibility rule in the design notes.
func UnmarshalContentBlocks(data []byte, allowUnknown bool) ([]ContentBlock, error) {
	var wires []wireBlock
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, err
	}
	blocks := make([]ContentBlock, 0, len(wires))
	for _, w := range wires {
		b, err := fromWire(w)
		if err != nil {
			if allowUnknown {
				continue
			}
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func fromWire(w wireBlock) (ContentBlock, error) {
	switch w.Kind {
	case KindText:
		return w.Text, nil
	case KindThinking:
		return w.Thinking, nil
	case KindToolUse:
		return ToolUse{ID: w.ID, Name: w.Name, Input: w.Input, RawContent: w.RawContent}, nil
	case KindToolResult:
		return ToolResult{ID: w.ID, Name: w.Name, Output: w.Output}, nil
	case KindImage:
		return Image{Source: w.Source}, nil
	case KindAudio:
		return Audio{Source: w.Source}, nil
	case KindVideo:
		return Video{Source: w.Source}, nil
	default:
		return nil, fmt.Errorf("message: unknown content block kind %q", w.Kind)
	}
}

// MarshalJSON implements json.Marshaler for Msg, serializing Content through
// MarshalContentBlocks.
func (m Msg) MarshalJSON() ([]byte, error) {
	type alias struct {
		ID       string          `json:"id"`
		Name     string          `json:"name,omitempty"`
		Role     Role            `json:"role"`
		Content  json.RawMessage `json:"content"`
		Metadata map[string]any  `json:"metadata,omitempty"`
		Usage    *ChatUsage      `json:"usage,omitempty"`
	}
	contentJSON, err := MarshalContentBlocks(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(alias{
		ID:       m.ID,
		Name:     m.Name,
		Role:     m.Role,
		Content:  contentJSON,
		Metadata: m.Metadata,
		Usage:    m.Usage,
	})
}

// UnmarshalJSON implements json.Unmarshaler for Msg. Unknown content block
// kinds fail closed; UnmarshalContentBlocks with allowUnknown=true is the
// permissive path.
func (m *Msg) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID       string          `json:"id"`
		Name     string          `json:"name,omitempty"`
		Role     Role            `json:"role"`
		Content  json.RawMessage `json:"content"`
		Metadata map[string]any  `json:"metadata,omitempty"`
		Usage    *ChatUsage      `json:"usage,omitempty"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	blocks, err := UnmarshalContentBlocks(a.Content, false)
	if err != nil {
		return err
	}
	m.ID = a.ID
	m.Name = a.Name
	m.Role = a.Role
	m.Content = blocks
	m.Metadata = a.Metadata
	m.Usage = a.Usage
	return nil
}
