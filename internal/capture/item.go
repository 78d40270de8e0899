package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is the verb a queue item asks the pipeline to perform.
type Action string

const (
	// ActionSave persists the capture and runs full enrichment.
	ActionSave Action = "save"
	// ActionAnalyze requests an enrichment pass. It shares ActionSave's
	// flow; descriptor IDs are stable, so the pass lands on the existing
	// record when the capture was already saved and creates one otherwise.
	// The verb records the producer's intent.
	ActionAnalyze Action = "analyze"
	// ActionProcess re-runs enrichment over an existing record's retained
	// payload.
	ActionProcess Action = "process"
)

var actions = map[Action]struct{}{
	ActionSave:    {},
	ActionAnalyze: {},
	ActionProcess: {},
}

// ParseAction converts a string into a known Action.
func ParseAction(value string) (Action, bool) {
	normalized := Action(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := actions[normalized]
	return normalized, ok
}

// Well-known provenance tags for queue items.
const (
	SourceCapture      = "capture"
	SourceRetry        = "retry"
	SourceDuplicate    = "duplicate"
	SourceWidgetAction = "widget_action"
	SourceDeepLink     = "deep_link"
	SourceReprocess    = "reprocess"
)

// Item is one durable unit of work. It wraps a Descriptor with an action
// verb, provenance, and optional media bytes.
type Item struct {
	// ID identifies this queue entry. Distinct from Descriptor.ID: two
	// enqueues of the same capture produce two items.
	ID         string     `json:"id"`
	Action     Action     `json:"action"`
	Descriptor Descriptor `json:"descriptor"`
	Source     string     `json:"source"`
	CreatedAt  time.Time  `json:"created_at"`
	// Payload holds raw media bytes inline. Large payloads are spilled to a
	// sidecar file by the queue store; PayloadRef then names it.
	Payload    []byte `json:"payload,omitempty"`
	PayloadRef string `json:"payload_ref,omitempty"`
	// Attachment carries auxiliary bytes (e.g. a depth map or second shot).
	Attachment []byte `json:"attachment,omitempty"`
	// ContextImageURL points at a side-car context image captured with the
	// item but hosted elsewhere.
	ContextImageURL string `json:"context_image_url,omitempty"`
}

// NewItem builds a queue item with a fresh entry ID and provenance tag.
func NewItem(action Action, desc Descriptor, source string) (*Item, error) {
	if _, ok := ParseAction(string(action)); !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		source = SourceCapture
	}
	return &Item{
		ID:         uuid.NewString(),
		Action:     action,
		Descriptor: desc,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Validate checks an item decoded from disk.
func (i *Item) Validate() error {
	if i == nil {
		return fmt.Errorf("item is nil")
	}
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("item id is required")
	}
	if _, ok := ParseAction(string(i.Action)); !ok {
		return fmt.Errorf("unknown action %q", i.Action)
	}
	return i.Descriptor.Validate()
}

// HasInlinePayload reports whether media bytes travel inside the envelope.
func (i *Item) HasInlinePayload() bool {
	return i != nil && len(i.Payload) > 0
}
