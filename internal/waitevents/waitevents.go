// Package waitevents loads the list of wait event names to extract.
package waitevents

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tinytelemetry/awrhist/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrNoWaitEvents is returned when a configured event list is empty.
var ErrNoWaitEvents = errors.New("no wait events configured")

// eventsDocument is the mapping form of an events file.
type eventsDocument struct {
	WaitEvents    []string `yaml:"wait-events"`
	WaitEventsAlt []string `yaml:"wait_events"`
	Events        []string `yaml:"events"`
}

// Load reads an events file. The file may be a plain YAML or JSON list of
// names, or a mapping with a "wait-events" (or "wait_events", "events") key.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wait events file: %w", err)
	}
	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Parse decodes an events document. See Load for the accepted shapes.
func Parse(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing wait events: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, ErrNoWaitEvents
	}

	var names []string
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&names); err != nil {
			return nil, fmt.Errorf("parsing wait events list: %w", err)
		}
	case yaml.MappingNode:
		var doc eventsDocument
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing wait events mapping: %w", err)
		}
		names = append(names, doc.WaitEvents...)
		names = append(names, doc.WaitEventsAlt...)
		names = append(names, doc.Events...)
	default:
		return nil, fmt.Errorf("parsing wait events: expected a list or mapping, got %s", kindName(root.Kind))
	}

	return Normalize(names)
}

// Defaults returns a copy of the built-in event list.
func Defaults() []string {
	return append([]string(nil), model.DefaultWaitEvents...)
}

// Normalize trims names, drops blanks and duplicates, and keeps first-seen order.
func Normalize(names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, ErrNoWaitEvents
	}
	return out, nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return fmt.Sprintf("kind %d", kind)
	}
}
