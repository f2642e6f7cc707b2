package project

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dependencies keeps dependency order from the YAML mapping
//
//	dependencies:
//	  vbulletin: ["4.0.0", "4.2.99"]
//	  php: ["5.2.0", ""]
type Dependencies []Dependency

// UnmarshalYAML decodes a mapping of type to [min, max].
func (d *Dependencies) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("dependencies: expected mapping, got %s", nodeKind(node))
	}
	out := make(Dependencies, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var bounds []string
		if err := value.Decode(&bounds); err != nil {
			return fmt.Errorf("dependency %q: %w", key.Value, err)
		}
		if len(bounds) > 2 {
			return fmt.Errorf("dependency %q: expected [min, max], got %d values", key.Value, len(bounds))
		}
		dep := Dependency{Type: key.Value}
		if len(bounds) > 0 {
			dep.MinVersion = bounds[0]
		}
		if len(bounds) > 1 {
			dep.MaxVersion = bounds[1]
		}
		out = append(out, dep)
	}
	*d = out
	return nil
}

// MarshalYAML encodes the dependencies as an ordered mapping.
func (d Dependencies) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, dep := range d {
		bounds := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		bounds.Content = []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: dep.MinVersion, Style: yaml.DoubleQuotedStyle},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: dep.MaxVersion, Style: yaml.DoubleQuotedStyle},
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: dep.Type},
			bounds,
		)
	}
	return node, nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "mapping"
	}
}
