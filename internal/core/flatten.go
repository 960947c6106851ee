package core

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Flatten turns a nested document into dotted-path keys:
// {"a": {"b": {"c": "v"}}} becomes {"a.b.c": "v"}. Leaves are kept as
// they are (strings, lists, nil); nested maps inside lists are rejected.
// A path reached twice, e.g. {"a": {"b": 1}, "a.b": 2}, is an error.
func Flatten(doc map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	if err := flattenInto(out, "", doc); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]any, prefix string, node map[string]any) error {
	for k, v := range node {
		path := joinPath(prefix, k)
		if child, ok := v.(map[string]any); ok {
			if err := flattenInto(out, path, child); err != nil {
				return err
			}
			continue
		}
		if _, dup := out[path]; dup {
			return duplicatePath(path)
		}
		if list, ok := v.([]any); ok {
			for _, item := range list {
				switch item.(type) {
				case map[string]any, []any:
					return invalidf("key %q: lists may only contain strings", path)
				}
			}
		}
		out[path] = v
	}
	return nil
}

func duplicatePath(path string) error {
	return invalidf("key %q is defined more than once", path)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// parseYAML decodes a YAML document whose root is a mapping and flattens it.
// Scalars keep their source text, so numbers, booleans and dates become
// strings exactly as written; null leaves become nil and are skipped by
// the importer.
func parseYAML(data []byte) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, invalidf("parse YAML: %v", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, invalidf("YAML document is empty")
	}

	doc := resolveAlias(root.Content[0])
	if doc.Kind != yaml.MappingNode {
		return nil, invalidf("YAML document root must be a mapping")
	}

	out := make(map[string]any)
	if err := flattenNode(out, "", doc); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenNode(out map[string]any, prefix string, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		if keyNode.Kind != yaml.ScalarNode {
			return invalidf("YAML keys must be scalars (line %d)", keyNode.Line)
		}
		path := joinPath(prefix, keyNode.Value)
		valNode := resolveAlias(node.Content[i+1])
		if _, dup := out[path]; dup && valNode.Kind != yaml.MappingNode {
			return duplicatePath(path)
		}

		switch valNode.Kind {
		case yaml.MappingNode:
			if err := flattenNode(out, path, valNode); err != nil {
				return err
			}
		case yaml.SequenceNode:
			items := make([]string, 0, len(valNode.Content))
			for _, itemNode := range valNode.Content {
				item := resolveAlias(itemNode)
				if item.Kind != yaml.ScalarNode || isNull(item) {
					return invalidf("key %q: lists may only contain strings (line %d)", path, item.Line)
				}
				items = append(items, item.Value)
			}
			out[path] = items
		case yaml.ScalarNode:
			if isNull(valNode) {
				out[path] = nil
				continue
			}
			out[path] = valNode.Value
		default:
			return invalidf("key %q: unsupported YAML node (line %d)", path, valNode.Line)
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// sortedKeys returns the keys of a flat document in import order.
func sortedKeys(entries map[string]any) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// rawToValue converts one flat document leaf to a Value. skip is true for
// null leaves.
func rawToValue(keyName string, raw any) (v Value, skip bool, err error) {
	switch val := raw.(type) {
	case nil:
		return Value{}, true, nil
	case string:
		return StringValue(val), false, nil
	case []string:
		return ListValue(val...), false, nil
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return Value{}, false, invalidf("key %q: list element %d must be a string, got %T", keyName, i, item)
			}
			items[i] = s
		}
		return ListValue(items...), false, nil
	case Value:
		return val, false, nil
	default:
		return Value{}, false, invalidf("key %q: value must be a string or a list of strings, got %s", keyName, describe(raw))
	}
}

func describe(v any) string {
	switch v.(type) {
	case map[string]any:
		return "an object"
	case bool:
		return "a boolean"
	case float64, int, int64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
