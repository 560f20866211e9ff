// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ansible

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// VARIABLE EXPORT
// =============================================================================

// Export formats understood by `rigup vars --format`.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Export renders the variable list in the requested format. Credential
// values are masked unless includeSecrets is set; a masked export still
// parses, it just cannot be fed back to the playbook as-is.
func Export(vars []Var, format string, includeSecrets bool) (string, error) {
	switch format {
	case FormatJSON:
		return exportJSON(vars, includeSecrets), nil
	case FormatYAML:
		return exportYAML(vars, includeSecrets)
	default:
		return "", fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatJSON, FormatYAML)
	}
}

func exportValue(v Var, includeSecrets bool) string {
	if v.Secret() && !includeSecrets {
		return RedactedValue
	}
	return v.Value
}

// exportJSON emits the object by hand so the keys keep build order;
// encoding/json would sort a map alphabetically.
func exportJSON(vars []Var, includeSecrets bool) string {
	var b bytes.Buffer
	b.WriteString("{\n")
	for i, v := range vars {
		key, _ := json.Marshal(v.Key)
		val, _ := json.Marshal(exportValue(v, includeSecrets))
		b.WriteString("  ")
		b.Write(key)
		b.WriteString(": ")
		b.Write(val)
		if i < len(vars)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

// exportYAML builds the document as an explicit mapping node; marshaling
// a map would lose the build order. The !!str tags keep values like "3"
// quoted as strings instead of collapsing into integers.
func exportYAML(vars []Var, includeSecrets bool) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, v := range vars {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: exportValue(v, includeSecrets)},
		)
	}
	out, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("marshal vars: %w", err)
	}
	return string(out), nil
}
