// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// vars_cmd.go - Playbook variable export command for rigup.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: vars
// Short:   Print the ansible-playbook variables built from the cache
// Aliases: extra-vars
//
// Examples:
//   rigup vars                         JSON to stdout, secrets masked
//   rigup vars --format yaml           YAML instead
//   rigup vars -o group_vars/all.json  Write to a file (0600)
//   rigup vars --with-secrets          Include credential values
//
// Secrets are masked by default so the output is safe to paste into a
// ticket. --with-secrets produces a document that can be fed straight
// back to ansible-playbook.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/rigup/internal/ansible"
	"github.com/jeranaias/rigup/internal/settings"
)

// HandleVars handles the "vars" command. It never returns.
func HandleVars(args Args) {
	if err := exportVars(args); err != nil {
		HandleErrorAndExit(err)
	}
	os.Exit(ExitSuccess)
}

func exportVars(args Args) error {
	format := strings.ToLower(args.Format)
	if format != ansible.FormatJSON && format != ansible.FormatYAML {
		return NewValidationError("format", args.Format,
			"unknown export format", "rigup vars --format yaml")
	}

	s, err := settings.Load()
	if err != nil {
		return WrapError(err, "loading cached settings")
	}
	s.Normalize()

	vars := ansible.BuildVars(s)
	out, err := ansible.Export(vars, format, args.WithSecrets)
	if err != nil {
		return err
	}

	if args.Output != "" {
		// Variable files can hold credentials, keep them owner-only.
		if err := os.WriteFile(args.Output, []byte(out), 0o600); err != nil {
			return WrapError(err, "writing "+args.Output)
		}
		if !args.Quiet {
			fmt.Printf("%s Wrote %d variables to %s\n",
				SuccessStyle.Render("[OK]"), len(vars), args.Output)
		}
		return nil
	}

	// Highlighting is for eyes only. Pipes and redirects get plain text
	// so `rigup vars | jq` keeps working.
	if IsStdoutTTY() && ColorsEnabled() {
		out = highlightDocument(out, format)
	}
	fmt.Print(out)
	return nil
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightDocument applies terminal syntax highlighting to an exported
// document. Returns the input unchanged when highlighting fails.
func highlightDocument(doc, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, doc)
	if err != nil {
		return doc
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return doc
	}
	return buf.String()
}
