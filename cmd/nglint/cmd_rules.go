// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/nglint/services/lint/rules"
)

func newRulesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the available rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			enabled := make(map[string]bool)
			for _, name := range cfg.EnabledRules() {
				enabled[name] = true
			}
			meta := rules.Default().Metadata()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}
			return printRules(cmd.OutOrStdout(), meta, enabled)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rule metadata as JSON")
	return cmd
}

func printRules(w io.Writer, meta []rules.Metadata, enabled map[string]bool) error {
	name := lipgloss.NewStyle().Width(36)
	category := lipgloss.NewStyle().Width(17)
	for _, m := range meta {
		mark := " "
		if enabled[m.Name] {
			mark = "✓"
		}
		fix := ""
		if m.HasFix {
			fix = " (fixable)"
		}
		if _, err := fmt.Fprintf(w, "%s %s%s%s%s\n", mark, name.Render(m.Name), category.Render(string(m.Category)), m.Description, fix); err != nil {
			return err
		}
	}
	return nil
}
