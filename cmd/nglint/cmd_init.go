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
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/nglint/services/lint/config"
	"github.com/AleutianAI/nglint/services/lint/rules"
)

func newInitCmd(a *app) *cobra.Command {
	var force, yes bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .nglint.yaml",
		Long: `Write the default configuration to the --config path. On a terminal,
prompts for the rules to enable unless --yes is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", a.configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			data := config.DefaultYAML()
			if !yes && isatty.IsTerminal(os.Stdin.Fd()) {
				var err error
				if data, err = promptConfig(cmd.Context()); err != nil {
					return err
				}
			}
			if err := os.WriteFile(a.configPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Write the defaults without prompting")
	return cmd
}

// promptConfig asks for the enabled rules and cache use, starting from
// the embedded default.
func promptConfig(ctx context.Context) ([]byte, error) {
	cfg, err := config.Load(ctx, nil)
	if err != nil {
		return nil, err
	}
	var options []huh.Option[string]
	for _, m := range rules.Default().Metadata() {
		rc := cfg.Rules[m.Name]
		options = append(options, huh.NewOption(m.Name, m.Name).Selected(rc.Enabled))
	}
	var selected []string
	useCache := cfg.Cache.Enabled

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Rules to enable").
				Options(options...).
				Value(&selected),
			huh.NewConfirm().
				Title("Cache results between runs?").
				Value(&useCache),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return nil, err
	}
	return renderConfig(cfg, selected, useCache)
}

// renderConfig enables exactly the rules in selected and serializes cfg.
// Options of configured rules are kept.
func renderConfig(cfg *config.Config, selected []string, useCache bool) ([]byte, error) {
	on := make(map[string]bool, len(selected))
	for _, name := range selected {
		on[name] = true
	}
	out := *cfg
	out.Rules = make(map[string]config.RuleConfig)
	for _, m := range rules.Default().Metadata() {
		rc := cfg.Rules[m.Name]
		rc.Enabled = on[m.Name]
		out.Rules[m.Name] = rc
	}
	out.Cache.Enabled = useCache
	return yaml.Marshal(&out)
}
