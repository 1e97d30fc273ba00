/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/ennu/biomarker"
	"github.com/humaidq/ennu/db"
	"github.com/humaidq/ennu/rules"
)

var CmdRules = &cli.Command{
	Name:  "rules",
	Usage: "Rule file commands",
	Commands: []*cli.Command{
		{
			Name:  "check",
			Usage: "Validate a rule file and report reference range coverage",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "rules",
					Sources: cli.EnvVars("ENNU_RULES_FILE"),
					Usage:   "YAML rule file (embedded defaults when empty)",
				},
			},
			Action: rulesCheck,
		},
	},
}

func rulesCheck(_ context.Context, cmd *cli.Command) error {
	ruleSet, err := rules.Load(cmd.String("rules"))
	if err != nil {
		return fmt.Errorf("%w: %w", errRuleCheckFailed, err)
	}

	missing := reportRules(os.Stdout, ruleSet, db.DefaultReferenceRanges())
	if len(missing) > 0 {
		return fmt.Errorf("%w: %d recommended biomarkers have no reference range", errRuleCheckFailed, len(missing))
	}
	return nil
}

// reportRules prints a summary of ruleSet and returns the recommended
// biomarkers that ranges cannot score.
func reportRules(w io.Writer, ruleSet *rules.Rules, ranges biomarker.StaticProvider) []string {
	fmt.Fprintf(w, "Rules version %d\n", ruleSet.Version)
	fmt.Fprintf(w, "Completeness: %d sections, completed at %d%%\n", len(ruleSet.Completeness.Sections), ruleSet.Completeness.CompletedThreshold)
	fmt.Fprintf(w, "Symptoms: %d\n", len(ruleSet.SymptomNames()))
	fmt.Fprintf(w, "Documentation replacements: %d\n", len(ruleSet.Documentation.Replacements))

	seen := map[string]bool{}
	var missing []string
	for _, symptom := range ruleSet.SymptomNames() {
		for _, key := range ruleSet.CorrelatedBiomarkers(symptom) {
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, ok := ranges[key]; !ok {
				missing = append(missing, key)
			}
		}
	}
	sort.Strings(missing)

	fmt.Fprintf(w, "Recommended biomarkers: %d\n", len(seen))
	for _, key := range missing {
		fmt.Fprintf(w, "missing reference range: %s\n", key)
	}

	return missing
}
