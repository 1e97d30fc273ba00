/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/humaidq/ennu/biomarker"
)

//go:embed default.yaml
var defaultRules []byte

// FieldKind decides how a completeness field is judged present.
type FieldKind string

// FieldKind values.
const (
	FieldRequired   FieldKind = "required"
	FieldCalculated FieldKind = "calculated"
	FieldAssessment FieldKind = "assessment"
	FieldOptional   FieldKind = "optional"
)

// Field is one profile metadata key inside a section.
type Field struct {
	Key  string    `yaml:"key" json:"key"`
	Kind FieldKind `yaml:"kind" json:"kind"`
}

// Section is a weighted group of profile fields.
type Section struct {
	Key    string  `yaml:"key" json:"key"`
	Title  string  `yaml:"title" json:"title"`
	Weight int     `yaml:"weight" json:"weight"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Completeness configures the profile completeness tracker.
type Completeness struct {
	CompletedThreshold int       `yaml:"completed_threshold"`
	Sections           []Section `yaml:"sections"`
}

// Symptoms maps reported symptoms to severities and related biomarkers.
type Symptoms struct {
	Severity     map[string]float64  `yaml:"severity"`
	Correlations map[string][]string `yaml:"correlations"`
}

// FollowUp flags a reading below or above a threshold as abnormal.
type FollowUp struct {
	Below  *float64 `yaml:"below"`
	Above  *float64 `yaml:"above"`
	Reason string   `yaml:"reason"`
}

// Abnormal reports whether value trips the condition.
func (f FollowUp) Abnormal(value float64) bool {
	if f.Below != nil && value < *f.Below {
		return true
	}
	if f.Above != nil && value > *f.Above {
		return true
	}
	return false
}

// Biomarkers configures per-biomarker severity and retest windows.
type Biomarkers struct {
	DefaultSeverity   float64             `yaml:"default_severity"`
	DefaultRetestDays int                 `yaml:"default_retest_days"`
	Severity          map[string]float64  `yaml:"severity"`
	RetestDays        map[string]int      `yaml:"retest_days"`
	FollowUps         map[string]FollowUp `yaml:"follow_ups"`
}

// Replacement rewrites a deprecated biomarker name in documentation.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Documentation configures admin documentation rewriting.
type Documentation struct {
	Replacements []Replacement `yaml:"replacements"`
}

// Rules is the full rule configuration. It is read-only after Parse.
type Rules struct {
	Version       int           `yaml:"version"`
	Completeness  Completeness  `yaml:"completeness"`
	Symptoms      Symptoms      `yaml:"symptoms"`
	Biomarkers    Biomarkers    `yaml:"biomarkers"`
	Documentation Documentation `yaml:"documentation"`
}

// Default returns the embedded rule set.
func Default() (*Rules, error) {
	return Parse(defaultRules)
}

// MustDefault returns the embedded rule set, panicking if it is invalid.
func MustDefault() *Rules {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load reads rules from path, or the embedded defaults when path is empty.
func Load(path string) (*Rules, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML rule set.
func Parse(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	r.applyDefaults()

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *Rules) applyDefaults() {
	if r.Completeness.CompletedThreshold == 0 {
		r.Completeness.CompletedThreshold = 80
	}
	if r.Biomarkers.DefaultRetestDays == 0 {
		r.Biomarkers.DefaultRetestDays = 365
	}
	if r.Biomarkers.DefaultSeverity == 0 {
		r.Biomarkers.DefaultSeverity = 2
	}
	if r.Symptoms.Severity == nil {
		r.Symptoms.Severity = map[string]float64{}
	}
	if r.Symptoms.Correlations == nil {
		r.Symptoms.Correlations = map[string][]string{}
	}
	if r.Biomarkers.Severity == nil {
		r.Biomarkers.Severity = map[string]float64{}
	}
	if r.Biomarkers.RetestDays == nil {
		r.Biomarkers.RetestDays = map[string]int{}
	}
	if r.Biomarkers.FollowUps == nil {
		r.Biomarkers.FollowUps = map[string]FollowUp{}
	}
}

// Validate checks structural invariants: section weights sum to 100, field
// kinds are known, and every referenced biomarker exists.
func (r *Rules) Validate() error {
	if err := r.validateCompleteness(); err != nil {
		return err
	}
	if err := r.validateSymptoms(); err != nil {
		return err
	}
	return r.validateBiomarkers()
}

func (r *Rules) validateCompleteness() error {
	c := r.Completeness
	if len(c.Sections) == 0 {
		return ErrNoSections
	}
	if c.CompletedThreshold < 1 || c.CompletedThreshold > 100 {
		return fmt.Errorf("%w: completed_threshold %d", ErrInvalidRules, c.CompletedThreshold)
	}

	seen := map[string]bool{}
	total := 0
	for _, s := range c.Sections {
		key := strings.TrimSpace(s.Key)
		if key == "" {
			return fmt.Errorf("%w: section key is required", ErrInvalidRules)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate section %s", ErrInvalidRules, key)
		}
		seen[key] = true

		if s.Weight <= 0 {
			return fmt.Errorf("%w: section %s has non-positive weight", ErrInvalidRules, key)
		}
		total += s.Weight

		if len(s.Fields) == 0 {
			return fmt.Errorf("%w: section %s has no fields", ErrInvalidRules, key)
		}
		for _, field := range s.Fields {
			if strings.TrimSpace(field.Key) == "" {
				return fmt.Errorf("%w: section %s has a field without key", ErrInvalidRules, key)
			}
			switch field.Kind {
			case FieldRequired, FieldCalculated, FieldAssessment, FieldOptional:
			default:
				return fmt.Errorf("%w: section %s field %s has kind %q", ErrInvalidRules, key, field.Key, field.Kind)
			}
		}
	}

	if total != 100 {
		return fmt.Errorf("%w: got %d", ErrWeightsSum, total)
	}

	return nil
}

func (r *Rules) validateSymptoms() error {
	for symptom, markers := range r.Symptoms.Correlations {
		if len(markers) == 0 {
			return fmt.Errorf("%w: symptom %s has no biomarkers", ErrInvalidRules, symptom)
		}
		for _, key := range markers {
			if _, ok := biomarker.Lookup(key); !ok {
				return fmt.Errorf("%w: symptom %s references %s", ErrUnknownBiomarker, symptom, key)
			}
		}
	}
	for symptom, sev := range r.Symptoms.Severity {
		if sev < 0 || sev > 5 {
			return fmt.Errorf("%w: symptom %s severity %.1f outside 0-5", ErrInvalidRules, symptom, sev)
		}
	}
	return nil
}

func (r *Rules) validateBiomarkers() error {
	b := r.Biomarkers
	for key, sev := range b.Severity {
		if _, ok := biomarker.Lookup(key); !ok {
			return fmt.Errorf("%w: severity for %s", ErrUnknownBiomarker, key)
		}
		if sev < 0 || sev > 5 {
			return fmt.Errorf("%w: biomarker %s severity %.1f outside 0-5", ErrInvalidRules, key, sev)
		}
	}
	for key, days := range b.RetestDays {
		if _, ok := biomarker.Lookup(key); !ok {
			return fmt.Errorf("%w: retest window for %s", ErrUnknownBiomarker, key)
		}
		if days <= 0 {
			return fmt.Errorf("%w: biomarker %s retest window must be positive", ErrInvalidRules, key)
		}
	}
	for key, fu := range b.FollowUps {
		if _, ok := biomarker.Lookup(key); !ok {
			return fmt.Errorf("%w: follow-up for %s", ErrUnknownBiomarker, key)
		}
		if fu.Below == nil && fu.Above == nil {
			return fmt.Errorf("%w: follow-up for %s has no threshold", ErrInvalidRules, key)
		}
	}
	for _, rep := range r.Documentation.Replacements {
		if strings.TrimSpace(rep.From) == "" {
			return fmt.Errorf("%w: documentation replacement without source text", ErrInvalidRules)
		}
	}
	return nil
}

// Section returns the section with key.
func (r *Rules) Section(key string) (Section, bool) {
	for _, s := range r.Completeness.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// CorrelatedBiomarkers returns biomarkers linked to symptom. Symptom names
// are matched case-insensitively with spaces treated as underscores.
func (r *Rules) CorrelatedBiomarkers(symptom string) []string {
	return r.Symptoms.Correlations[NormalizeSymptom(symptom)]
}

// SymptomSeverity returns the configured severity, defaulting to 1.
func (r *Rules) SymptomSeverity(symptom string) float64 {
	if sev, ok := r.Symptoms.Severity[NormalizeSymptom(symptom)]; ok {
		return sev
	}
	return 1
}

// BiomarkerSeverity returns the configured severity or the default.
func (r *Rules) BiomarkerSeverity(key string) float64 {
	if sev, ok := r.Biomarkers.Severity[key]; ok {
		return sev
	}
	return r.Biomarkers.DefaultSeverity
}

// RetestDays returns the retest window for key.
func (r *Rules) RetestDays(key string) int {
	if days, ok := r.Biomarkers.RetestDays[key]; ok {
		return days
	}
	return r.Biomarkers.DefaultRetestDays
}

// FollowUp returns the abnormal-value condition for key.
func (r *Rules) FollowUp(key string) (FollowUp, bool) {
	fu, ok := r.Biomarkers.FollowUps[key]
	return fu, ok
}

// SymptomNames returns all configured symptom names, sorted.
func (r *Rules) SymptomNames() []string {
	names := make([]string, 0, len(r.Symptoms.Correlations))
	for name := range r.Symptoms.Correlations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeSymptom lowercases a symptom and joins words with underscores.
func NormalizeSymptom(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/'
	})
	return strings.Join(fields, "_")
}
