/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import "strings"

// Canonical biomarker keys.
const (
	KeyVitaminD      = "vitamin_d_25_oh"
	KeyTestosterone  = "testosterone_total"
	KeyFreeT         = "testosterone_free"
	KeyCortisol      = "cortisol"
	KeyLDL           = "ldl_cholesterol"
	KeyHDL           = "hdl_cholesterol"
	KeyTotalChol     = "total_cholesterol"
	KeyTriglycerides = "triglycerides"
	KeyApoB          = "apob"
	KeyGlucose       = "glucose_fasting"
	KeyHbA1c         = "hba1c"
	KeyInsulin       = "insulin_fasting"
	KeyTSH           = "tsh"
	KeyFreeT3        = "free_t3"
	KeyFreeT4        = "free_t4"
	KeyFerritin      = "ferritin"
	KeyVitaminB12    = "vitamin_b12"
	KeyCRP           = "crp_hs"
	KeyHemoglobin    = "hemoglobin"
	KeyMagnesium     = "magnesium"
	KeyEstradiol     = "estradiol"
	KeyWeight        = "weight"
	KeyHeight        = "height"
	KeyBMI           = "bmi"
	KeyAge           = "age"
)

// Definition describes a tracked biomarker.
type Definition struct {
	Key        string
	Name       string
	Unit       string
	Adjustment AdjustmentKind
}

var definitions = []Definition{
	{Key: KeyVitaminD, Name: "Vitamin D (25-OH)", Unit: "ng/mL", Adjustment: AdjustVitaminD},
	{Key: KeyTestosterone, Name: "Testosterone, Total", Unit: "ng/dL", Adjustment: AdjustTestosterone},
	{Key: KeyFreeT, Name: "Testosterone, Free", Unit: "pg/mL", Adjustment: AdjustTestosterone},
	{Key: KeyCortisol, Name: "Cortisol (AM)", Unit: "µg/dL", Adjustment: AdjustCortisol},
	{Key: KeyLDL, Name: "LDL Cholesterol", Unit: "mg/dL", Adjustment: AdjustLipidLower},
	{Key: KeyHDL, Name: "HDL Cholesterol", Unit: "mg/dL", Adjustment: AdjustHDL},
	{Key: KeyTotalChol, Name: "Total Cholesterol", Unit: "mg/dL"},
	{Key: KeyTriglycerides, Name: "Triglycerides", Unit: "mg/dL", Adjustment: AdjustLipidLower},
	{Key: KeyApoB, Name: "Apolipoprotein B", Unit: "mg/dL", Adjustment: AdjustLipidLower},
	{Key: KeyGlucose, Name: "Glucose, Fasting", Unit: "mg/dL"},
	{Key: KeyHbA1c, Name: "Hemoglobin A1c", Unit: "%"},
	{Key: KeyInsulin, Name: "Insulin, Fasting", Unit: "µIU/mL"},
	{Key: KeyTSH, Name: "TSH", Unit: "mIU/L"},
	{Key: KeyFreeT3, Name: "Free T3", Unit: "pg/mL"},
	{Key: KeyFreeT4, Name: "Free T4", Unit: "ng/dL"},
	{Key: KeyFerritin, Name: "Ferritin", Unit: "ng/mL"},
	{Key: KeyVitaminB12, Name: "Vitamin B12", Unit: "pg/mL"},
	{Key: KeyCRP, Name: "hs-CRP", Unit: "mg/L"},
	{Key: KeyHemoglobin, Name: "Hemoglobin", Unit: "g/dL"},
	{Key: KeyMagnesium, Name: "Magnesium", Unit: "mg/dL"},
	{Key: KeyEstradiol, Name: "Estradiol", Unit: "pg/mL"},
	{Key: KeyWeight, Name: "Weight", Unit: "lbs"},
	{Key: KeyHeight, Name: "Height", Unit: "in"},
	{Key: KeyBMI, Name: "BMI", Unit: "kg/m²"},
	{Key: KeyAge, Name: "Age", Unit: "years"},
}

// aliases maps lab-report spellings to canonical keys. Lookups are made on
// the normalized form produced by normalizeKey.
var aliases = map[string]string{
	"vitamin_d":            KeyVitaminD,
	"vitamin_d_25_hydroxy": KeyVitaminD,
	"25_oh_vitamin_d":      KeyVitaminD,
	"vit_d":                KeyVitaminD,
	"testosterone":         KeyTestosterone,
	"total_testosterone":   KeyTestosterone,
	"free_testosterone":    KeyFreeT,
	"cortisol_am":          KeyCortisol,
	"ldl":                  KeyLDL,
	"ldl_c":                KeyLDL,
	"hdl":                  KeyHDL,
	"hdl_c":                KeyHDL,
	"cholesterol":          KeyTotalChol,
	"tg":                   KeyTriglycerides,
	"apolipoprotein_b":     KeyApoB,
	"apo_b":                KeyApoB,
	"glucose":              KeyGlucose,
	"fasting_glucose":      KeyGlucose,
	"a1c":                  KeyHbA1c,
	"hemoglobin_a1c":       KeyHbA1c,
	"insulin":              KeyInsulin,
	"fasting_insulin":      KeyInsulin,
	"t3_free":              KeyFreeT3,
	"t4_free":              KeyFreeT4,
	"b12":                  KeyVitaminB12,
	"hs_crp":               KeyCRP,
	"crp":                  KeyCRP,
	"c_reactive_protein":   KeyCRP,
	"hgb":                  KeyHemoglobin,
	"e2":                   KeyEstradiol,
}

var definitionsByKey = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Key] = d
	}
	return m
}()

// Definitions returns all tracked biomarkers in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for a canonical key.
func Lookup(key string) (Definition, bool) {
	d, ok := definitionsByKey[key]
	return d, ok
}

// CanonicalKey resolves a free-form biomarker name to its canonical key.
func CanonicalKey(raw string) (string, bool) {
	key := normalizeKey(raw)
	if key == "" {
		return "", false
	}
	if _, ok := definitionsByKey[key]; ok {
		return key, true
	}
	if canonical, ok := aliases[key]; ok {
		return canonical, true
	}
	return "", false
}

func normalizeKey(raw string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// IsDerived reports whether key is computed from profile fields rather
// than measured by a lab.
func IsDerived(key string) bool {
	switch key {
	case KeyWeight, KeyHeight, KeyBMI, KeyAge:
		return true
	}
	return false
}
