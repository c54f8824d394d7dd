package resolver

import (
	"sort"
	"strings"
)

// chargeCodeTokens maps normalized SKU tokens and description phrases to
// canonical non-inventory charge codes. Checked before any semantic path:
// fee and service lines must never round-trip through embedding retrieval.
// Phrase entries match on substring against the normalized description;
// token entries match the normalized SKU exactly.
var chargeCodeTokens = map[string]string{
	"setup":             "SETUP",
	"set-up":            "SETUP",
	"set up":            "SETUP",
	"rush":              "RUSH",
	"proof":             "PROOF",
	"freight":           "FREIGHT",
	"shipping":          "FREIGHT",
	"handling":          "FREIGHT",
	"digitizing":        "DIGITIZING",
	"digitising":        "DIGITIZING",
	"art charge":        "ART",
	"artwork fee":       "ART",
	"art fee":           "ART",
	"sample":            "SAMPLE",
	"spec sample":       "SAMPLE",
	"discount":          "DISCOUNT",
	"surcharge":         "SURCHARGE",
	"drop ship":         "DROPSHIP",
	"less than minimum": "LTM",
	"ltm":               "LTM",
	"pms match":         "PMSMATCH",
	"color match":       "PMSMATCH",
}

// chargeCodePhrases fixes the description scan order: longest phrase first
// so multi-word entries like "spec sample" win over their substrings, then
// alphabetical. A description containing two phrases always classifies the
// same way.
var chargeCodePhrases = func() []string {
	phrases := make([]string, 0, len(chargeCodeTokens))
	for p := range chargeCodeTokens {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	return phrases
}()

// chargeCodeSet holds the canonical codes for exact SKU equality.
var chargeCodeSet = func() map[string]bool {
	set := make(map[string]bool, len(chargeCodeTokens))
	for _, code := range chargeCodeTokens {
		set[code] = true
	}
	return set
}()

// MatchChargeCode tests a line item against the charge-code table. The SKU
// is checked first (exact canonical code or exact token), then the
// description by phrase containment. Inputs are expected normalized
// (lower-cased, whitespace-collapsed).
func MatchChargeCode(sku, description string) (string, bool) {
	if sku != "" {
		if chargeCodeSet[strings.ToUpper(sku)] {
			return strings.ToUpper(sku), true
		}
		if code, ok := chargeCodeTokens[sku]; ok {
			return code, true
		}
	}
	if description != "" {
		for _, phrase := range chargeCodePhrases {
			if containsPhrase(description, phrase) {
				return chargeCodeTokens[phrase], true
			}
		}
	}
	return "", false
}

// containsPhrase matches on word boundaries so "proof" never fires on
// "waterproof jacket".
func containsPhrase(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
