// Package utils provides small shared helpers: ticker normalization and
// Japanese-text detection.
package utils

import (
	"regexp"
	"strings"
)

// exchange prefixes users paste from charting sites.
var exchangePrefix = regexp.MustCompile(`^(?:TYO|JPX|JP|TSE):`)

// NormalizedTicker is the result of normalizing raw user input into a
// symbol the quote vendor can resolve.
type NormalizedTicker struct {
	Input          string // raw user input
	QuerySymbol    string // symbol to query, e.g. "6501.T"
	DisplaySymbol  string // symbol to show, prefers the user's spelling
	ConversionNote string // non-empty when a domestic code was rewritten
}

// NormalizeTicker converts input like "6501", "ＴＹＯ:6501" or "tyo:6501"
// into a resolvable vendor symbol such as "6501.T". Full-width characters
// are folded to their ASCII forms first. Purely numeric codes of 4-5
// digits are treated as domestic instrument codes.
func NormalizeTicker(raw string) NormalizedTicker {
	trimmed := strings.TrimSpace(raw)
	normalized := strings.ToUpper(foldFullWidth(trimmed))
	normalized = exchangePrefix.ReplaceAllString(normalized, "")
	normalized = strings.ReplaceAll(normalized, " ", "")

	nt := NormalizedTicker{
		Input:         trimmed,
		QuerySymbol:   normalized,
		DisplaySymbol: normalized,
	}
	if nt.DisplaySymbol == "" {
		nt.DisplaySymbol = trimmed
	}

	if isDomesticCode(normalized) {
		nt.QuerySymbol = normalized + ".T"
		if trimmed != "" {
			nt.DisplaySymbol = trimmed
		} else {
			nt.DisplaySymbol = nt.QuerySymbol
		}
		nt.ConversionNote = "domestic instrument code " + normalized + " resolved as " + nt.QuerySymbol
	}
	return nt
}

// foldFullWidth maps full-width ASCII ("ＴＹＯ：６５０１") and the
// ideographic space to their half-width equivalents.
func foldFullWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '！' && r <= '～':
			return r - 0xFEE0
		case r == '　':
			return ' '
		}
		return r
	}, s)
}

// StripLocalSuffix removes the domestic-market suffix: "6501.T" -> "6501".
func StripLocalSuffix(symbol string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(symbol), ".T"))
}

// IsLocalSymbol reports whether a symbol looks like a domestic (Tokyo)
// instrument: suffixed with the market marker, or a bare 4-5 digit code.
func IsLocalSymbol(symbol string) bool {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, ".T") {
		return true
	}
	return isDomesticCode(s)
}

func isDomesticCode(s string) bool {
	if len(s) < 4 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
