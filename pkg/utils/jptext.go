package utils

// ContainsJapanese reports whether the text contains hiragana, katakana,
// CJK ideographs, or full-width forms. Used to decide whether a vendor
// company name is usable for localized news queries.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x3040 && r <= 0x309F: // hiragana
			return true
		case r >= 0x30A0 && r <= 0x30FF: // katakana
			return true
		case r >= 0x4E00 && r <= 0x9FAF: // CJK ideographs
			return true
		case r >= 0xFF00 && r <= 0xFFEF: // full-width forms
			return true
		}
	}
	return false
}
