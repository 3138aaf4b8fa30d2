package services

import (
	"regexp"
	"strings"
)

// keywordPattern matches runs of letters and digits in any script,
// so "TPMS", "2년" and "엔진오일" each come out as one token.
var keywordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// ExtractKeywords returns the distinct lexical tokens of question in order of
// first appearance. Case is preserved.
func ExtractKeywords(question string) []string {
	matches := keywordPattern.FindAllString(question, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	keywords := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		keywords = append(keywords, m)
	}
	return keywords
}

// containsKeyword reports whether text contains any keyword as a case-sensitive substring.
func containsKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
