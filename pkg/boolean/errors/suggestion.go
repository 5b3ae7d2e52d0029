package errors

import (
	"fmt"
	"sort"
	"strings"
)

// SuggestName suggests the closest known name for an unknown one using
// Levenshtein distance. It returns "" when nothing is reasonably close.
func SuggestName(unknown string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	minDistance := 1 << 30
	var bestMatch string

	for _, candidate := range candidates {
		dist := levenshteinDistance(unknown, candidate)
		if dist < minDistance || (dist == minDistance && candidate < bestMatch) {
			minDistance = dist
			bestMatch = candidate
		}
	}

	// Only suggest if the distance is reasonable
	limit := len(unknown) / 3
	if limit < 1 {
		limit = 1
	}
	if minDistance <= limit {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	return ""
}

// SuggestFunction suggests a registered function for an unknown one. When no
// close match exists it lists the registered names.
func SuggestFunction(unknown string, registered []string) string {
	if s := SuggestName(unknown, registered); s != "" {
		return s
	}
	if len(registered) == 0 {
		return "no functions are registered"
	}

	names := append([]string(nil), registered...)
	sort.Strings(names)
	if len(names) > 8 {
		return fmt.Sprintf("Registered functions include: %s, ...", strings.Join(names[:8], ", "))
	}
	return fmt.Sprintf("Registered functions: %s", strings.Join(names, ", "))
}

// SuggestOperator suggests the supported spelling of a mistyped operator.
func SuggestOperator(op string) string {
	switch op {
	case "&&":
		return "use '&' for logical AND"
	case "||":
		return "use '|' for logical OR"
	case "=":
		return "use '==' for equality"
	case "and", "AND":
		return "use '&' for logical AND"
	case "or", "OR":
		return "use '|' for logical OR"
	case "not", "NOT":
		return "use '!' for logical NOT"
	default:
		return ""
	}
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // Deletion
				matrix[i][j-1]+1,      // Insertion
				matrix[i-1][j-1]+cost, // Substitution
			)
		}
	}

	return matrix[len1][len2]
}
