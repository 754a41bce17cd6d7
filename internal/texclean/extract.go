// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texclean pulls a LaTeX fragment out of the MathML markup that MaRDI
// stores for formulas. It is a cleanup pass, not a MathML-to-TeX converter:
// it finds the TeX annotation, unescapes entities, drops MediaWiki
// display-mode wrappers, and trims stray closing braces.
package texclean

import (
	"html"
	"regexp"
	"strings"
)

// annotationPatterns are tried in order; the first one that matches wins.
var annotationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<annotation encoding="application/x-tex"[^>]*>(.*?)</annotation>`),
	regexp.MustCompile(`(?is)<annotation encoding="application/x-latex"[^>]*>(.*?)</annotation>`),
	regexp.MustCompile(`(?is)<annotation[^>]+>(.*?)</annotation>`),
}

// displayArtifacts are the MediaWiki/MathJax wrappers removed from the TeX.
// Braced forms come first so "{\displaystyle" does not leave a lone "{".
var displayArtifacts = []string{
	`{\displaystyle`,
	`{\textstyle`,
	`\displaystyle`,
	`\textstyle`,
}

// Extract returns the cleaned TeX inside mathML, or "" when there is no
// usable annotation. It never fails.
func Extract(mathML string) string {
	if mathML == "" {
		return ""
	}

	raw := findAnnotation(mathML)
	if raw == "" {
		return ""
	}

	tex := strings.TrimSpace(html.UnescapeString(raw))
	for _, a := range displayArtifacts {
		tex = strings.ReplaceAll(tex, a, "")
	}
	tex = TrimUnbalancedClosers(tex)

	return strings.TrimSpace(tex)
}

// findAnnotation returns the content of the first annotation matched by
// the highest-priority pattern.
func findAnnotation(s string) string {
	for _, re := range annotationPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// TrimUnbalancedClosers drops trailing '}' while the string has more
// closing than opening braces. It stops as soon as the last character is
// not '}', leaving any excess closer in the middle untouched.
func TrimUnbalancedClosers(s string) string {
	for strings.Count(s, "}") > strings.Count(s, "{") {
		if !strings.HasSuffix(s, "}") {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
