// Package placeholder fills bracketed template variables such as [Name]
// with recipient fields.
package placeholder

import (
	"codemailer/entity"
	"regexp"
	"strings"
)

var placeholderRegex = regexp.MustCompile(`\[([A-Za-z0-9_]+)\]`)

// Render substitutes every [Identifier] in text with the matching recipient
// field. Unmatched placeholders are left verbatim.
func Render(text string, recipient entity.Recipient) string {
	return placeholderRegex.ReplaceAllStringFunc(text, func(token string) string {
		key := token[1 : len(token)-1]
		if v, ok := recipient.Lookup(key); ok {
			return v.String()
		}
		return token
	})
}

// RenderTemplate renders subject and body independently.
func RenderTemplate(tmpl *entity.Template, recipient entity.Recipient) (subject, body string) {
	return Render(tmpl.GetSubject(), recipient), Render(tmpl.GetBody(), recipient)
}

// ToHTML converts a rendered plain text body into the html sent on the wire.
func ToHTML(body string) string {
	return strings.ReplaceAll(body, "\n", "<br/>")
}

// ExtractVariables returns the identifiers in text in first-seen order,
// without duplicates.
func ExtractVariables(text string) []string {
	return appendVariables(nil, make(map[string]struct{}), text)
}

// TemplateVariables merges the variables of subject and body, subject first.
func TemplateVariables(subject, body string) []string {
	seen := make(map[string]struct{})
	vars := appendVariables(nil, seen, subject)
	return appendVariables(vars, seen, body)
}

func appendVariables(vars []string, seen map[string]struct{}, text string) []string {
	for _, m := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		vars = append(vars, m[1])
	}
	if vars == nil {
		vars = make([]string, 0)
	}
	return vars
}
