package lang

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// Handles acronyms properly (e.g., "HTTPSConnection" -> "https_connection")
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		// Check if we need to insert underscore before this character
		if i > 0 && r >= 'A' && r <= 'Z' {
			// Don't insert underscore if previous char was uppercase (acronym)
			// unless next char is lowercase (end of acronym)
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'

			if !prevUpper || nextLower {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// ToPascalCase converts snake_case or kebab-case to PascalCase
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			// Capitalize first letter, keep rest as-is
			runes := []rune(part)
			result.WriteRune(unicode.ToUpper(runes[0]))
			result.WriteString(string(runes[1:]))
		}
	}

	return result.String()
}

// ToCamelCase converts snake_case or kebab-case to camelCase
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return pascal
	}

	// Lowercase first letter
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// ToKebabCase converts PascalCase, camelCase, or snake_case to kebab-case
func ToKebabCase(s string) string {
	return strings.ReplaceAll(ToSnakeCase(s), "_", "-")
}

// ToScreamingSnakeCase converts any supported casing to SCREAMING_SNAKE_CASE
func ToScreamingSnakeCase(s string) string {
	return strings.ToUpper(ToSnakeCase(s))
}

// CaseRule names a case transformation applied to serialized enum variant
// and struct field names when the source supplies no literal rename.
type CaseRule string

// Supported case rules.
const (
	CaseNone           CaseRule = ""
	CaseCamel          CaseRule = "camel"
	CaseSnake          CaseRule = "snake"
	CaseKebab          CaseRule = "kebab"
	CasePascal         CaseRule = "pascal"
	CaseScreamingSnake CaseRule = "screaming_snake"
)

// KnownCaseRule reports whether rule is one of the supported transforms.
func KnownCaseRule(rule CaseRule) bool {
	switch rule {
	case CaseNone, CaseCamel, CaseSnake, CaseKebab, CasePascal, CaseScreamingSnake:
		return true
	}
	return false
}

// ApplyCase transforms name according to rule. CaseNone returns the name
// unchanged. The same transform applies to tag values used at runtime and
// to identifiers used in generated code.
func ApplyCase(rule CaseRule, name string) string {
	switch rule {
	case CaseCamel:
		return ToCamelCase(name)
	case CaseSnake:
		return ToSnakeCase(name)
	case CaseKebab:
		return ToKebabCase(name)
	case CasePascal:
		return ToPascalCase(name)
	case CaseScreamingSnake:
		return ToScreamingSnakeCase(name)
	default:
		return name
	}
}
