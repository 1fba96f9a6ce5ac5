package harness

import (
	"regexp"
	"strings"
)

// TypeScriptGenerator strips type syntax from TypeScript sources and renders the result
// with the JavaScript generator. The rewrite is pattern based and covers the subset of
// TypeScript found in typical single-function solutions.
type TypeScriptGenerator struct {
	js JavaScriptGenerator
}

// Generate implements Generator.
func (g TypeScriptGenerator) Generate(req ExecutionRequest) string {
	req.SourceCode = StripTypes(req.SourceCode)
	return g.js.Generate(req)
}

var (
	tsDocComment   = regexp.MustCompile(`(?s)/\*\*.*?\*/`)
	tsInterface    = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?interface\s+[A-Za-z0-9_$]+(?:<[^>{]*>)?\s*(?:extends\s+[^{]+)?\{[^}]*\}[ \t]*;?`)
	tsTypeAlias    = regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?type\s+[A-Za-z0-9_$]+(?:<[^>=]*>)?\s*=[^;\n]*;?`)
	tsGenericCall  = regexp.MustCompile(`([A-Za-z0-9_$])<((?:[A-Za-z0-9_$\[\],.\s|&]|<[A-Za-z0-9_$\[\],.\s|&]*>)+)>(\s*\()`)
	tsFunction     = regexp.MustCompile(`\bfunction(\s*\*?\s*[A-Za-z0-9_$]*)\s*\(([^()]*)\)\s*(?::\s*[^{;]+?)?\s*\{`)
	tsMethod       = regexp.MustCompile(`(?m)^([ \t]*)((?:(?:public|private|protected|static|async|readonly|override)\s+)*)([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^()]*)\)\s*(?::\s*[^{;]+?)?\s*\{`)
	tsArrow        = regexp.MustCompile(`\(([^()]*)\)\s*(?::\s*[^=;{()]+?)?\s*=>`)
	tsIndexedVar   = regexp.MustCompile(`\b(const|let|var)\s+([A-Za-z0-9_$]+)\s*:\s*\{\s*\[[^\]]+\]\s*:[^}]*\}\s*=`)
	tsTypedVarInit = regexp.MustCompile(`\b(const|let|var)\s+([A-Za-z0-9_$]+)\s*:\s*[^=;\n]+?\s*=`)
	tsTypedVar     = regexp.MustCompile(`(?m)\b(let|var)\s+([A-Za-z0-9_$]+)\s*:\s*[^=;\n]+?\s*(;|$)`)
	tsClassField   = regexp.MustCompile(`(?m)^([ \t]*)((?:(?:public|private|protected|readonly|static|declare|override)\s+)*)([A-Za-z_$][A-Za-z0-9_$]*)\s*[?!]?\s*:\s*[^=;\n(]+?\s*(=[^;\n]*)?;`)
	tsBigInt       = regexp.MustCompile(`\b(\d+)n\b`)
	tsAsCast       = regexp.MustCompile(`\s+as\s+(?:const\b|[A-Za-z_$][A-Za-z0-9_$.]*(?:<[^<>]*>)?(?:\[\])*)`)
	tsNonNull      = regexp.MustCompile(`([A-Za-z0-9_$)\]])!([.\[);,])`)
	tsModifiers    = regexp.MustCompile(`\b(?:public|private|protected|readonly|override|declare)\s+`)
)

var tsKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {}, "with": {},
	"function": {}, "return": {}, "case": {}, "default": {}, "else": {}, "do": {},
	"new": {}, "typeof": {}, "await": {}, "yield": {}, "throw": {},
}

// StripTypes rewrites TypeScript source into plain JavaScript by removing type syntax.
func StripTypes(source string) string {
	out := tsDocComment.ReplaceAllString(source, "")
	out = tsInterface.ReplaceAllString(out, "")
	out = tsTypeAlias.ReplaceAllString(out, "")
	out = tsGenericCall.ReplaceAllString(out, "$1$3")

	out = replaceSubmatches(tsFunction, out, func(groups []string) string {
		return "function" + groups[1] + "(" + stripParams(groups[2]) + ") {"
	})
	out = replaceSubmatches(tsMethod, out, func(groups []string) string {
		if _, reserved := tsKeywords[groups[3]]; reserved {
			return groups[0]
		}
		return groups[1] + keptModifiers(groups[2]) + groups[3] + "(" + stripParams(groups[4]) + ") {"
	})
	out = replaceSubmatches(tsArrow, out, func(groups []string) string {
		return "(" + stripParams(groups[1]) + ") =>"
	})

	out = tsIndexedVar.ReplaceAllString(out, "$1 $2 =")
	out = tsTypedVarInit.ReplaceAllString(out, "$1 $2 =")
	out = tsTypedVar.ReplaceAllString(out, "$1 $2$3")
	out = replaceSubmatches(tsClassField, out, func(groups []string) string {
		if _, reserved := tsKeywords[groups[3]]; reserved {
			return groups[0]
		}
		field := groups[1] + keptModifiers(groups[2]) + groups[3]
		if groups[4] != "" {
			field += " " + strings.TrimSpace(groups[4])
		}
		return field + ";"
	})

	out = tsBigInt.ReplaceAllString(out, "$1")
	out = tsAsCast.ReplaceAllString(out, "")
	out = tsNonNull.ReplaceAllString(out, "$1$2")
	return out
}

func replaceSubmatches(re *regexp.Regexp, src string, fn func(groups []string) string) string {
	return re.ReplaceAllStringFunc(src, func(match string) string {
		return fn(re.FindStringSubmatch(match))
	})
}

// keptModifiers drops TypeScript-only member modifiers and keeps static and async.
func keptModifiers(modifiers string) string {
	var kept []string
	for _, modifier := range strings.Fields(modifiers) {
		if modifier == "static" || modifier == "async" {
			kept = append(kept, modifier)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, " ") + " "
}

// stripParams removes annotations from a parameter list while keeping names,
// rest markers, destructuring patterns and default values.
func stripParams(params string) string {
	if strings.TrimSpace(params) == "" {
		return ""
	}

	parts := splitTopLevel(params, ',')
	stripped := make([]string, 0, len(parts))
	for _, part := range parts {
		param := strings.TrimSpace(tsModifiers.ReplaceAllString(part, ""))
		if param == "" {
			continue
		}

		name, defaultValue := param, ""
		if idx := indexTopLevel(param, '='); idx >= 0 {
			name, defaultValue = param[:idx], strings.TrimSpace(param[idx+1:])
		}
		if idx := indexTopLevel(name, ':'); idx >= 0 {
			name = name[:idx]
		}
		name = strings.TrimSuffix(strings.TrimSpace(name), "?")

		if defaultValue != "" {
			name += " = " + defaultValue
		}
		stripped = append(stripped, name)
	}
	return strings.Join(stripped, ", ")
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	start := 0
	scanTopLevel(s, func(i int) bool {
		if s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
		return true
	})
	return append(parts, s[start:])
}

func indexTopLevel(s string, target byte) int {
	found := -1
	scanTopLevel(s, func(i int) bool {
		if s[i] != target {
			return true
		}
		if target == '=' && i+1 < len(s) && s[i+1] == '>' {
			return true
		}
		found = i
		return false
	})
	return found
}

// scanTopLevel calls visit for every byte outside brackets, braces, parentheses,
// angle brackets and string literals until visit returns false.
func scanTopLevel(s string, visit func(i int) bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
			continue
		case '(', '[', '{', '<':
			depth++
			continue
		case ')', ']', '}':
			depth--
			continue
		case '>':
			if i > 0 && s[i-1] == '=' {
				break
			}
			depth--
			continue
		}
		if depth == 0 && !visit(i) {
			return
		}
	}
}
