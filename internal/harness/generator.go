// Package harness turns user-submitted solutions into self-contained programs that
// decode a test input, invoke the solution and print a single JSON result envelope.
package harness

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

// Supported language tokens.
const (
	LanguagePython     = "python"
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguageGo         = "go"
)

// ErrUnsupportedLanguage indicates no generator exists for the requested language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// HiddenValue replaces input and expected output of non-sample test cases.
const HiddenValue = "Hidden"

// ExecutionRequest describes one solution run against one test input.
type ExecutionRequest struct {
	SourceCode string
	RawInput   string
	EntryPoint string
	Language   string
	Problem    Problem
}

func (r ExecutionRequest) problem() Problem {
	if r.Problem.EntryPoint == "" {
		return ResolveProblem(r.EntryPoint, Overrides{})
	}
	return r.Problem
}

// Program is a generated harness ready for dispatch.
type Program struct {
	Language string
	Source   string
}

// Generator renders the harness program for a single language.
type Generator interface {
	Generate(req ExecutionRequest) string
}

type registration struct {
	generator    Generator
	wireLanguage string
}

// Registry maps language tokens to generators.
type Registry struct {
	generators map[string]registration
}

// NewRegistry returns a registry with the Python, JavaScript, TypeScript and Go generators.
func NewRegistry() *Registry {
	js := JavaScriptGenerator{}
	return &Registry{
		generators: map[string]registration{
			LanguagePython:     {generator: PythonGenerator{}, wireLanguage: LanguagePython},
			LanguageJavaScript: {generator: js, wireLanguage: LanguageJavaScript},
			LanguageTypeScript: {generator: TypeScriptGenerator{js: js}, wireLanguage: LanguageJavaScript},
			LanguageGo:         {generator: GoGenerator{}, wireLanguage: LanguageGo},
		},
	}
}

// Supports reports whether language has a registered generator.
func (r *Registry) Supports(language string) bool {
	_, ok := r.generators[language]
	return ok
}

// Generate renders the program for req. The returned language is the runtime the
// sandbox should use, which differs from req.Language for TypeScript.
func (r *Registry) Generate(req ExecutionRequest) (Program, error) {
	reg, ok := r.generators[req.Language]
	if !ok {
		return Program{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, req.Language)
	}
	return Program{
		Language: reg.wireLanguage,
		Source:   reg.generator.Generate(req),
	}, nil
}

// NormalizeLanguage maps short language tokens to their canonical names.
func NormalizeLanguage(token string) string {
	switch token {
	case "js":
		return LanguageJavaScript
	case "ts":
		return LanguageTypeScript
	default:
		return token
	}
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("harness").Funcs(template.FuncMap{
	"pyString":           jsonString,
	"jsString":           jsonString,
	"goString":           strconv.Quote,
	"linkedFieldPattern": linkedFieldPattern,
}).ParseFS(templateFS, "templates/*.tmpl"))

func render(name string, data interface{}) string {
	var builder strings.Builder
	if err := templates.ExecuteTemplate(&builder, name, data); err != nil {
		panic(fmt.Sprintf("harness: render %s: %v", name, err))
	}
	return builder.String()
}

func linkedFieldPattern() string {
	return jsonString(LinkedListFieldPattern)
}

// jsonString encodes s as a JSON string literal, which is also a valid Python and
// JavaScript string literal.
func jsonString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(encoded)
}

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_$]`)

// identifier strips characters that cannot appear in an identifier so entry point
// names can be interpolated into generated code.
func identifier(name string) string {
	cleaned := nonIdentifier.ReplaceAllString(name, "")
	if cleaned == "" {
		return "solution"
	}
	if cleaned[0] >= '0' && cleaned[0] <= '9' {
		cleaned = "_" + cleaned
	}
	return cleaned
}

// namedCall is a known multi-argument problem whose object input is destructured
// into positional arguments.
type namedCall struct {
	EntryPoint string
	Params     []string
}

var namedCalls = []namedCall{
	{EntryPoint: "twoSum", Params: []string{"nums", "target"}},
	{EntryPoint: "addTwoNumbers", Params: []string{"l1", "l2"}},
	{EntryPoint: "findMedianSortedArrays", Params: []string{"nums1", "nums2"}},
	{EntryPoint: "convert", Params: []string{"s", "numRows"}},
	{EntryPoint: "isMatch", Params: []string{"s", "p"}},
	{EntryPoint: "threeSumClosest", Params: []string{"nums", "target"}},
	{EntryPoint: "fourSum", Params: []string{"nums", "target"}},
	{EntryPoint: "removeNthFromEnd", Params: []string{"head", "n"}},
	{EntryPoint: "mergeTwoLists", Params: []string{"list1", "list2"}},
}

func lookupNamedCall(entryPoint string, in Input) ([]string, bool) {
	for _, call := range namedCalls {
		if strings.EqualFold(call.EntryPoint, entryPoint) && in.HasKeys(call.Params...) {
			return call.Params, true
		}
	}
	return nil, false
}

// positionalParams decides how an object input is spread into positional arguments:
// the named catalog first, then question metadata.
func positionalParams(problem Problem, in Input) ([]string, bool) {
	if params, ok := lookupNamedCall(problem.EntryPoint, in); ok {
		return params, true
	}
	if len(problem.Params) > 0 && in.HasKeys(problem.Params...) {
		return problem.Params, true
	}
	return nil, false
}
