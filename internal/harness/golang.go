package harness

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var goNodeDeclaration = regexp.MustCompile(`(?m)^\s*type\s+ListNode\s+struct\b`)

// GoGenerator renders Go harnesses. The input is decoded at generation time and
// emitted as typed literals where its shape allows.
type GoGenerator struct{}

type goData struct {
	Source       string
	LinkedList   bool
	DeclareNode  bool
	Declarations []string
	Call         string
}

// Generate implements Generator.
func (GoGenerator) Generate(req ExecutionRequest) string {
	problem := req.problem()
	in := Classify(req.RawInput)
	entry := identifier(problem.EntryPoint)

	var (
		declarations []string
		args         []string
	)
	switch {
	case in.Kind == KindObject || in.Kind == KindPatternObject:
		params, ok := positionalParams(problem, in)
		if !ok && in.Kind == KindPatternObject {
			params, ok = in.Pattern, true
		}
		if !ok {
			declarations = goDynamic("input", "map[string]interface{}", in.Value)
			args = []string{"input"}
			break
		}
		for _, param := range params {
			value, _ := in.Field(param)
			name := goIdentifier(param)
			linked := problem.LinkedList && IsLinkedListField(param)
			declarations = append(declarations, goDeclare(name, value, linked)...)
			args = append(args, name)
		}
	default:
		declarations = goDeclare("input", in.Value, problem.LinkedList)
		args = []string{"input"}
	}

	return render("golang.tmpl", goData{
		Source:       req.SourceCode,
		LinkedList:   problem.LinkedList,
		DeclareNode:  problem.LinkedList && !goNodeDeclaration.MatchString(req.SourceCode),
		Declarations: declarations,
		Call:         fmt.Sprintf("%s(%s)", entry, strings.Join(args, ", ")),
	})
}

// goDeclare emits the statements that bind name to value as a typed Go value.
func goDeclare(name string, value interface{}, linked bool) []string {
	kind := kindOf(value)
	if linked && kind == KindIntList {
		return []string{fmt.Sprintf("%s := harnessToList(%s)", name, goLiteral(value, KindIntList))}
	}

	switch kind {
	case KindNull:
		return []string{fmt.Sprintf("var %s interface{}", name)}
	case KindBool, KindInt, KindFloat, KindString, KindIntList, KindFloatList, KindStringList, KindIntMatrix:
		return []string{fmt.Sprintf("%s := %s", name, goLiteral(value, kind))}
	case KindList:
		if allLists(value.([]interface{})) {
			return goDynamic(name, "[][]interface{}", value)
		}
		return goDynamic(name, "[]interface{}", value)
	default:
		return goDynamic(name, "map[string]interface{}", value)
	}
}

func goDynamic(name, typ string, value interface{}) []string {
	return []string{
		fmt.Sprintf("var %s %s", name, typ),
		fmt.Sprintf("json.Unmarshal([]byte(%s), &%s)", strconv.Quote(canonicalJSON(value)), name),
	}
}

func goLiteral(value interface{}, kind Kind) string {
	switch kind {
	case KindBool:
		return strconv.FormatBool(value.(bool))
	case KindInt, KindFloat:
		return value.(json.Number).String()
	case KindString:
		return strconv.Quote(value.(string))
	case KindIntList:
		return "[]int{" + joinElements(value.([]interface{}), KindInt) + "}"
	case KindFloatList:
		return "[]float64{" + joinElements(value.([]interface{}), KindFloat) + "}"
	case KindStringList:
		return "[]string{" + joinElements(value.([]interface{}), KindString) + "}"
	case KindIntMatrix:
		rows := value.([]interface{})
		parts := make([]string, len(rows))
		for i, row := range rows {
			parts[i] = "{" + joinElements(row.([]interface{}), KindInt) + "}"
		}
		return "[][]int{" + strings.Join(parts, ", ") + "}"
	default:
		return "nil"
	}
}

func joinElements(items []interface{}, kind Kind) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = goLiteral(item, kind)
	}
	return strings.Join(parts, ", ")
}

func allLists(items []interface{}) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item.([]interface{}); !ok {
			return false
		}
	}
	return true
}

var goReserved = map[string]struct{}{
	"break": {}, "case": {}, "chan": {}, "const": {}, "continue": {}, "default": {},
	"defer": {}, "else": {}, "fallthrough": {}, "for": {}, "func": {}, "go": {},
	"goto": {}, "if": {}, "import": {}, "interface": {}, "map": {}, "package": {},
	"range": {}, "return": {}, "select": {}, "struct": {}, "switch": {}, "type": {},
	"var": {}, "json": {}, "fmt": {}, "result": {}, "resultJSON": {}, "err": {},
	"raw": {}, "main": {},
}

func goIdentifier(key string) string {
	name := strings.ReplaceAll(identifier(key), "$", "_")
	if _, reserved := goReserved[name]; reserved {
		return name + "Arg"
	}
	return name
}
