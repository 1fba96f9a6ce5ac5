package harness

import (
	"fmt"
	"regexp"
	"strings"
)

var javaScriptNodeDeclaration = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:(?:class|function)\s+ListNode\b|(?:const|let|var)\s+ListNode\s*=)`)

// JavaScriptGenerator renders Node.js harnesses.
type JavaScriptGenerator struct{}

type jsCall struct {
	Keyword   string
	Condition string
	Expr      string
}

type javaScriptData struct {
	Source         string
	InputJSON      string
	LinkedList     bool
	DeclareNode    bool
	Calls          []jsCall
	MissingMessage string
}

// Generate implements Generator.
func (JavaScriptGenerator) Generate(req ExecutionRequest) string {
	problem := req.problem()
	in := Classify(req.RawInput)
	entry := identifier(problem.EntryPoint)

	return render("javascript.tmpl", javaScriptData{
		Source:      req.SourceCode,
		InputJSON:   canonicalJSON(in.Value),
		LinkedList:  problem.LinkedList,
		DeclareNode: problem.LinkedList && !javaScriptNodeDeclaration.MatchString(req.SourceCode),
		Calls:       javaScriptCalls(entry, problem, in),
		MissingMessage: fmt.Sprintf(
			"Runtime Error: Function '%s' not found. Make sure it's defined as a global function, a method on a Solution class, or matches expected naming patterns.",
			entry,
		),
	})
}

// javaScriptCalls builds the ordered dispatch cascade. Positional calls come first
// when the input destructures into known parameters, then the single-argument forms.
func javaScriptCalls(entry string, problem Problem, in Input) []jsCall {
	var calls []jsCall
	if params, ok := positionalParams(problem, in); ok {
		args := make([]string, len(params))
		for i, param := range params {
			args[i] = "input[" + jsonString(param) + "]"
		}
		joined := strings.Join(args, ", ")
		calls = append(calls,
			jsCall{
				Condition: fmt.Sprintf("typeof %s === 'function'", entry),
				Expr:      fmt.Sprintf("%s(%s)", entry, joined),
			},
			jsCall{
				Condition: fmt.Sprintf("typeof Solution === 'function' && typeof new Solution().%s === 'function'", entry),
				Expr:      fmt.Sprintf("new Solution().%s(%s)", entry, joined),
			},
		)
	}

	calls = append(calls,
		jsCall{
			Condition: fmt.Sprintf("typeof %s === 'function'", entry),
			Expr:      fmt.Sprintf("%s(input)", entry),
		},
		jsCall{
			Condition: fmt.Sprintf("typeof Solution === 'function' && typeof new Solution().%s === 'function'", entry),
			Expr:      fmt.Sprintf("new Solution().%s(input)", entry),
		},
		jsCall{
			Condition: fmt.Sprintf("typeof %sSolution === 'function'", entry),
			Expr:      fmt.Sprintf("%sSolution(input)", entry),
		},
	)

	for i := range calls {
		if i == 0 {
			calls[i].Keyword = "if"
		} else {
			calls[i].Keyword = "} else if"
		}
	}
	return calls
}
