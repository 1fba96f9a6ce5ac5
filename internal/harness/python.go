package harness

import "regexp"

var pythonNodeDeclaration = regexp.MustCompile(`(?m)^\s*class\s+ListNode\b`)

// PythonGenerator renders Python 3 harnesses.
type PythonGenerator struct{}

type pythonData struct {
	Source      string
	EntryPoint  string
	InputJSON   string
	LinkedList  bool
	DeclareNode bool
}

// Generate implements Generator.
func (PythonGenerator) Generate(req ExecutionRequest) string {
	problem := req.problem()
	in := Classify(req.RawInput)

	return render("python.tmpl", pythonData{
		Source:      req.SourceCode,
		EntryPoint:  identifier(problem.EntryPoint),
		InputJSON:   canonicalJSON(in.Value),
		LinkedList:  problem.LinkedList,
		DeclareNode: problem.LinkedList && !pythonNodeDeclaration.MatchString(req.SourceCode),
	})
}
