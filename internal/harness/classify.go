package harness

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

// Kind describes the shape of a decoded test input.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindIntList
	KindFloatList
	KindStringList
	KindIntMatrix
	KindList
	KindObject
	KindPatternObject
)

var kindNames = map[Kind]string{
	KindNull:          "null",
	KindBool:          "bool",
	KindInt:           "int",
	KindFloat:         "float",
	KindString:        "string",
	KindIntList:       "int_list",
	KindFloatList:     "float_list",
	KindStringList:    "string_list",
	KindIntMatrix:     "int_matrix",
	KindList:          "list",
	KindObject:        "object",
	KindPatternObject: "pattern_object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Input is a classified test input.
type Input struct {
	Raw     string
	Value   interface{}
	Kind    Kind
	IsJSON  bool
	Pattern []string
}

// Field returns a named field of an object input.
func (in Input) Field(name string) (interface{}, bool) {
	obj, ok := in.Value.(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, ok := obj[name]
	return value, ok
}

// HasKeys reports whether an object input carries every given key.
func (in Input) HasKeys(keys ...string) bool {
	obj, ok := in.Value.(map[string]interface{})
	if !ok {
		return false
	}
	for _, key := range keys {
		if _, ok := obj[key]; !ok {
			return false
		}
	}
	return true
}

// Patterns lists the known parameter-name tuples, in positional argument order.
// The first exact key-set match wins.
var Patterns = [][]string{
	{"nums", "target"},
	{"nums1", "nums2"},
	{"s", "numRows"},
	{"s", "p"},
	{"head", "n"},
	{"l1", "l2"},
	{"list1", "list2"},
	{"nums", "k"},
	{"matrix", "target"},
	{"s", "t"},
	{"digits"},
}

// Classify decodes raw as JSON and determines its shape. Text that is not a single
// JSON value is kept verbatim as an opaque string scalar.
func Classify(raw string) Input {
	value, ok := decodeJSON(raw)
	if !ok {
		return Input{Raw: raw, Value: raw, Kind: KindString}
	}

	in := Input{Raw: raw, Value: value, IsJSON: true, Kind: kindOf(value)}
	if in.Kind == KindObject {
		if pattern := matchPattern(value.(map[string]interface{})); pattern != nil {
			in.Kind = KindPatternObject
			in.Pattern = pattern
		}
	}
	return in
}

// ParseValue decodes text as JSON, falling back to the raw string.
func ParseValue(text string) interface{} {
	if value, ok := decodeJSON(text); ok {
		return value
	}
	return text
}

func decodeJSON(raw string) (interface{}, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	decoder := json.NewDecoder(strings.NewReader(trimmed))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, false
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, false
	}
	return value, true
}

func kindOf(value interface{}) Kind {
	switch v := value.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number:
		if isIntegral(v) {
			return KindInt
		}
		return KindFloat
	case string:
		return KindString
	case map[string]interface{}:
		return KindObject
	case []interface{}:
		return listKind(v)
	default:
		return KindList
	}
}

func listKind(items []interface{}) Kind {
	if len(items) == 0 {
		return KindIntList
	}

	allInts, allNumbers, allStrings, allIntRows := true, true, true, true
	for _, item := range items {
		switch v := item.(type) {
		case json.Number:
			allStrings, allIntRows = false, false
			if !isIntegral(v) {
				allInts = false
			}
		case string:
			allInts, allNumbers, allIntRows = false, false, false
		case []interface{}:
			allInts, allNumbers, allStrings = false, false, false
			if listKind(v) != KindIntList {
				allIntRows = false
			}
		default:
			return KindList
		}
	}

	switch {
	case allInts:
		return KindIntList
	case allNumbers:
		return KindFloatList
	case allStrings:
		return KindStringList
	case allIntRows:
		return KindIntMatrix
	default:
		return KindList
	}
}

func matchPattern(obj map[string]interface{}) []string {
	for _, pattern := range Patterns {
		if len(pattern) != len(obj) {
			continue
		}
		matched := true
		for _, key := range pattern {
			if _, ok := obj[key]; !ok {
				matched = false
				break
			}
		}
		if matched {
			return pattern
		}
	}
	return nil
}

func isIntegral(n json.Number) bool {
	return !strings.ContainsAny(n.String(), ".eE")
}

// LinkedListFieldPattern matches field names such as list1, nodeList or mylist2. The
// generated Python and JavaScript programs apply the same pattern.
const LinkedListFieldPattern = `(?:^|[a-z])[lL]ist\d*$`

var linkedListField = regexp.MustCompile(LinkedListFieldPattern)

// IsLinkedListField reports whether an input field holds a linked list encoded as a sequence.
func IsLinkedListField(key string) bool {
	switch key {
	case "head", "l1", "l2":
		return true
	}
	return linkedListField.MatchString(key)
}

var linkedListProblems = map[string]struct{}{
	"addTwoNumbers":    {},
	"removeNthFromEnd": {},
	"mergeTwoLists":    {},
	"reverseList":      {},
	"swapPairs":        {},
	"middleNode":       {},
	"deleteDuplicates": {},
	"rotateRight":      {},
}

var sortedComparisonProblems = map[string]struct{}{
	"twoSum":             {},
	"threeSum":           {},
	"fourSum":            {},
	"letterCombinations": {},
	"permute":            {},
	"subsets":            {},
	"groupAnagrams":      {},
	"combinationSum":     {},
}

// IsLinkedListProblem reports whether entryPoint takes or returns linked lists.
func IsLinkedListProblem(entryPoint string) bool {
	_, ok := linkedListProblems[entryPoint]
	return ok
}

// NeedsSortedComparison reports whether results of entryPoint have no guaranteed order.
func NeedsSortedComparison(entryPoint string) bool {
	_, ok := sortedComparisonProblems[entryPoint]
	return ok
}

// Overrides carries per-question metadata that takes precedence over the name allow-lists.
type Overrides struct {
	LinkedList       *bool
	OrderInsensitive *bool
	ParameterShape   []string
}

// Problem is the resolved harness profile of a question.
type Problem struct {
	EntryPoint    string
	LinkedList    bool
	SortedCompare bool
	Params        []string
}

// ResolveProblem builds the profile for entryPoint, applying overrides when set.
func ResolveProblem(entryPoint string, overrides Overrides) Problem {
	problem := Problem{
		EntryPoint:    entryPoint,
		LinkedList:    IsLinkedListProblem(entryPoint),
		SortedCompare: NeedsSortedComparison(entryPoint),
	}
	if overrides.LinkedList != nil {
		problem.LinkedList = *overrides.LinkedList
	}
	if overrides.OrderInsensitive != nil {
		problem.SortedCompare = *overrides.OrderInsensitive
	}
	if len(overrides.ParameterShape) > 0 {
		problem.Params = append([]string(nil), overrides.ParameterShape...)
	}
	return problem
}

// canonicalJSON re-encodes a decoded value; map keys come out sorted.
func canonicalJSON(value interface{}) string {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
