package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyKinds(t *testing.T) {
	cases := map[string]Kind{
		"5":                     KindInt,
		"-12":                   KindInt,
		"2.5":                   KindFloat,
		"1e5":                   KindFloat,
		`"abc"`:                 KindString,
		"true":                  KindBool,
		"null":                  KindNull,
		"[1, 2, 3]":             KindIntList,
		"[]":                    KindIntList,
		"[1, 2.5]":              KindFloatList,
		`["a", "b"]`:            KindStringList,
		"[[1, 2], [3], []]":     KindIntMatrix,
		`[[1, "a"], [2]]`:       KindList,
		`[1, "a"]`:              KindList,
		`{"x": 1}`:              KindObject,
		`{"nums": [1], "k": 2}`: KindPatternObject,
	}

	for raw, expected := range cases {
		in := Classify(raw)
		require.Equalf(t, expected, in.Kind, "input %s classified as %s", raw, in.Kind)
		require.True(t, in.IsJSON)
	}
}

func TestClassifyOpaqueText(t *testing.T) {
	in := Classify("hello world")
	require.Equal(t, KindString, in.Kind)
	require.False(t, in.IsJSON)
	require.Equal(t, "hello world", in.Value)

	trailing := Classify("[1, 2] extra")
	require.False(t, trailing.IsJSON)
	require.Equal(t, "[1, 2] extra", trailing.Value)
}

func TestClassifyKeepsNumberPrecision(t *testing.T) {
	in := Classify("9007199254740993")
	require.Equal(t, json.Number("9007199254740993"), in.Value)
}

func TestClassifyPatternOrder(t *testing.T) {
	in := Classify(`{"target": 9, "nums": [2, 7, 11, 15]}`)
	require.Equal(t, KindPatternObject, in.Kind)
	require.Equal(t, []string{"nums", "target"}, in.Pattern)

	extra := Classify(`{"nums": [1], "target": 2, "extra": true}`)
	require.Equal(t, KindObject, extra.Kind)
	require.Nil(t, extra.Pattern)
}

func TestInputFieldAccess(t *testing.T) {
	in := Classify(`{"s": "abc", "numRows": 2}`)
	require.True(t, in.HasKeys("s", "numRows"))
	require.False(t, in.HasKeys("s", "p"))

	value, ok := in.Field("numRows")
	require.True(t, ok)
	require.Equal(t, json.Number("2"), value)

	_, ok = Classify("[1]").Field("s")
	require.False(t, ok)
}

func TestProblemAllowLists(t *testing.T) {
	require.True(t, IsLinkedListProblem("addTwoNumbers"))
	require.False(t, IsLinkedListProblem("twoSum"))
	require.True(t, NeedsSortedComparison("twoSum"))
	require.False(t, NeedsSortedComparison("addTwoNumbers"))
}

func TestIsLinkedListField(t *testing.T) {
	for _, key := range []string{"head", "l1", "l2", "list", "list1", "list2", "nodeList", "mylist12"} {
		require.Truef(t, IsLinkedListField(key), "key %s", key)
	}
	for _, key := range []string{"nums", "n", "lists1", "listing", "List1x", "Xlist"} {
		require.Falsef(t, IsLinkedListField(key), "key %s", key)
	}
}

func TestResolveProblemOverrides(t *testing.T) {
	yes, no := true, false

	defaults := ResolveProblem("twoSum", Overrides{})
	require.True(t, defaults.SortedCompare)
	require.False(t, defaults.LinkedList)

	overridden := ResolveProblem("twoSum", Overrides{
		OrderInsensitive: &no,
		LinkedList:       &yes,
		ParameterShape:   []string{"nums", "target"},
	})
	require.False(t, overridden.SortedCompare)
	require.True(t, overridden.LinkedList)
	require.Equal(t, []string{"nums", "target"}, overridden.Params)
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	value := ParseValue(`{"b": [1, 2.50], "a": "<x>"}`)
	require.Equal(t, `{"a":"<x>","b":[1,2.50]}`, canonicalJSON(value))
	require.Equal(t, "plain", ParseValue("plain"))
}
