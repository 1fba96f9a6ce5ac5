package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseOutput interprets the text a generated program printed. A JSON object is read
// as the {result, stdout, stderr} envelope. When the program printed other lines before
// the envelope, those lines are kept as stdout. Anything else is returned as stdout.
func ParseOutput(text string) ExecutionResult {
	if value, ok := decode(text); ok {
		if envelope, ok := value.(map[string]interface{}); ok {
			return fromEnvelope(envelope, nil)
		}
		return ExecutionResult{Stdout: splitLines(text)}
	}

	lines := splitLines(text)
	if len(lines) > 1 {
		if value, ok := decode(lines[len(lines)-1]); ok {
			if envelope, ok := value.(map[string]interface{}); ok && isEnvelope(envelope) {
				return fromEnvelope(envelope, lines[:len(lines)-1])
			}
		}
	}
	return ExecutionResult{Stdout: lines}
}

// parseWireOutput handles the output field of a service response, which is normally
// the program's stdout text but may arrive already decoded.
func parseWireOutput(output interface{}) ExecutionResult {
	switch v := output.(type) {
	case nil:
		return ExecutionResult{}
	case string:
		return ParseOutput(v)
	case map[string]interface{}:
		return fromEnvelope(v, nil)
	default:
		return ExecutionResult{Stdout: splitLines(fmt.Sprint(v))}
	}
}

func fromEnvelope(envelope map[string]interface{}, leading []string) ExecutionResult {
	result := ExecutionResult{
		Output: envelope["result"],
		Stdout: append(append([]string(nil), leading...), splitLines(stringField(envelope["stdout"]))...),
		Stderr: splitLines(stringField(envelope["stderr"])),
	}
	if len(result.Stdout) == 0 {
		result.Stdout = nil
	}
	return result
}

func isEnvelope(obj map[string]interface{}) bool {
	for _, key := range []string{"result", "stdout", "stderr"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

func stringField(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(v)
	}
}

// splitLines splits text on newlines and drops empty lines. It returns nil when no
// line remains.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func decode(text string) (interface{}, bool) {
	trimmed := strings.TrimSpace(text)
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
