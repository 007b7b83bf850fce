// Package utils holds small parsing helpers shared by the HTTP handlers.
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// placeholderPrefix marks a number shielded from the repair pass.
const placeholderPrefix = "__smartparse_num_"

// RepairJSON fixes common hand-written JSON mistakes: single quotes, unquoted keys,
// trailing commas, unclosed objects, comments.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON converts Hjson (comments, unquoted strings, optional commas) to JSON.
func ParseHJSON(data string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(data), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(out), nil
}

// SmartParse decodes input into v, trying strict JSON, then Hjson, then a repaired copy.
// Unknown fields are ignored. Input holding more than one top-level value is rejected
// by every stage, and numbers keep their exact text through the repair stage.
func SmartParse(input string, v interface{}) error {
	if err := strictDecode(input, v); err == nil {
		return nil
	}
	shielded, numbers, err := shieldNumbers(input)
	if err != nil {
		return fmt.Errorf("SMART_PARSE_FAILED: %v", err)
	}
	if converted, err := ParseHJSON(input); err == nil {
		if err := strictDecode(converted, v); err == nil {
			return nil
		}
	}
	if repaired, err := RepairJSON(shielded); err == nil {
		if restored, err := restoreNumbers(repaired, numbers); err == nil {
			if err := strictDecode(restored, v); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}

func strictDecode(s string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

// shieldNumbers replaces every numeric value outside string literals with a quoted
// placeholder and returns the original number texts in placeholder order. The repair
// library parses numbers at float32 precision; placeholders pass through it as strings.
// It fails when a second top-level value follows the first.
func shieldNumbers(input string) (string, []string, error) {
	if strings.Contains(input, placeholderPrefix) {
		return "", nil, fmt.Errorf("reserved token in input")
	}
	var (
		out     strings.Builder
		numbers []string
		quote   byte
		depth   int
		closed  bool
		prev    byte // last significant byte outside strings
	)
	for i := 0; i < len(input); i++ {
		c := input[i]
		if quote != 0 {
			out.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(input) {
					i++
					out.WriteByte(input[i])
				}
			case quote:
				quote = 0
				prev = c
			}
			continue
		}
		if isSpace(c) {
			out.WriteByte(c)
			continue
		}
		if c == '#' || (c == '/' && i+1 < len(input) && input[i+1] == '/') {
			end := strings.IndexByte(input[i:], '\n')
			if end < 0 {
				end = len(input) - i
			}
			out.WriteString(input[i : i+end])
			i += end - 1
			continue
		}
		if closed {
			return "", nil, fmt.Errorf("multiple top-level values")
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth <= 0 {
				closed = true
			}
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			if prev == ':' || prev == '[' || prev == ',' {
				end := i
				for end < len(input) && strings.IndexByte("+-.eE0123456789", input[end]) >= 0 {
					end++
				}
				if tok := input[i:end]; jsonNumber.MatchString(tok) && (end == len(input) || isDelim(input[end])) {
					fmt.Fprintf(&out, `"%s%d__"`, placeholderPrefix, len(numbers))
					numbers = append(numbers, tok)
					prev = '0'
					i = end - 1
					continue
				}
			}
		}
		out.WriteByte(c)
		prev = c
	}
	return out.String(), numbers, nil
}

// restoreNumbers puts the original number texts back in place of their placeholders.
// Every placeholder must survive the repair exactly once.
func restoreNumbers(repaired string, numbers []string) (string, error) {
	for i, tok := range numbers {
		placeholder := fmt.Sprintf(`"%s%d__"`, placeholderPrefix, i)
		if n := strings.Count(repaired, placeholder); n != 1 {
			return "", fmt.Errorf("number %s lost in repair", tok)
		}
		repaired = strings.Replace(repaired, placeholder, tok, 1)
	}
	if strings.Contains(repaired, placeholderPrefix) {
		return "", fmt.Errorf("placeholder altered in repair")
	}
	return repaired, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDelim(c byte) bool {
	return isSpace(c) || c == ',' || c == '}' || c == ']'
}
