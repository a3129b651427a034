// Package frontmatter separates a leading YAML header block from the text it precedes.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter (`---` delimited) from the body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input. A closing delimiter may be the last line of the
// input without a trailing newline.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, []byte("---"+nl)) {
		return []byte{}, rest[len("---"+nl):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
	}
	if closeEOF := []byte(nl + "---"); bytes.HasSuffix(rest, closeEOF) {
		end := len(rest) - len(closeEOF)
		return rest[:end+len(nl)], []byte{}, true, nil
	}
	return nil, nil, false, ErrMissingClosingDelimiter
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Extract returns the body following the frontmatter block and the parsed
// fields. A document without a header, or whose opening delimiter is never
// closed, is all body with an empty field map. Only a closed block that is not
// valid YAML is an error.
func Extract(content []byte) (body []byte, fields map[string]any, err error) {
	fm, body, had, err := Split(content)
	if errors.Is(err, ErrMissingClosingDelimiter) || (err == nil && !had) {
		return content, map[string]any{}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	fields, err = ParseYAML(fm)
	if err != nil {
		return nil, nil, err
	}
	return body, fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
