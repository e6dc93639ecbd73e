// util/json.go
// Copyright(c) 2022-2026 airtrack contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DuplicateJSONKey records an object key that appears more than once in
// the same object.
type DuplicateJSONKey struct {
	Path string // e.g. "legs[2]"
	Key  string
}

// FindDuplicateJSONKeys walks the tokens of data and returns every key
// that is repeated within a single object. Malformed JSON is scanned up
// to the first syntax error.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))

	type level struct {
		keys      map[string]bool // nil for arrays
		index     int             // next element index, for arrays
		expectKey bool
		path      string
	}
	var stack []*level
	var dups []DuplicateJSONKey
	var lastKey string

	childPath := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := stack[len(stack)-1]
		if top.keys == nil {
			return fmt.Sprintf("%s[%d]", top.path, top.index)
		}
		if top.path == "" {
			return lastKey
		}
		return top.path + "." + lastKey
	}
	// valueDone is called after each complete value to update the parent.
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.keys == nil {
			top.index++
		} else {
			top.expectKey = true
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				l := &level{path: childPath()}
				if v == '{' {
					l.keys = make(map[string]bool)
					l.expectKey = true
				}
				stack = append(stack, l)
			case '}', ']':
				stack = stack[:len(stack)-1]
				valueDone()
			}

		case string:
			if top := len(stack) - 1; top >= 0 && stack[top].keys != nil && stack[top].expectKey {
				if stack[top].keys[v] {
					dups = append(dups, DuplicateJSONKey{Path: stack[top].path, Key: v})
				}
				stack[top].keys[v] = true
				stack[top].expectKey = false
				lastKey = v
			} else {
				valueDone()
			}

		default:
			valueDone()
		}
	}

	return dups
}

// DecodeJSONStrict decodes the JSON in r into out, rejecting fields that
// out's type doesn't have and duplicate keys. Syntax and type errors are
// reported with the line and character where they occurred.
func DecodeJSONStrict[T any](r io.Reader, out *T) error {
	// We need the contents as bytes to be able to report line numbers.
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	if dups := FindDuplicateJSONKeys(b); len(dups) > 0 {
		var s []string
		for _, d := range dups {
			if d.Path == "" {
				s = append(s, fmt.Sprintf("%q", d.Key))
			} else {
				s = append(s, fmt.Sprintf("%q in %s", d.Key, d.Path))
			}
		}
		return fmt.Errorf("duplicate JSON keys: %s", strings.Join(s, ", "))
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return annotateJSONError(b, err)
	}
	if dec.More() {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func annotateJSONError(b []byte, err error) error {
	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	var serr *json.SyntaxError
	var terr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &serr):
		line, char := decodeOffset(serr.Offset)
		return fmt.Errorf("line %d, character %d: %w", line, char, err)
	case errors.As(err, &terr):
		line, char := decodeOffset(terr.Offset)
		return fmt.Errorf("line %d, character %d: %s value for %q invalid for type %s",
			line, char, terr.Value, terr.Field, terr.Type)
	default:
		return err
	}
}
