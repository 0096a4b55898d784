package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ldMaxDepth = 32
	ldMaxNodes = 10000
)

var errLDTooDeep = errors.New("json-ld nesting too deep")

// ldField is one member of a decoded JSON object.
type ldField struct {
	key   string
	value any
}

// ldObject keeps the members of a JSON object in document order, which
// map[string]any would lose.
type ldObject []ldField

func (o ldObject) get(key string) (any, bool) {
	for _, f := range o {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// set overwrites an existing member in place, so a repeated key keeps its
// first position and its last value.
func (o ldObject) set(key string, value any) ldObject {
	for i := range o {
		if o[i].key == key {
			o[i].value = value
			return o
		}
	}
	return append(o, ldField{key: key, value: value})
}

// decodeLD parses one JSON-LD block. Objects become ldObject, arrays []any,
// scalars keep their encoding/json token types.
func decodeLD(block string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber()

	root, err := decodeLDValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after json-ld value")
	}
	return root, nil
}

func decodeLDValue(dec *json.Decoder, depth int) (any, error) {
	if depth > ldMaxDepth {
		return nil, errLDTooDeep
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := ldObject{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			value, err := decodeLDValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			obj = obj.set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			value, err := decodeLDValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

type ldFrame struct {
	node  any
	depth int
}

// collectLDImages walks the decoded tree depth first and returns every
// image and thumbnailUrl reference in discovery order. An object's own
// references come before those of its children.
func collectLDImages(root any) []string {
	var refs []string
	stack := []ldFrame{{node: root}}
	visited := 0

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visited++
		if visited > ldMaxNodes {
			break
		}
		if frame.depth > ldMaxDepth {
			continue
		}

		switch node := frame.node.(type) {
		case []any:
			for i := len(node) - 1; i >= 0; i-- {
				stack = append(stack, ldFrame{node: node[i], depth: frame.depth + 1})
			}
		case ldObject:
			if image, ok := node.get("image"); ok {
				refs = append(refs, ldImageRefs(image)...)
			}
			if thumb, ok := node.get("thumbnailUrl"); ok {
				refs = append(refs, ldStringRefs(thumb)...)
			}
			for i := len(node) - 1; i >= 0; i-- {
				switch node[i].value.(type) {
				case ldObject, []any:
					stack = append(stack, ldFrame{node: node[i].value, depth: frame.depth + 1})
				}
			}
		}
	}
	return refs
}

// ldImageRefs reads an image property: a string, an {url} object or an
// array mixing both.
func ldImageRefs(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case ldObject:
		if u, ok := v.get("url"); ok {
			if s, ok := u.(string); ok {
				return []string{s}
			}
		}
	case []any:
		var refs []string
		for _, item := range v {
			switch item := item.(type) {
			case string:
				refs = append(refs, item)
			case ldObject:
				if u, ok := item.get("url"); ok {
					if s, ok := u.(string); ok {
						refs = append(refs, s)
					}
				}
			}
		}
		return refs
	}
	return nil
}

// ldStringRefs reads a string or an array of strings.
func ldStringRefs(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		var refs []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				refs = append(refs, s)
			}
		}
		return refs
	}
	return nil
}
