// Package parser turns wire JSON envelopes into dsl requests.
//
// Parsing is where wire values are coerced: the size ceiling is checked
// on the raw bytes, every operator argument is shape-checked for unicity,
// leaf values become canonical scalars, and the finished request is run
// through the Validator before it is returned.
package parser

import (
	"fmt"

	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
)

// Parser decodes envelopes of any kind. It is safe for concurrent use.
type Parser struct {
	validator *validate.Validator
}

// New creates a Parser that enforces v's ceilings.
func New(v *validate.Validator) *Parser {
	if v == nil {
		v = validate.New(validate.DefaultConfig())
	}
	return &Parser{validator: v}
}

// envelopeKeys lists the top-level keys each request kind accepts.
var envelopeKeys = map[dsl.Kind][]string{
	dsl.KindSelect: {dsl.KeyRoots, dsl.KeyQuery, dsl.KeyFilter, dsl.KeyProjection},
	dsl.KindInsert: {dsl.KeyRoots, dsl.KeyQuery, dsl.KeyFilter, dsl.KeyData},
	dsl.KindUpdate: {dsl.KeyRoots, dsl.KeyQuery, dsl.KeyFilter, dsl.KeyAction},
	dsl.KindDelete: {dsl.KeyRoots, dsl.KeyQuery, dsl.KeyFilter},
}

// ParseKind resolves a request kind name.
func ParseKind(s string) (dsl.Kind, error) {
	k := dsl.Kind(s)
	if _, ok := envelopeKeys[k]; !ok {
		return "", dsl.NewError(dsl.ErrInvalidRequest, "", "", "unknown request kind %q", s)
	}
	return k, nil
}

// Parse decodes data as an envelope of the given kind and validates it.
func (p *Parser) Parse(kind dsl.Kind, data []byte) (dsl.Request, error) {
	allowed, ok := envelopeKeys[kind]
	if !ok {
		return nil, dsl.NewError(dsl.ErrInvalidRequest, "", "", "unknown request kind %q", kind)
	}
	if err := p.validator.CheckSize(len(data)); err != nil {
		return nil, err
	}

	raw, err := value.Decode(data)
	if err != nil {
		return nil, &dsl.Error{Kind: dsl.ErrInvalidRequest, Message: "decode request", Err: err}
	}
	env, ok := raw.(value.Object)
	if !ok {
		return nil, dsl.NewError(dsl.ErrInvalidRequest, "", "", "request must be an object, got %s", value.TypeName(raw))
	}
	for _, m := range env {
		if !contains(allowed, m.Key) {
			return nil, dsl.NewError(dsl.ErrInvalidRequest, m.Key, "", "key not allowed in a %s request", kind)
		}
	}

	header, err := parseHeader(env)
	if err != nil {
		return nil, err
	}

	var req dsl.Request
	switch kind {
	case dsl.KindSelect:
		sel := &dsl.Select{Header: header}
		if arg, ok := env.Get(dsl.KeyProjection); ok {
			if err := ApplyProjection(&sel.Projection, arg); err != nil {
				return nil, err
			}
		}
		req = sel
	case dsl.KindInsert:
		ins := &dsl.Insert{Header: header}
		if arg, ok := env.Get(dsl.KeyData); ok {
			if ins.Data, err = parseData(arg); err != nil {
				return nil, err
			}
		}
		req = ins
	case dsl.KindUpdate:
		upd := &dsl.Update{Header: header}
		if arg, ok := env.Get(dsl.KeyAction); ok {
			if upd.Actions, err = ParseActions(arg); err != nil {
				return nil, err
			}
		}
		req = upd
	case dsl.KindDelete:
		req = &dsl.Delete{Header: header}
	}

	if err := p.validator.Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseSelect is Parse for select requests.
func (p *Parser) ParseSelect(data []byte) (*dsl.Select, error) {
	req, err := p.Parse(dsl.KindSelect, data)
	if err != nil {
		return nil, err
	}
	return req.(*dsl.Select), nil
}

// ParseUpdate is Parse for update requests.
func (p *Parser) ParseUpdate(data []byte) (*dsl.Update, error) {
	req, err := p.Parse(dsl.KindUpdate, data)
	if err != nil {
		return nil, err
	}
	return req.(*dsl.Update), nil
}

func parseHeader(env value.Object) (dsl.Header, error) {
	var h dsl.Header

	if arg, ok := env.Get(dsl.KeyRoots); ok {
		roots, err := parseIDs(dsl.KeyRoots, arg, true)
		if err != nil {
			return h, err
		}
		h.Roots = roots
	}

	if arg, ok := env.Get(dsl.KeyQuery); ok {
		steps, err := ParseSteps(arg)
		if err != nil {
			return h, err
		}
		h.Queries = steps
	}

	if arg, ok := env.Get(dsl.KeyFilter); ok {
		if err := ApplyFilter(&h.Filter, arg); err != nil {
			return h, err
		}
	}
	return h, nil
}

// parseIDs reads an array of identifier strings. Duplicates are dropped
// when dedupe is set, keeping first occurrence order.
func parseIDs(token string, arg value.Value, dedupe bool) ([]string, error) {
	arr, ok := arg.(value.Array)
	if !ok {
		return nil, dsl.Malformed(token, "", "expected an array of identifiers, got %s", value.TypeName(arg))
	}
	ids := make([]string, 0, len(arr))
	seen := make(map[string]bool, len(arr))
	for i, elem := range arr {
		s, ok := elem.(value.String)
		if !ok || s == "" {
			return nil, dsl.Malformed(token, "", "identifier %d must be a non-empty string", i)
		}
		if dedupe {
			if seen[string(s)] {
				continue
			}
			seen[string(s)] = true
		}
		ids = append(ids, string(s))
	}
	return ids, nil
}

// parseData accepts one document or an array of documents.
func parseData(arg value.Value) ([]value.Object, error) {
	switch d := arg.(type) {
	case value.Object:
		return []value.Object{d}, nil
	case value.Array:
		docs := make([]value.Object, len(d))
		for i, elem := range d {
			obj, ok := elem.(value.Object)
			if !ok {
				return nil, dsl.Malformed(dsl.KeyData, "", "document %d must be an object, got %s", i, value.TypeName(elem))
			}
			docs[i] = obj
		}
		return docs, nil
	default:
		return nil, dsl.Malformed(dsl.KeyData, "", "expected a document or an array of documents, got %s", value.TypeName(arg))
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// wrapIndex prefixes err with a list position, keeping the typed error
// reachable through errors.As.
func wrapIndex(what string, i int, err error) error {
	return fmt.Errorf("%s %d: %w", what, i, err)
}
