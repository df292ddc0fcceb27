package parser

import (
	"github.com/roach88/archdsl/internal/dsl"
	"github.com/roach88/archdsl/internal/validate"
	"github.com/roach88/archdsl/internal/value"
)

// ApplyFilter merges a $filter object into f. Only keys present in arg
// are touched; $orderby and $hint entries are union-merged with the last
// write winning per field.
func ApplyFilter(f *dsl.Filter, arg value.Value) error {
	obj, ok := arg.(value.Object)
	if !ok {
		return dsl.Malformed(dsl.KeyFilter, "", "expected an object, got %s", value.TypeName(arg))
	}
	for _, m := range obj {
		switch m.Key {
		case dsl.KeyLimit, dsl.KeyOffset:
			n, err := validate.Integer(m.Key, "", m.Value)
			if err != nil {
				return err
			}
			if n < 0 {
				return dsl.NewError(dsl.ErrInvalidRequest, m.Key, "", "must be >= 0, got %d", n)
			}
			if m.Key == dsl.KeyLimit {
				f.Limit = n
			} else {
				f.Offset = n
			}
		case dsl.KeyOrderBy:
			orders, err := validate.Pairs(m.Key, m.Value)
			if err != nil {
				return err
			}
			for _, o := range orders {
				dir, err := validate.Integer(m.Key, o.Key, o.Value)
				if err != nil {
					return err
				}
				f.OrderBy = MergeOrder(f.OrderBy, dsl.Order{Field: o.Key, Direction: int(dir)})
			}
		case dsl.KeyHint:
			hints, err := parseHints(m.Value)
			if err != nil {
				return err
			}
			f.Hints = MergeHints(f.Hints, hints...)
		case dsl.KeyMult:
			b, ok := m.Value.(value.Bool)
			if !ok {
				return dsl.Malformed(m.Key, "", "expected a boolean, got %s", value.TypeName(m.Value))
			}
			f.Mult = bool(b)
		default:
			return dsl.NewError(dsl.ErrInvalidRequest, m.Key, "", "unknown filter key")
		}
	}
	return nil
}

func parseHints(arg value.Value) ([]string, error) {
	switch h := arg.(type) {
	case value.String:
		return []string{string(h)}, nil
	case value.Array:
		return parseIDs(dsl.KeyHint, h, true)
	default:
		return nil, dsl.Malformed(dsl.KeyHint, "", "expected a hint or an array of hints, got %s", value.TypeName(arg))
	}
}

// MergeOrder replaces the entry for o.Field in place, or appends it.
func MergeOrder(orders []dsl.Order, o dsl.Order) []dsl.Order {
	for i := range orders {
		if orders[i].Field == o.Field {
			orders[i].Direction = o.Direction
			return orders
		}
	}
	return append(orders, o)
}

// MergeHints appends hints not already present.
func MergeHints(hints []string, add ...string) []string {
	for _, h := range add {
		if !contains(hints, h) {
			hints = append(hints, h)
		}
	}
	return hints
}

// ApplyProjection merges a $projection object into p, with the same
// present-keys-only, last-write-wins rule as ApplyFilter.
func ApplyProjection(p *dsl.Projection, arg value.Value) error {
	obj, ok := arg.(value.Object)
	if !ok {
		return dsl.Malformed(dsl.KeyProjection, "", "expected an object, got %s", value.TypeName(arg))
	}
	for _, m := range obj {
		switch m.Key {
		case dsl.KeyFields:
			fields, ok := m.Value.(value.Object)
			if !ok {
				return dsl.Malformed(m.Key, "", "expected an object, got %s", value.TypeName(m.Value))
			}
			for _, f := range fields {
				if f.Key == "" {
					return dsl.Malformed(m.Key, "", "empty field name")
				}
				ind, err := indicator(f)
				if err != nil {
					return err
				}
				p.Fields = MergeField(p.Fields, dsl.FieldFlag{Field: f.Key, Indicator: ind})
			}
		case dsl.KeyUsage:
			s, ok := m.Value.(value.String)
			if !ok {
				return dsl.Malformed(m.Key, "", "expected a string, got %s", value.TypeName(m.Value))
			}
			p.Usage = string(s)
		default:
			return dsl.NewError(dsl.ErrInvalidRequest, m.Key, "", "unknown projection key")
		}
	}
	return nil
}

// indicator accepts 1/0 style integers and booleans.
func indicator(m value.Member) (int, error) {
	if b, ok := m.Value.(value.Bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	n, err := validate.Integer(dsl.KeyFields, m.Key, m.Value)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// MergeField replaces the entry for f.Field in place, or appends it.
func MergeField(fields []dsl.FieldFlag, f dsl.FieldFlag) []dsl.FieldFlag {
	for i := range fields {
		if fields[i].Field == f.Field {
			fields[i].Indicator = f.Indicator
			return fields
		}
	}
	return append(fields, f)
}
