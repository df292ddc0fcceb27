package dsl

// Deref normalizes a pointer variant to its value variant so consumers
// can switch on value types only. A nil pointer variant yields nil.
// Composites are not walked; call Deref on each child as it is visited.
func Deref(q Query) Query {
	switch n := q.(type) {
	case *And:
		return deref[And, Query](n)
	case *Or:
		return deref[Or, Query](n)
	case *Not:
		return deref[Not, Query](n)
	case *Compare:
		return deref[Compare, Query](n)
	case *Membership:
		return deref[Membership, Query](n)
	case *Range:
		return deref[Range, Query](n)
	case *Existence:
		return deref[Existence, Query](n)
	case *NullTest:
		return deref[NullTest, Query](n)
	case *Regex:
		return deref[Regex, Query](n)
	case *Wildcard:
		return deref[Wildcard, Query](n)
	case *Term:
		return deref[Term, Query](n)
	case *Size:
		return deref[Size, Query](n)
	case *Path:
		return deref[Path, Query](n)
	case *Unsupported:
		return deref[Unsupported, Query](n)
	default:
		return q
	}
}

// DerefAction is Deref for update actions.
func DerefAction(a Action) Action {
	switch n := a.(type) {
	case *Set:
		return deref[Set, Action](n)
	case *Unset:
		return deref[Unset, Action](n)
	case *Numeric:
		return deref[Numeric, Action](n)
	case *ListAction:
		return deref[ListAction, Action](n)
	case *Pop:
		return deref[Pop, Action](n)
	case *Rename:
		return deref[Rename, Action](n)
	default:
		return a
	}
}

// deref returns *p as an I, or a nil I when p is nil.
func deref[T any, I any](p *T) I {
	var zero I
	if p == nil {
		return zero
	}
	return any(*p).(I)
}
