package checker

// IsTypeAssignableTo reports whether a value of type src can be assigned to
// a location of type dst, under strict null checks.
func (c *Checker) IsTypeAssignableTo(src, dst *Type) bool {
	if src == nil || dst == nil {
		return false
	}
	return c.assignable(src, dst, 0)
}

func (c *Checker) assignable(s, t *Type, depth int) bool {
	if s == t {
		return true
	}
	if depth > maxDepth {
		return false
	}
	depth++

	switch {
	case t.flags&(TypeFlagsAny|TypeFlagsUnknown) != 0:
		return true
	case s.flags&(TypeFlagsAny|TypeFlagsNever) != 0:
		return true
	case s.flags&TypeFlagsUnion != 0:
		for _, m := range s.types {
			if !c.assignable(m, t, depth) {
				return false
			}
		}
		return true
	case t.flags&TypeFlagsUnion != 0:
		if s.flags&TypeFlagsBoolean != 0 {
			return c.assignable(c.types.booleanLiteral(true, false), t, depth) &&
				c.assignable(c.types.booleanLiteral(false, false), t, depth)
		}
		for _, m := range t.types {
			if c.assignable(s, m, depth) {
				return true
			}
		}
		return false
	case s.flags&TypeFlagsIntersection != 0:
		for _, m := range s.types {
			if c.assignable(m, t, depth) {
				return true
			}
		}
		return false
	case t.flags&TypeFlagsIntersection != 0:
		for _, m := range t.types {
			if !c.assignable(s, m, depth) {
				return false
			}
		}
		return true
	case s.flags&TypeFlagsLiteral != 0:
		if t.flags&TypeFlagsLiteral != 0 {
			return s.flags == t.flags && s.value == t.value
		}
		return c.types.baseOf(s) == t
	case s.flags&TypeFlagsTypeParameter != 0:
		if constraint := c.constraintOf(s); constraint != nil {
			return c.assignable(constraint, t, depth)
		}
		return false
	case s.flags&TypeFlagsUndefined != 0:
		return t.flags&(TypeFlagsUndefined|TypeFlagsVoid) != 0
	case s.object != nil && t.object != nil:
		return c.structurallyAssignable(s.object, t.object, depth)
	}
	return false
}

func (c *Checker) structurallyAssignable(s, t *ObjectType, depth int) bool {
	switch {
	case t.Elem != nil:
		if s.Elem == nil && s.Tuple == nil {
			return false
		}
		for _, e := range append([]*Type{s.Elem}, s.Tuple...) {
			if e != nil && !c.assignable(e, t.Elem, depth) {
				return false
			}
		}
		return true
	case t.Tuple != nil:
		if s.Tuple == nil || len(s.Tuple) != len(t.Tuple) {
			return false
		}
		for i := range t.Tuple {
			if !c.assignable(s.Tuple[i], t.Tuple[i], depth) {
				return false
			}
		}
		return true
	}
	if t.Target != nil && s.Target != nil && sameTarget(t.Target, s.Target) && len(s.TypeArgs) == len(t.TypeArgs) {
		for i := range t.TypeArgs {
			if !c.assignable(s.TypeArgs[i], t.TypeArgs[i], depth) {
				return false
			}
		}
		return true
	}
	for _, name := range t.PropertyNames() {
		tp, _ := t.Property(name)
		sp, ok := s.Property(name)
		if !ok {
			if c.assignable(c.types.undef, tp, depth) {
				continue
			}
			return false
		}
		if !c.assignable(sp, tp, depth) {
			return false
		}
	}
	return true
}
