package checker

import (
	"slices"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TypeFlags classifies a Type. Exactly one primary flag is set per type.
type TypeFlags uint32

const (
	TypeFlagsAny TypeFlags = 1 << iota
	TypeFlagsUnknown
	TypeFlagsString
	TypeFlagsNumber
	TypeFlagsBoolean
	TypeFlagsBigInt
	TypeFlagsStringLiteral
	TypeFlagsNumberLiteral
	TypeFlagsBooleanLiteral
	TypeFlagsBigIntLiteral
	TypeFlagsUndefined
	TypeFlagsNull
	TypeFlagsVoid
	TypeFlagsNever
	TypeFlagsUnion
	TypeFlagsIntersection
	TypeFlagsObject
	TypeFlagsTypeParameter

	TypeFlagsLiteral        = TypeFlagsStringLiteral | TypeFlagsNumberLiteral | TypeFlagsBooleanLiteral | TypeFlagsBigIntLiteral
	TypeFlagsStringLike     = TypeFlagsString | TypeFlagsStringLiteral
	TypeFlagsNullable       = TypeFlagsUndefined | TypeFlagsNull | TypeFlagsVoid
	TypeFlagsUnionOrInter   = TypeFlagsUnion | TypeFlagsIntersection
	TypeFlagsPrimitiveBases = TypeFlagsString | TypeFlagsNumber | TypeFlagsBoolean | TypeFlagsBigInt
)

// Type is a resolved TypeScript type. Types are interned by the Checker that
// created them; pointer equality means type identity.
type Type struct {
	id     int
	flags  TypeFlags
	value  string // literal value, type parameter name
	fresh  bool   // literal produced directly by a literal expression
	types  []*Type
	object *ObjectType
	param  *typeParam
}

// ID returns the interning id of t.
func (t *Type) ID() int { return t.id }

// Flags returns the classification flags of t.
func (t *Type) Flags() TypeFlags { return t.flags }

// IsStringLiteral reports whether t is a string literal type.
func (t *Type) IsStringLiteral() bool { return t.flags&TypeFlagsStringLiteral != 0 }

// IsUnionOrIntersection reports whether t is a union or intersection type.
func (t *Type) IsUnionOrIntersection() bool { return t.flags&TypeFlagsUnionOrInter != 0 }

// IsUnion reports whether t is a union type.
func (t *Type) IsUnion() bool { return t.flags&TypeFlagsUnion != 0 }

// Value returns the literal value for literal types.
func (t *Type) Value() string { return t.value }

// Types returns the constituents of a union or intersection.
func (t *Type) Types() []*Type { return t.types }

// Object returns the structure of an object type, or nil.
func (t *Type) Object() *ObjectType { return t.object }

func (t *Type) String() string {
	switch {
	case t.flags&TypeFlagsStringLiteral != 0:
		return strconv.Quote(t.value)
	case t.flags&(TypeFlagsNumberLiteral|TypeFlagsBooleanLiteral) != 0:
		return t.value
	case t.flags&TypeFlagsBigIntLiteral != 0:
		return t.value + "n"
	case t.flags&TypeFlagsUnionOrInter != 0:
		sep := " | "
		if t.flags&TypeFlagsIntersection != 0 {
			sep = " & "
		}
		parts := make([]string, len(t.types))
		for i, m := range t.types {
			parts[i] = m.String()
		}
		return strings.Join(parts, sep)
	case t.flags&TypeFlagsTypeParameter != 0:
		return t.value
	case t.flags&TypeFlagsObject != 0:
		return t.object.String()
	}
	return intrinsicNames[t.flags]
}

var intrinsicNames = map[TypeFlags]string{
	TypeFlagsAny:       "any",
	TypeFlagsUnknown:   "unknown",
	TypeFlagsString:    "string",
	TypeFlagsNumber:    "number",
	TypeFlagsBoolean:   "boolean",
	TypeFlagsBigInt:    "bigint",
	TypeFlagsUndefined: "undefined",
	TypeFlagsNull:      "null",
	TypeFlagsVoid:      "void",
	TypeFlagsNever:     "never",
}

// ObjectType describes object, array, tuple and function types.
type ObjectType struct {
	// Target is the generic declaration this type instantiates, if any.
	Target   *Symbol
	TypeArgs []*Type

	Elem  *Type   // element type of arrays
	Tuple []*Type // element types of tuples
	Index *Type   // value type of a string index signature

	signatures []*Signature
	props      map[string]*Type
	propOrder  []string
	resolve    func(*ObjectType)
	lookup     func(name string) (*Type, bool)
	resolving  bool
	resolved   bool
	builtin    string
}

func (o *ObjectType) members() {
	if o.resolved || o.resolving {
		return
	}
	o.resolving = true
	if o.resolve != nil {
		o.resolve(o)
	}
	o.resolving = false
	o.resolved = true
}

func (o *ObjectType) setProp(name string, t *Type) {
	if o.props == nil {
		o.props = make(map[string]*Type)
	}
	if _, ok := o.props[name]; !ok {
		o.propOrder = append(o.propOrder, name)
	}
	o.props[name] = t
}

// Property returns the type of the named property.
func (o *ObjectType) Property(name string) (*Type, bool) {
	o.members()
	if t, ok := o.props[name]; ok {
		return t, true
	}
	if o.lookup != nil {
		return o.lookup(name)
	}
	if o.Index != nil {
		return o.Index, true
	}
	return nil, false
}

// PropertyNames returns the declared property names in declaration order.
func (o *ObjectType) PropertyNames() []string {
	o.members()
	return slices.Clone(o.propOrder)
}

// Signatures returns the call signatures of the type.
func (o *ObjectType) Signatures() []*Signature {
	o.members()
	return o.signatures
}

func (o *ObjectType) String() string {
	switch {
	case o.Elem != nil:
		return o.Elem.String() + "[]"
	case o.Tuple != nil:
		parts := make([]string, len(o.Tuple))
		for i, e := range o.Tuple {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case o.Target != nil:
		if len(o.TypeArgs) == 0 {
			return o.Target.Name
		}
		parts := make([]string, len(o.TypeArgs))
		for i, a := range o.TypeArgs {
			parts[i] = a.String()
		}
		return o.Target.Name + "<" + strings.Join(parts, ", ") + ">"
	case o.builtin != "":
		return o.builtin
	}
	if !o.resolved {
		return "{...}"
	}
	parts := make([]string, 0, len(o.propOrder))
	for _, name := range o.propOrder {
		parts = append(parts, name+": "+o.props[name].String())
	}
	if len(o.signatures) > 0 && len(parts) == 0 {
		return "Function"
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

type typeParam struct {
	name       string
	isConst    bool
	file       *SourceFile
	constraint *sitter.Node
}

// interner hands out canonical Type values.
type interner struct {
	next     int
	any      *Type
	unknown  *Type
	str      *Type
	num      *Type
	boolean  *Type
	bigint   *Type
	undef    *Type
	null     *Type
	void     *Type
	never    *Type
	literals map[literalKey]*Type
	unions   map[string]*Type
	inters   map[string]*Type
}

type literalKey struct {
	flags TypeFlags
	value string
	fresh bool
}

func newInterner() *interner {
	in := &interner{
		literals: make(map[literalKey]*Type),
		unions:   make(map[string]*Type),
		inters:   make(map[string]*Type),
	}
	in.any = in.intrinsic(TypeFlagsAny)
	in.unknown = in.intrinsic(TypeFlagsUnknown)
	in.str = in.intrinsic(TypeFlagsString)
	in.num = in.intrinsic(TypeFlagsNumber)
	in.boolean = in.intrinsic(TypeFlagsBoolean)
	in.bigint = in.intrinsic(TypeFlagsBigInt)
	in.undef = in.intrinsic(TypeFlagsUndefined)
	in.null = in.intrinsic(TypeFlagsNull)
	in.void = in.intrinsic(TypeFlagsVoid)
	in.never = in.intrinsic(TypeFlagsNever)
	return in
}

func (in *interner) newType(t *Type) *Type {
	in.next++
	t.id = in.next
	return t
}

func (in *interner) intrinsic(flags TypeFlags) *Type {
	return in.newType(&Type{flags: flags})
}

func (in *interner) literal(flags TypeFlags, value string, fresh bool) *Type {
	key := literalKey{flags: flags, value: value, fresh: fresh}
	if t, ok := in.literals[key]; ok {
		return t
	}
	t := in.newType(&Type{flags: flags, value: value, fresh: fresh})
	in.literals[key] = t
	return t
}

func (in *interner) stringLiteral(value string, fresh bool) *Type {
	return in.literal(TypeFlagsStringLiteral, value, fresh)
}

func (in *interner) numberLiteral(text string, fresh bool) *Type {
	return in.literal(TypeFlagsNumberLiteral, normalizeNumber(text), fresh)
}

func (in *interner) booleanLiteral(v bool, fresh bool) *Type {
	return in.literal(TypeFlagsBooleanLiteral, strconv.FormatBool(v), fresh)
}

func (in *interner) object(o *ObjectType) *Type {
	return in.newType(&Type{flags: TypeFlagsObject, object: o})
}

// regular maps fresh literal types to their regular counterpart.
func (in *interner) regular(t *Type) *Type {
	if t.fresh {
		return in.literal(t.flags, t.value, false)
	}
	return t
}

// regularDeep applies regular to a type and the members of a union.
func (in *interner) regularDeep(t *Type) *Type {
	if t.flags&TypeFlagsUnion == 0 {
		return in.regular(t)
	}
	members := make([]*Type, len(t.types))
	for i, m := range t.types {
		members[i] = in.regular(m)
	}
	return in.union(members...)
}

// widen replaces fresh literal types with their primitive base type.
func (in *interner) widen(t *Type) *Type {
	switch {
	case t.fresh:
		return in.baseOf(t)
	case t.flags&TypeFlagsUnion != 0:
		changed := false
		members := make([]*Type, len(t.types))
		for i, m := range t.types {
			members[i] = in.widen(m)
			changed = changed || members[i] != m
		}
		if changed {
			return in.union(members...)
		}
	}
	return t
}

func (in *interner) baseOf(t *Type) *Type {
	switch {
	case t.flags&TypeFlagsStringLiteral != 0:
		return in.str
	case t.flags&TypeFlagsNumberLiteral != 0:
		return in.num
	case t.flags&TypeFlagsBooleanLiteral != 0:
		return in.boolean
	case t.flags&TypeFlagsBigIntLiteral != 0:
		return in.bigint
	}
	return t
}

// union builds a reduced union: nested unions are flattened, duplicates and
// never are dropped, literals are absorbed by their primitive base.
func (in *interner) union(types ...*Type) *Type {
	var flat []*Type
	var present TypeFlags
	seen := make(map[*Type]bool)
	var add func(t *Type)
	add = func(t *Type) {
		if t == nil {
			return
		}
		if t.flags&TypeFlagsUnion != 0 {
			for _, m := range t.types {
				add(m)
			}
			return
		}
		if t.flags&TypeFlagsNever != 0 || seen[t] {
			return
		}
		seen[t] = true
		present |= t.flags
		flat = append(flat, t)
	}
	for _, t := range types {
		add(t)
	}

	switch {
	case present&TypeFlagsAny != 0:
		return in.any
	case present&TypeFlagsUnknown != 0:
		return in.unknown
	case len(flat) == 0:
		return in.never
	}

	reduced := flat[:0]
	for _, t := range flat {
		if t.flags&TypeFlagsLiteral != 0 && present&in.baseOf(t).flags != 0 {
			continue
		}
		if t.fresh && seen[in.regular(t)] {
			continue
		}
		reduced = append(reduced, t)
	}
	if len(reduced) == 1 {
		return reduced[0]
	}
	slices.SortFunc(reduced, func(a, b *Type) int { return a.id - b.id })
	key := typeListKey(reduced)
	if t, ok := in.unions[key]; ok {
		return t
	}
	t := in.newType(&Type{flags: TypeFlagsUnion, types: slices.Clone(reduced)})
	in.unions[key] = t
	return t
}

// intersection distributes over unions and reduces literal/primitive
// combinations: "a" & string is "a", "a" & "b" is never.
func (in *interner) intersection(types ...*Type) *Type {
	for i, t := range types {
		if t.flags&TypeFlagsUnion != 0 && len(t.types) <= 64 {
			parts := make([]*Type, 0, len(t.types))
			for _, m := range t.types {
				rest := slices.Clone(types)
				rest[i] = m
				parts = append(parts, in.intersection(rest...))
			}
			return in.union(parts...)
		}
	}

	var flat []*Type
	seen := make(map[*Type]bool)
	for _, t := range types {
		if t == nil {
			continue
		}
		members := []*Type{t}
		if t.flags&TypeFlagsIntersection != 0 {
			members = t.types
		}
		for _, m := range members {
			m = in.regular(m)
			switch {
			case m.flags&TypeFlagsNever != 0:
				return in.never
			case m.flags&TypeFlagsAny != 0:
				return in.any
			case m.flags&TypeFlagsUnknown != 0 || seen[m]:
				continue
			}
			seen[m] = true
			flat = append(flat, m)
		}
	}

	var literal *Type
	for _, t := range flat {
		if t.flags&TypeFlagsLiteral == 0 {
			continue
		}
		if literal != nil && literal != t {
			return in.never
		}
		literal = t
	}
	if literal != nil {
		reduced := flat[:0]
		for _, t := range flat {
			if t != literal && t == in.baseOf(literal) {
				continue
			}
			if t != literal && t.flags&TypeFlagsPrimitiveBases != 0 {
				return in.never
			}
			reduced = append(reduced, t)
		}
		flat = reduced
	}

	switch len(flat) {
	case 0:
		return in.unknown
	case 1:
		return flat[0]
	}
	slices.SortFunc(flat, func(a, b *Type) int { return a.id - b.id })
	key := typeListKey(flat)
	if t, ok := in.inters[key]; ok {
		return t
	}
	t := in.newType(&Type{flags: TypeFlagsIntersection, types: slices.Clone(flat)})
	in.inters[key] = t
	return t
}

func typeListKey(types []*Type) string {
	var b strings.Builder
	for i, t := range types {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(t.id))
	}
	return b.String()
}

// normalizeNumber formats a numeric literal the way JavaScript stringifies it.
func normalizeNumber(text string) string {
	clean := strings.ReplaceAll(text, "_", "")
	if strings.HasSuffix(clean, "n") {
		return strings.TrimSuffix(clean, "n")
	}
	lower := strings.ToLower(clean)
	if len(lower) > 2 && lower[0] == '0' && strings.ContainsRune("xob", rune(lower[1])) {
		base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[lower[1]]
		if v, err := strconv.ParseInt(lower[2:], base, 64); err == nil {
			return strconv.FormatInt(v, 10)
		}
		return clean
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return clean
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
