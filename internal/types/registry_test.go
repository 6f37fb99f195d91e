package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarTypesAreCopy(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, ClassCopy, reg.ClassOf(&Int{Bits: 64, Signed: true}))
	assert.Equal(t, ClassCopy, reg.ClassOf(&Bool{}))
	assert.Equal(t, ClassCopy, reg.ClassOf(&Unit{}))
}

func TestReferenceClasses(t *testing.T) {
	reg := NewRegistry()
	elem := &Int{Bits: 64, Signed: true}

	assert.Equal(t, ClassCopy, reg.ClassOf(&Ref{Elem: elem}), "shared references copy freely")
	assert.Equal(t, ClassMove, reg.ClassOf(&Ref{Elem: elem, Mutable: true}), "exclusive references are move-only")
}

func TestStructClassDefaultsToMove(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, ClassMove, reg.ClassOf(&Struct{Name: "Buffer"}))

	reg.DeclareStruct("Point", ClassCopy)
	assert.Equal(t, ClassCopy, reg.ClassOf(&Struct{Name: "Point"}))
}

func TestTupleClassIsElementwise(t *testing.T) {
	reg := NewRegistry()

	allCopy := &Tuple{Elems: []Type{&Int{Bits: 32, Signed: true}, &Bool{}}}
	assert.Equal(t, ClassCopy, reg.ClassOf(allCopy))

	withMove := &Tuple{Elems: []Type{&Int{Bits: 32, Signed: true}, &Str{}}}
	assert.Equal(t, ClassMove, reg.ClassOf(withMove))
}

func TestInternReturnsCanonicalInstance(t *testing.T) {
	reg := NewRegistry()

	a := reg.Intern(&Ref{Elem: &Int{Bits: 64, Signed: true}})
	b := reg.Intern(&Ref{Elem: &Int{Bits: 64, Signed: true}})
	assert.Same(t, a, b)
}

func TestTypeJSONRoundTrip(t *testing.T) {
	cases := []Type{
		&Int{Bits: 64, Signed: true},
		&Ref{Elem: &Struct{Name: "Buffer"}, Mutable: true},
		&Tuple{Elems: []Type{&Bool{}, &Str{}}},
		&Func{Params: []Type{&Int{Bits: 32, Signed: false}}, Ret: &Unit{}},
	}

	for _, tc := range cases {
		data, err := MarshalType(tc)
		assert.NoError(t, err)

		decoded, err := UnmarshalType(data)
		assert.NoError(t, err)
		assert.True(t, Equal(tc, decoded), "round trip changed %s into %s", tc, decoded)
	}
}
