package types

import (
	"encoding/json"
	"fmt"
)

// The front-end hands typed ASTs to the middle-end as JSON. Types are
// encoded as a tagged envelope so the closed union round-trips without
// reflection tricks.

type typeEnvelope struct {
	Kind    string          `json:"kind"`
	Bits    int             `json:"bits,omitempty"`
	Signed  bool            `json:"signed,omitempty"`
	Mutable bool            `json:"mutable,omitempty"`
	Name    string          `json:"name,omitempty"`
	Elem    *typeEnvelope   `json:"elem,omitempty"`
	Elems   []*typeEnvelope `json:"elems,omitempty"`
	Params  []*typeEnvelope `json:"params,omitempty"`
	Ret     *typeEnvelope   `json:"ret,omitempty"`
}

func encodeType(t Type) *typeEnvelope {
	switch t := t.(type) {
	case *Int:
		return &typeEnvelope{Kind: "int", Bits: t.Bits, Signed: t.Signed}
	case *Bool:
		return &typeEnvelope{Kind: "bool"}
	case *Str:
		return &typeEnvelope{Kind: "str"}
	case *Unit:
		return &typeEnvelope{Kind: "unit"}
	case *Never:
		return &typeEnvelope{Kind: "never"}
	case *Ref:
		return &typeEnvelope{Kind: "ref", Mutable: t.Mutable, Elem: encodeType(t.Elem)}
	case *Pointer:
		return &typeEnvelope{Kind: "ptr", Elem: encodeType(t.Elem)}
	case *Array:
		return &typeEnvelope{Kind: "array", Elem: encodeType(t.Elem)}
	case *Tuple:
		env := &typeEnvelope{Kind: "tuple"}
		for _, e := range t.Elems {
			env.Elems = append(env.Elems, encodeType(e))
		}
		return env
	case *Struct:
		return &typeEnvelope{Kind: "struct", Name: t.Name}
	case *Func:
		env := &typeEnvelope{Kind: "fn", Ret: encodeType(t.Ret)}
		for _, p := range t.Params {
			env.Params = append(env.Params, encodeType(p))
		}
		return env
	default:
		return &typeEnvelope{Kind: "unit"}
	}
}

func decodeType(env *typeEnvelope) (Type, error) {
	if env == nil {
		return nil, fmt.Errorf("missing type envelope")
	}
	switch env.Kind {
	case "int":
		return &Int{Bits: env.Bits, Signed: env.Signed}, nil
	case "bool":
		return &Bool{}, nil
	case "str":
		return &Str{}, nil
	case "unit":
		return &Unit{}, nil
	case "never":
		return &Never{}, nil
	case "ref":
		elem, err := decodeType(env.Elem)
		if err != nil {
			return nil, err
		}
		return &Ref{Elem: elem, Mutable: env.Mutable}, nil
	case "ptr":
		elem, err := decodeType(env.Elem)
		if err != nil {
			return nil, err
		}
		return &Pointer{Elem: elem}, nil
	case "array":
		elem, err := decodeType(env.Elem)
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem}, nil
	case "tuple":
		t := &Tuple{}
		for _, e := range env.Elems {
			elem, err := decodeType(e)
			if err != nil {
				return nil, err
			}
			t.Elems = append(t.Elems, elem)
		}
		return t, nil
	case "struct":
		return &Struct{Name: env.Name}, nil
	case "fn":
		f := &Func{}
		for _, p := range env.Params {
			param, err := decodeType(p)
			if err != nil {
				return nil, err
			}
			f.Params = append(f.Params, param)
		}
		ret, err := decodeType(env.Ret)
		if err != nil {
			return nil, err
		}
		f.Ret = ret
		return f, nil
	default:
		return nil, fmt.Errorf("unknown type kind %q", env.Kind)
	}
}

// MarshalType encodes a type into its JSON envelope.
func MarshalType(t Type) (json.RawMessage, error) {
	return json.Marshal(encodeType(t))
}

// UnmarshalType decodes a type from its JSON envelope.
func UnmarshalType(data []byte) (Type, error) {
	var env typeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return decodeType(&env)
}
