package types

import "sync"

// Class is the ownership classification the type checker assigns to
// every type: Copy types are duplicated freely on use, Move types
// transfer ownership.
type Class uint8

const (
	ClassCopy Class = iota
	ClassMove
)

func (c Class) String() string {
	if c == ClassCopy {
		return "copy"
	}
	return "move"
}

// Registry is the shared, interned type table for a compilation unit.
// It is populated before the middle-end runs and is read-only during
// the per-function pipelines, so concurrent workers may share one
// instance without synchronization beyond the intern cache.
type Registry struct {
	mu       sync.RWMutex
	structs  map[string]Class
	interned map[string]Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		structs:  make(map[string]Class),
		interned: make(map[string]Type),
	}
}

// DeclareStruct records the Copy/Move class of a named struct. Structs
// never seen here default to Move.
func (r *Registry) DeclareStruct(name string, class Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.structs[name] = class
}

// Intern returns the canonical instance for a structurally equal type,
// so type identity checks can compare cheaply.
func (r *Registry) Intern(t Type) Type {
	key := t.String()
	r.mu.RLock()
	existing, ok := r.interned[key]
	r.mu.RUnlock()
	if ok {
		return existing
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.interned[key]; ok {
		return existing
	}
	r.interned[key] = t
	return t
}

// ClassOf computes the ownership class of a type. Scalars, shared
// references, raw pointers, and function values are Copy; strings,
// arrays, and exclusive references are Move; tuples are Copy only if
// every element is; structs use their declared class.
func (r *Registry) ClassOf(t Type) Class {
	switch t := t.(type) {
	case *Int, *Bool, *Unit, *Never, *Pointer, *Func:
		return ClassCopy
	case *Ref:
		if t.Mutable {
			return ClassMove
		}
		return ClassCopy
	case *Str, *Array:
		return ClassMove
	case *Tuple:
		for _, e := range t.Elems {
			if r.ClassOf(e) == ClassMove {
				return ClassMove
			}
		}
		return ClassCopy
	case *Struct:
		r.mu.RLock()
		defer r.mu.RUnlock()
		if class, ok := r.structs[t.Name]; ok {
			return class
		}
		return ClassMove
	default:
		return ClassMove
	}
}
