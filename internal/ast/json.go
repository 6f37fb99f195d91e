package ast

import (
	"encoding/json"
	"fmt"

	"sable/internal/types"
)

// The front-end serializes type-checked modules as JSON. Statements
// and expressions share one tagged envelope; types use the codec from
// the types package.

type moduleJSON struct {
	Name      string          `json:"name"`
	Structs   []*structJSON   `json:"structs,omitempty"`
	Functions []*functionJSON `json:"functions"`
}

type structJSON struct {
	Name string `json:"name"`
	Copy bool   `json:"copy,omitempty"`
	Span Span   `json:"span"`
}

type functionJSON struct {
	Name   string          `json:"name"`
	Params []*paramJSON    `json:"params,omitempty"`
	Return json.RawMessage `json:"return"`
	Body   *nodeJSON       `json:"body"`
	Span   Span            `json:"span"`
}

type paramJSON struct {
	Name    string          `json:"name"`
	Type    json.RawMessage `json:"type"`
	Mutable bool            `json:"mutable,omitempty"`
	Span    Span            `json:"span"`
}

type armJSON struct {
	Value int64     `json:"value"`
	Body  *nodeJSON `json:"body"`
	Span  Span      `json:"span"`
}

// nodeJSON is the shared envelope for statements and expressions.
type nodeJSON struct {
	Kind    string          `json:"kind"`
	Name    string          `json:"name,omitempty"`
	Type    json.RawMessage `json:"type,omitempty"`
	Mutable bool            `json:"mutable,omitempty"`
	Op      string          `json:"op,omitempty"`
	Int     int64           `json:"int,omitempty"`
	Bool    bool            `json:"bool,omitempty"`
	Str     string          `json:"str,omitempty"`
	Index   uint32          `json:"index,omitempty"`

	Target *nodeJSON   `json:"target,omitempty"`
	Value  *nodeJSON   `json:"value,omitempty"`
	Cond   *nodeJSON   `json:"cond,omitempty"`
	X      *nodeJSON   `json:"x,omitempty"`
	Left   *nodeJSON   `json:"left,omitempty"`
	Right  *nodeJSON   `json:"right,omitempty"`
	At     *nodeJSON   `json:"at,omitempty"`
	Then   *nodeJSON   `json:"then,omitempty"`
	Else   *nodeJSON   `json:"else,omitempty"`
	Body   *nodeJSON   `json:"body,omitempty"`
	Items  []*nodeJSON `json:"items,omitempty"`
	Arms   []*armJSON  `json:"arms,omitempty"`

	Span Span `json:"span"`
}

var binOpByName = map[string]BinOp{}
var unOpByName = map[string]UnOp{"-": Neg, "!": Not}

func init() {
	for op := Add; op <= Ge; op++ {
		binOpByName[op.String()] = op
	}
}

// EncodeModule serializes a typed module to its interchange form.
func EncodeModule(m *Module) ([]byte, error) {
	out := &moduleJSON{Name: m.Name}
	for _, s := range m.Structs {
		out.Structs = append(out.Structs, &structJSON{Name: s.Name, Copy: s.Copy, Span: s.Span})
	}
	for _, f := range m.Functions {
		fj, err := encodeFunction(f)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, fj)
	}
	return json.MarshalIndent(out, "", "  ")
}

// DecodeModule parses a typed module from its interchange form.
func DecodeModule(data []byte) (*Module, error) {
	var in moduleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("malformed module: %w", err)
	}
	m := &Module{Name: in.Name}
	for _, s := range in.Structs {
		m.Structs = append(m.Structs, &StructDecl{Name: s.Name, Copy: s.Copy, Span: s.Span})
	}
	for _, fj := range in.Functions {
		f, err := decodeFunction(fj)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", fj.Name, err)
		}
		m.Functions = append(m.Functions, f)
	}
	return m, nil
}

func encodeFunction(f *Function) (*functionJSON, error) {
	ret, err := types.MarshalType(f.Return)
	if err != nil {
		return nil, err
	}
	fj := &functionJSON{Name: f.Name, Return: ret, Span: f.Span}
	for _, p := range f.Params {
		ty, err := types.MarshalType(p.Type)
		if err != nil {
			return nil, err
		}
		fj.Params = append(fj.Params, &paramJSON{Name: p.Name, Type: ty, Mutable: p.Mutable, Span: p.Span})
	}
	body, err := encodeBlock(f.Body)
	if err != nil {
		return nil, err
	}
	fj.Body = body
	return fj, nil
}

func decodeFunction(fj *functionJSON) (*Function, error) {
	ret, err := types.UnmarshalType(fj.Return)
	if err != nil {
		return nil, err
	}
	f := &Function{Name: fj.Name, Return: ret, Span: fj.Span}
	for _, p := range fj.Params {
		ty, err := types.UnmarshalType(p.Type)
		if err != nil {
			return nil, err
		}
		f.Params = append(f.Params, &Param{Name: p.Name, Type: ty, Mutable: p.Mutable, Span: p.Span})
	}
	body, err := decodeBlock(fj.Body)
	if err != nil {
		return nil, err
	}
	f.Body = body
	return f, nil
}

func encodeBlock(b *Block) (*nodeJSON, error) {
	if b == nil {
		return nil, nil
	}
	out := &nodeJSON{Kind: "block", Span: b.Span}
	for _, s := range b.Stmts {
		sj, err := encodeStmt(s)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, sj)
	}
	return out, nil
}

func decodeBlock(n *nodeJSON) (*Block, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != "block" {
		return nil, fmt.Errorf("expected block, got %q", n.Kind)
	}
	b := &Block{Span: n.Span}
	for _, item := range n.Items {
		s, err := decodeStmt(item)
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	return b, nil
}

func encodeStmt(s Stmt) (*nodeJSON, error) {
	switch s := s.(type) {
	case *LetStmt:
		ty, err := types.MarshalType(s.Type)
		if err != nil {
			return nil, err
		}
		value, err := encodeExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "let", Name: s.Name, Type: ty, Mutable: s.Mutable, Value: value, Span: s.Span}, nil
	case *AssignStmt:
		target, err := encodeExpr(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := encodeExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "assign", Target: target, Value: value, Span: s.Span}, nil
	case *ExprStmt:
		x, err := encodeExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "expr", X: x, Span: s.Span}, nil
	case *ReturnStmt:
		out := &nodeJSON{Kind: "return", Span: s.Span}
		if s.Value != nil {
			value, err := encodeExpr(s.Value)
			if err != nil {
				return nil, err
			}
			out.Value = value
		}
		return out, nil
	case *IfStmt:
		cond, err := encodeExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := encodeBlock(s.Then)
		if err != nil {
			return nil, err
		}
		out := &nodeJSON{Kind: "if", Cond: cond, Then: then, Span: s.Span}
		if s.Else != nil {
			els, err := encodeStmt(s.Else)
			if err != nil {
				return nil, err
			}
			out.Else = els
		}
		return out, nil
	case *WhileStmt:
		cond, err := encodeExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := encodeBlock(s.Body)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "while", Cond: cond, Body: body, Span: s.Span}, nil
	case *LoopStmt:
		body, err := encodeBlock(s.Body)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "loop", Body: body, Span: s.Span}, nil
	case *BreakStmt:
		return &nodeJSON{Kind: "break", Span: s.Span}, nil
	case *ContinueStmt:
		return &nodeJSON{Kind: "continue", Span: s.Span}, nil
	case *MatchStmt:
		disc, err := encodeExpr(s.Disc)
		if err != nil {
			return nil, err
		}
		out := &nodeJSON{Kind: "match", X: disc, Span: s.Span}
		for _, arm := range s.Arms {
			body, err := encodeBlock(arm.Body)
			if err != nil {
				return nil, err
			}
			out.Arms = append(out.Arms, &armJSON{Value: arm.Value, Body: body, Span: arm.Span})
		}
		if s.Default != nil {
			def, err := encodeBlock(s.Default)
			if err != nil {
				return nil, err
			}
			out.Body = def
		}
		return out, nil
	case *Block:
		return encodeBlock(s)
	default:
		return nil, fmt.Errorf("unknown statement %T", s)
	}
}

func decodeStmt(n *nodeJSON) (Stmt, error) {
	switch n.Kind {
	case "let":
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &LetStmt{Name: n.Name, Type: ty, Mutable: n.Mutable, Value: value, Span: n.Span}, nil
	case "assign":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{Target: target, Value: value, Span: n.Span}, nil
	case "expr":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: x, Span: n.Span}, nil
	case "return":
		out := &ReturnStmt{Span: n.Span}
		if n.Value != nil {
			value, err := decodeExpr(n.Value)
			if err != nil {
				return nil, err
			}
			out.Value = value
		}
		return out, nil
	case "if":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(n.Then)
		if err != nil {
			return nil, err
		}
		out := &IfStmt{Cond: cond, Then: then, Span: n.Span}
		if n.Else != nil {
			els, err := decodeStmt(n.Else)
			if err != nil {
				return nil, err
			}
			out.Else = els
		}
		return out, nil
	case "while":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: cond, Body: body, Span: n.Span}, nil
	case "loop":
		body, err := decodeBlock(n.Body)
		if err != nil {
			return nil, err
		}
		return &LoopStmt{Body: body, Span: n.Span}, nil
	case "break":
		return &BreakStmt{Span: n.Span}, nil
	case "continue":
		return &ContinueStmt{Span: n.Span}, nil
	case "match":
		disc, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		out := &MatchStmt{Disc: disc, Span: n.Span}
		for _, arm := range n.Arms {
			body, err := decodeBlock(arm.Body)
			if err != nil {
				return nil, err
			}
			out.Arms = append(out.Arms, &MatchArm{Value: arm.Value, Body: body, Span: arm.Span})
		}
		if n.Body != nil {
			def, err := decodeBlock(n.Body)
			if err != nil {
				return nil, err
			}
			out.Default = def
		}
		return out, nil
	case "block":
		return decodeBlock(n)
	default:
		return nil, fmt.Errorf("unknown statement kind %q", n.Kind)
	}
}

func encodeExpr(e Expr) (*nodeJSON, error) {
	switch e := e.(type) {
	case *IntLit:
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "int", Int: e.Value, Type: ty, Span: e.Span}, nil
	case *BoolLit:
		return &nodeJSON{Kind: "bool", Bool: e.Value, Span: e.Span}, nil
	case *StrLit:
		return &nodeJSON{Kind: "str", Str: e.Value, Span: e.Span}, nil
	case *UnitLit:
		return &nodeJSON{Kind: "unit", Span: e.Span}, nil
	case *VarRef:
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "var", Name: e.Name, Type: ty, Span: e.Span}, nil
	case *BinaryExpr:
		left, err := encodeExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeExpr(e.Right)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "binary", Op: e.Op.String(), Left: left, Right: right, Type: ty, Span: e.Span}, nil
	case *UnaryExpr:
		x, err := encodeExpr(e.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "unary", Op: e.Op.String(), X: x, Type: ty, Span: e.Span}, nil
	case *CallExpr:
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		out := &nodeJSON{Kind: "call", Name: e.Callee, Type: ty, Span: e.Span}
		for _, arg := range e.Args {
			aj, err := encodeExpr(arg)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, aj)
		}
		return out, nil
	case *RefExpr:
		target, err := encodeExpr(e.Target)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "ref", Target: target, Mutable: e.Mutable, Type: ty, Span: e.Span}, nil
	case *DerefExpr:
		x, err := encodeExpr(e.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "deref", X: x, Type: ty, Span: e.Span}, nil
	case *FieldExpr:
		x, err := encodeExpr(e.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "field", X: x, Index: e.Index, Type: ty, Span: e.Span}, nil
	case *IndexExpr:
		x, err := encodeExpr(e.X)
		if err != nil {
			return nil, err
		}
		at, err := encodeExpr(e.Index)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "index", X: x, At: at, Type: ty, Span: e.Span}, nil
	case *MoveExpr:
		x, err := encodeExpr(e.X)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "move", X: x, Span: e.Span}, nil
	case *CastExpr:
		x, err := encodeExpr(e.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		return &nodeJSON{Kind: "cast", X: x, Type: ty, Span: e.Span}, nil
	case *TupleExpr:
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		out := &nodeJSON{Kind: "tuple", Type: ty, Span: e.Span}
		for _, elem := range e.Elems {
			ej, err := encodeExpr(elem)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, ej)
		}
		return out, nil
	case *StructExpr:
		ty, err := types.MarshalType(e.Type)
		if err != nil {
			return nil, err
		}
		out := &nodeJSON{Kind: "struct", Name: e.Name, Type: ty, Span: e.Span}
		for _, field := range e.Fields {
			fj, err := encodeExpr(field)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, fj)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown expression %T", e)
	}
}

func decodeExpr(n *nodeJSON) (Expr, error) {
	if n == nil {
		return nil, fmt.Errorf("missing expression")
	}
	switch n.Kind {
	case "int":
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &IntLit{Value: n.Int, Type: ty, Span: n.Span}, nil
	case "bool":
		return &BoolLit{Value: n.Bool, Span: n.Span}, nil
	case "str":
		return &StrLit{Value: n.Str, Span: n.Span}, nil
	case "unit":
		return &UnitLit{Span: n.Span}, nil
	case "var":
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &VarRef{Name: n.Name, Type: ty, Span: n.Span}, nil
	case "binary":
		op, ok := binOpByName[n.Op]
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", n.Op)
		}
		left, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right, Type: ty, Span: n.Span}, nil
	case "unary":
		op, ok := unOpByName[n.Op]
		if !ok {
			return nil, fmt.Errorf("unknown unary operator %q", n.Op)
		}
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x, Type: ty, Span: n.Span}, nil
	case "call":
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		out := &CallExpr{Callee: n.Name, Type: ty, Span: n.Span}
		for _, arg := range n.Items {
			a, err := decodeExpr(arg)
			if err != nil {
				return nil, err
			}
			out.Args = append(out.Args, a)
		}
		return out, nil
	case "ref":
		target, err := decodeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &RefExpr{Target: target, Mutable: n.Mutable, Type: ty, Span: n.Span}, nil
	case "deref":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &DerefExpr{X: x, Type: ty, Span: n.Span}, nil
	case "field":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &FieldExpr{X: x, Index: n.Index, Type: ty, Span: n.Span}, nil
	case "index":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		at, err := decodeExpr(n.At)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &IndexExpr{X: x, Index: at, Type: ty, Span: n.Span}, nil
	case "move":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &MoveExpr{X: x, Span: n.Span}, nil
	case "cast":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		return &CastExpr{X: x, Type: ty, Span: n.Span}, nil
	case "tuple":
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		out := &TupleExpr{Type: ty, Span: n.Span}
		for _, elem := range n.Items {
			e, err := decodeExpr(elem)
			if err != nil {
				return nil, err
			}
			out.Elems = append(out.Elems, e)
		}
		return out, nil
	case "struct":
		ty, err := types.UnmarshalType(n.Type)
		if err != nil {
			return nil, err
		}
		out := &StructExpr{Name: n.Name, Type: ty, Span: n.Span}
		for _, field := range n.Items {
			f, err := decodeExpr(field)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", n.Kind)
	}
}
