package lower

import (
	"fmt"

	"sable/internal/ast"
	"sable/internal/mir"
	"sable/internal/types"
)

// Function lowers a type-checked function body into MIR. Lowering
// assigns a stable slot to every declared variable and sub-expression
// temporary, numbers blocks in deterministic pre-order, and shapes
// every loop as header/body/latch/exit with the back edge on the
// latch.
func Function(fn *ast.Function, reg *types.Registry) (*mir.Function, error) {
	b := newBuilder(fn, reg)
	if err := b.lowerBlock(fn.Body); err != nil {
		return nil, err
	}
	b.emitScopeExitsFrom(0, fn.Span)
	b.finish(fn.Span)
	if err := b.fn.Validate(); err != nil {
		return nil, err
	}
	return b.fn, nil
}

type scope struct {
	names map[string]mir.Local
	order []mir.Local // declaration order, for reverse-order exits
}

type loopFrame struct {
	latch mir.BlockID // continue target
	exit  mir.BlockID // break target
	depth int         // scope depth at loop entry
}

type builder struct {
	fn     *mir.Function
	reg    *types.Registry
	cur    *mir.BasicBlock
	scopes []*scope
	loops  []loopFrame
}

func newBuilder(fn *ast.Function, reg *types.Registry) *builder {
	f := &mir.Function{
		Name:   fn.Name,
		Params: len(fn.Params),
		Span:   fn.Span,
	}
	f.Locals = append(f.Locals, mir.LocalDecl{
		Type:  fn.Return,
		Class: reg.ClassOf(fn.Return),
	})

	b := &builder{fn: f, reg: reg}
	b.pushScope()
	for _, p := range fn.Params {
		local := b.addLocal(p.Name, p.Type, p.Mutable)
		b.bind(p.Name, local)
	}
	b.cur = b.newBlock()
	return b
}

func (b *builder) newBlock() *mir.BasicBlock {
	blk := &mir.BasicBlock{ID: mir.BlockID(len(b.fn.Blocks))}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

func (b *builder) emit(s mir.Statement) {
	b.cur.Stmts = append(b.cur.Stmts, s)
}

func (b *builder) terminate(t mir.Terminator) {
	if b.cur.Term == nil {
		b.cur.Term = t
	}
}

func (b *builder) addLocal(name string, t types.Type, mutable bool) mir.Local {
	local := mir.Local(len(b.fn.Locals))
	b.fn.Locals = append(b.fn.Locals, mir.LocalDecl{
		Name:    name,
		Type:    t,
		Class:   b.reg.ClassOf(t),
		Mutable: mutable,
	})
	return local
}

func (b *builder) temp(t types.Type) mir.Local {
	return b.addLocal("", t, false)
}

func (b *builder) pushScope() {
	b.scopes = append(b.scopes, &scope{names: make(map[string]mir.Local)})
}

func (b *builder) bind(name string, local mir.Local) {
	top := b.scopes[len(b.scopes)-1]
	top.names[name] = local
	top.order = append(top.order, local)
}

func (b *builder) lookup(name string, sp ast.Span) (mir.Local, error) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if local, ok := b.scopes[i].names[name]; ok {
			return local, nil
		}
	}
	return 0, &Error{Fn: b.fn.Name, Msg: fmt.Sprintf("unresolved variable %q reached lowering", name), Span: sp}
}

// emitScopeExit ends the borrows and lifetimes of one scope's locals
// in reverse declaration order.
func (b *builder) emitScopeExit(s *scope, sp ast.Span) {
	for i := len(s.order) - 1; i >= 0; i-- {
		local := s.order[i]
		decl := b.fn.Local(local)
		switch {
		case types.IsRef(decl.Type):
			b.emit(&mir.EndBorrow{Ref: local, Sp: sp})
		case decl.Class == types.ClassMove:
			b.emit(&mir.Drop{Place: mir.PlaceOf(local), Sp: sp})
		}
	}
}

// emitScopeExitsFrom emits exits for every scope above depth without
// popping, for early-exit paths (break, continue, return).
func (b *builder) emitScopeExitsFrom(depth int, sp ast.Span) {
	for i := len(b.scopes) - 1; i >= depth; i-- {
		b.emitScopeExit(b.scopes[i], sp)
	}
}

func (b *builder) popScope(sp ast.Span) {
	top := b.scopes[len(b.scopes)-1]
	b.emitScopeExit(top, sp)
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// finish terminates the trailing block and marks dead continuation
// blocks Unreachable.
func (b *builder) finish(sp ast.Span) {
	if b.cur.Term == nil {
		if types.IsUnit(b.fn.Locals[mir.ReturnLocal].Type) {
			b.emit(&mir.Load{
				Dst: mir.PlaceOf(mir.ReturnLocal),
				Src: mir.ConstOperand(mir.UnitConst()),
				Sp:  sp,
			})
			b.cur.Term = &mir.Return{Sp: sp}
		}
	}
	for _, blk := range b.fn.Blocks {
		if blk.Term == nil {
			blk.Term = &mir.Unreachable{Sp: sp}
		}
	}
}

func (b *builder) lowerBlock(blk *ast.Block) error {
	b.pushScope()
	for _, s := range blk.Stmts {
		if err := b.lowerStmt(s); err != nil {
			return err
		}
	}
	b.popScope(blk.Span)
	return nil
}

func (b *builder) lowerStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.LetStmt:
		// The value is computed before the binding becomes visible.
		value := s.Value
		place, err := b.prepareInto(value)
		if err != nil {
			return err
		}
		local := b.addLocal(s.Name, s.Type, s.Mutable)
		b.bind(s.Name, local)
		return b.storeInto(mir.PlaceOf(local), place, value, s.Span)

	case *ast.AssignStmt:
		target, err := b.lowerPlace(s.Target)
		if err != nil {
			return err
		}
		return b.lowerExprInto(target, s.Value, s.Span)

	case *ast.ExprStmt:
		_, err := b.lowerExpr(s.Expr)
		return err

	case *ast.ReturnStmt:
		if s.Value != nil {
			if err := b.lowerExprInto(mir.PlaceOf(mir.ReturnLocal), s.Value, s.Span); err != nil {
				return err
			}
		} else if types.IsUnit(b.fn.Locals[mir.ReturnLocal].Type) {
			b.emit(&mir.Load{Dst: mir.PlaceOf(mir.ReturnLocal), Src: mir.ConstOperand(mir.UnitConst()), Sp: s.Span})
		}
		b.emitScopeExitsFrom(0, s.Span)
		b.terminate(&mir.Return{Sp: s.Span})
		b.cur = b.newBlock()
		return nil

	case *ast.IfStmt:
		return b.lowerIf(s)

	case *ast.WhileStmt:
		return b.lowerLoop(s.Cond, s.Body, s.Span)

	case *ast.LoopStmt:
		return b.lowerLoop(nil, s.Body, s.Span)

	case *ast.BreakStmt:
		if len(b.loops) == 0 {
			return &Error{Fn: b.fn.Name, Msg: "break outside a loop reached lowering", Span: s.Span}
		}
		frame := b.loops[len(b.loops)-1]
		b.emitScopeExitsFrom(frame.depth, s.Span)
		b.terminate(&mir.Goto{Target: frame.exit, Sp: s.Span})
		b.cur = b.newBlock()
		return nil

	case *ast.ContinueStmt:
		if len(b.loops) == 0 {
			return &Error{Fn: b.fn.Name, Msg: "continue outside a loop reached lowering", Span: s.Span}
		}
		frame := b.loops[len(b.loops)-1]
		b.emitScopeExitsFrom(frame.depth, s.Span)
		b.terminate(&mir.Goto{Target: frame.latch, Sp: s.Span})
		b.cur = b.newBlock()
		return nil

	case *ast.MatchStmt:
		return b.lowerMatch(s)

	case *ast.Block:
		return b.lowerBlock(s)

	default:
		return &Error{Fn: b.fn.Name, Msg: fmt.Sprintf("unexpected statement %T", s), Span: s.NodeSpan()}
	}
}

func (b *builder) lowerIf(s *ast.IfStmt) error {
	cond, err := b.lowerExpr(s.Cond)
	if err != nil {
		return err
	}

	thenBlk := b.newBlock()
	var elseBlk *mir.BasicBlock
	if s.Else != nil {
		elseBlk = b.newBlock()
	}
	mergeBlk := b.newBlock()

	falseTarget := mergeBlk.ID
	if elseBlk != nil {
		falseTarget = elseBlk.ID
	}
	b.terminate(&mir.Branch{Cond: cond, True: thenBlk.ID, False: falseTarget, Sp: s.Span})

	b.cur = thenBlk
	if err := b.lowerBlock(s.Then); err != nil {
		return err
	}
	b.terminate(&mir.Goto{Target: mergeBlk.ID, Sp: s.Span})

	if elseBlk != nil {
		b.cur = elseBlk
		if err := b.lowerStmt(s.Else); err != nil {
			return err
		}
		b.terminate(&mir.Goto{Target: mergeBlk.ID, Sp: s.Span})
	}

	b.cur = mergeBlk
	return nil
}

// lowerLoop shapes both while and bare loops as the
// header/body/latch/exit quartet. A nil condition means loop-forever.
func (b *builder) lowerLoop(cond ast.Expr, body *ast.Block, sp ast.Span) error {
	header := b.newBlock()
	bodyBlk := b.newBlock()
	latch := b.newBlock()
	exit := b.newBlock()

	b.terminate(&mir.Goto{Target: header.ID, Sp: sp})

	b.cur = header
	if cond != nil {
		condOp, err := b.lowerExpr(cond)
		if err != nil {
			return err
		}
		b.terminate(&mir.Branch{Cond: condOp, True: bodyBlk.ID, False: exit.ID, Sp: sp})
	} else {
		b.terminate(&mir.Goto{Target: bodyBlk.ID, Sp: sp})
	}

	b.loops = append(b.loops, loopFrame{latch: latch.ID, exit: exit.ID, depth: len(b.scopes)})
	b.cur = bodyBlk
	if err := b.lowerBlock(body); err != nil {
		return err
	}
	b.terminate(&mir.Goto{Target: latch.ID, Sp: sp})
	b.loops = b.loops[:len(b.loops)-1]

	// The latch carries the loop's single back edge.
	latch.Term = &mir.Goto{Target: header.ID, Sp: sp}

	b.cur = exit
	return nil
}

func (b *builder) lowerMatch(s *ast.MatchStmt) error {
	disc, err := b.lowerExpr(s.Disc)
	if err != nil {
		return err
	}

	armBlks := make([]*mir.BasicBlock, len(s.Arms))
	cases := make([]mir.SwitchCase, len(s.Arms))
	for i, arm := range s.Arms {
		armBlks[i] = b.newBlock()
		cases[i] = mir.SwitchCase{Value: arm.Value, Target: armBlks[i].ID}
	}
	var defaultBlk *mir.BasicBlock
	if s.Default != nil {
		defaultBlk = b.newBlock()
	}
	mergeBlk := b.newBlock()

	otherwise := mergeBlk.ID
	if defaultBlk != nil {
		otherwise = defaultBlk.ID
	}
	b.terminate(&mir.Switch{Disc: disc, Cases: cases, Otherwise: otherwise, Sp: s.Span})

	for i, arm := range s.Arms {
		b.cur = armBlks[i]
		if err := b.lowerBlock(arm.Body); err != nil {
			return err
		}
		b.terminate(&mir.Goto{Target: mergeBlk.ID, Sp: arm.Span})
	}
	if defaultBlk != nil {
		b.cur = defaultBlk
		if err := b.lowerBlock(s.Default); err != nil {
			return err
		}
		b.terminate(&mir.Goto{Target: mergeBlk.ID, Sp: s.Span})
	}

	b.cur = mergeBlk
	return nil
}

// prepareInto and storeInto split let-lowering so the initializer is
// evaluated before its destination slot exists, keeping slot numbering
// in source order.
func (b *builder) prepareInto(e ast.Expr) (prepared mir.Operand, err error) {
	switch e.(type) {
	case *ast.RefExpr, *ast.CallExpr:
		// Lowered directly into the destination by storeInto.
		return mir.Operand{}, nil
	default:
		return b.lowerExpr(e)
	}
}

func (b *builder) storeInto(dst mir.Place, prepared mir.Operand, e ast.Expr, sp ast.Span) error {
	switch e.(type) {
	case *ast.RefExpr, *ast.CallExpr:
		return b.lowerExprInto(dst, e, sp)
	default:
		b.emit(&mir.Load{Dst: dst, Src: prepared, Sp: sp})
		return nil
	}
}

// lowerExprInto computes an expression directly into a destination
// place, avoiding the temp-then-copy shape wherever the destination is
// a bare local. Keeping borrows un-tempered matters: the loan's region
// follows the named reference's liveness.
func (b *builder) lowerExprInto(dst mir.Place, e ast.Expr, sp ast.Span) error {
	switch e := e.(type) {
	case *ast.RefExpr:
		src, err := b.lowerPlace(e.Target)
		if err != nil {
			return err
		}
		kind := mir.BorrowShared
		if e.Mutable {
			kind = mir.BorrowExclusive
		}
		if dst.IsLocal() {
			b.emit(&mir.Borrow{Dst: dst, Src: src, Kind: kind, Sp: sp})
			return nil
		}
		tmp := b.temp(e.Type)
		b.emit(&mir.Borrow{Dst: mir.PlaceOf(tmp), Src: src, Kind: kind, Sp: sp})
		b.emit(&mir.Store{Dst: dst, Src: b.operandFor(mir.PlaceOf(tmp), e.Type), Sp: sp})
		return nil

	case *ast.BinaryExpr:
		l, err := b.lowerExpr(e.Left)
		if err != nil {
			return err
		}
		r, err := b.lowerExpr(e.Right)
		if err != nil {
			return err
		}
		op, ok := lowerBinOp(e.Op)
		if !ok {
			return &Error{Fn: b.fn.Name, Msg: fmt.Sprintf("unknown binary operator %d reached lowering", e.Op), Span: sp}
		}
		return b.assignRvalue(dst, &mir.BinaryOp{Op: op, L: l, R: r}, e.Type, sp)

	case *ast.UnaryExpr:
		x, err := b.lowerExpr(e.X)
		if err != nil {
			return err
		}
		op := mir.Neg
		if e.Op == ast.Not {
			op = mir.Not
		}
		return b.assignRvalue(dst, &mir.UnaryOp{Op: op, X: x}, e.Type, sp)

	case *ast.CastExpr:
		x, err := b.lowerExpr(e.X)
		if err != nil {
			return err
		}
		return b.assignRvalue(dst, &mir.Cast{X: x, To: e.Type}, e.Type, sp)

	case *ast.TupleExpr:
		elems, err := b.lowerExprList(e.Elems)
		if err != nil {
			return err
		}
		return b.assignRvalue(dst, &mir.Aggregate{Kind: mir.AggTuple, Elems: elems}, e.Type, sp)

	case *ast.StructExpr:
		fields, err := b.lowerExprList(e.Fields)
		if err != nil {
			return err
		}
		return b.assignRvalue(dst, &mir.Aggregate{Kind: mir.AggStruct, Name: e.Name, Elems: fields}, e.Type, sp)

	case *ast.CallExpr:
		args, err := b.lowerExprList(e.Args)
		if err != nil {
			return err
		}
		if dst.IsLocal() {
			b.emitCall(e.Callee, args, dst, sp)
			return nil
		}
		tmp := b.temp(e.Type)
		b.emitCall(e.Callee, args, mir.PlaceOf(tmp), sp)
		b.emit(&mir.Store{Dst: dst, Src: b.operandFor(mir.PlaceOf(tmp), e.Type), Sp: sp})
		return nil

	default:
		op, err := b.lowerExpr(e)
		if err != nil {
			return err
		}
		if dst.IsLocal() {
			b.emit(&mir.Load{Dst: dst, Src: op, Sp: sp})
		} else {
			b.emit(&mir.Store{Dst: dst, Src: op, Sp: sp})
		}
		return nil
	}
}

func (b *builder) assignRvalue(dst mir.Place, rv mir.Rvalue, t types.Type, sp ast.Span) error {
	if dst.IsLocal() {
		b.emit(&mir.Assign{Dst: dst, Src: rv, Sp: sp})
		return nil
	}
	tmp := b.temp(t)
	b.emit(&mir.Assign{Dst: mir.PlaceOf(tmp), Src: rv, Sp: sp})
	b.emit(&mir.Store{Dst: dst, Src: b.operandFor(mir.PlaceOf(tmp), t), Sp: sp})
	return nil
}

func (b *builder) emitCall(callee string, args []mir.Operand, dst mir.Place, sp ast.Span) {
	next := b.newBlock()
	b.terminate(&mir.Call{Func: callee, Args: args, Dst: dst, Target: next.ID, Sp: sp})
	b.cur = next
}

func (b *builder) lowerExprList(exprs []ast.Expr) ([]mir.Operand, error) {
	ops := make([]mir.Operand, 0, len(exprs))
	for _, e := range exprs {
		op, err := b.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// lowerExpr computes an expression and yields the operand carrying its
// result. Reads of Copy-class places copy; reads of Move-class places
// move.
func (b *builder) lowerExpr(e ast.Expr) (mir.Operand, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return mir.ConstOperand(mir.IntConst(e.Value)), nil
	case *ast.BoolLit:
		return mir.ConstOperand(mir.BoolConst(e.Value)), nil
	case *ast.StrLit:
		return mir.ConstOperand(mir.StrConst(e.Value)), nil
	case *ast.UnitLit:
		return mir.ConstOperand(mir.UnitConst()), nil

	case *ast.VarRef:
		local, err := b.lookup(e.Name, e.Span)
		if err != nil {
			return mir.Operand{}, err
		}
		return b.operandFor(mir.PlaceOf(local), e.Type), nil

	case *ast.MoveExpr:
		place, err := b.lowerPlace(e.X)
		if err != nil {
			return mir.Operand{}, err
		}
		return mir.MoveOperand(place), nil

	case *ast.DerefExpr, *ast.FieldExpr, *ast.IndexExpr:
		place, err := b.lowerPlace(e)
		if err != nil {
			return mir.Operand{}, err
		}
		return b.operandFor(place, e.ExprType()), nil

	case *ast.RefExpr:
		tmp := b.temp(e.Type)
		if err := b.lowerExprInto(mir.PlaceOf(tmp), e, e.Span); err != nil {
			return mir.Operand{}, err
		}
		return b.operandFor(mir.PlaceOf(tmp), e.Type), nil

	case *ast.BinaryExpr, *ast.UnaryExpr, *ast.CastExpr, *ast.TupleExpr, *ast.StructExpr, *ast.CallExpr:
		tmp := b.temp(e.ExprType())
		if err := b.lowerExprInto(mir.PlaceOf(tmp), e, e.NodeSpan()); err != nil {
			return mir.Operand{}, err
		}
		return b.operandFor(mir.PlaceOf(tmp), e.ExprType()), nil

	default:
		return mir.Operand{}, &Error{Fn: b.fn.Name, Msg: fmt.Sprintf("unexpected expression %T", e), Span: e.NodeSpan()}
	}
}

// lowerPlace resolves a place expression to a local plus projections.
// Non-place sub-expressions are materialized into temporaries first.
func (b *builder) lowerPlace(e ast.Expr) (mir.Place, error) {
	switch e := e.(type) {
	case *ast.VarRef:
		local, err := b.lookup(e.Name, e.Span)
		if err != nil {
			return mir.Place{}, err
		}
		return mir.PlaceOf(local), nil

	case *ast.DerefExpr:
		base, err := b.lowerPlace(e.X)
		if err != nil {
			return mir.Place{}, err
		}
		return base.Deref(), nil

	case *ast.FieldExpr:
		base, err := b.lowerPlace(e.X)
		if err != nil {
			return mir.Place{}, err
		}
		return base.Field(e.Index), nil

	case *ast.IndexExpr:
		base, err := b.lowerPlace(e.X)
		if err != nil {
			return mir.Place{}, err
		}
		idx, err := b.lowerExpr(e.Index)
		if err != nil {
			return mir.Place{}, err
		}
		return base.Index(b.materialize(idx, e.Index.ExprType(), e.Span)), nil

	case *ast.MoveExpr:
		return b.lowerPlace(e.X)

	default:
		// Borrowing or projecting a temporary: give the value a slot.
		op, err := b.lowerExpr(e)
		if err != nil {
			return mir.Place{}, err
		}
		return mir.PlaceOf(b.materialize(op, e.ExprType(), e.NodeSpan())), nil
	}
}

// materialize pins an operand into a bare local.
func (b *builder) materialize(op mir.Operand, t types.Type, sp ast.Span) mir.Local {
	if op.Kind != mir.OperandConst && op.Place.IsLocal() {
		return op.Place.Local
	}
	tmp := b.temp(t)
	b.emit(&mir.Load{Dst: mir.PlaceOf(tmp), Src: op, Sp: sp})
	return tmp
}

func (b *builder) operandFor(p mir.Place, t types.Type) mir.Operand {
	if b.reg.ClassOf(t) == types.ClassCopy {
		return mir.CopyOperand(p)
	}
	return mir.MoveOperand(p)
}

func lowerBinOp(op ast.BinOp) (mir.BinOp, bool) {
	switch op {
	case ast.Add:
		return mir.Add, true
	case ast.Sub:
		return mir.Sub, true
	case ast.Mul:
		return mir.Mul, true
	case ast.Div:
		return mir.Div, true
	case ast.Rem:
		return mir.Rem, true
	case ast.BitAnd:
		return mir.BitAnd, true
	case ast.BitOr:
		return mir.BitOr, true
	case ast.BitXor:
		return mir.BitXor, true
	case ast.Shl:
		return mir.Shl, true
	case ast.Shr:
		return mir.Shr, true
	case ast.Eq:
		return mir.Eq, true
	case ast.Ne:
		return mir.Ne, true
	case ast.Lt:
		return mir.Lt, true
	case ast.Le:
		return mir.Le, true
	case ast.Gt:
		return mir.Gt, true
	case ast.Ge:
		return mir.Ge, true
	default:
		return 0, false
	}
}
