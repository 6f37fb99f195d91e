package mir

// Local-level use/def extraction shared by the dataflow analyses. A
// "def" is a full overwrite of a bare local; writes through
// projections count as uses of the base local instead, since the rest
// of the value survives.

func visitOperand(o Operand, fn func(Local)) {
	if o.Kind == OperandConst {
		return
	}
	visitPlaceRead(o.Place, fn)
}

func visitPlaceRead(p Place, fn func(Local)) {
	fn(p.Local)
	for _, proj := range p.Proj {
		if proj.Kind == ProjIndex {
			fn(proj.Index)
		}
	}
}

// visitProjectedDst reports the locals a projected destination reads:
// the base local plus any index locals.
func visitProjectedDst(p Place, fn func(Local)) {
	if p.IsLocal() {
		for _, proj := range p.Proj {
			if proj.Kind == ProjIndex {
				fn(proj.Index)
			}
		}
		return
	}
	visitPlaceRead(p, fn)
}

// VisitStmtUses calls fn for every local the statement reads.
func VisitStmtUses(s Statement, fn func(Local)) {
	switch s := s.(type) {
	case *Assign:
		switch src := s.Src.(type) {
		case *Ref:
			visitPlaceRead(src.Place, fn)
		case *Len:
			visitPlaceRead(src.Place, fn)
		default:
			for _, op := range RvalueOperands(s.Src) {
				visitOperand(op, fn)
			}
		}
		visitProjectedDst(s.Dst, fn)
	case *Load:
		visitOperand(s.Src, fn)
		visitProjectedDst(s.Dst, fn)
	case *Store:
		visitOperand(s.Src, fn)
		visitProjectedDst(s.Dst, fn)
	case *Borrow:
		visitPlaceRead(s.Src, fn)
		visitProjectedDst(s.Dst, fn)
	case *Drop:
		visitPlaceRead(s.Place, fn)
	case *EndBorrow, *Nop:
		// EndBorrow must not extend the reference's liveness: regions
		// end at the last real use, not at scope exit.
	}
}

// StmtDef returns the local fully overwritten by the statement.
func StmtDef(s Statement) (Local, bool) {
	switch s := s.(type) {
	case *Assign:
		if s.Dst.IsLocal() {
			return s.Dst.Local, true
		}
	case *Load:
		if s.Dst.IsLocal() {
			return s.Dst.Local, true
		}
	case *Store:
		if s.Dst.IsLocal() {
			return s.Dst.Local, true
		}
	case *Borrow:
		if s.Dst.IsLocal() {
			return s.Dst.Local, true
		}
	}
	return 0, false
}

// VisitTermUses calls fn for every local the terminator reads.
func VisitTermUses(t Terminator, fn func(Local)) {
	switch t := t.(type) {
	case *Branch:
		visitOperand(t.Cond, fn)
	case *Switch:
		visitOperand(t.Disc, fn)
	case *Call:
		for _, arg := range t.Args {
			visitOperand(arg, fn)
		}
		visitProjectedDst(t.Dst, fn)
	}
}

// TermDef returns the local fully overwritten by the terminator (a
// call destination).
func TermDef(t Terminator) (Local, bool) {
	if call, ok := t.(*Call); ok && call.Dst.IsLocal() {
		return call.Dst.Local, true
	}
	return 0, false
}
