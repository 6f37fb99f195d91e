package mir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sable/internal/types"
)

func TestPlaceOverlap(t *testing.T) {
	v := PlaceOf(1)
	tests := []struct {
		name string
		a, b Place
		want bool
	}{
		{"same local", v, v, true},
		{"different locals", v, PlaceOf(2), false},
		{"whole vs field", v, v.Field(0), true},
		{"field vs whole", v.Field(0), v, true},
		{"disjoint fields", v.Field(0), v.Field(1), false},
		{"nested under same field", v.Field(0), v.Field(0).Field(2), true},
		{"disjoint under same prefix", v.Field(0).Field(1), v.Field(0).Field(2), false},
		{"index vs index", v.Index(3), v.Index(4), true},
		{"deref vs deref field", v.Deref(), v.Deref().Field(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap is symmetric")
		})
	}
}

func TestPlaceString(t *testing.T) {
	p := PlaceOf(2).Field(1).Deref().Index(3)
	assert.Equal(t, "_2.1.*[_3]", p.String())
	assert.Equal(t, "_2", PlaceOf(2).String())
}

func TestPlaceExtendDoesNotAliasChain(t *testing.T) {
	base := PlaceOf(1).Field(0)
	a := base.Field(1)
	b := base.Field(2)
	assert.True(t, a.Equal(PlaceOf(1).Field(0).Field(1)))
	assert.True(t, b.Equal(PlaceOf(1).Field(0).Field(2)))
}

func TestLocationBefore(t *testing.T) {
	assert.True(t, Location{Block: 0, Stmt: 2}.Before(Location{Block: 1, Stmt: 0}))
	assert.True(t, Location{Block: 1, Stmt: 0}.Before(Location{Block: 1, Stmt: 1}))
	assert.False(t, Location{Block: 1, Stmt: 1}.Before(Location{Block: 1, Stmt: 1}))
}

// diamondFn builds entry -> {1, 2} -> 3.
func diamondFn() *Function {
	i64 := &types.Int{Bits: 64, Signed: true}
	f := &Function{Name: "d"}
	for i := 0; i < 3; i++ {
		f.Locals = append(f.Locals, LocalDecl{Type: i64, Class: types.ClassCopy})
	}
	for i := 0; i < 4; i++ {
		f.Blocks = append(f.Blocks, &BasicBlock{ID: BlockID(i)})
	}
	f.Blocks[0].Term = &Branch{Cond: CopyOperand(PlaceOf(1)), True: 1, False: 2}
	f.Blocks[1].Term = &Goto{Target: 3}
	f.Blocks[2].Term = &Goto{Target: 3}
	f.Blocks[3].Term = &Return{}
	return f
}

func TestCFGOrders(t *testing.T) {
	f := diamondFn()
	require.NoError(t, f.Validate())

	rpo := f.ReversePostorder()
	require.Len(t, rpo, 4)
	assert.Equal(t, Entry, rpo[0])
	assert.Equal(t, BlockID(3), rpo[3], "the join comes last")

	preds := f.Predecessors()
	assert.Empty(t, preds[0])
	assert.Equal(t, []BlockID{0}, preds[1])
	assert.Equal(t, []BlockID{1, 2}, preds[3])
}

func TestReachableSkipsOrphans(t *testing.T) {
	f := diamondFn()
	f.Blocks = append(f.Blocks, &BasicBlock{ID: 4, Term: &Return{}})
	require.NoError(t, f.Validate())

	r := f.Reachable()
	assert.True(t, r[0] && r[1] && r[2] && r[3])
	assert.False(t, r[4])
	assert.Len(t, f.Postorder(), 4)
}

func TestValidateRejectsBrokenShapes(t *testing.T) {
	var invalid *InvalidCFGError

	f := diamondFn()
	f.Blocks[2].Term = nil
	err := f.Validate()
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, BlockID(2), invalid.Block)

	f = diamondFn()
	f.Blocks[1].Term = &Goto{Target: 9}
	require.ErrorAs(t, f.Validate(), &invalid)

	f = diamondFn()
	f.Blocks[3].ID = 7
	require.ErrorAs(t, f.Validate(), &invalid)

	require.ErrorAs(t, (&Function{Name: "empty"}).Validate(), &invalid)
}

func TestPrintIsDeterministic(t *testing.T) {
	f := diamondFn()
	f.Blocks[1].Stmts = []Statement{
		&Load{Dst: PlaceOf(2), Src: CopyOperand(PlaceOf(1))},
	}
	out := Print(f)
	assert.Contains(t, out, "bb0")
	assert.Contains(t, out, "bb3")
	assert.Equal(t, out, Print(f))
}
