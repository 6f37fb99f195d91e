package borrow

// Mode selects how strictly aliasing is enforced. Ownership rules
// (no use after move, no reference outliving its referent) hold in
// every mode.
type Mode int

const (
	// ModeStrict enforces full exclusivity: an exclusive loan tolerates
	// no other loan, and a shared loan tolerates only other shared
	// loans.
	ModeStrict Mode = iota

	// ModePermissive tolerates a shared loan coexisting with an
	// exclusive one. Exclusive-exclusive overlap, writes to borrowed
	// places, moves out of borrowed places and lifetime violations
	// still fail.
	ModePermissive
)

func (m Mode) String() string {
	if m == ModePermissive {
		return "permissive"
	}
	return "strict"
}
