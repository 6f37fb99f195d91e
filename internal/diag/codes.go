package diag

// Error codes for the sable middle end, used in rendered diagnostics
// and documentation so failures stay identifiable across tools.
//
// Error code ranges:
// E0100-E0199: Ownership and borrow errors
// E0900-E0999: Internal invariant errors

const (
	// E0100: Use of a value after its ownership moved away
	ErrorUseAfterMove = "E0100"

	// E0101: Overlapping loans or writes to a borrowed place
	ErrorBorrowConflict = "E0101"

	// E0102: Reference outliving the value it borrows
	ErrorDanglingReference = "E0102"

	// E0900: Malformed control-flow graph reached the middle end
	ErrorInvalidCFG = "E0900"

	// E0901: Lowering invariant violated by front-end input
	ErrorLowering = "E0901"
)
