// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"sable/internal/diag"
	"sable/internal/lower"
	"sable/internal/mir"
)

func TestInternalCodeDistinguishesLoweringFaults(t *testing.T) {
	lerr := &lower.Error{Fn: "f", Msg: "unresolved variable"}
	assert.Equal(t, diag.ErrorLowering, internalCode(lerr))
	assert.Equal(t, diag.ErrorLowering, internalCode(fmt.Errorf("lowering f: %w", lerr)))

	cfgErr := &mir.InvalidCFGError{Fn: "f", Block: mir.Entry, Msg: "block has no terminator"}
	assert.Equal(t, diag.ErrorInvalidCFG, internalCode(cfgErr))
}
