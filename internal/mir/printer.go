package mir

import (
	"fmt"
	"strings"
)

// Print renders a function the way the rest of the toolchain expects
// to read MIR dumps: the local table first, then each block in id
// order. The output is deterministic, so tests can compare dumps
// byte-for-byte.
func Print(f *Function) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "fn %s(", f.Name)
	for i := 1; i <= f.Params; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", Local(i), f.Locals[i].Type)
	}
	fmt.Fprintf(&sb, ") -> %s {\n", f.Locals[ReturnLocal].Type)

	for i, decl := range f.Locals {
		mut := ""
		if decl.Mutable {
			mut = "mut "
		}
		comment := ""
		if decl.Name != "" {
			comment = " // " + decl.Name
		}
		fmt.Fprintf(&sb, "    let %s%s: %s (%s);%s\n", mut, Local(i), decl.Type, decl.Class, comment)
	}
	sb.WriteString("\n")

	for _, b := range f.Blocks {
		fmt.Fprintf(&sb, "    %s: {\n", b.ID)
		for _, s := range b.Stmts {
			fmt.Fprintf(&sb, "        %s;\n", s)
		}
		if b.Term != nil {
			fmt.Fprintf(&sb, "        %s;\n", b.Term)
		}
		sb.WriteString("    }\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}
