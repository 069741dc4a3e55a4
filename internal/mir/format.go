package mir

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"methodsplit/internal/types"
)

// FormatModule returns a readable text representation of the IR module.
func FormatModule(mod *Module) string {
	if mod == nil {
		return ""
	}

	var b strings.Builder
	if mod.Name != "" {
		fmt.Fprintf(&b, "module %s\n", mod.Name)
	} else {
		b.WriteString("module <unknown>\n")
	}

	for _, g := range mod.Globals {
		fmt.Fprintf(&b, "%s %s: %s\n", g.Kind, g.Name, formatType(g.Type))
	}

	for _, fn := range mod.Functions {
		b.WriteString("\n")
		writeFunction(&b, fn)
	}

	for _, td := range mod.TypeDefs {
		fmt.Fprintf(&b, "\ntype %s = %s\n", td.Name, formatType(td.Type))
		for _, fn := range td.AttachedFuncs {
			b.WriteString("\n")
			writeFunction(&b, fn)
		}
	}

	return b.String()
}

// FormatFunction returns the text representation of a single function.
func FormatFunction(fn *Function) string {
	var b strings.Builder
	writeFunction(&b, fn)
	return b.String()
}

// WriteModuleFile writes the formatted IR module to disk.
func WriteModuleFile(mod *Module, path string) error {
	if mod == nil || path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(FormatModule(mod)), 0644)
}

func writeFunction(b *strings.Builder, fn *Function) {
	if fn == nil {
		return
	}

	fmt.Fprintf(b, "fn %s(", fn.Name)
	for i, param := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if param.Kind == KindSelf {
			fmt.Fprintf(b, "self %s: %s", param.Name, formatType(param.Type))
		} else {
			fmt.Fprintf(b, "%s: %s", param.Name, formatType(param.Type))
		}
	}
	fmt.Fprintf(b, ") -> %s {\n", formatType(fn.ReturnType))

	for _, v := range fn.Locals {
		fmt.Fprintf(b, "  %s %s: %s", v.Kind, v.Name, formatType(v.Type))
		if v.Scope != nil {
			fmt.Fprintf(b, " [b%d..b%d]", v.Scope.Start, v.Scope.End)
		}
		b.WriteString("\n")
	}

	for _, block := range fn.Blocks {
		writeBlock(b, block)
	}

	for _, entry := range fn.ErrorTable {
		fmt.Fprintf(b, "  trap b%d..b%d -> b%d %s\n", entry.Start, entry.End, entry.Target, formatOperand(entry.ErrOp))
	}

	b.WriteString("}\n")
}

func writeBlock(b *strings.Builder, block *Block) {
	if block == nil {
		return
	}

	if block.Name != "" {
		fmt.Fprintf(b, "  block b%d %s:\n", block.ID, block.Name)
	} else {
		fmt.Fprintf(b, "  block b%d:\n", block.ID)
	}

	for _, instr := range block.Instrs {
		fmt.Fprintf(b, "    %s\n", formatInstr(instr))
	}

	if block.Term != nil {
		fmt.Fprintf(b, "    %s\n", formatTerm(block.Term))
	} else {
		b.WriteString("    term <nil>\n")
	}
}

func formatInstr(instr Instr) string {
	switch i := instr.(type) {
	case *ConstLoad:
		return formatAssign(i.Dest, "const "+formatConst(i.Value))
	case *Move:
		return formatAssign(i.Dest, "move "+formatOperand(i.Src))
	case *BinaryOp:
		return formatAssign(i.Dest, fmt.Sprintf("%s %s, %s", i.Op, formatOperand(i.X), formatOperand(i.Y)))
	case *TypeCast:
		return formatAssign(i.Dest, fmt.Sprintf("cast<%s> %s", formatType(i.Type), formatOperand(i.Src)))
	case *TypeTest:
		return formatAssign(i.Dest, fmt.Sprintf("is<%s> %s", formatType(i.Type), formatOperand(i.Src)))
	case *NewTypeDesc:
		return formatAssign(i.Dest, fmt.Sprintf("typedesc %s", formatType(i.Type)))
	case *NewArray:
		entries := make([]string, len(i.Values))
		for idx, v := range i.Values {
			if v.Kind == EntrySpread {
				entries[idx] = "..." + formatOperand(v.Value)
			} else {
				entries[idx] = formatOperand(v.Value)
			}
		}
		return formatAssign(i.Dest, fmt.Sprintf("new_array %s size %s [%s]", formatType(i.Type), formatOperand(i.Size), strings.Join(entries, ", ")))
	case *NewRecord:
		entries := make([]string, len(i.Fields))
		for idx, f := range i.Fields {
			entries[idx] = formatOperand(f.Key) + ": " + formatOperand(f.Value)
		}
		return formatAssign(i.Dest, fmt.Sprintf("new_record %s {%s}", formatOperand(i.TypeDesc), strings.Join(entries, ", ")))
	case *NewLargeArray:
		return formatAssign(i.Dest, fmt.Sprintf("new_large_array %s size %s from %s", formatType(i.Type), formatOperand(i.Size), formatOperand(i.Handle)))
	case *NewLargeRecord:
		return formatAssign(i.Dest, fmt.Sprintf("new_large_record %s from %s", formatOperand(i.TypeDesc), formatOperand(i.Handle)))
	case *FieldGet:
		return formatAssign(i.Dest, fmt.Sprintf("%s[%s]", formatOperand(i.Base), formatOperand(i.Key)))
	case *FieldSet:
		return fmt.Sprintf("%s[%s] = %s", formatOperand(i.Base), formatOperand(i.Key), formatOperand(i.Value))
	case *ForeignCall:
		call := fmt.Sprintf("foreign %s(%s)", i.Name, formatOperands(i.Args))
		if i.Dest.Valid() {
			return formatAssign(i.Dest, call)
		}
		return call
	default:
		return fmt.Sprintf("<unknown instr %T>", instr)
	}
}

func formatTerm(term Term) string {
	switch t := term.(type) {
	case *Goto:
		return fmt.Sprintf("goto b%d", t.Target)
	case *Branch:
		return fmt.Sprintf("branch %s, b%d, b%d", formatOperand(t.Cond), t.Then, t.Else)
	case *Call:
		call := fmt.Sprintf("call %s(%s) -> b%d", t.Callee, formatOperands(t.Args), t.Next)
		if t.Dest.Valid() {
			return formatAssign(t.Dest, call)
		}
		return call
	case *Return:
		return "return"
	case *Panic:
		return "panic " + formatOperand(t.Err)
	case *Lock:
		return fmt.Sprintf("lock %s -> b%d", t.Name, t.Next)
	case *Unlock:
		return fmt.Sprintf("unlock %s -> b%d", t.Name, t.Next)
	default:
		return fmt.Sprintf("<unknown term %T>", term)
	}
}

func formatAssign(dest Operand, rhs string) string {
	return formatOperand(dest) + " = " + rhs
}

func formatOperand(op Operand) string {
	if op.Var == nil {
		return "<nil>"
	}
	return op.Var.Name
}

func formatOperands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = formatOperand(op)
	}
	return strings.Join(parts, ", ")
}

func formatConst(v any) string {
	switch c := v.(type) {
	case nil:
		return "()"
	case string:
		return strconv.Quote(c)
	default:
		return fmt.Sprint(c)
	}
}

func formatType(t types.SemType) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
