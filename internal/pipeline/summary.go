package pipeline

import (
	"fmt"
	"io"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/olekukonko/tablewriter"

	"methodsplit/colors"
	"methodsplit/internal/context_v2"
	"methodsplit/internal/mir"
)

// FunctionStats describes one function after the pipeline ran
type FunctionStats struct {
	Module       string
	Name         string
	Blocks       int
	Instructions int
	Params       int
	Generated    bool // created by the split phase
}

// CollectStats returns per-function statistics for every module in
// registration order.
func CollectStats(ctx *context_v2.CompilerContext) []FunctionStats {
	var stats []FunctionStats
	for _, name := range ctx.GetModuleNames() {
		module, exists := ctx.GetModule(name)
		if !exists {
			continue
		}
		irMod := mir.ModuleFromModule(module)
		if irMod == nil {
			continue
		}

		module.Mu.Lock()
		generated := mapset.NewThreadUnsafeSet(module.Generated...)
		module.Mu.Unlock()

		for _, fn := range irMod.AllFunctions() {
			stats = append(stats, FunctionStats{
				Module:       name,
				Name:         fn.Name,
				Blocks:       len(fn.Blocks),
				Instructions: mir.InstructionCount(fn),
				Params:       len(fn.Params),
				Generated:    generated.Contains(fn.Name),
			})
		}
	}
	return stats
}

// PrintSummary writes a table of stats followed by a one-line total
func PrintSummary(w io.Writer, stats []FunctionStats) {
	fmt.Fprintln(w)
	colors.CYAN.Fprintln(w, "═══════════════════════════════════════")
	colors.CYAN.Fprintln(w, "        SPLIT SUMMARY")
	colors.CYAN.Fprintln(w, "═══════════════════════════════════════")

	var (
		rows         [][]string
		generated    int
		instructions int
	)
	for _, s := range stats {
		mark := ""
		if s.Generated {
			mark = "yes"
			generated++
		}
		instructions += s.Instructions
		rows = append(rows, []string{
			s.Module,
			s.Name,
			strconv.Itoa(s.Blocks),
			strconv.Itoa(s.Instructions),
			strconv.Itoa(s.Params),
			mark,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Module", "Function", "Blocks", "Instructions", "Params", "Generated"})
	table.SetFooter([]string{"", "Total", "", strconv.Itoa(instructions), "", strconv.Itoa(generated)})
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintf(w, "%d function(s), %d generated\n", len(stats), generated)
}
