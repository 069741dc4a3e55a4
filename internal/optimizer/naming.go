package optimizer

import (
	"strconv"
	"strings"
	"sync"

	"methodsplit/internal/mir"
)

// Prefixes of generated names. Downstream tooling recognizes generated
// functions by them, so the format is fixed.
const (
	SplitFuncPrefix = "$split$method$_"
	SplitTempPrefix = "$split$tempVar$_"

	generatedPrefix = "$split$"
)

// IsGenerated reports whether name was produced by the optimizer.
func IsGenerated(name string) bool {
	return strings.HasPrefix(name, generatedPrefix)
}

// Namer hands out generated function and temporary names. Function numbers
// start at 1 and temporary numbers at 0. A Namer is owned by one optimizer
// invocation; it is safe for concurrent use.
type Namer struct {
	mu    sync.Mutex
	funcs int
	temps int
}

// NewNamer returns a namer that continues after any generated names already
// present in mod, so running the pass twice never reuses a name.
func NewNamer(mod *mir.Module) *Namer {
	n := &Namer{}
	for _, fn := range mod.AllFunctions() {
		if num, ok := suffix(fn.Name, SplitFuncPrefix); ok && num > n.funcs {
			n.funcs = num
		}
		for _, v := range fn.Locals {
			if num, ok := suffix(v.Name, SplitTempPrefix); ok && num >= n.temps {
				n.temps = num + 1
			}
		}
	}
	return n
}

// Func returns the next split function name.
func (n *Namer) Func() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.funcs++
	return SplitFuncPrefix + strconv.Itoa(n.funcs)
}

// Temp returns the next split temporary name.
func (n *Namer) Temp() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := SplitTempPrefix + strconv.Itoa(n.temps)
	n.temps++
	return name
}

func suffix(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	num, err := strconv.Atoi(name[len(prefix):])
	return num, err == nil
}
