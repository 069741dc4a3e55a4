package optimizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"methodsplit/internal/mir"
	"methodsplit/internal/types"
)

func TestNamerStartsFresh(t *testing.T) {
	n := NewNamer(&mir.Module{})
	assert.Equal(t, "$split$method$_1", n.Func())
	assert.Equal(t, "$split$method$_2", n.Func())
	assert.Equal(t, "$split$tempVar$_0", n.Temp())
	assert.Equal(t, "$split$tempVar$_1", n.Temp())
}

func TestNamerContinuesAfterExistingNames(t *testing.T) {
	mod := &mir.Module{Functions: []*mir.Function{
		{Name: "main"},
		{Name: SplitFuncPrefix + "4", Locals: []*mir.VarDecl{
			{Name: SplitTempPrefix + "7", Type: types.TypeInt, Kind: mir.KindTemp},
		}},
		{Name: SplitFuncPrefix + "x"},
	}}
	n := NewNamer(mod)
	assert.Equal(t, SplitFuncPrefix+"5", n.Func())
	assert.Equal(t, SplitTempPrefix+"8", n.Temp())
}

func TestNamerIsSafeForConcurrentUse(t *testing.T) {
	n := NewNamer(&mir.Module{})
	var wg sync.WaitGroup
	names := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			names <- n.Func()
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]bool)
	for name := range names {
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 100)
}

func TestIsGenerated(t *testing.T) {
	assert.True(t, IsGenerated("$split$method$_3"))
	assert.True(t, IsGenerated("$split$tempVar$_0"))
	assert.False(t, IsGenerated("main"))
}
