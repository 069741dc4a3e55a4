package mir

import "methodsplit/internal/context_v2"

const moduleKey = "mir.module"

// ModuleFromModule returns the IR module stored on the context module, if any.
func ModuleFromModule(mod *context_v2.Module) *Module {
	if mod == nil || mod.Artifacts == nil {
		return nil
	}

	mod.Mu.Lock()
	defer mod.Mu.Unlock()
	if val, ok := mod.Artifacts[moduleKey]; ok {
		if typed, ok := val.(*Module); ok {
			return typed
		}
	}
	return nil
}

// StoreModule saves the IR module on the context module artifacts.
func StoreModule(mod *context_v2.Module, irMod *Module) {
	if mod == nil || irMod == nil {
		return
	}

	mod.Mu.Lock()
	defer mod.Mu.Unlock()
	if mod.Artifacts == nil {
		mod.Artifacts = make(map[string]any)
	}

	mod.Artifacts[moduleKey] = irMod
}
