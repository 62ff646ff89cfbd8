//go:build darwin || freebsd || linux

package grammar

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	sitter "github.com/smacker/go-tree-sitter"
)

// openLibrary dlopens path and calls its tree_sitter_<name> entry point.
func openLibrary(path, symbol string) (*sitter.Language, uintptr, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, 0, err
	}

	sym, err := purego.Dlsym(handle, symbol)
	if err != nil {
		_ = purego.Dlclose(handle)
		return nil, 0, fmt.Errorf("symbol %s: %w", symbol, err)
	}

	var language func() unsafe.Pointer
	purego.RegisterFunc(&language, sym)

	ptr := language()
	if ptr == nil {
		_ = purego.Dlclose(handle)
		return nil, 0, fmt.Errorf("symbol %s returned nil", symbol)
	}

	return sitter.NewLanguage(ptr), handle, nil
}

func closeLibrary(handle uintptr) error {
	return purego.Dlclose(handle)
}
