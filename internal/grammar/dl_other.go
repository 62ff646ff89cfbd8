//go:build !(darwin || freebsd || linux)

package grammar

import (
	"fmt"
	"runtime"

	sitter "github.com/smacker/go-tree-sitter"
)

func openLibrary(path, _ string) (*sitter.Language, uintptr, error) {
	return nil, 0, fmt.Errorf("external grammars are not supported on %s: %s", runtime.GOOS, path)
}

func closeLibrary(uintptr) error {
	return nil
}
