package stubgen

import (
	"fmt"
	"path/filepath"
	"strings"
)

// StubExt is the extension of generated stub files
const StubExt = ".pyi"

// ModuleName returns the dotted module name of a source file relative to
// root, the directory that contains the top-level package
func ModuleName(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("failed to relate %s to %s: %w", file, root, err)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || !strings.HasSuffix(rel, ".py") {
		return "", fmt.Errorf("%s is not a Python source under %s", file, root)
	}

	rel = strings.TrimSuffix(rel, ".py")
	rel = strings.TrimSuffix(rel, "/__init__")
	return strings.ReplaceAll(rel, "/", "."), nil
}

// StubPath maps a module onto the relative path of its stub. Packages map
// to their __init__.pyi.
func StubPath(module string, isPackage bool) string {
	target := filepath.Join(strings.Split(module, ".")...)
	if isPackage {
		return filepath.Join(target, "__init__"+StubExt)
	}
	return target + StubExt
}

// ModulePath combines ModuleName and StubPath for a source file
func ModulePath(root, file string) (module, stub string, err error) {
	module, err = ModuleName(root, file)
	if err != nil {
		return "", "", err
	}
	return module, StubPath(module, filepath.Base(file) == "__init__.py"), nil
}
