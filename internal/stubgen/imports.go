package stubgen

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// typingExtensionsBefore is the first Python version whose typing module
// ships Literal
const typingExtensionsBefore = "v3.8"

// ImportManager collects the import section of one stub. Module imports
// keep their source order; typing names needed by generated overloads are
// emitted on a single trailing line.
type ImportManager struct {
	moduleImports []string
	seen          map[string]bool
	typingNames   map[string]bool
	otherNames    map[string]map[string]bool // module -> names
	pythonVersion string
}

// NewImportManager creates an import manager for the given target Python
// version, e.g. "3.11". An empty version means a current Python.
func NewImportManager(pythonVersion string) *ImportManager {
	return &ImportManager{
		seen:          make(map[string]bool),
		typingNames:   make(map[string]bool),
		otherNames:    make(map[string]map[string]bool),
		pythonVersion: pythonVersion,
	}
}

// AddModuleImport carries an import statement from the source module.
// Duplicates are dropped.
func (im *ImportManager) AddModuleImport(stmt string) {
	if stmt == "" || im.seen[stmt] {
		return
	}
	im.seen[stmt] = true
	im.moduleImports = append(im.moduleImports, stmt)
}

// RequireTyping records that the stub uses a name from typing. Names the
// source module already imports from the typing module are not repeated.
func (im *ImportManager) RequireTyping(names ...string) {
	for _, name := range names {
		if name != "" && !im.provides(name, "typing", "typing_extensions") {
			im.typingNames[name] = true
		}
	}
}

// RequireName records that the stub uses name from module, e.g.
// Incomplete from _typeshed
func (im *ImportManager) RequireName(module, name string) {
	if im.provides(name, module) {
		return
	}
	if im.otherNames[module] == nil {
		im.otherNames[module] = make(map[string]bool)
	}
	im.otherNames[module][name] = true
}

// provides reports whether a carried module import already binds name
// from one of the given modules
func (im *ImportManager) provides(name string, modules ...string) bool {
	for _, stmt := range im.moduleImports {
		module, names, ok := parseFromImport(stmt)
		if !ok || !contains(modules, module) {
			continue
		}
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return false
}

// TypingModule returns the module the typing names are imported from
func (im *ImportManager) TypingModule() string {
	v := pythonSemver(im.pythonVersion)
	if v != "" && semver.Compare(v, typingExtensionsBefore) < 0 {
		return "typing_extensions"
	}
	return "typing"
}

// GenerateImports renders the import section, or "" when there is nothing
// to import. Generated imports follow the carried ones, one line per
// module in module order.
func (im *ImportManager) GenerateImports() string {
	required := make(map[string]map[string]bool, len(im.otherNames)+1)
	for module, names := range im.otherNames {
		required[module] = names
	}
	if len(im.typingNames) > 0 {
		typing := im.TypingModule()
		if required[typing] == nil {
			required[typing] = make(map[string]bool)
		}
		for name := range im.typingNames {
			required[typing][name] = true
		}
	}

	if len(im.moduleImports) == 0 && len(required) == 0 {
		return ""
	}

	var b strings.Builder
	for _, stmt := range im.moduleImports {
		b.WriteString(stmt)
		b.WriteByte('\n')
	}

	for _, module := range sortedKeys(required) {
		b.WriteString("from " + module + " import " + strings.Join(sortedKeys(required[module]), ", ") + "\n")
	}

	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// parseFromImport splits "from m import a, b as c" into the module and the
// bound names
func parseFromImport(stmt string) (string, []string, bool) {
	rest, ok := strings.CutPrefix(stmt, "from ")
	if !ok {
		return "", nil, false
	}
	module, list, ok := strings.Cut(rest, " import ")
	if !ok {
		return "", nil, false
	}

	var names []string
	for _, item := range strings.Split(list, ",") {
		fields := strings.Fields(item)
		switch len(fields) {
		case 1:
			names = append(names, fields[0])
		case 3:
			if fields[1] == "as" {
				names = append(names, fields[2])
			}
		}
	}
	return strings.TrimSpace(module), names, true
}

// pythonSemver converts "3.7" into the semver form "v3.7", returning "" for
// versions semver cannot represent
func pythonSemver(version string) string {
	if version == "" {
		return ""
	}
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
