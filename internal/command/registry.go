package command

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
)

// Module builds one command definition. Modules stand in for the files of a
// command directory: each is loaded independently and may fail on its own.
type Module func() (*Definition, error)

// Group is a nested collection of modules, like a directory of command files.
type Group struct {
	Name    string
	Modules []Module
	Groups  []Group
}

// LoadError records a module that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadReport summarizes one Load pass.
type LoadReport struct {
	Loaded int
	Errors []*LoadError
}

// Entry pairs an alias with the definition it routes to.
type Entry struct {
	Alias      string
	Definition *Definition
}

// Registry maps aliases to command definitions.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Definition
	log      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		commands: make(map[string]*Definition),
		log:      log,
	}
}

// Load walks root depth-first and registers every alias of every module that
// loads cleanly. A failing module is logged and skipped. An alias declared
// twice routes to the definition loaded last.
func (r *Registry) Load(root Group) LoadReport {
	var report LoadReport
	r.loadGroup(root, root.Name, &report)
	return report
}

func (r *Registry) loadGroup(g Group, path string, report *LoadReport) {
	for i, mod := range g.Modules {
		modPath := fmt.Sprintf("%s#%d", path, i)
		def, err := loadModule(mod)
		if err != nil {
			lerr := &LoadError{Path: modPath, Err: err}
			report.Errors = append(report.Errors, lerr)
			r.log.Error("Error loading command", "path", modPath, "err", err)
			continue
		}
		r.register(def)
		report.Loaded++
		r.log.Info("Loaded command", "path", modPath, "aliases", strings.Join(def.Aliases, ","))
	}
	for _, sub := range g.Groups {
		subPath := sub.Name
		if path != "" {
			subPath = path + "/" + sub.Name
		}
		r.loadGroup(sub, subPath, report)
	}
}

func loadModule(mod Module) (def *Definition, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			def = nil
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	if mod == nil {
		return nil, fmt.Errorf("nil module")
	}
	def, err = mod()
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (r *Registry) register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alias := range def.Aliases {
		if prev, ok := r.commands[alias]; ok && prev != def {
			r.log.Debug("Alias overwritten", "alias", alias, "previous", prev.Primary(), "current", def.Primary())
		}
		r.commands[alias] = def
	}
}

// Lookup returns the definition registered under alias. Matching is exact and
// case-sensitive.
func (r *Registry) Lookup(alias string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.commands[alias]
	return def, ok
}

// All returns a snapshot of every alias, sorted by alias.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.commands))
	for alias, def := range r.commands {
		out = append(out, Entry{Alias: alias, Definition: def})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Definitions returns each distinct definition once, ordered by primary alias.
func (r *Registry) Definitions() []*Definition {
	seen := make(map[*Definition]bool)
	var out []*Definition
	for _, e := range r.All() {
		if seen[e.Definition] {
			continue
		}
		seen[e.Definition] = true
		out = append(out, e.Definition)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Primary() < out[j].Primary() })
	return out
}

// Len returns the number of registered aliases.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
