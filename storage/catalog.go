package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/nanomodel/nanomodel"
)

// ErrCycle is returned when models reference each other in a loop and no
// restore order exists.
var ErrCycle = errors.New("reference cycle between collections")

// Catalog is a named set of models that reference each other.
type Catalog struct {
	models []*nanomodel.Model
	byName map[string]*nanomodel.Model
}

// NewCatalog creates a catalog holding models.
func NewCatalog(models ...*nanomodel.Model) *Catalog {
	c := &Catalog{byName: make(map[string]*nanomodel.Model)}
	for _, m := range models {
		c.Add(m)
	}
	return c
}

// Add registers m, replacing a model with the same name.
func (c *Catalog) Add(m *nanomodel.Model) {
	if _, ok := c.byName[m.Name()]; ok {
		for i, existing := range c.models {
			if existing.Name() == m.Name() {
				c.models[i] = m
			}
		}
	} else {
		c.models = append(c.models, m)
	}
	c.byName[m.Name()] = m
}

// Get returns the model with the given name. Lookup ignores case.
func (c *Catalog) Get(name string) (*nanomodel.Model, bool) {
	if m, ok := c.byName[name]; ok {
		return m, true
	}
	for _, m := range c.models {
		if strings.EqualFold(m.Name(), name) {
			return m, true
		}
	}
	return nil, false
}

// Models returns the models in registration order.
func (c *Catalog) Models() []*nanomodel.Model {
	out := make([]*nanomodel.Model, len(c.models))
	copy(out, c.models)
	return out
}

// Names returns the model names in registration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.models))
	for i, m := range c.models {
		names[i] = m.Name()
	}
	return names
}

// Len returns the number of models.
func (c *Catalog) Len() int { return len(c.models) }

// Bindings returns the catalog as deserialization bindings.
func (c *Catalog) Bindings() nanomodel.Bindings {
	out := make(nanomodel.Bindings, len(c.byName))
	for name, m := range c.byName {
		out[name] = m
	}
	return out
}

// Referencing returns the REF fields of other models that point at target,
// as model name -> field names.
func (c *Catalog) Referencing(target *nanomodel.Model) map[string][]string {
	out := make(map[string][]string)
	for _, m := range c.models {
		for _, f := range m.Fields() {
			if f.Type.Kind() == nanomodel.KindRef && f.Type.Target() == target {
				out[m.Name()] = append(out[m.Name()], f.Name)
			}
		}
	}
	return out
}

// Ordered returns the models so that every REF target comes before the
// models pointing at it.
func (c *Catalog) Ordered() ([]*nanomodel.Model, error) {
	deps := make(map[string][]string, len(c.models))
	for _, m := range c.models {
		for _, f := range m.Fields() {
			target := f.Type.Target()
			if target == nil || target == m {
				continue
			}
			if _, ok := c.byName[target.Name()]; !ok {
				return nil, fmt.Errorf("%w: %s.%s targets %s outside the catalog",
					nanomodel.ErrUnboundArgument, m.Name(), f.Name, target.Name())
			}
			deps[m.Name()] = append(deps[m.Name()], target.Name())
		}
	}
	order, err := dependencyOrder(c.Names(), deps)
	if err != nil {
		return nil, err
	}
	out := make([]*nanomodel.Model, len(order))
	for i, name := range order {
		out[i] = c.byName[name]
	}
	return out, nil
}

func (c *Catalog) reorder(names []string) {
	models := make([]*nanomodel.Model, 0, len(names))
	for _, name := range names {
		if m, ok := c.byName[name]; ok {
			models = append(models, m)
		}
	}
	c.models = models
}

// dependencyOrder sorts names so that each comes after its dependencies,
// keeping the input order where there is a choice. Dependencies outside
// names are left for the caller's bindings to resolve.
func dependencyOrder(names []string, deps map[string][]string) ([]string, error) {
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	order := make([]string, 0, len(names))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(path, name), " -> "))
		}
		state[name] = visiting
		for _, dep := range deps[name] {
			if !known[dep] {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// SortedNames returns the model names in lexical order.
func (c *Catalog) SortedNames() []string {
	names := c.Names()
	sort.Strings(names)
	return names
}
