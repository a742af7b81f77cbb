// SPDX-License-Identifier: Apache-2.0

package setup

import (
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wikyd/sunspot/pkg/fieldtype"
	loglib "github.com/wikyd/sunspot/pkg/log"
)

// Registry keeps the field declarations of every configured class. It is
// safe for concurrent use, although declarations are expected to be
// registered at startup, before any indexing happens.
type Registry struct {
	logger loglib.Logger

	lock    *sync.RWMutex
	classes map[string]*Class
	setups  map[*Class]*classSetup

	// resolved declaration sets, purged on every registry mutation
	cache *lru.Cache[*Class, *DeclarationSet]
}

// classSetup holds the declarations owned by a class, keyed by engine field
// name.
type classSetup struct {
	order  []string
	fields map[string]*Declaration
}

type Option func(*Registry)

const defaultCacheSize = 1024

func NewRegistry(opts ...Option) *Registry {
	// only fails on non positive sizes
	cache, _ := lru.New[*Class, *DeclarationSet](defaultCacheSize)
	r := &Registry{
		logger:  loglib.NewNoopLogger(),
		lock:    &sync.RWMutex{},
		classes: map[string]*Class{},
		setups:  map[*Class]*classSetup{},
		cache:   cache,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func WithLogger(l loglib.Logger) Option {
	return func(r *Registry) {
		r.logger = loglib.NewLogger(l).WithFields(loglib.Fields{
			loglib.ModuleField: "setup_registry",
		})
	}
}

func WithCacheSize(size int) Option {
	return func(r *Registry) {
		if cache, err := lru.New[*Class, *DeclarationSet](size); err == nil {
			r.cache = cache
		}
	}
}

// Setup registers the class with the mapping system without declaring any
// field. Instances of configured classes can be indexed.
func (r *Registry) Setup(class *Class) error {
	if class == nil {
		return errNilClass
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	_, err := r.ensureSetup(class)
	return err
}

// Declare registers a field for the class on input. The type token must be
// known to the field type table, and no declaration options are currently
// supported.
func (r *Registry) Declare(class *Class, name, typeToken string, multiple bool, options map[string]any) error {
	if err := validateOptions(class, name, options); err != nil {
		return err
	}
	return r.declare(class, name, typeToken, multiple, nil)
}

// DeclareVirtual registers a field whose value is computed by the resolver
// at build time.
func (r *Registry) DeclareVirtual(class *Class, name, typeToken string, multiple bool, resolver Resolver) error {
	if resolver == nil {
		return ErrInvalidDeclaration{Class: class.Name(), Field: name, Reason: errNilResolver.Error()}
	}
	return r.declare(class, name, typeToken, multiple, resolver)
}

// Resolve returns the declarations that apply to the class, merging the
// declarations of all its configured ancestors. Declarations on more specific
// classes shadow the ones on their ancestors indexed under the same engine
// field name.
func (r *Registry) Resolve(class *Class) (*DeclarationSet, error) {
	if class == nil {
		return nil, errNilClass
	}

	if set, found := r.cache.Get(class); found {
		return set, nil
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	if !r.isConfigured(class) {
		return nil, ErrNotConfigured{Class: class.Name()}
	}

	ancestry := class.Ancestry()
	set := newDeclarationSet(class)
	for i := len(ancestry) - 1; i >= 0; i-- {
		s, found := r.setups[ancestry[i]]
		if !found {
			continue
		}
		for _, indexedName := range s.order {
			set.merge(indexedName, s.fields[indexedName])
		}
	}

	// added while holding the read lock so that a concurrent declaration
	// cannot purge the cache before a stale set is stored
	r.cache.Add(class, set)
	return set, nil
}

// IsConfigured returns true if the class or any of its ancestors has been
// registered.
func (r *Registry) IsConfigured(class *Class) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.isConfigured(class)
}

// ConfiguredName returns the name of the most specific configured class in
// the ancestry of the class on input.
func (r *Registry) ConfiguredName(class *Class) (string, error) {
	types := r.ConfiguredTypes(class)
	if len(types) == 0 {
		return "", ErrNotConfigured{Class: class.Name()}
	}
	return types[0], nil
}

// ConfiguredTypes returns the names of all the configured classes in the
// ancestry of the class on input, most specific first.
func (r *Registry) ConfiguredTypes(class *Class) []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	types := []string{}
	for _, cls := range class.Ancestry() {
		if _, found := r.setups[cls]; found {
			types = append(types, cls.Name())
		}
	}
	return types
}

// Lookup returns the registered class with the name on input.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	class, found := r.classes[name]
	return class, found
}

// Classes returns the names of all registered classes, sorted.
func (r *Registry) Classes() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) declare(class *Class, name, typeToken string, multiple bool, resolver Resolver) error {
	if class == nil {
		return errNilClass
	}
	if name == "" {
		return ErrInvalidDeclaration{Class: class.Name(), Field: name, Reason: errEmptyName.Error()}
	}

	fieldType, err := fieldtype.Parse(typeToken)
	if err != nil {
		return fmt.Errorf("declaring field [%s] on class [%s]: %w", name, class.Name(), err)
	}

	decl := &Declaration{
		Name:     name,
		Type:     fieldType,
		Multiple: multiple,
		Owner:    class,
		Resolver: resolver,
	}
	indexedName, err := decl.IndexedName()
	if err != nil {
		return fmt.Errorf("declaring field [%s] on class [%s]: %w", name, class.Name(), err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	s, err := r.ensureSetup(class)
	if err != nil {
		return err
	}

	if _, found := s.fields[indexedName]; found {
		r.logger.Warn(nil, "field redeclared, replacing previous declaration", loglib.Fields{
			loglib.ClassField: class.Name(),
			loglib.FieldField: indexedName,
		})
	} else {
		s.order = append(s.order, indexedName)
	}
	s.fields[indexedName] = decl

	r.logger.Debug("field declared", loglib.Fields{
		loglib.ClassField: class.Name(),
		loglib.FieldField: name,
		"indexed_name":    indexedName,
		"type":            fieldType.String(),
		"multiple":        multiple,
		"virtual":         resolver != nil,
	})

	return nil
}

// ensureSetup must be called with the write lock held.
func (r *Registry) ensureSetup(class *Class) (*classSetup, error) {
	if existing, found := r.classes[class.Name()]; found && existing != class {
		return nil, ErrInvalidDeclaration{
			Class:  class.Name(),
			Reason: "class name already registered for a different class",
		}
	}

	r.cache.Purge()

	s, found := r.setups[class]
	if !found {
		s = &classSetup{
			order:  []string{},
			fields: map[string]*Declaration{},
		}
		r.setups[class] = s
		r.classes[class.Name()] = class
	}
	return s, nil
}

func (r *Registry) isConfigured(class *Class) bool {
	for _, cls := range class.Ancestry() {
		if _, found := r.setups[cls]; found {
			return true
		}
	}
	return false
}

// no field type currently supports declaration options, any key on input is
// rejected
func validateOptions(class *Class, name string, options map[string]any) error {
	if len(options) == 0 {
		return nil
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return newUnknownOptionsErr(class, name, keys)
}
