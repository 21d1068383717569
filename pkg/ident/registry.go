package ident

import (
	"fmt"
	"strconv"

	"github.com/vango-dev/kinesis/internal/errors"
)

// ID is an opaque identifier for a render position. The zero ID is never
// allocated and stands for "no position".
type ID uint64

// String returns the ID as "#n".
func (id ID) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// Scope names a render position: the owning instance and the path within
// its render output. Owner is zero for a controller's root instance.
type Scope struct {
	Owner ID
	Path  Path
}

// String returns "owner/path".
func (s Scope) String() string {
	return fmt.Sprintf("%s/%s", s.Owner, s.Path)
}

func (s Scope) key() scopeKey {
	return scopeKey{owner: s.Owner, path: s.Path.String()}
}

type scopeKey struct {
	owner ID
	path  string
}

type entry struct {
	scope  Scope
	parent ID
}

// change is one journaled mutation.
type change struct {
	id       ID
	e        entry
	released bool
}

// Registry allocates IDs for one controller. It is not safe for concurrent
// use; the controller owning it serializes all cycles.
//
// Between Begin and Commit every Allocate and Release is journaled so that
// Rollback can restore the registry to its state at Begin.
type Registry struct {
	last    ID
	entries map[ID]entry
	byScope map[scopeKey]ID

	journal   []change
	journaled bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ID]entry),
		byScope: make(map[scopeKey]ID),
	}
}

// Allocate returns a fresh ID for scope. parent is the enclosing position
// (zero for a root) and is what event bubbling walks.
//
// Allocate panics if the scope's owner has been released or if the scope
// already holds a live ID.
func (r *Registry) Allocate(scope Scope, parent ID) ID {
	if scope.Owner != 0 && !r.Live(scope.Owner) {
		panic(errors.New(errors.CodeReleasedScope).WithDetailf("scope %s", scope))
	}
	key := scope.key()
	if existing, ok := r.byScope[key]; ok {
		panic(errors.New(errors.CodeScopeInUse).WithDetailf("scope %s held by %s", scope, existing))
	}

	r.last++
	id := r.last
	e := entry{scope: Scope{Owner: scope.Owner, Path: append(Path(nil), scope.Path...)}, parent: parent}
	r.entries[id] = e
	r.byScope[key] = id
	if r.journaled {
		r.journal = append(r.journal, change{id: id, e: e})
	}
	return id
}

// Release invalidates id. Releasing an ID that was never allocated, or one
// that was already released, panics.
func (r *Registry) Release(id ID) {
	e, ok := r.entries[id]
	if !ok {
		if id != 0 && id <= r.last {
			panic(errors.New(errors.CodeDoubleRelease).WithDetailf("id %s", id))
		}
		panic(errors.New(errors.CodeUnknownIdentifier).WithDetailf("id %s", id))
	}
	delete(r.entries, id)
	delete(r.byScope, e.scope.key())
	if r.journaled {
		r.journal = append(r.journal, change{id: id, e: e, released: true})
	}
}

// Begin starts journaling. An unfinished journal from an earlier Begin is
// rolled back first.
func (r *Registry) Begin() {
	if r.journaled {
		r.Rollback()
	}
	r.journaled = true
	r.journal = r.journal[:0]
}

// Commit keeps every change made since Begin.
func (r *Registry) Commit() {
	r.journaled = false
	r.journal = r.journal[:0]
}

// Rollback undoes every change made since Begin, newest first. IDs
// allocated since Begin are retired, never handed out again.
func (r *Registry) Rollback() {
	for i := len(r.journal) - 1; i >= 0; i-- {
		c := r.journal[i]
		if c.released {
			r.entries[c.id] = c.e
			r.byScope[c.e.scope.key()] = c.id
			continue
		}
		delete(r.entries, c.id)
		delete(r.byScope, c.e.scope.key())
	}
	r.journaled = false
	r.journal = r.journal[:0]
}

// Pending returns the number of journaled changes.
func (r *Registry) Pending() int {
	return len(r.journal)
}

// Lookup returns the live ID held by scope.
func (r *Registry) Lookup(scope Scope) (ID, bool) {
	id, ok := r.byScope[scope.key()]
	return id, ok
}

// Scope returns the scope id was allocated for.
func (r *Registry) Scope(id ID) (Scope, bool) {
	e, ok := r.entries[id]
	return e.scope, ok
}

// Parent returns the enclosing position of id, or zero.
func (r *Registry) Parent(id ID) ID {
	return r.entries[id].parent
}

// Live reports whether id is allocated and not yet released.
func (r *Registry) Live(id ID) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of live IDs.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Owned returns the live IDs whose scope belongs to owner.
func (r *Registry) Owned(owner ID) []ID {
	var ids []ID
	for id, e := range r.entries {
		if e.scope.Owner == owner {
			ids = append(ids, id)
		}
	}
	return ids
}
