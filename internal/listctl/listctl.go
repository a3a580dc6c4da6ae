// Package listctl manages a list of remote entities: fetching, creating,
// editing and deleting them while tracking load status and the last error.
//
// A Controller is generic over the entity type E, the fields used to create
// one (F) and the partial update it accepts (P). The entity-specific
// requests come from a Source; everything else lives here once.
package listctl

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrClosed     = errors.New("list controller closed")
	ErrNotEditing = errors.New("entity is not being edited")
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Source performs the requests for one entity type. List must return a
// normalized slice; the controller never sees wire shapes.
type Source[E, F, P any] interface {
	List(ctx context.Context) ([]E, error)
	Create(ctx context.Context, fields F) (E, error)
	Update(ctx context.Context, id string, patch P) (E, error)
	Remove(ctx context.Context, id string) error
}

// Messages are shown when a failed request carries no server message.
type Messages struct {
	Load   string
	Create string
	Update string
	Delete string
}

type Binding[E, F, P any] struct {
	ID    func(E) string
	Label func(E) string
	// Draft seeds the edit draft from the entity's current values.
	Draft func(E) P
	// Validate runs before Create. A non-nil error stops the request.
	Validate func(F) error
	Messages Messages
}

type PendingDelete struct {
	ID    string
	Label string
}

type State[E, P any] struct {
	Items         []E
	Status        Status
	Error         string
	EditingID     string
	Draft         P
	PendingDelete *PendingDelete
}

func (s State[E, P]) Editing() bool {
	return s.EditingID != ""
}

type Controller[E, F, P any] struct {
	source  Source[E, F, P]
	binding Binding[E, F, P]

	mu       sync.Mutex
	state    State[E, P]
	closed   bool
	onChange func(State[E, P])
}

func New[E, F, P any](source Source[E, F, P], binding Binding[E, F, P]) *Controller[E, F, P] {
	if binding.Label == nil {
		binding.Label = binding.ID
	}
	return &Controller[E, F, P]{
		source:  source,
		binding: binding,
		state:   State[E, P]{Items: []E{}},
	}
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change, without the lock held.
func (c *Controller[E, F, P]) OnChange(fn func(State[E, P])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller[E, F, P]) Snapshot() State[E, P] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[E, F, P]) snapshotLocked() State[E, P] {
	out := c.state
	out.Items = make([]E, len(c.state.Items))
	copy(out.Items, c.state.Items)
	if c.state.PendingDelete != nil {
		pending := *c.state.PendingDelete
		out.PendingDelete = &pending
	}
	return out
}

// Close detaches the controller from its view. Requests already in flight
// still complete, but their results are dropped.
func (c *Controller[E, F, P]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.onChange = nil
}

func (c *Controller[E, F, P]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// update applies fn under the lock and notifies the listener. It reports
// false when the controller is closed and nothing was applied.
func (c *Controller[E, F, P]) update(fn func(*State[E, P])) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn(&c.state)
	snapshot := c.snapshotLocked()
	listener := c.onChange
	c.mu.Unlock()

	if listener != nil {
		listener(snapshot)
	}
	return true
}

func (c *Controller[E, F, P]) begin() bool {
	return c.update(func(s *State[E, P]) {
		s.Status = StatusLoading
		s.Error = ""
	})
}

func (c *Controller[E, F, P]) fail(err error, fallback string, apply func(*State[E, P])) error {
	applied := c.update(func(s *State[E, P]) {
		if apply != nil {
			apply(s)
		}
		s.Status = StatusError
		s.Error = Message(err, fallback)
	})
	if !applied {
		return ErrClosed
	}
	return err
}

func (c *Controller[E, F, P]) Fetch(ctx context.Context) error {
	if !c.begin() {
		return ErrClosed
	}

	items, err := c.source.List(ctx)
	if err != nil {
		return c.fail(err, c.binding.Messages.Load, func(s *State[E, P]) {
			s.Items = []E{}
		})
	}
	if items == nil {
		items = []E{}
	}
	if !c.update(func(s *State[E, P]) {
		s.Items = items
		s.Status = StatusLoaded
	}) {
		return ErrClosed
	}
	return nil
}

// Create validates fields, sends them and puts the new entity first.
// A validation failure sets Error without touching Status.
func (c *Controller[E, F, P]) Create(ctx context.Context, fields F) (E, error) {
	var zero E
	if c.binding.Validate != nil {
		if err := c.binding.Validate(fields); err != nil {
			if !c.update(func(s *State[E, P]) { s.Error = err.Error() }) {
				return zero, ErrClosed
			}
			return zero, err
		}
	}
	if !c.begin() {
		return zero, ErrClosed
	}

	created, err := c.source.Create(ctx, fields)
	if err != nil {
		return zero, c.fail(err, c.binding.Messages.Create, nil)
	}
	if !c.update(func(s *State[E, P]) {
		if s.Items == nil {
			s.Items = []E{}
		}
		items := make([]E, 0, len(s.Items)+1)
		items = append(items, created)
		s.Items = append(items, s.Items...)
		s.Status = StatusLoaded
	}) {
		return zero, ErrClosed
	}
	return created, nil
}

func (c *Controller[E, F, P]) BeginEdit(entity E) {
	id := c.binding.ID(entity)
	draft := c.binding.Draft(entity)
	c.update(func(s *State[E, P]) {
		s.EditingID = id
		s.Draft = draft
	})
}

// EditDraft changes the pending draft in place.
func (c *Controller[E, F, P]) EditDraft(fn func(*P)) error {
	var err error
	applied := c.update(func(s *State[E, P]) {
		if s.EditingID == "" {
			err = ErrNotEditing
			return
		}
		fn(&s.Draft)
	})
	if !applied {
		return ErrClosed
	}
	return err
}

// CommitEdit sends the draft for id. Edit mode stays open when the update
// fails.
func (c *Controller[E, F, P]) CommitEdit(ctx context.Context, id string) (E, error) {
	var zero E
	snapshot := c.Snapshot()
	if snapshot.EditingID == "" || snapshot.EditingID != id {
		return zero, ErrNotEditing
	}

	updated, err := c.Patch(ctx, id, snapshot.Draft)
	if err != nil {
		return zero, err
	}
	c.update(func(s *State[E, P]) {
		if s.EditingID == id {
			s.EditingID = ""
			var empty P
			s.Draft = empty
		}
	})
	return updated, nil
}

// Patch sends a partial update and replaces the matching entity where it
// stands.
func (c *Controller[E, F, P]) Patch(ctx context.Context, id string, patch P) (E, error) {
	var zero E
	if !c.begin() {
		return zero, ErrClosed
	}

	updated, err := c.source.Update(ctx, id, patch)
	if err != nil {
		return zero, c.fail(err, c.binding.Messages.Update, nil)
	}
	if !c.update(func(s *State[E, P]) {
		s.Items = c.replaced(s.Items, id, updated)
		s.Status = StatusLoaded
	}) {
		return zero, ErrClosed
	}
	return updated, nil
}

func (c *Controller[E, F, P]) CancelEdit() {
	c.update(func(s *State[E, P]) {
		s.EditingID = ""
		var empty P
		s.Draft = empty
	})
}

func (c *Controller[E, F, P]) RequestDelete(entity E) {
	pending := &PendingDelete{ID: c.binding.ID(entity), Label: c.binding.Label(entity)}
	c.update(func(s *State[E, P]) {
		s.PendingDelete = pending
	})
}

func (c *Controller[E, F, P]) CancelDelete() {
	c.update(func(s *State[E, P]) {
		s.PendingDelete = nil
	})
}

// ConfirmDelete removes the staged entity. The stage is cleared whether or
// not the request succeeds. Without a stage it does nothing.
func (c *Controller[E, F, P]) ConfirmDelete(ctx context.Context) error {
	pending := c.Snapshot().PendingDelete
	if pending == nil {
		return nil
	}
	if !c.begin() {
		return ErrClosed
	}

	if err := c.source.Remove(ctx, pending.ID); err != nil {
		return c.fail(err, c.binding.Messages.Delete, func(s *State[E, P]) {
			s.PendingDelete = nil
		})
	}
	if !c.update(func(s *State[E, P]) {
		s.Items = c.removed(s.Items, pending.ID)
		s.PendingDelete = nil
		s.Status = StatusLoaded
	}) {
		return ErrClosed
	}
	return nil
}

func (c *Controller[E, F, P]) replaced(items []E, id string, entity E) []E {
	out := make([]E, len(items))
	copy(out, items)
	for i, item := range out {
		if c.binding.ID(item) == id {
			out[i] = entity
			break
		}
	}
	return out
}

func (c *Controller[E, F, P]) removed(items []E, id string) []E {
	out := make([]E, 0, len(items))
	for _, item := range items {
		if c.binding.ID(item) != id {
			out = append(out, item)
		}
	}
	return out
}

// Message returns the server message carried by err, or fallback.
func Message(err error, fallback string) string {
	var carrier interface{ ServerMessage() string }
	if errors.As(err, &carrier) {
		if msg := strings.TrimSpace(carrier.ServerMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}
