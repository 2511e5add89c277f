package xlgrid

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/javajack/xlgrid/cell"
)

// SelectionEvent reports a selected block of cells.
type SelectionEvent struct {
	EditorID uuid.UUID  `json:"editorId"`
	From     cell.Coord `json:"from"`
	To       cell.Coord `json:"to"`
	Single   bool       `json:"single"` // one cell selected
}

// ActivateEvent reports a cell opened for editing, such as by a double
// click. Object is the decoded content of an object cell.
type ActivateEvent struct {
	EditorID uuid.UUID      `json:"editorId"`
	At       cell.Coord     `json:"at"`
	Raw      string         `json:"raw"`
	Object   map[string]any `json:"object,omitempty"`
}

// OnChange registers a change listener. A returned error or a panic is
// forwarded to the error listeners.
func (e *Editor) OnChange(fn func(ChangeEvent) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = append(e.onChange, fn)
}

// OnError registers a listener for failures of other listeners. Without
// one, failures are logged.
func (e *Editor) OnError(fn func(error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = append(e.onError, fn)
}

// OnSelect registers a selection listener.
func (e *Editor) OnSelect(fn func(SelectionEvent) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSelect = append(e.onSelect, fn)
}

// Select reports a selection from one corner to the other to the selection
// listeners, synchronously.
func (e *Editor) Select(from, to cell.Coord) {
	ev := SelectionEvent{EditorID: e.id, From: from, To: to, Single: from == to}
	e.mu.Lock()
	handlers := slices.Clone(e.onSelect)
	e.mu.Unlock()
	for _, h := range handlers {
		e.safeCall("select", func() error { return h(ev) })
	}
}

// OnActivate registers a listener for every activated cell.
func (e *Editor) OnActivate(fn func(ActivateEvent) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onActivate = append(e.onActivate, fn)
}

// OnObjectActivate registers a listener for activated object cells only.
func (e *Editor) OnObjectActivate(fn func(ActivateEvent) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onObjectActivate = append(e.onObjectActivate, fn)
}

// Activate reports a cell to the activation listeners, synchronously. Object
// cells are reported to the object listeners too, after the others.
func (e *Editor) Activate(row, col int) error {
	at, err := coord(row, col)
	if err != nil {
		return err
	}
	e.mu.Lock()
	content := e.rows.get(at)
	handlers := slices.Clone(e.onActivate)
	var objHandlers []func(ActivateEvent) error
	if content.Kind == cell.Object {
		objHandlers = slices.Clone(e.onObjectActivate)
	}
	e.mu.Unlock()

	ev := ActivateEvent{EditorID: e.id, At: at, Raw: content.Raw()}
	if content.Kind == cell.Object {
		ev.Object = maps.Clone(content.Obj)
	}
	for _, h := range append(handlers, objHandlers...) {
		e.safeCall("activate", func() error { return h(ev) })
	}
	return nil
}

// safeCall runs a listener, turning errors and panics into error events.
func (e *Editor) safeCall(event string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			e.reportError(fmt.Errorf("%s listener panicked: %v", event, r))
		}
	}()
	if err := fn(); err != nil {
		e.reportError(fmt.Errorf("%s listener: %w", event, err))
	}
}

func (e *Editor) reportError(err error) {
	e.mu.Lock()
	handlers := slices.Clone(e.onError)
	e.mu.Unlock()

	if len(handlers) == 0 {
		e.log.Error("listener failed", "error", err)
		return
	}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Error("error listener panicked", "panic", r, "error", err)
				}
			}()
			h(err)
		}()
	}
}
