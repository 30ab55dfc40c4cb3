package formset

// EventKind identifies a form lifecycle transition
type EventKind int

const (
	// EventCreated fires when AddForm instantiates a new form
	EventCreated EventKind = iota
	// EventAdded fires when a form joins the counted set
	EventAdded
	// EventDeleted fires when a form is marked deleted
	EventDeleted
	// EventDestroyed fires when an extra form is pruned at startup
	EventDestroyed
)

var eventNames = [...]string{
	EventCreated:   "fastview-formset-createForm",
	EventAdded:     "fastview-formset-addForm",
	EventDeleted:   "fastview-formset-deleteForm",
	EventDestroyed: "fastview-formset-destroyForm",
}

// String returns the DOM event name used for the transition
func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// MarshalText encodes the kind as its event name
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is delivered to listeners once per state transition
type Event struct {
	Kind    EventKind
	Formset *Formset
	Form    Entry
}

// Listener receives events synchronously. Listeners must not panic.
type Listener func(Event)

type subscription struct {
	id       int
	listener Listener
}

// Emitter is an ordered, synchronous subscriber list
type Emitter struct {
	subs   []subscription
	nextID int
}

// Subscribe adds a listener and returns a function that removes it
func (e *Emitter) Subscribe(l Listener) (cancel func()) {
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription{id: id, listener: l})

	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to the listeners subscribed when Emit was called
func (e *Emitter) Emit(ev Event) {
	subs := e.subs
	for _, s := range subs {
		s.listener(ev)
	}
}

// Len returns the number of subscribed listeners
func (e *Emitter) Len() int {
	return len(e.subs)
}
