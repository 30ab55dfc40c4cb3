package formset

import (
	"encoding/json"
	"testing"
)

func TestEventKindNames(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventCreated, "fastview-formset-createForm"},
		{EventAdded, "fastview-formset-addForm"},
		{EventDeleted, "fastview-formset-deleteForm"},
		{EventDestroyed, "fastview-formset-destroyForm"},
		{EventKind(99), "unknown"},
		{EventKind(-1), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}

	data, err := json.Marshal(map[string]EventKind{"kind": EventDeleted})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"kind":"fastview-formset-deleteForm"}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestEmitterOrder(t *testing.T) {
	var e Emitter
	var got []string

	e.Subscribe(func(Event) { got = append(got, "a") })
	cancelB := e.Subscribe(func(Event) { got = append(got, "b") })
	e.Subscribe(func(Event) { got = append(got, "c") })

	e.Emit(Event{Kind: EventAdded})
	cancelB()
	cancelB()
	e.Emit(Event{Kind: EventAdded})

	want := "abcac"
	if s := join(got); s != want {
		t.Errorf("delivery order = %q, want %q", s, want)
	}
	if e.Len() != 2 {
		t.Errorf("Len = %d, want 2", e.Len())
	}
}

func TestEmitterSubscribeDuringEmit(t *testing.T) {
	var e Emitter
	calls := 0

	e.Subscribe(func(Event) {
		calls++
		e.Subscribe(func(Event) { calls += 10 })
	})

	// The listener added during delivery only sees later events
	e.Emit(Event{})
	if calls != 1 {
		t.Errorf("calls = %d after first emit, want 1", calls)
	}
	e.Emit(Event{})
	if calls != 12 {
		t.Errorf("calls = %d after second emit, want 12", calls)
	}
}

func TestEmitterCancelDuringEmit(t *testing.T) {
	var e Emitter
	var got []string

	var cancelB func()
	e.Subscribe(func(Event) {
		got = append(got, "a")
		cancelB()
	})
	cancelB = e.Subscribe(func(Event) { got = append(got, "b") })

	e.Emit(Event{})
	e.Emit(Event{})

	if s := join(got); s != "aba" {
		t.Errorf("delivery = %q, want %q", s, "aba")
	}
}

func join(parts []string) string {
	s := ""
	for _, p := range parts {
		s += p
	}
	return s
}
