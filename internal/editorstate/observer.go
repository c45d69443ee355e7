package editorstate

// Observer is notified when the editor action or its enabled state changes.
type Observer interface {
	ActionChanged(action Action)
	ActionAllowedChanged(allowed bool)
}

// ObserverFuncs adapts plain functions to Observer. Nil functions are skipped.
type ObserverFuncs struct {
	OnAction  func(Action)
	OnAllowed func(bool)
}

func (f ObserverFuncs) ActionChanged(action Action) {
	if f.OnAction != nil {
		f.OnAction(action)
	}
}

func (f ObserverFuncs) ActionAllowedChanged(allowed bool) {
	if f.OnAllowed != nil {
		f.OnAllowed(allowed)
	}
}

// EventKind tells which value an Event carries.
type EventKind string

const (
	EventActionChanged        EventKind = "actionChanged"
	EventActionAllowedChanged EventKind = "actionAllowedChanged"
)

// Event is one observed state transition.
type Event struct {
	Kind    EventKind `json:"kind"`
	Action  *Action   `json:"action,omitempty"`
	Allowed *bool     `json:"allowed,omitempty"`
}

func actionEvent(action Action) Event {
	return Event{Kind: EventActionChanged, Action: &action}
}

func allowedEvent(allowed bool) Event {
	return Event{Kind: EventActionAllowedChanged, Allowed: &allowed}
}

// Recorder collects events in order.
type Recorder struct {
	Events []Event
}

func (r *Recorder) ActionChanged(action Action) {
	r.Events = append(r.Events, actionEvent(action))
}

func (r *Recorder) ActionAllowedChanged(allowed bool) {
	r.Events = append(r.Events, allowedEvent(allowed))
}

// ChannelObserver publishes events on a buffered channel. Sends block once
// the buffer is full, so the consumer must keep draining Events.
type ChannelObserver struct {
	events chan Event
}

// NewChannelObserver returns a ChannelObserver with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{events: make(chan Event, buffer)}
}

// Events returns the channel events are delivered on.
func (o *ChannelObserver) Events() <-chan Event {
	return o.events
}

// Close closes the events channel. No state updates may follow.
func (o *ChannelObserver) Close() {
	close(o.events)
}

func (o *ChannelObserver) ActionChanged(action Action) {
	o.events <- actionEvent(action)
}

func (o *ChannelObserver) ActionAllowedChanged(allowed bool) {
	o.events <- allowedEvent(allowed)
}

type nopObserver struct{}

func (nopObserver) ActionChanged(Action)      {}
func (nopObserver) ActionAllowedChanged(bool) {}
