package wallet

// EventSink receives session events. Record is called synchronously on the
// lifecycle path and must not block.
type EventSink interface {
	Record(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// Record calls f(ev).
func (f EventSinkFunc) Record(ev Event) {
	f(ev)
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

// Record forwards ev to every non-nil sink.
func (m MultiSink) Record(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ev)
		}
	}
}

type discardSink struct{}

func (discardSink) Record(Event) {}
