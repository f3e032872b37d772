package monitor

import "go.uber.org/zap"

// changeObserver remembers the last value of a field and logs when it changes.
type changeObserver[T comparable] struct {
	name  string
	value T
	seen  bool
}

func newChangeObserver[T comparable](name string) *changeObserver[T] {
	return &changeObserver[T]{name: name}
}

// update stores v and reports whether it differs from the previous value.
// The first value always counts as a change.
func (o *changeObserver[T]) update(v T) bool {
	if o.seen && o.value == v {
		return false
	}
	o.value = v
	o.seen = true
	return true
}

// observe is update plus a log line for changes after the first value.
func (o *changeObserver[T]) observe(log *zap.Logger, v T) bool {
	previous, hadPrevious := o.value, o.seen
	if !o.update(v) {
		return false
	}
	if hadPrevious {
		log.Info("value changed",
			zap.String("field", o.name),
			zap.Any("from", previous),
			zap.Any("to", v),
		)
	}
	return true
}
