package xmlbind

import "reflect"

// Callback is invoked once with every fully built instance of the type it
// is registered on. The instance is a *T for struct schemas and a *Record
// for record schemas, the same value the caller receives.
type Callback interface {
	Invoke(instance any)
}

// CallbackFunc adapts a function to the Callback interface.
type CallbackFunc func(instance any)

// Invoke calls f.
func (f CallbackFunc) Invoke(instance any) { f(instance) }

// AfterParser is implemented by struct types that want to finish their own
// construction. Register adds the method as the type's first callback.
type AfterParser interface {
	AfterParse()
}

// AfterParse registers a typed callback on the schema of struct type T.
func AfterParse[T any](s *Schema, fn func(*T)) error {
	if s.goType != reflect.TypeFor[T]() {
		return s.errorf("", "callback for %v registered on schema of %v", reflect.TypeFor[T](), s.goType)
	}
	s.AfterParse(CallbackFunc(func(instance any) {
		fn(instance.(*T))
	}))
	return nil
}

// pending is an instance waiting for its callbacks.
type pending struct {
	schema   *Schema
	instance any
}

// fireCallbacks runs the callbacks of every constructed instance, children
// before their parents.
func fireCallbacks(queue []pending) {
	for _, p := range queue {
		for _, cb := range p.schema.callbacks {
			cb.Invoke(p.instance)
		}
	}
}
