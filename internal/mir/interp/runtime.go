package interp

import (
	"github.com/pkg/errors"

	"methodsplit/internal/mir"
)

// Foreign is a runtime helper invoked by ForeignCall.
type Foreign func(it *Interpreter, args []Value) (Value, error)

// Names of the helpers used by tests and generated workloads.
const (
	Observe      = "observe"
	Fail         = "fail"
	CheckedValue = "checkedValue"
)

func defaultForeign() map[string]Foreign {
	return map[string]Foreign{
		mir.ListEntryArray:    newHandle(HandleList),
		mir.MappingEntryArray: newHandle(HandleMapping),
		mir.SetExpression:     setListEntry(false),
		mir.SetSpread:         setListEntry(true),
		mir.SetKeyValue:       setKeyValueEntry,
		Observe:               observe,
		Fail:                  fail,
		CheckedValue:          checkedValue,
	}
}

func newHandle(kind HandleKind) Foreign {
	return func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 1 {
			return nil, errors.Errorf("entry array: expected 1 argument, got %d", len(args))
		}
		size, ok := args[0].(int64)
		if !ok || size < 0 {
			return nil, errors.Errorf("entry array: bad size %s", Format(args[0]))
		}
		return &Handle{Kind: kind, slots: make([]handleSlot, size)}, nil
	}
}

// setListEntry implements (handle, value, index).
func setListEntry(spread bool) Foreign {
	return func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 3 {
			return nil, errors.Errorf("list entry: expected 3 arguments, got %d", len(args))
		}
		slot, err := handleSlotAt(args[0], args[2], HandleList)
		if err != nil {
			return nil, err
		}
		*slot = handleSlot{set: true, spread: spread, value: args[1]}
		return nil, nil
	}
}

// setKeyValueEntry implements (handle, key, value, index).
func setKeyValueEntry(it *Interpreter, args []Value) (Value, error) {
	if len(args) != 4 {
		return nil, errors.Errorf("key/value entry: expected 4 arguments, got %d", len(args))
	}
	slot, err := handleSlotAt(args[0], args[3], HandleMapping)
	if err != nil {
		return nil, err
	}
	*slot = handleSlot{set: true, key: args[1], value: args[2]}
	return nil, nil
}

func handleSlotAt(hv, iv Value, kind HandleKind) (*handleSlot, error) {
	h, ok := hv.(*Handle)
	if !ok || h.Kind != kind {
		return nil, errors.Errorf("%s is not a matching handle", Format(hv))
	}
	i, ok := iv.(int64)
	if !ok || i < 0 || int(i) >= len(h.slots) {
		return nil, errors.Errorf("entry index %s out of range [0,%d)", Format(iv), len(h.slots))
	}
	if h.slots[i].set {
		return nil, errors.Errorf("entry %d set twice", i)
	}
	return &h.slots[i], nil
}

func observe(it *Interpreter, args []Value) (Value, error) {
	it.Trace = append(it.Trace, args...)
	return nil, nil
}

func fail(it *Interpreter, args []Value) (Value, error) {
	msg := "failure"
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			msg = s
		} else {
			msg = Format(args[0])
		}
	}
	return nil, &Panic{Value: &ErrorValue{Message: msg}}
}

// checkedValue returns its int argument, or an error value when it is
// negative.
func checkedValue(it *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("checkedValue: expected 1 argument, got %d", len(args))
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, errors.Errorf("checkedValue: %s is not an int", Format(args[0]))
	}
	if n < 0 {
		return &ErrorValue{Message: "negative value"}, nil
	}
	return n, nil
}
