package logpipe

import (
	"fmt"

	"github.com/goccy/go-json"
	pkgerrors "github.com/pkg/errors"
)

// Message is a resolved log message, either a Text or an Entry. Resolution
// keeps the literal form; sinks that need a structured shape call AsEntry.
type Message interface {
	message()
}

// Text is a plain string message.
type Text string

func (Text) message() {}

// Entry is a structured message. Body is a string or nested structured
// data (maps, slices, structs).
type Entry struct {
	Prefix string `json:"prefix,omitempty"`
	Name   string `json:"name,omitempty"`
	Stack  string `json:"stack,omitempty"`
	Body   any    `json:"message"`
}

func (Entry) message() {}

// BodyString renders the body for text sinks. Strings are returned as is,
// anything else is JSON encoded.
func (e Entry) BodyString() string {
	switch b := e.Body.(type) {
	case nil:
		return emptyString
	case string:
		return b
	case Text:
		return string(b)
	case fmt.Stringer:
		return b.String()
	}
	data, err := json.Marshal(e.Body)
	if err != nil {
		return fmt.Sprint(e.Body)
	}
	return string(data)
}

// AsEntry wraps m into an Entry. A nil message yields the zero Entry.
func AsEntry(m Message) Entry {
	switch v := m.(type) {
	case Entry:
		return v
	case Text:
		return Entry{Body: string(v)}
	}
	return Entry{}
}

// MessageFunc derives a message from the current logger context. The
// returned value may be any literal form Resolve accepts.
type MessageFunc func(Context) any

// Resolve turns a raw message into a Message using ctx for function forms.
// A nil raw message resolves to nil (absent). Function forms that panic or
// return nil or an unsupported value, and unsupported literal types, resolve
// to the fallback entry whose body is ResolveFailedMessage. Resolve never
// panics.
func Resolve(raw any, ctx Context) Message {
	switch r := raw.(type) {
	case nil:
		return nil
	case MessageFunc:
		return resolveFunc(func() any { return r(ctx) })
	case func(Context) any:
		return resolveFunc(func() any { return r(ctx) })
	case func(Context) string:
		return resolveFunc(func() any { return r(ctx) })
	case func(Context) Text:
		return resolveFunc(func() any { return r(ctx) })
	case func(Context) Entry:
		return resolveFunc(func() any { return r(ctx) })
	case func(Context) Message:
		return resolveFunc(func() any { return r(ctx) })
	}
	if msg, ok := resolveLiteral(raw); ok {
		return msg
	}
	return fallbackEntry(pkgerrors.Errorf("%s %T", errMsgUnsupportedType, raw))
}

// resolveLiteral handles the non-function forms. A nil *Entry resolves to
// nil.
func resolveLiteral(raw any) (Message, bool) {
	switch r := raw.(type) {
	case Text:
		return r, true
	case string:
		return Text(r), true
	case Entry:
		return r, true
	case *Entry:
		if r == nil {
			return nil, true
		}
		return *r, true
	case map[string]any:
		return Entry{Body: r}, true
	case error:
		return Entry{Name: "error", Body: r.Error(), Stack: stackOf(r)}, true
	}
	return nil, false
}

func resolveFunc(fn func() any) (msg Message) {
	defer func() {
		if r := recover(); r != nil {
			msg = fallbackEntry(panicError(r))
		}
	}()

	if m, ok := resolveLiteral(fn()); ok && m != nil {
		return m
	}
	return fallbackEntry(pkgerrors.New(errMsgInvalidMessage))
}

func fallbackEntry(cause error) Entry {
	return Entry{
		Body:  ResolveFailedMessage,
		Stack: fmt.Sprintf("%+v", cause),
	}
}

// panicError converts a recovered value into an error carrying a stack.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return pkgerrors.WithStack(err)
	}
	return pkgerrors.Errorf("%v", r)
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// stackOf returns the stack recorded by pkg/errors, if any.
func stackOf(err error) string {
	var st stackTracer
	for e := err; e != nil; e = pkgerrors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s
		}
	}
	if st == nil {
		return emptyString
	}
	return fmt.Sprintf("%+v", st.StackTrace())
}
