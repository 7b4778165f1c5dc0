package logpipe

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Literals(t *testing.T) {
	ctx := NewContext()
	entry := Entry{Prefix: "db", Name: "query", Body: map[string]any{"rows": 3}}

	assert.Nil(t, Resolve(nil, ctx))
	assert.Equal(t, Text("hello"), Resolve("hello", ctx))
	assert.Equal(t, Text("hello"), Resolve(Text("hello"), ctx))
	assert.Equal(t, entry, Resolve(entry, ctx))
	assert.Equal(t, entry, Resolve(&entry, ctx))
	assert.Nil(t, Resolve((*Entry)(nil), ctx))
	assert.Equal(t, Entry{Body: map[string]any{"k": "v"}}, Resolve(map[string]any{"k": "v"}, ctx))
}

func TestResolve_Error(t *testing.T) {
	got := Resolve(pkgerrors.New("broken pipe"), NewContext())
	entry, ok := got.(Entry)
	require.True(t, ok)
	assert.Equal(t, "error", entry.Name)
	assert.Equal(t, "broken pipe", entry.Body)
	assert.Contains(t, entry.Stack, "TestResolve_Error")

	plain := Resolve(errors.New("plain"), NewContext()).(Entry)
	assert.Equal(t, "plain", plain.Body)
	assert.Empty(t, plain.Stack)
}

func TestResolve_Functions(t *testing.T) {
	ctx := NewContext().With("env", "prod")

	cases := []struct {
		name string
		raw  any
		want Message
	}{
		{"message func", MessageFunc(func(c Context) any { return c["env"].(string) }), Text("prod")},
		{"func any", func(c Context) any { return Entry{Body: c.Name()} }, Entry{Body: DefaultLoggerName}},
		{"func string", func(c Context) string { return "s" }, Text("s")},
		{"func text", func(c Context) Text { return "t" }, Text("t")},
		{"func entry", func(c Context) Entry { return Entry{Name: "n"} }, Entry{Name: "n"}},
		{"func message", func(c Context) Message { return Text("m") }, Text("m")},
		{"func entry pointer", MessageFunc(func(Context) any { return &Entry{Body: "p"} }), Entry{Body: "p"}},
		{"func record", func(c Context) any { return map[string]any{"env": c["env"]} }, Entry{Body: map[string]any{"env": "prod"}}},
		{"func error", func(Context) any { return errors.New("tx failed") }, Entry{Name: "error", Body: "tx failed"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.raw, ctx))
		})
	}
}

func TestResolve_Fallback(t *testing.T) {
	ctx := NewContext()
	cases := []struct {
		name  string
		raw   any
		cause string
	}{
		{"panic with string", MessageFunc(func(Context) any { panic("kaboom") }), "kaboom"},
		{"panic with error", MessageFunc(func(Context) any { panic(errors.New("bad")) }), "bad"},
		{"number return", MessageFunc(func(Context) any { return 42 }), errMsgInvalidMessage},
		{"nil return", MessageFunc(func(Context) any { return nil }), errMsgInvalidMessage},
		{"nil message return", func(Context) Message { return nil }, errMsgInvalidMessage},
		{"nil entry pointer return", MessageFunc(func(Context) any { return (*Entry)(nil) }), errMsgInvalidMessage},
		{"nested function return", MessageFunc(func(Context) any { return func(Context) string { return "x" } }), errMsgInvalidMessage},
		{"unsupported literal", 3.14, errMsgUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got Message
			require.NotPanics(t, func() { got = Resolve(tc.raw, ctx) })
			entry, ok := got.(Entry)
			require.True(t, ok)
			assert.Equal(t, ResolveFailedMessage, entry.Body)
			assert.Contains(t, entry.Stack, tc.cause)
		})
	}
}

func TestEntry_BodyString(t *testing.T) {
	assert.Equal(t, "", Entry{}.BodyString())
	assert.Equal(t, "plain", Entry{Body: "plain"}.BodyString())
	assert.Equal(t, "text", Entry{Body: Text("text")}.BodyString())
	assert.Equal(t, "Warn", Entry{Body: LevelWarn}.BodyString())
	assert.JSONEq(t, `{"a":[1,2],"b":{"c":true}}`,
		Entry{Body: map[string]any{"a": []int{1, 2}, "b": map[string]any{"c": true}}}.BodyString())
}

func TestAsEntry(t *testing.T) {
	assert.Equal(t, Entry{Body: "x"}, AsEntry(Text("x")))
	e := Entry{Name: "n", Body: "b"}
	assert.Equal(t, e, AsEntry(e))
	assert.Equal(t, Entry{}, AsEntry(nil))
}
