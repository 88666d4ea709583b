package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/schemagate/internal/logging"
	"github.com/aretw0/schemagate/pkg/adapters/memory"
	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/ports/tests"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	localPerson  = `{"name": {"type": "str", "required": true}}`
	remotePerson = `{"age": {"type": "int"}}`
	remoteOrder  = `{"total": {"type": "float", "min": 0}}`
)

type failingLoader struct{ err error }

func (f failingLoader) GetSchema(string) ([]byte, error) { return nil, f.err }
func (f failingLoader) ListSchemas() ([]string, error)   { return nil, f.err }

func TestLayered_Contract(t *testing.T) {
	local := memory.NewLoader(map[string]string{"person": localPerson})
	remote := memory.NewLoader(map[string]string{"person": remotePerson, "order": remoteOrder})

	tests.SchemaLoaderContractTest(t, NewLayered(local, remote), map[string][]byte{
		"person": []byte(localPerson),
		"order":  []byte(remoteOrder),
	})
}

func TestLayered_FirstLayerWins(t *testing.T) {
	local := memory.NewLoader(map[string]string{"person": localPerson})
	remote := memory.NewLoader(map[string]string{"person": remotePerson, "order": remoteOrder})
	l := Chain(local, WithFallback(remote))

	data, err := l.GetSchema("person")
	require.NoError(t, err)
	assert.JSONEq(t, localPerson, string(data))

	data, err = l.GetSchema("order")
	require.NoError(t, err)
	assert.JSONEq(t, remoteOrder, string(data))

	ids, err := l.ListSchemas()
	require.NoError(t, err)
	assert.Equal(t, []string{"order", "person"}, ids)
}

func TestLayered_StopsOnOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	remote := memory.NewLoader(map[string]string{"person": remotePerson})
	l := NewLayered(failingLoader{err: boom}, remote)

	_, err := l.GetSchema("person")
	assert.ErrorIs(t, err, boom)

	_, err = l.ListSchemas()
	assert.ErrorIs(t, err, boom)
}

func TestLayered_NotFoundEverywhere(t *testing.T) {
	l := NewLayered(memory.NewLoader(nil), failingLoader{err: schema.ErrSchemaNotFound})
	_, err := l.GetSchema("ghost")
	assert.ErrorIs(t, err, schema.ErrSchemaNotFound)
}

func TestLayered_WatchMergesLayers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := memory.NewLoader(nil)
	remote := memory.NewLoader(nil)
	l := NewLayered(local, failingLoader{err: schema.ErrSchemaNotFound}, remote)

	events, err := l.Watch(ctx)
	require.NoError(t, err)

	local.Set("a", localPerson)
	remote.Set("b", remotePerson)

	got := map[string]bool{}
	for len(got) < 2 {
		select {
		case id := <-events:
			got[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for events, got %v", got)
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, got)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelDebug, logging.FormatText)
	l := Chain(memory.NewLoader(map[string]string{"person": localPerson}), NewLoggingMiddleware(logger, "memory"))

	_, err := l.GetSchema("person")
	require.NoError(t, err)
	_, err = l.GetSchema("ghost")
	require.ErrorIs(t, err, schema.ErrSchemaNotFound)
	_, err = l.ListSchemas()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "schema loaded")
	assert.Contains(t, out, "schema not found")
	assert.Contains(t, out, "schemas listed")
	assert.Contains(t, out, "source=memory")
}

func TestLoggingMiddleware_BackendFailureIsWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelWarn, logging.FormatText)
	l := Chain(failingLoader{err: errors.New("timeout")}, NewLoggingMiddleware(logger, "redis"))

	_, err := l.GetSchema("person")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "schema lookup failed")
}

func TestLoggingMiddleware_KeepsWatchable(t *testing.T) {
	mw := NewLoggingMiddleware(logging.NewNop(), "x")

	_, ok := mw(memory.NewLoader(nil)).(ports.Watchable)
	assert.True(t, ok)

	_, ok = mw(failingLoader{}).(ports.Watchable)
	assert.False(t, ok)
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next ports.SchemaLoader) ports.SchemaLoader {
			order = append(order, name)
			return next
		}
	}
	Chain(memory.NewLoader(nil), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order)
}
