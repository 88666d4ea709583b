package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/schemagate/pkg/adapters/memory"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{"age": {"type": "int", "required": true, "min": 0, "max": 120}}`

// countingLoader counts reads and can hold them until released.
type countingLoader struct {
	*memory.Loader
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newCountingLoader(data map[string]string) *countingLoader {
	return &countingLoader{Loader: memory.NewLoader(data)}
}

func (l *countingLoader) GetSchema(id string) ([]byte, error) {
	l.calls.Add(1)
	if l.entered != nil {
		l.entered <- struct{}{}
	}
	if l.release != nil {
		<-l.release
	}
	return l.Loader.GetSchema(id)
}

type recordingObserver struct {
	mu       sync.Mutex
	hits     int
	misses   int
	compiles int
	failures int
}

func (o *recordingObserver) CacheHit(string) {
	o.mu.Lock()
	o.hits++
	o.mu.Unlock()
}

func (o *recordingObserver) CacheMiss(string) {
	o.mu.Lock()
	o.misses++
	o.mu.Unlock()
}

func (o *recordingObserver) Compiled(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failures++
		return
	}
	o.compiles++
}

func TestCache_GetOrCompile_ReturnsSameValidator(t *testing.T) {
	loader := newCountingLoader(map[string]string{"person": personSchema})
	obs := &recordingObserver{}
	c := New(loader, WithObserver(obs))
	ctx := context.Background()

	v1, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)
	v2, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)

	assert.Same(t, v1, v2)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, []string{"person"}, c.Cached())
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
	assert.Equal(t, 1, obs.compiles)
}

func TestCache_ConcurrentFirstUseCompilesOnce(t *testing.T) {
	loader := newCountingLoader(map[string]string{"person": personSchema})
	c := New(loader)

	const workers = 64
	var wg sync.WaitGroup
	results := make([]*schema.Validator, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := c.GetOrCompile(context.Background(), "person")
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}

func TestCache_DistinctIDsCompileIndependently(t *testing.T) {
	loader := newCountingLoader(map[string]string{
		"a": personSchema,
		"b": `{"name": {"type": "str"}}`,
	})
	c := New(loader)

	va, err := c.GetOrCompile(context.Background(), "a")
	require.NoError(t, err)
	vb, err := c.GetOrCompile(context.Background(), "b")
	require.NoError(t, err)

	assert.NotSame(t, va, vb)
	assert.Equal(t, []string{"a", "b"}, c.Cached())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	loader := newCountingLoader(map[string]string{"person": `{"age": {"type": "int", "min": 5, "max": 1}}`})
	obs := &recordingObserver{}
	c := New(loader, WithObserver(obs))
	ctx := context.Background()

	_, err := c.GetOrCompile(ctx, "person")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrInvalidConstraint)
	assert.Empty(t, c.Cached())

	loader.Set("person", personSchema)

	v, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, 1, obs.failures)
	assert.Equal(t, 1, obs.compiles)
}

func TestCache_NotFound(t *testing.T) {
	c := New(newCountingLoader(nil))
	_, err := c.GetOrCompile(context.Background(), "ghost")
	assert.ErrorIs(t, err, schema.ErrSchemaNotFound)
	assert.Empty(t, c.Cached())
}

func TestCache_Invalidate(t *testing.T) {
	loader := newCountingLoader(map[string]string{"person": personSchema})
	c := New(loader)
	ctx := context.Background()

	v1, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)

	c.Invalidate("person")
	assert.Empty(t, c.Cached())

	v2, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)
	assert.NotSame(t, v1, v2)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCache_InvalidateDuringCompileDoesNotInstall(t *testing.T) {
	loader := newCountingLoader(map[string]string{"person": personSchema})
	loader.entered = make(chan struct{}, 1)
	loader.release = make(chan struct{})
	c := New(loader)

	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompile(context.Background(), "person")
		done <- err
	}()

	<-loader.entered
	c.Invalidate("person")
	close(loader.release)

	require.NoError(t, <-done)
	_, cached := c.Peek("person")
	assert.False(t, cached, "stale compilation must not be installed")
}

func TestCache_Clear(t *testing.T) {
	c := New(newCountingLoader(map[string]string{"a": personSchema, "b": personSchema}))
	ctx := context.Background()
	_, err := c.GetOrCompile(ctx, "a")
	require.NoError(t, err)
	_, err = c.GetOrCompile(ctx, "b")
	require.NoError(t, err)

	c.Clear()
	assert.Empty(t, c.Cached())
}

func TestCache_ContextCancelledWhileWaiting(t *testing.T) {
	loader := newCountingLoader(map[string]string{"person": personSchema})
	loader.entered = make(chan struct{}, 1)
	loader.release = make(chan struct{})
	c := New(loader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompile(ctx, "person")
		done <- err
	}()

	<-loader.entered
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))

	close(loader.release)
	assert.Eventually(t, func() bool {
		_, ok := c.Peek("person")
		return ok
	}, time.Second, 10*time.Millisecond, "abandoned compilation still completes for later callers")
}

func TestCache_CompileOptions(t *testing.T) {
	loader := newCountingLoader(map[string]string{"event": `{"when": {"type": "datetime"}}`})

	_, err := New(loader).GetOrCompile(context.Background(), "event")
	assert.ErrorIs(t, err, schema.ErrUnsupportedType)

	v, err := New(loader, WithCompileOptions(schema.WithLenientTypes())).GetOrCompile(context.Background(), "event")
	require.NoError(t, err)
	f, _ := v.Field("when")
	assert.Equal(t, schema.Str, f.Type)
}

func TestCache_WatchInvalidate(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"person": personSchema})
	c := New(loader)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.WatchInvalidate(ctx, loader))

	_, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)
	require.Equal(t, []string{"person"}, c.Cached())

	loader.Set("person", `{"age": {"type": "int", "max": 10}}`)

	assert.Eventually(t, func() bool {
		return len(c.Cached()) == 0
	}, 2*time.Second, 10*time.Millisecond)

	v, err := c.GetOrCompile(ctx, "person")
	require.NoError(t, err)
	age, _ := v.Field("age")
	assert.Equal(t, 10.0, *age.Max)
}
