package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `<!DOCTYPE html>
<html>
  <head><title> Counter </title><style>p{}</style></head>
  <body><p id="out" class="note big">zero</p><ul><li>a</li><li>b</li></ul>
    <script type="text/template">not code</script>
    <script src="https://cdn.example/lib.js"></script>
    <script>var seen = document.querySelectorAll('li').length;</script>
  </body>
</html>`

func newRuntime(t *testing.T, cfg Config) *Runtime {
	t.Helper()
	runtime, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { runtime.Close() })
	return runtime
}

func TestRuntimeExecution(t *testing.T) {
	runtime := newRuntime(t, DefaultConfig())

	tests := []struct {
		name   string
		script string
		want   interface{}
	}{
		{name: "simple return", script: "42", want: int64(42)},
		{name: "math operations", script: "Math.sqrt(16)", want: int64(4)},
		{name: "string operations", script: "'hello'.toUpperCase()", want: "HELLO"},
		{name: "window is global", script: "var x = 3; window.x", want: int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := runtime.Execute(context.Background(), tt.script, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, "ok", Outcome(result.Error))
		})
	}
}

func TestRuntimeSecurity(t *testing.T) {
	runtime := newRuntime(t, DefaultConfig())

	for _, script := range []string{
		"require('fs')",
		"process.exit(1)",
		"module.exports = {}",
	} {
		t.Run(script, func(t *testing.T) {
			result, err := runtime.Execute(context.Background(), script, nil)
			require.Error(t, err)
			require.NotNil(t, result)
			assert.Nil(t, result.Value)
			assert.Equal(t, "error", Outcome(err))
		})
	}
}

func TestRuntimeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 50 * time.Millisecond
	runtime := newRuntime(t, cfg)

	result, err := runtime.Execute(context.Background(), "while(true) {}", nil)
	require.Error(t, err)
	assert.Equal(t, "timeout", Outcome(result.Error))

	// The interrupt must not leak into the next run
	result, err = runtime.Execute(context.Background(), "1 + 1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Value)
}

func TestRuntimeContextCancel(t *testing.T) {
	runtime := newRuntime(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := runtime.Execute(ctx, "for(;;) {}", nil)
	assert.Equal(t, "cancelled", Outcome(err))
}

func TestRuntimeConsoleCapture(t *testing.T) {
	runtime := newRuntime(t, DefaultConfig())

	result, err := runtime.Execute(context.Background(), `
		console.log('info message', 1);
		console.warn('warning message');
		console.error('error message');
		alert('hey');
	`, nil)
	require.NoError(t, err)

	require.Len(t, result.Console, 4)
	assert.Equal(t, "info message 1", result.Console[0].Message)
	for i, level := range []string{"log", "warn", "error", "alert"} {
		assert.Equal(t, level, result.Console[i].Level)
	}
}

func TestRuntimeConsoleKeptOnError(t *testing.T) {
	runtime := newRuntime(t, DefaultConfig())

	result, err := runtime.Execute(context.Background(), "console.log('before'); undefinedFn()", nil)
	require.Error(t, err)
	require.Len(t, result.Console, 1)
	assert.Equal(t, "before", result.Console[0].Message)
}

func TestRuntimeDOM(t *testing.T) {
	runtime := newRuntime(t, DefaultConfig())
	dom, err := ParseDOM(testDocument)
	require.NoError(t, err)

	result, err := runtime.Execute(context.Background(), `
		var out = document.getElementById('out');
		out.textContent = 'one';
		out.setAttribute('data-state', 'done');
		console.log(document.title, out.tagName, out.className, document.getElementsByClassName('big').length);
		document.querySelector('#missing') === null
	`, dom)
	require.NoError(t, err)

	assert.Equal(t, true, result.Value)
	require.Len(t, result.Console, 1)
	assert.Equal(t, "Counter P note big 1", result.Console[0].Message)

	require.Len(t, result.DOMChanges, 2)
	assert.Equal(t, DOMChange{Type: "set_text", Selector: "#out", Value: "one"}, result.DOMChanges[0])
	assert.Equal(t, "data-state", result.DOMChanges[1].Property)

	html, err := dom.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `<p id="out" class="note big" data-state="done">one</p>`)
}

func TestDOMScripts(t *testing.T) {
	dom, err := ParseDOM(testDocument)
	require.NoError(t, err)

	scripts := dom.Scripts()
	require.Len(t, scripts, 1)
	assert.Contains(t, scripts[0], "querySelectorAll")
	assert.Equal(t, "Counter", dom.Title())
}

func TestDOMQuery(t *testing.T) {
	dom, err := ParseDOM(testDocument)
	require.NoError(t, err)

	tests := []struct {
		name     string
		selector string
		wantLen  int
	}{
		{name: "ID selector", selector: "#out", wantLen: 1},
		{name: "class selector", selector: ".note", wantLen: 1},
		{name: "tag selector", selector: "li", wantLen: 2},
		{name: "descendant selector", selector: "ul > li", wantLen: 2},
		{name: "non-existent", selector: "#not-found", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, dom.Query(tt.selector), tt.wantLen)
		})
	}
}

func TestPoolRunKeepsGlobalsAcrossBlocks(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)
	defer pool.Close()

	results, err := pool.Run(context.Background(), []string{
		"var a = 2;",
		"throw new Error('middle')",
		"console.log(a * 21)",
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
	require.Len(t, results[2].Console, 1)
	assert.Equal(t, "42", results[2].Console[0].Message)

	// Released runtimes come back with a clean global scope
	result, err := pool.Execute(context.Background(), "typeof a", nil)
	require.NoError(t, err)
	assert.Equal(t, "undefined", result.Value)
}

func TestPoolAcquireRelease(t *testing.T) {
	pool, err := NewPool(DefaultConfig(), 2)
	require.NoError(t, err)

	runtime, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Stats().InUse)

	require.NoError(t, pool.Release(runtime))
	assert.Equal(t, 2, pool.Stats().Available)

	require.NoError(t, pool.Close())
	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, pool.Stats().Closed)
}

func TestRuntimeAllocationLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 1 << 10
	runtime := newRuntime(t, cfg)

	for _, script := range []string{
		"'x'.repeat(1 << 29)",
		"'ab'.repeat(600)",
		"''.padStart(1 << 30, 'y')",
		"'z'.padEnd(1 << 30)",
		"new Array(1 << 30)",
		"Array(1 << 30).fill(0)",
	} {
		t.Run(script, func(t *testing.T) {
			start := time.Now()
			result, err := runtime.Execute(context.Background(), script, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), AllocationError)
			assert.Equal(t, "error", Outcome(result.Error))
			assert.Less(t, time.Since(start), time.Second)
		})
	}

	// Small allocations behave as usual
	for script, want := range map[string]interface{}{
		"'ab'.repeat(3)":              "ababab",
		"'7'.padStart(3, '0')":        "007",
		"'7'.padEnd(2, '!')":          "7!",
		"new Array(4).length":         int64(4),
		"Array(1, 2, 3).join('-')":    "1-2-3",
		"Array.isArray(new Array(2))": true,
		"'x'.repeat(1 << 10).length":  int64(1 << 10),
	} {
		result, err := runtime.Execute(context.Background(), script, nil)
		require.NoError(t, err, script)
		assert.Equal(t, want, result.Value, script)
	}
}

func TestRuntimeAllocationLimitSurvivesReset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLength = 16
	runtime := newRuntime(t, cfg)
	require.NoError(t, runtime.Reset())

	_, err := runtime.Execute(context.Background(), "'x'.repeat(17)", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), AllocationError)
}

func TestPoolRunSharesTimeoutAcrossBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond
	pool, err := NewPool(cfg, 1)
	require.NoError(t, err)
	defer pool.Close()

	scripts := make([]string, 20)
	for i := range scripts {
		scripts[i] = "while (true) {}"
	}

	start := time.Now()
	results, err := pool.Run(context.Background(), scripts, nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	// At most the block that hit the deadline and one racing it ran
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 2)
	for _, result := range results {
		assert.Equal(t, "timeout", Outcome(result.Error))
	}

	// The runtime is free again for the next document
	assert.Equal(t, 1, pool.Stats().Available)
}
