package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Runtime wraps goja VM with security controls
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	r := &Runtime{
		config: config,
	}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs JavaScript code with timeout and resource limits. The
// returned error is the script's own failure; it is also stored in
// Result.Error.
func (r *Runtime) Execute(ctx context.Context, script string, dom *DOM) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vm := r.vm
	if vm == nil {
		return nil, ErrRuntimeClosed
	}

	start := time.Now()
	result := &Result{}

	// An interrupt may have landed after the previous run completed
	vm.ClearInterrupt()

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	if dom != nil && r.config.EnableDOM {
		r.injectDOM(dom)
	}

	timer := time.AfterFunc(r.config.Timeout, func() {
		vm.Interrupt(ErrExecutionTimeout)
	})
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(context.Cause(ctx))
	})

	val, err := vm.RunString(script)

	timer.Stop()
	stop()

	result.Duration = time.Since(start)

	r.consoleMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	if dom != nil {
		result.DOMChanges = dom.GetChanges()
	}

	if err != nil {
		result.Error = err
		return result, err
	}

	result.Value = exportValue(val)
	return result, nil
}

// Outcome classifies an execution error as "ok", "timeout", "cancelled"
// or "error"
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if v, ok := interrupted.Value().(error); ok && errors.Is(v, ErrExecutionTimeout) {
			return "timeout"
		}
		return "cancelled"
	}
	return "error"
}

// reset installs a fresh VM with the restricted global scope
func (r *Runtime) reset() error {
	vm := goja.New()
	if r.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.vm = vm
	r.console = []LogEntry{}
	return r.setupGlobals()
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	vm := r.vm

	// Remove Node-style globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }

	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error", "debug"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := vm.Set("console", console); err != nil {
			return err
		}
		if err := vm.Set("alert", r.makeConsoleFunc("alert")); err != nil {
			return err
		}
	} else {
		if err := vm.Set("alert", noop); err != nil {
			return err
		}
	}

	// Timers never fire in the probe
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval", "requestAnimationFrame"} {
		if err := vm.Set(name, noop); err != nil {
			return err
		}
	}

	if err := vm.Set("window", vm.GlobalObject()); err != nil {
		return err
	}
	return r.guardAllocations()
}

// allocationGuard wraps the builtins that allocate a caller-chosen length
// in one native step, where an interrupt cannot land.
const allocationGuard = `(function (limit, message) {
	var check = function (n) {
		if (n > limit) throw new RangeError(message);
	};
	var wrap = function (name, length) {
		var original = String.prototype[name];
		Object.defineProperty(String.prototype, name, {
			value: function () {
				check(length(String(this), arguments));
				return original.apply(this, arguments);
			},
			writable: true,
			configurable: true
		});
	};
	wrap("repeat", function (s, args) { return s.length * Number(args[0]); });
	wrap("padStart", function (s, args) { return Number(args[0]); });
	wrap("padEnd", function (s, args) { return Number(args[0]); });

	var sized = function (args) {
		if (args.length === 1 && typeof args[0] === "number") check(args[0]);
	};
	Array = new Proxy(Array, {
		construct: function (target, args, newTarget) {
			sized(args);
			return Reflect.construct(target, args, newTarget);
		},
		apply: function (target, self, args) {
			sized(args);
			return Reflect.apply(target, self, args);
		}
	});
})(%d, %q);`

// guardAllocations installs length checks on allocating builtins
func (r *Runtime) guardAllocations() error {
	if r.config.MaxLength <= 0 {
		return nil
	}
	_, err := r.vm.RunString(fmt.Sprintf(allocationGuard, r.config.MaxLength, AllocationError))
	return err
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// injectDOM injects the document proxy into the runtime
func (r *Runtime) injectDOM(dom *DOM) {
	vm := r.vm
	document := vm.NewObject()

	first := func(selector string) goja.Value {
		elements := dom.Query(selector)
		if len(elements) == 0 {
			return goja.Null()
		}
		return r.elementValue(elements[0])
	}
	all := func(selector string) goja.Value {
		elements := dom.Query(selector)
		values := make([]interface{}, 0, len(elements))
		for _, elem := range elements {
			values = append(values, r.elementValue(elem))
		}
		return vm.NewArray(values...)
	}

	_ = document.Set("querySelector", first)
	_ = document.Set("querySelectorAll", all)
	_ = document.Set("getElementById", func(id string) goja.Value {
		return first("[id=" + strconv.Quote(id) + "]")
	})
	_ = document.Set("getElementsByClassName", func(names string) goja.Value {
		fields := strings.Fields(names)
		if len(fields) == 0 {
			return vm.NewArray()
		}
		return all("." + strings.Join(fields, "."))
	})
	_ = document.Set("getElementsByTagName", all)
	_ = document.Set("addEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	_ = document.Set("body", first("body"))
	_ = document.Set("head", first("head"))
	_ = document.Set("title", dom.Title())

	_ = vm.Set("document", document)
}

// elementValue creates a proxy object for a DOM element
func (r *Runtime) elementValue(elem *Element) goja.Value {
	vm := r.vm
	obj := vm.NewObject()

	_ = obj.Set("tagName", elem.TagName())
	_ = obj.Set("id", elem.ID())
	_ = obj.Set("className", elem.ClassName())
	_ = obj.Set("getAttribute", func(name string) goja.Value {
		value, ok := elem.GetAttribute(name)
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(value)
	})
	_ = obj.Set("setAttribute", func(name, value string) {
		elem.SetAttribute(name, value)
	})
	_ = obj.Set("addEventListener", func(goja.FunctionCall) goja.Value { return goja.Undefined() })

	r.accessor(obj, "textContent", elem.TextContent, elem.SetTextContent)
	r.accessor(obj, "innerText", elem.TextContent, elem.SetTextContent)
	r.accessor(obj, "innerHTML", elem.InnerHTML, elem.SetInnerHTML)

	return obj
}

func (r *Runtime) accessor(obj *goja.Object, name string, get func() string, set func(string)) {
	vm := r.vm
	getter := vm.ToValue(func(goja.FunctionCall) goja.Value {
		return vm.ToValue(get())
	})
	setter := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		set(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = obj.DefineAccessorProperty(name, getter, setter, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset replaces the VM so no state leaks into the next run
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return ErrRuntimeClosed
	}
	return r.reset()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
