package sandboxes

import (
	"archive/zip"
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/reusee/starlarkutil"
	starlarkjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"port/logs"
	"port/protocols"
	"port/syncs"
)

//go:embed prelude.star
var preludeSource []byte

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// StarlarkRuntime runs the inspection script on its own executor goroutine.
// The engine side talks to it only through the event messages; there is no
// shared state across the boundary.
type StarlarkRuntime struct {
	name   string
	source []byte
	locale string
	logger logs.Logger

	in     chan protocols.Event
	out    chan protocols.Event
	sem    syncs.Semaphore
	closed chan struct{}
}

func NewStarlarkRuntime(
	name string,
	source []byte,
	locale string,
	logger logs.Logger,
) *StarlarkRuntime {
	r := &StarlarkRuntime{
		name:   name,
		source: source,
		locale: locale,
		logger: logger,
		in:     make(chan protocols.Event),
		out:    make(chan protocols.Event),
		sem:    syncs.NewSemaphore(1),
		closed: make(chan struct{}),
	}
	go r.serve()
	return r
}

// Close discards the sandbox. A script blocked at a suspension point is
// abandoned, not unwound.
func (r *StarlarkRuntime) Close() {
	select {
	case <-r.closed:
	default:
		close(r.closed)
	}
}

func (r *StarlarkRuntime) Initialise(ctx context.Context) error {
	ev, err := r.roundTrip(ctx, protocols.EventInitialise{})
	if err != nil {
		return err
	}
	done, ok := ev.(protocols.EventInitialiseDone)
	if !ok {
		return fmt.Errorf("unexpected event: %T", ev)
	}
	if done.Err != "" {
		return fmt.Errorf("initialise: %s", done.Err)
	}
	return nil
}

func (r *StarlarkRuntime) Start(ctx context.Context, sessionID int64) (protocols.Command, error) {
	return r.cycle(ctx, protocols.EventFirstRunCycle{
		SessionID: sessionID,
	})
}

func (r *StarlarkRuntime) Resume(ctx context.Context, payload protocols.Payload) (protocols.Command, error) {
	return r.cycle(ctx, protocols.EventNextRunCycle{
		Response: protocols.Response{
			Payload: payload,
		},
	})
}

func (r *StarlarkRuntime) cycle(ctx context.Context, ev protocols.Event) (protocols.Command, error) {
	reply, err := r.roundTrip(ctx, ev)
	if err != nil {
		return nil, err
	}
	done, ok := reply.(protocols.EventRunCycleDone)
	if !ok {
		return nil, fmt.Errorf("unexpected event: %T", reply)
	}
	if done.Err != "" {
		return nil, errors.New(done.Err)
	}
	return done.Command, nil
}

func (r *StarlarkRuntime) roundTrip(ctx context.Context, ev protocols.Event) (protocols.Event, error) {
	r.sem.Acquire()
	defer r.sem.Release()

	select {
	case r.in <- ev:
	case <-r.closed:
		return nil, errors.New("sandbox closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case reply := <-r.out:
		return reply, nil
	case <-r.closed:
		return nil, errors.New("sandbox closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *StarlarkRuntime) emit(ev protocols.Event) {
	select {
	case r.out <- ev:
	case <-r.closed:
	}
}

// serve is the sandbox executor loop.
func (r *StarlarkRuntime) serve() {
	var (
		initialised bool
		started     bool
		pending     bool
		process     starlark.Callable
	)

	fs := NewVirtualFS()
	suspends := make(chan protocols.Command)
	resumes := make(chan starlark.Value)
	scriptDone := make(chan error, 1)

	awaitCycle := func() protocols.Event {
		select {
		case command := <-suspends:
			pending = true
			return protocols.EventRunCycleDone{Command: command}
		case err := <-scriptDone:
			if err != nil {
				return protocols.EventRunCycleDone{Err: err.Error()}
			}
			return protocols.EventRunCycleDone{}
		case <-r.closed:
			return nil
		}
	}

	for {
		var ev protocols.Event
		select {
		case ev = <-r.in:
		case <-r.closed:
			return
		}

		switch ev := ev.(type) {

		case protocols.EventInitialise:
			if initialised {
				r.emit(protocols.EventInitialiseDone{
					Err: "already initialised",
				})
				continue
			}
			fn, err := r.load(fs, suspends, resumes)
			if err != nil {
				r.emit(protocols.EventInitialiseDone{Err: err.Error()})
				continue
			}
			process = fn
			initialised = true
			r.emit(protocols.EventInitialiseDone{})

		case protocols.EventFirstRunCycle:
			if !initialised {
				r.emit(protocols.EventRunCycleDone{
					Err: "protocol violation: not initialised",
				})
				continue
			}
			if started {
				r.emit(protocols.EventRunCycleDone{
					Err: "protocol violation: already started",
				})
				continue
			}
			started = true
			sessionID := ev.SessionID
			go func() {
				thread := &starlark.Thread{Name: r.name}
				_, err := starlark.Call(
					thread,
					process,
					starlark.Tuple{starlark.MakeInt64(sessionID)},
					nil,
				)
				scriptDone <- err
			}()
			reply := awaitCycle()
			if reply == nil {
				return
			}
			r.emit(reply)

		case protocols.EventNextRunCycle:
			if !pending {
				r.emit(protocols.EventRunCycleDone{
					Err: "protocol violation: no cycle pending",
				})
				continue
			}
			payload := ev.Response.Payload
			if file, ok := payload.(protocols.PayloadFile); ok {
				// the script receives a virtual path, never the bytes
				path := fs.Mount(file.Name, file.Data)
				payload = protocols.PayloadString{Value: path}
			}
			value, err := payloadValue(payload)
			if err != nil {
				r.emit(protocols.EventRunCycleDone{Err: err.Error()})
				continue
			}
			pending = false
			select {
			case resumes <- value:
			case <-r.closed:
				return
			}
			reply := awaitCycle()
			if reply == nil {
				return
			}
			r.emit(reply)

		default:
			r.emit(protocols.EventRunCycleDone{
				Err: fmt.Sprintf("unexpected event: %T", ev),
			})
		}
	}
}

// load compiles the prelude and the script and resolves its process
// function. Called once; calling initialise again is undefined by contract,
// here it reports an error.
func (r *StarlarkRuntime) load(
	fs *VirtualFS,
	suspends chan protocols.Command,
	resumes chan starlark.Value,
) (starlark.Callable, error) {

	suspend := func(command protocols.Command) (starlark.Value, error) {
		select {
		case suspends <- command:
		case <-r.closed:
			return nil, errors.New("sandbox closed")
		}
		select {
		case value := <-resumes:
			return value, nil
		case <-r.closed:
			return nil, errors.New("sandbox closed")
		}
	}

	predeclared := starlark.StringDict{
		"json": starlarkjson.Module,

		"log": starlarkutil.MakeFunc("log", func(msg string) {
			r.logger.Info("script", "msg", msg)
		}),

		"locale": starlarkutil.MakeFunc("locale", func() string {
			return r.locale
		}),

		"render_page": starlark.NewBuiltin("render_page",
			func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var pageValue starlark.Value
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &pageValue); err != nil {
					return nil, err
				}
				data, err := starlarkToJSON(pageValue)
				if err != nil {
					return nil, err
				}
				page, err := protocols.UnmarshalPage(data)
				if err != nil {
					return nil, err
				}
				return suspend(protocols.CommandUIRender{Page: page})
			}),

		"donate": starlark.NewBuiltin("donate",
			func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var key, jsonString string
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &key, &jsonString); err != nil {
					return nil, err
				}
				return suspend(protocols.CommandSystemDonate{
					Key:        key,
					JSONString: jsonString,
				})
			}),

		"read_file": starlark.NewBuiltin("read_file",
			func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var path string
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &path); err != nil {
					return nil, err
				}
				data, err := fs.Read(path)
				if err != nil {
					return nil, err
				}
				return starlark.String(data), nil
			}),

		"zip_entries": starlark.NewBuiltin("zip_entries",
			func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
				var path string
				if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &path); err != nil {
					return nil, err
				}
				data, err := fs.Read(path)
				if err != nil {
					return nil, err
				}
				reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
				if err != nil {
					return nil, err
				}
				var names []starlark.Value
				for _, file := range reader.File {
					names = append(names, starlark.String(file.Name))
				}
				return starlark.NewList(names), nil
			}),
	}

	thread := &starlark.Thread{Name: "initialise"}

	preludeGlobals, err := starlark.ExecFileOptions(
		fileOptions, thread, "prelude.star", preludeSource, predeclared,
	)
	if err != nil {
		return nil, fmt.Errorf("load prelude: %w", err)
	}

	env := make(starlark.StringDict, len(predeclared)+len(preludeGlobals))
	for name, value := range predeclared {
		env[name] = value
	}
	for name, value := range preludeGlobals {
		env[name] = value
	}

	globals, err := starlark.ExecFileOptions(
		fileOptions, thread, r.name, r.source, env,
	)
	if err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}

	fn, ok := globals["process"].(starlark.Callable)
	if !ok {
		return nil, errors.New("script must define process(session_id)")
	}
	return fn, nil
}
