package system

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/prefabs"
)

// Scripts define `on_event := func(engine, event) { ... }`. The dispatch
// tail below calls it when the runtime is invoked for an event.
const eventDispatchScript = `
if __run {
	on_event(__engine, __event)
}
`

var (
	scriptCacheMu sync.Mutex
	scriptCache   = map[string]*tengo.Compiled{}
)

// InvalidateScript drops the compiled copy of a script so the next action
// built from it recompiles. An empty path clears everything.
func InvalidateScript(path string) {
	scriptCacheMu.Lock()
	defer scriptCacheMu.Unlock()
	if path == "" {
		scriptCache = map[string]*tengo.Compiled{}
		return
	}
	delete(scriptCache, prefabs.ScriptFile(path))
}

type eventScriptRuntime struct {
	scriptPath string
	compiled   *tengo.Compiled
	stateData  *tengo.Map
}

func makeScriptAction(arg any) (component.EventFunc, error) {
	path := strings.TrimSpace(asString(arg))
	if path == "" {
		return nil, fmt.Errorf("missing script path")
	}
	rt, err := newEventScriptRuntime(path)
	if err != nil {
		return nil, err
	}
	return func(ctx component.EventContext, _ any) {
		owner := ctx.Owner
		var evt component.AnimationEvent
		if ctx.Event != nil {
			evt = *ctx.Event
		}
		ctx.Commands.Enqueue("script:"+path, func(w *ecs.World) error {
			return rt.run(w, owner, evt)
		})
	}, nil
}

func newEventScriptRuntime(path string) (*eventScriptRuntime, error) {
	compiled, err := compileEventScript(path)
	if err != nil {
		return nil, err
	}
	return &eventScriptRuntime{
		scriptPath: path,
		compiled:   compiled.Clone(),
		stateData:  &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

func compileEventScript(path string) (*tengo.Compiled, error) {
	scriptCacheMu.Lock()
	defer scriptCacheMu.Unlock()
	key := prefabs.ScriptFile(path)
	if compiled, ok := scriptCache[key]; ok {
		return compiled, nil
	}

	scriptBytes, err := prefabs.LoadScript(path)
	if err != nil {
		return nil, err
	}
	src := string(scriptBytes) + "\n" + eventDispatchScript
	script := tengo.NewScript([]byte(src))
	_ = script.Add("__run", false)
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__event", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	// define the script's globals once so a missing on_event is caught here
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	if !compiled.IsDefined("on_event") {
		return nil, fmt.Errorf("%s: on_event is not defined", path)
	}
	scriptCache[key] = compiled
	return compiled, nil
}

func (rt *eventScriptRuntime) run(w *ecs.World, owner ecs.Entity, evt component.AnimationEvent) error {
	if rt == nil || rt.compiled == nil {
		return fmt.Errorf("nil script runtime")
	}
	event := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"name":    &tengo.String{Value: evt.Name},
		"time":    &tengo.Float{Value: evt.Time},
		"sampler": &tengo.Int{Value: int64(evt.Sampler)},
		"state":   rt.stateData,
	}}
	if err := rt.compiled.Set("__run", true); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", buildEventScriptEngine(w, owner, evt)); err != nil {
		return err
	}
	if err := rt.compiled.Set("__event", event); err != nil {
		return err
	}
	if err := rt.compiled.Run(); err != nil {
		return fmt.Errorf("script %s: %w", rt.scriptPath, err)
	}
	return nil
}

func buildEventScriptEngine(w *ecs.World, owner ecs.Entity, evt component.AnimationEvent) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["entity"] = &tengo.UserFunction{Name: "entity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.String{Value: owner.String()}, nil
	}}

	values["emit"] = &tengo.UserFunction{Name: "emit", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		w.Events().Push(ecs.Event{Type: AnimationEventTopic, Entity: owner, Data: AnimationEventData{
			Name:    name,
			Event:   evt.Name,
			Sampler: evt.Sampler,
			Time:    evt.Time,
		}})
		return tengo.TrueValue, nil
	}}

	values["set_bool"] = &tengo.UserFunction{Name: "set_bool", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return tengo.FalseValue, nil
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if err := SetBool(w, owner, name, !args[1].IsFalsy()); err != nil {
			return &tengo.Error{Value: &tengo.String{Value: err.Error()}}, nil
		}
		return tengo.TrueValue, nil
	}}

	values["get_bool"] = &tengo.UserFunction{Name: "get_bool", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.FalseValue, nil
		}
		v, err := GetBool(w, owner, strings.TrimSpace(objectAsString(args[0])))
		if err != nil || !v {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("animator: entity=%s script: %s", owner, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
