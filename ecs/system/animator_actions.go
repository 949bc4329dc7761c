package system

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/prefabs"
)

// AnimationEventTopic is the ecs.Event type pushed by the emit action.
const AnimationEventTopic = "animation_event"

// AnimationEventData is the payload of an AnimationEventTopic event.
type AnimationEventData struct {
	Name    string
	Event   string
	Sampler int
	Time    float64
}

// EventActionMaker binds an authored argument into an action.
type EventActionMaker func(arg any) (component.EventFunc, error)

var (
	eventActionsMu sync.RWMutex
	eventActions   = map[component.AnimationEventType]EventActionMaker{
		component.AnimationEventEmit:    makeEmitAction,
		component.AnimationEventSetBool: makeSetBoolAction,
		component.AnimationEventLog:     makeLogAction,
		component.AnimationEventScript:  makeScriptAction,
	}
)

// RegisterEventAction adds or replaces a named action maker.
func RegisterEventAction(kind component.AnimationEventType, maker EventActionMaker) {
	if kind == "" || maker == nil {
		return
	}
	eventActionsMu.Lock()
	defer eventActionsMu.Unlock()
	eventActions[kind] = maker
}

// EventActionTypes lists the registered action names, sorted.
func EventActionTypes() []string {
	eventActionsMu.RLock()
	defer eventActionsMu.RUnlock()
	out := make([]string, 0, len(eventActions))
	for k := range eventActions {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// NewEventAction builds the action stored in an event table entry.
func NewEventAction(kind component.AnimationEventType, arg any) (component.EventAction, error) {
	eventActionsMu.RLock()
	maker, ok := eventActions[kind]
	eventActionsMu.RUnlock()
	if !ok {
		return component.EventAction{}, fmt.Errorf("animator: unknown event action %q", kind)
	}
	fn, err := maker(arg)
	if err != nil {
		return component.EventAction{}, fmt.Errorf("animator: event action %q: %w", kind, err)
	}
	return component.EventAction{Type: kind, Invoke: fn, Args: arg}, nil
}

func makeEmitAction(arg any) (component.EventFunc, error) {
	name := strings.TrimSpace(asString(arg))
	return func(ctx component.EventContext, _ any) {
		owner := ctx.Owner
		data := AnimationEventData{Name: name}
		if ctx.Event != nil {
			data.Event = ctx.Event.Name
			data.Sampler = ctx.Event.Sampler
			data.Time = ctx.Event.Time
			if data.Name == "" {
				data.Name = ctx.Event.Name
			}
		}
		ctx.Commands.Enqueue("emit:"+data.Name, func(w *ecs.World) error {
			w.Events().Push(ecs.Event{Type: AnimationEventTopic, Entity: owner, Data: data})
			return nil
		})
	}, nil
}

func makeSetBoolAction(arg any) (component.EventFunc, error) {
	spec, err := prefabs.DecodeSpec[prefabs.SetBoolSpec](arg)
	if err != nil {
		return nil, fmt.Errorf("expected {name, value}: %w", err)
	}
	name, value := strings.TrimSpace(spec.Name), spec.Value
	if name == "" {
		return nil, fmt.Errorf("missing parameter name")
	}
	return func(ctx component.EventContext, _ any) {
		owner := ctx.Owner
		ctx.Commands.Enqueue("set_bool:"+name, func(w *ecs.World) error {
			return SetBool(w, owner, name, value)
		})
	}, nil
}

func makeLogAction(arg any) (component.EventFunc, error) {
	msg := fmt.Sprint(arg)
	return func(ctx component.EventContext, _ any) {
		owner := ctx.Owner
		event := ""
		if ctx.Event != nil {
			event = ctx.Event.Name
		}
		ctx.Commands.Enqueue("log", func(*ecs.World) error {
			log.Printf("animator: entity=%s event=%s: %s", owner, event, msg)
			return nil
		})
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
