package component

import (
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/command"
)

// AnimationEventType identifies a registered event action.
type AnimationEventType string

const (
	AnimationEventEmit    AnimationEventType = "emit"
	AnimationEventSetBool AnimationEventType = "set_bool"
	AnimationEventLog     AnimationEventType = "log"
	AnimationEventScript  AnimationEventType = "script"
)

// EventContext is what an event action gets when its anchor is crossed.
type EventContext struct {
	Owner    ecs.Entity
	SortKey  int
	Commands *command.Writer
	Event    *AnimationEvent
}

// EventFunc must only enqueue commands; it runs on a worker goroutine.
type EventFunc func(ctx EventContext, args any)

// EventAction is a function with its bound arguments, stored inline in the
// event table.
type EventAction struct {
	Type   AnimationEventType
	Invoke EventFunc
	Args   any
}

// AnimationEvent is anchored to a sampler and a normalized clip time.
type AnimationEvent struct {
	Name    string
	Sampler int
	Time    float64
	Action  EventAction
}

type AnimationEvents struct {
	Items []AnimationEvent
}

var AnimationEventsComponent = ecs.NewComponent[*AnimationEvents]()
