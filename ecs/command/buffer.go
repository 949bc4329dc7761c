// Package command implements a deferred command buffer that many workers can
// append to concurrently. Commands are replayed on a single goroutine in a
// stable order keyed by the producer's sort key, so results do not depend on
// how the producers were scheduled.
package command

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/milk9111/animgraph/ecs"
)

// ExecFunc applies a command to the world during playback.
type ExecFunc func(w *ecs.World) error

// Command is one deferred mutation.
type Command struct {
	// SortKey is the ordering token of the producing instance.
	SortKey int
	// Seq orders commands submitted by the same writer.
	Seq uint32
	// Entity is the instance that produced the command.
	Entity ecs.Entity
	// Name is a short label used for logging and tests.
	Name string
	Exec ExecFunc
}

type node struct {
	cmd  Command
	next *node
}

// Buffer is a lock-free multi-producer command buffer.
// Thread-Safety:
//   - Writer.Enqueue / Append: lock-free CAS, any number of producers
//   - Drain / Playback: single consumer, after producers are done
type Buffer struct {
	head  atomic.Pointer[node]
	count atomic.Int64
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append pushes a fully keyed command. Producers never block.
func (b *Buffer) Append(cmd Command) {
	if b == nil {
		return
	}
	n := &node{cmd: cmd}
	for {
		old := b.head.Load()
		n.next = old
		if b.head.CompareAndSwap(old, n) {
			b.count.Add(1)
			return
		}
	}
}

// Len returns the approximate number of pending commands.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return int(b.count.Load())
}

// Drain removes all pending commands and returns them ordered by
// (SortKey, Seq).
func (b *Buffer) Drain() []Command {
	if b == nil {
		return nil
	}
	n := b.head.Swap(nil)
	if n == nil {
		return nil
	}
	var out []Command
	for ; n != nil; n = n.next {
		out = append(out, n.cmd)
	}
	b.count.Add(-int64(len(out)))
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortKey != out[j].SortKey {
			return out[i].SortKey < out[j].SortKey
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Playback drains the buffer and executes every command in order. A failing
// command does not stop the ones after it; all errors are joined.
func (b *Buffer) Playback(w *ecs.World) error {
	var errs []error
	for _, cmd := range b.Drain() {
		if cmd.Exec == nil {
			continue
		}
		if err := cmd.Exec(w); err != nil {
			errs = append(errs, fmt.Errorf("command %q (entity=%s key=%d): %w", cmd.Name, cmd.Entity, cmd.SortKey, err))
		}
	}
	return errors.Join(errs...)
}

// Writer returns a producer bound to one instance. A Writer is not safe for
// concurrent use itself; each worker owns its own.
func (b *Buffer) Writer(entity ecs.Entity, sortKey int) *Writer {
	return &Writer{buffer: b, entity: entity, sortKey: sortKey}
}

// Writer stamps commands with its instance's sort key and a running sequence.
type Writer struct {
	buffer  *Buffer
	entity  ecs.Entity
	sortKey int
	seq     uint32
}

// Enqueue appends a command for the writer's instance.
func (w *Writer) Enqueue(name string, exec ExecFunc) {
	if w == nil || w.buffer == nil {
		return
	}
	w.buffer.Append(Command{
		SortKey: w.sortKey,
		Seq:     w.seq,
		Entity:  w.entity,
		Name:    name,
		Exec:    exec,
	})
	w.seq++
}

// SortKey returns the ordering token the writer stamps.
func (w *Writer) SortKey() int {
	if w == nil {
		return 0
	}
	return w.sortKey
}

// Entity returns the instance the writer produces for.
func (w *Writer) Entity() ecs.Entity {
	if w == nil {
		return 0
	}
	return w.entity
}
