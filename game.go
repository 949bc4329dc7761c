package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"

	"github.com/milk9111/animgraph/config"
	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
	"github.com/milk9111/animgraph/ecs/entity"
	"github.com/milk9111/animgraph/ecs/system"
	"github.com/milk9111/animgraph/prefabs"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	rowHeight  = 6
	rowsShown  = 80
	barsLeft   = 340
	barsWidth  = 600
	barsTop    = 40
	panelWidth = 320
)

var digitKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

type Game struct {
	frames int
	paused bool

	world     *ecs.World
	animators *system.AnimatorSystem
	watcher   *prefabs.Watcher
	instances []ecs.Entity
	focus     int

	ui          *ebitenui.UI
	uiFocus     ecs.Entity
	clipboardOK bool
	status      string
}

func parseConfig(args []string) (config.Config, error) {
	return config.ParseConfig(flag.CommandLine, args)
}

func NewGame(cfg config.Config) (*Game, error) {
	prefabs.SetDiskRoot(cfg.PrefabDir)

	g := &Game{
		world:     ecs.NewWorld(),
		animators: system.NewAnimatorSystem(cfg.Workers, cfg.DeltaTime()),
	}

	if cfg.HotReload {
		watcher, err := prefabs.NewWatcher(cfg.PrefabDir)
		if err != nil {
			log.Printf("viewer: hot reload disabled: %v", err)
		} else {
			g.watcher = watcher
		}
	}
	g.world.AddSystem(system.NewAnimatorReloadSystem(g.watcher, entity.ReloadAnimator))
	g.world.AddSystem(g.animators)
	g.world.AddSystem(ecsSystemFunc(g.consumeEvents))

	spec, err := prefabs.LoadAnimatorSpec(cfg.Controller)
	if err != nil {
		return nil, err
	}
	clips, err := entity.LoadClipLibrary(cfg.Clips)
	if err != nil {
		return nil, err
	}
	n := max(cfg.Instances, 1)
	for i := 0; i < n; i++ {
		e, err := entity.BuildAnimator(g.world, cfg.Controller, spec, clips)
		if err != nil {
			return nil, err
		}
		g.instances = append(g.instances, e)
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("viewer: clipboard unavailable: %v", err)
	} else {
		g.clipboardOK = true
	}

	g.rebuildUI()
	return g, nil
}

// ecsSystemFunc adapts a function to ecs.System.
type ecsSystemFunc func(w *ecs.World)

func (f ecsSystemFunc) Update(w *ecs.World) { f(w) }

func (g *Game) consumeEvents(w *ecs.World) {
	for _, evt := range w.Events().Drain() {
		data, ok := evt.Data.(system.AnimationEventData)
		if !ok || evt.Entity != g.focused() {
			continue
		}
		g.status = fmt.Sprintf("tick %d: %s (%s @ %.2f)", w.Tick(), data.Name, data.Event, data.Time)
	}
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) focused() ecs.Entity {
	if len(g.instances) == 0 {
		return 0
	}
	return g.instances[g.focus%len(g.instances)]
}

func (g *Game) setFocus(i int) {
	if len(g.instances) == 0 {
		return
	}
	g.focus = (i%len(g.instances) + len(g.instances)) % len(g.instances)
	g.rebuildUI()
}

func (g *Game) rebuildUI() {
	g.uiFocus = g.focused()
	g.ui = NewControlUI(g)
}

func (g *Game) togglePause() {
	g.paused = !g.paused
	g.rebuildUI()
}

func (g *Game) toggleBool(name string) {
	e := g.focused()
	v, err := system.GetBool(g.world, e, name)
	if err != nil {
		g.status = err.Error()
		return
	}
	if err := system.SetBool(g.world, e, name, !v); err != nil {
		g.status = err.Error()
	}
}

func (g *Game) copySnapshot() {
	snap, ok := system.Snapshot(g.world, g.focused())
	if !ok {
		return
	}
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}
	clipboard.Write(clipboard.FmtText, []byte(snap.String()))
	g.status = "copied " + snap.Entity.String()
}

func (g *Game) Update() error {
	g.frames++

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		step := 1
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			step = -1
		}
		g.setFocus(g.focus + step)
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copySnapshot()
	case g.paused && inpututil.IsKeyJustPressed(ebiten.KeyPeriod):
		g.world.Update()
	}

	if params, ok := ecs.Get(g.world, g.focused(), component.AnimationParametersComponent); ok {
		for i := 0; i < len(params.Bools) && i < len(digitKeys); i++ {
			if inpututil.IsKeyJustPressed(digitKeys[i]) {
				g.toggleBool(params.Bools[i].Name)
			}
		}
	}

	if g.uiFocus != g.focused() {
		g.rebuildUI()
	}
	g.ui.Update()

	if !g.paused {
		g.world.Update()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	ebitenutil.DebugPrint(screen, fmt.Sprintf("Frames: %d    FPS: %.2f    TPS: %.2f    Instances: %d", g.frames, ebiten.ActualFPS(), ebiten.ActualTPS(), len(g.instances)))

	g.drawBars(screen)
	g.drawFocus(screen)
	g.ui.Draw(screen)
}

// drawBars draws one row per instance: the current state's wrapped time in
// the controller's color, and the cross-fade target underneath.
func (g *Game) drawBars(screen *ebiten.Image) {
	focus := g.focused()
	for row, e := range g.instances {
		if row >= rowsShown {
			break
		}
		machine, ok := ecs.Get(g.world, e, component.AnimationStateMachineComponent)
		if !ok {
			continue
		}
		states, _ := ecs.Get(g.world, e, component.AnimationStatesComponent)
		samplers, _ := ecs.Get(g.world, e, component.AnimationSamplersComponent)
		cfg, _ := ecs.Get(g.world, e, component.AnimatorConfigComponent)
		if states == nil || samplers == nil || !machine.Current.InRange(len(states.Items)) {
			continue
		}

		y := float32(barsTop + row*rowHeight)
		var tint color.Color = colornames.Lightgrey
		if cfg != nil && cfg.Color != nil {
			tint = cfg.Color
		}
		if e == focus {
			vector.FillRect(screen, barsLeft-4, y, 2, rowHeight-1, colornames.Yellow, false)
		}

		cur := states.Items[machine.Current.Index()]
		width := float32(wrappedStateTime(cur, samplers.Items)) * barsWidth
		vector.FillRect(screen, barsLeft, y, width, rowHeight-2, tint, false)

		if machine.Next.InRange(len(states.Items)) {
			next := states.Items[machine.Next.Index()]
			width := float32(wrappedStateTime(next, samplers.Items)) * barsWidth
			vector.FillRect(screen, barsLeft, y+rowHeight-2, width, 1, colornames.Orange, false)
		}
	}
}

func wrappedStateTime(s component.AnimationState, samplers []component.Sampler) float64 {
	idx := s.ActiveSamplerIndex(samplers)
	if idx < 0 {
		return 0
	}
	return samplers[idx].WrappedTime()
}

func (g *Game) drawFocus(screen *ebiten.Image) {
	snap, ok := system.Snapshot(g.world, g.focused())
	if !ok {
		return
	}
	states, _ := ecs.Get(g.world, snap.Entity, component.AnimationStatesComponent)
	params, _ := ecs.Get(g.world, snap.Entity, component.AnimationParametersComponent)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", snap)
	if states != nil {
		for i, s := range states.Items {
			marker := " "
			switch s.Name {
			case snap.Current:
				marker = ">"
			case snap.Next:
				marker = "+"
			}
			fmt.Fprintf(&b, "%s %-12s t=%6.3f blend=%.2f\n", marker, s.Name, snap.Times[i], snap.Blends[i])
		}
	}
	if params != nil {
		b.WriteString("\n")
		for i, p := range params.Bools {
			fmt.Fprintf(&b, "[%d] %-10s %v\n", i+1, p.Name, p.Value)
		}
	}
	if g.status != "" {
		fmt.Fprintf(&b, "\n%s\n", g.status)
	}
	if g.paused {
		b.WriteString("\npaused (. steps one tick)\n")
	}
	ebitenutil.DebugPrintAt(screen, b.String(), 10, barsTop)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
