package main

import (
	"fmt"
	"image/color"

	"golang.org/x/image/font/basicfont"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/milk9111/animgraph/ecs"
	"github.com/milk9111/animgraph/ecs/component"
)

// NewControlUI builds the side panel for the focused instance: one toggle
// per boolean parameter, plus pause and snapshot buttons. It is rebuilt
// whenever the focus or pause state changes.
func NewControlUI(g *Game) *ebitenui.UI {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnOnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 255})

	goFace := ebtext.NewGoXFace(basicfont.Face7x13)
	var face ebtext.Face = goFace

	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}
	rowData := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter, Stretch: true})

	title := widget.NewText(
		widget.TextOpts.Text(fmt.Sprintf("Instance %s", g.focused()), &face, white),
		widget.TextOpts.WidgetOpts(rowData),
	)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 16, Bottom: 16, Left: 16, Right: 16}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(panelWidth, baseHeight/2),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionEnd, VerticalPosition: widget.AnchorLayoutPositionStart}),
		),
	)
	panel.AddChild(title)

	if params, ok := ecs.Get(g.world, g.focused(), component.AnimationParametersComponent); ok {
		for _, p := range params.Bools {
			name := p.Name
			img := btnImg
			if p.Value {
				img = btnOnImg
			}
			var btn *widget.Button
			btn = widget.NewButton(
				widget.ButtonOpts.Image(&widget.ButtonImage{Idle: img, Pressed: btnOnImg}),
				widget.ButtonOpts.Text(boolLabel(name, p.Value), &face, btnTextColor),
				widget.ButtonOpts.WidgetOpts(rowData),
				widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
					g.toggleBool(name)
					v, _ := ecs.Get(g.world, g.focused(), component.AnimationParametersComponent)
					value, _ := v.Bool(name)
					if text := btn.Text(); text != nil {
						text.Label = boolLabel(name, value)
					}
				}),
			)
			panel.AddChild(btn)
		}
	}

	pauseLabel := "Pause"
	if g.paused {
		pauseLabel = "Resume"
	}
	panel.AddChild(widget.NewButton(
		widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnImg}),
		widget.ButtonOpts.Text(pauseLabel, &face, btnTextColor),
		widget.ButtonOpts.WidgetOpts(rowData),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			g.togglePause()
		}),
	))
	panel.AddChild(widget.NewButton(
		widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnImg}),
		widget.ButtonOpts.Text("Copy snapshot", &face, btnTextColor),
		widget.ButtonOpts.WidgetOpts(rowData),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			g.copySnapshot()
		}),
	))

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	return &ebitenui.UI{Container: root}
}

func boolLabel(name string, v bool) string {
	if v {
		return name + ": on"
	}
	return name + ": off"
}
