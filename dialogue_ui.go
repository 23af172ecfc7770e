package main

import (
	"image/color"
	"strings"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/milk9111/locationgame/ecs/component"
)

const (
	dialogueVisibleLines = 8
	dialogueWrapColumns  = 64
)

// dialogueUI is the conversation panel: the exchange so far, a text box for
// the player's reply and a Close button.
type dialogueUI struct {
	ui    *ebitenui.UI
	title *widget.Text
	lines *widget.Text
	input *widget.TextInput

	conv  *component.Conversation
	shown int
}

func newDialogueUI(width, height int) *dialogueUI {
	d := &dialogueUI{}

	face := uiFace()
	panelImg := imageui.NewNineSliceColor(panelColor)
	btnImg := imageui.NewNineSliceColor(buttonColor)
	stretch := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Stretch: true})

	d.title = widget.NewText(
		widget.TextOpts.Text("", &face, textColor),
	)
	d.lines = widget.NewText(
		widget.TextOpts.Text("", &face, textColor),
		widget.TextOpts.WidgetOpts(stretch, widget.WidgetOpts.MinSize(width-120, 13*dialogueVisibleLines)),
	)
	d.input = widget.NewTextInput(
		widget.TextInputOpts.WidgetOpts(stretch, widget.WidgetOpts.MinSize(width-120, 28)),
		widget.TextInputOpts.Image(&widget.TextInputImage{
			Idle:     imageui.NewNineSliceColor(color.NRGBA{R: 245, G: 245, B: 245, A: 255}),
			Disabled: imageui.NewNineSliceColor(color.NRGBA{R: 200, G: 200, B: 200, A: 255}),
		}),
		widget.TextInputOpts.Color(&widget.TextInputColor{
			Idle:     color.Black,
			Disabled: color.Gray{Y: 120},
			Caret:    color.Black,
		}),
		widget.TextInputOpts.Face(&face),
		widget.TextInputOpts.SubmitOnEnter(true),
		widget.TextInputOpts.SubmitHandler(func(args *widget.TextInputChangedEventArgs) {
			if d.conv != nil && strings.TrimSpace(args.InputText) != "" {
				d.conv.Submitted = append(d.conv.Submitted, args.InputText)
			}
			d.input.SetText("")
		}),
	)

	closeBtn := widget.NewButton(
		widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnImg}),
		widget.ButtonOpts.Text("Close", &face, &widget.ButtonTextColor{Idle: textColor}),
		widget.ButtonOpts.WidgetOpts(widget.WidgetOpts.MinSize(100, 28)),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if d.conv != nil {
				d.conv.Closing = true
			}
		}),
	)

	hint := widget.NewText(
		widget.TextOpts.Text("Enter to reply, X (outside the text box) to leave", &face, hintColor),
	)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 16, Bottom: 16, Left: 20, Right: 20}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(width-80, height/3),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)
	panel.AddChild(d.title)
	panel.AddChild(d.lines)
	panel.AddChild(d.input)
	panel.AddChild(closeBtn)
	panel.AddChild(hint)

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	d.ui = &ebitenui.UI{Container: root}
	return d
}

// Open binds the panel to conv and gives the text box the keyboard.
func (d *dialogueUI) Open(conv *component.Conversation) {
	d.conv = conv
	d.shown = -1
	d.title.Label = conv.Speaker
	d.input.SetText("")
	d.input.Focus(true)
	d.Sync(conv)
}

// Sync redraws the exchange when lines were added.
func (d *dialogueUI) Sync(conv *component.Conversation) {
	if conv != d.conv {
		d.conv = conv
		d.shown = -1
	}
	if conv == nil || len(conv.Lines) == d.shown {
		return
	}
	d.shown = len(conv.Lines)
	d.lines.Label = formatLines(conv.Lines, dialogueVisibleLines, dialogueWrapColumns)
}

func (d *dialogueUI) Reset() {
	d.conv = nil
	d.shown = 0
	d.title.Label = ""
	d.lines.Label = ""
	d.input.SetText("")
	d.input.Focus(false)
}

// Focused reports whether the reply box owns the keyboard.
func (d *dialogueUI) Focused() bool {
	return d != nil && d.conv != nil && d.input.IsFocused()
}

// formatLines renders the last rows of a conversation, wrapping long lines
// at cols characters.
func formatLines(lines []component.Line, rows, cols int) string {
	var out []string
	for _, l := range lines {
		out = append(out, wrap(l.Speaker+": "+l.Text, cols)...)
	}
	if len(out) > rows {
		out = out[len(out)-rows:]
	}
	return strings.Join(out, "\n")
}

func wrap(s string, cols int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var rows []string
	row := words[0]
	for _, w := range words[1:] {
		if len(row)+1+len(w) > cols {
			rows = append(rows, row)
			row = w
			continue
		}
		row += " " + w
	}
	return append(rows, row)
}
