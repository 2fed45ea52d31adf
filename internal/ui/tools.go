package ui

import (
	"image/color"
	"io"

	"FreehandBoard/internal/export"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

// Actions are the board operations the toolbar triggers.
type Actions struct {
	SetStrokeColor func(name string)
	Clear          func()
	ExportPDF      func(w io.Writer) error
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolbar builds the strip above the board: outline colour for the next
// strokes, view reset, retry, clear and PDF export.
func NewToolbar(win fyne.Window, board *BoardWidget, actions Actions, log zerolog.Logger) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.ViewRestoreIcon(), board.ResetView),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), board.Retry),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			if actions.Clear != nil {
				actions.Clear()
			}
		}),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			showExportDialog(win, board, actions, log)
		}),
	)

	onColorTapped := func(c color.Color) {
		if actions.SetStrokeColor != nil {
			actions.SetStrokeColor(export.ColorString(c))
		}
	}
	colorBox := container.NewHBox(
		newColorSwatch(color.Black, onColorTapped),
		newColorSwatch(color.NRGBA{R: 255, A: 255}, onColorTapped),
		newColorSwatch(color.NRGBA{G: 255, A: 255}, onColorTapped),
		newColorSwatch(color.NRGBA{B: 255, A: 255}, onColorTapped),
		newColorSwatch(color.NRGBA{R: 255, G: 255, A: 255}, onColorTapped),
		newColorSwatch(color.White, onColorTapped),
	)

	return container.NewHBox(
		widget.NewLabel("View:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Outline:"),
		colorBox,
		layout.NewSpacer(),
	)
}

func showExportDialog(win fyne.Window, board *BoardWidget, actions Actions, log zerolog.Logger) {
	if actions.ExportPDF == nil {
		board.status("Export not available")
		return
	}
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			log.Warn().Err(err).Msg("export dialog failed")
			board.status("Export failed")
			return
		}
		if writer == nil {
			return // cancelled
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Warn().Err(err).Msg("closing export file")
			}
		}()

		if err := actions.ExportPDF(writer); err != nil {
			log.Error().Err(err).Str("uri", writer.URI().String()).Msg("export failed")
			board.status("Error writing PDF")
			return
		}
		log.Info().Str("uri", writer.URI().String()).Msg("board exported")
		board.status("Exported " + writer.URI().Name())
	}, win)
	d.SetFileName("board.pdf")
	d.Show()
}
