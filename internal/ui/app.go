package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

// RunApp opens the board window and blocks until it is closed. shareLink is
// shown in the status bar when hosting.
func RunApp(board *BoardWidget, actions Actions, shareLink string, log zerolog.Logger) {
	myApp := app.NewWithID("org.freehandboard")
	myWindow := myApp.NewWindow("Freehand Board")
	myWindow.Resize(fyne.NewSize(1024, 768))

	statusBar := widget.NewLabel("Ready")
	if shareLink != "" {
		statusBar.SetText("Share: " + shareLink)
	}
	board.SetStatusHandler(func(text string) {
		fyne.Do(func() { statusBar.SetText(text) })
	})

	toolbar := NewToolbar(myWindow, board, actions, log)
	myWindow.SetContent(container.NewBorder(toolbar, statusBar, nil, nil, board))

	if dc, ok := myWindow.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(board.KeyDown)
		dc.SetOnKeyUp(board.KeyUp)
	}

	board.Start()
	myWindow.SetOnClosed(board.Stop)
	myWindow.ShowAndRun()
}
