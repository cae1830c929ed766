// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"sheet-marker/internal/annotation"
	"sheet-marker/internal/app"
	"sheet-marker/internal/autonote"
	"sheet-marker/internal/export"
	imageloader "sheet-marker/internal/image"
	"sheet-marker/internal/publish"
	"sheet-marker/internal/session"
	"sheet-marker/internal/tool"
	"sheet-marker/internal/version"
	"sheet-marker/pkg/geometry"
	"sheet-marker/ui/canvas"
	"sheet-marker/ui/prefs"
)

var penColors = []string{"#d32f2f", "#1976d2", "#2e7d32", "#6a1b9a", "#000000"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	prefs *prefs.Prefs

	ctrl   *session.Controller
	editor *canvas.Editor
	comp   *export.Compositor
	loader *imageloader.Loader
	pipe   *publish.Pipeline

	statusBar *widget.Label
	pageLabel *widget.Label
	textEntry *widget.Entry

	toolButtons map[tool.Tool]*widget.Button

	dispatch   func(func())
	publishing atomic.Bool
}

// New creates the main window for one loaded submission.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, backend *publish.Client) (*MainWindow, error) {
	comp, err := export.New()
	if err != nil {
		return nil, err
	}

	win := fyneApp.NewWindow(fmt.Sprintf("Sheet Marker %s", version.Version))
	mw := &MainWindow{
		Window:      win,
		app:         fyneApp,
		state:       state,
		prefs:       p,
		comp:        comp,
		loader:      imageloader.NewLoader(),
		toolButtons: make(map[tool.Tool]*widget.Button),
	}
	if backend != nil {
		mw.pipe = &publish.Pipeline{Targets: backend, Uploader: backend, Publisher: backend}
	}

	mw.dispatch = func(f func()) {
		f()
		if mw.editor != nil {
			mw.editor.Refresh()
		}
	}

	mw.ctrl = session.New(state.Submission, session.Config{
		Store:       state.Store,
		Loader:      mw.loader,
		Notify:      mw.notify,
		Style:       p.Style(),
		Dispatch:    mw.dispatch,
		SettleDelay: 50 * time.Millisecond,
	})
	mw.editor = canvas.NewEditor(mw.ctrl, comp)
	mw.editor.OnChange = mw.syncFromSession

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	win.Resize(fyne.NewSize(1200, 800))
	win.SetOnClosed(func() {
		mw.ctrl.Dispose()
		p.SetStyle(mw.ctrl.Style())
		if err := p.Save(); err != nil {
			log.Printf("save preferences: %v", err)
		}
	})
	return mw, nil
}

// OpenFirstPage lays the first page out against the editor's current size.
// Call after the window is shown so the container has real dimensions.
func (mw *MainWindow) OpenFirstPage() {
	if err := mw.ctrl.Open(mw.state.Page(), mw.editor.Container()); err != nil {
		mw.notify(err)
		return
	}
	mw.syncFromSession()
}

func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")
	mw.pageLabel = widget.NewLabel("")

	mw.textEntry = widget.NewEntry()
	mw.textEntry.SetPlaceHolder("Selected text / comment content")
	mw.textEntry.OnChanged = mw.onEditContent
	mw.textEntry.OnSubmitted = func(string) { mw.ctrl.Commit() }

	content := container.NewBorder(
		mw.createToolbar(),
		container.NewBorder(nil, nil, widget.NewLabel("Text:"), container.NewPadded(mw.statusBar), mw.textEntry),
		nil,
		nil,
		mw.editor,
	)
	mw.SetContent(content)
}

func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	toolBtn := func(label string, t tool.Tool) *widget.Button {
		btn := widget.NewButton(label, func() { mw.onSelectTool(t) })
		mw.toolButtons[t] = btn
		return btn
	}

	colorSel := widget.NewSelect(penColors, func(hex string) {
		style := mw.ctrl.Style()
		style.Color = hex
		mw.ctrl.SetStyle(style)
	})
	colorSel.SetSelected(mw.ctrl.Style().Color)

	prevBtn := widget.NewButton("<", func() { mw.onSwitchPage(mw.state.Page() - 1) })
	nextBtn := widget.NewButton(">", func() { mw.onSwitchPage(mw.state.Page() + 1) })

	return container.NewHBox(
		toolBtn("Pen", tool.ToolPen),
		toolBtn("Text", tool.ToolText),
		toolBtn("Comment", tool.ToolComment),
		toolBtn("Select", tool.ToolSelect),
		toolBtn("Clear", tool.ToolClear),
		widget.NewSeparator(),
		colorSel,
		widget.NewSeparator(),
		widget.NewButton("Undo", mw.onUndo),
		widget.NewButton("Redo", mw.onRedo),
		widget.NewSeparator(),
		prevBtn,
		mw.pageLabel,
		nextBtn,
		widget.NewSeparator(),
		widget.NewButton("Auto-annotate", mw.onAutoAnnotate),
		widget.NewButton("Publish", mw.onPublishAll),
	)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Place Reference Image...", mw.onPlaceReferenceImage),
		fyne.NewMenuItem("Save Session...", mw.onSaveSession),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Publish All Pages", mw.onPublishAll),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selected", mw.onDeleteSelected),
	)
	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu))
}

func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteSelected()
		}
	})
}

// syncFromSession refreshes toolbar and entry state after any mutation.
func (mw *MainWindow) syncFromSession() {
	state := mw.ctrl.State()
	mw.state.SetPage(state.PageIndex)
	mw.pageLabel.SetText(fmt.Sprintf("Page %d/%d", state.PageIndex+1, mw.state.PageCount()))

	if scene := mw.ctrl.Scene(); scene != nil {
		if obj := scene.Find(mw.ctrl.SelectedID()); obj != nil && obj.Content != "" {
			if mw.textEntry.Text != obj.Content {
				mw.textEntry.SetText(obj.Content)
			}
			return
		}
	}
	if mw.textEntry.Text != "" {
		mw.textEntry.SetText("")
	}
}

func (mw *MainWindow) notify(err error) {
	log.Printf("mainwindow: %v", err)
	mw.statusBar.SetText(err.Error())
}

func (mw *MainWindow) onSelectTool(t tool.Tool) {
	mw.ctrl.ApplyTool(t)
	mw.statusBar.SetText(fmt.Sprintf("Tool: %s", t))
	mw.editor.Refresh()
	mw.syncFromSession()
}

func (mw *MainWindow) onUndo() {
	if mw.ctrl.Undo() {
		mw.editor.Refresh()
		mw.syncFromSession()
	}
}

func (mw *MainWindow) onRedo() {
	if mw.ctrl.Redo() {
		mw.editor.Refresh()
		mw.syncFromSession()
	}
}

func (mw *MainWindow) onSwitchPage(index int) {
	if index < 0 || index >= mw.state.PageCount() {
		return
	}
	if err := mw.ctrl.SwitchPage(index); err != nil {
		mw.notify(err)
		return
	}
	mw.state.SetModified(true)
	mw.editor.Refresh()
	mw.syncFromSession()
}

// onEditContent pushes entry edits into the selected text or comment
// object. History records once, on submit, not per keystroke.
func (mw *MainWindow) onEditContent(text string) {
	scene := mw.ctrl.Scene()
	if scene == nil {
		return
	}
	obj := scene.Find(mw.ctrl.SelectedID())
	if obj == nil || (obj.Kind != annotation.KindText && obj.Kind != annotation.KindComment) {
		return
	}
	if obj.Content == text {
		return
	}
	obj.Content = text
	mw.editor.Refresh()
}

func (mw *MainWindow) onDeleteSelected() {
	editing := mw.Canvas().Focused() == mw.textEntry
	if mw.ctrl.Tools().DeleteSelected(editing) {
		mw.state.SetModified(true)
		mw.editor.Refresh()
		mw.syncFromSession()
	}
}

func (mw *MainWindow) onPlaceReferenceImage() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			mw.notify(err)
			return
		}
		mw.ctrl.Tools().PlaceReferenceImage(data, 200, 200)
		mw.state.SetModified(true)
		mw.editor.Refresh()
	}, mw.Window)
}

func (mw *MainWindow) onSaveSession() {
	dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		wc.Close()

		mw.ctrl.Commit()
		if err := mw.state.Store.WriteFile(path); err != nil {
			mw.notify(err)
			return
		}
		mw.statusBar.SetText(fmt.Sprintf("Session saved to %s", path))
	}, mw.Window)
}

func (mw *MainWindow) onAutoAnnotate() {
	ev := mw.state.Submission.EvaluationForAnnotation()
	scene := mw.ctrl.Scene()
	if scene == nil {
		return
	}

	objects, err := autonote.New(mw.comp).Generate(ev, mw.ctrl.ImageBounds(), mw.ctrl.PanelBounds())
	if err != nil {
		mw.notify(err)
		return
	}
	for _, obj := range objects {
		scene.Add(obj)
	}
	mw.ctrl.Commit()
	mw.state.SetModified(true)
	mw.state.Emit(app.EventAnnotationCommitted, len(objects))
	mw.editor.Refresh()
	mw.statusBar.SetText(fmt.Sprintf("Placed %d annotations", len(objects)))
}

// onPublishAll flattens every page and pushes the exports to the backend,
// strictly one page at a time. Compositing, encoding and uploads run on a
// worker goroutine so the event loop stays responsive; the outcome comes
// back through the same dispatch hook image loads use.
func (mw *MainWindow) onPublishAll() {
	if mw.pipe == nil {
		mw.statusBar.SetText("No backend configured")
		return
	}
	if !mw.publishing.CompareAndSwap(false, true) {
		return
	}
	mw.ctrl.Commit()
	mw.statusBar.SetText("Publishing...")

	publishBatch(mw.comp, mw.pipe, mw.state, mw.loader, mw.ctrl.Container(), mw.dispatch,
		func(statuses []publish.PageStatus, err error) {
			mw.publishing.Store(false)
			if err != nil {
				mw.notify(err)
				dialog.ShowError(err, mw.Window)
				return
			}

			failed := 0
			for _, s := range statuses {
				if s.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				mw.statusBar.SetText(fmt.Sprintf("Published %d pages, %d failed", len(statuses)-failed, failed))
				return
			}
			mw.state.SetModified(false)
			mw.statusBar.SetText(fmt.Sprintf("Published %d pages", len(statuses)))
		})
}

// publishBatch exports and publishes every page off the calling thread,
// keeping the pipeline's page-at-a-time order. The done callback is
// delivered through dispatch so UI updates land on the UI thread.
func publishBatch(comp *export.Compositor, pipe *publish.Pipeline, st *app.State, loader export.Loader, container geometry.Size, dispatch func(func()), done func([]publish.PageStatus, error)) {
	go func() {
		results := comp.All(st.Submission, st.Store, loader, container)
		st.Emit(app.EventExportComplete, results)

		statuses, err := pipe.PublishAll(context.Background(), st.Submission, results)
		st.SetPublishStatuses(statuses)
		dispatch(func() { done(statuses, err) })
	}()
}
