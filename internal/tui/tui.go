// Package tui is the terminal front end: a small router over gocui views
// for the landing page, the auth forms and the category and task lists.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
	"github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/lists"
	"github.com/Joseda-hg/lazytodo/internal/listctl"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/session"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewMain    = "main"
	viewDetail  = "detail"
	viewForm    = "form"
	viewConfirm = "confirm"
	viewHelp    = "help"
)

type Deps struct {
	Session    *session.Session
	Auth       *api.AuthService
	Categories *api.CategoryService
	Tasks      *api.TaskService
	Log        logrus.FieldLogger
}

type UI struct {
	session     *session.Session
	auth        *api.AuthService
	categorySvc *api.CategoryService
	taskSvc     *api.TaskService
	log         logrus.FieldLogger

	gui *gocui.Gui
	ctx context.Context

	route        route
	categories   *lists.Categories
	tasks        *lists.Tasks
	categoryName string
	detail       *model.Task

	selectedCategory int
	selectedTask     int

	form       *formState
	formEditor *formEditor
	confirm    *confirmState
	helpActive bool
	inflight   int
	status     string
}

func newUI(ctx context.Context, deps Deps) *UI {
	log := deps.Log
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	ui := &UI{
		session:     deps.Session,
		auth:        deps.Auth,
		categorySvc: deps.Categories,
		taskSvc:     deps.Tasks,
		log:         log,
		ctx:         ctx,
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(ctx context.Context, deps Deps) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(ctx, deps)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.navigate(ui.startPath())

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	ui.unmount()
	return nil
}

// startPath opens the category list when a token survived from an earlier
// run.
func (u *UI) startPath() string {
	if _, ok := u.session.Token(); ok {
		return pathCategories
	}
	return pathLanding
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quitIfIdle); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", '?', gocui.ModNone, u.toggleHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'l', gocui.ModNone, u.openLogin); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 's', gocui.ModNone, u.openSignup); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'c', gocui.ModNone, u.openCategories); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.addEntity); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'e', gocui.ModNone, u.editEntity); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'd', gocui.ModNone, u.deleteEntity); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'x', gocui.ModNone, u.toggleComplete); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'b', gocui.ModNone, u.goBack); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'L', gocui.ModNone, u.logout); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyEnter, gocui.ModNone, u.openEntity); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewMain, gocui.KeyEsc, gocui.ModNone, u.goBack); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyCtrlJ, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'y', gocui.ModNone, u.confirmYes); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEnter, gocui.ModNone, u.confirmYes); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'n', gocui.ModNone, u.confirmNo); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEsc, gocui.ModNone, u.confirmNo); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, 'q', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewMain, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}}); err != nil {
		return err
	}
	for _, name := range []string{viewMain, viewDetail} {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	mainX1 := maxX - 1
	showDetail := u.route.screen == screenTasks && maxX >= 60
	if showDetail {
		mainX1 = maxX*3/5 - 1
	}

	mainView, err := gui.SetView(viewMain, 0, bodyTop, mainX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	mainView.Title = u.mainTitle()
	applyViewStyle(mainView, !u.inputActive(), u.route.screen == screenCategories || u.route.screen == screenTasks)
	u.renderMain(mainView)

	if showDetail {
		detailView, err := gui.SetView(viewDetail, mainX1+1, bodyTop, maxX-1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			detailView.Title = "Task"
			detailView.Wrap = true
		}
		applyViewStyle(detailView, false, false)
		u.renderDetail(detailView)
	} else {
		_ = gui.DeleteView(viewDetail)
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.confirm != nil {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if !u.inputActive() {
		_, _ = gui.SetCurrentView(viewMain)
	}

	gui.Cursor = u.form != nil
	return nil
}

func (u *UI) mainTitle() string {
	switch u.route.screen {
	case screenTasks:
		if u.categoryName != "" {
			return "Tasks in " + u.categoryName
		}
		return "Tasks"
	default:
		return u.route.title()
	}
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	who := "signed out"
	if user, ok := u.session.User(); ok && user.Name != "" {
		who = "signed in as " + user.Name
	} else if _, ok := u.session.Token(); ok {
		who = "signed in"
	}
	fmt.Fprintf(view, "lazytodo | %s | %s | %s", u.route.title(), u.route.path(), who)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, u.keyHints())
	if u.loading() {
		fmt.Fprint(view, "working... ")
	}
	if message := u.bannerMessage(); message != "" {
		fmt.Fprint(view, message)
	}
}

func (u *UI) keyHints() string {
	switch u.route.screen {
	case screenLanding:
		return "l log in | s sign up | c categories | ? help | q quit"
	case screenLogin, screenSignup:
		return "enter submit | tab field | esc back | ctrl-c quit"
	case screenCategories:
		return "a add | e edit | d delete | enter tasks | r reload | L log out | ? help | q quit"
	default:
		return "a add | e edit | d delete | x done | enter details | b back | r reload | ? help | q quit"
	}
}

// bannerMessage is the message shown under the key hints: a local status
// first, then the active list's error.
func (u *UI) bannerMessage() string {
	if u.status != "" {
		return u.status
	}
	switch {
	case u.route.screen == screenCategories && u.categories != nil:
		return u.categories.Snapshot().Error
	case u.route.screen == screenTasks && u.tasks != nil:
		return u.tasks.Snapshot().Error
	}
	return ""
}

func (u *UI) loading() bool {
	if u.inflight > 0 {
		return true
	}
	switch {
	case u.categories != nil:
		return u.categories.Snapshot().Status == listctl.StatusLoading
	case u.tasks != nil:
		return u.tasks.Snapshot().Status == listctl.StatusLoading
	}
	return false
}

func (u *UI) renderMain(view *gocui.View) {
	view.Clear()
	switch u.route.screen {
	case screenLanding:
		lines := []string{"", "  Todo App", "", "  l  log in", "  s  sign up"}
		if _, ok := u.session.Token(); ok {
			lines = append(lines, "  c  open your categories")
		}
		fmt.Fprint(view, strings.Join(lines, "\n"))
	case screenLogin:
		fmt.Fprint(view, "\n  Log in with your email and password.\n  Need an account? esc, then s.")
	case screenSignup:
		fmt.Fprint(view, "\n  Create an account.\n  Already registered? esc, then l.")
	case screenCategories:
		u.renderCategories(view)
	case screenTasks:
		u.renderTasks(view)
	}
}

func (u *UI) renderCategories(view *gocui.View) {
	if u.categories == nil {
		return
	}
	state := u.categories.Snapshot()
	if len(state.Items) == 0 {
		if state.Status == listctl.StatusLoaded {
			fmt.Fprint(view, "No categories yet. Press a to add one.")
		}
		return
	}
	u.selectedCategory = clampSelection(u.selectedCategory, len(state.Items))
	for i, category := range state.Items {
		prefix := " "
		if i == u.selectedCategory {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatCategorySummary(category))
	}
	view.SetCursor(0, u.selectedCategory)
}

func (u *UI) renderTasks(view *gocui.View) {
	if u.tasks == nil {
		return
	}
	state := u.tasks.Snapshot()
	if len(state.Items) == 0 {
		if state.Status == listctl.StatusLoaded {
			fmt.Fprint(view, "No tasks in this category. Press a to add one.")
		}
		return
	}
	u.selectedTask = clampSelection(u.selectedTask, len(state.Items))
	for i, task := range state.Items {
		prefix := " "
		if i == u.selectedTask {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatTaskSummary(task))
	}
	view.SetCursor(0, u.selectedTask)
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	task, ok := u.currentTask()
	if !ok {
		fmt.Fprint(view, "No task selected")
		return
	}
	if u.detail != nil && u.detail.ID == task.ID {
		task = *u.detail
	}
	fmt.Fprint(view, formatTaskDetail(task))
}

func (u *UI) currentCategory() (model.Category, bool) {
	if u.categories == nil {
		return model.Category{}, false
	}
	items := u.categories.Snapshot().Items
	if u.selectedCategory < 0 || u.selectedCategory >= len(items) {
		return model.Category{}, false
	}
	return items[u.selectedCategory], true
}

func (u *UI) currentTask() (model.Task, bool) {
	if u.tasks == nil {
		return model.Task{}, false
	}
	items := u.tasks.Snapshot().Items
	if u.selectedTask < 0 || u.selectedTask >= len(items) {
		return model.Task{}, false
	}
	return items[u.selectedTask], true
}

func (u *UI) listLength() int {
	switch {
	case u.route.screen == screenCategories && u.categories != nil:
		return len(u.categories.Snapshot().Items)
	case u.route.screen == screenTasks && u.tasks != nil:
		return len(u.tasks.Snapshot().Items)
	}
	return 0
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.route.screen {
	case screenCategories:
		if u.selectedCategory < u.listLength()-1 {
			u.selectedCategory++
		}
	case screenTasks:
		if u.selectedTask < u.listLength()-1 {
			u.selectedTask++
		}
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.route.screen {
	case screenCategories:
		if u.selectedCategory > 0 {
			u.selectedCategory--
		}
	case screenTasks:
		if u.selectedTask > 0 {
			u.selectedTask--
		}
	}
	return nil
}

func (u *UI) onListClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewMain)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)

	switch u.route.screen {
	case screenCategories:
		u.selectedCategory = clampSelection(row, u.listLength())
	case screenTasks:
		u.selectedTask = clampSelection(row, u.listLength())
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	if view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	u.deleteView(gui, viewHelp)
	return nil
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.confirm != nil || u.helpActive
}

// blocked reports whether list actions must be ignored: an overlay is open
// or a request is still in flight.
func (u *UI) blocked() bool {
	return u.inputActive() || u.inflight > 0
}

func (u *UI) deleteView(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(viewMain)
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func (u *UI) quitIfIdle(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.quit(gui, view)
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  j/k or arrows move selection | mouse click selects",
		"  enter open category (categories) | enter refresh details (tasks)",
		"  b/esc back to categories",
		"",
		"Actions:",
		"  a add | e edit | d delete (asks first)",
		"  x toggle done (tasks) | r reload",
		"",
		"Forms:",
		"  tab/arrows next field | enter save | esc cancel",
		"  space/left/right cycle choices",
		"",
		"Session:",
		"  l log in | s sign up (landing) | L log out",
		"  ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}
