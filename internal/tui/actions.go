package tui

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/lists"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

type confirmState struct {
	title     string
	message   string
	onConfirm func()
	onCancel  func()
}

// async runs work off the UI goroutine and hands its error to done on the
// UI goroutine. Without a gui both run inline.
func (u *UI) async(work func(ctx context.Context) error, done func(err error)) {
	u.inflight++
	if u.gui == nil {
		err := work(u.ctx)
		u.inflight--
		if done != nil {
			done(err)
		}
		return
	}

	go func() {
		err := work(u.ctx)
		u.gui.Update(func(*gocui.Gui) error {
			u.inflight--
			if done != nil {
				done(err)
			}
			return nil
		})
	}()
}

func (u *UI) redraw() {
	if u.gui == nil {
		return
	}
	u.gui.Update(func(*gocui.Gui) error { return nil })
}

func (u *UI) logFailure(action string) func(error) {
	return func(err error) {
		if err != nil {
			u.log.WithError(err).WithField("action", action).Debug("request failed")
		}
	}
}

func (u *UI) navigate(path string) {
	u.unmount()
	u.route = parseRoute(path)
	u.status = ""
	u.mount()
}

// unmount closes the list controllers of the current screen. Responses
// that arrive afterwards are dropped by the controllers.
func (u *UI) unmount() {
	if u.categories != nil {
		u.categories.Close()
		u.categories = nil
	}
	if u.tasks != nil {
		u.tasks.Close()
		u.tasks = nil
	}
	u.form = nil
	u.confirm = nil
	u.detail = nil
	if u.gui != nil {
		_ = u.gui.DeleteView(viewForm)
		_ = u.gui.DeleteView(viewConfirm)
	}
}

func (u *UI) mount() {
	switch u.route.screen {
	case screenLogin:
		u.form = newLoginForm()
	case screenSignup:
		u.form = newSignupForm()
	case screenCategories:
		u.categoryName = ""
		u.selectedCategory = 0
		categories := lists.NewCategories(u.categorySvc)
		categories.OnChange(func(lists.CategoryState) { u.redraw() })
		u.categories = categories
		u.async(categories.Fetch, u.logFailure("fetch categories"))
	case screenTasks:
		u.selectedTask = 0
		tasks := lists.NewTasks(u.taskSvc, u.route.categoryID)
		tasks.OnChange(func(lists.TaskState) { u.redraw() })
		u.tasks = tasks
		u.async(tasks.Fetch, u.logFailure("fetch tasks"))
		if u.categoryName == "" {
			u.loadCategoryName(u.route.categoryID)
		}
	default:
		u.categoryName = ""
	}
}

func (u *UI) loadCategoryName(id string) {
	var category model.Category
	u.async(func(ctx context.Context) error {
		var err error
		category, err = u.categorySvc.Get(ctx, id)
		return err
	}, func(err error) {
		if err != nil {
			u.logFailure("get category")(err)
			return
		}
		if u.route.screen == screenTasks && u.route.categoryID == id {
			u.categoryName = category.Name
		}
	})
}

func (u *UI) openLogin(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() || u.route.screen != screenLanding {
		return nil
	}
	u.navigate(pathLogin)
	return nil
}

func (u *UI) openSignup(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() || u.route.screen != screenLanding {
		return nil
	}
	u.navigate(pathSignup)
	return nil
}

func (u *UI) openCategories(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() || u.route.screen != screenLanding {
		return nil
	}
	if _, ok := u.session.Token(); !ok {
		u.status = "Log in first"
		return nil
	}
	u.navigate(pathCategories)
	return nil
}

func (u *UI) goBack(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() {
		return nil
	}
	switch u.route.screen {
	case screenTasks:
		u.navigate(pathCategories)
	case screenLogin, screenSignup:
		u.navigate(pathLanding)
	}
	return nil
}

func (u *UI) logout(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() || (u.route.screen != screenCategories && u.route.screen != screenTasks) {
		return nil
	}
	u.async(u.auth.Logout, func(err error) {
		if err != nil {
			u.status = fmt.Sprintf("Logout failed: %v", err)
			u.logFailure("logout")(err)
			return
		}
		u.navigate(pathLogin)
	})
	return nil
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() {
		return nil
	}
	u.status = ""
	switch {
	case u.route.screen == screenCategories && u.categories != nil:
		u.async(u.categories.Fetch, u.logFailure("fetch categories"))
	case u.route.screen == screenTasks && u.tasks != nil:
		u.detail = nil
		u.async(u.tasks.Fetch, u.logFailure("fetch tasks"))
	}
	return nil
}

func (u *UI) addEntity(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() {
		return nil
	}
	switch u.route.screen {
	case screenCategories:
		u.form = newCategoryForm(nil, "")
	case screenTasks:
		u.form = newTaskForm(nil, "")
	}
	return nil
}

func (u *UI) editEntity(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() {
		return nil
	}
	switch u.route.screen {
	case screenCategories:
		category, ok := u.currentCategory()
		if !ok {
			return nil
		}
		u.categories.BeginEdit(category)
		draft := u.categories.Snapshot().Draft
		u.form = newCategoryForm(&draft, category.ID)
	case screenTasks:
		task, ok := u.currentTask()
		if !ok {
			return nil
		}
		u.tasks.BeginEdit(task)
		draft := u.tasks.Snapshot().Draft
		u.form = newTaskForm(&draft, task.ID)
	}
	return nil
}

func (u *UI) deleteEntity(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() {
		return nil
	}
	switch u.route.screen {
	case screenCategories:
		category, ok := u.currentCategory()
		if !ok {
			return nil
		}
		categories := u.categories
		categories.RequestDelete(category)
		u.confirm = &confirmState{
			title:   "Delete Category",
			message: fmt.Sprintf("Delete %q and its tasks?", category.Name),
			onConfirm: func() {
				u.async(categories.ConfirmDelete, u.logFailure("delete category"))
			},
			onCancel: categories.CancelDelete,
		}
	case screenTasks:
		task, ok := u.currentTask()
		if !ok {
			return nil
		}
		tasks := u.tasks
		tasks.RequestDelete(task)
		u.confirm = &confirmState{
			title:   "Delete Task",
			message: fmt.Sprintf("Delete %q?", task.Title),
			onConfirm: func() {
				u.async(tasks.ConfirmDelete, u.logFailure("delete task"))
			},
			onCancel: tasks.CancelDelete,
		}
	}
	return nil
}

func (u *UI) toggleComplete(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() || u.route.screen != screenTasks {
		return nil
	}
	task, ok := u.currentTask()
	if !ok {
		return nil
	}
	tasks := u.tasks
	u.status = ""
	u.async(func(ctx context.Context) error {
		_, err := tasks.ToggleComplete(ctx, task)
		return err
	}, u.logFailure("toggle task"))
	return nil
}

func (u *UI) openEntity(_ *gocui.Gui, _ *gocui.View) error {
	if u.blocked() {
		return nil
	}
	switch u.route.screen {
	case screenCategories:
		category, ok := u.currentCategory()
		if !ok {
			return nil
		}
		u.categoryName = category.Name
		u.navigate(tasksPath(category.ID))
	case screenTasks:
		task, ok := u.currentTask()
		if !ok {
			return nil
		}
		u.showTaskDetail(task.ID)
	}
	return nil
}

// showTaskDetail fetches the task again so the detail pane is current.
func (u *UI) showTaskDetail(id string) {
	var task model.Task
	u.async(func(ctx context.Context) error {
		var err error
		task, err = u.taskSvc.Get(ctx, id)
		return err
	}, func(err error) {
		if err != nil {
			u.status = api.MessageOr(err, "Failed to load task")
			u.logFailure("get task")(err)
			return
		}
		if u.route.screen == screenTasks {
			u.detail = &task
		}
	})
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(10, max(6, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = u.form.title()
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}
	form := u.form
	switch {
	case form.kind == formLogin || form.kind == formSignup:
		u.navigate(pathLanding)
		return nil
	case form.kind == formCategory && form.editingID != "" && u.categories != nil:
		u.categories.CancelEdit()
	case form.kind == formTask && form.editingID != "" && u.tasks != nil:
		u.tasks.CancelEdit()
	}
	u.closeForm(gui)
	return nil
}

func (u *UI) closeForm(gui *gocui.Gui) {
	u.form = nil
	u.deleteView(gui, viewForm)
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.inflight > 0 {
		return nil
	}
	u.status = ""
	switch u.form.kind {
	case formLogin:
		u.submitLogin()
	case formSignup:
		u.submitSignup()
	case formCategory:
		u.submitCategory(gui)
	case formTask:
		u.submitTask(gui)
	}
	return nil
}

func (u *UI) submitLogin() {
	email, password := u.form.value(fieldEmail), u.form.fields[fieldPassword].Value
	if email == "" || password == "" {
		u.status = "Email and password are required"
		return
	}
	u.async(func(ctx context.Context) error {
		_, err := u.auth.Login(ctx, email, password)
		return err
	}, func(err error) {
		if err != nil {
			u.status = api.MessageOr(err, "Login failed")
			u.logFailure("login")(err)
			return
		}
		u.navigate(pathCategories)
	})
}

func (u *UI) submitSignup() {
	form := u.form
	name := form.value(fieldSignupName)
	email := form.value(fieldSignupEmail)
	password := form.fields[fieldSignupPassword].Value
	role := model.Role(form.value(fieldSignupRole))
	if name == "" || email == "" || password == "" {
		u.status = "Name, email and password are required"
		return
	}
	u.async(func(ctx context.Context) error {
		_, err := u.auth.SignUp(ctx, name, email, password, role)
		return err
	}, func(err error) {
		if err != nil {
			u.status = api.MessageOr(err, "Sign up failed")
			u.logFailure("sign up")(err)
			return
		}
		u.navigate(pathCategories)
	})
}

// submitCategory keeps the form open when the request fails; the list's
// error message explains why.
func (u *UI) submitCategory(gui *gocui.Gui) {
	categories := u.categories
	if categories == nil {
		return
	}
	form := u.form

	if form.editingID == "" {
		input := categoryInputFromForm(form)
		u.async(func(ctx context.Context) error {
			_, err := categories.Create(ctx, input)
			return err
		}, u.afterSubmit(gui, form, "create category"))
		return
	}

	if form.value(fieldCategoryName) == "" {
		u.status = lists.ErrNameRequired.Error()
		return
	}
	apply, id := applyCategoryForm(form), form.editingID
	u.async(func(ctx context.Context) error {
		if err := categories.EditDraft(apply); err != nil {
			return err
		}
		_, err := categories.CommitEdit(ctx, id)
		return err
	}, u.afterSubmit(gui, form, "update category"))
}

func (u *UI) submitTask(gui *gocui.Gui) {
	tasks := u.tasks
	if tasks == nil {
		return
	}
	form := u.form

	if form.editingID == "" {
		input := taskInputFromForm(form)
		u.async(func(ctx context.Context) error {
			_, err := tasks.Create(ctx, input)
			return err
		}, u.afterSubmit(gui, form, "create task"))
		return
	}

	if form.value(fieldTaskTitle) == "" {
		u.status = lists.ErrTitleRequired.Error()
		return
	}
	apply, id := applyTaskForm(form), form.editingID
	u.async(func(ctx context.Context) error {
		if err := tasks.EditDraft(apply); err != nil {
			return err
		}
		_, err := tasks.CommitEdit(ctx, id)
		return err
	}, u.afterSubmit(gui, form, "update task"))
}

func (u *UI) afterSubmit(gui *gocui.Gui, form *formState, action string) func(error) {
	return func(err error) {
		if err != nil {
			u.logFailure(action)(err)
			return
		}
		if u.form == form {
			u.closeForm(gui)
		}
	}
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/3)
	height := 4
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	view.Title = u.confirm.title
	view.FrameColor = gocui.ColorRed
	view.Clear()
	fmt.Fprintf(view, "%s\n\ny/enter confirm | n/esc cancel", u.confirm.message)
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}

func (u *UI) confirmYes(gui *gocui.Gui, _ *gocui.View) error {
	if u.confirm == nil {
		return nil
	}
	confirm := u.confirm
	u.confirm = nil
	u.deleteView(gui, viewConfirm)
	u.status = ""
	if confirm.onConfirm != nil {
		confirm.onConfirm()
	}
	return nil
}

func (u *UI) confirmNo(gui *gocui.Gui, _ *gocui.View) error {
	if u.confirm == nil {
		return nil
	}
	confirm := u.confirm
	u.confirm = nil
	u.deleteView(gui, viewConfirm)
	if confirm.onCancel != nil {
		confirm.onCancel()
	}
	return nil
}
