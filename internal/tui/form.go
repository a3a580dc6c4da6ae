package tui

import (
	"fmt"
	"strings"

	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type formKind int

const (
	formLogin formKind = iota
	formSignup
	formCategory
	formTask
)

type formField struct {
	Label   string
	Value   string
	Secret  bool
	Choices []string
}

type formState struct {
	kind formKind
	// editingID is empty when the form creates a new entity.
	editingID string
	fields    []formField
	index     int
}

type formEditor struct {
	ui *UI
}

const (
	fieldEmail = iota
	fieldPassword
)

const (
	fieldSignupName = iota
	fieldSignupEmail
	fieldSignupPassword
	fieldSignupRole
)

const (
	fieldCategoryName = iota
	fieldCategoryDescription
)

const (
	fieldTaskTitle = iota
	fieldTaskDescription
	fieldTaskPriority
	fieldTaskCompleted
)

var (
	roleChoices      = []string{string(model.RoleUser), string(model.RoleAdmin)}
	priorityChoices  = []string{string(model.PriorityLow), string(model.PriorityMedium), string(model.PriorityHigh)}
	completedChoices = []string{"no", "yes"}
)

func newLoginForm() *formState {
	return &formState{kind: formLogin, fields: []formField{
		{Label: "Email"},
		{Label: "Password", Secret: true},
	}}
}

func newSignupForm() *formState {
	return &formState{kind: formSignup, fields: []formField{
		{Label: "Name"},
		{Label: "Email"},
		{Label: "Password", Secret: true},
		{Label: "Role (space/←→)", Value: string(model.RoleUser), Choices: roleChoices},
	}}
}

func newCategoryForm(draft *model.CategoryPatch, id string) *formState {
	form := &formState{kind: formCategory, editingID: id, fields: []formField{
		{Label: "Name"},
		{Label: "Description"},
	}}
	if draft != nil {
		form.fields[fieldCategoryName].Value = deref(draft.Name)
		form.fields[fieldCategoryDescription].Value = deref(draft.Description)
	}
	return form
}

func newTaskForm(draft *model.TaskPatch, id string) *formState {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Priority (space/←→)", Value: string(model.PriorityLow), Choices: priorityChoices},
	}
	if draft == nil {
		return &formState{kind: formTask, fields: fields}
	}

	fields = append(fields, formField{Label: "Completed (space/←→)", Value: "no", Choices: completedChoices})
	fields[fieldTaskTitle].Value = deref(draft.Title)
	fields[fieldTaskDescription].Value = deref(draft.Description)
	if draft.Priority != nil {
		fields[fieldTaskPriority].Value = string(draft.Priority.OrDefault())
	}
	if draft.IsCompleted != nil && *draft.IsCompleted {
		fields[fieldTaskCompleted].Value = "yes"
	}
	return &formState{kind: formTask, editingID: id, fields: fields}
}

func (f *formState) value(index int) string {
	if index < 0 || index >= len(f.fields) {
		return ""
	}
	return strings.TrimSpace(f.fields[index].Value)
}

func (f *formState) title() string {
	switch f.kind {
	case formLogin:
		return "Log in"
	case formSignup:
		return "Sign up"
	case formCategory:
		if f.editingID != "" {
			return "Edit Category"
		}
		return "New Category"
	default:
		if f.editingID != "" {
			return "Edit Task"
		}
		return "New Task"
	}
}

func categoryInputFromForm(f *formState) model.CategoryInput {
	return model.CategoryInput{
		Name:        f.value(fieldCategoryName),
		Description: f.value(fieldCategoryDescription),
	}
}

// applyCategoryForm copies the form into the edit draft.
func applyCategoryForm(f *formState) func(*model.CategoryPatch) {
	name, description := f.value(fieldCategoryName), f.value(fieldCategoryDescription)
	return func(p *model.CategoryPatch) {
		p.Name = &name
		p.Description = &description
	}
}

func taskInputFromForm(f *formState) model.TaskInput {
	return model.TaskInput{
		Title:       f.value(fieldTaskTitle),
		Description: f.value(fieldTaskDescription),
		Priority:    model.Priority(f.value(fieldTaskPriority)).OrDefault(),
	}
}

func applyTaskForm(f *formState) func(*model.TaskPatch) {
	title := f.value(fieldTaskTitle)
	description := f.value(fieldTaskDescription)
	priority := model.Priority(f.value(fieldTaskPriority)).OrDefault()
	completed := f.value(fieldTaskCompleted) == "yes"
	return func(p *model.TaskPatch) {
		p.Title = &title
		p.Description = &description
		p.Priority = &priority
		p.IsCompleted = &completed
	}
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, displayValue(field))
	}
	current := u.form.fields[u.form.index]
	label := current.Label + ": "
	cursorX := len([]rune(label)) + len([]rune(displayValue(current))) + 2
	view.SetCursor(cursorX, u.form.index)
}

func displayValue(field formField) string {
	if field.Secret {
		return strings.Repeat("*", len([]rune(field.Value)))
	}
	return field.Value
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if len(field.Choices) > 0 {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleChoice(field.Choices, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleChoice(field.Choices, field.Value, -1)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

func cycleChoice(choices []string, current string, delta int) string {
	value := strings.TrimSpace(strings.ToLower(current))
	index := 0
	for i, choice := range choices {
		if choice == value {
			index = i
			break
		}
	}
	index = (index + delta + len(choices)) % len(choices)
	return choices[index]
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
