package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
)

// Service is the board controller the model drives. *app.Board satisfies it.
type Service interface {
	Columns() []domain.Column
	TasksForColumn(domain.ID) []domain.Task
	CreateColumn(context.Context) (domain.Column, error)
	DeleteColumn(context.Context, domain.ID) error
	RenameColumn(context.Context, domain.ID, string) error
	CreateTask(context.Context, domain.ID) (domain.Task, error)
	DeleteTask(context.Context, domain.ID) error
	EditTask(context.Context, domain.ID, string) error
	DragStart(domain.DragItem)
	DragOver(context.Context, app.DragEvent) error
	DragEnd(context.Context, app.DragEvent) error
	ActiveDrag() (domain.DragItem, bool)
}

// boardTop is the first screen row of the column borders: header and one spacer line.
const boardTop = 2

// Placeholders shown for blank titles and contents.
const (
	columnPlaceholder = "Column title"
	taskPlaceholder   = "Enter a task name"
)

// loadedMsg carries a fresh read of the board.
type loadedMsg struct {
	columns []domain.Column
	tasks   map[domain.ID][]domain.Task
}

// pointerPress records where a left-button press landed until it becomes a click or a drag.
type pointerPress struct {
	x, y int
	item domain.DragItem
}

// Model is the bubbletea model for the board.
type Model struct {
	svc Service
	ctx context.Context

	ready  bool
	width  int
	height int
	status string

	help  help.Model
	keys  keyMap
	board BoardConfig

	columns        []domain.Column
	tasks          map[domain.ID][]domain.Task
	selectedColumn int
	// selectedTask is an index into the selected column's tasks; -1 selects the column title.
	selectedTask int

	edit       app.EditMode
	editTarget domain.DragItem
	editInput  textinput.Model

	press       *pointerPress
	dragging    bool
	lastOver    domain.ID
	grabbing    bool
	hoverColumn int
	hoverTask   int

	showPreview bool
	markdown    *markdownRenderer
	copyText    func(string) error
}

// NewModel constructs a board model over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:          svc,
		ctx:          context.Background(),
		status:       "loading...",
		help:         h,
		keys:         newKeyMap(),
		board:        DefaultBoardConfig(),
		tasks:        map[domain.ID][]domain.Task{},
		selectedTask: -1,
		edit:         app.NewEditMode(false),
		editInput:    textinput.New(),
		markdown:     &markdownRenderer{},
		copyText:     defaultClipboard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		m.columns = msg.columns
		m.tasks = msg.tasks
		m.clampSelections()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case tea.KeyPressMsg:
		switch {
		case m.edit.Editing():
			return m.handleEditKey(msg)
		case m.grabbing:
			return m.handleGrabKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		if m.edit.Editing() || m.grabbing || m.dragging {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseWheelUp:
			m.selectedTask = max(-1, m.selectedTask-1)
		case tea.MouseWheelDown:
			m.selectedTask = min(len(m.currentColumnTasks())-1, m.selectedTask+1)
		}
		return m, nil

	default:
		return m, nil
	}
}

// loadData reads the board from the service.
func (m Model) loadData() tea.Msg {
	columns := m.svc.Columns()
	tasks := make(map[domain.ID][]domain.Task, len(columns))
	for _, column := range columns {
		tasks[column.ID] = m.svc.TasksForColumn(column.ID)
	}
	return loadedMsg{columns: columns, tasks: tasks}
}

// refresh re-reads the board in place after a mutation.
func (m *Model) refresh() {
	loaded := m.loadData().(loadedMsg)
	m.columns = loaded.columns
	m.tasks = loaded.tasks
	m.clampSelections()
}

// report refreshes the board and records the outcome of a mutation in the status line.
func (m *Model) report(err error, ok string) {
	m.refresh()
	switch {
	case err == nil:
		if ok != "" {
			m.status = ok
		}
	case errors.Is(err, app.ErrPersist):
		m.status = "not saved: " + err.Error()
	default:
		m.status = err.Error()
	}
}

// handleNormalModeKey handles keys while nothing is being edited or dragged.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		m.help.ShowAll = false
		m.showPreview = false
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.clampSelections()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			m.clampSelections()
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > -1 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedTask < len(m.currentColumnTasks())-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.newColumn):
		column, err := m.svc.CreateColumn(m.ctx)
		m.report(err, "column added")
		if column.ID != "" {
			m.focusItem(domain.ColumnItem{Column: column})
		}
		return m, nil
	case key.Matches(msg, m.keys.newTask):
		column, ok := m.currentColumn()
		if !ok {
			m.status = "add a column first"
			return m, nil
		}
		task, err := m.svc.CreateTask(m.ctx, column.ID)
		m.report(err, "task added")
		if task.ID != "" {
			m.focusItem(domain.TaskItem{Task: task})
		}
		return m, nil
	case key.Matches(msg, m.keys.edit):
		item := m.selectedItem()
		if item == nil {
			return m, nil
		}
		return m, m.openEdit(item)
	case key.Matches(msg, m.keys.delete):
		return m.deleteSelected()
	case key.Matches(msg, m.keys.grab):
		m.startGrab()
		return m, nil
	case key.Matches(msg, m.keys.copyTask):
		task, ok := m.selectedTaskItem()
		if !ok {
			return m, nil
		}
		if err := m.copyText(task.Content); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied task"
		return m, nil
	case key.Matches(msg, m.keys.preview):
		if _, ok := m.selectedTaskItem(); ok {
			m.showPreview = !m.showPreview
		}
		return m, nil
	default:
		return m, nil
	}
}

// deleteSelected removes the selected task, or the selected column with its tasks.
func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	switch item := m.selectedItem().(type) {
	case domain.TaskItem:
		m.report(m.svc.DeleteTask(m.ctx, item.Task.ID), "task deleted")
	case domain.ColumnItem:
		count := len(m.tasks[item.Column.ID])
		m.report(m.svc.DeleteColumn(m.ctx, item.Column.ID), fmt.Sprintf("column deleted (%d tasks)", count))
	}
	return m, nil
}

// openEdit enters edit mode on item.
func (m *Model) openEdit(item domain.DragItem) tea.Cmd {
	in := textinput.New()
	in.Prompt = ""
	switch item := item.(type) {
	case domain.ColumnItem:
		in.Placeholder = columnPlaceholder
		in.SetValue(item.Column.Title)
	case domain.TaskItem:
		in.Placeholder = taskPlaceholder
		in.SetValue(item.Task.Content)
	default:
		return nil
	}
	in.CursorEnd()
	m.editInput = in
	m.editTarget = item
	m.edit.Open()
	m.showPreview = false
	m.status = "editing"
	return m.editInput.Focus()
}

// closeEdit leaves edit mode. Content was already saved keystroke by keystroke.
func (m *Model) closeEdit() {
	m.edit.Close()
	m.editTarget = nil
	m.editInput.Blur()
	m.status = "ready"
}

// handleEditKey feeds keys to the editor and saves after every change.
func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.edit.CloseOnKey(msg.String()) {
		m.closeEdit()
		return m, nil
	}
	if key.Matches(msg, m.keys.cancel) {
		m.closeEdit()
		return m, nil
	}

	before := m.editInput.Value()
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	value := m.editInput.Value()
	if value == before {
		return m, cmd
	}

	var err error
	switch target := m.editTarget.(type) {
	case domain.ColumnItem:
		err = m.svc.RenameColumn(m.ctx, target.Column.ID, value)
	case domain.TaskItem:
		err = m.svc.EditTask(m.ctx, target.Task.ID, value)
	}
	m.report(err, "")
	return m, cmd
}

// startGrab begins a keyboard drag of the selected item.
func (m *Model) startGrab() {
	item := m.selectedItem()
	if item == nil || !m.edit.CanDrag() {
		return
	}
	m.svc.DragStart(item)
	m.grabbing = true
	m.hoverColumn = m.selectedColumn
	m.hoverTask = m.selectedTask
	m.status = "dragging " + itemLabel(item)
}

// handleGrabKey moves the hover cursor of a keyboard drag and drops or cancels it.
func (m Model) handleGrabKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	active, ok := m.svc.ActiveDrag()
	if !ok {
		m.grabbing = false
		return m, nil
	}
	_, isColumn := active.(domain.ColumnItem)

	switch {
	case key.Matches(msg, m.keys.cancel):
		err := m.svc.DragEnd(m.ctx, app.DragEvent{Active: active})
		m.grabbing = false
		m.report(err, "drag cancelled")
		m.focusItem(active)
		return m, nil
	case key.Matches(msg, m.keys.drop):
		err := m.svc.DragEnd(m.ctx, app.DragEvent{Active: active, Over: m.itemAt(m.hoverColumn, m.hoverTask)})
		m.grabbing = false
		m.report(err, "dropped "+itemLabel(active))
		m.focusItem(active)
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		m.hoverColumn--
	case key.Matches(msg, m.keys.moveRight):
		m.hoverColumn++
	case key.Matches(msg, m.keys.moveUp):
		if !isColumn {
			m.hoverTask--
		}
	case key.Matches(msg, m.keys.moveDown):
		if !isColumn {
			m.hoverTask++
		}
	default:
		return m, nil
	}

	m.hoverColumn = clamp(m.hoverColumn, 0, len(m.columns)-1)
	if isColumn || len(m.columns) == 0 {
		m.hoverTask = -1
	} else {
		m.hoverTask = clamp(m.hoverTask, -1, len(m.tasks[m.columns[m.hoverColumn].ID])-1)
	}
	over := m.itemAt(m.hoverColumn, m.hoverTask)
	if over == nil || isColumn {
		return m, nil
	}
	m.report(m.svc.DragOver(m.ctx, app.DragEvent{Active: active, Over: over}), "")
	if col, task, ok := m.locate(active.ID()); ok {
		m.hoverColumn, m.hoverTask = col, task
	}
	return m, nil
}

// handleMouseClick records a left-button press. Pressing outside the item being edited ends the edit.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll || m.grabbing {
		return m, nil
	}
	item := m.hitTest(msg.X, msg.Y)
	if m.edit.Editing() {
		if item != nil && m.editTarget != nil && item.ID() == m.editTarget.ID() {
			return m, nil
		}
		m.closeEdit()
	}
	m.press = &pointerPress{x: msg.X, y: msg.Y, item: item}
	if item != nil {
		m.focusItem(item)
	}
	return m, nil
}

// handleMouseMotion starts a drag once the pointer travels far enough and reports hover changes.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.press == nil {
		return m, nil
	}
	if !m.dragging {
		if m.press.item == nil || !m.edit.CanDrag() {
			return m, nil
		}
		if distance(m.press.x, m.press.y, msg.X, msg.Y) < m.board.DragDistance {
			return m, nil
		}
		m.svc.DragStart(m.press.item)
		m.dragging = true
		m.lastOver = m.press.item.ID()
		m.status = "dragging " + itemLabel(m.press.item)
	}

	over := m.hitTest(msg.X, msg.Y)
	if over == nil || over.ID() == m.lastOver {
		return m, nil
	}
	m.lastOver = over.ID()
	active, ok := m.svc.ActiveDrag()
	if !ok {
		return m, nil
	}
	m.report(m.svc.DragOver(m.ctx, app.DragEvent{Active: active, Over: over}), "")
	return m, nil
}

// handleMouseRelease drops an active drag, or treats press and release on one item as a click
// that toggles edit mode.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	press := m.press
	m.press = nil
	if press == nil {
		return m, nil
	}
	over := m.hitTest(msg.X, msg.Y)

	if m.dragging {
		m.dragging = false
		m.lastOver = ""
		active, ok := m.svc.ActiveDrag()
		if !ok {
			return m, nil
		}
		m.report(m.svc.DragEnd(m.ctx, app.DragEvent{Active: active, Over: over}), "dropped "+itemLabel(active))
		m.focusItem(active)
		return m, nil
	}

	if press.item == nil || over == nil || over.ID() != press.item.ID() {
		return m, nil
	}
	// Only one item is edited at a time; a click flips that editor.
	m.edit.Toggle()
	if !m.edit.Editing() {
		m.closeEdit()
		return m, nil
	}
	return m, m.openEdit(over)
}

// hitTest maps a screen cell to the column or task drawn there.
func (m Model) hitTest(x, y int) domain.DragItem {
	relY := y - boardTop
	span := m.columnSpan()
	if relY < 0 || x < 0 || span <= 0 || len(m.columns) == 0 {
		return nil
	}
	colIdx := x / span
	if colIdx >= len(m.columns) || relY >= m.columnRows()+2 {
		return nil
	}
	column := m.columns[colIdx]
	taskIdx := relY - 3 // top border, title, separator
	tasks := m.tasks[column.ID]
	if taskIdx >= 0 && taskIdx < len(tasks) {
		return domain.TaskItem{Task: tasks[taskIdx]}
	}
	return domain.ColumnItem{Column: column}
}

// cellOf returns a screen cell inside item, the inverse of hitTest.
func (m Model) cellOf(item domain.DragItem) (int, int, bool) {
	col, task, ok := m.locate(item.ID())
	if !ok {
		return 0, 0, false
	}
	x := col*m.columnSpan() + 2
	if task < 0 {
		return x, boardTop + 1, true
	}
	return x, boardTop + 3 + task, true
}

// columnRows is the content height shared by every column: title, separator, and the task area.
func (m Model) columnRows() int {
	longest := 0
	for _, column := range m.columns {
		longest = max(longest, len(m.tasks[column.ID]))
	}
	return 2 + max(1, longest) + 1
}

// columnSpan is the rendered width of one column including its margin.
func (m Model) columnSpan() int {
	return lipgloss.Width(m.columnStyle(lipgloss.Color("239")).Render(""))
}

// columnStyle is the bordered box every column is drawn in.
func (m Model) columnStyle(border color.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(m.board.ColumnWidth)
}

// innerWidth is the text width available inside a column.
func (m Model) innerWidth() int {
	return max(1, m.columnSpan()-5)
}

// clampSelections keeps selection and hover indexes inside the board.
func (m *Model) clampSelections() {
	if len(m.columns) == 0 {
		m.selectedColumn = 0
		m.selectedTask = -1
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.columns)-1)
	m.selectedTask = clamp(m.selectedTask, -1, len(m.currentColumnTasks())-1)
}

// focusItem moves the selection to item when it is on the board.
func (m *Model) focusItem(item domain.DragItem) {
	if item == nil {
		return
	}
	if col, task, ok := m.locate(item.ID()); ok {
		m.selectedColumn = col
		m.selectedTask = task
	}
}

// locate finds the column and task index of id. Columns report task index -1.
func (m Model) locate(id domain.ID) (int, int, bool) {
	for colIdx, column := range m.columns {
		if column.ID == id {
			return colIdx, -1, true
		}
		for taskIdx, task := range m.tasks[column.ID] {
			if task.ID == id {
				return colIdx, taskIdx, true
			}
		}
	}
	return 0, 0, false
}

// itemAt returns the column (task -1) or task at the given position.
func (m Model) itemAt(col, task int) domain.DragItem {
	if col < 0 || col >= len(m.columns) {
		return nil
	}
	column := m.columns[col]
	tasks := m.tasks[column.ID]
	if task < 0 || task >= len(tasks) {
		return domain.ColumnItem{Column: column}
	}
	return domain.TaskItem{Task: tasks[task]}
}

func (m Model) selectedItem() domain.DragItem {
	return m.itemAt(m.selectedColumn, m.selectedTask)
}

func (m Model) selectedTaskItem() (domain.Task, bool) {
	return domain.AsTask(m.selectedItem())
}

func (m Model) currentColumn() (domain.Column, bool) {
	if len(m.columns) == 0 {
		return domain.Column{}, false
	}
	return m.columns[clamp(m.selectedColumn, 0, len(m.columns)-1)], true
}

func (m Model) currentColumnTasks() []domain.Task {
	column, ok := m.currentColumn()
	if !ok {
		return nil
	}
	return m.tasks[column.ID]
}

// View renders the board.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	hover := lipgloss.Color("212")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	taskCount := 0
	for _, tasks := range m.tasks {
		taskCount += len(tasks)
	}
	header := titleStyle.Render("lanes") + statusStyle.Render(fmt.Sprintf("  %d columns • %d tasks  [%s]", len(m.columns), taskCount, m.modeLabel()))

	var body string
	if len(m.columns) == 0 {
		body = lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf("No columns yet. Press %s to add one.", m.keys.newColumn.Help().Key))
	} else {
		views := make([]string, 0, len(m.columns))
		for colIdx := range m.columns {
			border := dim
			switch {
			case m.grabbing && colIdx == m.hoverColumn:
				border = hover
			case colIdx == m.selectedColumn:
				border = accent
			}
			views = append(views, m.columnStyle(border).Render(m.renderColumn(colIdx, accent, muted)))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, views...)
	}

	sections := []string{header, "", body}
	if active, ok := m.svc.ActiveDrag(); ok {
		sections = append(sections, lipgloss.NewStyle().Foreground(hover).Render("dragging: "+itemLabel(active)))
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := ""
	switch {
	case m.help.ShowAll:
		overlay = m.renderHelpOverlay(accent, muted)
	case m.showPreview:
		overlay = m.renderPreview(accent)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

// renderColumn draws the title, separator, and task rows of one column.
func (m Model) renderColumn(colIdx int, accent, muted color.Color) string {
	column := m.columns[colIdx]
	tasks := m.tasks[column.ID]
	width := m.innerWidth()
	active, dragging := m.svc.ActiveDrag()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	placeholderStyle := lipgloss.NewStyle().Foreground(muted).Italic(true)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	ghostStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Strikethrough(true)
	countStyle := lipgloss.NewStyle().Foreground(muted)

	prefix := ""
	if colIdx == m.selectedColumn && m.selectedTask < 0 && !m.isEditing(column.ID) {
		prefix = selectedStyle.Render("▸ ")
	}
	room := width - lipgloss.Width(prefix)
	count := fmt.Sprintf(" (%d)", len(tasks))
	var title string
	switch {
	case m.isEditing(column.ID):
		title = lipgloss.NewStyle().MaxWidth(width).Render(m.editInput.View())
	case dragging && active.ID() == column.ID:
		title = prefix + ghostStyle.Render(truncate(displayTitle(column), room))
	case column.Title == "":
		title = prefix + placeholderStyle.Render(truncate(columnPlaceholder, room-len(count))) + countStyle.Render(count)
	default:
		title = prefix + titleStyle.Render(truncate(column.Title, room-len(count))) + countStyle.Render(count)
	}

	lines := []string{title, countStyle.Render(strings.Repeat("─", width))}
	if len(tasks) == 0 {
		lines = append(lines, placeholderStyle.Render("(no tasks)"))
	}
	for taskIdx, task := range tasks {
		selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
		prefix := "  "
		if selected {
			prefix = "│ "
		}
		var line string
		switch {
		case m.isEditing(task.ID):
			line = prefix + lipgloss.NewStyle().MaxWidth(width-2).Render(m.editInput.View())
		case dragging && active.ID() == task.ID:
			line = ghostStyle.Render(prefix + truncate(displayContent(task), width-2))
		case task.Content == "":
			line = prefix + placeholderStyle.Render(truncate(taskPlaceholder, width-2))
		case selected:
			line = selectedStyle.Render(prefix + truncate(displayContent(task), width-2))
		default:
			line = prefix + truncate(displayContent(task), width-2)
		}
		lines = append(lines, line)
	}
	return fitLines(strings.Join(lines, "\n"), m.columnRows())
}

// renderPreview renders the selected task as markdown in a bordered box.
func (m Model) renderPreview(accent color.Color) string {
	task, ok := m.selectedTaskItem()
	if !ok {
		return ""
	}
	width := clamp(m.width-12, 24, 80)
	body := m.markdown.render(task.Content, width-4, m.board.RenderMarkdown)
	if body == "" {
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(taskPlaceholder)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(body)
}

// renderHelpOverlay renders the full key help.
func (m Model) renderHelpOverlay(accent, muted color.Color) string {
	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(max(20, m.width-12))
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("keys")
	hint := lipgloss.NewStyle().Foreground(muted).Render("drag with the mouse, or grab with space and move with arrows")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(strings.Join([]string{title, helpBubble.View(m.keys), "", hint}, "\n"))
}

func (m Model) isEditing(id domain.ID) bool {
	return m.edit.Editing() && m.editTarget != nil && m.editTarget.ID() == id
}

// modeLabel names the current interaction mode for the header.
func (m Model) modeLabel() string {
	switch {
	case m.edit.Editing():
		return "edit"
	case m.grabbing, m.dragging:
		return "drag"
	default:
		return "board"
	}
}

// itemLabel describes a dragged item for the status and overlay lines.
func itemLabel(item domain.DragItem) string {
	switch item := item.(type) {
	case domain.ColumnItem:
		return "column " + displayTitle(item.Column)
	case domain.TaskItem:
		return "task " + truncate(displayContent(item.Task), 32)
	default:
		return ""
	}
}

func displayTitle(column domain.Column) string {
	if column.Title == "" {
		return columnPlaceholder
	}
	return column.Title
}

// displayContent returns the first line of a task's content.
func displayContent(task domain.Task) string {
	first, _, _ := strings.Cut(task.Content, "\n")
	if strings.TrimSpace(first) == "" {
		return taskPlaceholder
	}
	return first
}

// distance is the larger of the horizontal and vertical offsets, in cells.
func distance(x1, y1, x2, y2 int) int {
	return max(abs(x2-x1), abs(y2-y1))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clamp bounds v to [minV, maxV]; when maxV < minV it returns minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
