package cli

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/drilldown/pkg/builder"
	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/io"
	"github.com/matzehuels/drilldown/pkg/layout"
	"github.com/matzehuels/drilldown/pkg/render"
	"github.com/matzehuels/drilldown/pkg/session"
)

// =============================================================================
// Key Bindings
// =============================================================================

type editorKeys struct {
	Up, Down, Focus   key.Binding
	Drill, Back       key.Binding
	New, Edit, Delete key.Binding
	Link, Release     key.Binding
	Cancel            key.Binding
	Group, Builder    key.Binding
	Copy, Save        key.Binding
	Help, Quit        key.Binding
}

func defaultEditorKeys() editorKeys {
	return editorKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "entities/flows")),
		Drill:   key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("⏎/l", "drill in")),
		Back:    key.NewBinding(key.WithKeys("backspace", "h"), key.WithHelp("⌫/h", "back")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new entity")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Link:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		Release: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎", "drop here")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Group:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "new group")),
		Builder: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "builder on/off")),
		Copy:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy JSON")),
		Save:    key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "save")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Drill, k.Back, k.New, k.Link, k.Edit, k.Save, k.Help, k.Quit}
}

func (k editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Focus, k.Drill, k.Back},
		{k.New, k.Edit, k.Delete, k.Link, k.Group},
		{k.Builder, k.Copy, k.Save, k.Help, k.Quit},
	}
}

// =============================================================================
// Styles
// =============================================================================

var (
	editorTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorBadgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(colorGreen).Padding(0, 1)
	editorCrumbStyle  = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	editorPaneStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	editorActiveStyle = editorPaneStyle.BorderForeground(colorCyan)
	editorSelected    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorNormal      = lipgloss.NewStyle().Foreground(colorWhite)
	editorHover       = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

const labelColumns = 28

// =============================================================================
// Editor Model
// =============================================================================

type editorMode int

const (
	modeBrowse editorMode = iota
	modeLink
	modeForm
)

type editorPane int

const (
	paneEntities editorPane = iota
	paneFlows
)

// editor is the bubbletea model behind `drilldown edit`. It drives the
// builder controller with the keyboard: the link gesture becomes "c" on a
// source, arrow keys to move the pointer across entities and enter to drop.
type editor struct {
	s     *session.Session
	path  string
	scene *render.Scene
	keys  editorKeys
	help  help.Model
	log   *statusLog

	mode       editorMode
	focus      editorPane
	cursor     int
	flowCursor int
	hover      int

	form      *huh.Form
	formCmd   tea.Cmd
	onSubmit  func()
	confirmed bool

	status string
	width  int
	height int
}

func newEditor(s *session.Session, path string, lo layout.Options, status *statusLog) *editor {
	m := &editor{
		s:    s,
		path: path,
		keys: defaultEditorKeys(),
		help: help.New(),
		log:  status,
	}
	m.scene = render.NewScene(s.Model.Current(), s.Groups, render.Options{Title: s.Title(), Layout: lo})
	s.Model.OnRender(func(g *graph.Graph) {
		m.scene.Rebuild(g, s.Groups)
		m.clampCursors()
	})
	s.Builder.SetSurface(m.scene)
	s.Builder.SetForms(editorForms{m})
	s.Builder.SetConfirmer(editorConfirmer{m})
	s.Builder.Enable()
	return m
}

func (m *editor) Init() tea.Cmd {
	return nil
}

func (m *editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = size.Width, size.Height
		m.help.Width = size.Width
		if m.form != nil {
			m.form = m.form.WithWidth(m.formWidth())
		}
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeLink:
		if k, ok := msg.(tea.KeyMsg); ok {
			m.updateLink(k)
		}
	default:
		if k, ok := msg.(tea.KeyMsg); ok {
			if key.Matches(k, m.keys.Quit) {
				return m, tea.Quit
			}
			m.updateBrowse(k)
		}
	}
	return m, m.takeFormCmd()
}

func (m *editor) updateBrowse(k tea.KeyMsg) {
	b := m.s.Builder
	m.status = ""

	switch {
	case key.Matches(k, m.keys.Up):
		m.move(-1)
	case key.Matches(k, m.keys.Down):
		m.move(1)
	case key.Matches(k, m.keys.Focus):
		if m.focus == paneEntities {
			m.focus = paneFlows
		} else {
			m.focus = paneEntities
		}
	case key.Matches(k, m.keys.Drill):
		if e := m.selected(); e != nil {
			if b.Drill(e.ID) {
				m.cursor, m.flowCursor, m.focus = 0, 0, paneEntities
			} else {
				m.status = fmt.Sprintf("%s has no nested graph", e.Label)
			}
		}
	case key.Matches(k, m.keys.Back):
		if d := m.s.Stack.Depth(); d > 1 {
			b.Back(d - 2)
			m.cursor, m.flowCursor = 0, 0
		}
	case key.Matches(k, m.keys.New):
		if _, ok := b.CreateEntityAt(m.freeSpot()); ok {
			m.cursor = len(m.s.Model.Current().Nodes) - 1
		} else {
			m.status = "builder mode is off"
		}
	case key.Matches(k, m.keys.Edit):
		if m.focus == paneFlows {
			if f := m.selectedFlow(); f != nil {
				b.EditFlow(f.ID)
			}
		} else if e := m.selected(); e != nil {
			b.EditEntity(e.ID)
		}
	case key.Matches(k, m.keys.Delete):
		if !b.Enabled() {
			m.status = "builder mode is off"
		} else if m.focus == paneFlows {
			if f := m.selectedFlow(); f != nil {
				b.DeleteFlow(f.ID)
			}
		} else if e := m.selected(); e != nil {
			b.DeleteEntity(e.ID)
		}
	case key.Matches(k, m.keys.Link):
		m.beginLink()
	case key.Matches(k, m.keys.Group):
		if b.Enabled() {
			m.groupForm()
		} else {
			m.status = "builder mode is off"
		}
	case key.Matches(k, m.keys.Builder):
		if b.Enabled() {
			b.Disable()
			m.status = "builder mode off"
		} else {
			b.Enable()
			m.status = "builder mode on"
		}
	case key.Matches(k, m.keys.Copy):
		m.copyPackage()
	case key.Matches(k, m.keys.Save):
		m.save()
	case key.Matches(k, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

// beginLink starts the link gesture on the selected entity and parks the
// pointer on the next entity.
func (m *editor) beginLink() {
	e := m.selected()
	if e == nil {
		return
	}
	n, ok := m.scene.Node(e.ID)
	if !ok || !m.s.Builder.BeginLinkDrag(e.ID, graph.Position{X: n.X, Y: n.Y}) {
		m.status = "cannot start a flow here"
		return
	}
	m.mode = modeLink
	m.hover = m.cursor
	m.moveHover(1)
}

func (m *editor) updateLink(k tea.KeyMsg) {
	b := m.s.Builder
	switch {
	case key.Matches(k, m.keys.Up):
		m.moveHover(-1)
	case key.Matches(k, m.keys.Down):
		m.moveHover(1)
	case key.Matches(k, m.keys.Release):
		m.mode = modeBrowse
		if _, ok := b.Release(b.Pointer()); !ok {
			m.status = "no flow created"
		}
	case key.Matches(k, m.keys.Cancel), key.Matches(k, m.keys.Quit):
		b.CancelDrag()
		m.mode = modeBrowse
	}
}

func (m *editor) moveHover(delta int) {
	nodes := m.s.Model.Current().Nodes
	if len(nodes) == 0 {
		return
	}
	m.hover = (m.hover + delta + len(nodes)) % len(nodes)
	if n, ok := m.scene.Node(nodes[m.hover].ID); ok {
		m.s.Builder.MovePointer(graph.Position{X: n.X, Y: n.Y})
	}
}

func (m *editor) move(delta int) {
	if m.focus == paneFlows {
		m.flowCursor = clamp(m.flowCursor+delta, len(m.flows()))
		return
	}
	m.cursor = clamp(m.cursor+delta, len(m.s.Model.Current().Nodes))
	m.flowCursor = 0
}

func (m *editor) clampCursors() {
	m.cursor = clamp(m.cursor, len(m.s.Model.Current().Nodes))
	m.flowCursor = clamp(m.flowCursor, len(m.flows()))
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *editor) selected() *graph.Entity {
	nodes := m.s.Model.Current().Nodes
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return nil
	}
	return nodes[m.cursor]
}

// flows returns the flows touching the selected entity.
func (m *editor) flows() []*graph.Flow {
	e := m.selected()
	if e == nil {
		return nil
	}
	return m.s.Model.Current().FlowsOf(e.ID)
}

func (m *editor) selectedFlow() *graph.Flow {
	fs := m.flows()
	if m.flowCursor < 0 || m.flowCursor >= len(fs) {
		return nil
	}
	return fs[m.flowCursor]
}

// freeSpot places new entities on a grid inside the canvas.
func (m *editor) freeSpot() graph.Position {
	n := len(m.s.Model.Current().Nodes)
	return graph.Position{X: 100 + float64(n%5)*150, Y: 100 + float64(n/5)*150}
}

func (m *editor) save() {
	if err := m.s.SaveFile(m.path); err != nil {
		m.status = errors.UserMessage(err)
		return
	}
	m.status = "saved " + m.path
}

func (m *editor) copyPackage() {
	data, err := m.s.Serializer.Marshal(io.FormatJSON)
	if err == nil {
		err = clipboard.WriteAll(string(data))
	}
	if err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied %d bytes of JSON", len(data))
}

// =============================================================================
// Forms
// =============================================================================

func (m *editor) formWidth() int {
	if m.width <= 0 {
		return 60
	}
	return min(m.width-4, 72)
}

func (m *editor) openForm(f *huh.Form, onSubmit func()) {
	m.form = f.WithShowHelp(true).WithWidth(m.formWidth())
	m.formCmd = m.form.Init()
	m.onSubmit = onSubmit
	m.mode = modeForm
}

func (m *editor) takeFormCmd() tea.Cmd {
	cmd := m.formCmd
	m.formCmd = nil
	return cmd
}

func (m *editor) closeForm() {
	m.form, m.onSubmit = nil, nil
	m.mode = modeBrowse
}

// submitForm applies the open form and closes it.
func (m *editor) submitForm() {
	done := m.onSubmit
	m.closeForm()
	if done != nil {
		done()
	}
}

func (m *editor) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Cancel) {
		m.closeForm()
		m.status = "cancelled"
		return m, nil
	}
	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.submitForm()
		return m, m.takeFormCmd()
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *editor) entityForm(e *graph.Entity) {
	v := struct{ label, group, desc string }{e.Label, m.s.Groups.ResolveKey(e.Group), e.Description}
	opts := make([]huh.Option[string], 0, m.s.Groups.Len())
	for _, g := range m.s.Groups.All() {
		opts = append(opts, huh.NewOption(g.Title, g.Key))
	}
	id := e.ID

	m.openForm(huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Label").Value(&v.label).Validate(required("label")),
		huh.NewSelect[string]().Title("Group").Options(opts...).Value(&v.group),
		huh.NewText().Title("Description").Value(&v.desc).Lines(4),
	)), func() {
		m.s.Builder.SubmitEntity(id, graph.EntityPatch{Label: &v.label, Group: &v.group, Description: &v.desc})
	})
}

func (m *editor) flowForm(f *graph.Flow) {
	v := struct {
		kind  graph.FlowKind
		label string
		dir   graph.Direction
	}{f.Kind, f.Label, f.Direction}
	kinds := make([]huh.Option[graph.FlowKind], len(graph.FlowKinds))
	for i, k := range graph.FlowKinds {
		kinds[i] = huh.NewOption(string(k), k)
	}
	dirs := make([]huh.Option[graph.Direction], len(graph.Directions))
	for i, d := range graph.Directions {
		dirs[i] = huh.NewOption(string(d), d)
	}
	id := f.ID

	m.openForm(huh.NewForm(huh.NewGroup(
		huh.NewSelect[graph.FlowKind]().Title("Kind").Options(kinds...).Value(&v.kind),
		huh.NewInput().Title("Label").Value(&v.label),
		huh.NewSelect[graph.Direction]().Title("Direction").Options(dirs...).Value(&v.dir),
	)), func() {
		m.s.Builder.SubmitFlow(id, graph.FlowPatch{Kind: &v.kind, Label: &v.label, Direction: &v.dir})
	})
}

func (m *editor) groupForm() {
	v := struct{ title, color, radius string }{color: builder.NewGroupColor, radius: strconv.FormatFloat(builder.NewGroupRadius, 'f', -1, 64)}

	m.openForm(huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Title").Value(&v.title).Validate(required("title")),
		huh.NewInput().Title("Color").Value(&v.color).Validate(errors.ValidateColor),
		huh.NewInput().Title("Radius").Value(&v.radius).Validate(func(s string) error {
			r, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "radius must be a number")
			}
			return errors.ValidateRadius(r)
		}),
	)), func() {
		r, _ := strconv.ParseFloat(v.radius, 64)
		if _, ok := m.s.Builder.AddGroup(v.title, v.color, r); ok {
			m.status = "added group " + v.title
		}
	})
}

func (m *editor) confirmForm(prompt string, proceed func()) {
	m.confirmed = false
	m.openForm(huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(prompt).Affirmative("Delete").Negative("Keep").Value(&m.confirmed),
	)), func() {
		if m.confirmed {
			proceed()
		}
	})
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "%s is required", field)
		}
		return nil
	}
}

// editorForms and editorConfirmer let the builder open forms in the editor.
type editorForms struct{ m *editor }

func (f editorForms) EditEntity(e *graph.Entity) { f.m.entityForm(e) }
func (f editorForms) EditFlow(fl *graph.Flow)    { f.m.flowForm(fl) }

type editorConfirmer struct{ m *editor }

func (c editorConfirmer) Confirm(prompt string, proceed func()) { c.m.confirmForm(prompt, proceed) }

// =============================================================================
// View
// =============================================================================

func (m *editor) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.mode == modeForm && m.form != nil {
		b.WriteString(m.form.View())
	} else {
		entities := m.entityPane()
		flows := m.flowPane()
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, entities, " ", flows))
	}
	b.WriteString("\n")

	status := m.status
	if status == "" && m.log != nil {
		status = m.log.Last()
	}
	if m.mode == modeLink {
		status = m.linkStatus()
	}
	b.WriteString(StyleDim.Render(status))
	b.WriteString("\n")
	if m.mode != modeForm {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *editor) header() string {
	title := editorTitleStyle.Render(m.s.Title())
	if m.s.Dirty() {
		title += StyleWarning.Render(" ●")
	}
	if m.s.Builder.Enabled() {
		title += " " + editorBadgeStyle.Render("builder")
	}

	crumbs := m.s.Stack.Breadcrumbs()
	parts := make([]string, len(crumbs))
	for i, c := range crumbs {
		if c.Interactive {
			parts[i] = editorCrumbStyle.Render(c.Label)
		} else {
			parts[i] = StyleValue.Render(c.Label)
		}
	}
	return title + "\n" + strings.Join(parts, StyleDim.Render(" › "))
}

func (m *editor) entityPane() string {
	g := m.s.Model.Current()
	lines := []string{StyleDim.Render(fmt.Sprintf("Entities (%d)", len(g.Nodes)))}
	if len(g.Nodes) == 0 {
		lines = append(lines, StyleDim.Render("empty, press n"))
	}
	for i, e := range g.Nodes {
		grp := m.s.Groups.Resolve(e.Group)
		cursor := "  "
		style := editorNormal
		if i == m.cursor {
			cursor = "▸ "
			style = editorSelected
		}
		if m.mode == modeLink && i == m.hover {
			cursor = iconArrow + " "
			style = editorHover
		}
		label := runewidth.Truncate(e.Label, labelColumns, "…")
		line := cursor + swatch(grp.Color) + " " + style.Render(label)
		if e.SubGraph != nil {
			line += StyleDim.Render(" " + iconNested)
		}
		lines = append(lines, line)
	}
	pane := editorPaneStyle
	if m.focus == paneEntities {
		pane = editorActiveStyle
	}
	return pane.Render(strings.Join(lines, "\n"))
}

func (m *editor) flowPane() string {
	e := m.selected()
	if e == nil {
		return editorPaneStyle.Render(StyleDim.Render("Flows"))
	}
	g := m.s.Model.Current()
	fs := m.flows()
	lines := []string{StyleDim.Render(fmt.Sprintf("Flows of %s (%d)", runewidth.Truncate(e.Label, labelColumns, "…"), len(fs)))}
	for i, f := range fs {
		other, arrow := f.Target, iconArrow
		if f.Target == e.ID {
			other, arrow = f.Source, "←"
		}
		if o, ok := g.Entity(other); ok {
			other = o.Label
		}
		text := fmt.Sprintf("%s %s (%s)", arrow, runewidth.Truncate(other, labelColumns, "…"), f.Kind)
		if f.Label != "" {
			text += " " + f.Label
		}
		if m.focus == paneFlows && i == m.flowCursor {
			text = editorSelected.Render("▸ " + text)
		} else {
			text = editorNormal.Render("  " + text)
		}
		lines = append(lines, text)
	}
	pane := editorPaneStyle
	if m.focus == paneFlows {
		pane = editorActiveStyle
	}
	return pane.Render(strings.Join(lines, "\n"))
}

func (m *editor) linkStatus() string {
	src, _ := m.s.Builder.DragSource()
	from := src
	if e, ok := m.s.Model.Entity(src); ok {
		from = e.Label
	}
	to := ""
	if nodes := m.s.Model.Current().Nodes; m.hover < len(nodes) {
		to = nodes[m.hover].Label
	}
	return fmt.Sprintf("connect %s %s %s  (⏎ drop, esc cancel)", from, iconArrow, to)
}

// =============================================================================
// Status Log
// =============================================================================

// statusLog keeps the last line written by the logger so no-op reasons show
// in the status bar instead of corrupting the screen.
type statusLog struct {
	mu   sync.Mutex
	last string
}

func (l *statusLog) Write(p []byte) (int, error) {
	lines := strings.Split(strings.TrimRight(string(p), "\n"), "\n")
	l.mu.Lock()
	l.last = lines[len(lines)-1]
	l.mu.Unlock()
	return len(p), nil
}

// Last returns the most recent log line.
func (l *statusLog) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
