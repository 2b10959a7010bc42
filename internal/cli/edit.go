package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/editor"
	"github.com/matzehuels/kintree/pkg/errors"
	kio "github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/tree"
)

// closenessStep is how far +/- move a relation's closeness.
const closenessStep = 10

var (
	editCursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	editFemaleStyle   = lipgloss.NewStyle().Foreground(colorPink)
	editNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	editErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// relationKeys maps keys to the relation kind they request, relative to
// the first selected person.
var relationKeys = map[string]tree.Kind{
	"p": tree.KindParent,
	"c": tree.KindChild,
	"s": tree.KindSpouse,
	"b": tree.KindSibling,
}

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "edit [tree.json]",
		Short: "Edit a family tree interactively",
		Long: `Edit a family tree interactively in the terminal.

Select one person to remove them or toggle their gender; select two to
connect them. Relation keys are read from the first selected person:
"p" makes them the parent of the second, "c" their child.

A missing input file starts an empty tree, seeded with the configured
persona. Saving writes the export format to --output, or back to the input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			if output == "" {
				output = input
			}
			if output == "" {
				output = kio.DefaultExportName
			}
			return c.runEdit(cmd.Context(), input, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "save target (default: the input file, or "+kio.DefaultExportName+")")
	return cmd
}

func (c *CLI) runEdit(ctx context.Context, input, output string) error {
	t := tree.New()
	if input != "" {
		if _, err := kio.LoadFile(t, input); err != nil && !errors.Is(err, errors.ErrCodeFileNotFound) {
			return fmt.Errorf("load tree %s: %w", input, err)
		}
	}

	// The TUI owns the terminal; debug output would corrupt it.
	quiet := newLogger(os.Stderr, LogInfo)
	ed := editor.New(
		editor.WithTree(t),
		editor.WithLayout(c.layoutOptions()),
		editor.WithLogger(quiet),
		editor.WithContext(ctx),
		editor.WithPersona(c.cfg.Persona),
	)

	m := newEditModel(editor.NewController(ed), output)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(editModel); ok && fm.dirty {
		printWarning("Quit with unsaved changes")
	}
	return nil
}

// =============================================================================
// editModel - bubbletea model over an editor.Controller
// =============================================================================

type inputMode int

const (
	inputNone inputMode = iota
	inputAdd
	inputRename
)

type editModel struct {
	ctl    *editor.Controller
	output string

	cursor int
	input  inputMode
	text   string

	status    string
	statusErr bool
	dirty     bool
}

func newEditModel(ctl *editor.Controller, output string) editModel {
	return editModel{ctl: ctl, output: output}
}

// people returns everyone in generation order, left to right.
func (m editModel) people() []layout.NodePosition {
	var out []layout.NodePosition
	for _, row := range m.ctl.Editor().Snapshot().Levels() {
		out = append(out, row...)
	}
	return out
}

func (m editModel) Init() tea.Cmd { return nil }

func (m editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.input != inputNone {
		return m.updateInput(key), nil
	}

	people := m.people()
	switch k := key.String(); k {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(people)-1 {
			m.cursor++
		}
	case " ", "enter":
		if m.cursor < len(people) {
			m.ctl.Click(people[m.cursor].ID)
		}
	case "esc":
		m.ctl.Deselect()
	case "a":
		m.input, m.text = inputAdd, ""
	case "r":
		if m.ctl.State().Mode == editor.ModeSingle {
			m.input, m.text = inputRename, m.ctl.State().Selected[0].Name
		}
	case "d", "delete":
		m = m.apply(m.ctl.Remove())
	case "g":
		m = m.apply(m.ctl.ToggleGender())
	case "x":
		m = m.apply(m.ctl.Disconnect())
	case "+", "=", "-":
		st := m.ctl.State()
		if st.Related {
			delta := closenessStep
			if k == "-" {
				delta = -closenessStep
			}
			m = m.apply(m.ctl.ChangeCloseness(st.Closeness + delta))
		}
	case "w":
		m = m.save()
	default:
		if kind, ok := relationKeys[k]; ok {
			if m.ctl.State().Related {
				m = m.apply(m.ctl.ChangeKind(kind))
			} else {
				m = m.apply(m.ctl.Connect(kind, tree.DefaultCloseness))
			}
		}
	}
	m.cursor = min(m.cursor, max(len(m.people())-1, 0))
	return m, nil
}

// updateInput handles keys while a name is being typed.
func (m editModel) updateInput(key tea.KeyMsg) editModel {
	switch key.Type {
	case tea.KeyEsc:
		m.input = inputNone
	case tea.KeyEnter:
		mode := m.input
		m.input = inputNone
		if mode == inputAdd {
			id, snap, err := m.ctl.Add(m.text, tree.GenderMale)
			m = m.apply(snap, err)
			if err == nil {
				m.cursor = m.indexOf(id)
			}
		} else if st := m.ctl.State(); st.Mode == editor.ModeSingle {
			m = m.apply(m.ctl.Editor().Rename(st.Selected[0].ID, m.text))
		}
	case tea.KeyBackspace:
		if r := []rune(m.text); len(r) > 0 {
			m.text = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.text += " "
	case tea.KeyRunes:
		m.text += string(key.Runes)
	}
	return m
}

// apply records the outcome of an edit.
func (m editModel) apply(_ layout.Snapshot, err error) editModel {
	if err != nil {
		m.status, m.statusErr = errors.UserMessage(err), true
		return m
	}
	m.status, m.statusErr = "", false
	m.dirty = true
	return m
}

func (m editModel) save() editModel {
	if err := kio.ExportJSON(m.ctl.Editor().Tree(), m.output); err != nil {
		m.status, m.statusErr = errors.UserMessage(err), true
		return m
	}
	m.status, m.statusErr = "Saved "+m.output, false
	m.dirty = false
	return m
}

func (m editModel) indexOf(id int) int {
	for i, p := range m.people() {
		if p.ID == id {
			return i
		}
	}
	return m.cursor
}

// =============================================================================
// View
// =============================================================================

func (m editModel) View() string {
	var b strings.Builder
	st := m.ctl.State()

	title := "Family tree"
	if m.dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title) + "\n")
	b.WriteString(StyleDim.Render(hintsFor(st.Mode)) + "\n\n")

	b.WriteString(m.peopleTable(st) + "\n\n")
	b.WriteString(describeState(st) + "\n")

	switch {
	case m.input == inputAdd:
		b.WriteString("\nName: " + m.text + "█\n")
	case m.input == inputRename:
		b.WriteString("\nRename to: " + m.text + "█\n")
	case m.status != "" && m.statusErr:
		b.WriteString("\n" + editErrorStyle.Render(iconError+" "+m.status) + "\n")
	case m.status != "":
		b.WriteString("\n" + styleIconSuccess.Render(iconSuccess) + " " + m.status + "\n")
	}
	return b.String()
}

func (m editModel) peopleTable(st editor.State) string {
	people := m.people()
	selected := make(map[int]bool, len(st.Selected))
	for _, n := range st.Selected {
		selected[n.ID] = true
	}

	rows := make([][]string, 0, len(people))
	for i, p := range people {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		mark := " "
		if selected[p.ID] {
			mark = "●"
		}
		rows = append(rows, []string{cursor, mark, p.Name, p.Gender.Symbol(), fmt.Sprint(p.Level), fmt.Sprint(p.ID)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("", "", "Name", "", "Gen", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return editHeaderStyle
			}
			if row < 0 || row >= len(people) {
				return editNormalStyle
			}
			p := people[row]
			switch {
			case selected[p.ID]:
				return editSelectedStyle
			case row == m.cursor:
				return editCursorStyle
			case p.Gender == tree.GenderFemale:
				return editFemaleStyle
			}
			return editNormalStyle
		}).
		Render()
}

func hintsFor(mode editor.Mode) string {
	base := "↑/↓ move  ␣ select  a add  w save  q quit"
	switch mode {
	case editor.ModeSingle:
		return base + "  ·  r rename  g gender  d remove  esc clear"
	case editor.ModePair:
		return base + "  ·  p parent  c child  s spouse  b sibling  +/- closeness  x unlink  esc clear"
	}
	return base
}

// describeState summarizes the selection, naming the pair's relation from
// the first person's point of view.
func describeState(st editor.State) string {
	switch st.Mode {
	case editor.ModeSingle:
		n := st.Selected[0]
		return fmt.Sprintf("Selected: %s %s", n.Name, n.Gender.Symbol())
	case editor.ModePair:
		a, b := st.Selected[0], st.Selected[1]
		if !st.Related {
			return fmt.Sprintf("Selected: %s and %s (unrelated)", a.Name, b.Name)
		}
		return fmt.Sprintf("Selected: %s is %s of %s, closeness %d", a.Name, kindPhrase(st.Kind), b.Name, st.Closeness)
	}
	return StyleDim.Render("Nothing selected")
}

func kindPhrase(k tree.Kind) string {
	switch k {
	case tree.KindParent:
		return "a parent"
	case tree.KindChild:
		return "a child"
	case tree.KindSpouse:
		return "the spouse"
	default:
		return "a sibling"
	}
}
