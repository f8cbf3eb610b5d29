package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guiyumin/vclip/internal/core/config"
	"github.com/guiyumin/vclip/internal/core/i18n"
	"github.com/guiyumin/vclip/internal/core/llm"
)

const asciiArt = `
 ██╗   ██╗ ██████╗██╗     ██╗██████╗
 ██║   ██║██╔════╝██║     ██║██╔══██╗
 ██║   ██║██║     ██║     ██║██████╔╝
 ╚██╗ ██╔╝██║     ██║     ██║██╔═══╝
  ╚████╔╝ ╚██████╗███████╗██║██║
   ╚═══╝   ╚═════╝╚══════╝╚═╝╚═╝
`

var (
	logoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	stepStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	unselectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	inputStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	inputCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Width(20)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	containerStyle   = lipgloss.NewStyle().Padding(2, 4)
)

const (
	stepLanguage = iota
	stepOutputDir
	stepASR
	stepModel
	stepConfirm
	stepCount
)

type option struct{ label, value string }

type wizardModel struct {
	currentStep int
	cursor      int
	config      *config.Config
	confirmed   bool
	cancelled   bool
	inputBuffer string
	width       int
	height      int
}

func newWizardModel(cfg *config.Config) wizardModel {
	m := wizardModel{config: cfg}
	m.setCursorFromConfig()
	return m
}

func (m *wizardModel) t() *i18n.WizardTranslations {
	return &i18n.T(m.config.Language).Wizard
}

func (m *wizardModel) stepTitle() string {
	t := m.t()
	switch m.currentStep {
	case stepLanguage:
		return t.Language
	case stepOutputDir:
		return t.OutputDir
	case stepASR:
		return t.ASREngine
	case stepModel:
		return t.Model
	}
	return t.Confirm
}

func (m *wizardModel) stepDescription() string {
	t := m.t()
	switch m.currentStep {
	case stepLanguage:
		return t.LanguageDesc
	case stepOutputDir:
		return t.OutputDirDesc
	case stepASR:
		return t.ASREngineDesc
	case stepModel:
		return t.ModelDesc
	}
	return t.ConfirmDesc
}

func (m *wizardModel) options() []option {
	t := m.t()
	switch m.currentStep {
	case stepLanguage:
		opts := make([]option, len(i18n.SupportedLanguages))
		for i, lang := range i18n.SupportedLanguages {
			opts[i] = option{lang.Name, lang.Code}
		}
		return opts
	case stepASR:
		return []option{
			{"OpenAI Whisper API " + t.Recommended, "openai"},
			{"whisper.cpp", "whispercpp"},
		}
	case stepModel:
		opts := make([]option, len(llm.Models))
		for i, model := range llm.Models {
			opts[i] = option{model.Name + "  (" + model.ID + ")", model.ID}
		}
		return opts
	case stepConfirm:
		return []option{
			{t.YesSave, "yes"},
			{t.NoCancel, "no"},
		}
	}
	return nil
}

func (m *wizardModel) isInputStep() bool {
	return m.currentStep == stepOutputDir
}

func (m *wizardModel) setCursorFromConfig() {
	m.cursor = 0
	if m.isInputStep() {
		m.inputBuffer = m.config.OutputDir
		if m.inputBuffer == "" {
			m.inputBuffer = config.DefaultOutputDir()
		}
		return
	}

	var current string
	switch m.currentStep {
	case stepLanguage:
		current = m.config.Language
	case stepASR:
		current = m.config.ASR.Engine
	case stepModel:
		current = m.config.LLM.DefaultModel
	}
	for i, opt := range m.options() {
		if opt.value == current {
			m.cursor = i
			break
		}
	}
}

func (m *wizardModel) saveCurrentValue() {
	if m.isInputStep() {
		m.config.OutputDir = strings.TrimSpace(m.inputBuffer)
		return
	}

	options := m.options()
	if m.cursor >= len(options) {
		return
	}
	value := options[m.cursor].value
	switch m.currentStep {
	case stepLanguage:
		m.config.Language = value
	case stepASR:
		if m.config.ASR.Engine != value {
			m.config.ASR.Engine = value
			// the API model name means nothing to whisper.cpp and vice versa
			m.config.ASR.Model = ""
			if value == "openai" {
				m.config.ASR.Model = "whisper-1"
			}
		}
	case stepModel:
		m.config.LLM.DefaultModel = value
	}
}

func (m wizardModel) Init() tea.Cmd {
	return nil
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "left":
			if m.currentStep > 0 {
				m.saveCurrentValue()
				m.currentStep--
				m.setCursorFromConfig()
			}
			return m, nil

		case "right", "enter":
			m.saveCurrentValue()

			if m.currentStep == stepConfirm {
				if m.cursor == 0 {
					m.confirmed = true
				} else {
					m.cancelled = true
				}
				return m, tea.Quit
			}

			m.currentStep++
			m.setCursorFromConfig()
			return m, nil

		case "up", "k":
			if !m.isInputStep() {
				if m.cursor > 0 {
					m.cursor--
				} else {
					m.cursor = len(m.options()) - 1
				}
				return m, nil
			}

		case "down", "j":
			if !m.isInputStep() {
				if m.cursor < len(m.options())-1 {
					m.cursor++
				} else {
					m.cursor = 0
				}
				return m, nil
			}

		case "backspace":
			if m.isInputStep() && len(m.inputBuffer) > 0 {
				r := []rune(m.inputBuffer)
				m.inputBuffer = string(r[:len(r)-1])
			}
			return m, nil
		}

		if m.isInputStep() && msg.Type == tea.KeyRunes {
			m.inputBuffer += string(msg.Runes)
		}
	}

	return m, nil
}

func (m wizardModel) View() string {
	var b strings.Builder
	t := m.t()

	b.WriteString(logoStyle.Render(asciiArt))
	b.WriteString("\n\n")

	b.WriteString(stepStyle.Render(fmt.Sprintf(t.StepOf, m.currentStep+1, stepCount)))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render(m.stepTitle()))
	b.WriteString("\n")
	b.WriteString(stepStyle.Render(m.stepDescription()))
	b.WriteString("\n\n")

	if m.currentStep == stepConfirm {
		b.WriteString(m.renderReview())
		b.WriteString("\n")
	}

	if m.isInputStep() {
		b.WriteString(inputCursorStyle.Render("> "))
		b.WriteString(inputStyle.Render(m.inputBuffer))
		b.WriteString(inputCursorStyle.Render("█"))
		b.WriteString("\n")
	} else {
		for i, opt := range m.options() {
			cursor := "  "
			style := unselectedStyle
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
				style = selectedStyle
			}
			b.WriteString(cursor)
			b.WriteString(style.Render(opt.label))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	help := fmt.Sprintf("← %s • → %s • ↑↓ %s • esc %s", t.Back, t.Next, t.Select, t.Quit)
	b.WriteString(helpStyle.Render(help))

	content := containerStyle.Render(b.String())
	if m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, content)
	}
	return content
}

func (m wizardModel) renderReview() string {
	var b strings.Builder
	t := m.t()

	lines := []option{
		{t.Language, languageName(m.config.Language)},
		{t.OutputDir, m.config.OutputDir},
		{t.ASREngine, m.config.ASR.Engine},
		{t.Model, m.config.LLM.DefaultModel},
	}
	for _, line := range lines {
		b.WriteString(labelStyle.Render(line.label + ":"))
		b.WriteString(valueStyle.Render(line.value))
		b.WriteString("\n")
	}
	return b.String()
}

// RunInitWizard runs the interactive config wizard and returns the edited
// config. Nothing is saved here.
func RunInitWizard() (*config.Config, error) {
	m := newWizardModel(config.LoadOrDefault())
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}

	result := final.(wizardModel)
	if result.cancelled || !result.confirmed {
		return nil, fmt.Errorf("configuration cancelled")
	}
	if result.config.OutputDir == "" {
		result.config.OutputDir = config.DefaultOutputDir()
	}
	return result.config, nil
}

func languageName(code string) string {
	for _, lang := range i18n.SupportedLanguages {
		if lang.Code == code {
			return lang.Name
		}
	}
	return code
}
