package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/madhav-20/ClauseCopilot/internal/domain"
	"github.com/madhav-20/ClauseCopilot/internal/review"
	"github.com/madhav-20/ClauseCopilot/internal/store"
)

// ReviewPort is the TUI-facing subset of the review service.
type ReviewPort interface {
	AnalyzeRisks(ctx context.Context, c *review.Contract) (riskJSON, summary string, err error)
	Report(c *review.Contract) (domain.RiskReport, bool, error)
	NegotiationDraft(ctx context.Context, c *review.Contract) (string, error)
	Chat(ctx context.Context, c *review.Contract, question string, history []review.ChatTurn) (answer, contextText string, err error)
	SearchClauses(query, vendor string, topK int) ([]domain.SearchResult, error)
	Outputs(c *review.Contract) (store.Outputs, bool, error)
}

type mode int

const (
	modeReport mode = iota
	modeChat
	modeSearch
)

func (m mode) String() string {
	switch m {
	case modeReport:
		return "Report"
	case modeChat:
		return "Chat"
	default:
		return "Search"
	}
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   ReviewPort
	contracts []*review.Contract
	current   int
	mode      mode
	input     textinput.Model
	viewport  viewport.Model
	history   []review.ChatTurn
	status    string
	ready     bool

	searchQuery   string
	searchResults []domain.SearchResult
}

// New creates a new TUI model instance over the ingested contracts.
func New(service ReviewPort, contracts []*review.Contract) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question or type a search"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   service,
		contracts: contracts,
		input:     ti,
		viewport:  vp,
		status:    "Tab switches view. Ctrl+A analyzes, Ctrl+E drafts email, Ctrl+N next contract.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around content and input boxes
		_, ch := contentBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 2 // title + tabs
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + ih + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderContent())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.mode = (m.mode + 1) % 3
			m.status = m.mode.String() + " view"
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
			return m, nil
		case "ctrl+n":
			if len(m.contracts) > 1 {
				m.current = (m.current + 1) % len(m.contracts)
				m.history = nil
				m.status = "Switched to " + m.contract().Filename
				m.viewport.SetContent(m.renderContent())
				m.viewport.GotoTop()
			}
			return m, nil
		case "ctrl+a":
			m.runAnalysis()
			return m, nil
		case "ctrl+e":
			m.draftEmail()
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				switch m.mode {
				case modeChat:
					m.askQuestion(q)
				case modeSearch:
					m.runSearch(q)
				}
				m.input.SetValue("")
				m.viewport.SetContent(m.renderContent())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current content.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	c := m.contract()
	title := fmt.Sprintf("ClauseCopilot  %s (%s)", c.Filename, c.Vendor)
	if c.UsedOCR {
		title += "  [OCR]"
	}
	header := lipgloss.NewStyle().Bold(true).Render(title)
	tabs := renderTabs(m.mode)
	content := contentBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + tabs + "\n" + content + "\n" + input + "\n" + status
}

func (m *Model) contract() *review.Contract { return m.contracts[m.current] }

func (m *Model) runAnalysis() {
	c := m.contract()
	m.status = "Analyzing " + c.Filename + "..."
	if _, _, err := m.service.AnalyzeRisks(context.Background(), c); err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.mode = modeReport
	m.status = "Analysis complete"
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

func (m *Model) draftEmail() {
	c := m.contract()
	email, err := m.service.NegotiationDraft(context.Background(), c)
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.mode = modeReport
	m.status = "Negotiation email drafted"
	m.viewport.SetContent("NEGOTIATION EMAIL\n\n" + email)
	m.viewport.GotoTop()
}

func (m *Model) askQuestion(q string) {
	c := m.contract()
	answer, _, err := m.service.Chat(context.Background(), c, q, m.history)
	if err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.history = append(m.history, review.ChatTurn{Role: "user", Content: q})
	m.history = append(m.history, review.ChatTurn{Role: "assistant", Content: answer})
	m.status = "Answered"
}

func (m *Model) runSearch(q string) {
	m.searchQuery = q
	res, err := m.service.SearchClauses(q, "", 10)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.searchResults = nil
		return
	}
	m.searchResults = res
	m.status = fmt.Sprintf("%d clauses for %q", len(res), q)
}

func (m Model) renderContent() string {
	switch m.mode {
	case modeReport:
		return m.renderReport()
	case modeChat:
		return m.renderChat()
	default:
		return m.renderSearch()
	}
}

func (m Model) renderReport() string {
	c := m.contract()
	report, ok, err := m.service.Report(c)
	if err != nil {
		return "Stored analysis is unreadable: " + err.Error()
	}
	if !ok {
		return "No analysis yet.\n\nPreview:\n" + c.Preview + "\n\nPress Ctrl+A to run the risk review."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Risk score: %.0f/10\n", report.RiskScore)
	if len(report.RedFlags) == 0 {
		b.WriteString("\nNo red flags found.")
	}
	for _, f := range report.RedFlags {
		fmt.Fprintf(&b, "\n%s %s\n", severityStyle(f.Severity).Render("["+f.Severity+"]"), f.Category)
		fmt.Fprintf(&b, "  %q\n", f.EvidenceQuote)
		fmt.Fprintf(&b, "  Why: %s\n", f.WhyRisky)
		fmt.Fprintf(&b, "  Fallback: %s\n", f.SuggestedFallback)
	}
	if out, ok, _ := m.service.Outputs(c); ok && out.Summary != "" {
		b.WriteString("\nSUMMARY\n" + out.Summary + "\n")
	}
	return b.String()
}

func (m Model) renderChat() string {
	if len(m.history) == 0 {
		return "Ask a question about this contract."
	}
	var b strings.Builder
	for _, t := range m.history {
		label := "You"
		if t.Role == "assistant" {
			label = "Copilot"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", lipgloss.NewStyle().Bold(true).Render(label), t.Content)
	}
	return b.String()
}

func (m Model) renderSearch() string {
	if len(m.searchResults) == 0 {
		if m.searchQuery != "" {
			return fmt.Sprintf("No clauses matched %q.", m.searchQuery)
		}
		return "Type a query to search indexed clauses across vendors."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Clauses matching %q\n\n", m.searchQuery)
	for i, r := range m.searchResults {
		fmt.Fprintf(&b, "%d. [%s] %s  score=%.3f\n%s\n\n", i+1, r.Vendor, r.Segment.Section, r.Score, r.Segment.Text)
	}
	return b.String()
}

func renderTabs(active mode) string {
	parts := make([]string, 0, 3)
	for _, md := range []mode{modeReport, modeChat, modeSearch} {
		label := " " + md.String() + " "
		if md == active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func severityStyle(severity string) lipgloss.Style {
	switch strings.ToUpper(severity) {
	case "CRITICAL":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	case "HIGH":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	case "MED":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}
}

var (
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeTabStyle  = lipgloss.NewStyle().Reverse(true).Bold(true)
	tabStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
