// bridgetop is a terminal dashboard over a running bridged instance. It
// polls the read API and renders the network, per-community bridges,
// impact records and recommendations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/impact"
	"github.com/communeos/bridgenet/pkg/recommend"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFAF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#00875F")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	overviewView view = iota
	communitiesView
	bridgesView
	impactView
	recommendView
	viewCount
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Refresh  key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select community"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter},
		{k.Up, k.Down, k.Refresh, k.Quit},
	}
}

// client is a thin HTTP client for the bridged read API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) get(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type snapshotInfo struct {
	Version     uint64    `json:"version"`
	CommittedAt time.Time `json:"committed_at"`
	Communities int       `json:"communities"`
	Bridges     int       `json:"bridges"`
}

type communitiesPayload struct {
	SnapshotVersion uint64                `json:"snapshot_version"`
	Communities     []graph.CommunityNode `json:"communities"`
}

type bridgesPayload struct {
	CommunityID     uint64             `json:"community_id"`
	SnapshotVersion uint64             `json:"snapshot_version"`
	Bridges         []graph.BridgeEdge `json:"bridges"`
}

type recommendationsPayload struct {
	CommunityID     uint64                     `json:"community_id"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

type snapshotMsg struct {
	info        snapshotInfo
	communities []graph.CommunityNode
	err         error
}

type detailMsg struct {
	communityID     uint64
	bridges         []graph.BridgeEdge
	record          impact.ImpactRecord
	recommendations []recommend.Recommendation
	err             error
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshot(c *client) tea.Cmd {
	return func() tea.Msg {
		var msg snapshotMsg
		if err := c.get("/snapshot/version", &msg.info); err != nil {
			msg.err = err
			return msg
		}
		var payload communitiesPayload
		if err := c.get("/communities", &payload); err != nil {
			msg.err = err
			return msg
		}
		msg.communities = payload.Communities
		return msg
	}
}

func fetchDetail(c *client, id uint64) tea.Cmd {
	return func() tea.Msg {
		msg := detailMsg{communityID: id}
		var bridges bridgesPayload
		if err := c.get(fmt.Sprintf("/bridges/%d", id), &bridges); err != nil {
			msg.err = err
			return msg
		}
		msg.bridges = bridges.Bridges
		if err := c.get(fmt.Sprintf("/impact/%d", id), &msg.record); err != nil {
			msg.err = err
			return msg
		}
		var recs recommendationsPayload
		if err := c.get(fmt.Sprintf("/recommendations/%d?top_k=10", id), &recs); err != nil {
			msg.err = err
			return msg
		}
		msg.recommendations = recs.Recommendations
		return msg
	}
}

type model struct {
	client      *client
	currentView view
	keys        keyMap
	help        help.Model

	communityTable table.Model
	bridgeTable    table.Model
	recTable       table.Model

	snapshot    snapshotInfo
	communities []graph.CommunityNode
	selected    uint64
	record      impact.ImpactRecord
	errMsg      string
	width       int
	height      int
	startTime   time.Time
}

func initialModel(c *client) model {
	styled := func(columns []table.Column) table.Model {
		t := table.New(
			table.WithColumns(columns),
			table.WithFocused(true),
			table.WithHeight(12),
		)
		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#00875F")).
			Bold(false)
		t.SetStyles(s)
		return t
	}

	return model{
		client:      c,
		currentView: overviewView,
		keys:        keys,
		help:        help.New(),
		communityTable: styled([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 24},
			{Title: "Pack", Width: 14},
			{Title: "Members", Width: 8},
		}),
		bridgeTable: styled([]table.Column{
			{Title: "Peer", Width: 6},
			{Title: "Type", Width: 14},
			{Title: "Strength", Width: 9},
			{Title: "Shared", Width: 7},
		}),
		recTable: styled([]table.Column{
			{Title: "Target", Width: 6},
			{Title: "Name", Width: 22},
			{Title: "Score", Width: 6},
			{Title: "Est", Width: 5},
			{Title: "Reasons", Width: 30},
		}),
		startTime: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchSnapshot(m.client), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		return m, tea.Batch(fetchSnapshot(m.client), tickCmd())

	case snapshotMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.snapshot = msg.info
		m.communities = msg.communities
		rows := make([]table.Row, 0, len(msg.communities))
		for _, c := range msg.communities {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", c.ID),
				c.Name,
				c.PackType,
				fmt.Sprintf("%d", c.MemberCount),
			})
		}
		m.communityTable.SetRows(rows)

	case detailMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.selected = msg.communityID
		m.record = msg.record

		bridgeRows := make([]table.Row, 0, len(msg.bridges))
		for _, b := range msg.bridges {
			bridgeRows = append(bridgeRows, table.Row{
				fmt.Sprintf("%d", b.Other(msg.communityID)),
				b.Type.String(),
				fmt.Sprintf("%.2f", b.Strength),
				fmt.Sprintf("%d", b.SharedMembers),
			})
		}
		m.bridgeTable.SetRows(bridgeRows)

		recRows := make([]table.Row, 0, len(msg.recommendations))
		for _, rec := range msg.recommendations {
			reasons := make([]string, len(rec.Reasons))
			for i, r := range rec.Reasons {
				reasons[i] = string(r)
			}
			recRows = append(recRows, table.Row{
				fmt.Sprintf("%d", rec.TargetID),
				rec.TargetName,
				fmt.Sprintf("%.2f", rec.Score),
				fmt.Sprintf("%.2f", rec.EstimatedStrength),
				strings.Join(reasons, ","),
			})
		}
		m.recTable.SetRows(recRows)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount

		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = viewCount - 1
			} else {
				m.currentView--
			}

		case key.Matches(msg, m.keys.Refresh):
			cmds = append(cmds, fetchSnapshot(m.client))
			if m.selected != 0 {
				cmds = append(cmds, fetchDetail(m.client, m.selected))
			}

		case key.Matches(msg, m.keys.Enter):
			if m.currentView == communitiesView {
				if id, ok := selectedCommunityID(m.communityTable); ok {
					m.currentView = bridgesView
					cmds = append(cmds, fetchDetail(m.client, id))
				}
			}
		}
	}

	switch m.currentView {
	case communitiesView:
		m.communityTable, cmd = m.communityTable.Update(msg)
		cmds = append(cmds, cmd)
	case bridgesView:
		m.bridgeTable, cmd = m.bridgeTable.Update(msg)
		cmds = append(cmds, cmd)
	case recommendView:
		m.recTable, cmd = m.recTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func selectedCommunityID(t table.Model) (uint64, bool) {
	row := t.SelectedRow()
	if len(row) == 0 {
		return 0, false
	}
	var id uint64
	if _, err := fmt.Sscanf(row[0], "%d", &id); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (m model) View() string {
	if m.width == 0 {
		return "Connecting..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("bridgetop - community bridge network"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case overviewView:
		s.WriteString(m.renderOverview())
	case communitiesView:
		s.WriteString(m.renderCommunities())
	case bridgesView:
		s.WriteString(m.renderBridges())
	case impactView:
		s.WriteString(m.renderImpact())
	case recommendView:
		s.WriteString(m.renderRecommendations())
	}

	if m.errMsg != "" {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("error: " + m.errMsg))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderTabs() string {
	tabs := []string{"Overview", "Communities", "Bridges", "Impact", "Recommendations"}
	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if view(i) == m.currentView {
			rendered[i] = activeTabStyle.Render(tab)
		} else {
			rendered[i] = inactiveTabStyle.Render(tab)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderOverview() string {
	uptime := time.Since(m.startTime).Round(time.Second)
	age := "n/a"
	if !m.snapshot.CommittedAt.IsZero() {
		age = time.Since(m.snapshot.CommittedAt).Round(time.Second).String()
	}

	stats := fmt.Sprintf(`Network Snapshot
----------------
Version:      %d
Communities:  %d
Bridges:      %d
Snapshot age: %s
Session:      %s`,
		m.snapshot.Version,
		m.snapshot.Communities,
		m.snapshot.Bridges,
		age,
		uptime,
	)

	hints := `Navigation
----------
[Tab]    Next view
[Enter]  Inspect community
[r]      Refresh now
[q]      Quit`

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(stats), statsBoxStyle.Render(hints)))
}

func (m model) renderCommunities() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Communities"))
	s.WriteString("\n\n")
	s.WriteString(m.communityTable.View())
	return contentStyle.Render(s.String())
}

func (m model) renderBridges() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("Bridges of community %d", m.selected)))
	s.WriteString("\n\n")
	if m.selected == 0 {
		s.WriteString(helpStyle.Render("Select a community in the Communities view first"))
	} else {
		s.WriteString(m.bridgeTable.View())
	}
	return contentStyle.Render(s.String())
}

func (m model) renderImpact() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("Impact of community %d", m.selected)))
	s.WriteString("\n\n")
	if m.selected == 0 {
		s.WriteString(helpStyle.Render("Select a community in the Communities view first"))
		return contentStyle.Render(s.String())
	}

	r := m.record
	bar := strings.Repeat("#", int(r.CentralityScore*40))
	s.WriteString(statsBoxStyle.Render(fmt.Sprintf(`Bridge count:   %d
Network reach:  %d
Centrality:     %.4f %s
Influence:      %.1f
Reputation:     %s
Snapshot:       v%d`,
		r.BridgeCount,
		r.NetworkReach,
		r.CentralityScore, bar,
		r.InfluenceScore,
		r.Reputation,
		r.SnapshotVersion,
	)))
	return contentStyle.Render(s.String())
}

func (m model) renderRecommendations() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("Recommendations for community %d", m.selected)))
	s.WriteString("\n\n")
	if m.selected == 0 {
		s.WriteString(helpStyle.Render("Select a community in the Communities view first"))
	} else {
		s.WriteString(m.recTable.View())
	}
	return contentStyle.Render(s.String())
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Base URL of a running bridged instance")
	flag.Parse()

	p := tea.NewProgram(initialModel(newClient(*addr)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("error running bridgetop: %v", err)
	}
}
