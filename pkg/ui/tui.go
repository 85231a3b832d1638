package ui

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/perpetual-pools/business/pools/app"
	"github.com/fd1az/perpetual-pools/business/pools/domain"
	"github.com/fd1az/perpetual-pools/pkg/ui/components"
)

// browseTimeout bounds one browse issued by the TUI.
const browseTimeout = 30 * time.Second

// Browser runs one listing. *app.BrowseService satisfies it.
type Browser interface {
	Browse(ctx context.Context, state domain.BrowseState, bctx app.BrowseContext) (*app.BrowseView, error)
}

// Config seeds the TUI.
type Config struct {
	// Account is the address "connect" toggles to. Empty disables the toggle.
	Account string
	// Connected starts the session with Account connected.
	Connected  bool
	Denotation app.Denotation
	// State is the listing to open with. The zero value uses the defaults.
	State domain.BrowseState
	// RefreshInterval re-runs the browse periodically. Zero disables it.
	RefreshInterval time.Duration
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	browser Browser
	ctx     context.Context
	keys    KeyMap
	cfg     Config

	// Components
	banners *components.BannersComponent
	search  textinput.Model

	// Browse state
	state  domain.BrowseState
	bctx   app.BrowseContext
	policy *app.SortPolicy
	view   *app.BrowseView
	seq    uint64

	// UI state
	searching bool
	loading   bool
	quitting  bool
	width     int
	height    int
	err       error
	now       func() time.Time
}

// New creates a new TUI model.
func New(ctx context.Context, browser Browser, cfg Config) Model {
	bctx := app.BrowseContext{Denotation: cfg.Denotation}
	if cfg.Connected {
		bctx.Account = cfg.Account
	}

	state := cfg.State
	if state.MarketFilter == "" {
		state = domain.DefaultBrowseState(bctx.AccountConnected())
	}

	search := textinput.New()
	search.Placeholder = "search pools"
	search.Prompt = "/ "
	search.CharLimit = 64
	search.SetValue(state.Search)

	return Model{
		browser: browser,
		ctx:     ctx,
		keys:    DefaultKeyMap(),
		cfg:     cfg,
		banners: components.NewBannersComponent(),
		search:  search,
		state:   state,
		bctx:    bctx,
		policy:  app.NewSortPolicy(bctx.AccountConnected()),
		loading: true,
		now:     time.Now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.browseCmd(m.seq), tickCmd(), refreshCmd(m.cfg.RefreshInterval))
}

// tickCmd keeps the "fetched ago" clock moving.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func refreshCmd(every time.Duration) tea.Cmd {
	if every <= 0 {
		return nil
	}
	return tea.Tick(every, func(time.Time) tea.Msg {
		return RefreshMsg{}
	})
}

func (m Model) browseCmd(seq uint64) tea.Cmd {
	browser, parent, state, bctx := m.browser, m.ctx, m.state, m.bctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, browseTimeout)
		defer cancel()
		view, err := browser.Browse(ctx, state, bctx)
		return ViewMsg{View: view, Err: err, Seq: seq}
	}
}

// browse starts a new browse, superseding any in flight.
func (m *Model) browse() tea.Cmd {
	m.seq++
	m.loading = true
	return m.browseCmd(m.seq)
}

// dispatch applies a state action and re-runs the browse.
func (m *Model) dispatch(a domain.Action) tea.Cmd {
	m.state = domain.Reduce(m.state, a)
	return m.browse()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)

	case ViewMsg:
		if msg.Seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.view = msg.View
		m.banners.Update(toBannerRows(msg.View))
		return m, nil

	case RefreshMsg:
		fetch := tea.Batch(m.browse(), refreshCmd(m.cfg.RefreshInterval))
		return m, fetch

	case TickMsg:
		return m, tickCmd()

	case ErrorMsg:
		m.err = msg.Error
		return m, nil
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.state.Search {
		fetch := tea.Batch(cmd, m.dispatch(domain.SetSearch{Value: v}))
		return m, fetch
	}
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Market):
		fetch := m.dispatch(domain.SetMarketFilter{Value: m.state.MarketFilter.Next()})
		return m, fetch

	case key.Matches(msg, m.keys.Leverage):
		var options []int
		if m.view != nil {
			options = m.view.LeverageOptions
		}
		fetch := m.dispatch(domain.SetLeverageFilter{Value: m.state.LeverageFilter.Next(options)})
		return m, fetch

	case key.Matches(msg, m.keys.Sort):
		fetch := m.dispatch(domain.SetSortBy{Value: m.state.SortBy.Next()})
		return m, fetch

	case key.Matches(msg, m.keys.Denotation):
		m.bctx.Denotation = m.bctx.Denotation.Toggle()
		fetch := m.browse()
		return m, fetch

	case key.Matches(msg, m.keys.Account):
		if m.cfg.Account == "" {
			return m, nil
		}
		if m.bctx.AccountConnected() {
			m.bctx.Account = ""
		} else {
			m.bctx.Account = m.cfg.Account
		}
		if a := m.policy.Observe(m.state, m.bctx.AccountConnected()); a != nil {
			fetch := m.dispatch(a)
			return m, fetch
		}
		fetch := m.browse()
		return m, fetch

	case key.Matches(msg, m.keys.Filters):
		m.state = domain.Reduce(m.state, domain.SetFiltersOpen{Value: !m.state.FiltersOpen})
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		fetch := m.browse()
		return m, fetch

	case key.Matches(msg, m.keys.Up):
		m.banners.ScrollUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.banners.ScrollDown()
		return m, nil
	}
	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Perpetual Pools "))
	b.WriteString("  ")
	b.WriteString(components.StatusLine(m.sourceStatus(), m.now()))
	b.WriteString("\n\n")

	b.WriteString(components.FilterBar(m.filters(), m.state.FiltersOpen))
	b.WriteString("\n")
	if m.searching || m.state.Search != "" {
		b.WriteString(SearchStyle.Render(m.search.View()))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(ErrorStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.view != nil && m.view.Stale {
		b.WriteString(StaleStyle.Render("source unavailable, showing the last snapshot"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	bannerHeight := 0
	if m.height > 0 {
		bannerHeight = max(m.height-12, 6)
	}
	leftCol := m.banners.View(bannerHeight)
	rightCol := components.SpotPrices(m.priceRows()) + "\n\n" + components.StatsLine(m.stats())

	if m.width > 120 {
		left := BoxStyle.Width(m.width*2/3 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/3 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(leftCol)
		b.WriteString("\n\n")
		b.WriteString(rightCol)
	}

	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) helpText() string {
	bindings := m.keys.ShortHelp()
	if m.state.FiltersOpen {
		bindings = slices.Concat(m.keys.FullHelp()...)
	}
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

func (m Model) sourceStatus() components.SourceStatus {
	s := components.SourceStatus{Loading: m.loading, Name: "pools"}
	if m.view != nil {
		s.Name = m.view.Source
		s.FetchedAt = m.view.FetchedAt
		s.Stale = m.view.Stale
	}
	return s
}

func (m Model) filters() components.Filters {
	return components.Filters{
		Market:     string(m.state.MarketFilter),
		Leverage:   m.state.LeverageFilter.String(),
		SortBy:     string(m.state.SortBy),
		Denotation: string(m.bctx.Denotation),
		Account:    m.bctx.Account,
	}
}

func (m Model) stats() components.Stats {
	if m.view == nil {
		return components.Stats{}
	}
	return components.Stats{
		Pools:     len(m.view.Rows),
		Markets:   len(m.view.Groups),
		Malformed: m.view.Malformed,
	}
}

func (m Model) priceRows() []components.PriceRow {
	if m.view == nil {
		return nil
	}
	markets := slices.Sorted(maps.Keys(m.view.SpotPrices))
	rows := make([]components.PriceRow, 0, len(markets))
	for _, mk := range markets {
		rows = append(rows, components.PriceRow{Market: mk, Price: app.ToApproxCurrency(m.view.SpotPrices[mk])})
	}
	return rows
}

// toBannerRows converts the view into display rows. Values are already
// formatted by the app layer.
func toBannerRows(v *app.BrowseView) []components.BannerRow {
	if v == nil {
		return nil
	}
	rows := make([]components.BannerRow, 0, len(v.Banners))
	for _, b := range v.Banners {
		row := components.BannerRow{
			AssetName:    b.AssetName,
			MarketSymbol: b.MarketSymbol,
			SpotPrice:    b.SpotPrice,
			Volume:       b.Volume,
			Cards:        make([]components.CardRow, 0, len(b.Cards)),
		}
		for _, c := range b.Cards {
			card := components.CardRow{
				Title:      c.Title,
				CommitWait: c.CommitWait,
				Short:      toSideRow(c.Short),
				Long:       toSideRow(c.Long),
			}
			if !c.Holding.NetValue.IsZero() {
				card.Holding, card.Exposure = c.Holding.Value, c.Holding.Exposure
			}
			row.Cards = append(row.Cards, card)
		}
		rows = append(rows, row)
	}
	return rows
}

func toSideRow(s app.SideCard) components.SideRow {
	share, _ := s.TVLShare.Float64()
	return components.SideRow{
		TVL:      s.TVL,
		TCRPrice: s.TCRPrice,
		DEXPrice: s.DEXPrice,
		Share:    share,
		Trade:    s.Trade,
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, browser Browser, cfg Config) error {
	p := tea.NewProgram(New(ctx, browser, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
