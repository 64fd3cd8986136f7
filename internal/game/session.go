package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tradingpit/tradingpit/internal/domain"
	"github.com/tradingpit/tradingpit/internal/engine"
)

// Conn is the transport-side handle the session pushes frames to. Send must
// not block: slow clients drop frames rather than stalling the actor.
type Conn interface {
	Send(data []byte)
}

type envelope struct {
	conn   Conn
	intent Intent
}

// Session is one authoritative game instance. All mutation happens on a
// single actor goroutine draining the mailbox, so intents from concurrent
// connections are applied strictly one at a time in arrival order and no
// lock guards the game state. Reads from other goroutines go through the
// atomically published snapshot.
type Session struct {
	id  string
	cfg Config
	log *slog.Logger

	mailbox chan envelope
	quit    chan struct{}

	// Actor-owned state. Only the Run goroutine touches these.
	phase         Phase
	round         int
	windowClosed  bool
	roundDeadline time.Time
	timer         *time.Timer
	instruments   []*domain.Instrument
	participants  []*domain.Participant
	byID          map[string]*domain.Participant
	makers        []*domain.Participant
	investor      *domain.Participant
	conns         map[Conn]string // conn → bound participant id ("" until JOIN)
	books         map[string]*engine.Book
	orders        []*domain.Order
	trades        []*domain.Trade
	history       []domain.PricePoint
	joinSeq       int
	rng           *rand.Rand
	agent         *MarketMakerAgent
	events        []MarketEvent
	halted        bool

	snap         atomic.Pointer[Snapshot]
	lastActivity atomic.Int64
}

// NewSession builds a session in LOBBY with seeded price history and
// scripted participants. Run must be started before dispatching intents.
func NewSession(id string, cfg Config, log *slog.Logger) (*Session, error) {
	s := &Session{
		id:      id,
		cfg:     cfg,
		log:     log.With(slog.String("session", id)),
		mailbox: make(chan envelope, 128),
		quit:    make(chan struct{}),
		conns:   make(map[Conn]string),
	}
	if err := s.initState(); err != nil {
		return nil, err
	}
	s.snap.Store(s.buildSnapshot())
	s.touch()
	return s, nil
}

// initState resets every piece of game state back to a fresh LOBBY. Also
// used by the RESET intent, which is specified as equivalent to recreating
// the session under the same id.
func (s *Session) initState() error {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))
	s.agent = NewMarketMakerAgent(s.rng)

	instruments, err := instrumentsFor(s.cfg.Instruments)
	if err != nil {
		return err
	}
	s.instruments = instruments
	s.history = seedHistory(s.rng, s.instruments, s.cfg.SeedDays)

	s.books = make(map[string]*engine.Book, len(s.instruments))
	for _, inst := range s.instruments {
		s.books[inst.Symbol] = engine.NewBook(inst.Symbol)
	}

	s.phase = PhaseLobby
	s.round = 1
	s.windowClosed = false
	s.roundDeadline = time.Time{}
	s.stopTimer()
	s.participants = nil
	s.byID = make(map[string]*domain.Participant)
	s.makers = nil
	s.investor = nil
	s.orders = nil
	s.trades = nil
	s.halted = false
	for conn := range s.conns {
		s.conns[conn] = ""
	}

	for i := 0; i < s.cfg.MMCount; i++ {
		name := fmt.Sprintf("Market Maker %d", i+1)
		if i < len(marketMakerNames) {
			name = marketMakerNames[i]
		}
		s.addScriptedParticipant(name, s.cfg.MMCash, s.cfg.MMShares, true)
	}

	if s.cfg.EventsEnabled {
		s.events = DefaultEvents(s.cfg.Instruments)
		s.investor = s.addScriptedParticipant(investorName, s.cfg.MMCash*10, s.cfg.MMShares, false)
	} else {
		s.events = nil
	}
	return nil
}

func (s *Session) addScriptedParticipant(name string, cash, shares int64, maker bool) *domain.Participant {
	s.joinSeq++
	p := &domain.Participant{
		ParticipantID: uuid.New().String(),
		Name:          name,
		Role:          domain.RoleMarketMaker,
		Cash:          cash,
		Shares:        make(map[string]int64, len(s.instruments)),
		Online:        true,
		JoinSeq:       s.joinSeq,
		JoinedAt:      time.Now(),
	}
	for _, inst := range s.instruments {
		p.Shares[inst.Symbol] = shares
	}
	p.TotalValue = p.Cash
	s.participants = append(s.participants, p)
	s.byID[p.ParticipantID] = p
	if maker {
		s.makers = append(s.makers, p)
	}
	return p
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the latest published state. Safe for concurrent use.
func (s *Session) Snapshot() *Snapshot {
	return s.snap.Load()
}

// LastActivity reports when the session last accepted a mutation or
// connection. Safe for concurrent use.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// Run drains the mailbox until the context is canceled. It is the only
// goroutine that mutates session state.
func (s *Session) Run(ctx context.Context) {
	defer s.stopTimer()
	for {
		select {
		case <-ctx.Done():
			close(s.quit)
			return
		case env := <-s.mailbox:
			s.handle(env)
		}
	}
}

// Dispatch enqueues an intent for the actor loop. conn may be nil for
// timer-originated intents.
func (s *Session) Dispatch(conn Conn, intent Intent) {
	select {
	case s.mailbox <- envelope{conn: conn, intent: intent}:
	case <-s.quit:
	}
}

// Attach registers a new connection; the client immediately receives the
// current snapshot.
func (s *Session) Attach(conn Conn) {
	s.Dispatch(conn, attachIntent{})
}

// Detach removes a connection, marking its participant offline.
func (s *Session) Detach(conn Conn) {
	s.Dispatch(conn, detachIntent{})
}

func (s *Session) handle(env envelope) {
	if s.halted {
		switch env.intent.(type) {
		case attachIntent, detachIntent:
		default:
			s.reject(env.conn, domain.ErrSessionHalted)
			return
		}
	}

	switch intent := env.intent.(type) {
	case attachIntent:
		s.handleAttach(env.conn)
		return
	case detachIntent:
		s.handleDetach(env.conn)
		return
	case roundTimeoutIntent:
		s.handleRoundTimeout(intent)
		return
	default:
		err := s.apply(env.conn, intent)
		if err == nil {
			s.broadcast()
			return
		}
		var iv *domain.InvariantViolationError
		if errors.As(err, &iv) {
			s.halt(err)
			return
		}
		s.log.Debug("intent rejected",
			slog.String("intent", env.intent.intentName()),
			slog.String("error", err.Error()),
		)
		s.reject(env.conn, err)
	}
}

func (s *Session) apply(conn Conn, intent Intent) error {
	switch intent := intent.(type) {
	case JoinIntent:
		return s.handleJoin(conn, intent)
	case ReconnectIntent:
		return s.handleReconnect(conn, intent)
	case SubmitOrderIntent:
		return s.handleSubmitOrder(conn, intent)
	case MarkDoneIntent:
		return s.handleMarkDone(conn)
	case StartGameIntent:
		return s.handleStartGame(conn)
	case StartRoundIntent:
		return s.handleStartRound(conn)
	case ForceCloseIntent:
		return s.handleForceClose(conn)
	case ProcessRoundIntent:
		return s.handleProcessRound(conn)
	case NextRoundIntent:
		return s.handleNextRound(conn)
	case ResetIntent:
		return s.handleReset(conn)
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("unsupported intent %q", intent.intentName())}
	}
}

func (s *Session) handleAttach(conn Conn) {
	if _, ok := s.conns[conn]; !ok {
		s.conns[conn] = ""
	}
	s.touch()
	s.sendTo(conn, ServerMessage{Type: MsgStateSnapshot, State: s.snap.Load()})
}

func (s *Session) handleDetach(conn Conn) {
	id, ok := s.conns[conn]
	if !ok {
		return
	}
	delete(s.conns, conn)
	if id == "" {
		return
	}
	if p, ok := s.byID[id]; ok && !s.hasConnFor(id) {
		p.Online = false
		s.log.Info("participant offline", slog.String("participant", id))
		s.broadcast()
	}
}

func (s *Session) hasConnFor(participantID string) bool {
	for _, id := range s.conns {
		if id == participantID {
			return true
		}
	}
	return false
}

func (s *Session) handleJoin(conn Conn, intent JoinIntent) error {
	if s.phase != PhaseLobby {
		return domain.ErrInvalidPhase
	}
	if intent.AsMonitor && s.monitor() != nil {
		return &domain.ValidationError{Message: "session already has a monitor"}
	}

	role := domain.RoleTrader
	cash := s.cfg.StartingCash
	if intent.AsMonitor {
		role = domain.RoleMonitor
		cash = 0
	}

	s.joinSeq++
	p := &domain.Participant{
		ParticipantID: uuid.New().String(),
		Name:          intent.Name,
		Role:          role,
		Cash:          cash,
		Shares:        make(map[string]int64, len(s.instruments)),
		TotalValue:    cash,
		Online:        true,
		JoinSeq:       s.joinSeq,
		JoinedAt:      time.Now(),
	}
	if role.CanTrade() {
		for _, inst := range s.instruments {
			p.Shares[inst.Symbol] = 0
		}
	}
	s.participants = append(s.participants, p)
	s.byID[p.ParticipantID] = p
	s.bindConn(conn, p.ParticipantID)

	s.log.Info("participant joined",
		slog.String("participant", p.ParticipantID),
		slog.String("name", p.Name),
		slog.String("role", string(p.Role)),
	)
	s.sendTo(conn, ServerMessage{Type: MsgParticipantAssigned, ParticipantID: p.ParticipantID})
	return nil
}

func (s *Session) handleReconnect(conn Conn, intent ReconnectIntent) error {
	p, ok := s.byID[intent.ParticipantID]
	if !ok {
		return domain.ErrUnknownParticipant
	}
	s.bindConn(conn, p.ParticipantID)
	p.Online = true
	s.log.Info("participant reconnected", slog.String("participant", p.ParticipantID))
	s.sendTo(conn, ServerMessage{Type: MsgParticipantAssigned, ParticipantID: p.ParticipantID})
	return nil
}

// bindConn points conn at the participant, releasing any previous binding.
func (s *Session) bindConn(conn Conn, participantID string) {
	prev, ok := s.conns[conn]
	s.conns[conn] = participantID
	if ok && prev != "" && prev != participantID && !s.hasConnFor(prev) {
		if p, ok := s.byID[prev]; ok {
			p.Online = false
		}
	}
}

func (s *Session) handleSubmitOrder(conn Conn, intent SubmitOrderIntent) error {
	p, err := s.participantFor(conn)
	if err != nil {
		return err
	}
	if !p.Role.CanTrade() {
		return domain.ErrNotAuthorized
	}
	if s.phase != PhaseTrading || s.windowClosed {
		return domain.ErrInvalidPhase
	}
	_, err = s.admitOrder(p, QuoteRequest{
		Symbol:   intent.Symbol,
		Side:     intent.Side,
		Price:    intent.Price,
		Quantity: intent.Quantity,
	})
	return err
}

// admitOrder validates a candidate order against the participant's balances
// and cap, then rests it on the book with PENDING status. Checks happen at
// submission time only; nothing is escrowed, so several individually
// affordable orders may jointly exceed the participant's means until
// settlement (a documented policy choice, not a bug to fix here).
func (s *Session) admitOrder(p *domain.Participant, q QuoteRequest) (*domain.Order, error) {
	book, ok := s.books[q.Symbol]
	if !ok {
		return nil, domain.ErrUnknownInstrument
	}
	if q.Price <= 0 || q.Price > domain.MaxOrderPrice {
		return nil, domain.ErrInvalidPrice
	}
	if q.Quantity <= 0 || q.Quantity > domain.MaxOrderQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	if p.OrdersSubmitted >= s.cfg.OrderCap {
		return nil, domain.ErrOrderLimitExceeded
	}
	if q.Side == domain.OrderSideBuy && p.Cash < q.Price*q.Quantity {
		return nil, domain.ErrInsufficientFunds
	}
	if q.Side == domain.OrderSideSell && p.ShareBalance(q.Symbol) < q.Quantity {
		return nil, domain.ErrInsufficientShares
	}

	order := &domain.Order{
		OrderID:           uuid.New().String(),
		ParticipantID:     p.ParticipantID,
		Symbol:            q.Symbol,
		Side:              q.Side,
		Price:             q.Price,
		Quantity:          q.Quantity,
		RemainingQuantity: q.Quantity,
		Round:             s.round,
		Status:            domain.OrderStatusPending,
		CreatedAt:         time.Now(),
	}
	book.Insert(order)
	s.orders = append(s.orders, order)
	p.OrdersSubmitted++
	return order, nil
}

func (s *Session) handleMarkDone(conn Conn) error {
	p, err := s.participantFor(conn)
	if err != nil {
		return err
	}
	if p.Role != domain.RoleTrader {
		return domain.ErrNotAuthorized
	}
	if s.phase != PhaseTrading {
		return domain.ErrInvalidPhase
	}
	p.Done = true
	return nil
}

func (s *Session) handleStartGame(conn Conn) error {
	if err := s.requireMonitor(conn); err != nil {
		return err
	}
	if s.phase != PhaseLobby {
		return domain.ErrInvalidPhase
	}
	if s.traderCount() == 0 {
		return &domain.ValidationError{Message: "no players have joined yet"}
	}
	s.phase = PhaseSetup
	return nil
}

func (s *Session) handleStartRound(conn Conn) error {
	if err := s.requireMonitor(conn); err != nil {
		return err
	}
	if s.phase != PhaseSetup {
		return domain.ErrInvalidPhase
	}
	s.openTradingWindow()
	return nil
}

func (s *Session) handleForceClose(conn Conn) error {
	if err := s.requireMonitor(conn); err != nil {
		return err
	}
	if s.phase != PhaseTrading || s.windowClosed {
		return domain.ErrInvalidPhase
	}
	s.windowClosed = true
	s.stopTimer()
	s.log.Info("order window force-closed", slog.Int("round", s.round))
	return nil
}

func (s *Session) handleProcessRound(conn Conn) error {
	if err := s.requireMonitor(conn); err != nil {
		return err
	}
	if s.phase != PhaseTrading {
		return domain.ErrInvalidPhase
	}
	if !s.windowClosed && !s.canProcessRound() {
		return domain.ErrInvalidPhase
	}
	return s.processRound()
}

func (s *Session) handleNextRound(conn Conn) error {
	if err := s.requireMonitor(conn); err != nil {
		return err
	}
	if s.phase != PhaseResults {
		return domain.ErrInvalidPhase
	}

	if s.round >= s.cfg.TotalRounds {
		s.phase = PhaseFinished
		engine.Rank(s.participants)
		s.log.Info("session finished", slog.Int("rounds", s.round))
		return nil
	}

	s.round++
	if s.cfg.CarryOrders {
		carried := s.orders[:0]
		for _, o := range s.orders {
			if o.Status != domain.OrderStatusFilled && o.RemainingQuantity > 0 {
				carried = append(carried, o)
			}
		}
		s.orders = carried
	} else {
		s.orders = nil
	}
	for _, p := range s.participants {
		p.ResetRound()
	}
	s.openTradingWindow()
	return nil
}

func (s *Session) handleReset(conn Conn) error {
	if err := s.requireMonitor(conn); err != nil {
		return err
	}
	if s.phase != PhaseFinished {
		return domain.ErrInvalidPhase
	}
	s.log.Info("session reset")
	return s.initState()
}

func (s *Session) handleRoundTimeout(intent roundTimeoutIntent) {
	// Stale timers from already-closed rounds are no-ops.
	if s.phase != PhaseTrading || s.round != intent.Round {
		return
	}
	s.log.Info("round timer expired", slog.Int("round", s.round))
	s.windowClosed = true
	if err := s.processRound(); err != nil {
		s.halt(err)
		return
	}
	s.broadcast()
}

// processRound runs the PROCESSING phase: scripted liquidity, scheduled
// events, matching per instrument, settlement, revaluation, history. It is
// not user-interactive and transitions to RESULTS on completion.
func (s *Session) processRound() error {
	s.phase = PhaseProcessing
	s.windowClosed = true
	s.stopTimer()
	s.roundDeadline = time.Time{}
	s.broadcast()

	for _, mm := range s.makers {
		for _, q := range s.agent.QuoteRound(mm, s.instruments) {
			if _, err := s.admitOrder(mm, q); err != nil {
				s.log.Debug("market maker quote rejected",
					slog.String("maker", mm.Name),
					slog.String("error", err.Error()),
				)
			}
		}
		mm.Done = true
	}

	if s.investor != nil {
		for _, event := range eventsFor(s.events, s.round) {
			inst := s.instrumentBySymbol(event.Symbol)
			if inst == nil {
				continue
			}
			q := QuoteRequest{
				Symbol:   event.Symbol,
				Side:     event.Side,
				Price:    event.OrderPrice(inst.Price),
				Quantity: event.Quantity,
			}
			if _, err := s.admitOrder(s.investor, q); err != nil {
				s.log.Warn("market event rejected",
					slog.String("event", event.Label),
					slog.String("error", err.Error()),
				)
				continue
			}
			s.log.Info("market event injected",
				slog.String("event", event.Label),
				slog.Int("round", s.round),
			)
		}
	}

	anyTraded := false
	prices := make(map[string]int64, len(s.instruments))
	for _, inst := range s.instruments {
		book := s.books[inst.Symbol]
		result := engine.MatchRound(inst.Symbol, book.Buys(), book.Sells(), inst.Price, s.round, engine.MatchConfig{
			Pricing:  s.cfg.Pricing,
			DriftBps: s.cfg.DriftBps,
		})

		for _, t := range result.Trades {
			buyer, okB := s.byID[t.BuyerID]
			seller, okS := s.byID[t.SellerID]
			if !okB || !okS {
				return &domain.InvariantViolationError{
					Detail: fmt.Sprintf("trade %s references unknown participant", t.TradeID),
				}
			}
			if err := engine.ApplyTrade(buyer, seller, t); err != nil {
				return err
			}
			s.trades = append(s.trades, t)
		}

		inst.Price = result.SettlementPrice
		prices[inst.Symbol] = inst.Price
		anyTraded = anyTraded || result.Traded
		s.log.Info("round matched",
			slog.String("symbol", inst.Symbol),
			slog.Int("round", s.round),
			slog.Int("trades", len(result.Trades)),
			slog.Int64("settlement", inst.Price),
		)
	}

	s.history = append(s.history, domain.PricePoint{
		Day:    s.cfg.SeedDays + s.round,
		Round:  s.round,
		Prices: prices,
		Traded: anyTraded,
	})
	engine.Revalue(s.participants, prices)
	for _, book := range s.books {
		book.Clear(s.cfg.CarryOrders)
	}

	s.phase = PhaseResults
	return nil
}

// canProcessRound holds when every connected human trader is either done or
// at the order cap. Offline traders don't block processing; FORCE_CLOSE and
// the round timer remain the explicit escape hatches.
func (s *Session) canProcessRound() bool {
	for _, p := range s.participants {
		if p.Role != domain.RoleTrader || !p.Online {
			continue
		}
		if !p.Done && p.OrdersSubmitted < s.cfg.OrderCap {
			return false
		}
	}
	return true
}

func (s *Session) openTradingWindow() {
	s.phase = PhaseTrading
	s.windowClosed = false
	s.startTimer()
	s.log.Info("trading window open", slog.Int("round", s.round))
}

func (s *Session) startTimer() {
	if s.cfg.RoundDuration <= 0 {
		s.roundDeadline = time.Time{}
		return
	}
	s.roundDeadline = time.Now().Add(s.cfg.RoundDuration)
	round := s.round
	s.timer = time.AfterFunc(s.cfg.RoundDuration, func() {
		s.Dispatch(nil, roundTimeoutIntent{Round: round})
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// halt freezes the session after an invariant violation. This is a bug in
// admission logic, not a player error: every client is alerted and all
// further intents are rejected until the registry reaps the session.
func (s *Session) halt(err error) {
	s.halted = true
	s.stopTimer()
	s.log.Error("session halted", slog.String("error", err.Error()))
	frame, mErr := json.Marshal(ErrorMessage(err))
	if mErr != nil {
		return
	}
	for conn := range s.conns {
		conn.Send(frame)
	}
}

func (s *Session) participantFor(conn Conn) (*domain.Participant, error) {
	id, ok := s.conns[conn]
	if !ok || id == "" {
		return nil, domain.ErrUnknownParticipant
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUnknownParticipant
	}
	return p, nil
}

func (s *Session) requireMonitor(conn Conn) error {
	p, err := s.participantFor(conn)
	if err != nil {
		return err
	}
	if !p.Role.CanAdminRound() {
		return domain.ErrNotAuthorized
	}
	return nil
}

func (s *Session) monitor() *domain.Participant {
	for _, p := range s.participants {
		if p.Role == domain.RoleMonitor {
			return p
		}
	}
	return nil
}

func (s *Session) traderCount() int {
	n := 0
	for _, p := range s.participants {
		if p.Role == domain.RoleTrader {
			n++
		}
	}
	return n
}

func (s *Session) instrumentBySymbol(symbol string) *domain.Instrument {
	for _, inst := range s.instruments {
		if inst.Symbol == symbol {
			return inst
		}
	}
	return nil
}

func (s *Session) participantName(id string) string {
	if p, ok := s.byID[id]; ok {
		return p.Name
	}
	return id
}

// broadcast publishes a fresh snapshot and pushes it to every connection.
// Rejected intents never reach here: failures are reported to the requester
// only and other clients see no broadcast.
func (s *Session) broadcast() {
	snap := s.buildSnapshot()
	s.snap.Store(snap)
	s.touch()

	frame, err := json.Marshal(ServerMessage{Type: MsgStateSnapshot, State: snap})
	if err != nil {
		s.log.Error("snapshot marshal failed", slog.String("error", err.Error()))
		return
	}
	for conn := range s.conns {
		conn.Send(frame)
	}
}

func (s *Session) sendTo(conn Conn, msg ServerMessage) {
	if conn == nil {
		return
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("message marshal failed", slog.String("error", err.Error()))
		return
	}
	conn.Send(frame)
}

func (s *Session) reject(conn Conn, err error) {
	s.sendTo(conn, ErrorMessage(err))
}
