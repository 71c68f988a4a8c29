package combat

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardquest/internal/cards"
)

// Engine runs one fight. It owns the State exclusively; the resolver and
// AI only ever see it through the engine. An Engine is not safe for
// concurrent use: callers serialize commands and Step calls.
type Engine struct {
	cfg      FightConfig
	rules    Rules
	catalog  cards.Catalog
	resolver *Resolver
	rng      Rand
	log      *zap.Logger
	newID    func() string

	st     State
	phase  Phase
	result *Result

	queue     []step
	outbox    []Event
	history   []Event
	listeners []func(Event)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces DefaultRules.
func WithRules(r Rules) Option { return func(e *Engine) { e.rules = r } }

// WithRand sets the randomness source used for draws and AI decisions.
func WithRand(r Rand) Option { return func(e *Engine) { e.rng = r } }

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithListener registers fn to receive every event as it is emitted.
func WithListener(fn func(Event)) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, fn) }
}

// WithIDs overrides the generator for hand-card instance IDs.
func WithIDs(fn func() string) Option { return func(e *Engine) { e.newID = fn } }

// NewEngine sets up a fight from cfg and enters the first player turn.
// Missing configuration is replaced by documented defaults.
func NewEngine(cfg FightConfig, catalog cards.Catalog, opts ...Option) *Engine {
	e := &Engine{
		rules:   DefaultRules(),
		catalog: catalog,
		log:     zap.NewNop(),
		newID:   uuid.NewString,
		phase:   PhaseSetup,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = timeSeededRand()
	}
	if err := e.rules.Validate(); err != nil {
		e.log.Warn("invalid combat rules, using defaults", zap.Error(err))
		e.rules = DefaultRules()
	}
	e.log = e.log.With(zap.String("fight", cfg.ID))
	e.cfg = cfg.Normalize(e.log)
	e.resolver = &Resolver{Catalog: catalog, Defense: e.rules.DefenseFormula, Log: e.log}
	e.setup()
	// setup events stay in Log and reach listeners, but no command returns them
	e.takeEvents()
	return e
}

func (e *Engine) setup() {
	cfg := e.cfg
	e.st = State{
		Player:   newCombatant("You", cfg.Player),
		Enemy:    newCombatant(cfg.Enemy.Name, cfg.Enemy.SideConfig),
		Focus:    e.rules.InitialFocus,
		MaxFocus: e.rules.MaxFocus,
		PlayerPools: Pools{
			Attack: cfg.Player.AttackDeck,
			Action: cfg.Player.ActionDeck,
		},
		EnemyPools: Pools{
			Attack: cfg.Enemy.AttackDeck,
			Action: cfg.Enemy.ActionDeck,
		},
		Active:   true,
		Strategy: cfg.Enemy.DefaultStrategy,
	}
	e.st.PlayerHand = topUp(nil, e.st.PlayerPools, e.rules.PlayerAttackSlots, e.rules.PlayerActionSlots, e.rng, e.newID)
	e.dealEnemy()

	desc := cfg.Description
	if desc == "" {
		desc = "Combat started!"
	}
	e.emit(messageEvent(desc))

	e.st.Turn = 1
	e.setPhase(PhasePlayerTurn)
	e.emit(messageEvent(fmt.Sprintf("--- Turn %d: Your Turn ---", e.st.Turn)))
	e.emit(healthEvent(SidePlayer, &e.st.Player))
	e.emit(healthEvent(SideEnemy, &e.st.Enemy))
	e.emit(focusEvent(&e.st))
	e.emit(Event{Kind: EventHand, Side: SidePlayer, Value: len(e.st.PlayerHand)})
	e.log.Info("fight started",
		zap.String("enemy", e.st.Enemy.Name),
		zap.Int("player_health", e.st.Player.Health),
		zap.Int("enemy_health", e.st.Enemy.Health),
	)
}

func (e *Engine) dealEnemy() {
	atk, act := EnemySlots(e.cfg.Enemy.Difficulty)
	e.st.EnemyHand = deal(e.st.EnemyPools, atk, act, e.rng, e.newID)
}

// ---- notifications ----

func (e *Engine) emit(ev Event) {
	e.outbox = append(e.outbox, ev)
	e.history = append(e.history, ev)
	for _, fn := range e.listeners {
		fn(ev)
	}
}

func (e *Engine) emitAll(evs []Event) {
	for _, ev := range evs {
		e.emit(ev)
	}
}

func (e *Engine) message(format string, args ...any) {
	e.emit(messageEvent(fmt.Sprintf(format, args...)))
}

// takeEvents returns and clears everything emitted since the last call.
func (e *Engine) takeEvents() []Event {
	out := e.outbox
	e.outbox = nil
	return out
}

func (e *Engine) setPhase(p Phase) {
	if e.phase == p {
		return
	}
	e.phase = p
	e.emit(Event{Kind: EventPhase, Phase: p})
}

// ---- queries ----

// Phase returns the current turn-machine state.
func (e *Engine) Phase() Phase { return e.phase }

// Active reports whether the fight is still running.
func (e *Engine) Active() bool { return e.st.Active }

// Turn returns the turn counter.
func (e *Engine) Turn() int { return e.st.Turn }

// Config returns the normalized fight configuration.
func (e *Engine) Config() FightConfig { return e.cfg }

// Player returns a copy of the player combatant.
func (e *Engine) Player() Combatant { return e.st.Player }

// Enemy returns a copy of the enemy combatant.
func (e *Engine) Enemy() Combatant { return e.st.Enemy }

// Focus returns the player's current focus.
func (e *Engine) Focus() int { return e.st.Focus }

// MaxFocus returns the focus cap.
func (e *Engine) MaxFocus() int { return e.st.MaxFocus }

// Hand returns a copy of the player's hand.
func (e *Engine) Hand() []HandCard { return append([]HandCard(nil), e.st.PlayerHand...) }

// EnemyHand returns a copy of the enemy's hand.
func (e *Engine) EnemyHand() []HandCard { return append([]HandCard(nil), e.st.EnemyHand...) }

// Selection returns the staged selection.
func (e *Engine) Selection() Staging {
	s := e.st.Staging
	s.Selected = append([]string(nil), s.Selected...)
	s.Discard = append([]string(nil), s.Discard...)
	return s
}

// TotalFocusCost returns the focus cost of the staged selection.
func (e *Engine) TotalFocusCost() int { return e.st.Staging.TotalFocusCost }

// Strategy returns the enemy's current strategy.
func (e *Engine) Strategy() Strategy { return e.st.Strategy }

// History returns the player's rolling play history.
func (e *Engine) History() []PlayedCard { return append([]PlayedCard(nil), e.st.History...) }

// Result returns the outcome once the fight is resolved.
func (e *Engine) Result() (Result, bool) {
	if e.result == nil {
		return Result{}, false
	}
	return *e.result, true
}

// Log returns every event emitted so far.
func (e *Engine) Log() []Event { return append([]Event(nil), e.history...) }

// LastMessage returns the most recent combat message.
func (e *Engine) LastMessage() string {
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].Kind == EventMessage {
			return e.history[i].Text
		}
	}
	return ""
}

// Card resolves a card ID through the engine's catalog.
func (e *Engine) Card(id string) cards.Card { return cards.Resolve(e.catalog, id) }

// ---- resolution ----

// resolve plays card for side through the resolver and checks for the end
// of the fight. It reports whether the fight is still active.
func (e *Engine) resolve(side Side, card cards.Card) bool {
	e.emitAll(e.resolver.Apply(&e.st, side, card))
	return !e.checkEnd()
}

func (e *Engine) checkEnd() bool {
	if !e.st.Active {
		return true
	}
	switch {
	case !e.st.Enemy.Alive():
		e.message("You defeated %s!", e.st.Enemy.Name)
		e.finish(OutcomeVictory)
	case !e.st.Player.Alive():
		e.message("You have been defeated!")
		e.finish(OutcomeDefeat)
	default:
		return false
	}
	return true
}

func (e *Engine) finish(o Outcome) {
	r := &Result{Outcome: o, Turns: e.st.Turn}
	switch o {
	case OutcomeVictory:
		r.Rewards = append([]string(nil), e.cfg.Rewards...)
		r.NextSceneID = e.cfg.NextSceneID
		if r.NextSceneID == "" {
			r.NextSceneID = e.cfg.ReturnSceneID
		}
		if len(r.Rewards) > 0 {
			e.message("You received rewards!")
		}
	default:
		r.NextSceneID = e.cfg.ReturnSceneID
	}
	e.result = r
	e.st.Active = false
	e.queue = nil
	e.st.PlayerHand = nil
	e.st.EnemyHand = nil
	e.st.Staging.clear()
	e.setPhase(PhaseResolved)
	e.emit(Event{Kind: EventResult, Result: r})
	e.log.Info("fight resolved", zap.String("outcome", string(o)), zap.Int("turns", e.st.Turn))
}

// ---- player commands ----

// playerTurn guards every player command: the fight must be active and it
// must be the player's turn. Pending immediate responses resolve first.
func (e *Engine) playerTurn() bool {
	if !e.st.Active || e.phase == PhaseResolved {
		e.message("There is no active fight.")
		return false
	}
	if e.phase != PhasePlayerTurn {
		e.message("Wait for your turn.")
		return false
	}
	for len(e.queue) > 0 && e.phase == PhasePlayerTurn {
		e.runStep()
	}
	return e.st.Active
}

func (e *Engine) handCard(instance string) (HandCard, cards.Card, bool) {
	i, ok := findInstance(e.st.PlayerHand, instance)
	if !ok {
		e.message("That card is not in your hand.")
		return HandCard{}, cards.Card{}, false
	}
	hc := e.st.PlayerHand[i]
	return hc, e.Card(hc.CardID), true
}

// stagedCost recomputes the selection's focus cost from the selected cards.
func (e *Engine) stagedCost(selected []string) int {
	total := 0
	for _, inst := range selected {
		if i, ok := findInstance(e.st.PlayerHand, inst); ok {
			total += e.Card(e.st.PlayerHand[i].CardID).FocusCost
		}
	}
	return total
}

// fitSelection drops the most recently selected cards until the rest fit
// in current focus.
func (e *Engine) fitSelection(selected []string) []string {
	for len(selected) > 0 && e.stagedCost(selected) > e.st.Focus {
		selected = selected[:len(selected)-1]
	}
	return selected
}

func (e *Engine) setSelection(selected, discard []string) {
	e.st.Staging.Selected = selected
	e.st.Staging.Discard = discard
	e.st.Staging.TotalFocusCost = e.stagedCost(selected)
	e.emit(Event{Kind: EventSelection, Side: SidePlayer, Value: e.st.Staging.TotalFocusCost, Max: e.st.Focus})
}

// ToggleSelect adds a hand card to the selection, or removes it if it is
// already selected. A card that would push the staged cost above current
// focus is rejected and nothing changes.
func (e *Engine) ToggleSelect(instance string) []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	hc, card, ok := e.handCard(instance)
	if !ok {
		return e.takeEvents()
	}
	stg := e.st.Staging
	if containsString(stg.Selected, hc.Instance) {
		e.setSelection(removeString(stg.Selected, hc.Instance), stg.Discard)
		return e.takeEvents()
	}
	if stg.TotalFocusCost+card.FocusCost > e.st.Focus {
		e.message("Not enough focus to select this card!")
		return e.takeEvents()
	}
	selected := append(append([]string(nil), stg.Selected...), hc.Instance)
	e.setSelection(selected, removeString(stg.Discard, hc.Instance))
	return e.takeEvents()
}

// ToggleDiscard marks a hand card to be thrown away on commit, or unmarks
// it. Marking removes the card from the selection.
func (e *Engine) ToggleDiscard(instance string) []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	hc, _, ok := e.handCard(instance)
	if !ok {
		return e.takeEvents()
	}
	stg := e.st.Staging
	if containsString(stg.Discard, hc.Instance) {
		e.setSelection(stg.Selected, removeString(stg.Discard, hc.Instance))
		return e.takeEvents()
	}
	discard := append(append([]string(nil), stg.Discard...), hc.Instance)
	e.setSelection(removeString(stg.Selected, hc.Instance), discard)
	return e.takeEvents()
}

// play moves a card from the player's hand onto the ledger and history and
// resolves it. It reports whether the fight is still active.
func (e *Engine) play(hc HandCard, card cards.Card) bool {
	e.st.PlayerHand = removeInstance(e.st.PlayerHand, hc.Instance)
	e.st.PlayerPlayed = append(e.st.PlayerPlayed, hc.CardID)
	e.st.History = append(e.st.History, PlayedCard{Card: card, Turn: e.st.Turn})
	if n := len(e.st.History) - e.rules.HistorySize; n > 0 {
		e.st.History = append([]PlayedCard(nil), e.st.History[n:]...)
	}
	return e.resolve(SidePlayer, card)
}

// CommitSelection plays every selected card in selection order, throws
// away the discarded cards, then pays the staged focus cost.
func (e *Engine) CommitSelection() []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	e.commit()
	return e.takeEvents()
}

func (e *Engine) commit() {
	stg := e.st.Staging
	if len(stg.Selected) == 0 && len(stg.Discard) == 0 {
		e.message("Select at least one card to play.")
		return
	}
	if stg.TotalFocusCost > e.st.Focus {
		e.message("Not enough focus to play these cards!")
		return
	}
	e.setPhase(PhaseResolvingPlayer)
	for _, inst := range stg.Selected {
		i, ok := findInstance(e.st.PlayerHand, inst)
		if !ok {
			continue
		}
		hc := e.st.PlayerHand[i]
		if !e.play(hc, e.Card(hc.CardID)) {
			return
		}
	}
	for _, inst := range stg.Discard {
		e.st.PlayerHand = removeInstance(e.st.PlayerHand, inst)
	}
	e.st.Focus = max(0, e.st.Focus-stg.TotalFocusCost)
	e.st.Staging.clear()
	e.emit(focusEvent(&e.st))
	e.emit(Event{Kind: EventHand, Side: SidePlayer, Value: len(e.st.PlayerHand)})
	e.setPhase(PhasePlayerTurn)
}

// PlayNow plays a single card immediately, outside the staged batch. A
// sufficiently strong card may draw an immediate enemy response, which is
// queued as a step.
func (e *Engine) PlayNow(instance string) []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	hc, card, ok := e.handCard(instance)
	if !ok {
		return e.takeEvents()
	}
	if card.FocusCost > e.st.Focus {
		e.message("Not enough focus to play this card!")
		return e.takeEvents()
	}
	stg := e.st.Staging
	selected := removeString(stg.Selected, hc.Instance)
	discard := removeString(stg.Discard, hc.Instance)

	e.st.Focus -= card.FocusCost
	e.message("You played %s!", card.Name)
	active := e.play(hc, card)
	e.emit(focusEvent(&e.st))
	e.emit(Event{Kind: EventHand, Side: SidePlayer, Value: len(e.st.PlayerHand)})
	if !active {
		return e.takeEvents()
	}
	if fit := e.fitSelection(selected); len(fit) < len(selected) {
		e.message("Your selection no longer fits your focus.")
		selected = fit
	}
	e.setSelection(selected, discard)
	if e.rules.ImmediateResponse {
		e.respond(card)
	}
	return e.takeEvents()
}

// respond gives the enemy a chance to answer an impactful player card.
func (e *Engine) respond(played cards.Card) {
	if !IsImpactful(played) || e.rng.Float64() >= CounterRate {
		return
	}
	hand := e.enemyCards()
	i, ok := FindCounter(played, hand)
	if !ok {
		return
	}
	hc := e.st.EnemyHand[i]
	counter := hand[i]
	e.st.EnemyHand = removeInstance(e.st.EnemyHand, hc.Instance)
	e.st.EnemyPlayed = append(e.st.EnemyPlayed, hc.CardID)
	e.message("%s quickly responds to your %s!", e.st.Enemy.Name, played.Name)
	e.schedule("counter", delayCard, func() {
		e.message("%s plays %s!", e.st.Enemy.Name, counter.Name)
		e.resolve(SideEnemy, counter)
	})
}

// Sacrifice skips playing cards this turn in exchange for extra focus.
func (e *Engine) Sacrifice() []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	e.message("You sacrificed your turn to regain focus!")
	e.st.Focus = min(e.st.Focus+e.rules.FocusRegen+e.rules.SacrificeBonus, e.st.MaxFocus)
	e.emit(focusEvent(&e.st))
	e.st.PlayerPlayed = nil
	e.st.Staging.clear()
	e.beginEnemyTurn()
	return e.takeEvents()
}

// EndTurn commits any staged selection, reports the turn's synergy and
// hands over to the enemy. The enemy turn runs as queued steps.
func (e *Engine) EndTurn() []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	if len(e.st.Staging.Selected) > 0 || len(e.st.Staging.Discard) > 0 {
		e.commit()
		if !e.st.Active {
			return e.takeEvents()
		}
	}
	if bonus, _ := Synergy(e.resolver.ledgerAffinities(e.st.PlayerPlayed)); bonus > 0 {
		e.message("Synergy bonus: +%d damage!", bonus)
	}
	e.st.PlayerPlayed = nil
	e.st.Staging.clear()
	e.beginEnemyTurn()
	return e.takeEvents()
}

// Flee abandons the fight.
func (e *Engine) Flee() []Event {
	if !e.playerTurn() {
		return e.takeEvents()
	}
	e.message("You fled from %s!", e.st.Enemy.Name)
	e.finish(OutcomeFled)
	return e.takeEvents()
}

// ---- turn transitions ----

// startTurnModifiers applies the start-of-turn reset for one side: defense
// and reflect return to neutral, vulnerability too unless a tank-heal is
// pending, in which case the heal fires and clears the stance.
func (e *Engine) startTurnModifiers(side Side) {
	c := e.st.combatant(side)
	c.Defense = 1
	c.Reflect = 0
	if c.TankHeal == 0 {
		c.Vulnerability = 1
		return
	}
	amount := c.fractionOfMax(c.TankHeal)
	c.heal(amount)
	if side == SidePlayer {
		e.message("Last Stand activated! You healed for %d health!", amount)
	} else {
		e.message("%s's stance holds! It healed for %d health!", c.Name, amount)
	}
	e.emit(healthEvent(side, c))
	c.TankHeal = 0
	c.Vulnerability = 1
}

func (e *Engine) startPlayerTurn() {
	e.st.Turn++
	e.setPhase(PhasePlayerTurn)
	e.message("--- Turn %d: Your Turn ---", e.st.Turn)

	e.startTurnModifiers(SidePlayer)
	p := &e.st.Player
	if p.BoostTurns > 0 {
		p.BoostTurns--
		if p.BoostTurns == 0 {
			p.Boost = 1
			e.message("Your damage boost has worn off.")
		} else {
			e.message("Damage boost active: %d%% for %d more turns.",
				int(math.Round((p.Boost-1)*100)), p.BoostTurns)
		}
	}

	e.st.Focus = min(e.st.Focus+e.rules.FocusRegen, e.st.MaxFocus)
	e.emit(focusEvent(&e.st))

	e.st.PlayerHand = topUp(e.st.PlayerHand, e.st.PlayerPools,
		e.rules.PlayerAttackSlots, e.rules.PlayerActionSlots, e.rng, e.newID)
	e.emit(Event{Kind: EventHand, Side: SidePlayer, Value: len(e.st.PlayerHand)})
	e.st.Staging.clear()
}

func (e *Engine) beginEnemyTurn() {
	e.setPhase(PhaseEnemyAnalyzing)
	e.message("--- %s's Turn ---", e.st.Enemy.Name)
	e.st.EnemyPlayed = nil
	e.startTurnModifiers(SideEnemy)

	e.schedule("announce", delayTurnStart, func() {
		e.message("%s is analyzing your moves...", e.st.Enemy.Name)
	})
	e.schedule("analyze", delayThinking, e.enemyAnalyze)
}

func (e *Engine) enemyCards() []cards.Card {
	out := make([]cards.Card, len(e.st.EnemyHand))
	for i, hc := range e.st.EnemyHand {
		out[i] = e.Card(hc.CardID)
	}
	return out
}

func (e *Engine) enemyAnalyze() {
	a := Analyze(e.st.History, e.st.Turn)
	health := e.st.Enemy.HealthPercent()
	e.st.Threat = a.Threat
	if len(e.st.History) == 0 && health >= DesperationHealth {
		// nothing to read yet
		e.st.Strategy = e.cfg.Enemy.DefaultStrategy
	} else {
		e.st.Strategy = ChooseStrategy(a, health, e.rng)
	}
	e.log.Debug("enemy assessment",
		zap.Float64("damage_threat", a.Damage),
		zap.Float64("buff_threat", a.Buff),
		zap.Float64("debuff_threat", a.Debuff),
		zap.Float64("threat", a.Threat),
		zap.String("strategy", string(e.st.Strategy)),
	)
	e.emit(Event{Kind: EventStrategy, Side: SideEnemy, Strategy: e.st.Strategy})

	e.setPhase(PhaseEnemySelecting)
	name := e.st.Enemy.Name
	switch e.st.Strategy {
	case StrategyDefensive:
		e.message("%s takes a defensive stance!", name)
	case StrategyAggressive:
		e.message("%s looks aggressive!", name)
	default:
		e.message("%s watches carefully...", name)
	}

	picked := SelectCards(e.enemyCards(), Plan{
		Strategy:  e.st.Strategy,
		Budget:    e.cfg.Enemy.Focus,
		HealthPct: health,
		Threat:    a.Threat,
	}, e.rng)

	if len(picked) == 0 {
		e.message("%s does nothing this turn.", name)
	}
	e.setPhase(PhaseEnemyPlaying)
	for n, i := range picked {
		hc := e.st.EnemyHand[i]
		delay := delayCard
		if n == 0 {
			delay = 0
		}
		e.schedule("play", delay, func() { e.enemyPlay(hc) })
	}
	e.schedule("finish", delayTurnEnd, e.enemyFinish)
}

func (e *Engine) enemyPlay(hc HandCard) {
	if _, ok := findInstance(e.st.EnemyHand, hc.Instance); !ok {
		return
	}
	card := e.Card(hc.CardID)
	e.st.EnemyHand = removeInstance(e.st.EnemyHand, hc.Instance)
	e.st.EnemyPlayed = append(e.st.EnemyPlayed, hc.CardID)
	e.message("%s plays %s!", e.st.Enemy.Name, card.Name)
	e.resolve(SideEnemy, card)
}

func (e *Engine) enemyFinish() {
	if len(e.st.EnemyHand) == 0 {
		e.dealEnemy()
	}
	if e.st.Active {
		e.startPlayerTurn()
	}
}
