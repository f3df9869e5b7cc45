package battles

import (
	"battlearena/lib/config"
	"battlearena/lib/sui"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
)

type Stage int

const (
	STAGE_DORMANT Stage = iota
	STAGE_CHOOSING
	STAGE_PENDING
	STAGE_REVEALED
)

func (stage Stage) String() string {
	switch stage {
	case STAGE_DORMANT:
		return "dormant"
	case STAGE_CHOOSING:
		return "choosing"
	case STAGE_PENDING:
		return "pending"
	case STAGE_REVEALED:
		return "revealed"
	}
	return "unknown"
}

func (stage Stage) MarshalText() ([]byte, error) {
	return []byte(stage.String()), nil
}

type StageTransition struct {
	From Stage
	To   Stage
}

var stage_transitions = map[StageTransition]struct{}{
	{STAGE_DORMANT, STAGE_CHOOSING}: {},
	{STAGE_CHOOSING, STAGE_PENDING}: {},
	{STAGE_PENDING, STAGE_REVEALED}: {},
	{STAGE_PENDING, STAGE_CHOOSING}: {},
}

const (
	VERDICT_WIN     = "win"
	VERDICT_LOSE    = "lose"
	VERDICT_UNKNOWN = "unknown"
)

// Result is what a session knows about the outcome once revealed. DidWin is nil
// when the outcome could not be established, which is not a loss.
type Result struct {
	Digest          string `json:"digest,omitempty"`
	Winner          string `json:"winner,omitempty"`
	IsSwapped       bool   `json:"is_swapped"`
	WinningCoinName string `json:"winning_coin_name,omitempty"`
	DidWin          *bool  `json:"did_win"`
}

// Outcome is published once per revealed session.
type Outcome struct {
	SessionID       string    `json:"session_id"`
	BattleID        string    `json:"battle_id"`
	Player          string    `json:"player"`
	Side            Side      `json:"side"`
	EntryFee        uint64    `json:"entry_fee"`
	Digest          string    `json:"digest"`
	Winner          string    `json:"winner,omitempty"`
	WinningCoinName string    `json:"winning_coin_name,omitempty"`
	DidWin          *bool     `json:"did_win"`
	RevealedAt      time.Time `json:"revealed_at"`
}

type SessionDeps struct {
	Gateway    Gateway
	Submitter  Submitter
	Resolver   *Resolver
	JoinTarget string
	GasBudget  uint64
	// Shuffle decides the cosmetic card order; true keeps left first.
	Shuffle  func() bool
	OnReveal func(Outcome)
}

func coinFlip() bool {
	return rand.Intn(2) == 0
}

// Session drives one viewer through joining a single battle.
type Session struct {
	id        string
	battle_id string
	deps      *SessionDeps

	mu         sync.Mutex
	stage      Stage
	address    string
	selected   Side
	card_order [2]Side
	record     *BattleRecord
	result     *Result
	in_flight  bool
	touched_at time.Time
}

func NewSession(id string, battle_id string, deps *SessionDeps) *Session {
	if deps.Shuffle == nil {
		deps.Shuffle = coinFlip
	}
	session := &Session{
		id:         id,
		battle_id:  battle_id,
		deps:       deps,
		stage:      STAGE_DORMANT,
		touched_at: time.Now(),
	}
	session.shuffle()
	return session
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) BattleID() string {
	return s.battle_id
}

// Address is the wallet that armed the session, empty while dormant.
func (s *Session) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) shuffle() {
	if s.deps.Shuffle() {
		s.card_order = [2]Side{SIDE_LEFT, SIDE_RIGHT}
	} else {
		s.card_order = [2]Side{SIDE_RIGHT, SIDE_LEFT}
	}
}

// to must be called with mu held.
func (s *Session) to(stage Stage) error {
	if _, ok := stage_transitions[StageTransition{s.stage, stage}]; !ok {
		slog.Warn("Session : invalid stage transition", "session_id", s.id, "from", s.stage.String(), "to", stage.String())
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.stage, stage)
	}
	slog.Debug("Session : transition done", "session_id", s.id, "from", s.stage.String(), "to", stage.String())
	s.stage = stage
	s.touched_at = time.Now()
	return nil
}

// Load fetches the battle this session is about.
func (s *Session) Load(ctx context.Context) (BattleRecord, error) {
	record, err := LoadBattle(ctx, s.deps.Gateway, s.battle_id)
	if err != nil {
		return BattleRecord{}, err
	}
	s.mu.Lock()
	s.record = &record
	s.touched_at = time.Now()
	s.mu.Unlock()
	return record, nil
}

// StartJoin arms the session for the connected wallet.
func (s *Session) StartJoin(address string) error {
	if address == "" {
		return ErrWalletNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.to(STAGE_CHOOSING); err != nil {
		return err
	}
	s.address = address
	s.result = nil
	s.selected = SIDE_NONE
	s.shuffle()
	return nil
}

func (s *Session) Select(side Side) error {
	if side != SIDE_LEFT && side != SIDE_RIGHT {
		return ErrInvalidSide
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.in_flight {
		return ErrSubmissionInFlight
	}
	if s.stage != STAGE_CHOOSING {
		return fmt.Errorf("%w: cannot select a side while %s", ErrInvalidTransition, s.stage)
	}
	s.selected = side
	s.touched_at = time.Now()
	return nil
}

// Confirm pays the entry fee and joins the battle on the selected side. It blocks until
// the transaction is executed and its result resolved. A failed submission, including one
// the ledger aborted, puts the session back to choosing with the selection kept. An
// executed join with an unknown digest is revealed without a verdict.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.in_flight:
		s.mu.Unlock()
		return ErrSubmissionInFlight
	case s.stage != STAGE_CHOOSING:
		stage := s.stage
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot confirm while %s", ErrInvalidTransition, stage)
	case s.selected == SIDE_NONE:
		s.mu.Unlock()
		return ErrNoSelection
	}
	s.in_flight = true
	record := s.record
	s.mu.Unlock()

	if record == nil {
		loaded, err := s.Load(ctx)
		if err != nil {
			s.mu.Lock()
			s.in_flight = false
			s.mu.Unlock()
			return err
		}
		record = &loaded
	}

	s.mu.Lock()
	side := s.selected
	address := s.address
	s.to(STAGE_PENDING)
	s.mu.Unlock()

	tx := BuildJoinTransaction(s.deps.JoinTarget, address, s.deps.GasBudget, s.battle_id, record.EntryFee, side == SIDE_LEFT)
	digest, err := s.deps.Submitter.Submit(ctx, tx)
	if err != nil {
		slog.Warn("Failed to join battle", "error", err, "session_id", s.id, "battle_id", s.battle_id)
		s.mu.Lock()
		s.to(STAGE_CHOOSING)
		s.in_flight = false
		s.mu.Unlock()
		return fmt.Errorf("failed to submit join transaction: %w", err)
	}
	slog.Info("Battle joined", "session_id", s.id, "battle_id", s.battle_id, "digest", digest)

	var event *ResultEvent
	if s.deps.Resolver != nil && digest != "" {
		event, _ = s.deps.Resolver.Resolve(ctx, digest)
	}
	result := newResult(event, address, digest)

	s.mu.Lock()
	s.result = result
	s.to(STAGE_REVEALED)
	s.in_flight = false
	s.mu.Unlock()

	if s.deps.OnReveal != nil {
		s.deps.OnReveal(Outcome{
			SessionID:       s.id,
			BattleID:        s.battle_id,
			Player:          address,
			Side:            side,
			EntryFee:        record.EntryFee,
			Digest:          digest,
			Winner:          result.Winner,
			WinningCoinName: result.WinningCoinName,
			DidWin:          result.DidWin,
			RevealedAt:      time.Now(),
		})
	}
	return nil
}

func newResult(event *ResultEvent, address string, digest string) *Result {
	if event == nil {
		return &Result{Digest: digest}
	}
	return &Result{
		Digest:          digest,
		Winner:          event.Winner,
		IsSwapped:       event.IsSwapped,
		WinningCoinName: event.WinningCoinName,
		DidWin:          Verdict(event.Winner, address),
	}
}

// Verdict compares the winner with the connected address, ignoring case. It is nil
// when either side of the comparison is missing.
func Verdict(winner string, address string) *bool {
	if winner == "" || address == "" {
		return nil
	}
	did_win := strings.EqualFold(winner, address)
	return &did_win
}

// BuildJoinTransaction builds join_battle(battle, fee coin, picks left, randomness).
func BuildJoinTransaction(target string, sender string, gas_budget uint64, battle_id string, entry_fee uint64, left bool) *sui.Transaction {
	tx := sui.NewTransaction(sender, gas_budget)
	fee := tx.SplitCoins(sui.GasCoin(), tx.PureU64(entry_fee))
	tx.MoveCall(target, tx.Object(battle_id), fee, tx.PureBool(left), tx.Object(config.RANDOM_OBJECT_ID))
	return tx
}

// SessionView is the display projection of a session.
type SessionView struct {
	ID           string      `json:"id"`
	BattleID     string      `json:"battle_id"`
	Stage        Stage       `json:"stage"`
	SelectedSide Side        `json:"selected_side,omitempty"`
	CardOrder    [2]Side     `json:"card_order"`
	Left         *Competitor `json:"left,omitempty"`
	Right        *Competitor `json:"right,omitempty"`
	EntryFee     uint64      `json:"entry_fee"`
	EntryFeeSui  string      `json:"entry_fee_sui,omitempty"`
	IsOpen       bool        `json:"is_open"`
	InFlight     bool        `json:"in_flight"`
	Result       *Result     `json:"result,omitempty"`
	Verdict      string      `json:"verdict,omitempty"`
	WinnerSide   Side        `json:"winner_side,omitempty"`
}

// View renders the session. A swapped result flips which competitor shows on each
// side; the highlighted winning side follows the verdict and the side the player
// picked, not the raw event.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		ID:           s.id,
		BattleID:     s.battle_id,
		Stage:        s.stage,
		SelectedSide: s.selected,
		CardOrder:    s.card_order,
		InFlight:     s.in_flight,
		Result:       s.result,
	}
	if s.record != nil {
		left, right := s.record.Left, s.record.Right
		if s.result != nil && s.result.IsSwapped {
			left, right = right, left
		}
		view.Left, view.Right = &left, &right
		view.EntryFee = s.record.EntryFee
		view.EntryFeeSui = s.record.EntryFeeSui()
		view.IsOpen = s.record.IsOpen
	}
	if s.stage == STAGE_REVEALED && s.result != nil {
		view.Verdict = VERDICT_UNKNOWN
		if s.result.DidWin != nil {
			view.Verdict = VERDICT_LOSE
			if *s.result.DidWin {
				view.Verdict = VERDICT_WIN
			}
			if s.selected != SIDE_NONE {
				view.WinnerSide = s.selected.Opposite()
				if *s.result.DidWin {
					view.WinnerSide = s.selected
				}
			}
		}
	}
	return view
}

// idle reports whether the session has been untouched for longer than ttl. A session
// waiting on its transaction is never idle.
func (s *Session) idle(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.in_flight && now.Sub(s.touched_at) > ttl
}
