package command

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/ledger"
	"github.com/regen-hub/regenmon-hub/internal/domain/shared"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"
	"github.com/regen-hub/regenmon-hub/internal/domain/training"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// One store backs every repository of a fake unit of work. Writes land
// directly; the tests assert on commits to distinguish persisted outcomes
// from rolled-back ones.
// ══════════════════════════════════════════════════════════════════════════════

type memStore struct {
	mu sync.Mutex

	creatures    map[string]*creature.Creature
	transactions []*ledger.Transaction
	snapshots    []creature.Snapshot
	sessions     []*training.Session
	exchanges    []*training.ChatExchange
	interactions []*social.Interaction
	messages     []*social.Message
	visits       []*social.Visit

	commits   int
	rollbacks int

	// updateErr makes every creature update fail when set
	updateErr error
}

func newMemStore(creatures ...*creature.Creature) *memStore {
	s := &memStore{creatures: make(map[string]*creature.Creature)}
	for _, c := range creatures {
		s.creatures[c.ID] = c
	}
	return s
}

func (s *memStore) txRowsFor(creatureID string) []*ledger.Transaction {
	var rows []*ledger.Transaction
	for _, tx := range s.transactions {
		if tx.CreatureID == creatureID {
			rows = append(rows, tx)
		}
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// Unit of work
// ─────────────────────────────────────────────────────────────────────────────

type fakeUOW struct {
	store *memStore
}

func (u *fakeUOW) Creatures() creature.Repository            { return &fakeCreatureRepo{store: u.store} }
func (u *fakeUOW) Ledger() ledger.Repository                 { return &fakeLedgerRepo{store: u.store} }
func (u *fakeUOW) Snapshots() creature.SnapshotRepository    { return &fakeSnapshotRepo{store: u.store} }
func (u *fakeUOW) Trainings() training.Repository            { return &fakeTrainingRepo{store: u.store} }
func (u *fakeUOW) Interactions() social.InteractionRepository { return &fakeInteractionRepo{store: u.store} }
func (u *fakeUOW) Messages() social.MessageRepository        { return &fakeMessageRepo{store: u.store} }
func (u *fakeUOW) Visits() social.VisitRepository            { return &fakeVisitRepo{store: u.store} }

func (u *fakeUOW) Commit(ctx context.Context) error {
	u.store.commits++
	return nil
}

func (u *fakeUOW) Rollback(ctx context.Context) error {
	u.store.rollbacks++
	return nil
}

type fakeUOWFactory struct {
	store    *memStore
	beginErr error
}

func (f *fakeUOWFactory) Begin(ctx context.Context) (ledger.UnitOfWork, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeUOW{store: f.store}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Creature repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeCreatureRepo struct {
	store *memStore
}

func (r *fakeCreatureRepo) Create(ctx context.Context, c *creature.Creature) error {
	if _, ok := r.store.creatures[c.ID]; ok {
		return creature.ErrAlreadyExists
	}
	r.store.creatures[c.ID] = c
	return nil
}

func (r *fakeCreatureRepo) GetByID(ctx context.Context, id string) (*creature.Creature, error) {
	c, ok := r.store.creatures[id]
	if !ok {
		return nil, creature.ErrNotFound
	}
	return c, nil
}

func (r *fakeCreatureRepo) GetByAppURL(ctx context.Context, appURL string) (*creature.Creature, error) {
	for _, c := range r.store.creatures {
		if c.AppURL == appURL {
			return c, nil
		}
	}
	return nil, creature.ErrNotFound
}

func (r *fakeCreatureRepo) GetByOwnerID(ctx context.Context, ownerID string) (*creature.Creature, error) {
	for _, c := range r.store.creatures {
		if c.OwnerID == ownerID {
			return c, nil
		}
	}
	return nil, creature.ErrNotFound
}

func (r *fakeCreatureRepo) Update(ctx context.Context, c *creature.Creature) error {
	if r.store.updateErr != nil {
		return r.store.updateErr
	}
	if _, ok := r.store.creatures[c.ID]; !ok {
		return creature.ErrNotFound
	}
	r.store.creatures[c.ID] = c
	return nil
}

func (r *fakeCreatureRepo) GetAll(ctx context.Context, opts creature.ListOptions) ([]*creature.Creature, error) {
	var all []*creature.Creature
	for _, c := range r.store.creatures {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r *fakeCreatureRepo) GetByIDs(ctx context.Context, ids []string) ([]*creature.Creature, error) {
	var out []*creature.Creature
	for _, id := range ids {
		if c, ok := r.store.creatures[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCreatureRepo) Count(ctx context.Context) (int, error) {
	return len(r.store.creatures), nil
}

func (r *fakeCreatureRepo) FindStale(ctx context.Context, threshold time.Duration) ([]*creature.Creature, error) {
	cutoff := time.Now().Add(-threshold)
	var out []*creature.Creature
	for _, c := range r.store.creatures {
		if c.IsActive && c.LastSyncAt.Before(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCreatureRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.store.creatures[id]
	return ok, nil
}

func (r *fakeCreatureRepo) ExistsByAppURL(ctx context.Context, appURL string) (bool, error) {
	_, err := r.GetByAppURL(ctx, appURL)
	if errors.Is(err, creature.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeCreatureRepo) ExistsByOwnerID(ctx context.Context, ownerID string) (bool, error) {
	_, err := r.GetByOwnerID(ctx, ownerID)
	if errors.Is(err, creature.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Ledger repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeLedgerRepo struct {
	store *memStore
}

func (r *fakeLedgerRepo) Append(ctx context.Context, tx *ledger.Transaction) error {
	r.store.transactions = append(r.store.transactions, tx)
	return nil
}

func (r *fakeLedgerRepo) AppendPair(ctx context.Context, debit, credit *ledger.Transaction) error {
	r.store.transactions = append(r.store.transactions, debit, credit)
	return nil
}

func (r *fakeLedgerRepo) GetByID(ctx context.Context, id string) (*ledger.Transaction, error) {
	for _, tx := range r.store.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (r *fakeLedgerRepo) GetByCreature(ctx context.Context, creatureID string, filter ledger.HistoryFilter) ([]*ledger.Transaction, error) {
	return r.store.txRowsFor(creatureID), nil
}

func (r *fakeLedgerRepo) CountByCreature(ctx context.Context, creatureID string, filter ledger.HistoryFilter) (int, error) {
	return len(r.store.txRowsFor(creatureID)), nil
}

func (r *fakeLedgerRepo) GetRecent(ctx context.Context, filter ledger.HistoryFilter) ([]*ledger.Transaction, error) {
	return r.store.transactions, nil
}

func (r *fakeLedgerRepo) SumByCreature(ctx context.Context, creatureID string) (int64, error) {
	var sum int64
	for _, tx := range r.store.txRowsFor(creatureID) {
		sum += tx.Amount
	}
	return sum, nil
}

func (r *fakeLedgerRepo) TotalsByType(ctx context.Context, from, to time.Time) (map[ledger.TransactionType]int64, error) {
	totals := make(map[ledger.TransactionType]int64)
	for _, tx := range r.store.transactions {
		totals[tx.Type] += tx.Amount
	}
	return totals, nil
}

func (r *fakeLedgerRepo) CountInWindow(ctx context.Context, from, to time.Time) (int, error) {
	return len(r.store.transactions), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Snapshot / training / social repositories
// ─────────────────────────────────────────────────────────────────────────────

type fakeSnapshotRepo struct {
	store *memStore
}

func (r *fakeSnapshotRepo) Save(ctx context.Context, snap creature.Snapshot) error {
	r.store.snapshots = append(r.store.snapshots, snap)
	return nil
}

func (r *fakeSnapshotRepo) GetHistory(ctx context.Context, creatureID string, limit int) ([]creature.Snapshot, error) {
	var out []creature.Snapshot
	for _, s := range r.store.snapshots {
		if s.CreatureID == creatureID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSnapshotRepo) GetLatest(ctx context.Context, creatureID string) (*creature.Snapshot, error) {
	for i := len(r.store.snapshots) - 1; i >= 0; i-- {
		if r.store.snapshots[i].CreatureID == creatureID {
			return &r.store.snapshots[i], nil
		}
	}
	return nil, creature.ErrNotFound
}

type fakeTrainingRepo struct {
	store *memStore
}

func (r *fakeTrainingRepo) SaveSession(ctx context.Context, session *training.Session) error {
	r.store.sessions = append(r.store.sessions, session)
	return nil
}

func (r *fakeTrainingRepo) GetSession(ctx context.Context, id string) (*training.Session, error) {
	for _, s := range r.store.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, training.ErrSessionNotFound
}

func (r *fakeTrainingRepo) GetSessionsByCreature(ctx context.Context, creatureID string, limit int) ([]*training.Session, error) {
	var out []*training.Session
	for _, s := range r.store.sessions {
		if s.CreatureID == creatureID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeTrainingRepo) CountSessionsSince(ctx context.Context, creatureID string, since time.Time) (int, error) {
	n := 0
	for _, s := range r.store.sessions {
		if s.CreatureID == creatureID && s.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTrainingRepo) CountSessions(ctx context.Context, since time.Time) (int, error) {
	n := 0
	for _, s := range r.store.sessions {
		if s.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeTrainingRepo) SaveChatExchange(ctx context.Context, exchange *training.ChatExchange) error {
	r.store.exchanges = append(r.store.exchanges, exchange)
	return nil
}

func (r *fakeTrainingRepo) GetChatHistory(ctx context.Context, creatureID string, limit int) ([]*training.ChatExchange, error) {
	var out []*training.ChatExchange
	for _, e := range r.store.exchanges {
		if e.CreatureID == creatureID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeTrainingRepo) GetDailyProgress(ctx context.Context, creatureID string, date time.Time) (*training.DailyProgress, error) {
	dp := training.NewDailyProgress(creatureID, date)
	for _, s := range r.store.sessions {
		if s.CreatureID == creatureID {
			dp.AddSession(s)
		}
	}
	return dp, nil
}

func (r *fakeTrainingRepo) GetDailyProgressRange(ctx context.Context, creatureID string, from, to time.Time) ([]*training.DailyProgress, error) {
	dp, _ := r.GetDailyProgress(ctx, creatureID, from)
	return []*training.DailyProgress{dp}, nil
}

type fakeInteractionRepo struct {
	store *memStore
}

func (r *fakeInteractionRepo) Save(ctx context.Context, interaction *social.Interaction) error {
	r.store.interactions = append(r.store.interactions, interaction)
	return nil
}

func (r *fakeInteractionRepo) GetActivity(ctx context.Context, creatureID social.CreatureID, opts social.ListOptions) ([]*social.Interaction, error) {
	var out []*social.Interaction
	for _, in := range r.store.interactions {
		if in.ActorID == creatureID || in.TargetID == creatureID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *fakeInteractionRepo) CountSince(ctx context.Context, actorID social.CreatureID, kind social.InteractionKind, since time.Time) (int, error) {
	n := 0
	for _, in := range r.store.interactions {
		if in.ActorID == actorID && in.Kind == kind && in.OccurredAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeInteractionRepo) LastBetween(ctx context.Context, actorID, targetID social.CreatureID, kind social.InteractionKind) (*social.Interaction, error) {
	for i := len(r.store.interactions) - 1; i >= 0; i-- {
		in := r.store.interactions[i]
		if in.ActorID == actorID && in.TargetID == targetID && in.Kind == kind {
			return in, nil
		}
	}
	return nil, nil
}

type fakeMessageRepo struct {
	store *memStore
}

func (r *fakeMessageRepo) Save(ctx context.Context, msg *social.Message) error {
	r.store.messages = append(r.store.messages, msg)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*social.Message, error) {
	for _, m := range r.store.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, social.ErrMessageNotFound
}

func (r *fakeMessageRepo) GetInbox(ctx context.Context, creatureID social.CreatureID, opts social.ListOptions) ([]*social.Message, error) {
	var out []*social.Message
	for _, m := range r.store.messages {
		if m.ToID == creatureID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) GetOutbox(ctx context.Context, creatureID social.CreatureID, opts social.ListOptions) ([]*social.Message, error) {
	var out []*social.Message
	for _, m := range r.store.messages {
		if m.FromID == creatureID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, creatureID social.CreatureID) (int, error) {
	n := 0
	for _, m := range r.store.messages {
		if m.ToID == creatureID && !m.IsRead() {
			n++
		}
	}
	return n, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	for _, m := range r.store.messages {
		if m.ID == id {
			t := readAt
			m.ReadAt = &t
			return nil
		}
	}
	return social.ErrMessageNotFound
}

type fakeVisitRepo struct {
	store *memStore
}

func (r *fakeVisitRepo) Save(ctx context.Context, visit *social.Visit) error {
	r.store.visits = append(r.store.visits, visit)
	return nil
}

func (r *fakeVisitRepo) GetRecentVisitors(ctx context.Context, hostID social.CreatureID, limit int) ([]*social.Visit, error) {
	var out []*social.Visit
	for _, v := range r.store.visits {
		if v.HostID == hostID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) CountVisits(ctx context.Context, hostID social.CreatureID, from, to time.Time) (int, error) {
	n := 0
	for _, v := range r.store.visits {
		if v.HostID == hostID {
			n++
		}
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Event publisher / AI fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) typesSeen() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []shared.EventType
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func (p *fakePublisher) has(t shared.EventType) bool {
	for _, seen := range p.typesSeen() {
		if seen == t {
			return true
		}
	}
	return false
}

type fakeEvaluator struct {
	score    int
	feedback string
	err      error
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, creatureName, prompt string) (*Evaluation, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &Evaluation{Score: e.score, Feedback: e.feedback}, nil
}

type fakeLimiter struct {
	allowed bool
	err     error
}

func (l *fakeLimiter) Allow(ctx context.Context, creatureID string) (bool, error) {
	return l.allowed, l.err
}

type fakeCompanion struct {
	reply string
	err   error
}

func (c *fakeCompanion) Reply(ctx context.Context, creatureName string, stats creature.Stats, prompt string) (string, error) {
	return c.reply, c.err
}

// ─────────────────────────────────────────────────────────────────────────────
// Builders
// ─────────────────────────────────────────────────────────────────────────────

func testCreature(id string, balance int64, points int) *creature.Creature {
	now := time.Now().UTC()
	return &creature.Creature{
		ID:             id,
		OwnerID:        "owner-" + id,
		Name:           "Mon-" + id,
		AppURL:         "https://" + id + ".example.com",
		Stats:          creature.DefaultStats(),
		Stage:          creature.StageForPoints(points),
		TotalPoints:    points,
		Balance:        balance,
		IsActive:       true,
		StatsUpdatedAt: now,
		LastSyncAt:     now,
		RegisteredAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func deadCreature(id string, balance int64) *creature.Creature {
	c := testCreature(id, balance, 0)
	c.Stats = creature.Stats{}
	died := time.Now().UTC().Add(-time.Hour)
	c.DiedAt = &died
	return c
}

func fixedID(id string) func() string {
	n := 0
	return func() string {
		n++
		if n == 1 {
			return id
		}
		return id + "-" + string(rune('0'+n))
	}
}
