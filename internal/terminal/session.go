package terminal

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/billing"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
)

// Session is the transient state of one in-progress payment at a
// terminal. It replaces the global mutable state of the original
// payments view: every field is owned by the session and mutated only
// under its lock. Nothing here is persisted; the session is reset on
// successful payment and discarded on close.
type Session struct {
	ID string

	mu sync.Mutex

	TableID     string
	TableNumber string
	Account     *models.AccountSnapshot

	PaymentMethod string
	TipPercentage float64
	CustomTip     float64
	lastPreset    float64

	SplitPlan   *billing.SplitPlan
	SplitMode   bool
	SplitResult *models.SplitResult

	// fetchSeq tags account fetches so a stale response resolved
	// after the operator moved to another table is discarded instead
	// of overwriting current state.
	fetchSeq uint64

	paymentInFlight bool

	CreatedAt    time.Time
	LastActivity time.Time
}

func newSession(defaultTipPreset float64) *Session {
	now := time.Now()
	return &Session{
		ID:            uuid.NewString(),
		PaymentMethod: models.PaymentMethodCash,
		TipPercentage: defaultTipPreset,
		lastPreset:    defaultTipPreset,
		CreatedAt:     now,
		LastActivity:  now,
	}
}

// reset clears all transient payment state after a successful payment,
// returning the session to its just-created shape.
func (s *Session) reset(defaultTipPreset float64) {
	s.TableID = ""
	s.TableNumber = ""
	s.Account = nil
	s.PaymentMethod = models.PaymentMethodCash
	s.TipPercentage = defaultTipPreset
	s.lastPreset = defaultTipPreset
	s.CustomTip = 0
	s.clearSplit()
}

// clearSplit drops both the in-progress assignment plan and any applied
// split result.
func (s *Session) clearSplit() {
	s.SplitPlan = nil
	s.SplitMode = false
	s.SplitResult = nil
}

// breakdown projects the current displayable summary. Callers hold the
// session lock.
func (s *Session) breakdown() billing.Breakdown {
	var split *models.SplitResult
	if s.SplitMode {
		split = s.SplitResult
	}
	return billing.Project(s.Account, split, s.TipPercentage, s.CustomTip)
}

func (s *Session) touch() {
	s.LastActivity = time.Now()
}

// SessionStore keeps the live terminal sessions in memory. Sessions are
// deliberately not persisted: they are transient UI state, reset on
// payment and meaningless across restarts.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session.
func (st *SessionStore) Create(defaultTipPreset float64) *Session {
	s := newSession(defaultTipPreset)
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns a session by id.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

// Delete removes a session.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Count returns the number of live sessions.
func (st *SessionStore) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// SortTablesByNumber orders tables by the numeric part of their display
// number, so "Mesa 10" sorts after "Mesa 2".
func SortTablesByNumber(tables []models.Table) {
	sort.SliceStable(tables, func(i, j int) bool {
		return tableNumberValue(tables[i].Number) < tableNumberValue(tables[j].Number)
	})
}

func tableNumberValue(number string) int {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
