package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"sapid/internal/consent/models"
	dErrors "sapid/pkg/domain-errors"
	"sapid/pkg/platform/sentinel"
)

// Store is the persistence boundary of a Manager.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
}

// Manager is one visitor's consent state machine.
//
// Transitions:
//
//	Initialize          -> BannerVisible (nothing recorded) | Hidden (recorded)
//	AcceptAll/RejectAll -> Hidden, persisted
//	OpenSettings        -> SettingsOpen
//	SavePreferences     -> Hidden, persisted
//	CloseSettings       -> Hidden (recorded) | BannerVisible (nothing recorded)
//
// A failed write leaves the in-memory state untouched.
type Manager struct {
	mu          sync.Mutex
	key         string
	store       Store
	logger      *slog.Logger
	prefs       models.Preferences
	recorded    *models.Preferences
	ui          models.UIState
	initialized bool
	// stale is set while the last load failed for a reason other than
	// "nothing stored"; the next EnsureInitialized retries it.
	stale bool
}

type loadOutcome int

const (
	loadFound loadOutcome = iota
	loadAbsent
	loadFailed
)

// NewManager builds a manager for the blob stored under key. Call Initialize
// before serving the first snapshot.
func NewManager(key string, store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		key:    key,
		store:  store,
		logger: logger,
		prefs:  models.DefaultPreferences(),
		ui:     models.UIHidden,
	}
}

// Initialize reads the persisted blob. Missing, unreadable and malformed blobs
// all mean "no consent yet"; Initialize never fails.
func (m *Manager) Initialize(ctx context.Context) models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initializeLocked(ctx)
	return m.snapshotLocked()
}

func (m *Manager) initializeLocked(ctx context.Context) {
	m.initialized = true
	prefs, outcome := m.load(ctx)
	m.stale = outcome == loadFailed
	if outcome != loadFound {
		m.prefs = models.DefaultPreferences()
		m.recorded = nil
		m.ui = models.UIBannerVisible
		return
	}
	m.applyRecordedLocked(prefs)
}

// EnsureInitialized runs Initialize on the first call and reports whether it
// did. Concurrent callers wait for that load. While the store could not be
// read and no decision was made since, later calls retry the load.
func (m *Manager) EnsureInitialized(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		m.initializeLocked(ctx)
		return true
	}
	if m.stale && m.recorded == nil {
		m.retryLocked(ctx)
	}
	return false
}

// retryLocked only changes visible state when a stored decision turns up, so
// toggles made while the store was down survive an empty answer.
func (m *Manager) retryLocked(ctx context.Context) {
	prefs, outcome := m.load(ctx)
	switch outcome {
	case loadFound:
		m.stale = false
		m.applyRecordedLocked(prefs)
	case loadAbsent:
		m.stale = false
	}
}

func (m *Manager) applyRecordedLocked(prefs models.Preferences) {
	m.prefs = prefs
	recorded := prefs
	m.recorded = &recorded
	m.ui = models.UIHidden
}

func (m *Manager) load(ctx context.Context) (models.Preferences, loadOutcome) {
	blob, err := m.store.Load(ctx, m.key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.Preferences{}, loadAbsent
	}
	if err != nil {
		m.logger.WarnContext(ctx, "consent blob unreadable, prompting again",
			"key", m.key,
			"error", err,
		)
		return models.Preferences{}, loadFailed
	}
	prefs, err := models.Decode(blob)
	if err != nil {
		m.logger.WarnContext(ctx, "consent blob malformed, prompting again",
			"key", m.key,
			"error", err,
		)
		return models.Preferences{}, loadAbsent
	}
	return prefs, loadFound
}

func (m *Manager) AcceptAll(ctx context.Context) (models.Snapshot, error) {
	return m.record(ctx, func(models.Preferences) models.Preferences { return models.AllAccepted() })
}

func (m *Manager) RejectAll(ctx context.Context) (models.Snapshot, error) {
	return m.record(ctx, func(models.Preferences) models.Preferences { return models.AllRejected() })
}

// SavePreferences persists the in-memory preferences as they are.
func (m *Manager) SavePreferences(ctx context.Context) (models.Snapshot, error) {
	return m.record(ctx, func(current models.Preferences) models.Preferences { return current })
}

// record derives the preferences to persist from the current ones under the
// lock, so a concurrent toggle is either saved or applied after the write.
func (m *Manager) record(ctx context.Context, choose func(current models.Preferences) models.Preferences) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefs := choose(m.prefs)
	prefs.Necessary = true
	blob, err := models.Encode(prefs)
	if err != nil {
		return m.snapshotLocked(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode consent")
	}
	if err := m.store.Save(ctx, m.key, blob); err != nil {
		return m.snapshotLocked(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to record consent")
	}
	m.stale = false
	m.applyRecordedLocked(prefs)
	return m.snapshotLocked(), nil
}

// OpenSettings shows the settings panel. It is valid from the banner and,
// after a decision, from the hidden state so visitors can change their mind.
func (m *Manager) OpenSettings() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ui = models.UISettingsOpen
	return m.snapshotLocked()
}

// ToggleCategory flips c in memory. Necessary is never changed.
func (m *Manager) ToggleCategory(c models.Category) models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = m.prefs.Toggle(c)
	return m.snapshotLocked()
}

// CloseSettingsWithoutSaving discards unsaved toggles. Without a recorded
// decision the banner comes back.
func (m *Manager) CloseSettingsWithoutSaving() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ui != models.UISettingsOpen {
		return m.snapshotLocked()
	}
	if m.recorded != nil {
		m.prefs = *m.recorded
		m.ui = models.UIHidden
	} else {
		m.prefs = models.DefaultPreferences()
		m.ui = models.UIBannerVisible
	}
	return m.snapshotLocked()
}

func (m *Manager) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() models.Snapshot {
	return models.Snapshot{
		Preferences: m.prefs,
		UIState:     m.ui,
		Recorded:    m.recorded != nil,
	}
}

// Dispose satisfies session.Disposable. A manager owns no scheduled work.
func (m *Manager) Dispose() {}
