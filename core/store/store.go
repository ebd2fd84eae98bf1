package store

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// conflictKey is the natural key log_ranges upserts resolve on.
var conflictKey = []clause.Column{
	{Name: "from_block"},
	{Name: "to_block"},
	{Name: "provider"},
}

// Store persists range fetch results and discrepancy findings. Every write is
// individually transactional, so an interrupted scan leaves committed rows
// intact and re-running the same windows converges through the upsert key.
type Store struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// New creates a store over an open database connection.
func New(db *gorm.DB) *Store {
	return NewWithClock(db, clockwork.NewRealClock())
}

// NewWithClock creates a store with an injected clock for timestamp control.
func NewWithClock(db *gorm.DB, clock clockwork.Clock) *Store {
	return &Store{db: db, clock: clock}
}

// Migrate creates the log_ranges and rpc_discrepancies tables if missing.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&LogRange{}, &Discrepancy{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// UpsertOK writes or fully replaces an OK row for (from, to, provider).
func (s *Store) UpsertOK(from, to uint64, provider, contract, topic string, cnt int64) error {
	row := LogRange{
		FromBlock: from,
		ToBlock:   to,
		Cnt:       &cnt,
		Status:    StatusOK,
		Provider:  provider,
		Contract:  contract,
		Topic:     topic,
		UpdatedAt: s.clock.Now().UTC(),
	}
	return s.upsert(&row)
}

// UpsertErr writes or fully replaces an ERROR row for (from, to, provider).
// The message is truncated to a bounded length for storage.
func (s *Store) UpsertErr(from, to uint64, provider, contract, topic, errType, errMsg string) error {
	if len(errMsg) > maxErrorMsgLen {
		errMsg = errMsg[:maxErrorMsgLen]
	}
	row := LogRange{
		FromBlock: from,
		ToBlock:   to,
		Status:    StatusError,
		ErrorType: &errType,
		ErrorMsg:  &errMsg,
		Provider:  provider,
		Contract:  contract,
		Topic:     topic,
		UpdatedAt: s.clock.Now().UTC(),
	}
	return s.upsert(&row)
}

func (s *Store) upsert(row *LogRange) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns: conflictKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"cnt", "status", "error_type", "error_msg", "contract", "topic", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert range %d-%d: %w", row.FromBlock, row.ToBlock, err)
	}
	return nil
}

// CleanProvider deletes every log_ranges row whose stored provider string,
// canonicalized, equals the given provider's identity. Returns the number of
// rows removed.
func (s *Store) CleanProvider(provider string) (int64, error) {
	res := s.db.Where("provider IN ?", Variants(provider)).Delete(&LogRange{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean provider %q: %w", provider, res.Error)
	}
	return res.RowsAffected, nil
}

// Ranges returns stored rows ordered by from_block ascending. A non-empty
// provider filters to that provider's rows across all identity variants.
func (s *Store) Ranges(provider string) ([]LogRange, error) {
	q := s.db.Order("from_block ASC")
	if provider != "" {
		q = q.Where("provider IN ?", Variants(provider))
	}

	var rows []LogRange
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read ranges: %w", err)
	}
	return rows, nil
}

// AddDiscrepancy appends one finding for a disagreeing range. liveTestCount is
// the test provider's count observed at discovery time.
func (s *Store) AddDiscrepancy(from, to uint64, liveTestCount int64, provider string) error {
	row := Discrepancy{
		FromBlock:        from,
		ToBlock:          to,
		DiscrepancyCount: liveTestCount,
		Provider:         provider,
		RecordedAt:       s.clock.Now().UTC(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record discrepancy %d-%d: %w", from, to, err)
	}
	return nil
}

// Discrepancies returns findings ordered by from_block ascending, optionally
// filtered to one provider as stored.
func (s *Store) Discrepancies(provider string) ([]Discrepancy, error) {
	q := s.db.Order("from_block ASC")
	if provider != "" {
		q = q.Where("provider = ?", provider)
	}

	var rows []Discrepancy
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read discrepancies: %w", err)
	}
	return rows, nil
}

// CleanDiscrepancies deletes all findings recorded for the given provider and
// returns the number of rows removed.
func (s *Store) CleanDiscrepancies(provider string) (int64, error) {
	res := s.db.Where("provider = ?", provider).Delete(&Discrepancy{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean discrepancies for %q: %w", provider, res.Error)
	}
	return res.RowsAffected, nil
}
