package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// ErrStoreFull is returned by Put once the store exceeds its size budget.
var ErrStoreFull = errors.New("enrichment store is full")

const keyPrefix = "attrs:"

// Store persists enrichment attributes between runs. Entries expire after
// the configured TTL; staleness is also checked lazily on read so that a
// shorter TTL applies to entries written under a longer one.
type Store struct {
	db       *badger.DB
	ttl      time.Duration
	maxBytes int64
	log      *zap.Logger
}

type storedEntry struct {
	Attributes Attributes `json:"attributes"`
	FetchedAt  int64      `json:"fetched_at"`
}

// OpenStore opens (or creates) a store under dir.
func OpenStore(dir string, ttl time.Duration, maxSizeMB int, log *zap.Logger) (*Store, error) {
	log = log.Named("store")
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening enrichment store: %w", err)
	}

	return &Store{
		db:       db,
		ttl:      ttl,
		maxBytes: int64(maxSizeMB) << 20,
		log:      log,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the attributes for trackID if present and fresh.
func (s *Store) Get(trackID string) (Attributes, bool) {
	var entry storedEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + trackID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.Debug("reading entry", zap.String("track_id", trackID), zap.Error(err))
		return nil, false
	}

	if time.Since(time.Unix(entry.FetchedAt, 0)) > s.ttl {
		return nil, false
	}
	return entry.Attributes, true
}

// Put stores attrs for trackID.
func (s *Store) Put(trackID string, attrs Attributes) error {
	return s.putAt(trackID, attrs, time.Now())
}

func (s *Store) putAt(trackID string, attrs Attributes, fetchedAt time.Time) error {
	if s.maxBytes > 0 {
		lsm, vlog := s.db.Size()
		if lsm+vlog > s.maxBytes {
			return ErrStoreFull
		}
	}

	val, err := json.Marshal(storedEntry{Attributes: attrs, FetchedAt: fetchedAt.Unix()})
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+trackID), val).WithTTL(time.Until(fetchedAt.Add(s.ttl)))
		return txn.SetEntry(e)
	})
}

// Clear removes every entry.
func (s *Store) Clear() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("clearing enrichment store: %w", err)
	}
	return nil
}

// badgerLogger routes badger's logging through zap. Badger's info output is
// demoted to debug.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.s.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }
