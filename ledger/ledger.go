// Package ledger persists executed airdrop payouts in a bbolt database so a
// token's payout history survives restarts.
package ledger

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketPayouts      = []byte("payouts")
	bucketTokenPayouts = []byte("token_payouts")
)

// Record is one executed payout.
type Record struct {
	TxID        string
	TokenID     string
	Mode        string
	Total       string // Decimal string, fee currency
	HolderCount int
	Entries     []RecordEntry
	At          time.Time
}

// RecordEntry is one recipient line of a payout.
type RecordEntry struct {
	Identity string
	Amount   string // Decimal string, fee currency
}

// Store wraps a bbolt database holding payout records.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the ledger at dbPath. The parent directory is
// created if it does not exist.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketPayouts, bucketTokenPayouts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("ledger: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// tokenPrefix is tokenID || 0x00.
func tokenPrefix(tokenID string) []byte {
	return append([]byte(tokenID), 0x00)
}

// tokenKey orders a token's payouts by time: tokenID || 0x00 || unixnano(8) || txid.
func tokenKey(rec *Record) []byte {
	k := tokenPrefix(rec.TokenID)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(rec.At.UnixNano()))
	k = append(k, ts[:]...)
	return append(k, rec.TxID...)
}

// Record stores an executed payout. Returns ErrDuplicatePayout if the txid
// is already recorded.
func (s *Store) Record(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	if rec.TxID == "" || rec.TokenID == "" {
		return fmt.Errorf("%w: txid and token id are required", ErrInvalidRecord)
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketPayouts)
		if b.Get([]byte(rec.TxID)) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicatePayout, rec.TxID)
		}

		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
			return fmt.Errorf("ledger: encode record: %w", err)
		}
		if err := b.Put([]byte(rec.TxID), buf.Bytes()); err != nil {
			return fmt.Errorf("ledger: put payout: %w", err)
		}
		if err := tx.Bucket(bucketTokenPayouts).Put(tokenKey(rec), []byte(rec.TxID)); err != nil {
			return fmt.Errorf("ledger: put token index: %w", err)
		}
		return nil
	})
}

// Get returns the payout recorded under txid.
func (s *Store) Get(txid string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketPayouts).Get([]byte(txid))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrPayoutNotFound, txid)
		}
		r, err := decodeRecord(data)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByToken returns a token's payouts, oldest first.
func (s *Store) ListByToken(tokenID string) ([]*Record, error) {
	prefix := tokenPrefix(tokenID)

	var recs []*Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		payouts := tx.Bucket(bucketPayouts)
		c := tx.Bucket(bucketTokenPayouts).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			data := payouts.Get(v)
			if data == nil {
				continue // stale index entry
			}
			rec, err := decodeRecord(data)
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: list payouts: %w", err)
	}
	return recs, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("ledger: decode record: %w", err)
	}
	return &rec, nil
}
