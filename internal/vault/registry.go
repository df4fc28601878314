// Package vault owns the process-wide binding from "the vault currently in
// use" to a concrete contract ID. The binding is read by every deposit,
// withdraw and yield request and written only on a successful vault creation
// or an explicit operator override, so access goes through a single Registry
// handle with readers-writer locking instead of a package-level variable.
package vault

import (
	"database/sql"
	"sync"
	"time"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/support/errors"

	_ "modernc.org/sqlite"
)

const activeKey = "active_vault"

// Vault is one contract created through (or registered with) this relay.
type Vault struct {
	ContractID string
	Name       string
	Symbol     string
	CreatedAt  time.Time
}

// Registry is the shared store. The zero value is not usable; construct with
// Open or NewInMemory.
type Registry struct {
	mu     sync.RWMutex
	active string
	db     *sql.DB
}

// NewInMemory returns a registry without persistence, bound to initial when
// it is non-empty. Used in tests and when no state path is configured.
func NewInMemory(initial string) *Registry {
	return &Registry{active: initial}
}

// Open returns a registry persisted in a sqlite database at path, restoring
// the previously active binding if one was saved.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening registry database")
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS vaults (
			contract_id TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			created_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "initializing registry schema")
		}
	}

	r := &Registry{db: db}
	var active string
	err = db.QueryRow(`SELECT value FROM settings WHERE key = ?`, activeKey).Scan(&active)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		db.Close()
		return nil, errors.Wrap(err, "loading active vault binding")
	default:
		r.active = active
	}
	return r, nil
}

// Close releases the underlying database, if any.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Active returns the currently bound vault contract ID. The boolean is false
// when no vault has been bound yet.
func (r *Registry) Active() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, r.active != ""
}

// SetActive rebinds the active vault. This is the single writer path: it is
// called on successful creation and by the operator override endpoint.
func (r *Registry) SetActive(contractID string) error {
	if _, err := strkey.Decode(strkey.VersionByteContract, contractID); err != nil {
		return errors.Errorf("%q is not a contract address", contractID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		_, err := r.db.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			activeKey, contractID,
		)
		if err != nil {
			return errors.Wrap(err, "persisting active vault binding")
		}
	}
	r.active = contractID
	return nil
}

// RecordCreated logs a newly created vault and makes it the active binding.
func (r *Registry) RecordCreated(v Vault) error {
	if err := r.SetActive(v.ContractID); err != nil {
		return err
	}
	if r.db == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO vaults (contract_id, name, symbol, created_at) VALUES (?, ?, ?, ?)`,
		v.ContractID, v.Name, v.Symbol, v.CreatedAt.UTC().Format(time.RFC3339),
	)
	return errors.Wrap(err, "recording created vault")
}

// Created lists vaults created through this relay, newest first.
func (r *Registry) Created() ([]Vault, error) {
	if r.db == nil {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows, err := r.db.Query(`SELECT contract_id, name, symbol, created_at FROM vaults ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "listing vaults")
	}
	defer rows.Close()

	var out []Vault
	for rows.Next() {
		var v Vault
		var createdAt string
		if err := rows.Scan(&v.ContractID, &v.Name, &v.Symbol, &createdAt); err != nil {
			return nil, errors.Wrap(err, "scanning vault row")
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			v.CreatedAt = ts
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
