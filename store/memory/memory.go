package memory

import (
	"context"
	"sort"
	"sync"

	"margin/core"
)

// record one stored entry. The kind tag is validated on every load so a
// group id handed to the account store fails loudly instead of
// decoding garbage.
type record struct {
	kind    core.RecordKind
	group   *core.AssetGroup
	account *core.MarginAccount
}

// Store in-memory record store. Records check out as deep copies and
// only a Save makes mutations visible, which gives every operation
// all-or-nothing semantics without a transaction log.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
}

// New new empty store
func New() *Store {
	return &Store{
		records: make(map[string]*record),
	}
}

type groupStore struct {
	*Store
}

// Groups the store's group view
func (s *Store) Groups() core.IGroupStore {
	return &groupStore{s}
}

func (s *groupStore) Find(ctx context.Context, id string) (*core.AssetGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.kind != core.RecordKindGroup {
		return nil, core.ErrRecordMismatch
	}

	return r.group.Clone(), nil
}

func (s *groupStore) Save(ctx context.Context, group *core.AssetGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[group.ID]; ok && r.kind != core.RecordKindGroup {
		return core.ErrRecordMismatch
	}

	s.records[group.ID] = &record{kind: core.RecordKindGroup, group: group.Clone()}
	return nil
}

type accountStore struct {
	*Store
}

// Accounts the store's account view
func (s *Store) Accounts() core.IAccountStore {
	return &accountStore{s}
}

func (s *accountStore) Find(ctx context.Context, id string) (*core.MarginAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || r.kind != core.RecordKindAccount {
		return nil, core.ErrRecordMismatch
	}

	return r.account.Clone(), nil
}

func (s *accountStore) FindByOwner(ctx context.Context, owner string) ([]*core.MarginAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*core.MarginAccount
	for _, r := range s.records {
		if r.kind == core.RecordKindAccount && r.account.Owner == owner {
			accounts = append(accounts, r.account.Clone())
		}
	}

	sortAccounts(accounts)
	return accounts, nil
}

func (s *accountStore) Save(ctx context.Context, account *core.MarginAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[account.ID]; ok && r.kind != core.RecordKindAccount {
		return core.ErrRecordMismatch
	}

	s.records[account.ID] = &record{kind: core.RecordKindAccount, account: account.Clone()}
	return nil
}

func (s *accountStore) All(ctx context.Context) ([]*core.MarginAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []*core.MarginAccount
	for _, r := range s.records {
		if r.kind == core.RecordKindAccount {
			accounts = append(accounts, r.account.Clone())
		}
	}

	sortAccounts(accounts)
	return accounts, nil
}

// map iteration order is random; callers expect stable listings
func sortAccounts(accounts []*core.MarginAccount) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
}
