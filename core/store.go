package core

import "context"

// RecordKind tagged discriminant of a stored record, validated once at
// load time instead of flag bits read out of raw bytes.
type RecordKind uint8

const (
	// RecordKindGroup asset group record
	RecordKindGroup RecordKind = iota + 1
	// RecordKindAccount margin account record
	RecordKindAccount
)

// IGroupStore checkout/commit of group records. Find returns a deep
// copy; mutations become visible only through Save, which is how the
// host's commit-on-success contract is modelled.
type IGroupStore interface {
	Find(ctx context.Context, id string) (*AssetGroup, error)
	Save(ctx context.Context, group *AssetGroup) error
}

// IAccountStore checkout/commit of margin account records.
type IAccountStore interface {
	Find(ctx context.Context, id string) (*MarginAccount, error)
	FindByOwner(ctx context.Context, owner string) ([]*MarginAccount, error)
	Save(ctx context.Context, account *MarginAccount) error
	All(ctx context.Context) ([]*MarginAccount, error)
}
