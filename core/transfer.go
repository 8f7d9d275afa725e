package core

import "context"

// ITransferService moves native units of an asset between a vault and a
// wallet. Success is binary, there are no partial transfers. The core
// decides how much to move, never how.
type ITransferService interface {
	Transfer(ctx context.Context, asset, source, destination, signer string, amount uint64) error
}
