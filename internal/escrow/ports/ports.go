// Package ports declares the capabilities goal escrow consumes from other
// components.
package ports

import (
	"context"

	"syncvault/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=../mocks/ports-mocks.go -package=mocks Minter

// Minter credits newly issued tokens. Escrow calls it inside its own storage
// unit, authenticated as the escrow identity; an error aborts the unit.
// *ledger.Service satisfies it.
type Minter interface {
	Mint(ctx context.Context, to domain.Identity, amount domain.Amount) error
}
