// Package acl guards the administrative functions of the vault.
package acl

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrUnauthorized = errors.New("unauthorized")

// Gate admits a single admin address.
type Gate struct {
	admin common.Address
}

// NewGate returns a gate for admin.
func NewGate(admin common.Address) *Gate {
	return &Gate{admin: admin}
}

// CheckAdmin fails with ErrUnauthorized unless caller is the admin.
func (g *Gate) CheckAdmin(caller common.Address) error {
	if caller != g.admin || caller == (common.Address{}) {
		return fmt.Errorf("%w: %s is not the admin", ErrUnauthorized, caller.Hex())
	}
	return nil
}
