package services

import "github.com/ethereum/go-ethereum/common"

// AccessControl holds the two privileged identities of the ledger: the
// owner, who controls configuration and withdrawals, and the croupie,
// whose signature over a seed is the only accepted randomness source.
// Both are fixed at construction.
type AccessControl struct {
	owner   common.Address
	croupie common.Address
}

func NewAccessControl(owner, croupie common.Address) *AccessControl {
	return &AccessControl{
		owner:   owner,
		croupie: croupie,
	}
}

func (a *AccessControl) Owner() common.Address {
	return a.owner
}

func (a *AccessControl) Croupie() common.Address {
	return a.croupie
}

func (a *AccessControl) RequireOwner(caller common.Address) error {
	if caller != a.owner {
		return ErrUnauthorized
	}
	return nil
}

func (a *AccessControl) RequireCroupie(identity common.Address) error {
	if identity != a.croupie {
		return ErrUnauthorized
	}
	return nil
}
