package model

import "errors"

var (
	// ErrNonFiniteWeight indicates a NaN or infinite weight.
	ErrNonFiniteWeight = errors.New("non-finite weight")
	// ErrUnknownAssetKind indicates an asset kind outside PLAYER/PICK.
	ErrUnknownAssetKind = errors.New("unknown asset kind")
	// ErrInvalidAsset indicates an asset missing its identifier.
	ErrInvalidAsset = errors.New("invalid asset")
)
