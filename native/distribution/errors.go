package distribution

import "errors"

var (
	// ErrInvalidPlatformFee flags a platform fee over the 10% cap.
	ErrInvalidPlatformFee = errors.New("distribution: platform fee exceeds cap")
	// ErrInvalidShareDistribution flags fee plus shares exceeding 100%.
	ErrInvalidShareDistribution = errors.New("distribution: fee and shares exceed 100%")
	// ErrTooManyCollaborators flags a collaborator list over the bound.
	ErrTooManyCollaborators = errors.New("distribution: too many collaborators")
	// ErrDuplicateSplit flags an initialize against an address that
	// already holds a configuration.
	ErrDuplicateSplit = errors.New("distribution: split config already exists")
	// ErrSplitNotFound flags a distribute against a missing config.
	ErrSplitNotFound = errors.New("distribution: split config not found")
	// ErrSplitMismatch flags a funding source whose derivation does not
	// tie back to this config's creator and content.
	ErrSplitMismatch = errors.New("distribution: funding source does not match split config")
	// ErrZeroAmount flags a distribute of nothing.
	ErrZeroAmount = errors.New("distribution: zero distribution amount")
	// ErrNumericalOverflow flags arithmetic outside uint64 range.
	ErrNumericalOverflow = errors.New("distribution: numerical overflow")
	// ErrUnauthorized flags a caller that is not the config's creator.
	ErrUnauthorized = errors.New("distribution: unauthorized caller")
)
