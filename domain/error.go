package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrStoreUnavailable = errors.New("counter store is not available")
)
