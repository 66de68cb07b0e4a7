package config

import "errors"

// ErrInvalidConfig is returned by Validate for any tunable or role
// config combination that cannot be run.
var ErrInvalidConfig = errors.New("config: invalid configuration")
