package entitlement

import "errors"

var ErrMissingUserID = errors.New("entitlement: user id is required")
