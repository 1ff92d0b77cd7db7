package allocation

import "errors"

// ErrUnknownBedType is returned when the requested category is not in
// the enumerated set.  Handlers translate it into an HTTP 400.
var ErrUnknownBedType = errors.New("unknown bed type")

// ErrNoBedAvailable is returned when no hospital in any search pass
// holds a committable bed of the requested type.  Handlers translate
// it into an HTTP 404.
var ErrNoBedAvailable = errors.New("no hospital with available beds found within global search")
