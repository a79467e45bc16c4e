package reconcile

import "github.com/rotisserie/eris"

// ErrPriceUnparseable reports a circular whose extracted raw price could not
// be normalized to a numeric value.
var ErrPriceUnparseable = eris.New("reconcile: price unparseable")

// ErrDateUnresolved reports a circular whose effective date could not be
// determined from its filename or URL.
var ErrDateUnresolved = eris.New("reconcile: effective date unresolved")
