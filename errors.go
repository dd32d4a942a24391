// Error kinds, the *Error type, and its constructors live in
// internal/ferrors: internal/actions constructs and inspects these errors
// directly, and putting the canonical definition in the root package would
// make internal/actions import its own importer. The public names below
// are the same types and functions, just re-exported at the root so
// callers of this package never need to know internal/ferrors exists.
package fwact

import "github.com/lkc-technologies/fwact/internal/ferrors"

type (
	Kind             = ferrors.Kind
	IntegritySymptom = ferrors.IntegritySymptom
	Error            = ferrors.Error
)

const (
	KindArity           = ferrors.KindArity
	KindDomain          = ferrors.KindDomain
	KindContextMismatch = ferrors.KindContextMismatch
	KindReference       = ferrors.KindReference
	KindIntegrity       = ferrors.KindIntegrity
	KindIO              = ferrors.KindIO
	KindPolicy          = ferrors.KindPolicy
	KindCorruptState    = ferrors.KindCorruptState

	SymptomLength = ferrors.SymptomLength
	SymptomDigest = ferrors.SymptomDigest
)

var (
	NewError          = ferrors.New
	NewActionError    = ferrors.NewAction
	NewIntegrityError = ferrors.NewIntegrity
	WrapIOError       = ferrors.WrapIO
	IsKind            = ferrors.IsKind
)
