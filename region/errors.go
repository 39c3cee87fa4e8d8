package region

import "errors"

// Error kinds returned across the SharedRegion boundary. Init/attach
// failures surface these directly; per-frame failures (ErrInvalidTree,
// ErrViewportOutOfRange) are handled non-fatally by the caller, which
// skips the offending subtree and paints a diagnostic cell instead of
// propagating further.
var (
	ErrBufferTooSmall     = errors.New("region: buffer too small for requested capacity")
	ErrVersionMismatch    = errors.New("region: header version does not match compiled contract")
	ErrTableFull          = errors.New("region: node table has no free slot")
	ErrTextPoolExhausted  = errors.New("region: text pool exhausted after compaction")
	ErrInvalidTree        = errors.New("region: cycle or out-of-range index in node tree")
	ErrViewportOutOfRange = errors.New("region: terminal size exceeds reserved framebuffer area")
)
