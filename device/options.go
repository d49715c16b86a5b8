package device

// SignatureRewriter lets a caller-supplied quirks layer correct a device's
// reported signature (its endpoint/cluster set) before the endpoint table is built from it — a manufacturer misreporting
// its own simple descriptors is corrected here rather than by the core
// knowing about the manufacturer. Returning a nil Signature with a nil
// error leaves the reported signature untouched; returning an error only
// logs a warning and falls back to the untouched signature, since a
// broken quirks hook should never block initialization.
type SignatureRewriter func(*Signature) (*Signature, error)

type options struct {
	rewriter SignatureRewriter
}

func defaultOptions() *options {
	return &options{}
}

// Option configures a Device at construction time.
type Option func(*options)

// WithSignatureRewriter installs a quirks hook run once per initialization,
// after every endpoint's simple descriptor has been fetched and before any
// endpoint object is built from them.
func WithSignatureRewriter(r SignatureRewriter) Option {
	return func(o *options) { o.rewriter = r }
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(o)
	}
	return o
}
