package helper

// IgnoreError calls fn and discards the returned error. It is intended for
// deferred Close calls where the error cannot be acted on.
func IgnoreError(fn func() error) { _ = fn() }
