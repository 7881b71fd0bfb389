// Package locks serializes work on a key (an email, a user id) so that
// check-then-write sequences in the account engine do not interleave.
package locks

import "context"

// Locker acquires an exclusive lock on key, blocking until it is available
// or ctx is done. The returned function releases the lock and is safe to
// call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
