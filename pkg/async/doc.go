// Package async provides a small future primitive for running a fallible
// function in the background and waiting for it with an optional deadline.
//
//	fut := async.Exec(ctx, func(ctx context.Context) error {
//		return provider.SignOut(ctx)
//	})
//
//	if err := fut.AwaitWithTimeout(5 * time.Second); err != nil {
//		// timed out or failed; the caller decides whether that matters
//	}
//
// The lifecycle controller uses it to bound the identity-provider sign-out
// during cleanup so a hung provider cannot block the remaining steps.
package async
