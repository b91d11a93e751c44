package flows

import (
	"context"
	"errors"
)

// SignOutDeps captures forced sign-out dependencies.
type SignOutDeps struct {
	SignOut   func(ctx context.Context) error
	ClearFlag func(ctx context.Context) error
	Navigate  func(reason string)
}

// RunSignOut ends the session at the identity boundary, clears the durable
// admin flag and hands control to the navigator. Every step runs even when
// an earlier one fails; the returned error joins all failures.
func RunSignOut(ctx context.Context, reason string, deps SignOutDeps) error {
	var errs []error
	if deps.SignOut != nil {
		if err := deps.SignOut(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if deps.ClearFlag != nil {
		if err := deps.ClearFlag(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if deps.Navigate != nil {
		deps.Navigate(reason)
	}
	return errors.Join(errs...)
}
