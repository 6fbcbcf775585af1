package adapter

import "context"

// AdminNotifier delivers operational messages to gym staff (new payment proofs,
// expiring members).
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}

// MemberLocker serializes mutations of a single member. Unlock must be called
// once the mutation is persisted.
type MemberLocker interface {
	Lock(ctx context.Context, memberID string) (unlock func(), err error)
}
