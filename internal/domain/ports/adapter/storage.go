package adapter

import (
	"context"
	"io"
)

// ProofStore keeps uploaded payment-proof images and returns a reference that is
// stored on the transaction.
type ProofStore interface {
	Save(ctx context.Context, userID, filename string, r io.Reader) (url string, err error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes a stored proof. Missing proofs are not an error.
	Delete(ctx context.Context, name string) error
}
