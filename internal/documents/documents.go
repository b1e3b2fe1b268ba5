package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InvoiceArchiver produces an opaque reference to the invoice document for a
// freshly numbered invoice. Document generation itself happens elsewhere;
// the lifecycle only stores the returned pointer.
type InvoiceArchiver interface {
	ArchiveInvoice(ctx context.Context, requestID uuid.UUID, invoiceNumber string) (string, error)
}

// PaymentProofStore normalizes a client-supplied payment evidence reference.
// Content is never validated here.
type PaymentProofStore interface {
	StoreProof(ctx context.Context, requestID uuid.UUID, ref string) (string, error)
}

// LocalStore is the in-process implementation used until an external
// document service is wired in. References are deterministic pointers into
// the configured archive root.
type LocalStore struct {
	ArchiveRoot string
}

// NewLocalStore builds a LocalStore with a sensible default root.
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "doc://adfactura"
	}
	return &LocalStore{ArchiveRoot: root}
}

func (s *LocalStore) ArchiveInvoice(_ context.Context, requestID uuid.UUID, invoiceNumber string) (string, error) {
	if invoiceNumber == "" {
		return "", fmt.Errorf("invoice number required")
	}
	return fmt.Sprintf("%s/invoices/%s/%s.pdf", s.ArchiveRoot, requestID, invoiceNumber), nil
}

func (s *LocalStore) StoreProof(_ context.Context, requestID uuid.UUID, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/proofs/%s/%s", s.ArchiveRoot, requestID, ref), nil
}
