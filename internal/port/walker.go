package port

import "hrassist/internal/domain"

// DocumentSource loads the policy documents the index is built from.
type DocumentSource interface {
	Load() ([]domain.Document, error)
}
