package promotion

import (
	"context"

	"github.com/go-faster/errors"
)

// Validator resolves a promotion code to an applicable rule.
type Validator interface {
	Validate(ctx context.Context, code string) (*Promotion, error)
}

// RepoValidator implements Validator by looking up rules from a Repository.
type RepoValidator struct {
	repo Repository
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// Validate looks up the promotion for the given code. It returns
// ErrInvalidPromotion when the code is unknown or the rule is inactive.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Promotion, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidPromotion) {
			return nil, ErrInvalidPromotion
		}
		return nil, errors.Wrap(err, "lookup promotion")
	}
	if !rule.Active {
		return nil, ErrInvalidPromotion
	}
	return rule, nil
}
