package usecase

import (
	"context"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	apperrors "github.com/wardenauth/warden/internal/errors"
)

const (
	defaultDecisionLogLimit = 50
	maxDecisionLogLimit     = 1000

	// verifyPageSize bounds memory during a full-trail signature sweep.
	verifyPageSize = 500
)

// decisionLogUseCase implements DecisionLogUseCase for reading and
// verifying the decision log.
type decisionLogUseCase struct {
	decisionLogRepo DecisionLogRepository
	auditSigner     authzService.AuditSigner
}

// List retrieves decision log entries ordered newest first. A zero limit
// falls back to the default page size; limits above the maximum are capped.
func (d *decisionLogUseCase) List(
	ctx context.Context,
	input *authzDomain.ListDecisionLogsInput,
) ([]*authzDomain.DecisionLog, error) {
	normalized := *input
	if normalized.Limit <= 0 {
		normalized.Limit = defaultDecisionLogLimit
	}
	if normalized.Limit > maxDecisionLogLimit {
		normalized.Limit = maxDecisionLogLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}

	entries, err := d.decisionLogRepo.List(ctx, &normalized)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list decision logs")
	}

	return entries, nil
}

// Verify sweeps decision log entries matching the filter and re-checks each
// entry's HMAC signature, paging through the trail to bound memory. Entries
// whose signatures fail are reported by ID; a tampered entry is a finding,
// not an error.
func (d *decisionLogUseCase) Verify(
	ctx context.Context,
	input *authzDomain.ListDecisionLogsInput,
) (*authzDomain.VerifyDecisionLogsOutput, error) {
	output := &authzDomain.VerifyDecisionLogsOutput{}

	page := *input
	page.Limit = verifyPageSize
	page.Offset = 0

	for {
		entries, err := d.decisionLogRepo.List(ctx, &page)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list decision logs")
		}
		if len(entries) == 0 {
			return output, nil
		}

		for _, entry := range entries {
			output.Checked++
			if err := d.auditSigner.Verify(entry); err != nil {
				if apperrors.Is(err, authzDomain.ErrDecisionLogSignatureInvalid) {
					output.Invalid = append(output.Invalid, entry.ID)
					continue
				}
				return nil, err
			}
		}

		if len(entries) < verifyPageSize {
			return output, nil
		}
		page.Offset += verifyPageSize
	}
}

// NewDecisionLogUseCase creates a new DecisionLogUseCase with the provided dependencies.
func NewDecisionLogUseCase(
	decisionLogRepo DecisionLogRepository,
	auditSigner authzService.AuditSigner,
) DecisionLogUseCase {
	return &decisionLogUseCase{
		decisionLogRepo: decisionLogRepo,
		auditSigner:     auditSigner,
	}
}
