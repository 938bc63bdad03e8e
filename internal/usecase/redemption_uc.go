// File: internal/usecase/redemption_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"study-access-redemption/internal/domain"
	"study-access-redemption/internal/domain/model"
	"study-access-redemption/internal/domain/ports/repository"
	"study-access-redemption/internal/infra/logging"
	"study-access-redemption/internal/infra/metrics"
)

// RedemptionResult is the success payload of a redemption.
type RedemptionResult struct {
	DurationDays int
}

// RedemptionUseCase implements the code-for-days exchange.
//
// The store has no cross-document transactions, so the sequence is built
// from single conditional document writes:
//
//  1. Claim the code (is_used false -> true, attributed). Exactly one
//     concurrent caller wins; losers see the business "already used" outcome.
//  2. Extend or create the subscription under optimistic concurrency,
//     retrying from the read on version conflict.
//  3. Mark the code applied. Until this lands, a retry by the claiming user
//     resumes at step 2 instead of failing as "already used", and a retry
//     after it landed is a no-op success. Duration is never granted twice.
type RedemptionUseCase struct {
	codes  repository.AccessCodeRepository
	subs   repository.SubscriptionRepository
	locker repository.Locker // optional; nil skips leasing
	clock  Clock

	leaseTTL       time.Duration
	updateAttempts int

	log *zerolog.Logger
}

const (
	defaultLeaseTTL       = 10 * time.Second
	defaultUpdateAttempts = 3
)

// SetLeaseTTL overrides the default lease duration. Non-positive values are
// ignored.
func (uc *RedemptionUseCase) SetLeaseTTL(d time.Duration) {
	if d > 0 {
		uc.leaseTTL = d
	}
}

// NewRedemptionUseCase constructs the usecase. locker may be nil.
func NewRedemptionUseCase(
	codes repository.AccessCodeRepository,
	subs repository.SubscriptionRepository,
	locker repository.Locker,
	clock Clock,
	logger *zerolog.Logger,
) *RedemptionUseCase {
	if clock == nil {
		clock = SystemClock()
	}
	ucLog := logger.With().Str("component", "RedemptionUseCase").Logger()
	return &RedemptionUseCase{
		codes:          codes,
		subs:           subs,
		locker:         locker,
		clock:          clock,
		leaseTTL:       defaultLeaseTTL,
		updateAttempts: defaultUpdateAttempts,
		log:            &ucLog,
	}
}

// Redeem validates, claims, and applies a code for userID.
//
// Failure taxonomy (matched with errors.Is by callers):
//   - domain.ErrInvalidArgument: missing input, detected before any I/O.
//   - domain.ErrCodeNotFound: no unused code matches, or another user holds
//     the claim. A deterministic business outcome, not a fault.
//   - anything else: store failure; the caller may retry and the claim
//     design makes the retry safe.
func (uc *RedemptionUseCase) Redeem(ctx context.Context, rawCode, userID string) (*RedemptionResult, error) {
	code := model.NormalizeCode(rawCode)
	userID = strings.TrimSpace(userID)
	if code == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Codes are bearer credentials; logs carry a preview only.
	log := uc.log.With().Str("code", logging.Redact(code, false)).Str("user_id", userID).Logger()

	if uc.locker != nil {
		for _, key := range []string{"redeem:code:" + code, "redeem:user:" + userID} {
			token, err := uc.locker.TryLock(ctx, key, uc.leaseTTL)
			if err != nil {
				// The conditional claim stays authoritative; contention on
				// the lease only widens the race window.
				log.Warn().Err(err).Str("key", logging.Redact(key, false)).Msg("lease not acquired")
				continue
			}
			defer uc.locker.Unlock(ctx, key, token)
		}
	}

	ac, err := uc.codes.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncRedemption(metrics.OutcomeRejected)
		log.Info().Msg("code not found")
		return nil, domain.ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find code: %w", err)
	}

	if ac.IsUsed {
		if !ac.UsedBy(userID) {
			metrics.IncRedemption(metrics.OutcomeRejected)
			log.Info().Msg("code already claimed by another user")
			return nil, domain.ErrCodeNotFound
		}
		if ac.Applied {
			// Repeated submission after a completed redemption.
			log.Info().Msg("redemption already applied; no-op")
			return &RedemptionResult{DurationDays: ac.GrantDays()}, nil
		}
		log.Info().Msg("resuming half-done redemption")
		return uc.applyGrant(ctx, ac, userID, &log)
	}

	claimed, err := uc.codes.Claim(ctx, ac.ID, userID, uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("claim code: %w", err)
	}
	if !claimed {
		// Lost the claim race to a concurrent redemption.
		metrics.IncClaimLost()
		metrics.IncRedemption(metrics.OutcomeRejected)
		log.Info().Msg("claim lost to concurrent redemption")
		return nil, domain.ErrCodeNotFound
	}

	return uc.applyGrant(ctx, ac, userID, &log)
}

// applyGrant lands the claimed code's days on the user's subscription and
// marks the code applied. Called only after this user holds the claim.
func (uc *RedemptionUseCase) applyGrant(ctx context.Context, ac *model.AccessCode, userID string, log *zerolog.Logger) (*RedemptionResult, error) {
	days := ac.GrantDays()

	var lastErr error
	for attempt := 0; attempt < uc.updateAttempts; attempt++ {
		now := uc.clock.Now()

		sub, err := uc.subs.FindByUserID(ctx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fresh, err := model.NewSubscription(uuid.NewString(), userID, ac.ID, now, days)
			if err != nil {
				return nil, err
			}
			if err := uc.subs.Create(ctx, fresh); err != nil {
				if errors.Is(err, domain.ErrAlreadyExists) {
					// Concurrent first-time create; re-read and extend.
					metrics.IncSubscriptionConflict()
					lastErr = domain.ErrVersionConflict
					continue
				}
				return nil, fmt.Errorf("create subscription: %w", err)
			}
			log.Info().Time("end_date", fresh.EndDate).Int("days", days).Msg("subscription created")

		case err != nil:
			return nil, fmt.Errorf("find subscription: %w", err)

		default:
			if sub.GrantedBy(ac.ID) {
				// The extension landed but marking the code applied did
				// not; finish that half without granting again.
				log.Info().Msg("grant already landed; completing code update")
				break
			}
			sub.Extend(now, days, ac.ID)
			if err := uc.subs.UpdateVersioned(ctx, sub); err != nil {
				if errors.Is(err, domain.ErrVersionConflict) {
					metrics.IncSubscriptionConflict()
					lastErr = err
					continue
				}
				return nil, fmt.Errorf("update subscription: %w", err)
			}
			log.Info().Time("end_date", sub.EndDate).Int("days", days).Msg("subscription extended")
		}

		if err := uc.codes.MarkApplied(ctx, ac.ID); err != nil {
			// The claim stands; a retry by this user resumes here.
			return nil, fmt.Errorf("mark code applied: %w", err)
		}
		metrics.IncRedemption(metrics.OutcomeGranted)
		return &RedemptionResult{DurationDays: days}, nil
	}

	return nil, fmt.Errorf("subscription update exhausted %d attempts: %w", uc.updateAttempts, lastErr)
}
