package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"study-access-redemption/internal/domain"
	"study-access-redemption/internal/domain/model"
	"study-access-redemption/internal/domain/ports/repository"
)

// CodeUseCase issues and lists access codes (admin tooling side).
type CodeUseCase struct {
	codes repository.AccessCodeRepository
	log   *zerolog.Logger
}

func NewCodeUseCase(codes repository.AccessCodeRepository, logger *zerolog.Logger) *CodeUseCase {
	ucLog := logger.With().Str("component", "CodeUseCase").Logger()
	return &CodeUseCase{codes: codes, log: &ucLog}
}

// Issue creates one code granting durationDays.
func (uc *CodeUseCase) Issue(ctx context.Context, durationDays int) (*model.AccessCode, error) {
	raw, err := generateAccessCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	code, err := model.NewAccessCode(ulid.Make().String(), raw, durationDays)
	if err != nil {
		return nil, err
	}
	if err := uc.codes.Save(ctx, code); err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}
	uc.log.Info().Str("code", code.Code).Int("days", code.DurationDays).Msg("code issued")
	return code, nil
}

// IssueBatch creates n codes with the same duration.
func (uc *CodeUseCase) IssueBatch(ctx context.Context, n, durationDays int) ([]*model.AccessCode, error) {
	if n <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	out := make([]*model.AccessCode, 0, n)
	for i := 0; i < n; i++ {
		code, err := uc.Issue(ctx, durationDays)
		if err != nil {
			return out, err
		}
		out = append(out, code)
	}
	return out, nil
}

// List returns the most recently issued codes.
func (uc *CodeUseCase) List(ctx context.Context, limit int) ([]*model.AccessCode, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.codes.List(ctx, limit)
}

// generateAccessCode creates a secure, random, and human-readable code.
// Format: XXXX-XXXX-XXXX
func generateAccessCode() (string, error) {
	// A character set that avoids ambiguous characters like O/0, I/1, l.
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLength = 12

	buffer := make([]byte, codeLength)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}

	for i := 0; i < codeLength; i++ {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}

	return string(buffer[0:4]) + "-" + string(buffer[4:8]) + "-" + string(buffer[8:12]), nil
}
