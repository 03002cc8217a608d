package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	tokenUseCase "github.com/wardenauth/warden/internal/token/usecase"
)

// RunCleanExpiredTokens deletes refresh tokens whose expiry has passed.
// Revoked-but-unexpired tokens are kept: revocation is part of the token's
// history until it ages out naturally.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredTokens(
	ctx context.Context,
	tokens tokenUseCase.TokenUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("cleaning expired refresh tokens")

	count, err := tokens.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	if format == "json" {
		if err := outputCleanExpiredJSON(writer, count); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputCleanExpiredText(writer, count)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))

	return nil
}

// outputCleanExpiredText outputs the result in human-readable text format.
func outputCleanExpiredText(writer io.Writer, count int64) {
	_, _ = fmt.Fprintf(writer, "Successfully deleted %d expired refresh token(s)\n", count)
}

// outputCleanExpiredJSON outputs the result in JSON format for machine consumption.
func outputCleanExpiredJSON(writer io.Writer, count int64) error {
	result := map[string]any{
		"count": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
