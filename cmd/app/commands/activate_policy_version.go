package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
)

// RunActivatePolicyVersion makes the given version the single active one for
// its policy. The change takes effect immediately for new authorization
// checks.
//
// Requirements: Database must be migrated and accessible.
func RunActivatePolicyVersion(
	ctx context.Context,
	policies authzUseCase.PolicyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	key string,
	version int,
	format string,
) error {
	logger.Info("activating policy version",
		slog.String("key", key),
		slog.Int("version", version),
	)

	if err := policies.ActivateVersion(ctx, key, version); err != nil {
		return fmt.Errorf("failed to activate policy version: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"key":     key,
			"version": version,
			"active":  true,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Policy %s version %d is now active\n", key, version)
	}

	logger.Info("policy version activated",
		slog.String("key", key),
		slog.Int("version", version),
	)

	return nil
}
