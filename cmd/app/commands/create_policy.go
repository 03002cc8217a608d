package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
)

// RunCreatePolicy creates a new policy container. When an effect is given a
// first version is created alongside it, with an optional condition supplied
// as a JSON document; activating the version is a separate step.
//
// Requirements: Database must be migrated and accessible.
func RunCreatePolicy(
	ctx context.Context,
	policies authzUseCase.PolicyUseCase,
	logger *slog.Logger,
	writer io.Writer,
	key, name, effect, conditionJSON, createdBy, format string,
) error {
	logger.Info("creating policy", slog.String("key", key))

	policy, err := policies.CreatePolicy(ctx, &authzDomain.CreatePolicyInput{
		Key:  key,
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	var version *authzDomain.AbacPolicyVersion
	if effect != "" {
		versionInput := &authzDomain.CreatePolicyVersionInput{
			PolicyKey: key,
			Effect:    authzDomain.Effect(effect),
			CreatedBy: createdBy,
		}

		if conditionJSON != "" {
			var condition authzDomain.Condition
			if err := json.Unmarshal([]byte(conditionJSON), &condition); err != nil {
				return fmt.Errorf("invalid condition JSON: %w", err)
			}
			versionInput.Condition = &condition
		}

		version, err = policies.CreateVersion(ctx, versionInput)
		if err != nil {
			return fmt.Errorf("failed to create policy version: %w", err)
		}
	}

	if format == "json" {
		result := map[string]any{
			"id":   policy.ID.String(),
			"key":  policy.Key,
			"name": policy.Name,
		}
		if version != nil {
			result["version"] = version.Version
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(writer, "Policy created successfully\n")
		_, _ = fmt.Fprintf(writer, "ID:   %s\n", policy.ID)
		_, _ = fmt.Fprintf(writer, "Key:  %s\n", policy.Key)
		_, _ = fmt.Fprintf(writer, "Name: %s\n", policy.Name)
		if version != nil {
			_, _ = fmt.Fprintf(writer, "Version %d created (inactive; activate it to take effect)\n", version.Version)
		}
	}

	logger.Info("policy created successfully",
		slog.String("policy_id", policy.ID.String()),
		slog.String("key", key),
	)

	return nil
}
