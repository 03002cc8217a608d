package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	principalDomain "github.com/wardenauth/warden/internal/principal/domain"
	principalUseCase "github.com/wardenauth/warden/internal/principal/usecase"
)

// RunCreatePrincipal provisions a new principal. User principals require an
// email and a password; when no password flag is given it is read
// interactively. Service principals carry an optional external reference
// instead of credentials.
//
// Requirements: Database must be migrated and accessible.
func RunCreatePrincipal(
	ctx context.Context,
	principals principalUseCase.UseCase,
	logger *slog.Logger,
	ioT IOTuple,
	principalType, name, email, password, externalRef, format string,
) error {
	input := principalDomain.ProvisionPrincipalInput{
		Name:  name,
		Email: email,
	}

	switch principalType {
	case "user":
		input.Type = principalDomain.TypeUser
	case "service":
		input.Type = principalDomain.TypeService
	default:
		return fmt.Errorf("invalid principal type: %s (valid options: user, service)", principalType)
	}

	if externalRef != "" {
		input.ExternalRef = &externalRef
	}

	if input.Type == principalDomain.TypeUser {
		if password == "" {
			prompted, err := promptForPassword(ioT)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = prompted
		}
		input.Password = password
	}

	logger.Info("creating principal",
		slog.String("type", principalType),
		slog.String("name", name),
	)

	principal, err := principals.Provision(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	if format == "json" {
		result := map[string]any{
			"id":    principal.ID.String(),
			"type":  string(principal.Type),
			"name":  principal.Name,
			"email": principal.Email,
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, _ = fmt.Fprintln(ioT.Writer, string(jsonBytes))
	} else {
		_, _ = fmt.Fprintf(ioT.Writer, "Principal created successfully\n")
		_, _ = fmt.Fprintf(ioT.Writer, "ID:    %s\n", principal.ID)
		_, _ = fmt.Fprintf(ioT.Writer, "Type:  %s\n", principal.Type)
		_, _ = fmt.Fprintf(ioT.Writer, "Name:  %s\n", principal.Name)
		if principal.Email != "" {
			_, _ = fmt.Fprintf(ioT.Writer, "Email: %s\n", principal.Email)
		}
	}

	logger.Info("principal created successfully",
		slog.String("principal_id", principal.ID.String()),
		slog.String("type", principalType),
	)

	return nil
}

// promptForPassword reads a password from the interactive reader.
func promptForPassword(ioT IOTuple) (string, error) {
	reader := bufio.NewReader(ioT.Reader)

	_, _ = fmt.Fprint(ioT.Writer, "Enter password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	return password, nil
}
