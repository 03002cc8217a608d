package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authzDomain "github.com/wardenauth/warden/internal/authz/domain"
	authzUseCase "github.com/wardenauth/warden/internal/authz/usecase"
)

// RunVerifyDecisionLogs verifies the HMAC signatures of decision log entries
// within a time range, optionally restricted to one principal. An entry whose
// stored signature does not match its recomputed one has been tampered with.
//
// Requirements: Database must be migrated and the audit signing secret configured.
func RunVerifyDecisionLogs(
	ctx context.Context,
	decisionLogs authzUseCase.DecisionLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	principalID, startDate, endDate string,
	format string,
) error {
	input := &authzDomain.ListDecisionLogsInput{}

	if principalID != "" {
		id, err := uuid.Parse(principalID)
		if err != nil {
			return fmt.Errorf("invalid principal ID: %w", err)
		}
		input.PrincipalID = &id
	}

	if startDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		input.Since = &start
	}

	if endDate != "" {
		end, err := parseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		input.Until = &end
	}

	if input.Since != nil && input.Until != nil && !input.Until.After(*input.Since) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying decision logs",
		slog.String("principal_id", principalID),
		slog.String("start_date", startDate),
		slog.String("end_date", endDate),
	)

	report, err := decisionLogs.Verify(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to verify decision logs: %w", err)
	}

	if format == "json" {
		if err := outputVerifyJSON(writer, report); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyText(writer, report)
	}

	logger.Info("verification completed",
		slog.Int("checked", report.Checked),
		slog.Int("invalid", len(report.Invalid)),
	)

	// Exit with error code if integrity check failed
	if len(report.Invalid) > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", len(report.Invalid))
	}

	return nil
}

// parseDate parses a date string in format "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" to time.Time.
func parseDate(dateStr string) (time.Time, error) {
	// Try full datetime format first
	t, err := time.Parse("2006-01-02 15:04:05", dateStr)
	if err == nil {
		return t, nil
	}

	// Try date-only format (defaults to start of day)
	t, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(writer io.Writer, report *authzDomain.VerifyDecisionLogsOutput) {
	_, _ = fmt.Fprintf(writer, "Decision Log Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "====================================\n\n")
	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.Checked)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", len(report.Invalid))

	if len(report.Invalid) > 0 {
		_, _ = fmt.Fprintf(writer, "WARNING: %d entr(ies) failed integrity check!\n\n", len(report.Invalid))
		_, _ = fmt.Fprintf(writer, "Invalid Entry IDs:\n")
		for _, id := range report.Invalid {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		return
	}

	_, _ = fmt.Fprintf(writer, "All decision log signatures are valid.\n")
}

// outputVerifyJSON outputs the verification result in JSON format.
func outputVerifyJSON(writer io.Writer, report *authzDomain.VerifyDecisionLogsOutput) error {
	invalid := make([]string, 0, len(report.Invalid))
	for _, id := range report.Invalid {
		invalid = append(invalid, id.String())
	}

	result := map[string]any{
		"checked": report.Checked,
		"invalid": invalid,
		"valid":   len(report.Invalid) == 0,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
	return nil
}
