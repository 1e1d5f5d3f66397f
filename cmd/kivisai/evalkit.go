package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kivisai/site/internal/config"
	"github.com/kivisai/site/internal/quiz"
	"github.com/kivisai/site/pkg/brevo"
	"github.com/kivisai/site/pkg/evalkit"
)

func newEvalkitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evalkit",
		Short: "Take the EVALKIT AI readiness self-assessment",
		Long: `Runs the EVALKIT questionnaire in the terminal and prints the
scored result. When KIVISAI_BREVO_API_KEY is set, an address entered at the
end is subscribed to the newsletter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kit, err := evalkit.Default()
			if err != nil {
				return err
			}
			q, err := quiz.New(kit, quiz.NewSurveyDriver(cmd.OutOrStdout()))
			if err != nil {
				return err
			}

			outcome, err := q.Run(cmd.Context())
			if errors.Is(err, quiz.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
				return nil
			}
			if err != nil {
				return err
			}
			if outcome.Email == "" {
				return nil
			}
			return subscribeOutcome(cmd, outcome)
		},
	}
}

func subscribeOutcome(cmd *cobra.Command, outcome quiz.Outcome) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Brevo.Enabled() {
		fmt.Fprintln(cmd.OutOrStdout(), "Newsletter delivery is not configured; your address was not stored.")
		return nil
	}
	client, err := brevo.New(cfg.Brevo.APIKey, brevo.WithBaseURL(cfg.Brevo.BaseURL))
	if err != nil {
		return err
	}
	mailer := brevo.NewMailer(client,
		brevo.Address{Name: cfg.Brevo.SenderName, Email: cfg.Brevo.SenderEmail},
		brevo.Address{Email: cfg.Brevo.ContactRecipient},
	)
	_, err = mailer.Subscribe(cmd.Context(), outcome.Email, cfg.Brevo.ListIDs, map[string]any{
		"SOURCE":        "evalkit-cli",
		"EVALKIT_LEVEL": string(outcome.Result.Level),
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Thanks! We sent the guide to %s.\n", outcome.Email)
	return nil
}
