// Package quiz runs the EVALKIT self-assessment interactively in a terminal.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/kivisai/site/pkg/evalkit"
)

var scaleOptions = []string{
	"1 - not at all",
	"2 - barely",
	"3 - partly",
	"4 - largely",
	"5 - fully",
}

// Outcome is what a completed quiz run produced.
type Outcome struct {
	Answers map[string]int
	Result  evalkit.Result
	// Email is set when the participant asked for the follow-up guide.
	Email string
}

// Quiz walks a participant through every question of a kit.
type Quiz struct {
	kit    *evalkit.Kit
	driver PromptDriver
}

// New binds a kit to a prompt driver.
func New(kit *evalkit.Kit, driver PromptDriver) (*Quiz, error) {
	if kit == nil {
		return nil, errors.New("quiz: kit is required")
	}
	if driver == nil {
		return nil, errors.New("quiz: prompt driver is required")
	}
	return &Quiz{kit: kit, driver: driver}, nil
}

// Run asks every question, prints the scored result and offers the follow-up
// guide by email.
func (q *Quiz) Run(ctx context.Context) (Outcome, error) {
	if err := q.driver.Info(ctx, "EVALKIT: rate each statement from 1 (not at all) to 5 (fully)."); err != nil {
		return Outcome{}, err
	}

	answers := make(map[string]int)
	var category evalkit.Category
	for _, question := range q.kit.Questions() {
		if question.Category != category {
			category = question.Category
			if err := q.driver.Info(ctx, "\n## "+strings.ToUpper(string(category))); err != nil {
				return Outcome{}, err
			}
		}
		idx, err := q.driver.Select(ctx, SelectConfig{
			Message:      question.Text,
			Options:      scaleOptions,
			DefaultIndex: 2,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("quiz: %s: %w", question.ID, err)
		}
		if idx < 0 || idx >= len(scaleOptions) {
			return Outcome{}, fmt.Errorf("quiz: %s: %w", question.ID, evalkit.ErrAnswerOutOfRange)
		}
		answers[question.ID] = idx + evalkit.MinAnswer
	}

	result, err := q.kit.Score(answers)
	if err != nil {
		return Outcome{}, err
	}
	for _, line := range Summary(result) {
		if err := q.driver.Info(ctx, line); err != nil {
			return Outcome{}, err
		}
	}

	outcome := Outcome{Answers: answers, Result: result}
	wants, err := q.driver.Confirm(ctx, ConfirmConfig{Message: "Email me the follow-up guide?"})
	if err != nil {
		return Outcome{}, err
	}
	if !wants {
		return outcome, nil
	}
	email, err := q.driver.Input(ctx, InputConfig{Message: "Email", Validator: validateEmail})
	if err != nil {
		return Outcome{}, err
	}
	outcome.Email = strings.TrimSpace(email)
	return outcome, nil
}

// Summary formats a result as printable lines.
func Summary(result evalkit.Result) []string {
	lines := []string{
		"",
		fmt.Sprintf("Overall: %.2f (%s)", result.Overall, result.Level),
	}
	for _, score := range result.Categories {
		lines = append(lines, fmt.Sprintf("- %-13s %.2f %-12s %s", score.Category, score.Average, score.Level, score.Recommendation))
	}
	return lines
}

func validateEmail(value string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return errors.New("please enter a plain email address")
	}
	return nil
}
