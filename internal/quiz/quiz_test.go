package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kivisai/site/pkg/evalkit"
)

type stubDriver struct {
	selectIdx []int
	selectPos int
	confirm   bool
	inputs    []string
	inputPos  int

	infoMessages []string
	messages     []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	for s.inputPos < len(s.inputs) {
		value := s.inputs[s.inputPos]
		s.inputPos++
		if cfg.Validator == nil || cfg.Validator(value) == nil {
			return value, nil
		}
	}
	return "", ErrAborted
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	return s.confirm, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.messages = append(s.messages, cfg.Message)
	if s.selectPos >= len(s.selectIdx) {
		return cfg.DefaultIndex, nil
	}
	idx := s.selectIdx[s.selectPos]
	s.selectPos++
	return idx, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func mustQuiz(t *testing.T, driver PromptDriver) (*Quiz, *evalkit.Kit) {
	t.Helper()
	kit, err := evalkit.Default()
	if err != nil {
		t.Fatalf("kit: %v", err)
	}
	q, err := New(kit, driver)
	if err != nil {
		t.Fatalf("new quiz: %v", err)
	}
	return q, kit
}

func TestRun_DefaultAnswersScoreAsPractitioner(t *testing.T) {
	driver := &stubDriver{}
	q, kit := mustQuiz(t, driver)

	outcome, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(driver.messages) != len(kit.Questions()) {
		t.Fatalf("expected %d prompts, got %d", len(kit.Questions()), len(driver.messages))
	}
	if outcome.Result.Overall != 3 || outcome.Result.Level != evalkit.LevelPractitioner {
		t.Fatalf("unexpected result %+v", outcome.Result)
	}
	if outcome.Email != "" {
		t.Fatalf("expected no email when declined")
	}

	joined := strings.Join(driver.infoMessages, "\n")
	if !strings.Contains(joined, "Overall: 3.00 (practitioner)") || !strings.Contains(joined, "## GOVERNANCE") {
		t.Fatalf("unexpected summary:\n%s", joined)
	}
}

func TestRun_CollectsAnswersAndEmail(t *testing.T) {
	driver := &stubDriver{
		selectIdx: []int{0, 0, 0, 4, 4, 4},
		confirm:   true,
		inputs:    []string{"not-an-email", "ceo@example.com"},
	}
	q, _ := mustQuiz(t, driver)

	outcome, err := q.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Answers["strategy-1"] != 1 || outcome.Answers["data-1"] != 5 {
		t.Fatalf("unexpected answers %v", outcome.Answers)
	}
	if outcome.Result.Categories[0].Level != evalkit.LevelStarter {
		t.Fatalf("expected starter strategy, got %+v", outcome.Result.Categories[0])
	}
	if outcome.Email != "ceo@example.com" || driver.inputPos != 2 {
		t.Fatalf("expected validated email, got %q after %d inputs", outcome.Email, driver.inputPos)
	}
}

func TestRun_RejectsOutOfRangeSelection(t *testing.T) {
	q, _ := mustQuiz(t, &stubDriver{selectIdx: []int{7}})
	if _, err := q.Run(context.Background()); !errors.Is(err, evalkit.ErrAnswerOutOfRange) {
		t.Fatalf("expected ErrAnswerOutOfRange, got %v", err)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(nil, &stubDriver{}); err == nil {
		t.Fatalf("expected error without kit")
	}
	kit, _ := evalkit.Default()
	if _, err := New(kit, nil); err == nil {
		t.Fatalf("expected error without driver")
	}
}
