package handler

import (
	"context"

	"saasbase/internal/usecase"

	"github.com/google/uuid"
)

// stubAuthUsecase returns canned values and records what it was called with.
type stubAuthUsecase struct {
	beginOutput    *usecase.BeginLoginOutput
	beginErr       error
	completeOutput *usecase.CompleteLoginOutput
	completeErr    error
	validation     *usecase.SessionValidation
	validationErr  error
	logoutErr      error

	lastBeginInput    usecase.BeginLoginInput
	lastCompleteInput usecase.CompleteLoginInput
	loggedOutToken    string
	loggedOutAllUser  uuid.UUID
}

func (s *stubAuthUsecase) AuthorizationURL(_ context.Context, input usecase.BeginLoginInput) (*usecase.BeginLoginOutput, error) {
	s.lastBeginInput = input

	return s.beginOutput, s.beginErr
}

func (s *stubAuthUsecase) CompleteLogin(_ context.Context, input usecase.CompleteLoginInput) (*usecase.CompleteLoginOutput, error) {
	s.lastCompleteInput = input

	return s.completeOutput, s.completeErr
}

func (s *stubAuthUsecase) ValidateSessionToken(_ context.Context, _ string) (*usecase.SessionValidation, error) {
	return s.validation, s.validationErr
}

func (s *stubAuthUsecase) Logout(_ context.Context, token string) error {
	s.loggedOutToken = token

	return s.logoutErr
}

func (s *stubAuthUsecase) LogoutAll(_ context.Context, userID uuid.UUID) error {
	s.loggedOutAllUser = userID

	return nil
}

func (s *stubAuthUsecase) CleanupExpiredSessions(_ context.Context) (int64, error) {
	return 0, nil
}
