package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scriptedJudge struct {
	errs  []error
	calls int
}

func (s *scriptedJudge) Provider() string { return "scripted" }

func (s *scriptedJudge) Judge(ctx context.Context, req JudgeRequest) (Judgment, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return Judgment{}, s.errs[idx]
	}
	return Judgment{IsCorrect: true, PointsEarned: 1, Feedback: "ok"}, nil
}

func TestRetryJudgeRetriesUnavailable(t *testing.T) {
	inner := &scriptedJudge{errs: []error{&ErrJudgeUnavailable{Provider: "scripted", Err: errors.New("503")}}}
	judge := WithRetry(inner, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond})

	judgment, err := judge.Judge(context.Background(), JudgeRequest{})
	require.NoError(t, err)
	require.True(t, judgment.IsCorrect)
	require.Equal(t, 2, inner.calls)
}

func TestRetryJudgeRetriesInvalidResponseOnce(t *testing.T) {
	invalid := &ErrInvalidResponse{Err: errors.New("bad json")}
	inner := &scriptedJudge{errs: []error{invalid, invalid, invalid}}
	judge := WithRetry(inner, RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond})

	_, err := judge.Judge(context.Background(), JudgeRequest{})
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestRetryJudgeDoesNotRetryContextErrors(t *testing.T) {
	inner := &scriptedJudge{errs: []error{context.DeadlineExceeded}}
	judge := WithRetry(inner, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond})

	_, err := judge.Judge(context.Background(), JudgeRequest{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, inner.calls)
}

func TestWithRetrySingleAttemptReturnsInner(t *testing.T) {
	inner := &scriptedJudge{}
	require.Same(t, Judge(inner), WithRetry(inner, RetryConfig{MaxAttempts: 1}))
}
