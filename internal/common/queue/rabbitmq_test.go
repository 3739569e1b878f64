package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatch(t *testing.T) {
	ok := func(context.Context, EvaluationRequest) error { return nil }

	tests := []struct {
		name    string
		body    string
		handler HandlerFunc
		want    Outcome
	}{
		{
			name:    "interview completed",
			body:    `{"kind":"interview_completed","application_id":4,"interview_id":9}`,
			handler: ok,
			want:    OutcomeProcessed,
		},
		{
			name:    "malformed json",
			body:    `{"kind":`,
			handler: ok,
			want:    OutcomeDropped,
		},
		{
			name:    "missing interview id",
			body:    `{"kind":"interview_completed","application_id":4}`,
			handler: ok,
			want:    OutcomeDropped,
		},
		{
			name:    "unknown kind",
			body:    `{"kind":"resume_uploaded","application_id":4}`,
			handler: ok,
			want:    OutcomeDropped,
		},
		{
			name: "transient handler failure",
			body: `{"kind":"application_submitted","application_id":4}`,
			handler: func(context.Context, EvaluationRequest) error {
				return errors.New("zeebe unavailable")
			},
			want: OutcomeRequeued,
		},
		{
			name: "handler rejects request",
			body: `{"kind":"hr_decision","interview_id":2,"decision":"Selected"}`,
			handler: func(context.Context, EvaluationRequest) error {
				return ErrInvalidRequest
			},
			want: OutcomeDropped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dispatch(context.Background(), []byte(tt.body), tt.handler))
		})
	}
}

func TestDispatch_PassesDecodedRequest(t *testing.T) {
	var got EvaluationRequest
	Dispatch(context.Background(),
		[]byte(`{"kind":"hr_decision","interview_id":2,"decision":"On-Hold","notes":"call back","decided_by":"hr@acme.io"}`),
		func(_ context.Context, req EvaluationRequest) error {
			got = req
			return nil
		})

	assert.Equal(t, int64(2), got.InterviewID)
	assert.Equal(t, "On-Hold", got.Decision)
	assert.Equal(t, "hr@acme.io", got.DecidedBy)
}
