package intake

import (
	"context"
	stderrors "errors"
	"testing"

	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStarter struct {
	mock.Mock
}

func (m *MockStarter) StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error) {
	args := m.Called(ctx, processID, variables)
	return args.Get(0).(int64), args.Error(1)
}

func TestVariablesFor(t *testing.T) {
	vars := VariablesFor(queue.EvaluationRequest{
		Kind:        queue.KindHRDecision,
		InterviewID: 9,
		Decision:    "Selected",
		DecidedBy:   "hr@acme.io",
	})
	assert.Equal(t, Variables{Kind: "hr_decision", InterviewID: 9, Decision: "Selected", DecidedBy: "hr@acme.io"}, vars)
}

func TestHandle_StartsProcess(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, "candidate-evaluation",
		Variables{Kind: queue.KindApplicationSubmitted, ApplicationID: 21}).Return(int64(2251799813685249), nil)

	in := New(starter, "candidate-evaluation", logger.NewTestLogger(t))
	err := in.Handle(context.Background(), queue.EvaluationRequest{Kind: queue.KindApplicationSubmitted, ApplicationID: 21})
	require.NoError(t, err)
	starter.AssertExpectations(t)
}

func TestHandle_RequeuesOnBrokerError(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), stderrors.New("unavailable"))

	in := New(starter, "candidate-evaluation", logger.NewTestLogger(t))
	body := []byte(`{"kind":"interview_completed","application_id":21,"interview_id":9}`)

	assert.Equal(t, queue.OutcomeRequeued, queue.Dispatch(context.Background(), body, in.Handle))
}

func TestHandle_ThroughDispatch(t *testing.T) {
	starter := &MockStarter{}
	starter.On("StartProcess", mock.Anything, "candidate-evaluation",
		Variables{Kind: queue.KindInterviewCompleted, ApplicationID: 21, InterviewID: 9}).Return(int64(1), nil)

	in := New(starter, "candidate-evaluation", logger.NewTestLogger(t))
	body := []byte(`{"kind":"interview_completed","application_id":21,"interview_id":9}`)

	assert.Equal(t, queue.OutcomeProcessed, queue.Dispatch(context.Background(), body, in.Handle))
	assert.Equal(t, queue.OutcomeDropped, queue.Dispatch(context.Background(), []byte(`{"kind":"unknown"}`), in.Handle))
	starter.AssertNumberOfCalls(t, "StartProcess", 1)
}
