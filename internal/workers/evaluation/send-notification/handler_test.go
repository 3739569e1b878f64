package sendnotification

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"candidate-evaluator/internal/common/camunda/camundatest"
	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/models"
	"candidate-evaluator/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockEmail struct {
	mock.Mock
}

func (m *MockEmail) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

type MockSMS struct {
	mock.Mock
}

func (m *MockSMS) SendSMS(ctx context.Context, phone, message string) (string, error) {
	args := m.Called(ctx, phone, message)
	return args.String(0), args.Error(1)
}

type fakeRepo struct {
	contact  *models.CandidateContact
	err      error
	activity []models.ActivityLog
}

func (f *fakeRepo) GetCandidateContact(ctx context.Context, appID int64) (*models.CandidateContact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contact, nil
}

func (f *fakeRepo) LogActivity(ctx context.Context, entry models.ActivityLog) error {
	f.activity = append(f.activity, entry)
	return nil
}

// ==========================
// Test Helpers
// ==========================

func newRepo() *fakeRepo {
	return &fakeRepo{contact: &models.CandidateContact{CandidateID: 5, FullName: "Ada Lovelace", Email: "ada@example.com", Phone: "+15550100"}}
}

func newHandler(t *testing.T, repo Repository, email EmailSender, sms SMSSender) *Handler {
	cfg := LoadConfig()
	cfg.SMSEnabled = true
	h := NewHandler(cfg, repo, email, sms, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC) }
	return h
}

func inviteInput() *Input {
	return &Input{
		ApplicationID: 21,
		Template:      models.TemplateInterviewInvite,
		Data:          map[string]interface{}{"jobTitle": "Backend Engineer", "interviewCode": "INT-2025-AB12"},
	}
}

// ==========================
// Rendering
// ==========================

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{"string", "Hello {{name}}", map[string]interface{}{"name": "Ada"}, "Hello Ada"},
		{"json number", "Application {{id}}", map[string]interface{}{"id": float64(21)}, "Application 21"},
		{"fraction", "Score {{s}}", map[string]interface{}{"s": 86.5}, "Score 86.5"},
		{"missing removed", "Hi {{name}}{{unknown}}!", map[string]interface{}{"name": "Ada"}, "Hi Ada!"},
		{"nil value", "[{{x}}]", map[string]interface{}{"x": nil}, "[]"},
		{"unterminated kept", "open {{brace", nil, "open {{brace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.tmpl, tt.data))
		})
	}
}

func TestLoadTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  - id: decision_rejected
    subject: "Update on {{jobTitle}}"
    body: "Sorry {{candidateName}}"
  - id: offer_letter
    subject: "Offer"
    body: "Welcome aboard"
    sms: "Offer sent"
`), 0o644))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)

	assert.Equal(t, "Sorry {{candidateName}}", templates[models.TemplateDecisionRejected].Body)
	assert.Equal(t, "Offer sent", templates["offer_letter"].SMS)
	assert.Contains(t, templates, models.TemplateInterviewInvite)
}

func TestLoadTemplates_Errors(t *testing.T) {
	dir := t.TempDir()
	noID := filepath.Join(dir, "noid.yaml")
	require.NoError(t, os.WriteFile(noID, []byte("templates:\n  - subject: x\n"), 0o644))

	_, err := LoadTemplates(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	_, err = LoadTemplates(noID)
	assert.ErrorContains(t, err, "template without id")

	defaults, err := LoadTemplates("")
	require.NoError(t, err)
	assert.Len(t, defaults, 4)
}

// ==========================
// Execute
// ==========================

func TestExecute_SendsEmailAndSMS(t *testing.T) {
	repo := newRepo()
	email := &MockEmail{}
	email.On("SendEmail", mock.Anything, "ada@example.com", "Interview Invitation: Backend Engineer",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "Congratulations Ada Lovelace") && strings.Contains(body, "INT-2025-AB12")
		})).Return("ses-1", nil)
	sms := &MockSMS{}
	sms.On("SendSMS", mock.Anything, "+15550100", "Interview invitation for Backend Engineer. Interview ID: INT-2025-AB12").Return("sns-1", nil)

	out, err := newHandler(t, repo, email, sms).Execute(context.Background(), inviteInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, "ses-1", out.EmailMessageID)
	assert.Equal(t, "sns-1", out.SMSMessageID)
	assert.Equal(t, "2025-05-02T09:00:00Z", out.SentAt)
	assert.NotEmpty(t, out.NotificationID)
	require.Len(t, repo.activity, 1)
	assert.Equal(t, "Notification Sent", repo.activity[0].Action)
	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestExecute_TemplateWithoutSMS(t *testing.T) {
	email := &MockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-2", nil)
	sms := &MockSMS{}

	out, err := newHandler(t, newRepo(), email, sms).Execute(context.Background(),
		&Input{ApplicationID: 21, Template: models.TemplateDecisionRejected})
	require.NoError(t, err)

	assert.Equal(t, StatusSent, out.Status)
	assert.Empty(t, out.SMSMessageID)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_Disabled(t *testing.T) {
	tests := []struct {
		name  string
		repo  *fakeRepo
		setup func(*Handler)
	}{
		{"recipient not found", &fakeRepo{err: store.ErrNotFound}, func(*Handler) {}},
		{"channels off", newRepo(), func(h *Handler) {
			h.config.EmailEnabled = false
			h.config.SMSEnabled = false
		}},
		{"no senders", newRepo(), func(h *Handler) {
			h.email = nil
			h.sms = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, tt.repo, &MockEmail{}, &MockSMS{})
			tt.setup(h)
			out, err := h.Execute(context.Background(), inviteInput())
			require.NoError(t, err)
			assert.Equal(t, StatusDisabled, out.Status)
			assert.Empty(t, tt.repo.activity)
		})
	}
}

func TestExecute_SMSFailureAfterEmailKeepsSent(t *testing.T) {
	email := &MockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-3", nil)
	sms := &MockSMS{}
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))

	out, err := newHandler(t, newRepo(), email, sms).Execute(context.Background(), inviteInput())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Status)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		repo  *fakeRepo
		code  errors.ErrorCode
	}{
		{"missing application", &Input{Template: models.TemplateInterviewInvite}, newRepo(), errors.ErrCodeInvalidInput},
		{"unknown template", &Input{ApplicationID: 21, Template: "welcome_pack"}, newRepo(), errors.ErrCodeTemplateNotFound},
		{"contact query fails", inviteInput(), &fakeRepo{err: stderrors.New("conn reset")}, errors.ErrCodeQueryExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newHandler(t, tt.repo, &MockEmail{}, &MockSMS{}).Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

// ==========================
// Handle
// ==========================

func failingEmail() *MockEmail {
	email := &MockEmail{}
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("ses unavailable"))
	return email
}

func TestHandle_SendFailureRetried(t *testing.T) {
	client := camundatest.NewJobClient()
	newHandler(t, newRepo(), failingEmail(), nil).Handle(client,
		camundatest.NewJob(1, TaskType, `{"applicationId":21,"template":"decision_selected"}`, 3))

	require.Len(t, client.Gateway.Failed, 1)
	assert.Empty(t, client.Gateway.Completed)
}

func TestHandle_SendFailureOnLastAttemptCompletes(t *testing.T) {
	client := camundatest.NewJobClient()
	newHandler(t, newRepo(), failingEmail(), nil).Handle(client,
		camundatest.NewJob(2, TaskType, `{"applicationId":21,"template":"decision_selected"}`, 1))

	var out Output
	client.Completed(t, &out)
	assert.Equal(t, StatusFailed, out.Status)
}

func TestHandle_UnknownTemplateThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	newHandler(t, newRepo(), &MockEmail{}, nil).Handle(client,
		camundatest.NewJob(3, TaskType, `{"applicationId":21,"template":"welcome_pack"}`, 3))

	assert.Equal(t, "TEMPLATE_NOT_FOUND", client.ThrownCode(t))
}
