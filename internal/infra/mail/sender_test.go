package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

func event() usecase.LeadEvent {
	return usecase.LeadEvent{
		Type:        usecase.LeadEventCreated,
		LeadID:      "lead-1",
		FullName:    "Noa <b>Levi</b>",
		Source:      entity.SourceInstagram,
		Status:      entity.StatusNew,
		InquiryType: entity.InquiryBridalFull,
		Notes:       "חתונה באוגוסט",
		OccurredAt:  time.Date(2024, 6, 10, 9, 5, 0, 0, time.UTC),
	}
}

func TestRenderNewLeadEscapesInput(t *testing.T) {
	body, err := renderNewLead(NewLeadEmailData{Name: "<script>x</script>", Notes: "n"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestNewLeadMessage(t *testing.T) {
	s := &EmailSender{From: "studio@example.com", To: "owner@example.com"}
	m, err := s.newLeadMessage(event())
	require.NoError(t, err)

	assert.Equal(t, []string{"owner@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"ליד חדש: Noa <b>Levi</b>"}, m.GetHeader("Subject"))
}

func TestNewLeadMessageUnnamed(t *testing.T) {
	ev := event()
	ev.FullName = ""
	m, err := (&EmailSender{}).newLeadMessage(ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"ליד חדש: " + entity.UnnamedLead}, m.GetHeader("Subject"))
}

func TestSendNewLeadAlert(t *testing.T) {
	d := new(MockDialer)
	d.On("DialAndSend", mock.Anything).Return(nil).Once()

	s := &EmailSender{From: "a@example.com", To: "b@example.com", Dialer: d}
	require.NoError(t, s.SendNewLeadAlert(context.Background(), event()))
	d.AssertExpectations(t)
}

func TestSendNewLeadAlertSMTPFailure(t *testing.T) {
	d := new(MockDialer)
	refused := errors.New("connection refused")
	d.On("DialAndSend", mock.Anything).Return(refused)

	s := &EmailSender{Dialer: d}
	assert.ErrorIs(t, s.SendNewLeadAlert(context.Background(), event()), refused)
}

func TestSendNewLeadAlertCancelled(t *testing.T) {
	d := new(MockDialer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &EmailSender{Dialer: d}
	assert.ErrorIs(t, s.SendNewLeadAlert(ctx, event()), context.Canceled)
	d.AssertNotCalled(t, "DialAndSend", mock.Anything)
}
