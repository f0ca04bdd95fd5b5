package scheduler

import (
	"context"
	"testing"
	"time"

	"smsoutreach/internal/models"
)

type engineFixture struct {
	engine      *Engine
	campaigns   *MockCampaignRepo
	enrollments *MockEnrollmentRepo
	sends       *MockSendRepo
	bulk        *MockBulkRepo
	messages    *MockMessageLogRepo
	sender      *MockSender
	directory   *MockDirectory
}

// newEngineFixture wires an engine with the clock fixed at noon UTC, past the
// default 11:00 send time.
func newEngineFixture() *engineFixture {
	f := &engineFixture{
		campaigns:   NewMockCampaignRepo(),
		enrollments: NewMockEnrollmentRepo(),
		sends:       NewMockSendRepo(),
		bulk:        NewMockBulkRepo(),
		messages:    NewMockMessageLogRepo(),
		sender:      &MockSender{},
		directory:   &MockDirectory{},
	}
	f.engine = NewEngine(f.campaigns, f.enrollments, f.sends, f.bulk, f.messages, f.directory, MockRenderer{}, f.sender, time.UTC)
	f.engine.SetClock(func() time.Time {
		return time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	})
	return f
}

func activeCampaign() *models.Campaign {
	return &models.Campaign{
		ID:              1,
		Name:            "Spring outreach",
		Status:          models.CampaignStatusActive,
		DefaultSendTime: "11:00",
	}
}

func (f *engineFixture) withCampaign(c *models.Campaign, messages []*models.CampaignMessage) {
	f.campaigns.ListByStatusFunc = func(ctx context.Context, statuses ...models.CampaignStatus) ([]*models.Campaign, error) {
		return []*models.Campaign{c}, nil
	}
	f.campaigns.ListMessagesFunc = func(ctx context.Context, campaignID int) ([]*models.CampaignMessage, error) {
		return messages, nil
	}
	f.campaigns.GetMessageFunc = func(ctx context.Context, id int) (*models.CampaignMessage, error) {
		for _, m := range messages {
			if m.ID == id {
				return m, nil
			}
		}
		return nil, nil
	}
	// Keep at least one enrollment sendable so the pass does not auto-complete.
	f.enrollments.CountFunc = func(ctx context.Context, campaignID int) (int, error) { return 1, nil }
	f.enrollments.CountSendableFunc = func(ctx context.Context, campaignID int) (int, error) { return 1, nil }
}

func strPtr(s string) *string { return &s }

func TestProcessCampaigns_FirstStepSendsOncePerDay(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Hi {name}, welcome aboard."},
	})

	name := "Jordan"
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		// A fresh struct each tick, as the database would return it if the
		// progress write had not landed yet.
		return []*models.Enrollment{{
			ID:          5,
			CampaignID:  1,
			PhoneNumber: "+15550100001",
			ContactName: &name,
			CurrentStep: 0,
		}}, nil
	}

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.sender.Sent) != 1 {
		t.Fatalf("Expected 1 send but got %d", len(f.sender.Sent))
	}
	if f.sender.Sent[0].Body != "Hi Jordan, welcome aboard." {
		t.Errorf("Expected rendered body but got %q", f.sender.Sent[0].Body)
	}
	if f.enrollments.Calls["UpdateProgress"] != 1 {
		t.Errorf("Expected 1 UpdateProgress call but got %d", f.enrollments.Calls["UpdateProgress"])
	}
	if len(f.sends.Created) != 1 || f.sends.Created[0].SendType != models.SendTypeScheduled {
		t.Fatalf("Expected one scheduled send record, got %+v", f.sends.Created)
	}
	if len(f.messages.Created) != 1 {
		t.Errorf("Expected the send mirrored into the message log")
	}

	// A second tick the same day finds the existing send record and skips.
	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 {
		t.Errorf("Expected no second send on the same day but got %d total", len(f.sender.Sent))
	}
	if f.enrollments.Calls["UpdateProgress"] != 1 {
		t.Errorf("Expected no second UpdateProgress call")
	}
}

func TestProcessCampaigns_NothingBeforeSendTime(t *testing.T) {
	f := newEngineFixture()
	f.engine.SetClock(func() time.Time {
		return time.Date(2025, time.June, 10, 10, 59, 0, 0, time.UTC)
	})
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Hello"},
	})

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.campaigns.Calls["ListMessages"] != 0 {
		t.Error("Expected the pass to stop before loading messages")
	}
	if len(f.sender.Sent) != 0 {
		t.Errorf("Expected no sends before the send time but got %d", len(f.sender.Sent))
	}
}

func TestProcessCampaigns_PerMessageSendTimeOverride(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Afternoon note", SendTime: strPtr("15:00")},
	})
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{ID: 5, CampaignID: 1, PhoneNumber: "+15550100001"}}, nil
	}

	// Noon is past the campaign default but before this message's own slot.
	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 0 {
		t.Errorf("Expected the 15:00 override to hold the send but got %d", len(f.sender.Sent))
	}

	f.engine.SetClock(func() time.Time {
		return time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)
	})
	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 {
		t.Errorf("Expected the send after the override slot but got %d", len(f.sender.Sent))
	}
}

func TestProcessCampaigns_WholeDayDelay(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Step one"},
		{ID: 11, CampaignID: 1, MessageBody: "Step two", DaysAfterPrevious: 3},
	})

	// 2 days and 1 hour since the last send: under the 3 whole-day delay.
	msgID := 10
	last := time.Date(2025, time.June, 8, 11, 0, 0, 0, time.UTC)
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{
			ID:            5,
			CampaignID:    1,
			PhoneNumber:   "+15550100001",
			CurrentStep:   1,
			LastMessageID: &msgID,
			LastMessageAt: &last,
		}}, nil
	}

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 0 {
		t.Errorf("Expected no send before 3 whole days elapsed but got %d", len(f.sender.Sent))
	}

	last = time.Date(2025, time.June, 7, 11, 0, 0, 0, time.UTC)
	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 {
		t.Fatalf("Expected the step after the delay elapsed but got %d sends", len(f.sender.Sent))
	}
	if f.sender.Sent[0].Body != "Step two" {
		t.Errorf("Expected step two body but got %q", f.sender.Sent[0].Body)
	}
}

func TestProcessCampaigns_CompletesEnrollmentPastLastStep(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Only step"},
	})
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{ID: 5, CampaignID: 1, PhoneNumber: "+15550100001", CurrentStep: 1}}, nil
	}

	var completed []models.EnrollmentStatus
	f.enrollments.UpdateStatusFunc = func(ctx context.Context, id int, status models.EnrollmentStatus) error {
		completed = append(completed, status)
		return nil
	}

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 0 {
		t.Errorf("Expected no send past the last step but got %d", len(f.sender.Sent))
	}
	if len(completed) != 1 || completed[0] != models.EnrollmentCompleted {
		t.Errorf("Expected the enrollment marked completed but got %v", completed)
	}
}

func TestProcessCampaigns_AutoCompletesCampaign(t *testing.T) {
	f := newEngineFixture()
	c := activeCampaign()
	f.withCampaign(c, []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Only step"},
	})
	f.enrollments.CountFunc = func(ctx context.Context, campaignID int) (int, error) { return 5, nil }
	f.enrollments.CountSendableFunc = func(ctx context.Context, campaignID int) (int, error) { return 0, nil }

	var updated *models.Campaign
	f.campaigns.UpdateFunc = func(ctx context.Context, campaign *models.Campaign) error {
		updated = campaign
		return nil
	}

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated == nil {
		t.Fatal("Expected the campaign to be completed")
	}
	if updated.Status != models.CampaignStatusCompleted {
		t.Errorf("Expected completed status but got %q", updated.Status)
	}
	if updated.CompletedAt == nil || updated.ResponseTrackingEndsAt == nil {
		t.Fatal("Expected completion and tracking-window timestamps to be set")
	}
	want := updated.CompletedAt.AddDate(0, 0, models.ResponseTrackingDays)
	if !updated.ResponseTrackingEndsAt.Equal(want) {
		t.Errorf("Expected a %d-day tracking window but got %v", models.ResponseTrackingDays, updated.ResponseTrackingEndsAt)
	}
}

func TestProcessCampaigns_VariantBBodyAndCounter(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{
			ID:          10,
			CampaignID:  1,
			MessageBody: "Original pitch",
			ABTest:      &models.ABTest{ID: 7, CampaignMessageID: 10, VariantBBody: "Alternate pitch"},
		},
	})

	variantB := models.VariantB
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{
			ID:          5,
			CampaignID:  1,
			PhoneNumber: "+15550100001",
			ABVariant:   &variantB,
		}}, nil
	}

	var counted []models.Variant
	f.campaigns.IncrementABSentFunc = func(ctx context.Context, testID int, variant models.Variant) error {
		if testID != 7 {
			t.Errorf("Expected test id 7 but got %d", testID)
		}
		counted = append(counted, variant)
		return nil
	}

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 || f.sender.Sent[0].Body != "Alternate pitch" {
		t.Fatalf("Expected the variant B body, got %+v", f.sender.Sent)
	}
	if len(counted) != 1 || counted[0] != models.VariantB {
		t.Errorf("Expected the B sent counter incremented but got %v", counted)
	}
	if v := f.sends.Created[0].Variant; v == nil || *v != models.VariantB {
		t.Errorf("Expected the send record tagged variant B but got %v", v)
	}
}

func TestProcessCampaigns_SendFailureRecordedWithoutProgress(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Hello"},
	})
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{ID: 5, CampaignID: 1, PhoneNumber: "+15550100001"}}, nil
	}
	f.sender.SendFunc = func(ctx context.Context, phone, body string) (string, error) {
		return "", context.DeadlineExceeded
	}

	if err := f.engine.ProcessCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sends.Created) != 1 || f.sends.Created[0].Status != models.SendStatusFailed {
		t.Fatalf("Expected a failed send record, got %+v", f.sends.Created)
	}
	if f.enrollments.Calls["UpdateProgress"] != 0 {
		t.Error("Expected no progress update after a failed send")
	}
}

func TestProcessFollowups_SendsOnceAfterDelay(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Pitch", EnableFollowup: true, FollowupDays: 3, FollowupBody: "Just checking in, {name}."},
	})

	name := "Jordan"
	msgID := 10
	last := time.Date(2025, time.June, 7, 11, 0, 0, 0, time.UTC)
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{
			ID:            5,
			CampaignID:    1,
			PhoneNumber:   "+15550100001",
			ContactName:   &name,
			CurrentStep:   1,
			LastMessageID: &msgID,
			LastMessageAt: &last,
		}}, nil
	}

	if err := f.engine.ProcessFollowups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 {
		t.Fatalf("Expected 1 follow-up send but got %d", len(f.sender.Sent))
	}
	if f.sender.Sent[0].Body != "Just checking in, Jordan." {
		t.Errorf("Expected rendered follow-up body but got %q", f.sender.Sent[0].Body)
	}
	if f.sends.Created[0].SendType != models.SendTypeFollowup {
		t.Errorf("Expected a follow-up send record but got %q", f.sends.Created[0].SendType)
	}

	// A second pass finds the existing follow-up record and skips.
	if err := f.engine.ProcessFollowups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 {
		t.Errorf("Expected exactly one follow-up ever but got %d", len(f.sender.Sent))
	}
}

func TestProcessFollowups_SuppressedByResponse(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Pitch", EnableFollowup: true, FollowupDays: 3},
	})

	msgID := 10
	last := time.Date(2025, time.June, 6, 11, 0, 0, 0, time.UTC)
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{
			ID: 5, CampaignID: 1, PhoneNumber: "+15550100001",
			CurrentStep: 1, LastMessageID: &msgID, LastMessageAt: &last,
		}}, nil
	}
	f.sends.HasResponseFunc = func(ctx context.Context, enrollmentID, messageID int) (bool, error) {
		return true, nil
	}

	if err := f.engine.ProcessFollowups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 0 {
		t.Errorf("Expected the response to suppress the follow-up but got %d sends", len(f.sender.Sent))
	}
}

func TestProcessFollowups_DefaultBodyFallback(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "Pitch", EnableFollowup: true, FollowupDays: 2, FollowupBody: ""},
	})

	msgID := 10
	last := time.Date(2025, time.June, 7, 11, 0, 0, 0, time.UTC)
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{{
			ID: 5, CampaignID: 1, PhoneNumber: "+15550100001",
			CurrentStep: 1, LastMessageID: &msgID, LastMessageAt: &last,
		}}, nil
	}

	if err := f.engine.ProcessFollowups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 1 {
		t.Fatalf("Expected 1 follow-up send but got %d", len(f.sender.Sent))
	}
	want := MockRenderer{}.Render(models.DefaultFollowupBody, &models.Contact{Phone: "+15550100001"}, time.Time{})
	if f.sender.Sent[0].Body != want {
		t.Errorf("Expected the default follow-up body but got %q", f.sender.Sent[0].Body)
	}
}

func TestProcessFollowups_SkipsDisabledAndTooSoon(t *testing.T) {
	f := newEngineFixture()
	f.withCampaign(activeCampaign(), []*models.CampaignMessage{
		{ID: 10, CampaignID: 1, MessageBody: "No follow-up here", EnableFollowup: false},
		{ID: 11, CampaignID: 1, MessageBody: "Slow follow-up", EnableFollowup: true, FollowupDays: 5},
	})

	disabledID, slowID := 10, 11
	recent := time.Date(2025, time.June, 8, 11, 0, 0, 0, time.UTC)
	f.enrollments.ListSendableFunc = func(ctx context.Context, campaignID int) ([]*models.Enrollment, error) {
		return []*models.Enrollment{
			{ID: 5, CampaignID: 1, PhoneNumber: "+15550100001", CurrentStep: 1, LastMessageID: &disabledID, LastMessageAt: &recent},
			{ID: 6, CampaignID: 1, PhoneNumber: "+15550100002", CurrentStep: 2, LastMessageID: &slowID, LastMessageAt: &recent},
		}, nil
	}

	if err := f.engine.ProcessFollowups(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.Sent) != 0 {
		t.Errorf("Expected no follow-ups but got %d", len(f.sender.Sent))
	}
}
