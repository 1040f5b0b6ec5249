package audit

import (
	"context"
	"testing"

	"storefront/internal/auth"
)

func TestService_AppendRequiresTypeAndMessage(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Message: "x"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeAdminAction}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.LogAdminAction(context.Background(), auth.Actor{}, TargetOrder, "o1", "order marked done", ""); err == nil {
		t.Fatalf("expected error for anonymous actor")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	ctx := WithClientIP(context.Background(), "1.2.3.4")
	actor := auth.Actor{UserID: "admin-1", Role: "admin"}
	if err := svc.LogAdminAction(ctx, actor, TargetTopUp, "t1", "topup approved", `{"amount":"200.00"}`); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeAdminAction || evs[0].TargetType != TargetTopUp || evs[0].TargetID != "t1" {
		t.Fatalf("unexpected event %+v", evs[0])
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
}
