//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"study-access-redemption/internal/domain"
)

// --- AccessCode Model Tests ---

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abcd-efgh-jkmn", "ABCD-EFGH-JKMN"},
		{"  WXYZ-2345-6789  ", "WXYZ-2345-6789"},
		{"\tMixed-Case-Code\n", "MIXED-CASE-CODE"},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeCode(c.in); got != c.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewAccessCode(t *testing.T) {
	t.Run("should create an unused code", func(t *testing.T) {
		code, err := NewAccessCode("01ARZ3NDEKTSV4RRFFQ69G5FAV", "abcd-efgh-jkmn", 90)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if code.Code != "ABCD-EFGH-JKMN" {
			t.Errorf("expected normalized code, got %q", code.Code)
		}
		if code.IsUsed || code.Applied {
			t.Error("expected a fresh code to be unused and unapplied")
		}
		if code.DurationDays != 90 {
			t.Errorf("expected 90 duration days, got %d", code.DurationDays)
		}
	})

	t.Run("should default a non-positive duration", func(t *testing.T) {
		code, err := NewAccessCode("id-1", "ABCD-EFGH-JKMN", 0)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if code.DurationDays != DefaultDurationDays {
			t.Errorf("expected default duration %d, got %d", DefaultDurationDays, code.DurationDays)
		}
	})

	t.Run("should fail with empty id or code", func(t *testing.T) {
		if _, err := NewAccessCode("", "ABCD", 30); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := NewAccessCode("id-1", "   ", 30); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestAccessCode_GrantDays(t *testing.T) {
	malformed := &AccessCode{ID: "id-1", Code: "X", DurationDays: -3}
	if got := malformed.GrantDays(); got != DefaultDurationDays {
		t.Errorf("expected malformed duration to default to %d, got %d", DefaultDurationDays, got)
	}
	ok := &AccessCode{ID: "id-2", Code: "Y", DurationDays: 7}
	if got := ok.GrantDays(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestAccessCode_UsedBy(t *testing.T) {
	user := "user-1"
	code := &AccessCode{ID: "id-1", Code: "X", IsUsed: true, UsedByUserID: &user}
	if !code.UsedBy("user-1") {
		t.Error("expected UsedBy to match the claiming user")
	}
	if code.UsedBy("user-2") {
		t.Error("expected UsedBy to reject a different user")
	}
	unused := &AccessCode{ID: "id-2", Code: "Y"}
	if unused.UsedBy("user-1") {
		t.Error("expected an unused code to match nobody")
	}
}

// --- Subscription Model Tests ---

func TestNewSubscription(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should create an active subscription starting now", func(t *testing.T) {
		sub, err := NewSubscription("sub-1", "user-1", "code-1", now, 30)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if sub.Status != SubscriptionStatusActive {
			t.Errorf("expected ACTIVE, got %s", sub.Status)
		}
		if !sub.StartDate.Equal(now) {
			t.Errorf("expected StartDate %v, got %v", now, sub.StartDate)
		}
		if want := now.AddDate(0, 0, 30); !sub.EndDate.Equal(want) {
			t.Errorf("expected EndDate %v, got %v", want, sub.EndDate)
		}
		if !sub.GrantedBy("code-1") {
			t.Error("expected LastCodeID to record the granting code")
		}
	})

	t.Run("should fail on missing fields", func(t *testing.T) {
		if _, err := NewSubscription("", "user-1", "code-1", now, 30); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := NewSubscription("sub-1", "user-1", "code-1", now, 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero duration, got %v", err)
		}
	})
}

func TestSubscription_ExtensionBase(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("future end date is the base", func(t *testing.T) {
		sub := &Subscription{EndDate: now.AddDate(0, 0, 10)}
		if got := sub.ExtensionBase(now); !got.Equal(sub.EndDate) {
			t.Errorf("expected base %v, got %v", sub.EndDate, got)
		}
	})

	t.Run("past end date bases extension on now", func(t *testing.T) {
		sub := &Subscription{EndDate: now.AddDate(0, 0, -5)}
		if got := sub.ExtensionBase(now); !got.Equal(now) {
			t.Errorf("expected base %v, got %v", now, got)
		}
	})
}

func TestSubscription_Extend(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active subscription stacks on existing end", func(t *testing.T) {
		start := now.AddDate(0, 0, -20)
		sub := &Subscription{
			Status:    SubscriptionStatusActive,
			StartDate: start,
			EndDate:   now.AddDate(0, 0, 10),
		}
		sub.Extend(now, 30, "code-2")
		if want := now.AddDate(0, 0, 40); !sub.EndDate.Equal(want) {
			t.Errorf("expected EndDate %v, got %v", want, sub.EndDate)
		}
		if !sub.StartDate.Equal(start) {
			t.Error("expected StartDate to be preserved")
		}
	})

	t.Run("expired subscription extends from now and reactivates", func(t *testing.T) {
		sub := &Subscription{
			Status:  SubscriptionStatusExpired,
			EndDate: now.AddDate(0, 0, -90),
		}
		sub.Extend(now, 30, "code-3")
		if want := now.AddDate(0, 0, 30); !sub.EndDate.Equal(want) {
			t.Errorf("expected EndDate %v, got %v", want, sub.EndDate)
		}
		if sub.Status != SubscriptionStatusActive {
			t.Errorf("expected ACTIVE after extension, got %s", sub.Status)
		}
		if !sub.GrantedBy("code-3") {
			t.Error("expected LastCodeID to track the extending code")
		}
	})
}

func TestSubscription_Lapsed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	active := &Subscription{EndDate: now.Add(time.Minute)}
	if active.Lapsed(now) {
		t.Error("expected subscription ending in the future not to be lapsed")
	}
	past := &Subscription{EndDate: now.Add(-time.Minute)}
	if !past.Lapsed(now) {
		t.Error("expected subscription ending in the past to be lapsed")
	}
}
