package policy

import (
	"errors"
	"testing"
)

func TestResolveKnownPlans(t *testing.T) {
	tests := []struct {
		plan          string
		mockQuota     int
		mcqQuota      int
		miniMockSizes int
		aiAssistant   bool
		timed         bool
	}{
		{plan: "free", mockQuota: 1, mcqQuota: 50, miniMockSizes: 0, aiAssistant: false, timed: false},
		{plan: "essentials", mockQuota: 5, mcqQuota: 1000, miniMockSizes: 2, aiAssistant: false, timed: true},
		{plan: "premium", mockQuota: QuotaUnlimited, mcqQuota: QuotaUnlimited, miniMockSizes: 3, aiAssistant: false, timed: true},
		{plan: "ultimate", mockQuota: QuotaUnlimited, mcqQuota: QuotaUnlimited, miniMockSizes: 5, aiAssistant: true, timed: true},
	}

	for _, tc := range tests {
		t.Run(tc.plan, func(t *testing.T) {
			f := Resolve(tc.plan)
			if f.Plan != tc.plan {
				t.Fatalf("plan = %q, want %q", f.Plan, tc.plan)
			}
			if f.MockQuota != tc.mockQuota {
				t.Fatalf("mock quota = %d, want %d", f.MockQuota, tc.mockQuota)
			}
			if f.MCQQuota != tc.mcqQuota {
				t.Fatalf("mcq quota = %d, want %d", f.MCQQuota, tc.mcqQuota)
			}
			if len(f.MiniMockSizes) != tc.miniMockSizes {
				t.Fatalf("mini-mock sizes = %v, want %d options", f.MiniMockSizes, tc.miniMockSizes)
			}
			if got := HasCapability(tc.plan, CapabilityAIAssistant); got != tc.aiAssistant {
				t.Fatalf("aiAssistant = %v, want %v", got, tc.aiAssistant)
			}
			if got := HasCapability(tc.plan, CapabilityTimedConditions); got != tc.timed {
				t.Fatalf("timedConditions = %v, want %v", got, tc.timed)
			}
		})
	}
}

func TestResolveUnknownPlanFallsBackToFree(t *testing.T) {
	for _, plan := range []string{"", "enterprise", "Free", "PREMIUM"} {
		f := Resolve(plan)
		if f.Plan != "free" {
			t.Fatalf("Resolve(%q).Plan = %q, want free", plan, f.Plan)
		}
		if f.MockQuota != 1 {
			t.Fatalf("Resolve(%q).MockQuota = %d, want 1", plan, f.MockQuota)
		}
	}
}

func TestResolveReturnsCopies(t *testing.T) {
	f := Resolve("ultimate")
	f.Capabilities[CapabilityAIAssistant] = false
	f.MiniMockSizes[0] = 999

	fresh := Resolve("ultimate")
	if !fresh.Capabilities[CapabilityAIAssistant] {
		t.Fatalf("mutating a resolved capability map leaked into the plan table")
	}
	if fresh.MiniMockSizes[0] == 999 {
		t.Fatalf("mutating a resolved size slice leaked into the plan table")
	}
}

func TestRequireCapability(t *testing.T) {
	if err := RequireCapability("ultimate", CapabilityTutoring); err != nil {
		t.Fatalf("ultimate tutoring should be allowed, got %v", err)
	}
	if err := RequireCapability("free", CapabilityAnalytics); !errors.Is(err, ErrCapabilityDenied) {
		t.Fatalf("err = %v, want ErrCapabilityDenied", err)
	}
	if err := RequireCapability("unknown", CapabilityMiniMocks); !errors.Is(err, ErrCapabilityDenied) {
		t.Fatalf("unknown plan err = %v, want ErrCapabilityDenied", err)
	}
}

func TestQuotaHelpers(t *testing.T) {
	if got := MockQuota("essentials"); got != 5 {
		t.Fatalf("MockQuota(essentials) = %d, want 5", got)
	}
	if got := FlashcardQuota("free"); got != 25 {
		t.Fatalf("FlashcardQuota(free) = %d, want 25", got)
	}
	if got := MCQQuota("premium"); got != QuotaUnlimited {
		t.Fatalf("MCQQuota(premium) = %d, want unlimited sentinel", got)
	}
	sizes := MiniMockSizeOptions("free")
	if len(sizes) != 0 {
		t.Fatalf("free mini-mock sizes = %v, want none", sizes)
	}
}
