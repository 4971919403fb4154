package policy

import "errors"

var ErrCapabilityDenied = errors.New("capability not included in plan")

// QuotaUnlimited is the sentinel returned for "unlimited" quota fields. It is
// deliberately finite so callers can still cap pagination and loops.
const QuotaUnlimited = 1_000_000

// Capability names gate engine features per subscription plan.
const (
	CapabilityAIAssistant     = "aiAssistant"
	CapabilityAnalytics       = "analytics"
	CapabilityCalendar        = "calendar"
	CapabilityTutoring        = "tutoring"
	CapabilityTimedConditions = "timedConditions"
	CapabilityMiniMocks       = "miniMocks"
)

// PackageFeatures is the resolved quota/capability set for one plan. Values
// are read-only at use time; Resolve returns a copy.
type PackageFeatures struct {
	Plan            string          `json:"plan"`
	MockQuota       int             `json:"mock_quota"`
	MCQQuota        int             `json:"mcq_quota"`
	FlashcardQuota  int             `json:"flashcard_quota"`
	IntensityLevels int             `json:"intensity_levels"`
	MiniMockSizes   []int           `json:"mini_mock_sizes"`
	Capabilities    map[string]bool `json:"capabilities"`

	MaxQuestionsPerSession int `json:"max_questions_per_session"`
	MaxSessionsPerDay      int `json:"max_sessions_per_day"`
	MaxSessionsPerWeek     int `json:"max_sessions_per_week"`
}

var plans = map[string]PackageFeatures{
	"free": {
		Plan:                   "free",
		MockQuota:              1,
		MCQQuota:               50,
		FlashcardQuota:         25,
		IntensityLevels:        1,
		MiniMockSizes:          nil,
		Capabilities:           map[string]bool{},
		MaxQuestionsPerSession: 20,
		MaxSessionsPerDay:      2,
		MaxSessionsPerWeek:     10,
	},
	"essentials": {
		Plan:            "essentials",
		MockQuota:       5,
		MCQQuota:        1000,
		FlashcardQuota:  500,
		IntensityLevels: 2,
		MiniMockSizes:   []int{20, 45},
		Capabilities: map[string]bool{
			CapabilityTimedConditions: true,
			CapabilityMiniMocks:       true,
		},
		MaxQuestionsPerSession: 90,
		MaxSessionsPerDay:      5,
		MaxSessionsPerWeek:     25,
	},
	"premium": {
		Plan:            "premium",
		MockQuota:       QuotaUnlimited,
		MCQQuota:        QuotaUnlimited,
		FlashcardQuota:  QuotaUnlimited,
		IntensityLevels: 3,
		MiniMockSizes:   []int{20, 45, 90},
		Capabilities: map[string]bool{
			CapabilityTimedConditions: true,
			CapabilityMiniMocks:       true,
			CapabilityAnalytics:       true,
			CapabilityCalendar:        true,
		},
		MaxQuestionsPerSession: 180,
		MaxSessionsPerDay:      10,
		MaxSessionsPerWeek:     50,
	},
	"ultimate": {
		Plan:            "ultimate",
		MockQuota:       QuotaUnlimited,
		MCQQuota:        QuotaUnlimited,
		FlashcardQuota:  QuotaUnlimited,
		IntensityLevels: 4,
		MiniMockSizes:   []int{10, 20, 45, 90, 180},
		Capabilities: map[string]bool{
			CapabilityTimedConditions: true,
			CapabilityMiniMocks:       true,
			CapabilityAnalytics:       true,
			CapabilityCalendar:        true,
			CapabilityAIAssistant:     true,
			CapabilityTutoring:        true,
		},
		MaxQuestionsPerSession: 180,
		MaxSessionsPerDay:      QuotaUnlimited,
		MaxSessionsPerWeek:     QuotaUnlimited,
	},
}

// Resolve looks up the feature set for a plan. Unrecognized plans fall back
// to "free"; Resolve never fails.
func Resolve(plan string) PackageFeatures {
	f, ok := plans[plan]
	if !ok {
		f = plans["free"]
	}
	caps := make(map[string]bool, len(f.Capabilities))
	for k, v := range f.Capabilities {
		caps[k] = v
	}
	f.Capabilities = caps
	f.MiniMockSizes = append([]int(nil), f.MiniMockSizes...)
	return f
}

func MockQuota(plan string) int      { return Resolve(plan).MockQuota }
func MCQQuota(plan string) int       { return Resolve(plan).MCQQuota }
func FlashcardQuota(plan string) int { return Resolve(plan).FlashcardQuota }

// MiniMockSizeOptions returns the allowed mini-mock lengths for a plan. An
// empty slice means the plan has no mini-mocks at all, which is distinct from
// "any size allowed".
func MiniMockSizeOptions(plan string) []int {
	return Resolve(plan).MiniMockSizes
}

func HasCapability(plan, capability string) bool {
	return Resolve(plan).Capabilities[capability]
}

// RequireCapability is the gate used before starting a session that requests
// a plan-bound feature.
func RequireCapability(plan, capability string) error {
	if !HasCapability(plan, capability) {
		return ErrCapabilityDenied
	}
	return nil
}
