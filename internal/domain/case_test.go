package domain

import "testing"

func TestCaseStatusTerminal(t *testing.T) {
	terminal := map[CaseStatus]bool{
		CaseStatusCreated:             false,
		CaseStatusPendingApproval:     false,
		CaseStatusPendingVerification: false,
		CaseStatusOpen:                false,
		CaseStatusClosed:              true,
		CaseStatusCancelled:           true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("Terminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestCrimeLevelSeverity(t *testing.T) {
	if !CrimeLevelCritical.MoreSevereThan(CrimeLevel3) {
		t.Error("critical should outrank level 3")
	}
	if CrimeLevel3.MoreSevereThan(CrimeLevel1) {
		t.Error("level 3 should not outrank level 1")
	}
}

func TestRewardPriceFor(t *testing.T) {
	tests := []struct {
		name  string
		days  int
		level CrimeLevel
		want  int64
	}{
		{"level 3 for 31 days", 31, CrimeLevel3, 31 * 3 * RewardPricePerDay},
		{"level 1 for 45 days", 45, CrimeLevel1, 45 * 1 * RewardPricePerDay},
		{"critical yields nothing via multiplier", 40, CrimeLevelCritical, 0},
		{"non-positive days", 0, CrimeLevel3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewardPriceFor(tt.days, tt.level); got != tt.want {
				t.Fatalf("RewardPriceFor(%d, %d) = %d, want %d", tt.days, tt.level, got, tt.want)
			}
		})
	}
}

func TestValidEvidenceType(t *testing.T) {
	for _, valid := range []EvidenceType{EvidenceTypeTestimony, EvidenceTypeMedical, EvidenceTypeVehicle, EvidenceTypeID, EvidenceTypeOther} {
		if !ValidEvidenceType(valid) {
			t.Errorf("%s should be valid", valid)
		}
	}
	if ValidEvidenceType(EvidenceType("polygraph")) {
		t.Error("unknown type should be invalid")
	}
}
