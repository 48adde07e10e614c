package renter

import "testing"

func TestProfileValidate(t *testing.T) {
	valid := func() Profile {
		return Profile{
			ID:               "r1",
			SubscriptionTier: TierPremium,
			EmploymentType:   EmploymentSalaried,
			LookingFor:       []BHK{BHK2},
			BudgetMin:        20000,
			BudgetMax:        30000,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Profile)
		wantErr bool
	}{
		{"valid", func(*Profile) {}, false},
		{"missing id", func(p *Profile) { p.ID = "" }, true},
		{"unknown tier", func(p *Profile) { p.SubscriptionTier = "gold" }, true},
		{"unknown employment", func(p *Profile) { p.EmploymentType = "astronaut" }, true},
		{"empty employment allowed", func(p *Profile) { p.EmploymentType = "" }, false},
		{"unknown bhk", func(p *Profile) { p.LookingFor = []BHK{"7BHK"} }, true},
		{"negative budget", func(p *Profile) { p.BudgetMin = -1 }, true},
		{"inverted budget", func(p *Profile) { p.BudgetMin, p.BudgetMax = 50000, 10000 }, true},
		{"open-ended max", func(p *Profile) { p.BudgetMax = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.modify(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
