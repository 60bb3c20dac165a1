package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDecideAccrual_PerSalePolicyNeverAccrues(t *testing.T) {
	state := CommissionState{
		Accumulated: dec("42.50"),
		PolicyType:  PolicyPerSale,
		Threshold:   dec("100"),
	}

	decision := DecideAccrual(state, dec("15.00"))

	if decision.ShouldNotify {
		t.Fatal("per-sale policy must not fire threshold notifications")
	}
	if !decision.FinalAccumulated.Equal(dec("42.50")) {
		t.Fatalf("expected accumulated to stay 42.50, got %s", decision.FinalAccumulated)
	}
	if decision.NotificationType != NotificationTypePerSale {
		t.Fatalf("expected per-sale notification type, got %q", decision.NotificationType)
	}
	if decision.NotificationData != nil {
		t.Fatal("per-sale decisions must not carry threshold data")
	}
}

func TestDecideAccrual_AccumulatesBelowThreshold(t *testing.T) {
	state := CommissionState{
		Accumulated: dec("30"),
		PolicyType:  PolicyAccumulatedThreshold,
		Threshold:   dec("100"),
	}

	decision := DecideAccrual(state, dec("25.75"))

	if decision.ShouldNotify {
		t.Fatal("did not expect notification below the threshold")
	}
	if !decision.FinalAccumulated.Equal(dec("55.75")) {
		t.Fatalf("expected accumulated 55.75, got %s", decision.FinalAccumulated)
	}
	if decision.NotificationData != nil {
		t.Fatal("expected no threshold data below the threshold")
	}
}

func TestDecideAccrual_CrossingCarriesRemainder(t *testing.T) {
	state := CommissionState{
		Accumulated: dec("90"),
		PolicyType:  PolicyAccumulatedThreshold,
		Threshold:   dec("100"),
	}

	decision := DecideAccrual(state, dec("35.40"))

	if !decision.ShouldNotify {
		t.Fatal("expected a threshold notification at 125.40 against 100")
	}
	if !decision.FinalAccumulated.Equal(dec("25.40")) {
		t.Fatalf("expected remainder 25.40 after subtracting the threshold, got %s", decision.FinalAccumulated)
	}
	if decision.NotificationData == nil {
		t.Fatal("expected threshold data on a crossing")
	}
	if !decision.NotificationData.AccumulatedAmount.Equal(dec("125.40")) {
		t.Fatalf("expected the pre-reset total 125.40 in the notification, got %s", decision.NotificationData.AccumulatedAmount)
	}
	if !decision.NotificationData.Threshold.Equal(dec("100")) {
		t.Fatalf("expected threshold 100 in the notification, got %s", decision.NotificationData.Threshold)
	}
}

func TestDecideAccrual_ExactCrossingResetsToZero(t *testing.T) {
	state := CommissionState{
		Accumulated: dec("60"),
		PolicyType:  PolicyAccumulatedThreshold,
		Threshold:   dec("100"),
	}

	decision := DecideAccrual(state, dec("40"))

	if !decision.ShouldNotify {
		t.Fatal("expected a notification when the total lands exactly on the threshold")
	}
	if !decision.FinalAccumulated.IsZero() {
		t.Fatalf("expected a zero remainder on an exact crossing, got %s", decision.FinalAccumulated)
	}
}

func TestDecideAccrual_NonPositiveThresholdNeverFires(t *testing.T) {
	for _, threshold := range []decimal.Decimal{decimal.Zero, dec("-10")} {
		state := CommissionState{
			Accumulated: dec("1000"),
			PolicyType:  PolicyAccumulatedThreshold,
			Threshold:   threshold,
		}

		decision := DecideAccrual(state, dec("500"))

		if decision.ShouldNotify {
			t.Fatalf("threshold %s must never fire", threshold)
		}
		if !decision.FinalAccumulated.Equal(dec("1500")) {
			t.Fatalf("expected accrual to continue at 1500, got %s", decision.FinalAccumulated)
		}
	}
}

func TestDecideAccrual_ZeroCommissionStillDecides(t *testing.T) {
	state := CommissionState{
		Accumulated: dec("100"),
		PolicyType:  PolicyAccumulatedThreshold,
		Threshold:   dec("100"),
	}

	decision := DecideAccrual(state, decimal.Zero)

	if !decision.ShouldNotify {
		t.Fatal("expected a notification when the running total already sits on the threshold")
	}
	if !decision.FinalAccumulated.IsZero() {
		t.Fatalf("expected remainder 0, got %s", decision.FinalAccumulated)
	}
}

func TestDecideAccrual_SequenceFiresFloorOfTotalOverThreshold(t *testing.T) {
	threshold := dec("100")
	commission := dec("33.33")
	n := 10

	state := CommissionState{
		Accumulated: decimal.Zero,
		PolicyType:  PolicyAccumulatedThreshold,
		Threshold:   threshold,
	}

	notifications := 0
	for i := 0; i < n; i++ {
		decision := DecideAccrual(state, commission)
		if decision.ShouldNotify {
			notifications++
		}
		state.Accumulated = decision.FinalAccumulated
	}

	total := commission.Mul(decimal.NewFromInt(int64(n)))
	expectedNotifications := int(total.Div(threshold).IntPart())
	expectedRemainder := total.Sub(threshold.Mul(decimal.NewFromInt(int64(expectedNotifications))))

	if notifications != expectedNotifications {
		t.Fatalf("expected %d notifications over the sequence, got %d", expectedNotifications, notifications)
	}
	if !state.Accumulated.Equal(expectedRemainder) {
		t.Fatalf("expected final remainder %s, got %s", expectedRemainder, state.Accumulated)
	}
}
