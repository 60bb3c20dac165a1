/**
 * @description
 * This file implements the accrual decision state machine: given a user's
 * current commission state and the commission attached to an incoming sale,
 * it decides the user's new accumulated total and whether a threshold
 * notification fires. The function is pure so the store can execute it inside
 * a database transaction while tests exercise it directly.
 */

package domain

import "github.com/shopspring/decimal"

// CommissionState is the slice of the user row the accrual decision reads.
type CommissionState struct {
	Accumulated decimal.Decimal
	PolicyType  NotificationPolicyType
	Threshold   decimal.Decimal
}

// ThresholdNotificationData carries the pre-reset accumulated total so the
// user sees the true crossing value, not the carried remainder.
type ThresholdNotificationData struct {
	AccumulatedAmount decimal.Decimal `json:"accumulated_amount"`
	Threshold         decimal.Decimal `json:"threshold"`
}

// AccrualDecision is the outcome of applying one sale's commission to a
// user's commission state.
type AccrualDecision struct {
	ShouldNotify     bool
	FinalAccumulated decimal.Decimal
	NotificationType NotificationType
	NotificationData *ThresholdNotificationData
}

// DecideAccrual applies the user's notification policy to one commission
// amount.
//
// Per-sale policy never accrues: the counter is left untouched and the caller
// enqueues a per-sale notification regardless of ShouldNotify. The threshold
// policy accrues, and when the new total reaches a positive threshold it
// subtracts exactly the threshold (remainder carrying) rather than resetting
// to zero, so fractional overage rolls into the next cycle.
func DecideAccrual(state CommissionState, commission decimal.Decimal) AccrualDecision {
	if state.PolicyType != PolicyAccumulatedThreshold {
		return AccrualDecision{
			ShouldNotify:     false,
			FinalAccumulated: state.Accumulated,
			NotificationType: NotificationTypePerSale,
		}
	}

	newAccumulated := state.Accumulated.Add(commission)

	if state.Threshold.IsPositive() && newAccumulated.GreaterThanOrEqual(state.Threshold) {
		return AccrualDecision{
			ShouldNotify:     true,
			FinalAccumulated: newAccumulated.Sub(state.Threshold),
			NotificationType: NotificationTypeThreshold,
			NotificationData: &ThresholdNotificationData{
				AccumulatedAmount: newAccumulated,
				Threshold:         state.Threshold,
			},
		}
	}

	return AccrualDecision{
		ShouldNotify:     false,
		FinalAccumulated: newAccumulated,
		NotificationType: NotificationTypeThreshold,
	}
}
