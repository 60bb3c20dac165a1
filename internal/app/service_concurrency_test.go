package app

import (
	"context"
	"sync"
	"testing"

	"github.com/salespulse/commission-service/internal/domain"
	"github.com/salespulse/commission-service/internal/store"
	"github.com/shopspring/decimal"
)

// inMemoryLedger mimics the row-lock serialization of the real store: all
// accrual transactions for the single tracked user run one at a time.
type inMemoryLedger struct {
	store.Repository

	mu    sync.Mutex
	state domain.CommissionState
	sales []*domain.Sale
}

func (l *inMemoryLedger) ProcessSaleAtomic(ctx context.Context, userID string, sale *domain.Sale, decide store.AccrualDecisionFunc) (*domain.AccrualDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	decision := decide(l.state)
	l.state.Accumulated = decision.FinalAccumulated
	sale.NotificationSent = decision.ShouldNotify
	l.sales = append(l.sales, sale)
	return &decision, nil
}

func TestProcessSale_ConcurrentAccrualsNeverLoseCommission(t *testing.T) {
	const (
		workers        = 8
		salesPerWorker = 25
	)
	commission := dec("33.33")
	threshold := dec("100")

	ledger := &inMemoryLedger{
		state: domain.CommissionState{
			Accumulated: decimal.Zero,
			PolicyType:  domain.PolicyAccumulatedThreshold,
			Threshold:   threshold,
		},
	}
	service := NewService(ledger)

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		notifications int
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < salesPerWorker; i++ {
				result, err := service.ProcessSale(context.Background(), "user-1", domain.CreateSaleData{OrderID: "ord"}, commission)
				if err != nil {
					t.Errorf("worker %d: unexpected error: %v", worker, err)
					return
				}
				if result.ShouldNotify {
					mu.Lock()
					notifications++
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	totalSales := int64(workers * salesPerWorker)
	total := commission.Mul(decimal.NewFromInt(totalSales))
	expectedNotifications := int(total.Div(threshold).IntPart())
	expectedRemainder := total.Sub(threshold.Mul(decimal.NewFromInt(int64(expectedNotifications))))

	if notifications != expectedNotifications {
		t.Fatalf("expected %d threshold notifications for %d sales, got %d", expectedNotifications, totalSales, notifications)
	}
	if !ledger.state.Accumulated.Equal(expectedRemainder) {
		t.Fatalf("expected final remainder %s, got %s", expectedRemainder, ledger.state.Accumulated)
	}
	if got := len(ledger.sales); got != int(totalSales) {
		t.Fatalf("expected %d sale records, got %d", totalSales, got)
	}
}
