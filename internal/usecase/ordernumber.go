package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

const orderNumberAttempts = 10

var errOrderNumberExhausted = errors.New("order number: no free number")

// ORD-YYYYMMDD-NNNN
func FormatOrderNumber(t time.Time, n int) string {
	return fmt.Sprintf("ORD-%s-%04d", t.Format("20060102"), n)
}

// 注文番号を作る。日付＋4桁ランダムで、使用済みなら引き直す。
type OrderNumberGenerator struct {
	clock Clock
	intn  func(n int) int
}

func NewOrderNumberGenerator(clock Clock) *OrderNumberGenerator {
	return &OrderNumberGenerator{clock: clock, intn: rand.IntN}
}

func (g *OrderNumberGenerator) Next(ctx context.Context, exists func(ctx context.Context, number string) (bool, error)) (string, error) {
	now := g.clock.Now()
	for i := 0; i < orderNumberAttempts; i++ {
		num := FormatOrderNumber(now, g.intn(10000))
		taken, err := exists(ctx, num)
		if err != nil {
			return "", err
		}
		if !taken {
			return num, nil
		}
	}
	return "", errOrderNumberExhausted
}
