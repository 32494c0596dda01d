package services

import (
	"context"
	"testing"

	"task-points-market/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesWithRate(rate int64) Rules {
	r := DefaultRules()
	r.CoinRate = rate
	return r
}

func TestRechargeCreditsOnVerify(t *testing.T) {
	env := newTestEnv(t, rulesWithRate(10))
	ctx := context.Background()
	env.register(t, 2, nil)

	req, err := env.Recharges.RequestRecharge(ctx, RechargeInput{
		UserID: 2,
		Amount: 100,
		Method: models.PaymentBKash,
		TrxID:  " 01712345678, TX1234567 ",
	})
	require.NoError(t, err)
	assert.False(t, req.Verified)
	assert.Equal(t, "01712345678, TX1234567", req.TrxID)
	assert.Equal(t, int64(200), env.points(t, 2), "nothing credited before verification")

	got, err := env.Recharges.verifyRecharge(ctx, testAdmin, req.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, int64(1000), got.CreditedPoints)
	assert.Equal(t, int64(1200), env.points(t, 2))

	_, err = env.Recharges.verifyRecharge(ctx, testAdmin, req.ID)
	assert.Equal(t, KindAlreadyProcessed, KindOf(err))
	assert.Equal(t, int64(1200), env.points(t, 2))

	_, err = env.Recharges.verifyRecharge(ctx, testAdmin, 404)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRequestRechargeValidation(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.register(t, 2, nil)

	cases := map[string]RechargeInput{
		"zero amount":  {UserID: 2, Amount: 0, Method: models.PaymentNagad, TrxID: "tx"},
		"bad method":   {UserID: 2, Amount: 10, Method: "PayPal", TrxID: "tx"},
		"missing trx":  {UserID: 2, Amount: 10, Method: models.PaymentNagad, TrxID: " "},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.Recharges.RequestRecharge(ctx, in)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}

	_, err := env.Recharges.RequestRecharge(ctx, RechargeInput{UserID: 9, Amount: 10, Method: models.PaymentNagad, TrxID: "tx"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestWithdrawalDebitsAtRequest(t *testing.T) {
	env := newTestEnv(t, rulesWithRate(2))
	ctx := context.Background()
	env.fund(t, 2, 500)

	req, err := env.Withdrawals.RequestWithdrawal(ctx, WithdrawalInput{
		UserID: 2,
		Amount: 100,
		Method: models.PaymentNagad,
		Number: "01812345678",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), req.DebitedPoints)
	assert.Equal(t, int64(300), env.points(t, 2))

	got, err := env.Withdrawals.verifyWithdrawal(ctx, testAdmin, req.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, int64(300), env.points(t, 2), "verification moves no points")

	_, err = env.Withdrawals.verifyWithdrawal(ctx, testAdmin, req.ID)
	assert.Equal(t, KindAlreadyProcessed, KindOf(err))
}

func TestWithdrawalInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, rulesWithRate(2))
	ctx := context.Background()
	env.fund(t, 2, 150)

	_, err := env.Withdrawals.RequestWithdrawal(ctx, WithdrawalInput{
		UserID: 2,
		Amount: 100,
		Method: models.PaymentBKash,
		Number: "01812345678",
	})
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
	assert.Equal(t, int64(150), env.points(t, 2))

	var rows int64
	require.NoError(t, env.DB.Model(&models.WithdrawalRequest{}).Count(&rows).Error)
	assert.Zero(t, rows)

	_, err = env.Withdrawals.RequestWithdrawal(ctx, WithdrawalInput{UserID: 2, Amount: 1, Method: models.PaymentBKash})
	assert.Equal(t, KindInvalidInput, KindOf(err))
}
