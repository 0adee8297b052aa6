package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAward(t *testing.T) {
	tx, err := NewAward("tx-1", "cr-1", 125, 200, TypeReward, "sync reward", Metadata{
		Source:       "sync",
		PointsGained: 250,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(125), tx.Amount)
	assert.Equal(t, int64(200), tx.BalanceBefore)
	assert.Equal(t, int64(325), tx.BalanceAfter)
	assert.NoError(t, tx.Validate())
}

func TestNewAward_RejectsNonPositive(t *testing.T) {
	_, err := NewAward("tx-1", "cr-1", 0, 100, TypeReward, "", Metadata{})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewAward("tx-1", "cr-1", -5, 100, TypeReward, "", Metadata{})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNewSpend(t *testing.T) {
	tx, err := NewSpend("tx-2", "cr-1", 10, 100, TypeFeed, "feed", Metadata{})
	require.NoError(t, err)

	assert.Equal(t, int64(-10), tx.Amount)
	assert.Equal(t, int64(90), tx.BalanceAfter)
}

func TestNewSpend_InsufficientBalance(t *testing.T) {
	// balance 5, feed costs 10: the spend must fail before anything is built
	_, err := NewSpend("tx-3", "cr-1", 10, 5, TypeFeed, "feed", Metadata{})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestNewSpend_ExactBalanceIsAllowed(t *testing.T) {
	tx, err := NewSpend("tx-4", "cr-1", 20, 20, TypeRevive, "revive", Metadata{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), tx.BalanceAfter)
}

func TestNewCounterpart(t *testing.T) {
	tx, err := NewCounterpart("tx-5", "cr-1", 40, TypeFeed, "fed by another creature", Metadata{
		CounterpartID: "cr-2",
		ActorID:       "cr-2",
	})
	require.NoError(t, err)

	// zero-amount marker: the balance does not move
	assert.Zero(t, tx.Amount)
	assert.Equal(t, int64(40), tx.BalanceBefore)
	assert.Equal(t, int64(40), tx.BalanceAfter)
	assert.Equal(t, "cr-2", tx.Metadata.CounterpartID)
	assert.NoError(t, tx.Validate())
}

func TestNewTransferPair(t *testing.T) {
	debit, credit, err := NewTransferPair("tx-d", "tx-c", "cr-x", "cr-y", 30, 100, 5, "gift")
	require.NoError(t, err)

	assert.Equal(t, int64(-30), debit.Amount)
	assert.Equal(t, int64(70), debit.BalanceAfter)
	assert.Equal(t, "cr-y", debit.Metadata.CounterpartID)
	assert.Equal(t, DirectionSent, debit.Metadata.Direction)

	assert.Equal(t, int64(30), credit.Amount)
	assert.Equal(t, int64(35), credit.BalanceAfter)
	assert.Equal(t, "cr-x", credit.Metadata.CounterpartID)
	assert.Equal(t, DirectionReceived, credit.Metadata.Direction)
}

func TestNewTransferPair_InsufficientSender(t *testing.T) {
	debit, credit, err := NewTransferPair("tx-d", "tx-c", "cr-x", "cr-y", 30, 20, 5, "gift")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, debit)
	assert.Nil(t, credit)
}

func TestNewTransferPair_RejectsSelf(t *testing.T) {
	_, _, err := NewTransferPair("tx-d", "tx-c", "cr-x", "cr-x", 30, 100, 100, "gift")
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestNewAdminAdjustment(t *testing.T) {
	tx, err := NewAdminAdjustment("tx-5", "cr-1", -40, 100, "refund duplicate training reward", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, TypeAdminAdjustment, tx.Type)
	assert.Equal(t, int64(60), tx.BalanceAfter)
	assert.Equal(t, "admin-1", tx.Metadata.ActorID)
}

func TestNewAdminAdjustment_Validation(t *testing.T) {
	_, err := NewAdminAdjustment("tx-5", "cr-1", 10, 100, "   ", "admin-1")
	assert.ErrorIs(t, err, ErrMissingReason)

	_, err = NewAdminAdjustment("tx-5", "cr-1", 10, 100, strings.Repeat("x", 501), "admin-1")
	assert.ErrorIs(t, err, ErrReasonTooLong)

	_, err = NewAdminAdjustment("tx-5", "cr-1", 0, 100, "noop", "admin-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewAdminAdjustment("tx-5", "cr-1", -200, 100, "too deep", "admin-1")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = NewAdminAdjustment("tx-5", "cr-1", 10, 100, "no actor", "")
	assert.ErrorIs(t, err, ErrMissingActor)
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		ID:            "tx-1",
		CreatureID:    "cr-1",
		Type:          TypeReward,
		Amount:        10,
		BalanceBefore: 0,
		BalanceAfter:  10,
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.BalanceAfter = 11
	assert.ErrorIs(t, mismatch.Validate(), ErrBalanceMismatch)

	negative := valid
	negative.Amount = -10
	negative.BalanceAfter = -10
	assert.ErrorIs(t, negative.Validate(), ErrInsufficientBalance)

	unknown := valid
	unknown.Type = TransactionType("loot")
	assert.ErrorIs(t, unknown.Validate(), ErrInvalidType)
}

func TestMetadata_Validate(t *testing.T) {
	assert.ErrorIs(t, Metadata{}.Validate(TypeGift), ErrMissingCounterpart)
	assert.ErrorIs(t, Metadata{CounterpartID: "cr-2"}.Validate(TypeGift), ErrInvalidDirection)
	assert.NoError(t, Metadata{CounterpartID: "cr-2", Direction: DirectionSent}.Validate(TypeGift))

	assert.ErrorIs(t, Metadata{}.Validate(TypeAdminAdjustment), ErrMissingActor)
	assert.ErrorIs(t, Metadata{Stage: 1}.Validate(TypeEvolution), ErrInvalidStageMeta)
	assert.NoError(t, Metadata{Stage: 2}.Validate(TypeEvolution))
	assert.NoError(t, Metadata{}.Validate(TypeReward))
}
