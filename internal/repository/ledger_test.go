package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockLedger(t *testing.T) (LedgerRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDb.Close() })

	db := sqlx.NewDb(mockDb, "sqlmock")

	return NewLedgerRepository(db), mock
}

func transactionColumns() []string {
	return []string{
		"id", "wallet_id", "type", "direction", "amount", "status",
		"reference_number", "crypto_type", "tx_hash", "description",
		"created_at", "updated_at",
	}
}

func TestLedgerMove_InsufficientFundsRollsBack(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs("wallet-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(50.0))
	mock.ExpectRollback()

	entry := &LedgerEntry{
		WalletID:  "wallet-1",
		Type:      TransactionTypeWithdrawal,
		Direction: TransactionDirectionDebit,
		Amount:    100,
	}

	trans, err := ledger.Move(context.Background(), entry, nil)

	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Nil(t, trans)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerMove_DebitUpdatesBalanceAndWritesLedgerRow(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs("wallet-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(500.0))
	mock.ExpectExec(`UPDATE wallets SET balance=balance-\$1`).
		WithArgs(100.0, "wallet-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO wallet_transactions").
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow("trans-1", "wallet-1", TransactionTypeWithdrawal, TransactionDirectionDebit,
				100.0, TransactionStatusPending, "ref-1", nil, nil, nil, time.Now(), nil))
	mock.ExpectCommit()

	entry := &LedgerEntry{
		WalletID:  "wallet-1",
		Type:      TransactionTypeWithdrawal,
		Direction: TransactionDirectionDebit,
		Amount:    100,
		Status:    TransactionStatusPending,
	}

	var domainRan bool

	trans, err := ledger.Move(context.Background(), entry, func(tx *sqlx.Tx) error {
		domainRan = true
		return nil
	})

	require.NoError(t, err)
	require.True(t, domainRan)
	require.Equal(t, "trans-1", trans.ID)
	require.Equal(t, TransactionStatusPending, trans.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerMove_DomainErrorRollsBackEverything(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs("wallet-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(500.0))
	mock.ExpectExec(`UPDATE wallets SET balance=balance-\$1`).
		WithArgs(100.0, "wallet-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO wallet_transactions").
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow("trans-1", "wallet-1", TransactionTypeInvestment, TransactionDirectionDebit,
				100.0, TransactionStatusCompleted, "ref-1", nil, nil, nil, time.Now(), nil))
	mock.ExpectRollback()

	entry := &LedgerEntry{
		WalletID:  "wallet-1",
		Type:      TransactionTypeInvestment,
		Direction: TransactionDirectionDebit,
		Amount:    100,
	}

	domainErr := errors.New("dependent write failed")

	trans, err := ledger.Move(context.Background(), entry, func(tx *sqlx.Tx) error {
		return domainErr
	})

	require.ErrorIs(t, err, domainErr)
	require.Nil(t, trans)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerMove_RejectsInvalidEntries(t *testing.T) {
	ledger, mock := newMockLedger(t)

	_, err := ledger.Move(context.Background(), &LedgerEntry{
		WalletID:  "wallet-1",
		Direction: "sideways",
		Amount:    100,
	}, nil)
	require.Error(t, err)

	_, err = ledger.Move(context.Background(), &LedgerEntry{
		WalletID:  "wallet-1",
		Direction: TransactionDirectionDebit,
		Amount:    0,
	}, nil)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerSettle_DepositApprovalCreditsWallet(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM wallet_transactions`).
		WithArgs("trans-1").
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow("trans-1", "wallet-1", TransactionTypeDeposit, TransactionDirectionCredit,
				250.0, TransactionStatusPending, "ref-1", "BTC", "0xabc", nil, time.Now(), nil))
	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs("wallet-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10.0))
	mock.ExpectExec(`UPDATE wallets SET balance=balance\+\$1`).
		WithArgs(250.0, "wallet-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE wallet_transactions SET status").
		WithArgs(TransactionStatusCompleted, "trans-1", TransactionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trans, err := ledger.Settle(context.Background(), "trans-1", true, nil)

	require.NoError(t, err)
	require.Equal(t, TransactionStatusCompleted, trans.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerSettle_DepositDeclineLeavesBalanceUntouched(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM wallet_transactions`).
		WithArgs("trans-1").
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow("trans-1", "wallet-1", TransactionTypeDeposit, TransactionDirectionCredit,
				250.0, TransactionStatusPending, "ref-1", "BTC", "0xabc", nil, time.Now(), nil))
	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs("wallet-1").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10.0))
	mock.ExpectExec("UPDATE wallet_transactions SET status").
		WithArgs(TransactionStatusFailed, "trans-1", TransactionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trans, err := ledger.Settle(context.Background(), "trans-1", false, nil)

	require.NoError(t, err)
	require.Equal(t, TransactionStatusFailed, trans.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerSettle_AlreadySettledRejected(t *testing.T) {
	ledger, mock := newMockLedger(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM wallet_transactions`).
		WithArgs("trans-1").
		WillReturnRows(sqlmock.NewRows(transactionColumns()).
			AddRow("trans-1", "wallet-1", TransactionTypeDeposit, TransactionDirectionCredit,
				250.0, TransactionStatusCompleted, "ref-1", nil, nil, nil, time.Now(), nil))
	mock.ExpectRollback()

	trans, err := ledger.Settle(context.Background(), "trans-1", true, nil)

	require.ErrorIs(t, err, ErrIneligibleState)
	require.Nil(t, trans)
	require.NoError(t, mock.ExpectationsWereMet())
}
