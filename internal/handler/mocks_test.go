package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/cache"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/errHandler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/helper"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/repository"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/stream"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

// The mocks implement the full repository interfaces but only wire
// mock.Called into the methods the tests exercise; everything else is a
// no-op stub.

type MockDatabase struct {
	UserRepo                 *MockUserRepo
	WalletRepo               *MockWalletRepo
	WalletTransactionRepo    *MockWalletTransactionRepo
	LedgerRepo               *MockLedgerRepo
	InvestmentPlanRepo       *MockInvestmentPlanRepo
	InvestmentRepo           *MockInvestmentRepo
	PropertyRepo             *MockPropertyRepo
	PropertyTransactionRepo  *MockPropertyTransactionRepo
	EquipmentRepo            *MockEquipmentRepo
	EquipmentTransactionRepo *MockEquipmentTransactionRepo
	ReferralRepo             *MockReferralRepo
	NotificationRepo         *MockNotificationRepo
	ActivityRepo             *MockActivityRepo
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		UserRepo:                 new(MockUserRepo),
		WalletRepo:               new(MockWalletRepo),
		WalletTransactionRepo:    new(MockWalletTransactionRepo),
		LedgerRepo:               new(MockLedgerRepo),
		InvestmentPlanRepo:       new(MockInvestmentPlanRepo),
		InvestmentRepo:           new(MockInvestmentRepo),
		PropertyRepo:             new(MockPropertyRepo),
		PropertyTransactionRepo:  new(MockPropertyTransactionRepo),
		EquipmentRepo:            new(MockEquipmentRepo),
		EquipmentTransactionRepo: new(MockEquipmentTransactionRepo),
		ReferralRepo:             new(MockReferralRepo),
		NotificationRepo:         new(MockNotificationRepo),
		ActivityRepo:             new(MockActivityRepo),
	}
}

func (m *MockDatabase) User() repository.UserRepository               { return m.UserRepo }
func (m *MockDatabase) Wallet() repository.WalletRepository           { return m.WalletRepo }
func (m *MockDatabase) Ledger() repository.LedgerRepository           { return m.LedgerRepo }
func (m *MockDatabase) Property() repository.PropertyRepository       { return m.PropertyRepo }
func (m *MockDatabase) Equipment() repository.EquipmentRepository     { return m.EquipmentRepo }
func (m *MockDatabase) Referral() repository.ReferralRepository       { return m.ReferralRepo }
func (m *MockDatabase) Activity() repository.ActivityRepository       { return m.ActivityRepo }
func (m *MockDatabase) Investment() repository.InvestmentRepository   { return m.InvestmentRepo }
func (m *MockDatabase) InvestmentPlan() repository.InvestmentPlanRepository {
	return m.InvestmentPlanRepo
}
func (m *MockDatabase) WalletTransaction() repository.WalletTransactionRepository {
	return m.WalletTransactionRepo
}
func (m *MockDatabase) PropertyTransaction() repository.PropertyTransactionRepository {
	return m.PropertyTransactionRepo
}
func (m *MockDatabase) EquipmentTransaction() repository.EquipmentTransactionRepository {
	return m.EquipmentTransactionRepo
}
func (m *MockDatabase) Notification() repository.NotificationRepository {
	return m.NotificationRepo
}

func (m *MockDatabase) Close() error { return nil }

func (m *MockDatabase) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("transactions are not supported by the mock database")
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(user *repository.User, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockUserRepo) GetOne(id string) (*repository.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) GetByEmail(email string) (*repository.User, bool, error) {
	args := m.Called(email)
	user, _ := args.Get(0).(*repository.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	return false, nil
}

func (m *MockUserRepo) FindByReferralCode(code string) (*repository.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) UpdateKycStatus(id, status string) error { return nil }

func (m *MockUserRepo) UpdatePassword(id, hashedPassword string) error { return nil }

func (m *MockUserRepo) Lock(id string) error { return nil }

type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) Insert(wallet *repository.Wallet, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockWalletRepo) GetOne(id string) (*repository.Wallet, bool, error) {
	args := m.Called(id)
	wallet, _ := args.Get(0).(*repository.Wallet)
	return wallet, args.Bool(1), args.Error(2)
}

func (m *MockWalletRepo) GetByUserId(userID string) (*repository.Wallet, bool, error) {
	args := m.Called(userID)
	wallet, _ := args.Get(0).(*repository.Wallet)
	return wallet, args.Bool(1), args.Error(2)
}

func (m *MockWalletRepo) Lock(id string) error { return nil }

type MockWalletTransactionRepo struct {
	mock.Mock
}

func (m *MockWalletTransactionRepo) Insert(transaction *repository.WalletTransaction) (*repository.WalletTransaction, error) {
	args := m.Called(transaction)
	trans, _ := args.Get(0).(*repository.WalletTransaction)
	return trans, args.Error(1)
}

func (m *MockWalletTransactionRepo) GetOne(id string) (*repository.WalletTransaction, bool, error) {
	args := m.Called(id)
	trans, _ := args.Get(0).(*repository.WalletTransaction)
	return trans, args.Bool(1), args.Error(2)
}

func (m *MockWalletTransactionRepo) GetAllByWalletId(walletID string, filters *repository.TransactionFilters) ([]repository.WalletTransaction, error) {
	return nil, nil
}

func (m *MockWalletTransactionRepo) FindByReference(referenceNumber string) (*repository.WalletTransaction, bool, error) {
	args := m.Called(referenceNumber)
	trans, _ := args.Get(0).(*repository.WalletTransaction)
	return trans, args.Bool(1), args.Error(2)
}

func (m *MockWalletTransactionRepo) UpdateStatus(id, status string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

// MockLedgerRepo mimics the real ledger closely enough for handler tests:
// the domain writes run synchronously and their error aborts the move, the
// same way a rollback would.
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) Move(ctx context.Context, entry *repository.LedgerEntry, domain repository.DomainWrites) (*repository.WalletTransaction, error) {
	args := m.Called(entry)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	if domain != nil {
		if err := domain(nil); err != nil {
			return nil, err
		}
	}

	return args.Get(0).(*repository.WalletTransaction), nil
}

func (m *MockLedgerRepo) Settle(ctx context.Context, transactionID string, approve bool, domain repository.DomainWrites) (*repository.WalletTransaction, error) {
	args := m.Called(transactionID, approve)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	if domain != nil {
		if err := domain(nil); err != nil {
			return nil, err
		}
	}

	return args.Get(0).(*repository.WalletTransaction), nil
}

type MockInvestmentPlanRepo struct {
	mock.Mock
}

func (m *MockInvestmentPlanRepo) GetAll() ([]repository.InvestmentPlan, error) { return nil, nil }

func (m *MockInvestmentPlanRepo) GetAllByCategory(category string) ([]repository.InvestmentPlan, error) {
	return nil, nil
}

func (m *MockInvestmentPlanRepo) GetOneByCategoryAndType(category, planType string) (*repository.InvestmentPlan, bool, error) {
	args := m.Called(category, planType)
	plan, _ := args.Get(0).(*repository.InvestmentPlan)
	return plan, args.Bool(1), args.Error(2)
}

type MockInvestmentRepo struct {
	mock.Mock
}

func (m *MockInvestmentRepo) Insert(investment *repository.Investment, tx *sqlx.Tx) (string, error) {
	args := m.Called(investment)
	return args.String(0), args.Error(1)
}

func (m *MockInvestmentRepo) GetOne(id string) (*repository.Investment, bool, error) {
	args := m.Called(id)
	investment, _ := args.Get(0).(*repository.Investment)
	return investment, args.Bool(1), args.Error(2)
}

func (m *MockInvestmentRepo) GetAllByUserId(userID string) ([]repository.Investment, error) {
	return nil, nil
}

func (m *MockInvestmentRepo) Mature(id string, actualReturn float64, tx *sqlx.Tx) (bool, error) {
	args := m.Called(id, actualReturn)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvestmentRepo) Cancel(id string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

func (m *MockInvestmentRepo) FlagCommissionPaid(id string, tx *sqlx.Tx) error { return nil }

type MockPropertyRepo struct {
	mock.Mock
}

func (m *MockPropertyRepo) GetAll() ([]repository.Property, error) { return nil, nil }

func (m *MockPropertyRepo) GetOne(id string) (*repository.Property, bool, error) {
	args := m.Called(id)
	property, _ := args.Get(0).(*repository.Property)
	return property, args.Bool(1), args.Error(2)
}

func (m *MockPropertyRepo) MarkSoldOut(id string, tx *sqlx.Tx) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepo) Relist(id string, tx *sqlx.Tx) error { return nil }

type MockPropertyTransactionRepo struct {
	mock.Mock
}

func (m *MockPropertyTransactionRepo) Insert(transaction *repository.PropertyTransaction, tx *sqlx.Tx) (string, error) {
	args := m.Called(transaction)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyTransactionRepo) GetOne(id string) (*repository.PropertyTransaction, bool, error) {
	return nil, false, nil
}

func (m *MockPropertyTransactionRepo) GetAllByUserId(userID string) ([]repository.PropertyTransaction, error) {
	return nil, nil
}

func (m *MockPropertyTransactionRepo) PayInstallment(id string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

func (m *MockPropertyTransactionRepo) UpdateStatus(id, from, to string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

type MockEquipmentRepo struct {
	mock.Mock
}

func (m *MockEquipmentRepo) GetAll() ([]repository.Equipment, error) { return nil, nil }

func (m *MockEquipmentRepo) GetOne(id string) (*repository.Equipment, bool, error) {
	return nil, false, nil
}

type MockEquipmentTransactionRepo struct {
	mock.Mock
}

func (m *MockEquipmentTransactionRepo) Insert(transaction *repository.EquipmentTransaction, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockEquipmentTransactionRepo) GetOne(id string) (*repository.EquipmentTransaction, bool, error) {
	return nil, false, nil
}

func (m *MockEquipmentTransactionRepo) GetAllByUserId(userID string) ([]repository.EquipmentTransaction, error) {
	return nil, nil
}

func (m *MockEquipmentTransactionRepo) PayInstallment(id string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

func (m *MockEquipmentTransactionRepo) UpdateStatus(id, from, to string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

type MockReferralRepo struct {
	mock.Mock
}

func (m *MockReferralRepo) InsertCommission(commission *repository.ReferralCommission, tx *sqlx.Tx) (string, error) {
	args := m.Called(commission)
	return args.String(0), args.Error(1)
}

func (m *MockReferralRepo) GetCommission(id string) (*repository.ReferralCommission, bool, error) {
	return nil, false, nil
}

func (m *MockReferralRepo) GetCommissionsByReferrerId(userID string) ([]repository.ReferralCommission, error) {
	return nil, nil
}

func (m *MockReferralRepo) GetReferredUsers(userID string) ([]repository.User, error) {
	return nil, nil
}

func (m *MockReferralRepo) MarkCommissionPaid(id string, tx *sqlx.Tx) (bool, error) {
	return true, nil
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Insert(notification *repository.Notification, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockNotificationRepo) GetAllByUserId(userID string, limit, offset int) ([]repository.Notification, error) {
	return nil, nil
}

func (m *MockNotificationRepo) MarkRead(id, userID string) (bool, error) {
	return true, nil
}

type MockActivityRepo struct {
	mock.Mock

	// FailedAttempts is what CountConsecutiveFailedLoginAttempts reports.
	FailedAttempts int
}

func (m *MockActivityRepo) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	return m.FailedAttempts
}

func (m *MockActivityRepo) Insert(log *repository.ActivityLog) (*repository.ActivityLog, error) {
	return &repository.ActivityLog{}, nil
}

func newTestErrHandler() *errHandler.ErrorHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return errHandler.New("", "http://localhost", nil, logger)
}

func newTestHelper(t *testing.T) *helper.HelperRepository {
	t.Helper()

	var baseURL = "http://localhost"
	var wg sync.WaitGroup
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return helper.New(&baseURL, &wg, logger)
}

func newTestKafka() *stream.KafkaStream {
	return stream.New("localhost:9092")
}

// newTestCache points at a local address; cache errors are non-fatal in the
// handlers, so the tests don't need a live redis.
func newTestCache() *cache.Cache {
	return cache.New("localhost:6379", 0)
}

var _ repository.Database = (*MockDatabase)(nil)
