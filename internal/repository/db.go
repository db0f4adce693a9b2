package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/Creativestefan/startwealth-capital-sub003/assets"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Wallet() WalletRepository
	WalletTransaction() WalletTransactionRepository
	Ledger() LedgerRepository
	InvestmentPlan() InvestmentPlanRepository
	Investment() InvestmentRepository
	Property() PropertyRepository
	PropertyTransaction() PropertyTransactionRepository
	Equipment() EquipmentRepository
	EquipmentTransaction() EquipmentTransactionRepository
	Referral() ReferralRepository
	Notification() NotificationRepository
	Activity() ActivityRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db                       *sqlx.DB
	userRepo                 UserRepository
	walletRepo               WalletRepository
	walletTransactionRepo    WalletTransactionRepository
	ledgerRepo               LedgerRepository
	investmentPlanRepo       InvestmentPlanRepository
	investmentRepo           InvestmentRepository
	propertyRepo             PropertyRepository
	propertyTransactionRepo  PropertyTransactionRepository
	equipmentRepo            EquipmentRepository
	equipmentTransactionRepo EquipmentTransactionRepository
	referralRepo             ReferralRepository
	notificationRepo         NotificationRepository
	activityRepo             ActivityRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	// Run migrations if enabled
	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	// Return DatabaseImpl instance without pre-initializing repositories
	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.db)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) WalletTransaction() WalletTransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletTransactionRepo == nil {
		d.walletTransactionRepo = NewWalletTransactionRepository(d.db)
	}
	return d.walletTransactionRepo
}

func (d *DatabaseImpl) Ledger() LedgerRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledgerRepo == nil {
		d.ledgerRepo = NewLedgerRepository(d.db)
	}
	return d.ledgerRepo
}

func (d *DatabaseImpl) InvestmentPlan() InvestmentPlanRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.investmentPlanRepo == nil {
		d.investmentPlanRepo = NewInvestmentPlanRepository(d.db)
	}
	return d.investmentPlanRepo
}

func (d *DatabaseImpl) Investment() InvestmentRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.investmentRepo == nil {
		d.investmentRepo = NewInvestmentRepository(d.db)
	}
	return d.investmentRepo
}

func (d *DatabaseImpl) Property() PropertyRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.propertyRepo == nil {
		d.propertyRepo = NewPropertyRepository(d.db)
	}
	return d.propertyRepo
}

func (d *DatabaseImpl) PropertyTransaction() PropertyTransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.propertyTransactionRepo == nil {
		d.propertyTransactionRepo = NewPropertyTransactionRepository(d.db)
	}
	return d.propertyTransactionRepo
}

func (d *DatabaseImpl) Equipment() EquipmentRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.equipmentRepo == nil {
		d.equipmentRepo = NewEquipmentRepository(d.db)
	}
	return d.equipmentRepo
}

func (d *DatabaseImpl) EquipmentTransaction() EquipmentTransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.equipmentTransactionRepo == nil {
		d.equipmentTransactionRepo = NewEquipmentTransactionRepository(d.db)
	}
	return d.equipmentTransactionRepo
}

func (d *DatabaseImpl) Referral() ReferralRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.referralRepo == nil {
		d.referralRepo = NewReferralRepository(d.db)
	}
	return d.referralRepo
}

func (d *DatabaseImpl) Notification() NotificationRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.notificationRepo == nil {
		d.notificationRepo = NewNotificationRepository(d.db)
	}
	return d.notificationRepo
}

func (d *DatabaseImpl) Activity() ActivityRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activityRepo == nil {
		d.activityRepo = NewActivityRepository(d.db)
	}
	return d.activityRepo
}
