package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockPaymentRepository creates a GormPaymentRepository with a mocked SQL connection
func newMockPaymentRepository(t *testing.T) (*GormPaymentRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentRepository(gormDB), mock, mockDB
}

func paymentRows(id, tenantID, clientID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version", "tenant_id",
		"payment_number", "client_id", "amount", "applied_amount", "credited_amount",
		"currency", "status", "source", "source_reference", "received_at", "notes",
	}).AddRow(
		id, time.Now(), time.Now(), 1, tenantID,
		"PAY-20260831-00001", clientID, decimal.NewFromInt(100), decimal.Zero, decimal.Zero,
		"USD", billing.PaymentStatusCompleted, billing.PaymentSourceManual, "", time.Now(), "",
	)
}

func TestGormPaymentRepository_FindByIDForTenant(t *testing.T) {
	t.Run("finds existing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		tenantID := uuid.New()
		clientID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnRows(paymentRows(paymentID, tenantID, clientID))

		payment, err := repo.FindByIDForTenant(context.Background(), tenantID, paymentID)

		require.NoError(t, err)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, tenantID, payment.TenantID)
		assert.Equal(t, "PAY-20260831-00001", payment.PaymentNumber)
		assert.Equal(t, billing.PaymentStatusCompleted, payment.Status)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(100)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		payment, err := repo.FindByIDForTenant(context.Background(), tenantID, paymentID)

		assert.Nil(t, payment)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the row", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		tenantID := uuid.New()
		clientID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(tenantID, paymentID, 1).
			WillReturnRows(paymentRows(paymentID, tenantID, clientID))

		payment, err := repo.FindByIDForUpdate(context.Background(), tenantID, paymentID)

		require.NoError(t, err)
		assert.Equal(t, paymentID, payment.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_SaveWithLock(t *testing.T) {
	t.Run("updates when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		payment := &billing.Payment{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
			PaymentNumber:       "PAY-20260831-00001",
			ClientID:            uuid.New(),
			Amount:              decimal.NewFromInt(100),
			Status:              billing.PaymentStatusCompleted,
			Source:              billing.PaymentSourceManual,
			ReceivedAt:          time.Now(),
		}
		payment.IncrementVersion()

		mock.ExpectExec(`UPDATE "payments" SET .* WHERE id = .* AND version = .*`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), payment)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns conflict when no rows match", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		payment := &billing.Payment{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
			PaymentNumber:       "PAY-20260831-00001",
			ClientID:            uuid.New(),
			Amount:              decimal.NewFromInt(100),
			Status:              billing.PaymentStatusCompleted,
			Source:              billing.PaymentSourceManual,
			ReceivedAt:          time.Now(),
		}
		payment.IncrementVersion()

		mock.ExpectExec(`UPDATE "payments" SET .* WHERE id = .* AND version = .*`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), payment)

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", de.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_SumUnappliedByClient(t *testing.T) {
	repo, mock, mockDB := newMockPaymentRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	clientID := uuid.New()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount - applied_amount - credited_amount\), 0\) as total FROM "payments"`).
		WithArgs(tenantID, clientID, string(billing.PaymentStatusCompleted)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(decimal.NewFromInt(250)))

	total, err := repo.SumUnappliedByClient(context.Background(), tenantID, clientID)

	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(250)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
