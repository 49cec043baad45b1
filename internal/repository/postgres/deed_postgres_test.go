package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"deedapi/internal/model"
	"deedapi/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func deedRows(d *model.Deed) *sqlmock.Rows {
	var coopID any
	if d.HousingCooperativeID != nil {
		coopID = *d.HousingCooperativeID
	}
	return sqlmock.NewRows([]string{
		"id", "credit_number", "status", "bank_id", "housing_cooperative_id",
		"apartment_address", "apartment_postal_code", "apartment_city", "apartment_number",
		"created_by", "created_by_email", "created_at",
	}).AddRow(d.ID, d.CreditNumber, d.Status, d.BankID, coopID,
		d.ApartmentAddress, d.ApartmentPostalCode, d.ApartmentCity, d.ApartmentNumber,
		d.CreatedBy, d.CreatedByEmail, d.CreatedAt)
}

func TestDeedPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeedPostgres(db)
	ctx := context.Background()

	coopID := "coop-1"
	deed := &model.Deed{
		ID:                   "deed-1",
		CreditNumber:         "KR-2024-001",
		Status:               model.StatusCreated,
		BankID:               42,
		HousingCooperativeID: &coopID,
		ApartmentAddress:     "Storgatan 1",
		CreatedAt:            time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO mortgage_deeds").
		WithArgs(deed.ID, deed.CreditNumber, deed.Status, deed.BankID, coopID,
			deed.ApartmentAddress, deed.ApartmentPostalCode, deed.ApartmentCity, deed.ApartmentNumber,
			deed.CreatedBy, deed.CreatedByEmail, deed.CreatedAt).
		WillReturnRows(deedRows(deed))

	result, err := repo.Create(ctx, deed)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, deed.ID, result.ID)
	assert.Equal(t, model.StatusCreated, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeedPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeedPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		deed := &model.Deed{ID: "deed-1", CreditNumber: "KR-1", Status: model.StatusCreated, CreatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM mortgage_deeds WHERE id = ?").
			WithArgs("deed-1").
			WillReturnRows(deedRows(deed))

		got, err := repo.FindByID(ctx, "deed-1")

		assert.NoError(t, err)
		assert.Equal(t, "deed-1", got.ID)
		assert.Nil(t, got.HousingCooperativeID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM mortgage_deeds WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDeedPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeedPostgres(db)
	ctx := context.Background()

	t.Run("no filter", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM mortgage_deeds").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		deed := &model.Deed{ID: "deed-1", Status: model.StatusCreated, CreatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM mortgage_deeds ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(deedRows(deed))

		res, err := repo.List(ctx, repository.DeedFilter{}, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("filtered by status and borrower person number", func(t *testing.T) {
		status := model.StatusCompleted
		f := repository.DeedFilter{Status: &status, BorrowerPersonNumber: "198001011234"}

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM mortgage_deeds WHERE status = (.+) AND EXISTS").
			WithArgs(status, "198001011234").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM mortgage_deeds WHERE status = (.+) AND EXISTS (.+) ORDER BY").
			WithArgs(status, "198001011234", 20, 0).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "credit_number", "status", "bank_id", "housing_cooperative_id",
				"apartment_address", "apartment_postal_code", "apartment_city", "apartment_number",
				"created_by", "created_by_email", "created_at",
			}))

		res, err := repo.List(ctx, f, repository.PageQuery{Limit: 20, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestDeedPostgres_AdvanceStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeedPostgres(db)
	ctx := context.Background()

	t.Run("advances when guard matches", func(t *testing.T) {
		mock.ExpectExec("UPDATE mortgage_deeds SET status = (.+) WHERE id = (.+) AND status IN").
			WithArgs(model.StatusPendingBorrowerSignature, "deed-1", model.StatusCreated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.AdvanceStatus(ctx, "deed-1",
			[]model.DeedStatus{model.StatusCreated}, model.StatusPendingBorrowerSignature)

		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no-op when already past the guard", func(t *testing.T) {
		mock.ExpectExec("UPDATE mortgage_deeds SET status = (.+) WHERE id = (.+) AND status IN").
			WithArgs(model.StatusCompleted, "deed-1", model.StatusPendingCooperativeSignature).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.AdvanceStatus(ctx, "deed-1",
			[]model.DeedStatus{model.StatusPendingCooperativeSignature}, model.StatusCompleted)

		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects empty source set", func(t *testing.T) {
		_, err := repo.AdvanceStatus(ctx, "deed-1", nil, model.StatusCompleted)
		assert.Error(t, err)
	})
}

func TestDeedPostgres_Stats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDeedPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM mortgage_deeds").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM housing_cooperatives").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM mortgage_deeds GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(model.StatusCreated, 1).
			AddRow(model.StatusCompleted, 3))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM borrowers").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	stats, err := repo.Stats(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDeeds)
	assert.Equal(t, 2, stats.TotalCooperatives)
	assert.Equal(t, 3, stats.StatusDistribution[model.StatusCompleted])
	assert.InDelta(t, 1.5, stats.AverageBorrowersPerDeed, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
