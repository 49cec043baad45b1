package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"deedapi/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSignerPostgres_CreateBorrowers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignerPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("batch of two", func(t *testing.T) {
		borrowers := []model.Borrower{
			{ID: "b-1", DeedID: "deed-1", Name: "Anna Andersson", PersonNumber: "198001011234", Email: "anna@example.com", OwnershipShare: 60, CreatedAt: now},
			{ID: "b-2", DeedID: "deed-1", Name: "Bodil Ek", PersonNumber: "198505052345", Email: "bodil@example.com", OwnershipShare: 40, CreatedAt: now},
		}

		rows := sqlmock.NewRows([]string{"id", "deed_id", "name", "person_number", "email", "ownership_share", "signed_at", "created_at"}).
			AddRow("b-1", "deed-1", "Anna Andersson", "198001011234", "anna@example.com", 60.0, nil, now).
			AddRow("b-2", "deed-1", "Bodil Ek", "198505052345", "bodil@example.com", 40.0, nil, now)

		mock.ExpectQuery("INSERT INTO borrowers").
			WithArgs("b-1", "deed-1", "Anna Andersson", "198001011234", "anna@example.com", 60.0, now,
				"b-2", "deed-1", "Bodil Ek", "198505052345", "bodil@example.com", 40.0, now).
			WillReturnRows(rows)

		got, err := repo.CreateBorrowers(ctx, borrowers)

		assert.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Nil(t, got[0].SignedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := repo.CreateBorrowers(ctx, nil)
		assert.Error(t, err)
	})
}

func TestSignerPostgres_MarkSigned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignerPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("borrower signs", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE borrowers SET signed_at = (.+) WHERE id = (.+) AND signed_at IS NULL").
			WithArgs(now, "b-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FILTER \\(WHERE signed_at IS NOT NULL\\), COUNT\\(\\*\\)").
			WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"signed", "total"}).AddRow(1, 2))
		mock.ExpectCommit()

		p, err := repo.MarkSigned(ctx, model.BorrowerRef("b-1"), now)

		assert.NoError(t, err)
		assert.Equal(t, 1, p.Signed)
		assert.Equal(t, 2, p.Total)
		assert.False(t, p.AllSigned())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cooperative signer completes roster", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE cooperative_signers SET signed_at = (.+) WHERE id = (.+) AND signed_at IS NULL").
			WithArgs(now, "cs-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FILTER \\(WHERE signed_at IS NOT NULL\\), COUNT\\(\\*\\)").
			WithArgs("cs-1").
			WillReturnRows(sqlmock.NewRows([]string{"signed", "total"}).AddRow(1, 1))
		mock.ExpectCommit()

		p, err := repo.MarkSigned(ctx, model.CooperativeSignerRef("cs-1"), now)

		assert.NoError(t, err)
		assert.True(t, p.AllSigned())
	})

	t.Run("unknown signer id", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE borrowers SET signed_at = (.+) WHERE id = (.+) AND signed_at IS NULL").
			WithArgs(now, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FILTER \\(WHERE signed_at IS NOT NULL\\), COUNT\\(\\*\\)").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"signed", "total"}).AddRow(0, 0))
		mock.ExpectRollback()

		_, err := repo.MarkSigned(ctx, model.BorrowerRef("missing"), now)

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("invalid ref", func(t *testing.T) {
		_, err := repo.MarkSigned(ctx, model.SignerRef{Kind: "ghost", ID: "x"}, now)
		assert.ErrorIs(t, err, model.ErrInvalidSignerRef)
	})
}

func TestSignerPostgres_AccountingFirmContactByDeed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSignerPostgres(db)
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM accounting_firm_contacts WHERE deed_id = ?").
			WithArgs("deed-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "deed_id", "firm_name", "firm_email", "created_at"}).
				AddRow("af-1", "deed-1", "Räkna AB", "info@rakna.se", time.Now()))

		got, err := repo.AccountingFirmContactByDeed(ctx, "deed-1")

		assert.NoError(t, err)
		assert.Equal(t, "Räkna AB", got.FirmName)
	})

	t.Run("absent", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM accounting_firm_contacts WHERE deed_id = ?").
			WithArgs("deed-2").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.AccountingFirmContactByDeed(ctx, "deed-2")

		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}
