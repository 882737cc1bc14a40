package locations

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectQ = `(?s)^SELECT\s+id,\s*code,\s*name,\s*is_default\s+FROM\s+locations\s+WHERE\s+is_default\s+LIMIT\s+1$`

func TestPostgresRepository_GetDefault(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m sqlmock.Sqlmock)
		want    *models.Location
		wantErr error
		errText string
	}{
		{
			name: "found",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(selectQ).WillReturnRows(
					sqlmock.NewRows([]string{"id", "code", "name", "is_default"}).AddRow("l-1", "HQ", "Head Office", true))
			},
			want: &models.Location{ID: "l-1", Code: "HQ", Name: "Head Office", IsDefault: true},
		},
		{
			name:    "missing",
			setup:   func(m sqlmock.Sqlmock) { m.ExpectQuery(selectQ).WillReturnError(sql.ErrNoRows) },
			wantErr: common.ErrorNotFound,
		},
		{
			name:    "db error",
			setup:   func(m sqlmock.Sqlmock) { m.ExpectQuery(selectQ).WillReturnError(errors.New("db down")) },
			errText: "db error: db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
			require.NoError(t, err)
			defer db.Close()
			tt.setup(mock)

			got, err := NewPostgresRepository(db).GetDefault(context.Background())
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.ErrorContains(t, err, tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMemoryRepository_GetDefault(t *testing.T) {
	r := NewMemoryRepository(models.Location{ID: "x", Code: "X"}, DefaultLocation())
	got, err := r.GetDefault(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HQ", got.Code)

	_, err = NewMemoryRepository().GetDefault(context.Background())
	require.ErrorIs(t, err, common.ErrorNotFound)
}
