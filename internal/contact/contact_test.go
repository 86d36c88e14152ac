// AngelaMos | 2026
// contact_test.go

package contact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	saved []Message
	err   error
}

func (s *stubRepo) Insert(_ context.Context, msg *Message) error {
	if s.err != nil {
		return s.err
	}
	msg.ID = "m1"
	s.saved = append(s.saved, *msg)
	return nil
}

func post(repo Repository, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	NewHandler(repo, nil).RegisterRoutes(r, passthrough)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body)))
	return rec
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"ok", `{"name":"Ana","email":"ana@example.com","message":"Hello"}`, nil, http.StatusOK},
		{"missing email", `{"message":"Hello"}`, nil, http.StatusBadRequest},
		{"missing message", `{"email":"ana@example.com","message":"   "}`, nil, http.StatusBadRequest},
		{"blank email", `{"email":"  ","message":"Hello"}`, nil, http.StatusBadRequest},
		{"unusual email", `{"email":"nope","message":"Hello"}`, nil, http.StatusOK},
		{"malformed", `{`, nil, http.StatusBadRequest},
		{"store failure", `{"email":"ana@example.com","message":"Hello"}`, errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{err: tt.err}
			rec := post(repo, tt.body)
			assert.Equal(t, tt.want, rec.Code)

			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, rec.Body.String())
				require.Len(t, repo.saved, 1)
				assert.NotEmpty(t, repo.saved[0].Email)
			} else {
				assert.Empty(t, repo.saved)
			}
		})
	}
}

func TestSubmitClipsLongFields(t *testing.T) {
	repo := &stubRepo{}
	long := strings.Repeat("é", maxFieldRunes+50)
	body := `{"name":"` + long + `","email":"ana@example.com","message":"` +
		strings.Repeat("x", maxMessageRunes+1) + `"}`

	rec := post(repo, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.saved, 1)
	assert.Len(t, []rune(repo.saved[0].Name), maxFieldRunes)
	assert.Len(t, repo.saved[0].Message, maxMessageRunes)
}

func TestRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contact_messages")).
		WithArgs("Ana", "ana@example.com", "", "", "research", "Hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("m1", time.Now()))

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))
	msg := &Message{Name: "Ana", Email: "ana@example.com", Topic: "research", Message: "Hello"}
	require.NoError(t, repo.Insert(context.Background(), msg))
	assert.Equal(t, "m1", msg.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func passthrough(next http.Handler) http.Handler { return next }
