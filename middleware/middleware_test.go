package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/testutil"
	"github.com/vnkhanh/survey-collector/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, issuer *utils.TokenIssuer, u *models.User) string {
	t.Helper()
	tok, err := issuer.Generate(u.ID, u.IsAdmin)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return "Bearer " + tok
}

func TestAuthJWT(t *testing.T) {
	db := testutil.SetupTestDB(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	u := testutil.CreateUser(t, db, "ana@example.com", false)

	r := gin.New()
	r.GET("/me", AuthJWT(db, issuer), func(c *gin.Context) {
		got, _ := CurrentUser(c)
		c.String(http.StatusOK, got.Email)
	})

	other := utils.NewTokenIssuer("other-secret", time.Hour)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer garbage", http.StatusUnauthorized},
		{"foreign signature", tokenFor(t, other, u), http.StatusUnauthorized},
		{"unknown user", tokenFor(t, issuer, &models.User{ID: 999}), http.StatusUnauthorized},
		{"valid", tokenFor(t, issuer, u), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, "/me", map[string]string{"Authorization": tt.header})
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() != u.Email {
				t.Errorf("user = %q", w.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	u := testutil.CreateUser(t, db, "ana@example.com", false)

	r := gin.New()
	r.GET("/x", OptionalAuth(db, issuer), func(c *gin.Context) {
		if got, ok := CurrentUser(c); ok {
			c.String(http.StatusOK, got.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	for header, want := range map[string]string{
		"":                     "anonymous",
		"Bearer garbage":       "anonymous",
		tokenFor(t, issuer, u): u.Email,
	} {
		w := serve(r, http.MethodGet, "/x", map[string]string{"Authorization": header})
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Errorf("header %q: got %d %q, want %q", header, w.Code, w.Body.String(), want)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)
	user := testutil.CreateUser(t, db, "user@example.com", false)

	r := gin.New()
	r.GET("/admin", AuthJWT(db, issuer), RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": tokenFor(t, issuer, admin)}); w.Code != http.StatusNoContent {
		t.Errorf("admin = %d, want 204", w.Code)
	}
	if w := serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": tokenFor(t, issuer, user)}); w.Code != http.StatusForbidden {
		t.Errorf("user = %d, want 403", w.Code)
	}
}

func editorRouter(db *gorm.DB, issuer *utils.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.GET("/forms/:id", OptionalAuth(db, issuer), CheckSurveyEditor(db), func(c *gin.Context) {
		s := c.MustGet(CtxSurvey).(models.Survey)
		c.String(http.StatusOK, s.Title)
	})
	r.GET("/questions/:id", OptionalAuth(db, issuer), CheckQuestionEditor(db), func(c *gin.Context) {
		q := c.MustGet(CtxQuestion).(models.Question)
		c.String(http.StatusOK, q.Title)
	})
	r.GET("/owned/:id", AuthJWT(db, issuer), CheckSurveyOwner(db), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestCheckSurveyEditor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	stranger := testutil.CreateUser(t, db, "stranger@example.com", false)
	admin := testutil.CreateUser(t, db, "admin@example.com", true)

	token, hash, err := utils.GenerateEditToken()
	if err != nil {
		t.Fatalf("GenerateEditToken() error = %v", err)
	}
	s := testutil.CreateSurvey(t, db, testutil.WithOwner(owner.ID))
	if err := db.Model(s).Update("edit_token_hash", hash).Error; err != nil {
		t.Fatalf("set hash: %v", err)
	}
	q := testutil.CreateQuestion(t, db, s.ID, testutil.QuestionSpec{Title: "Edad", Type: "NUMBER"})
	gone := testutil.CreateSurvey(t, db, testutil.WithOwner(owner.ID), testutil.WithStatus(models.SurveyStatusDeleted))

	r := editorRouter(db, issuer)
	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    int
	}{
		{"owner", fmt.Sprintf("/forms/%d", s.ID), map[string]string{"Authorization": tokenFor(t, issuer, owner)}, http.StatusOK},
		{"admin", fmt.Sprintf("/forms/%d", s.ID), map[string]string{"Authorization": tokenFor(t, issuer, admin)}, http.StatusOK},
		{"edit token", fmt.Sprintf("/forms/%d", s.ID), map[string]string{HeaderEditToken: token}, http.StatusOK},
		{"wrong edit token", fmt.Sprintf("/forms/%d", s.ID), map[string]string{HeaderEditToken: token + "x"}, http.StatusForbidden},
		{"stranger", fmt.Sprintf("/forms/%d", s.ID), map[string]string{"Authorization": tokenFor(t, issuer, stranger)}, http.StatusForbidden},
		{"anonymous", fmt.Sprintf("/forms/%d", s.ID), nil, http.StatusForbidden},
		{"deleted survey", fmt.Sprintf("/forms/%d", gone.ID), map[string]string{"Authorization": tokenFor(t, issuer, owner)}, http.StatusNotFound},
		{"bad id", "/forms/abc", nil, http.StatusBadRequest},
		{"question via token", fmt.Sprintf("/questions/%d", q.ID), map[string]string{HeaderEditToken: token}, http.StatusOK},
		{"question stranger", fmt.Sprintf("/questions/%d", q.ID), map[string]string{"Authorization": tokenFor(t, issuer, stranger)}, http.StatusForbidden},
		{"missing question", "/questions/999", nil, http.StatusNotFound},
		{"owner route via owner", fmt.Sprintf("/owned/%d", s.ID), map[string]string{"Authorization": tokenFor(t, issuer, owner)}, http.StatusNoContent},
		{"owner route via stranger", fmt.Sprintf("/owned/%d", s.ID), map[string]string{"Authorization": tokenFor(t, issuer, stranger)}, http.StatusForbidden},
		{"owner route via edit token", fmt.Sprintf("/owned/%d", s.ID), map[string]string{HeaderEditToken: token}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, tt.path, tt.headers)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(60, 2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within the burst window should be refused")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("another IP has its own bucket")
	}
	rl.Stop()
	rl.Stop()
}

func TestRateLimitByIP(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Minute)
	defer rl.Stop()

	r := gin.New()
	r.GET("/x", RateLimitByIP(rl), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := serve(r, http.MethodGet, "/x", nil); w.Code != http.StatusNoContent {
		t.Fatalf("first = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/x", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", w.Code)
	}
}
