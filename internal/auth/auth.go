package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/turnos/internal/db"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const sessionTTL = 12 * time.Hour

// Store authenticates administrators and issues the signed session cookie
// that unlocks the admin and doctor pages.
type Store struct {
	sc     *securecookie.SecureCookie
	admins Admins
}

type ctxKey string

const adminIDKey ctxKey = "adminID"

func NewStore(admins Admins, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionTTL.Seconds()))
	return &Store{sc: sc, admins: admins}
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (s *Store) CreateAdmin(ctx context.Context, username, password string) error {
	if username == "" || len(password) < 8 {
		return errors.New("username required and password must be at least 8 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.admins.Create(ctx, username, hash)
}

// Authenticate returns the admin id. Unknown users and wrong passwords both
// come back as ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (int64, error) {
	a, err := s.admins.Lookup(ctx, username)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, ErrInvalidCredentials
		}
		return 0, err
	}
	if !CheckPassword(a.PasswordHash, password) {
		return 0, ErrInvalidCredentials
	}
	return a.ID, nil
}

type Session struct {
	AdminID int64
	Issued  time.Time
}

const cookieName = "turnos_session"

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, adminID int64) error {
	encoded, err := s.sc.Encode(cookieName, Session{AdminID: adminID, Issued: time.Now().UTC()})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := s.sc.Decode(cookieName, c.Value, &sess); err != nil {
		return Session{}, false
	}
	if sess.AdminID <= 0 {
		return Session{}, false
	}
	return sess, true
}

// RequireAuth sends anonymous visitors to the login page, remembering where
// they were headed.
func (s *Store) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			target := "/login"
			if r.Method == http.MethodGet {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), adminIDKey, sess.AdminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminIDKey).(int64)
	return id, ok
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin"
	}
	return next
}
