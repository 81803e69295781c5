package tokenstore

// White-box tests: the expiry paths need to move the store's clock, which is
// an unexported field.

import (
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"
)

func openTestStore(c *qt.C, ttl time.Duration) *Store {
	s, err := Open(filepath.Join(c.TempDir(), "session.db"), ttl)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = s.Close() })
	return s
}

func signedJWT(c *qt.C, exp time.Time) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	c.Assert(err, qt.IsNil)
	return tok
}

func TestStore_HappyPath(t *testing.T) {
	c := qt.New(t)
	s := openTestStore(c, 0)

	_, ok, err := s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	c.Assert(s.Save("opaque-token"), qt.IsNil)
	got, ok, err := s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, "opaque-token")

	c.Assert(s.Save("second"), qt.IsNil)
	got, _, _ = s.Load()
	c.Assert(got, qt.Equals, "second")

	c.Assert(s.Clear(), qt.IsNil)
	_, ok, err = s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)
}

func TestStore_DefaultTTLIsSevenDays(t *testing.T) {
	c := qt.New(t)
	s := openTestStore(c, 0)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	c.Assert(s.Save("opaque-token"), qt.IsNil)
	exp, ok, err := s.Expiry()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(exp.Equal(base.Add(7*24*time.Hour)), qt.IsTrue)
}

func TestStore_ExpiredTokenIsDropped(t *testing.T) {
	c := qt.New(t)
	s := openTestStore(c, time.Hour)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	c.Assert(s.Save("opaque-token"), qt.IsNil)

	s.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, ok, err := s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	s.now = func() time.Time { return base.Add(61 * time.Minute) }
	_, ok, err = s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse)

	_, ok, err = s.Expiry()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsFalse, qt.Commentf("expired row should be deleted"))
}

func TestStore_JWTExpCapsTTL(t *testing.T) {
	c := qt.New(t)
	s := openTestStore(c, 0)

	base := time.Now().UTC().Truncate(time.Second)
	s.now = func() time.Time { return base }

	short := base.Add(2 * time.Hour)
	c.Assert(s.Save(signedJWT(c, short)), qt.IsNil)
	exp, _, err := s.Expiry()
	c.Assert(err, qt.IsNil)
	c.Assert(exp.Equal(short), qt.IsTrue)

	long := base.Add(30 * 24 * time.Hour)
	c.Assert(s.Save(signedJWT(c, long)), qt.IsNil)
	exp, _, err = s.Expiry()
	c.Assert(err, qt.IsNil)
	c.Assert(exp.Equal(base.Add(DefaultTTL)), qt.IsTrue)
}

func TestJWTExpiry_FailurePath(t *testing.T) {
	c := qt.New(t)

	_, ok := jwtExpiry("not-a-jwt")
	c.Assert(ok, qt.IsFalse)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("k"))
	c.Assert(err, qt.IsNil)
	_, ok = jwtExpiry(noExp)
	c.Assert(ok, qt.IsFalse)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.TempDir(), "session.db")
	s, err := Open(path, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(s.Save("kept"), qt.IsNil)
	c.Assert(s.Close(), qt.IsNil)

	s2, err := Open(path, 0)
	c.Assert(err, qt.IsNil)
	defer s2.Close()
	got, ok, err := s2.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.Equals, "kept")
}
