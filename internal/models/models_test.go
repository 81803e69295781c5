package models_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/stride/internal/models"
)

func TestParseKind_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		in   string
		want models.ContentKind
	}{
		{"flashcard", models.KindFlashcard},
		{"Article", models.KindArticle},
		{" alert ", models.KindAlert},
		{"COMMENT", models.KindComment},
	}
	for _, tc := range cases {
		c.Run(tc.in, func(c *qt.C) {
			got, ok := models.ParseKind(tc.in)
			c.Assert(ok, qt.IsTrue)
			c.Assert(got, qt.Equals, tc.want)
		})
	}
}

func TestParseKind_FailurePath(t *testing.T) {
	c := qt.New(t)
	for _, in := range []string{"", "space", "flashcards"} {
		_, ok := models.ParseKind(in)
		c.Assert(ok, qt.IsFalse, qt.Commentf("input %q", in))
	}
}

func TestSpaceIsLeaf(t *testing.T) {
	c := qt.New(t)

	c.Assert((&models.Space{ID: "a"}).IsLeaf(), qt.IsTrue)
	c.Assert((&models.Space{ID: "a", Children: []*models.Space{}}).IsLeaf(), qt.IsTrue)
	c.Assert((&models.Space{ID: "a", Children: []*models.Space{{ID: "b"}}}).IsLeaf(), qt.IsFalse)
}

func TestAuthorInitialAndName(t *testing.T) {
	c := qt.New(t)

	var missing *models.Author
	c.Assert(missing.Initial("U"), qt.Equals, "U")
	c.Assert(missing.Name("User"), qt.Equals, "User")

	a := &models.Author{ID: "1", Username: "émile"}
	c.Assert(a.Initial("U"), qt.Equals, "É")
	c.Assert(a.Name("User"), qt.Equals, "émile")
}

func TestAlertActor(t *testing.T) {
	c := qt.New(t)

	author := &models.Author{ID: "1", Username: "ann"}
	user := &models.Author{ID: "2", Username: "bob"}

	c.Assert((&models.Alert{Author: author, User: user}).Actor(), qt.Equals, author)
	c.Assert((&models.Alert{User: user}).Actor(), qt.Equals, user)
	c.Assert((&models.Alert{}).Actor(), qt.IsNil)
}

func TestParseTime(t *testing.T) {
	c := qt.New(t)

	c.Assert(models.ParseTime("2024-03-01T10:00:00.000Z").Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)), qt.IsTrue)
	c.Assert(models.ParseTime("2024-03-01T10:00:00Z").IsZero(), qt.IsFalse)
	c.Assert(models.ParseTime("2024-03-01").IsZero(), qt.IsFalse)
	c.Assert(models.ParseTime("yesterday").IsZero(), qt.IsTrue)
}

func TestFallbackDetails(t *testing.T) {
	c := qt.New(t)

	s := &models.Space{ID: "s1", Name: "Go", Level: 2}
	d := models.FallbackDetails(s)
	c.Assert(d.ID, qt.Equals, "s1")
	c.Assert(d.Name, qt.Equals, "Go")
	c.Assert(d.Level, qt.Equals, 2)
	c.Assert(d.Flashcards, qt.HasLen, 0)
	c.Assert(d.Articles, qt.HasLen, 0)
	c.Assert(d.Alerts, qt.HasLen, 0)
}

func TestDecodeSpaceDetails_AbsentVersusEmpty(t *testing.T) {
	c := qt.New(t)

	var d models.SpaceDetails
	err := json.Unmarshal([]byte(`{"id":"s1","name":"Go","level":1,"contributors":[]}`), &d)
	c.Assert(err, qt.IsNil)
	c.Assert(d.Contributors, qt.IsNotNil)
	c.Assert(d.Contributors, qt.HasLen, 0)
	c.Assert(d.Subscribers, qt.IsNil)
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func TestValidateSpaces_HappyPath(t *testing.T) {
	c := qt.New(t)

	tree := []*models.Space{
		{ID: "root", Name: "Root", Level: 0, Children: []*models.Space{
			{ID: "leaf", Name: "Leaf", Level: 1},
		}},
	}
	c.Assert(models.ValidateSpaces(tree), qt.IsNil)
	c.Assert(models.ValidateSpaces(nil), qt.IsNil)
}

func TestValidateSpaces_FailurePath(t *testing.T) {
	c := qt.New(t)

	c.Run("missing id on a nested child", func(c *qt.C) {
		tree := []*models.Space{
			{ID: "root", Name: "Root", Children: []*models.Space{{Name: "no id", Level: 1}}},
		}
		err := models.ValidateSpaces(tree)
		c.Assert(errors.Is(err, models.ErrInvalid), qt.IsTrue)
	})

	c.Run("null entry", func(c *qt.C) {
		err := models.ValidateSpaces([]*models.Space{nil})
		c.Assert(errors.Is(err, models.ErrInvalid), qt.IsTrue)
	})

	c.Run("negative level", func(c *qt.C) {
		err := models.ValidateSpaces([]*models.Space{{ID: "x", Level: -1}})
		c.Assert(errors.Is(err, models.ErrInvalid), qt.IsTrue)
	})
}

func TestNormalizeDetails_HappyPath(t *testing.T) {
	c := qt.New(t)

	d := &models.SpaceDetails{
		ID:         "s1",
		Flashcards: []*models.Flashcard{{ID: "f1"}, {Title: "no id"}},
		Articles:   []*models.Article{{ID: "a1"}, nil},
		Alerts:     []*models.Alert{{ID: "al1"}},
	}
	dropped, err := models.NormalizeDetails(d)
	c.Assert(err, qt.IsNil)
	c.Assert(dropped, qt.Equals, 2)
	c.Assert(d.Flashcards, qt.HasLen, 1)
	c.Assert(d.Articles, qt.HasLen, 1)
	c.Assert(d.Alerts, qt.HasLen, 1)
}

func TestNormalizeDetails_KeepsAbsentCollectionsNil(t *testing.T) {
	c := qt.New(t)

	d := &models.SpaceDetails{ID: "s1"}
	dropped, err := models.NormalizeDetails(d)
	c.Assert(err, qt.IsNil)
	c.Assert(dropped, qt.Equals, 0)
	c.Assert(d.Flashcards, qt.IsNil)
}

func TestNormalizeDetails_FailurePath(t *testing.T) {
	c := qt.New(t)

	_, err := models.NormalizeDetails(nil)
	c.Assert(errors.Is(err, models.ErrInvalid), qt.IsTrue)

	_, err = models.NormalizeDetails(&models.SpaceDetails{Name: "no id"})
	c.Assert(errors.Is(err, models.ErrInvalid), qt.IsTrue)
}
