package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/bainoculars/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHighScores(t *testing.T) {
	Convey("Given a high-score table with capacity 3", t, func() {
		ctx := context.Background()
		s := repository.NewHighScores(repository.WithCapacity(3))
		base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

		add := func(id string, score int, minute int) (int, bool) {
			rank, kept, err := s.Add(ctx, repository.Entry{
				SessionID:  id,
				Score:      score,
				FinishedAt: base.Add(time.Duration(minute) * time.Minute),
			})
			So(err, ShouldBeNil)
			return rank, kept
		}

		Convey("When rounds are added out of order", func() {
			add("a", 3, 0)
			add("b", 5, 1)
			add("c", 3, 2)

			Convey("Then they should be ranked by score, earlier finish breaking ties", func() {
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 3)
				So(top[0].SessionID, ShouldEqual, "b")
				So(top[1].SessionID, ShouldEqual, "a")
				So(top[2].SessionID, ShouldEqual, "c")
				So(top[2].Rank, ShouldEqual, 3)
			})

			Convey("Then a weaker round should not make the table", func() {
				rank, kept := add("d", 1, 3)
				So(kept, ShouldBeFalse)
				So(rank, ShouldEqual, 4)
				So(s.Count(ctx), ShouldEqual, 3)
				_, err := s.Rank(ctx, "d")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a stronger round should push the last one out", func() {
				rank, kept := add("e", 4, 4)
				So(kept, ShouldBeTrue)
				So(rank, ShouldEqual, 2)
				_, err := s.Rank(ctx, "c")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				e, err := s.Rank(ctx, "a")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 3)
			})
		})

		Convey("When asking for a non-positive limit", func() {
			_, err := s.TopN(ctx, 0)

			Convey("Then it should fail with ErrInvalidLimit", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When adding an entry without a session", func() {
			_, _, err := s.Add(ctx, repository.Entry{Score: 1})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, repository.ErrInvalidEntry), ShouldBeTrue)
			})
		})

		Convey("When a caller mutates returned birds", func() {
			_, _, _ = s.Add(ctx, repository.Entry{SessionID: "x", Score: 2, Birds: []string{"ROBIN"}})
			top, _ := s.TopN(ctx, 1)
			top[0].Birds[0] = "CROW"

			Convey("Then the table should be unaffected", func() {
				again, _ := s.TopN(ctx, 1)
				So(again[0].Birds[0], ShouldEqual, "ROBIN")
			})
		})
	})
}
