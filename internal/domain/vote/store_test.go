package vote_test

import (
	"context"
	"testing"

	"github.com/statiq/scout/internal/adapters/storage"
	"github.com/statiq/scout/internal/domain/model"
	"github.com/statiq/scout/internal/domain/vote"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVoteStore(t *testing.T) {
	Convey("Given a vote store", t, func() {
		ctx := context.Background()
		st := storage.NewMemoryStore()
		votes := vote.New(st)

		Convey("When voting on a game", func() {
			So(votes.Put(ctx, "game-1", model.ChoiceHome), ShouldBeNil)

			Convey("Then the vote reads back", func() {
				choice, ok := votes.Get(ctx, "game-1")
				So(ok, ShouldBeTrue)
				So(choice, ShouldEqual, model.ChoiceHome)
				So(votes.Has(ctx, "game-1"), ShouldBeTrue)
			})

			Convey("Then re-voting overwrites (last write wins)", func() {
				So(votes.Put(ctx, "game-1", model.ChoiceAway), ShouldBeNil)
				choice, ok := votes.Get(ctx, "game-1")
				So(ok, ShouldBeTrue)
				So(choice, ShouldEqual, model.ChoiceAway)
			})
		})

		Convey("When a game has no vote", func() {
			choice, ok := votes.Get(ctx, "game-9")

			Convey("Then undecided is distinct from any choice", func() {
				So(ok, ShouldBeFalse)
				So(choice, ShouldEqual, model.Choice(""))
				So(votes.Has(ctx, "game-9"), ShouldBeFalse)
			})
		})

		Convey("When batch reading a schedule", func() {
			So(votes.Put(ctx, "g1", model.ChoiceHome), ShouldBeNil)
			So(votes.Put(ctx, "g3", model.ChoiceAway), ShouldBeNil)

			got := votes.GetMany(ctx, []string{"g1", "g2", "g3"})

			Convey("Then undecided games are omitted", func() {
				So(got, ShouldHaveLength, 2)
				So(got["g1"], ShouldEqual, model.ChoiceHome)
				So(got["g3"], ShouldEqual, model.ChoiceAway)
			})
		})

		Convey("When a stored record is malformed", func() {
			So(st.Set(ctx, vote.Prefix+"g1", []byte("maybe")), ShouldBeNil)

			Convey("Then it reads as undecided", func() {
				_, ok := votes.Get(ctx, "g1")
				So(ok, ShouldBeFalse)
				So(votes.GetMany(ctx, []string{"g1"}), ShouldBeEmpty)
			})
		})

		Convey("When clearing votes", func() {
			So(votes.Put(ctx, "g1", model.ChoiceHome), ShouldBeNil)
			So(votes.Put(ctx, "g2", model.ChoiceAway), ShouldBeNil)

			Convey("Then Remove deletes one vote", func() {
				So(votes.Remove(ctx, "g1"), ShouldBeNil)
				So(votes.Has(ctx, "g1"), ShouldBeFalse)
				So(votes.Has(ctx, "g2"), ShouldBeTrue)
			})

			Convey("Then RemoveAll deletes every vote", func() {
				n, err := votes.RemoveAll(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(votes.GameIDs(ctx), ShouldBeEmpty)
			})
		})
	})
}
