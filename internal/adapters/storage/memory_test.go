package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/statiq/scout/internal/adapters/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		st := storage.NewMemoryStore()

		Convey("When getting a missing key", func() {
			_, err := st.Get(ctx, "nope")

			Convey("Then it reports ErrNotFound", func() {
				So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When setting and getting a key", func() {
			So(st.Set(ctx, "k", []byte("v1")), ShouldBeNil)
			v, err := st.Get(ctx, "k")

			Convey("Then the value reads back", func() {
				So(err, ShouldBeNil)
				So(string(v), ShouldEqual, "v1")
			})

			Convey("And overwriting is last-write-wins", func() {
				So(st.Set(ctx, "k", []byte("v2")), ShouldBeNil)
				v, err := st.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(string(v), ShouldEqual, "v2")
			})

			Convey("And the returned slice is a copy", func() {
				v[0] = 'X'
				again, err := st.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(string(again), ShouldEqual, "v1")
			})
		})

		Convey("When removing", func() {
			So(st.Set(ctx, "k", []byte("v")), ShouldBeNil)
			So(st.Remove(ctx, "k"), ShouldBeNil)

			Convey("Then the key is gone and a second remove is a no-op", func() {
				_, err := st.Get(ctx, "k")
				So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
				So(st.Remove(ctx, "k"), ShouldBeNil)
			})
		})

		Convey("When batch reading", func() {
			So(st.Set(ctx, "a", []byte("1")), ShouldBeNil)
			So(st.Set(ctx, "c", []byte("3")), ShouldBeNil)

			got, err := st.MultiGet(ctx, []string{"a", "b", "c"})

			Convey("Then missing keys are omitted, not zero-valued", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(string(got["a"]), ShouldEqual, "1")
				So(string(got["c"]), ShouldEqual, "3")
				_, present := got["b"]
				So(present, ShouldBeFalse)
			})
		})

		Convey("When enumerating by prefix", func() {
			So(st.Set(ctx, "vote:g1", []byte("home")), ShouldBeNil)
			So(st.Set(ctx, "vote:g2", []byte("away")), ShouldBeNil)
			So(st.Set(ctx, "device_id", []byte("x")), ShouldBeNil)

			keys, err := st.Keys(ctx, "vote:")

			Convey("Then only prefixed keys are returned", func() {
				So(err, ShouldBeNil)
				So(keys, ShouldHaveLength, 2)
				So(keys, ShouldContain, "vote:g1")
				So(keys, ShouldContain, "vote:g2")
			})

			Convey("And MultiRemove clears them in one batch", func() {
				So(st.MultiRemove(ctx, keys), ShouldBeNil)
				left, err := st.Keys(ctx, "vote:")
				So(err, ShouldBeNil)
				So(left, ShouldBeEmpty)

				// Unrelated keys survive.
				_, err = st.Get(ctx, "device_id")
				So(err, ShouldBeNil)
			})
		})

		Convey("When the store is closed", func() {
			So(st.Close(), ShouldBeNil)

			Convey("Then operations fail with ErrClosed", func() {
				So(st.Set(ctx, "k", nil), ShouldEqual, storage.ErrClosed)
				_, err := st.Get(ctx, "k")
				So(err, ShouldEqual, storage.ErrClosed)
			})
		})
	})
}
