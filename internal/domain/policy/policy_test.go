package policy_test

import (
	"testing"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecider_Decide(t *testing.T) {
	Convey("Given a decider with default settings", t, func() {
		d := policy.New()

		Convey("When the top prediction is confident", func() {
			label, conf := d.Decide([]model.Prediction{
				{Label: "AMERICAN ROBIN", Confidence: 92.3},
				{Label: "BLUE JAY", Confidence: 4.1},
			})

			Convey("Then it should be accepted", func() {
				So(label, ShouldEqual, "AMERICAN ROBIN")
				So(conf, ShouldEqual, 92.3)
			})
		})

		Convey("When the top prediction is below threshold", func() {
			label, conf := d.Decide([]model.Prediction{{Label: "BLUE JAY", Confidence: 42}})

			Convey("Then it should be Unknown with the confidence kept", func() {
				So(label, ShouldEqual, model.UnknownLabel)
				So(conf, ShouldEqual, 42)
			})
		})

		Convey("When the confidence equals the threshold", func() {
			label, _ := d.Decide([]model.Prediction{{Label: "BLUE JAY", Confidence: 50}})

			Convey("Then it should be accepted", func() {
				So(label, ShouldEqual, "BLUE JAY")
			})
		})

		Convey("When the top label contains an excluded substring", func() {
			label, conf := d.Decide([]model.Prediction{{Label: "LOONEY BIRDS", Confidence: 95}})

			Convey("Then it should be Unknown regardless of case", func() {
				So(label, ShouldEqual, model.UnknownLabel)
				So(conf, ShouldEqual, 95)
				So(d.Excluded("Looney Toon"), ShouldBeTrue)
			})
		})

		Convey("When the list is empty", func() {
			label, conf := d.Decide(nil)

			Convey("Then it should be Unknown with zero confidence", func() {
				So(label, ShouldEqual, model.UnknownLabel)
				So(conf, ShouldEqual, 0)
			})
		})

		Convey("When a lower entry has a higher confidence", func() {
			label, conf := d.Decide([]model.Prediction{
				{Label: "SPARROW", Confidence: 20},
				{Label: "CARDINAL", Confidence: 70},
			})

			Convey("Then only the first ranked entry should be judged", func() {
				So(label, ShouldEqual, model.UnknownLabel)
				So(conf, ShouldEqual, 20)
			})
		})
	})

	Convey("Given a decider with custom options", t, func() {
		d := policy.New(policy.WithThreshold(80), policy.WithExcludedLabels("Tweety", " "))

		Convey("Then the threshold and exclusions should apply", func() {
			So(d.Threshold(), ShouldEqual, 80)
			label, _ := d.Decide([]model.Prediction{{Label: "CANARY", Confidence: 79}})
			So(label, ShouldEqual, model.UnknownLabel)
			label, _ = d.Decide([]model.Prediction{{Label: "tweety bird", Confidence: 99}})
			So(label, ShouldEqual, model.UnknownLabel)
			label, _ = d.Decide([]model.Prediction{{Label: "LOONEY", Confidence: 99}})
			So(label, ShouldEqual, "LOONEY")
		})

		Convey("Then out-of-range thresholds should be ignored", func() {
			So(policy.New(policy.WithThreshold(150)).Threshold(), ShouldEqual, policy.DefaultThreshold)
		})
	})
}

func TestDecider_Scores(t *testing.T) {
	Convey("Given a default decider", t, func() {
		d := policy.New()

		Convey("Then only accepted labels at threshold should score", func() {
			So(d.Scores("ROBIN", 50), ShouldBeTrue)
			So(d.Scores("ROBIN", 49.9), ShouldBeFalse)
			So(d.Scores(model.UnknownLabel, 99), ShouldBeFalse)
		})
	})
}
