package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

func TestWriteStructured(t *testing.T) {
	Convey("Given a value to render", t, func() {
		v := map[string]any{"label": "Blue Jay", "confidence": 81.5}
		var buf bytes.Buffer

		Convey("When the format is yaml", func() {
			done, err := writeStructured(&buf, "yaml", v)

			Convey("Then it should write decodable yaml", func() {
				So(err, ShouldBeNil)
				So(done, ShouldBeTrue)
				var got map[string]any
				So(yaml.Unmarshal(buf.Bytes(), &got), ShouldBeNil)
				So(got["label"], ShouldEqual, "Blue Jay")
				So(got["confidence"], ShouldEqual, 81.5)
			})
		})

		Convey("When the format is json", func() {
			done, err := writeStructured(&buf, "json", v)

			Convey("Then it should write indented json", func() {
				So(err, ShouldBeNil)
				So(done, ShouldBeTrue)
				So(buf.String(), ShouldContainSubstring, "\n  \"label\": \"Blue Jay\"")
				var got map[string]any
				So(json.Unmarshal(buf.Bytes(), &got), ShouldBeNil)
				So(got["confidence"], ShouldEqual, 81.5)
			})
		})

		Convey("When the format is text or empty", func() {
			for _, format := range []string{"text", ""} {
				done, err := writeStructured(&buf, format, v)
				So(err, ShouldBeNil)
				So(done, ShouldBeFalse)
			}

			Convey("Then nothing should be written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the format is unknown", func() {
			done, err := writeStructured(&buf, "xml", v)

			Convey("Then it should fail", func() {
				So(done, ShouldBeTrue)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "xml")
			})
		})
	})
}
