package attention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// frontal is a centred face covering about 9% of a 640x480 frame.
func frontal() Face {
	return Face{
		TopLeft:     Point{240, 150},
		BottomRight: Point{400, 330},
		Landmarks: []Point{
			{300, 230}, // right eye
			{340, 230}, // left eye
			{320, 255}, // nose
			{320, 280}, // mouth
			{280, 235},
			{360, 235},
		},
	}
}

func frame(faces ...Face) *Detection {
	return &Detection{Width: 640, Height: 480, Faces: faces}
}

func TestClassify_Rules(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		name   string
		det    *Detection
		want   Verdict
		reason Reason
	}{
		{"nil input", nil, Unknown, ReasonNoInput},
		{"no frame size", &Detection{}, Unknown, ReasonNoInput},
		{"no face", frame(), Inattentive, ReasonNoFace},
		{"two faces", frame(frontal(), frontal()), Inattentive, ReasonMultipleFaces},
		{"frontal", frame(frontal()), Attentive, ReasonFacing},
		{"off frame", frame(func() Face { f := frontal(); f.TopLeft[0] = -5; return f }()), Inattentive, ReasonOffFrame},
		{"too far", frame(Face{TopLeft: Point{300, 200}, BottomRight: Point{320, 220}}), Inattentive, ReasonTooFar},
		{"too close", frame(Face{TopLeft: Point{0, 0}, BottomRight: Point{600, 450}}), Inattentive, ReasonTooClose},
		{"few landmarks", frame(func() Face { f := frontal(); f.Landmarks = f.Landmarks[:3]; return f }()), Attentive, ReasonPresence},
		{"sideways", frame(func() Face {
			f := frontal()
			f.Landmarks[2] = Point{335, 255}
			return f
		}()), Inattentive, ReasonSideways},
		{"looking down", frame(func() Face {
			f := frontal()
			f.Landmarks[2] = Point{320, 275}
			f.Landmarks[3] = Point{320, 280}
			return f
		}()), Inattentive, ReasonPitch},
		{"tilted", frame(func() Face {
			f := frontal()
			f.Landmarks[0] = Point{300, 215}
			f.Landmarks[1] = Point{340, 245}
			return f
		}()), Inattentive, ReasonTilt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, r := c.Classify(tc.det)
			assert.Equal(t, tc.want, v)
			assert.Equal(t, tc.reason, r)
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "attentive", Attentive.String())
	assert.Equal(t, "inattentive", Inattentive.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestReporter_Throttle(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewReporter(5*time.Second, 3*time.Second)
	r.now = func() time.Time { return now }

	assert.False(t, r.Observe(Attentive))
	assert.False(t, r.Observe(Unknown))
	assert.True(t, r.Observe(Inattentive))
	assert.True(t, r.NoticeVisible())

	now = now.Add(2 * time.Second)
	assert.False(t, r.Observe(Inattentive))

	now = now.Add(2 * time.Second)
	assert.False(t, r.NoticeVisible())
	assert.False(t, r.Observe(Inattentive), "still inside the interval")

	now = now.Add(time.Second)
	assert.True(t, r.Observe(Inattentive))
}

func TestReporter_NoticeLongerThanInterval(t *testing.T) {
	now := time.Unix(0, 0)
	r := NewReporter(time.Second, 4*time.Second)
	r.now = func() time.Time { return now }

	assert.True(t, r.Observe(Inattentive))
	now = now.Add(2 * time.Second)
	assert.False(t, r.Observe(Inattentive))
	now = now.Add(2 * time.Second)
	assert.True(t, r.Observe(Inattentive))
}
