// Package attention turns per-frame face detections into an attentiveness
// verdict and throttles how often a student reports being inattentive.
package attention

import (
	"math"
)

type Verdict int

const (
	Unknown Verdict = iota
	Attentive
	Inattentive
)

func (v Verdict) String() string {
	switch v {
	case Attentive:
		return "attentive"
	case Inattentive:
		return "inattentive"
	}
	return "unknown"
}

type Point [2]float64

// Face is one detector prediction. Landmarks follow the detector's order:
// right eye, left eye, nose, mouth, right ear, left ear.
type Face struct {
	TopLeft     Point   `json:"topLeft"`
	BottomRight Point   `json:"bottomRight"`
	Landmarks   []Point `json:"landmarks,omitempty"`
}

// Detection is one sampled frame.
type Detection struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Faces  []Face  `json:"faces"`
}

// Reason names the rule that decided a verdict.
type Reason string

const (
	ReasonNoInput       Reason = "no_input"
	ReasonNoFace        Reason = "no_face"
	ReasonMultipleFaces Reason = "multiple_faces"
	ReasonOffFrame      Reason = "off_frame"
	ReasonTooFar        Reason = "too_far"
	ReasonTooClose      Reason = "too_close"
	ReasonSideways      Reason = "sideways"
	ReasonPitch         Reason = "looking_up_down"
	ReasonTilt          Reason = "head_tilt"
	ReasonPresence      Reason = "presence"
	ReasonFacing        Reason = "facing_screen"
)

type Thresholds struct {
	MinCoverage float64 // percent of frame area
	MaxCoverage float64
	MinYaw      float64
	MaxYaw      float64
	MinPitch    float64
	MaxPitch    float64
	MaxRollDeg  float64
}

var DefaultThresholds = Thresholds{
	MinCoverage: 3.0,
	MaxCoverage: 60.0,
	MinYaw:      0.5,
	MaxYaw:      2.0,
	MinPitch:    0.6,
	MaxPitch:    2.2,
	MaxRollDeg:  25,
}

const minLandmarks = 6

type Classifier struct {
	T Thresholds
}

func NewClassifier() *Classifier {
	return &Classifier{T: DefaultThresholds}
}

// Classify applies the rules in order and returns the first one that decides.
// A nil detection or a frame without size is Unknown.
func (c *Classifier) Classify(d *Detection) (Verdict, Reason) {
	if d == nil || d.Width <= 0 || d.Height <= 0 {
		return Unknown, ReasonNoInput
	}
	switch len(d.Faces) {
	case 0:
		return Inattentive, ReasonNoFace
	case 1:
	default:
		return Inattentive, ReasonMultipleFaces
	}

	f := d.Faces[0]
	if f.TopLeft[0] < 0 || f.TopLeft[1] < 0 || f.BottomRight[0] > d.Width || f.BottomRight[1] > d.Height {
		return Inattentive, ReasonOffFrame
	}

	faceArea := (f.BottomRight[0] - f.TopLeft[0]) * (f.BottomRight[1] - f.TopLeft[1])
	coverage := faceArea / (d.Width * d.Height) * 100
	if coverage < c.T.MinCoverage {
		return Inattentive, ReasonTooFar
	}
	if coverage > c.T.MaxCoverage {
		return Inattentive, ReasonTooClose
	}

	if len(f.Landmarks) < minLandmarks {
		return Attentive, ReasonPresence
	}
	rightEye, leftEye, nose, mouth := f.Landmarks[0], f.Landmarks[1], f.Landmarks[2], f.Landmarks[3]

	yaw := ratio(math.Abs(nose[0]-rightEye[0]), math.Abs(nose[0]-leftEye[0]))
	if yaw > c.T.MaxYaw || yaw < c.T.MinYaw {
		return Inattentive, ReasonSideways
	}

	eyesY := (rightEye[1] + leftEye[1]) / 2
	pitch := ratio(math.Abs(nose[1]-eyesY), math.Abs(mouth[1]-nose[1]))
	if pitch > c.T.MaxPitch || pitch < c.T.MinPitch {
		return Inattentive, ReasonPitch
	}

	roll := math.Atan2(math.Abs(rightEye[1]-leftEye[1]), math.Abs(rightEye[0]-leftEye[0])) * 180 / math.Pi
	if roll > c.T.MaxRollDeg {
		return Inattentive, ReasonTilt
	}
	return Attentive, ReasonFacing
}

// ratio clamps both distances to one pixel so near-zero spans stay finite.
func ratio(a, b float64) float64 {
	return math.Max(a, 1) / math.Max(b, 1)
}
