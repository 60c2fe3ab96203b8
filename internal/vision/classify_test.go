package vision

import "testing"

func TestClassifyGaze(t *testing.T) {
	tests := []struct {
		name string
		face FaceLandmarks
		want GazeDirection
	}{
		{
			name: "eyes well above nose is down",
			face: FaceLandmarks{
				Nose:     Point{X: 0.5, Y: 0.5},
				LeftEye:  Point{X: 0.45, Y: 0.42},
				RightEye: Point{X: 0.55, Y: 0.42},
			},
			want: GazeDown,
		},
		{
			name: "eyes level with nose is center",
			face: FaceLandmarks{
				Nose:     Point{X: 0.5, Y: 0.5},
				LeftEye:  Point{X: 0.45, Y: 0.5},
				RightEye: Point{X: 0.55, Y: 0.5},
			},
			want: GazeCenter,
		},
		{
			// The threshold itself is exclusive, so the fixtures sit clearly
			// on either side of it rather than on the float boundary.
			name: "offset just inside threshold is center",
			face: FaceLandmarks{
				Nose:     Point{X: 0.5, Y: 0.5},
				LeftEye:  Point{X: 0.45, Y: 0.49},
				RightEye: Point{X: 0.55, Y: 0.49},
			},
			want: GazeCenter,
		},
		{
			name: "offset just past threshold is down",
			face: FaceLandmarks{
				Nose:     Point{X: 0.5, Y: 0.5},
				LeftEye:  Point{X: 0.45, Y: 0.47},
				RightEye: Point{X: 0.55, Y: 0.47},
			},
			want: GazeDown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyGaze(&tt.face, DefaultGazeDownThreshold)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyPostureTilt(t *testing.T) {
	// Ears nearly level with the shoulder midpoint keep the neck angle small
	// so only the tilt condition is in play.
	pose := PoseLandmarks{
		LeftShoulder:  Point{X: 0.4, Y: 0.60},
		RightShoulder: Point{X: 0.6, Y: 0.70},
		LeftEar:       Point{X: 0.45, Y: 0.649},
		RightEar:      Point{X: 0.75, Y: 0.651},
	}
	res := ClassifyPosture(&pose, DefaultShoulderTiltThreshold, DefaultNeckSlumpDegThreshold)
	if res.Correct {
		t.Errorf("tilt %.3f should be flagged incorrect", res.ShoulderTilt)
	}
	if res.ShoulderTilt < 0.099 || res.ShoulderTilt > 0.101 {
		t.Errorf("shoulder tilt = %.4f, want ~0.10", res.ShoulderTilt)
	}
}

func TestClassifyPostureNeckSlump(t *testing.T) {
	// Level shoulders, ears well above and slightly forward: the neck vector
	// points steeply upward and the angle blows past the slump threshold.
	pose := PoseLandmarks{
		LeftShoulder:  Point{X: 0.4, Y: 0.6},
		RightShoulder: Point{X: 0.6, Y: 0.6},
		LeftEar:       Point{X: 0.47, Y: 0.4},
		RightEar:      Point{X: 0.53, Y: 0.4},
	}
	res := ClassifyPosture(&pose, DefaultShoulderTiltThreshold, DefaultNeckSlumpDegThreshold)
	if res.Correct {
		t.Errorf("neck angle %.1f should be flagged incorrect", res.NeckAngleDeg)
	}
}

func TestClassifyPostureCorrect(t *testing.T) {
	// Level shoulders and an ear midpoint almost horizontal from the shoulder
	// midpoint keep both measures under their thresholds.
	pose := PoseLandmarks{
		LeftShoulder:  Point{X: 0.40, Y: 0.60},
		RightShoulder: Point{X: 0.60, Y: 0.61},
		LeftEar:       Point{X: 0.60, Y: 0.595},
		RightEar:      Point{X: 0.80, Y: 0.600},
	}
	res := ClassifyPosture(&pose, DefaultShoulderTiltThreshold, DefaultNeckSlumpDegThreshold)
	if !res.Correct {
		t.Errorf("posture flagged incorrect: tilt=%.4f angle=%.2f", res.ShoulderTilt, res.NeckAngleDeg)
	}
}

func TestHandTrackFirstObservationIsNotMovement(t *testing.T) {
	h := NewHandTrack(DefaultHandMoveThreshold, false)
	if h.Observe([]HandLandmarks{{Wrist: Point{X: 0.5, Y: 0.5}}}) {
		t.Error("first observation must not count as movement")
	}
}

func TestHandTrackMovement(t *testing.T) {
	h := NewHandTrack(DefaultHandMoveThreshold, false)
	h.Observe([]HandLandmarks{{Wrist: Point{X: 0.5, Y: 0.5}}})

	if h.Observe([]HandLandmarks{{Wrist: Point{X: 0.51, Y: 0.5}}}) {
		t.Error("0.01 displacement should be under the threshold")
	}
	if !h.Observe([]HandLandmarks{{Wrist: Point{X: 0.56, Y: 0.5}}}) {
		t.Error("0.05 displacement should be movement")
	}
}

func TestHandTrackStaleCarryOver(t *testing.T) {
	h := NewHandTrack(DefaultHandMoveThreshold, false)
	h.Observe([]HandLandmarks{{Wrist: Point{X: 0.5, Y: 0.5}}})
	if h.Observe(nil) {
		t.Error("frame without a hand must not count as movement")
	}
	// Position carried over: the re-detection is compared against it.
	if !h.Observe([]HandLandmarks{{Wrist: Point{X: 0.6, Y: 0.5}}}) {
		t.Error("re-detection far from the stale position should be movement")
	}
}

func TestHandTrackResetOnLoss(t *testing.T) {
	h := NewHandTrack(DefaultHandMoveThreshold, true)
	h.Observe([]HandLandmarks{{Wrist: Point{X: 0.5, Y: 0.5}}})
	h.Observe(nil)
	if h.Observe([]HandLandmarks{{Wrist: Point{X: 0.9, Y: 0.9}}}) {
		t.Error("with reset-on-loss the re-detection must not count as movement")
	}
}
