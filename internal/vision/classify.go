package vision

import "math"

// Default classifier thresholds, in normalized landmark units except the
// neck slump which is in degrees.
const (
	DefaultShoulderTiltThreshold = 0.06
	DefaultNeckSlumpDegThreshold = 12.0
	DefaultHandMoveThreshold     = 0.03
	DefaultGazeDownThreshold     = 0.02
)

// GazeDirection is the coarse gaze bucket for one frame.
type GazeDirection string

const (
	GazeCenter GazeDirection = "center"
	GazeLeft   GazeDirection = "left"
	GazeRight  GazeDirection = "right"
	GazeDown   GazeDirection = "down"
)

// ClassifyGaze buckets the gaze from the eye-midpoint/nose vertical offset.
// Only center and down are produced; left/right require iris tracking the
// detector does not provide.
func ClassifyGaze(face *FaceLandmarks, downThreshold float64) GazeDirection {
	eyeMidY := (face.LeftEye.Y + face.RightEye.Y) / 2
	dy := eyeMidY - face.Nose.Y
	if dy < -downThreshold {
		return GazeDown
	}
	return GazeCenter
}

// PostureResult carries the classifier verdict plus the measured values for
// logging.
type PostureResult struct {
	Correct      bool
	ShoulderTilt float64
	NeckAngleDeg float64
}

// ClassifyPosture flags posture as incorrect when the shoulders tilt beyond
// the threshold or the ear-to-shoulder neck vector slumps past the angle
// threshold. Either condition alone is enough.
func ClassifyPosture(pose *PoseLandmarks, tiltThreshold, slumpDegThreshold float64) PostureResult {
	tilt := math.Abs(pose.LeftShoulder.Y - pose.RightShoulder.Y)

	shoulderMid := Point{
		X: (pose.LeftShoulder.X + pose.RightShoulder.X) / 2,
		Y: (pose.LeftShoulder.Y + pose.RightShoulder.Y) / 2,
	}
	earMid := Point{
		X: (pose.LeftEar.X + pose.RightEar.X) / 2,
		Y: (pose.LeftEar.Y + pose.RightEar.Y) / 2,
	}
	vecX := earMid.X - shoulderMid.X
	vecY := earMid.Y - shoulderMid.Y
	neckAngle := -math.Atan2(vecY, vecX) * 180 / math.Pi

	incorrect := tilt > tiltThreshold || math.Abs(neckAngle) > slumpDegThreshold
	return PostureResult{
		Correct:      !incorrect,
		ShoulderTilt: tilt,
		NeckAngleDeg: neckAngle,
	}
}

// HandTrack classifies hand movement across frames by comparing the wrist
// position against the last one seen. Not safe for concurrent use.
type HandTrack struct {
	threshold   float64
	resetOnLoss bool
	prev        *Point
}

// NewHandTrack returns a tracker with the given movement threshold. With
// resetOnLoss the stored position is cleared on frames without a hand, so
// the first re-detection never counts as movement.
func NewHandTrack(threshold float64, resetOnLoss bool) *HandTrack {
	return &HandTrack{threshold: threshold, resetOnLoss: resetOnLoss}
}

// Observe consumes the hands detected in one frame and reports whether the
// primary hand moved beyond the threshold since its last observation. The
// stored position is always overwritten when a hand is present.
func (h *HandTrack) Observe(hands []HandLandmarks) bool {
	if len(hands) == 0 {
		if h.resetOnLoss {
			h.prev = nil
		}
		return false
	}
	wrist := hands[0].Wrist
	moved := false
	if h.prev != nil {
		dx := wrist.X - h.prev.X
		dy := wrist.Y - h.prev.Y
		moved = math.Hypot(dx, dy) > h.threshold
	}
	h.prev = &Point{X: wrist.X, Y: wrist.Y}
	return moved
}

// Reset clears the tracked position.
func (h *HandTrack) Reset() {
	h.prev = nil
}
