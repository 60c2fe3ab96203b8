package vision

import "context"

// Point is a landmark coordinate normalized to the frame: x and y are in
// [0,1] with the origin at the top-left corner.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FaceLandmarks holds the facial reference points used by the gaze
// classifier.
type FaceLandmarks struct {
	Nose     Point `json:"nose"`
	LeftEye  Point `json:"left_eye"`
	RightEye Point `json:"right_eye"`
}

// PoseLandmarks holds the upper-body reference points used by the posture
// classifier.
type PoseLandmarks struct {
	LeftShoulder  Point `json:"left_shoulder"`
	RightShoulder Point `json:"right_shoulder"`
	LeftEar       Point `json:"left_ear"`
	RightEar      Point `json:"right_ear"`
}

// HandLandmarks holds the reference point for one detected hand.
type HandLandmarks struct {
	Wrist Point `json:"wrist"`
}

// Result is everything detected in one frame. A nil field means the detector
// saw nothing for that modality; that is a normal outcome, not an error.
type Result struct {
	Face  *FaceLandmarks  `json:"face,omitempty"`
	Pose  *PoseLandmarks  `json:"pose,omitempty"`
	Hands []HandLandmarks `json:"hands,omitempty"`
}

// Extractor produces landmark detections from JPEG frames.
type Extractor interface {
	Extract(ctx context.Context, jpeg []byte) (*Result, error)
	Close() error
}
