package constants

// CaptureState is the state of a single capture attempt.
type CaptureState string

// Stable values (these exact strings appear in logs).
const (
	CaptureIdle                CaptureState = "IDLE"
	CaptureImageAcquired       CaptureState = "IMAGE_ACQUIRED"
	CaptureRecognizing         CaptureState = "RECOGNIZING"
	CaptureNormalizeAndExtract CaptureState = "NORMALIZE_AND_EXTRACT"
	CaptureCandidateReady      CaptureState = "CANDIDATE_READY" // terminal
	CaptureFailed              CaptureState = "FAILED"          // terminal
	CaptureCancelled           CaptureState = "CANCELLED"       // terminal
)

// Terminal reports whether no further transitions happen for the attempt.
func (s CaptureState) Terminal() bool {
	switch s {
	case CaptureCandidateReady, CaptureFailed, CaptureCancelled:
		return true
	}
	return false
}

// FailureReason classifies a Failed capture attempt.
type FailureReason string

const (
	FailureNoTextDetected          FailureReason = "NO_TEXT_DETECTED"
	FailureNoDelimitedContentFound FailureReason = "NO_DELIMITED_CONTENT_FOUND"
	FailureEngine                  FailureReason = "ENGINE_FAILURE"
)
