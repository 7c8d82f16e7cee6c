package tasks

import "github.com/desertthunder/vgen/internal/models"

// Classification is the user-facing reading of a video failure.
type Classification struct {
	DisplayMessage string
	// Retryable failures are retried by the backend; the client only shows passive status.
	Retryable bool
}

// Classify maps a backend error code and message to a [Classification].
// Unknown codes are fatal and show the raw message.
func Classify(errorType models.ErrorType, message string) Classification {
	switch errorType {
	case models.ErrorHighDemand:
		return Classification{DisplayMessage: "Flow is experiencing high demand. Retrying...", Retryable: true}
	case models.ErrorTimeout:
		return Classification{DisplayMessage: "Generation timed out", Retryable: true}
	case models.ErrorProminentPeople:
		return Classification{DisplayMessage: "Prompt violates policy about prominent people"}
	case models.ErrorPolicyViolation:
		return Classification{DisplayMessage: "Prompt violates content policy"}
	default:
		return Classification{DisplayMessage: message}
	}
}

// ClassifyVideo classifies a failed video. Videos that have not failed are not retryable and have no message.
func ClassifyVideo(v models.Video) Classification {
	if v.Status != models.VideoFailed {
		return Classification{}
	}
	c := Classify(v.ErrorType, v.ErrorMessage)
	if c.DisplayMessage == "" {
		c.DisplayMessage = "Generation failed"
	}
	return c
}
