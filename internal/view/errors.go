package view

import (
	"errors"
	"fmt"

	"github.com/spigell/job-matcher/internal/matcher"
	"github.com/spigell/job-matcher/internal/utils"
	"github.com/spigell/job-matcher/internal/workflow"
)

const maxBodyLength = 120

// Error turns a workflow error into a message for the user. The error kinds stay
// inspectable by callers; this is only the wording.
func Error(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation  *workflow.ValidationError
		concurrency *workflow.ConcurrencyError
		transport   *matcher.TransportError
		remote      *matcher.RemoteError
		decode      *matcher.DecodeError
	)

	switch {
	case errors.As(err, &validation):
		if validation.Reason == workflow.ReasonNoResume {
			return "Please select a resume first."
		}
		return fmt.Sprintf("Invalid parameters: %s.", validation.Reason)
	case errors.As(err, &concurrency):
		return fmt.Sprintf("Another request is still running (%s). Try again when it finishes.", concurrency.State)
	case errors.As(err, &remote):
		msg := fmt.Sprintf("Error %s: service returned %s", remote.Op, remote.Status)
		if body := utils.TruncateForLog(utils.OneLine(remote.Body), maxBodyLength); body != "" {
			msg += ": " + body
		}
		return msg
	case errors.As(err, &transport):
		return fmt.Sprintf("Error %s: service is unreachable: %v", transport.Op, transport.Err)
	case errors.As(err, &decode):
		return fmt.Sprintf("Error %s: unexpected response from service: %v", decode.Op, decode.Err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
