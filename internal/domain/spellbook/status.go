package spellbook

type ExecutionStatus string

const (
	StatusSuccess        ExecutionStatus = "success"
	StatusPartialSuccess ExecutionStatus = "partial_success"
	StatusError          ExecutionStatus = "error"
)

// DeriveStatus classifies a webhook execution for the audit log.
// An explicit error message or a failed diff-processing outcome means
// error; a clean run that matched nothing is only a partial success.
func DeriveStatus(errorMessage string, processingStatus string, matchedCount int) ExecutionStatus {
	if errorMessage != "" || processingStatus == string(StatusError) {
		return StatusError
	}
	if matchedCount == 0 {
		return StatusPartialSuccess
	}
	return StatusSuccess
}
