package model

// UnsupportedModelError reports a requested estimator combination that is
// outside implemented scope.
type UnsupportedModelError struct {
	Reason string
}

func (e *UnsupportedModelError) Error() string {
	return "unsupported model: " + e.Reason
}
