package acquisition

type State int32

const (
	Idle State = iota
	FetchingStatus
	Reusing
	Purchasing
	Finalizing
	Done
	Failed
)

var stateNames = [...]string{
	Idle:           "idle",
	FetchingStatus: "fetching_status",
	Reusing:        "reusing",
	Purchasing:     "purchasing",
	Finalizing:     "finalizing",
	Done:           "done",
	Failed:         "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether a run has finished in s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}
