package conversation

type RunState struct {
	IsLoading bool
	RunId     RunId
	LastError string
}

type RunReducer struct {
	state RunState
}

func (r *RunReducer) State() RunState { return r.state }

func (r *RunReducer) Reset() { r.state = RunState{} }

func (r *RunReducer) SetLoading(loading bool) { r.state.IsLoading = loading }

func (r *RunReducer) Started(ev *RunStartedEvent) {
	r.state.IsLoading = true
	r.state.LastError = ""
	if run := ev.RunKey(); run != "" {
		r.state.RunId = run
	}
}

func (r *RunReducer) Finished(*RunFinishedEvent) {
	r.state.IsLoading = false
}

func (r *RunReducer) Failed(ev *RunErrorEvent) {
	r.state.IsLoading = false
	r.state.LastError = ev.Error
}
