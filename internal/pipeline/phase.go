package pipeline

// Phase names a step of a single engine run.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseFetchingTable    Phase = "fetching_table"
	PhaseTableFetchFailed Phase = "table_fetch_failed"
	PhaseTableReady       Phase = "table_ready"
	PhaseTransforming     Phase = "transforming"
	PhaseResolvingEntries Phase = "resolving_entries"
	PhaseWritingFiles     Phase = "writing_files"
	PhaseDone             Phase = "done"
)

func (p Phase) String() string { return string(p) }
