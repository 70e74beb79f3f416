package benchmark

// Request describes one run or upload. It is built once from the command line
// and passed by value, so retries always replay the same request.
type Request struct {
	// Experiment is a predefined experiment name or a path to an experiment
	// file.
	Experiment string
	// OutputDir defaults to "<experiment>-results" in the working directory.
	OutputDir    string
	Overwrite    bool
	MatlabExport bool
	// ForceLocal recomputes every method even when cached results exist.
	ForceLocal  bool
	Upload      bool
	UploadForce bool
}
