// Package smoke builds the diagnostic report served at /smokeTest.
package smoke

// Status values used throughout the report.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Case is a single check outcome.
type Case struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Suite groups cases under a name.
type Suite struct {
	Name          string `json:"name"`
	Status        string `json:"status"`
	NbTestSuccess int    `json:"nbTestSuccess"`
	NbTestWarning int    `json:"nbTestWarning"`
	NbTestError   int    `json:"nbTestError"`
	Cases         []Case `json:"cases"`
}

// Report is the top-level payload.
type Report struct {
	Resultats     []Suite `json:"resultats"`
	Status        string  `json:"status"`
	NbTestSuccess int     `json:"nbTestSuccess"`
	NbTestWarning int     `json:"nbTestWarning"`
	NbTestError   int     `json:"nbTestError"`
}

// Check produces the cases of one suite.
type Check struct {
	Suite string
	Run   func() []Case
}

// Run executes checks in order and aggregates their counters.
func Run(checks ...Check) Report {
	rep := Report{Resultats: []Suite{}, Status: StatusSuccess}
	for _, c := range checks {
		suite := Suite{Name: c.Suite, Status: StatusSuccess, Cases: []Case{}}
		for _, cs := range c.Run() {
			if cs.Status == StatusSuccess {
				suite.NbTestSuccess++
			} else {
				suite.NbTestError++
				suite.Status = StatusError
			}
			suite.Cases = append(suite.Cases, cs)
		}
		rep.NbTestSuccess += suite.NbTestSuccess
		rep.NbTestWarning += suite.NbTestWarning
		rep.NbTestError += suite.NbTestError
		rep.Resultats = append(rep.Resultats, suite)
	}
	if rep.NbTestError > 0 {
		rep.Status = StatusError
	}
	return rep
}

// ModelExistence reports whether the named model is available.
func ModelExistence(name string, loaded bool) Case {
	if loaded {
		return Case{Name: "Model Existence", Status: StatusSuccess, Message: "model " + name + " exists"}
	}
	return Case{Name: "Model Existence", Status: StatusError, Message: "model " + name + " doesn't exist"}
}
