package smoke

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	rep := Run(Check{Suite: "Model Tests", Run: func() []Case {
		return []Case{ModelExistence("participants", true)}
	}})
	assert.Equal(t, StatusSuccess, rep.Status)
	assert.Equal(t, 1, rep.NbTestSuccess)
	assert.Equal(t, 0, rep.NbTestError)
	require.Len(t, rep.Resultats, 1)
	assert.Equal(t, "model participants exists", rep.Resultats[0].Cases[0].Message)

	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"resultats": [{
			"name": "Model Tests", "status": "SUCCESS",
			"nbTestSuccess": 1, "nbTestWarning": 0, "nbTestError": 0,
			"cases": [{"name": "Model Existence", "status": "SUCCESS", "message": "model participants exists"}]
		}],
		"status": "SUCCESS", "nbTestSuccess": 1, "nbTestWarning": 0, "nbTestError": 0
	}`, string(b))
}

func TestRun_ErrorPropagates(t *testing.T) {
	rep := Run(
		Check{Suite: "Model Tests", Run: func() []Case { return []Case{ModelExistence("participants", false)} }},
		Check{Suite: "Other", Run: func() []Case { return []Case{ModelExistence("x", true)} }},
	)
	assert.Equal(t, StatusError, rep.Status)
	assert.Equal(t, StatusError, rep.Resultats[0].Status)
	assert.Equal(t, StatusSuccess, rep.Resultats[1].Status)
	assert.Equal(t, 1, rep.NbTestError)
	assert.Equal(t, 1, rep.NbTestSuccess)
	assert.Equal(t, "model participants doesn't exist", rep.Resultats[0].Cases[0].Message)
}

func TestRun_NoChecks(t *testing.T) {
	rep := Run()
	assert.Equal(t, StatusSuccess, rep.Status)
	assert.NotNil(t, rep.Resultats)
}
