package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crev-dev/go-crev/pkg/identity"
	"github.com/crev-dev/go-crev/pkg/proof"
)

func TestParseIds(t *testing.T) {
	ids := parseIds([]string{" alice ", "bob"})
	assert.Equal(t, []identity.Id{"alice", "bob"}, ids)
}

func TestParseAdvisories(t *testing.T) {
	advisories, err := parseAdvisories([]string{"CVE-1,CVE-2:minor:high"})
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	assert.Equal(t, []string{"CVE-1", "CVE-2"}, advisories[0].Ids)
	assert.Equal(t, proof.RangeMinor, advisories[0].Range)
	assert.Equal(t, proof.LevelHigh, advisories[0].Severity)
}

func TestParseAdvisoriesRejectsMalformed(t *testing.T) {
	_, err := parseAdvisories([]string{"not-enough-parts"})
	assert.Error(t, err)
}

func TestParseIssues(t *testing.T) {
	issues, err := parseIssues([]string{"GHSA-1:low"})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "GHSA-1", issues[0].Id)
	assert.Equal(t, proof.LevelLow, issues[0].Severity)
}

func TestParseIssuesRejectsMalformed(t *testing.T) {
	_, err := parseIssues([]string{"missing-severity"})
	assert.Error(t, err)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("a", "b"))
	assert.Equal(t, "b", firstNonEmpty("", "b"))
}

func TestIntOrDefault(t *testing.T) {
	assert.Equal(t, 3, intOrDefault(3, 5))
	assert.Equal(t, 5, intOrDefault(0, 5))
}
