package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/llmli/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  domain.Intent
	}{
		{"", domain.IntentLookup},
		{"   ", domain.IntentLookup},
		{"What file types can you read?", domain.IntentCapabilities},
		{"what do you support", domain.IntentCapabilities},
		{"what is the most common programming language here", domain.IntentCodeLanguage},
		{"languages used in my repos", domain.IntentCodeLanguage},
		{"Reflect on my journal entries", domain.IntentReflect},
		{"please reflect on last year", domain.IntentReflect},
		{"what do I like to cook", domain.IntentEvidenceProfile},
		{"what kind of music do I enjoy", domain.IntentEvidenceProfile},
		{"list every invoice from acme", domain.IntentAggregate},
		{"how many coding projects have I done in this folder", domain.IntentAggregate},
		{"total spent on travel", domain.IntentAggregate},
		{"timeline of my job changes", domain.IntentTimeline},
		{"history of the project from 2019 to 2023", domain.IntentTimeline},
		{"history of rome", domain.IntentLookup},
		{"on 2024 form 1040 what is line 9 total income", domain.IntentLookup},
		{"what is my phone number", domain.IntentLookup},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.query))
		})
	}
}

func TestEffectiveK(t *testing.T) {
	tests := []struct {
		intent domain.Intent
		n      int
		want   int
	}{
		{domain.IntentEvidenceProfile, 5, 16},
		{domain.IntentEvidenceProfile, 20, 20},
		{domain.IntentEvidenceProfile, 100, 32},
		{domain.IntentAggregate, 8, 24},
		{domain.IntentAggregate, 60, 48},
		{domain.IntentReflect, 1, 12},
		{domain.IntentReflect, 30, 24},
		{domain.IntentLookup, 3, 3},
		{domain.IntentTimeline, 7, 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectiveK(tt.intent, tt.n), "%s n=%d", tt.intent, tt.n)
	}
}

func TestExpand(t *testing.T) {
	r := New()

	assert.Equal(t, "what was my income wages gross income total income", r.Expand("what was my income"))
	assert.Equal(t, "my phone mobile cell", r.Expand("my phone"))
	assert.Equal(t, "nothing to expand", r.Expand("nothing to expand"))
	// "incomes" is not the trigger word
	assert.Equal(t, "incomes", r.Expand("incomes"))
}

func TestExpand_DedupAndOrder(t *testing.T) {
	r := NewWithSynonyms([]Synonym{
		{Trigger: "salary", Synonyms: []string{"wages", "pay"}},
		{Trigger: "income", Synonyms: []string{"wages", "total income"}},
	})

	got := r.Expand("income and salary")
	assert.Equal(t, "income and salary wages total income pay", got)

	got = r.Expand("total income vs salary")
	assert.Equal(t, "total income vs salary wages pay", got)
}

func TestRoute(t *testing.T) {
	route := New().Route("  how many phone bills  ", 8)
	assert.Equal(t, domain.IntentAggregate, route.Intent)
	assert.Equal(t, "how many phone bills", route.Query)
	assert.Equal(t, "how many phone bills mobile cell", route.Expanded)
	assert.Equal(t, 24, route.K)
}

func TestParseSynonyms(t *testing.T) {
	syn, err := ParseSynonyms([]byte("- trigger: ' Car '\n  synonyms: [auto]\n"))
	require.NoError(t, err)
	require.Len(t, syn, 1)
	assert.Equal(t, "car", syn[0].Trigger)

	_, err = ParseSynonyms([]byte("not: [a list"))
	assert.Error(t, err)
}

func TestTaxYear(t *testing.T) {
	tests := []struct {
		query string
		year  int
		ok    bool
	}{
		{"on 2024 form 1040 what is line 9 total income", 2024, true},
		{"what were my 2022 taxes", 2022, true},
		{"W-2 wages 2021", 2021, true},
		{"what happened in 2022", 0, false},
		{"how much tax did I pay", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			y, ok := TaxYear(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.year, y)
		})
	}
}
