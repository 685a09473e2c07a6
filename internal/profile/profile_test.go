package profile_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/portfolio-chat/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
owner: Sam Doe
title: Engineer
contact:
  - "Email: sam@example.com"
certifications:
  - name: Go Basics
    issuer: Example Academy
    year: 2023
skills:
  - category: Programming
    items: [Go, SQL]
  - category: Cloud
    items: [AWS]
`

func TestLoad(t *testing.T) {
	p, err := profile.Load(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "Sam Doe", p.Owner)
	require.Len(t, p.Skills, 2)
	assert.Equal(t, "Programming", p.Skills[0].Category)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills[0].Items)
	assert.Equal(t, 2023, p.Certifications[0].Year)
}

func TestLoadRequiresOwner(t *testing.T) {
	_, err := profile.Load(strings.NewReader("title: Engineer\n"))
	assert.Error(t, err)

	_, err = profile.Load(strings.NewReader("owner: [unterminated\n"))
	assert.Error(t, err)
}

func TestKnowledge(t *testing.T) {
	p, err := profile.Load(strings.NewReader(sample))
	require.NoError(t, err)

	want := strings.Join([]string{
		"owner: Sam Doe",
		"title: Engineer",
		"contact:   - Email: sam@example.com",
		"certifications:   -     name: Go Basics",
		"    issuer: Example Academy",
		"    year: 2023",
		"skills:   Programming:     - Go",
		"    - SQL",
		"  Cloud:     - AWS",
	}, "\n")
	assert.Equal(t, want, p.Knowledge())
}

func TestSystemPrompt(t *testing.T) {
	p, err := profile.Load(strings.NewReader(sample))
	require.NoError(t, err)

	prompt := p.SystemPrompt()
	assert.True(t, strings.HasPrefix(prompt, "You are Sam Doe."))
	assert.Contains(t, prompt, "Knowledge Base:\n"+p.Knowledge())
}

func TestDefault(t *testing.T) {
	p, err := profile.Default()
	require.NoError(t, err)

	assert.NotEmpty(t, p.Owner)
	assert.NotEmpty(t, p.Projects)
	assert.Contains(t, p.Knowledge(), p.Projects[0].Name)
}
