// Package profile holds the portfolio owner's knowledge base: the data rendered on the home page and the
// only source the chat assistant may answer from.
package profile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	portfolio "github.com/MegaGrindStone/portfolio-chat"
	"gopkg.in/yaml.v3"
)

// Profile is the portfolio owner's knowledge base.
type Profile struct {
	Owner       string `yaml:"owner"`
	Title       string `yaml:"title"`
	Tagline     string `yaml:"tagline"`
	About       string `yaml:"about"`
	ChatbotInfo string `yaml:"chatbotInfo"`

	Contact        []string        `yaml:"contact"`
	Experience     []Experience    `yaml:"experience"`
	Education      []Education     `yaml:"education"`
	Certifications []Certification `yaml:"certifications"`
	Skills         []SkillCategory `yaml:"skills"`
	Projects       []Project       `yaml:"projects"`
}

// Experience is one position held.
type Experience struct {
	Role     string `yaml:"role"`
	Company  string `yaml:"company"`
	Period   string `yaml:"period"`
	Location string `yaml:"location"`
	Summary  string `yaml:"summary"`
}

// Education is one degree or school record.
type Education struct {
	Degree      string `yaml:"degree"`
	Institution string `yaml:"institution"`
	Period      string `yaml:"period"`
	Grade       string `yaml:"grade"`
}

// Certification is a credential with its issuer and year.
type Certification struct {
	Name   string `yaml:"name"`
	Issuer string `yaml:"issuer"`
	Year   int    `yaml:"year"`
}

// SkillCategory groups skills under a heading. Categories keep their file order.
type SkillCategory struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

// Project is a portfolio project card.
type Project struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Technologies []string `yaml:"technologies"`
	URL          string   `yaml:"url"`
}

// Load decodes a profile from YAML. The owner's name is required since every prompt speaks as them.
func Load(r io.Reader) (Profile, error) {
	var p Profile
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("error decoding profile: %w", err)
	}
	if strings.TrimSpace(p.Owner) == "" {
		return Profile{}, fmt.Errorf("profile owner is required")
	}
	return p, nil
}

// LoadFile decodes the profile stored at path.
func LoadFile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("error opening profile: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Default returns the example profile embedded in the binary.
func Default() (Profile, error) {
	return Load(bytes.NewReader(portfolio.DefaultProfile))
}

// field is one key of an ordered mapping in the knowledge tree.
type field struct {
	key   string
	value any
}

// Knowledge renders the profile as indented plain text: mappings as "key: value" lines and lists as
// "- item" lines, two spaces per nesting level.
func (p Profile) Knowledge() string {
	return formatItem(p.tree(), 0)
}

func (p Profile) tree() []field {
	var root []field
	add := func(key string, value any) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return
			}
		case []any:
			if len(v) == 0 {
				return
			}
		}
		root = append(root, field{key: key, value: value})
	}

	add("owner", p.Owner)
	add("title", p.Title)
	add("about", strings.TrimSpace(p.About))
	add("chatbot_info", p.ChatbotInfo)
	add("contact", anySlice(p.Contact))

	var exp []any
	for _, e := range p.Experience {
		exp = append(exp, strings.Join(nonEmpty(
			fmt.Sprintf("%s at %s (%s)", e.Role, e.Company, e.Period),
			e.Location,
			e.Summary,
		), " | "))
	}
	add("experience", exp)

	var edu []any
	for _, e := range p.Education {
		edu = append(edu, strings.Join(nonEmpty(e.Degree, e.Institution, e.Period, e.Grade), " | "))
	}
	add("education", edu)

	var certs []any
	for _, c := range p.Certifications {
		certs = append(certs, []field{
			{key: "name", value: c.Name},
			{key: "issuer", value: c.Issuer},
			{key: "year", value: c.Year},
		})
	}
	add("certifications", certs)

	if len(p.Skills) > 0 {
		skills := make([]field, 0, len(p.Skills))
		for _, s := range p.Skills {
			skills = append(skills, field{key: s.Category, value: anySlice(s.Items)})
		}
		root = append(root, field{key: "skills", value: skills})
	}

	var projects []any
	for _, pr := range p.Projects {
		projects = append(projects, []field{
			{key: "name", value: pr.Name},
			{key: "description", value: pr.Description},
			{key: "technologies", value: anySlice(pr.Technologies)},
		})
	}
	add("projects", projects)

	return root
}

func formatItem(item any, indent int) string {
	pad := strings.Repeat("  ", indent)
	switch v := item.(type) {
	case []field:
		lines := make([]string, len(v))
		for i, f := range v {
			lines[i] = pad + f.key + ": " + formatItem(f.value, indent+1)
		}
		return strings.Join(lines, "\n")
	case []any:
		lines := make([]string, len(v))
		for i, it := range v {
			lines[i] = pad + "- " + formatItem(it, indent+1)
		}
		return strings.Join(lines, "\n")
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func nonEmpty(ss ...string) []string {
	out := ss[:0]
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

const promptTemplate = `You are %[1]s. Use only the information provided in the knowledge base below to respond as yourself.
If the answer is not found in the knowledge base, respond politely that you don't have that information.
Do not make up or infer any details beyond what is provided.

Knowledge Base:
%[2]s`

// SystemPrompt returns the persona prompt the chat assistant runs with.
func (p Profile) SystemPrompt() string {
	return fmt.Sprintf(promptTemplate, p.Owner, p.Knowledge())
}
