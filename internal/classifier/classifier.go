// Package classifier holds the controlled vocabulary and the rules every
// classification backend's output is held to.
package classifier

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

// MaxTagsPerSet caps skills and job groups independently.
const MaxTagsPerSet = 5

// ErrUnparsable marks a backend reply that is not a classification document.
var ErrUnparsable = errors.New("unparsable classification response")

//go:embed vocabulary.yaml
var embeddedVocabulary []byte

// Vocabulary is the closed set of skill and job-group identifiers.
type Vocabulary struct {
	skills    []string
	jobGroups []string
	skillSet  map[string]struct{}
	jobSet    map[string]struct{}
}

// LoadVocabulary parses a YAML document with skills and jobGroups lists.
func LoadVocabulary(raw []byte) (*Vocabulary, error) {
	var doc struct {
		Skills    []string `yaml:"skills"`
		JobGroups []string `yaml:"jobGroups"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(doc.Skills) == 0 || len(doc.JobGroups) == 0 {
		return nil, errors.New("vocabulary needs both skills and jobGroups")
	}

	return &Vocabulary{
		skills:    doc.Skills,
		jobGroups: doc.JobGroups,
		skillSet:  toSet(doc.Skills),
		jobSet:    toSet(doc.JobGroups),
	}, nil
}

var defaultVocabulary = sync.OnceValue(func() *Vocabulary {
	v, err := LoadVocabulary(embeddedVocabulary)
	if err != nil {
		panic(err)
	}
	return v
})

// DefaultVocabulary returns the embedded vocabulary.
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary()
}

func (v *Vocabulary) Skills() []string    { return append([]string(nil), v.skills...) }
func (v *Vocabulary) JobGroups() []string { return append([]string(nil), v.jobGroups...) }

// Enforce applies the classification rules: an invalid article carries no tags,
// and each tag set holds only known, distinct IDs, at most MaxTagsPerSet of them.
func (v *Vocabulary) Enforce(c domain.Classification) domain.Classification {
	if !c.IsValid {
		return domain.Classification{IsValid: false, SkillIDs: []string{}, JobGroupIDs: []string{}}
	}
	return domain.Classification{
		IsValid:     true,
		SkillIDs:    filter(c.SkillIDs, v.skillSet),
		JobGroupIDs: filter(c.JobGroupIDs, v.jobSet),
	}
}

func filter(ids []string, allowed map[string]struct{}) []string {
	out := make([]string, 0, min(len(ids), MaxTagsPerSet))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := allowed[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == MaxTagsPerSet {
			break
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var fence = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// ParseResponse decodes a backend reply, tolerating a ```json fenced block.
// A missing isValid reads as false.
func ParseResponse(text string) (domain.Classification, error) {
	text = strings.TrimSpace(text)
	if m := fence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var reply struct {
		IsValid     *bool    `json:"isValid"`
		SkillIDs    []string `json:"skillIds"`
		JobGroupIDs []string `json:"jobGroupIds"`
	}
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	return domain.Classification{
		IsValid:     reply.IsValid != nil && *reply.IsValid,
		SkillIDs:    reply.SkillIDs,
		JobGroupIDs: reply.JobGroupIDs,
	}, nil
}

// Guard wraps a backend, bounds the body it receives and enforces the
// vocabulary rules on whatever it returns.
type Guard struct {
	inner        ports.Classifier
	vocab        *Vocabulary
	maxBodyRunes int
}

var _ ports.Classifier = (*Guard)(nil)

// NewGuard wraps inner. A nil vocab uses the embedded one; maxBodyRunes <= 0 disables truncation.
func NewGuard(inner ports.Classifier, vocab *Vocabulary, maxBodyRunes int) *Guard {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Guard{inner: inner, vocab: vocab, maxBodyRunes: maxBodyRunes}
}

func (g *Guard) Classify(ctx context.Context, title, body string) (domain.Classification, error) {
	if g.maxBodyRunes > 0 && utf8.RuneCountInString(body) > g.maxBodyRunes {
		body = string([]rune(body)[:g.maxBodyRunes])
	}

	c, err := g.inner.Classify(ctx, title, body)
	if err != nil {
		return domain.Classification{}, err
	}
	return g.vocab.Enforce(c), nil
}

// Noop marks every article as not technical. It serves crawl-only deployments.
type Noop struct{}

var _ ports.Classifier = Noop{}

func (Noop) Classify(context.Context, string, string) (domain.Classification, error) {
	return domain.Classification{IsValid: false}, nil
}
