package content

import (
	"context"
	"fmt"
)

// StaticProvider serves a fixed in-memory question bank. It backs tests and
// single-node deployments where content is seeded at startup.
type StaticProvider struct {
	configs   map[Module]ExamConfig
	questions map[Module][]Question
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		configs:   make(map[Module]ExamConfig),
		questions: make(map[Module][]Question),
	}
}

// NewSeededProvider returns a provider preloaded with the standard FLK1/FLK2
// configurations and a compact sample bank per topic.
func NewSeededProvider() *StaticProvider {
	p := NewStaticProvider()
	p.SetConfig(ExamConfig{
		Module:          ModuleFLK1,
		TotalQuestions:  180,
		DurationSeconds: 5 * 60 * 60,
		Subjects: []string{
			"Business Law and Practice",
			"Dispute Resolution",
			"Contract",
			"Tort",
			"Legal System of England and Wales",
			"Constitutional and Administrative Law",
			"Legal Services",
		},
	})
	p.SetConfig(ExamConfig{
		Module:          ModuleFLK2,
		TotalQuestions:  180,
		DurationSeconds: 5 * 60 * 60,
		Subjects: []string{
			"Property Practice",
			"Wills and the Administration of Estates",
			"Solicitors Accounts",
			"Land Law",
			"Trusts",
			"Criminal Law and Practice",
		},
	})
	difficulties := []Difficulty{DifficultyFoundation, DifficultyIntermediate, DifficultyAdvanced, DifficultyExpert}
	angoffs := []float64{85, 70, 55, 40}
	for _, mod := range []Module{ModuleFLK1, ModuleFLK2} {
		cfg, _ := p.configs[mod]
		n := 0
		for _, subject := range cfg.Subjects {
			for i := 0; i < 8; i++ {
				n++
				d := difficulties[i%len(difficulties)]
				p.AddQuestions(Question{
					ID:                 fmt.Sprintf("%s-%03d", mod, n),
					Module:             mod,
					Topic:              subject,
					Subtopic:           fmt.Sprintf("%s core principles %d", subject, i+1),
					Difficulty:         d,
					AngoffScore:        angoffs[i%len(angoffs)],
					Options:            []string{"Option A", "Option B", "Option C", "Option D", "Option E"},
					CorrectOptionIndex: i % 5,
				})
			}
		}
	}
	return p
}

func (p *StaticProvider) SetConfig(cfg ExamConfig) {
	p.configs[cfg.Module] = cfg
}

func (p *StaticProvider) AddQuestions(qs ...Question) {
	for _, q := range qs {
		p.questions[q.Module] = append(p.questions[q.Module], q)
	}
}

func (p *StaticProvider) QuestionsFor(ctx context.Context, module Module, f Filter) ([]Question, error) {
	bank, ok := p.questions[module]
	if !ok {
		return nil, ErrModuleNotFound
	}
	out := make([]Question, 0, len(bank))
	for _, q := range bank {
		if f.Topic != "" && q.Topic != f.Topic {
			continue
		}
		if f.Difficulty != "" && q.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, q)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (p *StaticProvider) ExamConfig(ctx context.Context, module Module) (*ExamConfig, error) {
	cfg, ok := p.configs[module]
	if !ok {
		return nil, ErrModuleNotFound
	}
	c := cfg
	return &c, nil
}
