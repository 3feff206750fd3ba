// Package variant derives randomized copies of an exam for anti-cheating
// distribution.
package variant

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
)

// TitleSuffix is appended to the title of every generated variant.
const TitleSuffix = " (Varian Acak)"

// Generator shuffles questions within each section and options within each
// option-bearing question. It only permutes slices: ids are never
// regenerated, so answer keys that reference option ids stay valid.
type Generator struct {
	rng   *rand.Rand
	newID func() string
	now   func() time.Time
}

// New creates a Generator. A nil rng uses a randomly seeded source.
func New(rng *rand.Rand, newID func() string, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng, newID: newID, now: now}
}

// NewSeeded creates a Generator with a deterministic source.
func NewSeeded(seed uint64, newID func() string, now func() time.Time) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), newID, now)
}

// Generate returns a new exam derived from src. src is not modified.
func (g *Generator) Generate(src model.Exam) (model.Exam, error) {
	e, err := model.CloneExam(src)
	if err != nil {
		return model.Exam{}, err
	}
	e.ID = g.newID()
	e.CreatedAt = g.now()
	e.Title += TitleSuffix

	for si := range e.Sections {
		qs := e.Sections[si].Questions
		g.rng.Shuffle(len(qs), func(i, j int) {
			qs[i], qs[j] = qs[j], qs[i]
		})
		for qi := range qs {
			qs[qi].QuestionNumber = strconv.Itoa(qi + 1)
			if qs[qi].Type.HasOptions() {
				g.shuffleOptions(&qs[qi])
			}
		}
	}
	return e, nil
}

func (g *Generator) shuffleOptions(q *model.Question) {
	opts := q.Options
	sequential := hasDefaultLabels(opts)
	g.rng.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	// Default a, b, c… labels follow the new positions; custom labels stay
	// attached to their option.
	if sequential {
		for i := range opts {
			opts[i].Label = migrate.Letter(i)
		}
	}
}

func hasDefaultLabels(opts []model.Option) bool {
	for i, o := range opts {
		if o.Label != migrate.Letter(i) {
			return false
		}
	}
	return true
}
