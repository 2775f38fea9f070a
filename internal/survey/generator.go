package survey

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Catalog is the fixed brand/survey/question catalog used for sample data.
// brand -> survey -> questions.
type Catalog map[string]map[string][]Question

// DefaultCatalog returns the built-in demo catalog: three brands, one survey
// each, mixing quantitative and open-ended questions.
func DefaultCatalog() Catalog {
	return Catalog{
		"TechCorp": {
			"S1": {
				{ID: "q1", Type: TypeRating, Text: "How would you rate the product quality?", Group: "product", ScaleMin: 1, ScaleMax: 5},
				{ID: "q2", Type: TypeMultipleChoice, Text: "Which features do you use most?", Group: "product", Options: []string{"AI", "Cloud", "Security", "Mobile"}},
				{ID: "q3", Type: TypeOpenEnded, Text: "What would you improve about our products?", Group: "product"},
			},
		},
		"EcoGoods": {
			"S2": {
				{ID: "q1", Type: TypeRating, Text: "How eco-friendly is our packaging?", Group: "sustainability", ScaleMin: 1, ScaleMax: 5},
				{ID: "q2", Type: TypeOpenEnded, Text: "How could our packaging be more sustainable?", Group: "sustainability"},
			},
		},
		"HealthPlus": {
			"S3": {
				{ID: "q1", Type: TypeMultipleChoice, Text: "Which health products do you use?", Group: "products", Options: []string{"Vitamins", "Supplements", "Protein", "Herbs"}},
				{ID: "q2", Type: TypeOpenEnded, Text: "What health goals are you working toward?", Group: "products"},
			},
		},
	}
}

// Generator produces fake survey responses for the demo catalog.
type Generator struct {
	faker   *gofakeit.Faker
	catalog Catalog
	brands  []string
}

// NewGenerator creates a generator. seed 0 means a random seed.
func NewGenerator(seed uint64) *Generator {
	catalog := DefaultCatalog()

	brands := make([]string, 0, len(catalog))
	for brand := range catalog {
		brands = append(brands, brand)
	}
	// Map iteration order is random; keep brand order stable for seeded runs.
	slices.Sort(brands)

	return &Generator{
		faker:   gofakeit.New(seed),
		catalog: catalog,
		brands:  brands,
	}
}

// Demographics generates one respondent's demographic attributes.
func (g *Generator) Demographics() Demographics {
	return Demographics{
		Age:           strconv.Itoa(g.faker.Number(18, 80)),
		Gender:        g.faker.RandomString([]string{"Male", "Female", "Other"}),
		Location:      g.faker.City(),
		IncomeBracket: g.faker.RandomString([]string{"Low", "Medium", "High"}),
		Education:     g.faker.RandomString([]string{"High School", "Bachelor", "Master", "PhD"}),
	}
}

// Answer generates an answer for the given question, always as a string.
func (g *Generator) Answer(q Question) string {
	switch q.Type {
	case TypeRating, TypeScale:
		return strconv.Itoa(g.faker.Number(q.ScaleMin, q.ScaleMax))
	case TypeMultipleChoice:
		return g.faker.RandomString(q.Options)
	case TypeOpenEnded:
		return g.faker.Sentence(12)
	default:
		return ""
	}
}

// Dataset generates flattened responses for n respondents. Each respondent
// answers every question of a random non-empty subset of brand surveys; all
// rows of one survey sitting share a timestamp.
func (g *Generator) Dataset(n int) []Response {
	var rows []Response

	now := time.Now()
	monthAgo := now.AddDate(0, 0, -30)

	for range n {
		userID := g.faker.UUID()
		demo := g.Demographics()

		for _, brand := range g.pickBrands() {
			for surveyID, questions := range g.catalog[brand] {
				ts := g.faker.DateRange(monthAgo, now).Format(time.RFC3339)

				for _, q := range questions {
					row := Response{
						ResponseID:    g.faker.UUID(),
						UserID:        userID,
						BrandID:       brand,
						SurveyID:      surveyID,
						Timestamp:     ts,
						QuestionID:    q.ID,
						QuestionType:  q.Type,
						QuestionText:  q.Text,
						QuestionGroup: q.Group,
						Answer:        g.Answer(q),
						Demographics:  demo,
					}

					if q.Type == TypeRating || q.Type == TypeScale {
						row.ScaleMin = strconv.Itoa(q.ScaleMin)
						row.ScaleMax = strconv.Itoa(q.ScaleMax)
					}
					if q.Type == TypeMultipleChoice {
						row.Options = strings.Join(q.Options, "|")
					}

					rows = append(rows, row)
				}
			}
		}
	}

	return rows
}

// pickBrands returns a random non-empty subset of brands, order preserved.
func (g *Generator) pickBrands() []string {
	count := g.faker.Number(1, len(g.brands))

	picked := make([]string, 0, count)
	remaining := count
	for i, brand := range g.brands {
		if remaining == 0 {
			break
		}
		// Reservoir-style: pick `remaining` out of what's left.
		if g.faker.Number(1, len(g.brands)-i) <= remaining {
			picked = append(picked, brand)
			remaining--
		}
	}
	return picked
}
