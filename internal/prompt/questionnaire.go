package prompt

// Question is one entry of the EB-1A screening questionnaire.
type Question struct {
	ID    string
	Label string
	Help  string
}

var questionnaire = []Question{
	{ID: "field", Label: "What is your field of expertise?", Help: "e.g. machine learning research, cardiology, film direction"},
	{ID: "awards", Label: "Have you received nationally or internationally recognized prizes or awards?"},
	{ID: "memberships", Label: "Are you a member of associations that require outstanding achievement for admission?"},
	{ID: "media", Label: "Has published material been written about you in professional or major media?"},
	{ID: "judging", Label: "Have you judged the work of others in your field?", Help: "peer review, competition juries, grant panels"},
	{ID: "contributions", Label: "Have you made original contributions of major significance to your field?"},
	{ID: "publications", Label: "Have you authored scholarly articles in professional journals or major media?"},
	{ID: "exhibitions", Label: "Has your work been displayed at artistic exhibitions or showcases?"},
	{ID: "leadership", Label: "Have you performed a leading or critical role for distinguished organizations?"},
	{ID: "salary", Label: "Do you command a high salary compared to others in your field?"},
	{ID: "commercial", Label: "Have you achieved commercial success in the performing arts?"},
}

var criteria = []string{
	"Awards: receipt of lesser nationally or internationally recognized prizes or awards for excellence",
	"Membership: membership in associations that require outstanding achievements of their members",
	"Published material: material about the person in professional or major trade publications or other major media",
	"Judging: participation as a judge of the work of others in the same or an allied field",
	"Original contributions: original scientific, scholarly, artistic, athletic or business contributions of major significance",
	"Scholarly articles: authorship of scholarly articles in professional journals or other major media",
	"Exhibitions: display of the person's work at artistic exhibitions or showcases",
	"Leading or critical role: performance in a leading or critical role for distinguished organizations",
	"High salary: a high salary or other significantly high remuneration in relation to others in the field",
	"Commercial success: commercial success in the performing arts",
}

// Questionnaire returns the declared questions in display order.
func Questionnaire() []Question {
	out := make([]Question, len(questionnaire))
	copy(out, questionnaire)
	return out
}

// Criteria returns the evaluated criteria in prompt order.
func Criteria() []string {
	out := make([]string, len(criteria))
	copy(out, criteria)
	return out
}
