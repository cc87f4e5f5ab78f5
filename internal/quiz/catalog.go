package quiz

import (
	"github.com/unveil/mediaquiz/internal/domain"
)

var catalog = []domain.Question{
	{
		ID:   "q01",
		Text: "Which of these headlines shows potential clickbait?",
		Options: [4]string{
			"Scientists Discover New Planet",
			"You Won't BELIEVE What This Celebrity Did Next!",
			"Global Economy Shows Signs of Recovery",
			"Local Council Approves New Infrastructure Plan",
		},
		CorrectOption:       1,
		Explanation:         "Clickbait withholds the actual information and leans on emotional hooks and capital letters to make you click.",
		Category:            domain.CategoryBias,
		Difficulty:          domain.DifficultyBeginner,
		TimeEstimateSeconds: 20,
	},
	{
		ID:   "q02",
		Text: "A post shares a shocking statistic with no link. What should you do first?",
		Options: [4]string{
			"Share it quickly so others are warned",
			"Look for the original study or data source",
			"Trust it if it has many likes",
			"Ignore every statistic you see online",
		},
		CorrectOption:       1,
		Explanation:         "Tracing a number back to its primary source is the fastest way to see whether it was reported accurately.",
		Category:            domain.CategoryFactChecking,
		Difficulty:          domain.DifficultyBeginner,
		TimeEstimateSeconds: 25,
	},
	{
		ID:   "q03",
		Text: "What's a key indicator of source credibility?",
		Options: [4]string{
			"Lots of ads",
			"Anonymous sources only",
			"Clear attribution and citations",
			"Sensational language",
		},
		CorrectOption:       2,
		Explanation:         "Credible outlets name their sources and link to evidence so readers can verify the claims themselves.",
		Category:            domain.CategorySourceAnalysis,
		Difficulty:          domain.DifficultyBeginner,
		TimeEstimateSeconds: 20,
	},
	{
		ID:   "q04",
		Text: "Which word choice signals loaded language in a news report about a protest?",
		Options: [4]string{
			"Demonstrators gathered downtown",
			"A mob of radicals stormed the square",
			"Around 2,000 people attended",
			"Police estimated the crowd size",
		},
		CorrectOption:       1,
		Explanation:         "Words like \"mob\" and \"radicals\" carry a judgment that a neutral description such as \"demonstrators\" does not.",
		Category:            domain.CategoryBias,
		Difficulty:          domain.DifficultyIntermediate,
		TimeEstimateSeconds: 30,
	},
	{
		ID:   "q05",
		Text: "An image is circulating with a dramatic caption about a current event. What is a common sign it is misleading?",
		Options: [4]string{
			"It was taken by a news agency photographer",
			"A reverse image search shows it was published years earlier",
			"It has a high resolution",
			"It shows a large crowd",
		},
		CorrectOption:       1,
		Explanation:         "Old photos are often recycled with new captions. A reverse image search reveals where and when an image first appeared.",
		Category:            domain.CategoryMisinformation,
		Difficulty:          domain.DifficultyBeginner,
		TimeEstimateSeconds: 25,
	},
	{
		ID:   "q06",
		Text: "A study finds that cities with more ice cream sales have more drownings. What is the best conclusion?",
		Options: [4]string{
			"Ice cream causes drowning",
			"Drowning increases ice cream sales",
			"A third factor, such as hot weather, may drive both",
			"The study must be fabricated",
		},
		CorrectOption:       2,
		Explanation:         "Correlation is not causation. A confounding variable like summer heat can raise both numbers at once.",
		Category:            domain.CategoryCriticalThinking,
		Difficulty:          domain.DifficultyIntermediate,
		TimeEstimateSeconds: 30,
	},
	{
		ID:   "q07",
		Text: "What does \"lateral reading\" mean when evaluating an unfamiliar website?",
		Options: [4]string{
			"Reading the whole site from top to bottom",
			"Opening new tabs to see what other sources say about the site",
			"Checking whether the site has a modern design",
			"Reading only the headlines",
		},
		CorrectOption:       1,
		Explanation:         "Professional fact-checkers leave the page and check what independent sources say about who is behind it.",
		Category:            domain.CategoryFactChecking,
		Difficulty:          domain.DifficultyIntermediate,
		TimeEstimateSeconds: 30,
	},
	{
		ID:   "q08",
		Text: "A report praising a new drug was funded by the company that sells it. What should you weigh most?",
		Options: [4]string{
			"The length of the report",
			"The potential conflict of interest and whether independent studies agree",
			"How many charts it contains",
			"Whether the company is well known",
		},
		CorrectOption:       1,
		Explanation:         "Funding does not make findings false, but it is a conflict of interest that calls for independent confirmation.",
		Category:            domain.CategorySourceAnalysis,
		Difficulty:          domain.DifficultyAdvanced,
		TimeEstimateSeconds: 40,
	},
	{
		ID:   "q09",
		Text: "Hundreds of new accounts post the same sentence about a candidate within an hour. What does this most likely indicate?",
		Options: [4]string{
			"Genuine grassroots enthusiasm",
			"A coincidence of similar opinions",
			"Coordinated inauthentic behavior",
			"A platform outage",
		},
		CorrectOption:       2,
		Explanation:         "Identical wording from freshly created accounts in a short window is a hallmark of coordinated campaigns.",
		Category:            domain.CategoryMisinformation,
		Difficulty:          domain.DifficultyAdvanced,
		TimeEstimateSeconds: 40,
	},
	{
		ID:   "q10",
		Text: "An article lists ten successful college dropouts to argue that degrees are worthless. What is the flaw?",
		Options: [4]string{
			"Survivorship bias: it ignores the many dropouts who did not succeed",
			"The article is too short",
			"It uses too many examples",
			"There is no flaw",
		},
		CorrectOption:       0,
		Explanation:         "Looking only at the winners hides everyone who followed the same path and failed.",
		Category:            domain.CategoryCriticalThinking,
		Difficulty:          domain.DifficultyAdvanced,
		TimeEstimateSeconds: 35,
	},
}

// Catalog returns a copy of the static question catalog.
func Catalog() []domain.Question {
	out := make([]domain.Question, len(catalog))
	copy(out, catalog)
	return out
}
