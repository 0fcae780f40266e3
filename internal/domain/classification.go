package domain

// Classification is the validated outcome of classifying one article.
// When IsValid is false both ID sets are empty.
type Classification struct {
	IsValid     bool     `json:"isValid"`
	SkillIDs    []string `json:"skillIds"`
	JobGroupIDs []string `json:"jobGroupIds"`
}
