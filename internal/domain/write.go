package domain

// WriteOpKind enumerates the mutations a store commit may contain.
type WriteOpKind string

const (
	OpPutArticle        WriteOpKind = "put_article"
	OpPutContent        WriteOpKind = "put_content"
	OpIncrementSkill    WriteOpKind = "increment_skill"
	OpIncrementJobGroup WriteOpKind = "increment_job_group"
)

// WriteOp is a single document mutation. Exactly one of Article, Content or TagID is set,
// depending on Kind.
type WriteOp struct {
	Kind    WriteOpKind
	Article *ArticleRecord
	Content *ContentBody
	TagID   string
}

// ArticleOps expands one article into its record, body and counter increments.
func ArticleOps(record ArticleRecord, body ContentBody) []WriteOp {
	ops := make([]WriteOp, 0, 2+len(record.SkillIDs)+len(record.JobGroupIDs))
	ops = append(ops,
		WriteOp{Kind: OpPutArticle, Article: &record},
		WriteOp{Kind: OpPutContent, Content: &body},
	)
	for _, id := range record.SkillIDs {
		ops = append(ops, WriteOp{Kind: OpIncrementSkill, TagID: id})
	}
	for _, id := range record.JobGroupIDs {
		ops = append(ops, WriteOp{Kind: OpIncrementJobGroup, TagID: id})
	}
	return ops
}
