package model

// LearningPath is a linear sequence of modules, each a linear sequence of
// chapters. The structure is owned by the content collaborator and is
// read-only to this engine.
type LearningPath struct {
	ID      string
	Title   string
	Modules []Module
}

type Module struct {
	ID       string
	Title    string
	Chapters []Chapter
}

type Chapter struct {
	ID            string
	Title         string
	HasAssessment bool
}

// Locate finds the (module index, chapter index) of a chapter id.
func (p *LearningPath) Locate(chapterID string) (moduleIdx, chapterIdx int, ok bool) {
	for mi, m := range p.Modules {
		for ci, ch := range m.Chapters {
			if ch.ID == chapterID {
				return mi, ci, true
			}
		}
	}
	return 0, 0, false
}

// ChapterProgress is a per-learner completion fact for one chapter,
// supplied by the content collaborator.
type ChapterProgress struct {
	ChapterID       string
	Completed       bool
	AssessmentScore *int // nil when no assessment was taken
}

// ProgressFacts bundles a learner's completion facts for one path. Missing
// chapters read as not completed.
type ProgressFacts struct {
	UserID   string
	PathID   string
	Chapters map[string]ChapterProgress
}

func NewProgressFacts(userID, pathID string) *ProgressFacts {
	return &ProgressFacts{UserID: userID, PathID: pathID, Chapters: make(map[string]ChapterProgress)}
}

func (f *ProgressFacts) ChapterCompleted(chapterID string) bool {
	if f == nil {
		return false
	}
	p, ok := f.Chapters[chapterID]
	return ok && p.Completed
}

// CompletionPredicate decides whether a learner has completed a module.
// Injected so access policy can change without touching the resolver.
type CompletionPredicate func(m Module, facts *ProgressFacts) bool

// PassingScorePredicate is the default policy: a module is complete when
// every chapter is completed and, for chapters carrying an assessment, the
// best recorded score reaches passingScore.
func PassingScorePredicate(passingScore int) CompletionPredicate {
	return func(m Module, facts *ProgressFacts) bool {
		for _, ch := range m.Chapters {
			if !facts.ChapterCompleted(ch.ID) {
				return false
			}
			if ch.HasAssessment {
				p := facts.Chapters[ch.ID]
				if p.AssessmentScore == nil || *p.AssessmentScore < passingScore {
					return false
				}
			}
		}
		return true
	}
}
