package slide

// Kind is the wire discriminator of a slide.
type Kind string

const (
	KindContent    Kind = "Content"
	KindAssessment Kind = "Assessment"
	KindActivity   Kind = "Activity"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "Single Choice"
	MultipleChoice QuestionType = "Multiple Choice"
	TrueFalse      QuestionType = "True or False"
	FillInBlank    QuestionType = "Fill in the Blank"
	OrderList      QuestionType = "Order List"
	OpenEnded      QuestionType = "Open Ended"
	Numerical      QuestionType = "Numerical"
	MatchWords     QuestionType = "Match the Words"
	DragAndDrop    QuestionType = "Drag and Drop"
)

type ContentType string

const (
	ContentVideo         ContentType = "Video"
	ContentImage         ContentType = "Image"
	ContentRichText      ContentType = "Rich Text"
	ContentDataset       ContentType = "Dataset"
	ContentNeuralNetwork ContentType = "Neural Network"
	ContentActivity      ContentType = "Activity"
)

// Slide is one learning unit of a view. The set of implementations is
// closed: *Content, *Assessment and *Activity.
type Slide interface {
	Kind() Kind
	Common() *Base
	Clone() Slide
	sealed()
}

// Base holds the fields every slide carries.
type Base struct {
	ID        int64
	Order     int
	Name      string
	ModuleID  int64
	Completed bool
}

func (b *Base) Common() *Base { return b }
func (b *Base) sealed()       {}

type ContentItem struct {
	ID    string      `json:"content_id"`
	Order int         `json:"order"`
	Type  ContentType `json:"type"`
	URL   string      `json:"url,omitempty"`
	Title string      `json:"title,omitempty"`
}

// Content is a passive slide (video, image, rich text...).
type Content struct {
	Base
	Items []ContentItem
}

func (*Content) Kind() Kind { return KindContent }

func (c *Content) Clone() Slide {
	cp := *c
	cp.Items = append([]ContentItem(nil), c.Items...)
	return &cp
}

type Option struct {
	Text         string `json:"text"`
	IsCorrect    bool   `json:"isCorrect"`
	CorrectOrder int    `json:"correctOrder"`
	Match        string `json:"match,omitempty"`
}

type QuestionInfo struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title,omitempty"`
	Text        string       `json:"text,omitempty"`
	Type        QuestionType `json:"type"`
	Explanation string       `json:"explanation,omitempty"`
	Options     []Option     `json:"options"`
}

// Answer is one element of a learner answer. Its meaning depends on the
// question type: an option text, a numeric string, a position in an
// ordering, or a {text, match} pair.
type Answer struct {
	Text  string `json:"text"`
	Order int    `json:"order,omitempty"`
	Match string `json:"match,omitempty"`
}

// Assessment is a graded slide. Everything below Question is learner
// state owned by the engine.
type Assessment struct {
	Base
	AssessmentID int64
	Question     QuestionInfo

	Answer          []Answer
	Submitted       bool
	Submittable     bool
	IsCorrect       bool
	Revealed        bool
	SubmissionID    int64
	ShowExplanation bool
}

func (*Assessment) Kind() Kind { return KindAssessment }

func (a *Assessment) Clone() Slide {
	cp := *a
	cp.Answer = CloneAnswers(a.Answer)
	cp.Question.Options = append([]Option(nil), a.Question.Options...)
	return &cp
}

type ActivityInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	DatasetID string `json:"dataset_id,omitempty"`
	Steps     int    `json:"steps,omitempty"`
}

// Activity is an open-ended slide with no answer of its own.
type Activity struct {
	Base
	ActivityID string
	Info       ActivityInfo
}

func (*Activity) Kind() Kind { return KindActivity }

func (a *Activity) Clone() Slide {
	cp := *a
	return &cp
}

// View is a lesson or quiz: an ordered run of slides.
type View struct {
	ID       int64
	Name     string
	Quiz     bool
	ModuleID int64
	Slides   []Slide
	// Progress is the learner's stored completion array, if any.
	Progress []bool
}

type Submission struct {
	ID           int64    `json:"id,omitempty"`
	AssessmentID int64    `json:"assessment_id" validate:"required"`
	ViewID       int64    `json:"view_id"`
	Correct      bool     `json:"correct"`
	Answer       []Answer `json:"answer"`
	Revealed     bool     `json:"revealed"`
}

type Progress struct {
	Progress []bool `json:"progress" validate:"required"`
}

func CloneAnswers(in []Answer) []Answer {
	out := make([]Answer, len(in))
	copy(out, in)
	return out
}

// ProgressOf derives the completion array from the slides' current state.
func ProgressOf(slides []Slide) []bool {
	out := make([]bool, len(slides))
	for i, s := range slides {
		out[i] = s.Common().Completed
	}
	return out
}
