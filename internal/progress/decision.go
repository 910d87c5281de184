package progress

// ReasonCode 拒绝访问的原因
type ReasonCode string

const (
	ReasonNotAuthenticated   ReasonCode = "not_authenticated"
	ReasonNoProgress         ReasonCode = "no_progress"
	ReasonLessonNotFound     ReasonCode = "lesson_not_found"
	ReasonNotAvailableYet    ReasonCode = "not_available_yet"
	ReasonChapterQuiz        ReasonCode = "chapter_quiz_required"
	ReasonPreviousIncomplete ReasonCode = "previous_lesson_incomplete"
	ReasonPreviousJournal    ReasonCode = "previous_lesson_journal"
	ReasonPreviousMovement   ReasonCode = "previous_lesson_movement"
)

var reasonMessages = map[ReasonCode]string{
	ReasonNotAuthenticated:   "Sign in to access this lesson",
	ReasonNoProgress:         "No progress found",
	ReasonLessonNotFound:     "Lesson not found",
	ReasonNotAvailableYet:    "This lesson is not available yet",
	ReasonChapterQuiz:        "Complete the chapter quiz to unlock this lesson",
	ReasonPreviousIncomplete: "Finish the previous lesson's journal and movement first",
	ReasonPreviousJournal:    "Finish the previous lesson's journal first",
	ReasonPreviousMovement:   "Finish the previous lesson's movement first",
}

func (c ReasonCode) Message() string {
	return reasonMessages[c]
}

// AccessDecision 课程访问判断结果
type AccessDecision struct {
	LessonDay            int           `json:"lessonDay"`
	CanAccess            bool          `json:"canAccess"`
	Reason               string        `json:"reason,omitempty"`
	ReasonCode           ReasonCode    `json:"reasonCode,omitempty"`
	UnlockedDay          int           `json:"unlockedDay,omitempty"`
	RequiredChapter      int           `json:"requiredChapter,omitempty"`
	PreviousLessonStatus *LessonStatus `json:"previousLessonStatus,omitempty"`
}

func allow(lessonDay int) AccessDecision {
	return AccessDecision{LessonDay: lessonDay, CanAccess: true}
}

func deny(lessonDay int, code ReasonCode) AccessDecision {
	return AccessDecision{
		LessonDay:  lessonDay,
		CanAccess:  false,
		Reason:     code.Message(),
		ReasonCode: code,
	}
}

// Deny 构造拒绝结果，供服务层在进入规则判断前拒绝（如未登录）
func Deny(lessonDay int, code ReasonCode) AccessDecision {
	return deny(lessonDay, code)
}
