package lessons

import (
	"fmt"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
)

const (
	skCourseMeta = "COURSE#METADATA"
	skChatThread = "THREAD"
)

const (
	entityLesson      = "lesson"
	entityProgress    = "lesson_progress"
	entityNotes       = "lesson_notes"
	entityChatMessage = "chat_message"
	entityChatThread  = "chat_thread"
	entityCourseMeta  = "course_progress"
	entityActivity    = "activity"
)

// sortTimeLayout is fixed width so lexical order equals time order.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

func sortTime(t time.Time) string { return t.UTC().Format(sortTimeLayout) }

// UserCoursePK partitions everything one learner owns in one course.
func UserCoursePK(userID, courseID string) string {
	return "UC#" + userID + "#" + courseID
}

func CourseMetaKey(userID, courseID string) kv.Key {
	return kv.Key{PK: UserCoursePK(userID, courseID), SK: skCourseMeta}
}

func ProgressKey(userID, courseID, lessonID string) kv.Key {
	return kv.Key{PK: UserCoursePK(userID, courseID), SK: "PROGRESS#LESSON#" + lessonID}
}

func NotesKey(userID, courseID, lessonID string) kv.Key {
	return kv.Key{PK: UserCoursePK(userID, courseID), SK: "NOTES#LESSON#" + lessonID}
}

func chatPrefix(lessonID string) string { return "CHAT#LESSON#" + lessonID + "#" }

func ChatMessageKey(userID, courseID, lessonID string, at time.Time, messageID string) kv.Key {
	return kv.Key{
		PK: UserCoursePK(userID, courseID),
		SK: chatPrefix(lessonID) + sortTime(at) + "#" + messageID,
	}
}

func ChatThreadKey(userID, courseID, lessonID string) kv.Key {
	return kv.Key{PK: UserCoursePK(userID, courseID), SK: chatPrefix(lessonID) + skChatThread}
}

func courseLessonsPK(courseID string) string { return "COURSE#" + courseID }

// LessonKey scopes lesson content to its course; lesson ids are only unique
// within one course.
func LessonKey(courseID, lessonID string) kv.Key {
	return kv.Key{PK: courseLessonsPK(courseID), SK: "CONTENT#LESSON#" + lessonID}
}

func lessonIndex(courseID string, order int, lessonID string) kv.IndexKeys {
	return kv.IndexKeys{PK: courseLessonsPK(courseID), SK: fmt.Sprintf("LESSON#%05d#%s", order, lessonID)}
}

func userCoursesPK(userID string) string { return "USER#" + userID }

// CourseStatusIndex places a course rollup in the learner's course list,
// newest first within a status.
func CourseStatusIndex(userID, status string, updatedAt time.Time) kv.IndexKeys {
	return kv.IndexKeys{PK: userCoursesPK(userID), SK: "STATUS#" + status + "#" + sortTime(updatedAt)}
}

func activityPK(userID string) string { return "UA#" + userID }

func ActivityKey(userID string, at time.Time, activityID string) kv.Key {
	return kv.Key{PK: activityPK(userID), SK: "ACT#" + sortTime(at) + "#" + activityID}
}
