package lessons_test

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	repolessons "github.com/yungbote/neurobridge-lessons/internal/data/repos/lessons"
	"github.com/yungbote/neurobridge-lessons/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-lessons/internal/domain/lessons"
)

func TestLessonRepo_FindInCourseFiltersByLessonID(t *testing.T) {
	ctx := context.Background()
	gw := testutil.Gateway(t)
	testutil.SeedLesson(t, ctx, gw, "c1", "l1", 1)
	testutil.SeedLesson(t, ctx, gw, "c1", "l2", 2)
	testutil.SeedLesson(t, ctx, gw, "c2", "l3", 1)

	repo := repolessons.NewLessonRepo(gw, testutil.Logger(t))
	got, err := repo.FindInCourse(ctx, "c1", "l2")
	if err != nil {
		t.Fatalf("FindInCourse: %v", err)
	}
	if got == nil || got.LessonID != "l2" || got.Order != 2 {
		t.Fatalf("lesson: got %+v", got)
	}

	// lesson exists but belongs to another course
	got, err = repo.FindInCourse(ctx, "c1", "l3")
	if err != nil || got != nil {
		t.Fatalf("cross-course lookup: want nil,nil got %+v,%v", got, err)
	}
}

func TestLessonRepo_SameLessonIDInTwoCourses(t *testing.T) {
	ctx := context.Background()
	gw := testutil.Gateway(t)
	testutil.SeedLesson(t, ctx, gw, "c1", "intro", 1)
	testutil.SeedLesson(t, ctx, gw, "c2", "intro", 3)

	repo := repolessons.NewLessonRepo(gw, testutil.Logger(t))
	for _, tc := range []struct {
		course string
		order  int
	}{{"c1", 1}, {"c2", 3}} {
		got, err := repo.FindInCourse(ctx, tc.course, "intro")
		if err != nil {
			t.Fatalf("FindInCourse(%s): %v", tc.course, err)
		}
		if got == nil {
			t.Fatalf("course %s: lesson intro missing", tc.course)
		}
		if got.CourseID != tc.course || got.Order != tc.order {
			t.Fatalf("course %s: want=(%s,%d) got=(%s,%d)", tc.course, tc.course, tc.order, got.CourseID, got.Order)
		}
	}

	// re-authoring one course's copy leaves the other untouched
	testutil.SeedLesson(t, ctx, gw, "c2", "intro", 4)
	got, err := repo.FindInCourse(ctx, "c1", "intro")
	if err != nil || got == nil || got.Order != 1 {
		t.Fatalf("c1 after c2 rewrite: got %+v, %v", got, err)
	}
	got, err = repo.FindInCourse(ctx, "c2", "intro")
	if err != nil || got == nil || got.Order != 4 {
		t.Fatalf("c2 after rewrite: got %+v, %v", got, err)
	}
}

func TestLessonDetailRepo_DefaultsAndComposition(t *testing.T) {
	ctx := context.Background()
	gw := testutil.Gateway(t)
	log := testutil.Logger(t)
	testutil.SeedLesson(t, ctx, gw, "c1", "l1", 1)

	progress := repolessons.NewLessonProgressRepo(gw, log)
	notes := repolessons.NewLessonNotesRepo(gw, log)
	detail := repolessons.NewLessonDetailRepo(repolessons.NewLessonRepo(gw, log), progress, notes, log)

	got, err := detail.Get(ctx, "u1", "c1", "l1")
	if err != nil || got == nil {
		t.Fatalf("Get: detail=%v err=%v", got, err)
	}
	if got.Progress.Status != lessons.StatusNotStarted || got.Progress.ProgressPercent != 0 {
		t.Fatalf("default progress: got %+v", got.Progress)
	}
	if got.Notes != "" {
		t.Fatalf("default notes: want empty got %q", got.Notes)
	}

	testutil.SeedProgress(t, ctx, gw, repolessons.ProgressRecord{
		UserID: "u1", CourseID: "c1", LessonID: "l1",
		Status: string(lessons.StatusInProgress), ProgressPercent: 40,
	})
	if err := notes.Put(ctx, repolessons.NotesRecord{UserID: "u1", CourseID: "c1", LessonID: "l1", Content: "remember"}); err != nil {
		t.Fatalf("notes Put: %v", err)
	}

	got, _ = detail.Get(ctx, "u1", "c1", "l1")
	if got.Progress.Status != lessons.StatusInProgress || got.Progress.ProgressPercent != 40 {
		t.Fatalf("stored progress: got %+v", got.Progress)
	}
	if got.Notes != "remember" {
		t.Fatalf("notes: want=remember got=%q", got.Notes)
	}

	missing, err := detail.Get(ctx, "u1", "c1", "nope")
	if err != nil || missing != nil {
		t.Fatalf("missing lesson: want nil,nil got %v,%v", missing, err)
	}
}

func TestLessonChatRepo_AppendAndListInOrder(t *testing.T) {
	ctx := context.Background()
	gw := testutil.Gateway(t)
	repo := repolessons.NewLessonChatRepo(gw, testutil.Logger(t))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		msg := lessons.ChatMessage{
			MessageID: id,
			ThreadID:  lessons.ThreadID("c1", "l1"),
			LessonID:  "l1",
			Role:      lessons.RoleUser,
			Content:   "q" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Append(ctx, "u1", "c1", msg); err != nil {
			t.Fatalf("Append %s: %v", id, err)
		}
	}

	all, err := repo.List(ctx, "u1", "c1", "l1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].MessageID != "m1" || all[2].MessageID != "m3" {
		t.Fatalf("oldest-first: got %+v", all)
	}

	recent, _ := repo.List(ctx, "u1", "c1", "l1", 2)
	if len(recent) != 2 || recent[0].MessageID != "m2" || recent[1].MessageID != "m3" {
		t.Fatalf("most recent two: got %+v", recent)
	}

	marker, err := gw.GetItem(ctx, repolessons.ChatThreadKey("u1", "c1", "l1"))
	if err != nil || marker == nil {
		t.Fatalf("thread marker: item=%v err=%v", marker, err)
	}
	if marker.Attrs["lastMessageId"] != "m3" {
		t.Fatalf("marker last message: want=m3 got=%v", marker.Attrs["lastMessageId"])
	}
}

func TestCourseProgressRepo_InitGetAndList(t *testing.T) {
	ctx := context.Background()
	gw := testutil.Gateway(t)
	repo := repolessons.NewCourseProgressRepo(gw, testutil.Logger(t))

	created, err := repo.Init(ctx, "u1", "c1", 4)
	if err != nil || !created {
		t.Fatalf("Init: created=%v err=%v", created, err)
	}
	created, err = repo.Init(ctx, "u1", "c1", 9)
	if err != nil || created {
		t.Fatalf("second Init: want false,nil got %v,%v", created, err)
	}
	rec, err := repo.Get(ctx, "u1", "c1")
	if err != nil || rec == nil {
		t.Fatalf("Get: rec=%v err=%v", rec, err)
	}
	if rec.TotalLessons != 4 || rec.Version != 0 {
		t.Fatalf("seeded meta: got %+v", rec)
	}

	// move c2 to completed through the same op the progress transaction uses
	if _, err := repo.Init(ctx, "u1", "c2", 1); err != nil {
		t.Fatalf("Init c2: %v", err)
	}
	later := time.Now().UTC().Add(time.Minute)
	op, err := repo.UpdateOp(repolessons.CourseMetaRecord{
		UserID: "u1", CourseID: "c2", CompletedLessons: 1, TotalLessons: 1,
		ProgressPercent: 100, Status: string(lessons.CourseCompleted), UpdatedAt: &later, Version: 1,
	}, &kv.Condition{Attr: "version", Equals: int64(0), OrMissing: true})
	if err != nil {
		t.Fatalf("UpdateOp: %v", err)
	}
	if err := gw.TransactWrite(ctx, []kv.TxOp{op}); err != nil {
		t.Fatalf("TransactWrite: %v", err)
	}

	all, err := repo.ListByUser(ctx, "u1", "", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(all) != 2 || all[0].CourseID != "c2" {
		t.Fatalf("newest first: got %+v", all)
	}
	done, _ := repo.ListByUser(ctx, "u1", lessons.CourseCompleted, 10)
	if len(done) != 1 || done[0].CourseID != "c2" || done[0].ProgressPercent != 100 {
		t.Fatalf("completed only: got %+v", done)
	}
	active, _ := repo.ListByUser(ctx, "u1", lessons.CourseActive, 10)
	if len(active) != 1 || active[0].CourseID != "c1" {
		t.Fatalf("active only: got %+v", active)
	}
}

func TestUserActivityRepo_AppendOnly(t *testing.T) {
	ctx := context.Background()
	gw := testutil.Gateway(t)
	repo := repolessons.NewUserActivityRepo(gw, testutil.Logger(t))
	a := lessons.Activity{
		ActivityID: "a1", UserID: "u1", Type: lessons.ActivityStudy,
		CourseID: "c1", LessonID: "l1", Minutes: 5, At: time.Now().UTC(),
	}
	if err := repo.Append(ctx, a); err != nil {
		t.Fatalf("Append: %v", err)
	}
	a.Minutes = 15
	if err := repo.Append(ctx, a); err == nil {
		t.Fatalf("expected duplicate append to fail")
	}
	items, err := gw.QueryItems(ctx, kv.Query{PK: "UA#u1", SKPrefix: "ACT#", Forward: true})
	if err != nil {
		t.Fatalf("QueryItems: %v", err)
	}
	if len(items) != 1 || items[0].Attrs["minutes"] != float64(5) {
		t.Fatalf("activity log: got %+v", items)
	}
}
