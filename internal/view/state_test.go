package view_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"taskmgr/internal/service"
	"taskmgr/internal/testutil"
	"taskmgr/internal/view"
)

func loaded(t *testing.T, svc *testutil.FakeService) *view.State {
	t.Helper()
	st := view.New(svc, nil)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return st
}

func date(t *testing.T, s string) *service.Date {
	t.Helper()
	d, err := service.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return &d
}

func ptr(s string) *string { return &s }

func TestLoad(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Buy milk", "2%")
	svc.AddTask("t2", "Walk dog", "")

	st := view.New(svc, nil)
	if st.Phase() != view.Loading {
		t.Errorf("expected Loading before load, got %s", st.Phase())
	}
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if st.Phase() != view.Loaded {
		t.Errorf("expected Loaded, got %s", st.Phase())
	}
	if got := st.Tasks(); len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("unexpected tasks: %+v", got)
	}
	if st.Err() != nil {
		t.Errorf("expected no error, got %v", st.Err())
	}
}

func TestLoad_FailureDegradesToEmpty(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Buy milk", "2%")
	st := loaded(t, svc)

	boom := errors.New("boom")
	svc.ListTasksErr = boom

	if err := st.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if st.Phase() != view.Loaded {
		t.Errorf("expected Loaded after failure, got %s", st.Phase())
	}
	if len(st.Tasks()) != 0 {
		t.Errorf("expected empty collection, got %+v", st.Tasks())
	}
	if !errors.Is(st.Err(), boom) {
		t.Errorf("expected Err to report failure, got %v", st.Err())
	}
	if svc.Calls["ListTasks"] != 2 {
		t.Errorf("expected no retry, got %d list calls", svc.Calls["ListTasks"])
	}
}

func TestCreate_AppendsConfirmedTask(t *testing.T) {
	svc := testutil.NewFakeService()
	st := loaded(t, svc)

	task, err := st.Create(context.Background(), service.Draft{
		Title:       "Buy milk",
		Description: "2%",
		DueDate:     date(t, "2024-01-01"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.ID == "" || task.Status != service.StatusPending {
		t.Errorf("unexpected task: %+v", task)
	}
	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("expected created task in collection, got %+v", tasks)
	}
}

func TestCreate_ValidationSkipsRepository(t *testing.T) {
	tests := []struct {
		name  string
		draft service.Draft
		field string
	}{
		{name: "no title", draft: service.Draft{Description: "d", DueDate: date(t, "2024-01-01")}, field: "title"},
		{name: "blank description", draft: service.Draft{Title: "t", Description: "  ", DueDate: date(t, "2024-01-01")}, field: "description"},
		{name: "no due date", draft: service.Draft{Title: "t", Description: "d"}, field: "dueDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			st := loaded(t, svc)

			_, err := st.Create(context.Background(), tt.draft)
			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0] != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, verr.Fields)
			}
			if svc.Calls["CreateTask"] != 0 {
				t.Error("repository must not be called on validation failure")
			}
		})
	}
}

func TestCreate_FailureLeavesCollection(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Existing", "x")
	st := loaded(t, svc)

	svc.CreateTaskErr = errors.New("backend down")
	_, err := st.Create(context.Background(), service.Draft{Title: "a", Description: "b", DueDate: date(t, "2024-01-01")})
	if err == nil {
		t.Fatal("expected error")
	}
	if tasks := st.Tasks(); len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("expected unchanged collection, got %+v", tasks)
	}
}

func TestDelete(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "a", "b")
	svc.AddTask("t2", "c", "d")
	st := loaded(t, svc)

	if err := st.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if tasks := st.Tasks(); len(tasks) != 1 || tasks[0].ID != "t2" {
		t.Errorf("expected only t2, got %+v", tasks)
	}

	// Second delete of the same id is NotFound and changes nothing.
	if err := st.Delete(context.Background(), "t1"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(st.Tasks()) != 1 {
		t.Errorf("expected collection unchanged, got %+v", st.Tasks())
	}
}

func TestDelete_FailureLeavesCollection(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "a", "b")
	st := loaded(t, svc)

	svc.DeleteTaskErr = errors.New("boom")
	if err := st.Delete(context.Background(), "t1"); err == nil {
		t.Fatal("expected error")
	}
	if len(st.Tasks()) != 1 {
		t.Errorf("expected no optimistic removal, got %+v", st.Tasks())
	}
}

func TestComplete_UpdatesOnlyStatus(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.Put(service.Task{ID: "t1", Title: "Buy milk", Description: "2%", DueDate: date(t, "2024-01-01"), Status: service.StatusPending})
	st := loaded(t, svc)
	before := st.Tasks()[0]

	if err := st.Complete(context.Background(), "t1"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	after := st.Tasks()[0]
	if after.Status != service.StatusCompleted {
		t.Errorf("expected Completed, got %q", after.Status)
	}
	after.Status = before.Status
	if after != before {
		t.Errorf("expected other fields unchanged: before %+v after %+v", before, after)
	}

	// Re-applying is idempotent.
	if err := st.Complete(context.Background(), "t1"); err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	if st.Tasks()[0].Status != service.StatusCompleted {
		t.Error("expected status to stay Completed")
	}
	if stats := st.Stats(); stats != (view.Stats{Total: 1, Completed: 1}) {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestComplete_FailureLeavesCollection(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "a", "b")
	st := loaded(t, svc)

	svc.SetStatusErr = errors.New("boom")
	if err := st.Complete(context.Background(), "t1"); err == nil {
		t.Fatal("expected error")
	}
	if st.Tasks()[0].Status != service.StatusPending {
		t.Error("expected status unchanged")
	}
}

func TestEdit_DoesNotPatchInPlace(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "Old", "desc")
	st := loaded(t, svc)

	task, err := st.Prefill(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Prefill failed: %v", err)
	}
	if task.Title != "Old" {
		t.Errorf("expected prefill title Old, got %q", task.Title)
	}

	updated, err := st.SubmitEdit(context.Background(), "t1", service.Patch{Title: ptr("New"), Description: ptr("desc")})
	if err != nil {
		t.Fatalf("SubmitEdit failed: %v", err)
	}
	if updated.Title != "New" {
		t.Errorf("expected returned title New, got %q", updated.Title)
	}
	if st.Tasks()[0].Title != "Old" {
		t.Error("collection must not be patched until the next load")
	}

	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if st.Tasks()[0].Title != "New" {
		t.Errorf("expected reload to pick up edit, got %q", st.Tasks()[0].Title)
	}
}

func TestSubmitEdit_Validation(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "a", "b")
	st := loaded(t, svc)

	var verr *service.ValidationError
	if _, err := st.SubmitEdit(context.Background(), "t1", service.Patch{Title: ptr(" ")}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for blank title, got %v", err)
	}
	if _, err := st.SubmitEdit(context.Background(), "t1", service.Patch{}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for empty patch, got %v", err)
	}
	if svc.Calls["UpdateTask"] != 0 {
		t.Error("repository must not be called on validation failure")
	}
}

func TestPrefill_SurfacesDecodeError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.GetTaskErr = service.ErrMalformedResponse
	st := view.New(svc, nil)

	task, err := st.Prefill(context.Background(), "t1")
	if !errors.Is(err, service.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
	if task != (service.Task{}) {
		t.Errorf("expected no partial task, got %+v", task)
	}
}

func TestResolve(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("abc", "a", "b")
	svc.AddTask("def", "c", "d")
	st := loaded(t, svc)

	if task, err := st.Resolve("2"); err != nil || task.ID != "def" {
		t.Errorf("Resolve(2) = %+v, %v", task, err)
	}
	if task, err := st.Resolve("abc"); err != nil || task.ID != "abc" {
		t.Errorf("Resolve(abc) = %+v, %v", task, err)
	}
	for _, ref := range []string{"0", "3", "zzz"} {
		if _, err := st.Resolve(ref); !errors.Is(err, view.ErrNoSuchTask) {
			t.Errorf("Resolve(%q): expected ErrNoSuchTask, got %v", ref, err)
		}
	}
}

func TestResolve_NumericIDs(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1001", "a", "b")
	svc.AddTask("2", "c", "d")
	st := loaded(t, svc)

	// Out of range as a position, so it is looked up as an id.
	if task, err := st.Resolve("1001"); err != nil || task.ID != "1001" {
		t.Errorf("Resolve(1001) = %+v, %v", task, err)
	}
	// In range: the position wins.
	if task, err := st.Resolve("2"); err != nil || task.ID != "2" {
		t.Errorf("Resolve(2) = %+v, %v", task, err)
	}
	if task, err := st.Resolve("1"); err != nil || task.ID != "1001" {
		t.Errorf("Resolve(1) = %+v, %v", task, err)
	}

	if task, err := st.Find("2"); err != nil || task.ID != "2" {
		t.Errorf("Find(2) = %+v, %v", task, err)
	}
	if _, err := st.Find("1"); !errors.Is(err, view.ErrNoSuchTask) {
		t.Errorf("Find(1): expected ErrNoSuchTask, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "a", "b")
	svc.AddTask("t2", "c", "d")
	svc.Put(service.Task{ID: "t3", Title: "e", Status: service.StatusCompleted})
	st := loaded(t, svc)

	want := view.Stats{Total: 3, Pending: 2, Completed: 1}
	if got := st.Stats(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestConcurrentDeleteAndComplete(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("t1", "a", "b")
	svc.AddTask("t2", "c", "d")
	st := loaded(t, svc)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.Delete(context.Background(), "t1")
	}()
	go func() {
		defer wg.Done()
		st.Complete(context.Background(), "t1")
	}()
	wg.Wait()

	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "t2" {
		t.Errorf("expected only t2 after delete, got %+v", tasks)
	}
	if _, ok := svc.Stored("t1"); ok {
		t.Error("expected t1 deleted remotely")
	}
}
