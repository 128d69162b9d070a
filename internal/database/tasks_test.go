package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testTime returns a fixed, strictly increasing timestamp per index.
func testTime(i int) time.Time {
	return time.Unix(int64(1700000000+i*60), 0)
}

func insertTestFile(t *testing.T, db *Database, id string) {
	t.Helper()
	rec := &FileRecord{ID: id, Extension: "mp4", Width: 1280, Height: 720, ThumbnailHeight: 169}
	if err := db.InsertFile(context.Background(), rec); err != nil {
		t.Fatalf("InsertFile(%s): %v", id, err)
	}
}

func TestCreateAndGetTask(t *testing.T) {
	db := newTestDB(t, "")
	ctx := context.Background()

	insertTestFile(t, db, "vid1")
	if err := db.CreateTask(ctx, "vid1"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	task, err := db.GetTask(ctx, "vid1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !task.Thumbnail || !task.Gif {
		t.Errorf("task flags = %+v, want both true", task)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	db := newTestDB(t, "")

	if _, err := db.GetTask(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListTasksOrderedByUpload(t *testing.T) {
	db := newTestDB(t, "")
	ctx := context.Background()

	// Insert deliberately out of lexical order with increasing created_at.
	for i, id := range []string{"zvid", "avid"} {
		rec := &FileRecord{ID: id, Extension: "mp4", Width: 1, Height: 1, ThumbnailHeight: 1}
		rec.CreatedAt = testTime(i)
		if err := db.InsertFile(ctx, rec); err != nil {
			t.Fatalf("InsertFile(%s): %v", id, err)
		}
		if err := db.CreateTask(ctx, id); err != nil {
			t.Fatalf("CreateTask(%s): %v", id, err)
		}
	}

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	if tasks[0].ID != "zvid" || tasks[1].ID != "avid" {
		t.Errorf("tasks not in upload order: %v", tasks)
	}
}

func TestDeleteTasksCascade(t *testing.T) {
	db := newTestDB(t, "")
	ctx := context.Background()

	insertTestFile(t, db, "vid2")
	if err := db.CreateTask(ctx, "vid2"); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := db.DeleteFiles(ctx, []string{"vid2"}); err != nil {
		t.Fatalf("DeleteFiles: %v", err)
	}
	if _, err := db.DeleteTasks(ctx, []string{"vid2"}); err != nil {
		t.Fatalf("DeleteTasks: %v", err)
	}

	if _, err := db.GetTask(ctx, "vid2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("task row survived delete: %v", err)
	}
}
