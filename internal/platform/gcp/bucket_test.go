package gcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/eduforge/lms-backend/internal/platform/logger"
)

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"lessons/a.PDF":       "application/pdf",
		"lessons/a.txt?x=1":   "text/plain",
		"lessons/deck.pptx":   "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"lessons/notes.docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"lessons/archive.zip": "",
		"":                    "",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}

func TestNewLessonBucketRejectsBadEmulatorHost(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := NewLessonBucket(context.Background(), log, BucketConfig{Name: "b", EmulatorHost: "fake-gcs"}); err == nil {
		t.Fatalf("expected invalid emulator host error")
	}
	if _, err := NewLessonBucket(context.Background(), log, BucketConfig{}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestLessonBucketEmulatorLifecycle(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("LMS_RUN_GCS_EMULATOR_INTEGRATION")), "true") {
		t.Skip("set LMS_RUN_GCS_EMULATOR_INTEGRATION=true to run emulator integration tests")
	}
	host := strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/")
	if host == "" {
		host = "http://127.0.0.1:4443"
	}
	bucketName := fmt.Sprintf("lms-it-%d", time.Now().UnixNano())
	createBucket(t, host, bucketName)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	ctx := context.Background()
	b, err := NewLessonBucket(ctx, log, BucketConfig{Name: bucketName, EmulatorHost: host})
	if err != nil {
		t.Fatalf("NewLessonBucket: %v", err)
	}
	defer b.Close()

	key := "lessons/it/a.txt"
	if err := b.Put(ctx, key, strings.NewReader("alpha")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := b.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "alpha" {
		t.Fatalf("Open body: want=%q got=%q", "alpha", body)
	}
	keys, err := b.ListKeys(ctx, "lessons/it/")
	if err != nil || !slices.Contains(keys, key) {
		t.Fatalf("ListKeys: err=%v keys=%v", err, keys)
	}
	if err := b.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, err := b.Open(ctx, key); err != ErrObjectNotFound {
		t.Fatalf("Open after delete: want ErrObjectNotFound got %v", err)
	}
}

func createBucket(t *testing.T, host, name string) {
	t.Helper()
	body := strings.NewReader(fmt.Sprintf(`{"name":%q}`, name))
	resp, err := http.Post(host+"/storage/v1/b?project=test", "application/json", body)
	if err != nil {
		t.Skipf("storage emulator not reachable at %s: %v", host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		t.Fatalf("create bucket %s: status=%d", name, resp.StatusCode)
	}
}
