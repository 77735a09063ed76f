package blob

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestFilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver: %s", store.Driver())
	}

	const content = "id,fund_name\nr1,Acme Fund III\n"
	info, err := store.Put(ctx, "exports/review.csv", strings.NewReader(content), PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" {
		t.Fatalf("etag not computed")
	}
	if info.Size != int64(len(content)) {
		t.Fatalf("size: %d", info.Size)
	}

	if _, err := store.Put(ctx, "exports/review.csv", strings.NewReader("x"), PutOptions{}); err == nil {
		t.Fatalf("create-only violated")
	}

	got, rc, err := store.Get(ctx, "exports/review.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(body) != content {
		t.Fatalf("content mismatch: %q %v", body, err)
	}
	if got.ContentType != "text/csv" {
		t.Fatalf("content type lost: %q", got.ContentType)
	}

	infos, err := store.List(ctx, "exports/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("list: %+v %v", infos, err)
	}

	url, err := store.PresignURL(ctx, "exports/review.csv", SignedURLOptions{})
	if err != nil || !strings.Contains(url, "exports/review.csv") {
		t.Fatalf("presign: %q %v", url, err)
	}

	ok, err := store.Delete(ctx, "exports/review.csv")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}

func TestFilesystemRejectsHostileKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}
