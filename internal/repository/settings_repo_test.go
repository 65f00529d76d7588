package repository

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSettings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSettingsRepository(db)

	if _, ok, err := repo.Get(ctx, "device_id"); err != nil || ok {
		t.Fatalf("Get() unset = %v, %v", ok, err)
	}

	if err := repo.Set(ctx, "device_id", "device-1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, "device_id", "device-2"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	v, ok, err := repo.Get(ctx, "device_id")
	if err != nil || !ok || v != "device-2" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}

	if err := repo.SetMany(ctx, map[string]string{"app_version": "1.0.0", "user_id": "u1", "first_launch": "false"}); err != nil {
		t.Fatalf("SetMany() error = %v", err)
	}

	if err := repo.DeleteAllExcept(ctx, "device_id", "app_version"); err != nil {
		t.Fatalf("DeleteAllExcept() error = %v", err)
	}
	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	want := map[string]string{"device_id": "device-2", "app_version": "1.0.0"}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	if err := repo.Delete(ctx, "device_id"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "device_id"); err != nil {
		t.Errorf("Delete() unset key error = %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "device_id"); ok {
		t.Error("device_id still set after Delete()")
	}
}
